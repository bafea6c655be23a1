package twokeyprp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phuocchubeo123/volefp/crypto/field"
)

func TestExpand1to2Deterministic(t *testing.T) {
	parent := field.FromUint64(123456)
	l1, r1 := Expand1to2(parent)
	l2, r2 := Expand1to2(parent)
	require.True(t, field.Equal(l1, l2))
	require.True(t, field.Equal(r1, r2))
}

func TestExpand1to2ChildrenDiffer(t *testing.T) {
	parent := field.FromUint64(7)
	l, r := Expand1to2(parent)
	require.False(t, field.Equal(l, r))
}

func TestExpand1to2DifferentParents(t *testing.T) {
	l1, _ := Expand1to2(field.FromUint64(1))
	l2, _ := Expand1to2(field.FromUint64(2))
	require.False(t, field.Equal(l1, l2))
}

func TestExpand2to4MatchesExpand1to2(t *testing.T) {
	p0 := field.FromUint64(10)
	p1 := field.FromUint64(20)
	out := make([]field.Element, 4)
	Expand2to4(out, [2]field.Element{p0, p1})

	l0, r0 := Expand1to2(p0)
	l1, r1 := Expand1to2(p1)
	require.True(t, field.Equal(out[0], l0))
	require.True(t, field.Equal(out[1], r0))
	require.True(t, field.Equal(out[2], l1))
	require.True(t, field.Equal(out[3], r1))
}
