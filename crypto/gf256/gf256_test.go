package gf256

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phuocchubeo123/volefp/crypto/block"
)

func TestMul256ByZeroIsZero(t *testing.T) {
	a := block.B32{1, 2, 3, 4}
	var zero block.B32
	lo, hi := Mul256(a, zero)
	require.Equal(t, zero, lo)
	require.Equal(t, zero, hi)
}

func TestMul256ByOneIsIdentityOnLowHalf(t *testing.T) {
	a := block.B32{1, 2, 3, 4, 5}
	var one block.B32
	one[0] = 1
	lo, hi := Mul256(a, one)
	require.Equal(t, a, lo)
	require.Equal(t, block.B32{}, hi)
}

func TestMul256Commutative(t *testing.T) {
	a := block.B32{0xff, 0x01, 0x02}
	b := block.B32{0x03, 0x04, 0x05}
	lo1, hi1 := Mul256(a, b)
	lo2, hi2 := Mul256(b, a)
	require.Equal(t, lo1, lo2)
	require.Equal(t, hi1, hi2)
}

func TestVectorInnerProductSumMatchesManualAccumulation(t *testing.T) {
	coeffs := []block.B32{{1}, {2}, {3}}
	vals := []block.B32{{4}, {5}, {6}}

	var acc Acc
	for i := range coeffs {
		acc.AddProduct(coeffs[i], vals[i])
	}
	wantLo, wantHi := acc.Halves()

	gotLo, gotHi := VectorInnerProductSumNoRed(coeffs, vals)
	require.Equal(t, wantLo, gotLo)
	require.Equal(t, wantHi, gotHi)
}
