package iknp

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
)

func pipe() (*channel.Channel, *channel.Channel) {
	a, b := net.Pipe()
	return channel.New(a), channel.New(b)
}

func runExtension(t *testing.T, n int, malicious bool) (delta block.B32, q, tr []block.B32, choices []bool) {
	t.Helper()
	senderCh, recvCh := pipe()

	choices = make([]bool, n)
	for i := range choices {
		choices[i] = i%3 == 0
	}

	type sendResult struct {
		delta block.B32
		q     []block.B32
		err   error
	}
	resc := make(chan sendResult, 1)
	go func() {
		s, err := SetupSend(context.Background(), senderCh, nil, malicious)
		if err != nil {
			resc <- sendResult{err: err}
			return
		}
		q, err := s.SendCOT(context.Background(), senderCh, n)
		resc <- sendResult{delta: s.Delta(), q: q, err: err}
	}()

	r, err := SetupRecv(context.Background(), recvCh, malicious)
	require.NoError(t, err)
	tr, err = r.RecvCOT(context.Background(), recvCh, choices)
	require.NoError(t, err)

	res := <-resc
	require.NoError(t, res.err)
	return res.delta, res.q, tr, choices
}

func TestCOTInvariantHonest(t *testing.T) {
	const n = 5000
	delta, q, tr, choices := runExtension(t, n, false)
	require.Len(t, q, n)
	require.Len(t, tr, n)
	for i := range q {
		want := tr[i]
		if choices[i] {
			want = block.Xor32(want, delta)
		}
		require.Equal(t, want, q[i], "index %d", i)
	}
}

func TestCOTInvariantMalicious(t *testing.T) {
	const n = 4096
	delta, q, tr, choices := runExtension(t, n, true)
	require.Len(t, q, n)
	for i := range q {
		want := tr[i]
		if choices[i] {
			want = block.Xor32(want, delta)
		}
		require.Equal(t, want, q[i], "index %d", i)
	}
}

func TestCOTCrossesMultipleBlocks(t *testing.T) {
	// n spans more than one Block-sized chunk to exercise the loop boundary.
	n := Block + 17
	_, q, tr, _ := runExtension(t, n, false)
	require.Len(t, q, n)
	require.Len(t, tr, n)
}
