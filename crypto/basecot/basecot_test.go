package basecot

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/otpre"
)

func pipe() (*channel.Channel, *channel.Channel) {
	a, b := net.Pipe()
	return channel.New(a), channel.New(b)
}

func setupPair(t *testing.T, malicious bool) (*BaseCOT, *BaseCOT, *channel.Channel, *channel.Channel) {
	t.Helper()
	senderCh, recvCh := pipe()

	type res struct {
		b   *BaseCOT
		err error
	}
	resc := make(chan res, 1)
	go func() {
		b, err := CotGenPreSender(context.Background(), senderCh, nil, malicious)
		resc <- res{b, err}
	}()
	recv, err := CotGenPreReceiver(context.Background(), recvCh, malicious)
	require.NoError(t, err)
	sres := <-resc
	require.NoError(t, sres.err)
	require.Equal(t, byte(1), sres.b.Delta()[0]&1)
	return sres.b, recv, senderCh, recvCh
}

func TestCotGenLowBitInvariant(t *testing.T) {
	sender, recv, senderCh, recvCh := setupPair(t, false)

	const n = 2048
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = i%5 == 0
	}

	type sres struct {
		q   []block.B32
		err error
	}
	resc := make(chan sres, 1)
	go func() {
		q, err := sender.CotGen(context.Background(), senderCh, n, nil)
		resc <- sres{q, err}
	}()
	tvals, err := recv.CotGen(context.Background(), recvCh, n, bits)
	require.NoError(t, err)
	sr := <-resc
	require.NoError(t, sr.err)

	delta := sender.Delta()
	for i := 0; i < n; i++ {
		want := tvals[i]
		if bits[i] {
			want = block.Xor32(want, delta)
		}
		got := sr.q[i]
		// compare everything except bit 0 (q has LSB cleared, t has LSB
		// overwritten with the choice bit, per the low-bit trick).
		want[0] &^= 1
		got[0] &^= 1
		require.Equal(t, want, got, "index %d", i)
	}
}

func TestCotGenPreotFeedsOTPre(t *testing.T) {
	sender, recv, senderCh, recvCh := setupPair(t, false)

	const n = 512
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = i%2 == 0
	}

	senderOT := otpre.New(n)
	recvOT := otpre.New(n)

	errc := make(chan error, 1)
	go func() {
		errc <- sender.CotGenPreot(context.Background(), senderCh, senderOT, n, nil)
	}()
	require.NoError(t, recv.CotGenPreot(context.Background(), recvCh, recvOT, n, bits))
	require.NoError(t, <-errc)

	require.Equal(t, n, senderOT.Len())
	require.Equal(t, n, recvOT.Len())
}
