package spfss

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
	"github.com/phuocchubeo123/volefp/crypto/otpre"
)

func pipe() (*channel.Channel, *channel.Channel) {
	a, b := net.Pipe()
	return channel.New(a), channel.New(b)
}

// setupOTPre builds a correlated OTPre pair the way CotGenPreot would, for
// `n` slots, with the receiver's stored choice bits fixed to `bits`.
func setupOTPre(n int, bits []bool) (sender, recver *otpre.OTPre, delta block.B32) {
	sender = otpre.New(n)
	recver = otpre.New(n)

	r := make([]block.B32, n)
	tvals := make([]block.B32, n)
	delta = block.B32{0x9, 0x8, 0x7, 1}
	for i := 0; i < n; i++ {
		r[i] = block.B32{byte(i + 1), byte(i * 5), 3}
		if bits[i] {
			tvals[i] = block.Xor32(r[i], delta)
		} else {
			tvals[i] = r[i]
		}
	}
	sender.SendPre(r, delta)
	recver.RecvPre(tvals, bits)
	return
}

func TestSPFSSTreeMatchesExceptHiddenPosition(t *testing.T) {
	const depth = 4 // 8 leaves, 3 internal OT rounds
	rounds := depth - 1
	choices := []bool{true, false, true}

	senderOT, recvOT, _ := setupOTPre(rounds, choices)
	senderCh, recvCh := pipe()

	gamma := field.FromUint64(12345)
	beta := field.FromUint64(6789)

	type sres struct {
		res SenderResult
		err error
	}
	resc := make(chan sres, 1)
	go func() {
		res, err := SenderRun(context.Background(), senderCh, senderOT, 0, depth, gamma)
		resc <- sres{res, err}
	}()

	recvRes, err := ReceiverRun(context.Background(), recvCh, recvOT, 0, depth, choices, beta)
	require.NoError(t, err)
	sr := <-resc
	require.NoError(t, sr.err)

	require.Equal(t, 1<<uint(rounds), len(sr.res.Tree))
	require.Equal(t, len(sr.res.Tree), len(recvRes.Tree))

	alpha := choicePosFromBits(choices, rounds)
	require.Equal(t, alpha, recvRes.ChoicePos)

	for i := range sr.res.Tree {
		if i == alpha {
			require.True(t, field.Equal(recvRes.Tree[i], beta), "hidden position should read beta")
		} else {
			require.True(t, field.Equal(sr.res.Tree[i], recvRes.Tree[i]), "index %d should match sender's leaf", i)
		}
	}
}

func TestSPFSSConsistencyCheckPasses(t *testing.T) {
	const depth = 3 // 4 leaves, 2 internal OT rounds
	rounds := depth - 1
	choices := []bool{false, true}

	senderOT, recvOT, delta := setupOTPre(rounds, choices)
	senderCh, recvCh := pipe()

	gamma := field.FromUint64(42)
	beta := field.FromUint64(100)

	type sres struct {
		res SenderResult
		err error
	}
	resc := make(chan sres, 1)
	go func() {
		res, err := SenderRun(context.Background(), senderCh, senderOT, 0, depth, gamma)
		resc <- sres{res, err}
	}()
	recvRes, err := ReceiverRun(context.Background(), recvCh, recvOT, 0, depth, choices, beta)
	require.NoError(t, err)
	sr := <-resc
	require.NoError(t, sr.err)

	deltaField := block32ToField(delta)

	// The outer sVOLE layer supplies (y, z) satisfying a MAC relation over
	// the whole leaf vector; derive a matching pair here by replicating the
	// same chi/xStar/V algebra the check functions use internally, rather
	// than asserting an assumed y/z relation.
	chi := generateHashCoeff(digestOf(sr.res.S), len(sr.res.Tree))
	z := field.FromUint64(777)
	alpha := recvRes.ChoicePos
	xStar := field.Neg(field.Add(z, field.Mul(chi[alpha], beta)))
	w := field.Sub(field.InnerProduct(chi, recvRes.Tree), z)
	y := field.Sub(field.Add(field.InnerProduct(chi, sr.res.Tree), field.Mul(xStar, deltaField)), w)

	errc := make(chan error, 1)
	go func() {
		errc <- sr.res.ConsistencyCheckSender(context.Background(), senderCh, y, deltaField)
	}()
	err = recvRes.ConsistencyCheckReceiver(context.Background(), recvCh, z, beta)
	require.NoError(t, err)
	require.NoError(t, <-errc)
}
