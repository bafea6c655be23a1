package otpre

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

// setup builds a correlated pair of OTPre buffers as CotGenPreot would:
// sender holds random r_i, receiver holds t_i = r_i xor (bit_i ? delta : 0).
func setup(n int) (sender, recver *OTPre, delta block.B32, bits []bool) {
	sender = New(n)
	recver = New(n)

	r := make([]block.B32, n)
	tvals := make([]block.B32, n)
	bits = make([]bool, n)
	delta = block.B32{0xAB, 0xCD, 1, 2, 3}
	for i := 0; i < n; i++ {
		r[i] = block.B32{byte(i), byte(i * 3), 7}
		bits[i] = i%2 == 0
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

func TestChoicesRoundTripAdjustsBits(t *testing.T) {
	const n = 6
	sender, recver, _, _ := setup(n)
	senderCh, recvCh := pipe()

	desired := []bool{true, false, true, true, false, false}

	errc := make(chan error, 1)
	go func() { errc <- sender.ChoicesSender(context.Background(), senderCh) }()
	require.NoError(t, recver.ChoicesRecver(context.Background(), recvCh, desired))
	require.NoError(t, <-errc)

	require.Equal(t, n, sender.count)
	require.Equal(t, n, recver.count)
	for i := 0; i < n; i++ {
		require.Equal(t, desired[i] != recver.bits[i], sender.bits[i], "index %d", i)
	}
}

func TestSendRecvDeliversChosenMessage(t *testing.T) {
	const n = 10
	sender, recver, _, _ := setup(n)
	senderCh, recvCh := pipe()

	desired := make([]bool, n)
	m0 := make([]block.B32, n)
	m1 := make([]block.B32, n)
	for i := 0; i < n; i++ {
		desired[i] = i%3 == 0
		m0[i] = block.B32{byte(i), 0x10}
		m1[i] = block.B32{byte(i), 0x20}
	}

	errc := make(chan error, 1)
	go func() { errc <- sender.ChoicesSender(context.Background(), senderCh) }()
	require.NoError(t, recver.ChoicesRecver(context.Background(), recvCh, desired))
	require.NoError(t, <-errc)

	go func() { errc <- sender.Send(context.Background(), senderCh, m0, m1, n, 0) }()
	got, err := recver.Recv(context.Background(), recvCh, desired, n, 0)
	require.NoError(t, err)
	require.NoError(t, <-errc)

	for i := 0; i < n; i++ {
		if desired[i] {
			require.Equal(t, m1[i], got[i], "index %d", i)
		} else {
			require.Equal(t, m0[i], got[i], "index %d", i)
		}
	}
}

func TestResetClearsCursorOnly(t *testing.T) {
	const n = 4
	sender, _, _, _ := setup(n)
	sender.count = 3
	sender.Reset()
	require.Equal(t, 0, sender.count)
	require.Equal(t, n, sender.Len())
}
