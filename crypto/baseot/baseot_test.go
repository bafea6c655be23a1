package baseot

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

func TestBaseOTReturnsChosenMessage(t *testing.T) {
	senderCh, recvCh := pipe()

	const l = 8
	m0 := make([]block.B16, l)
	m1 := make([]block.B16, l)
	choices := make([]bool, l)
	for i := range m0 {
		m0[i] = block.B16{byte(i), 0xAA}
		m1[i] = block.B16{byte(i), 0xBB}
		choices[i] = i%2 == 0
	}

	errc := make(chan error, 1)
	go func() {
		s := NewSender()
		errc <- s.Send(context.Background(), senderCh, m0, m1)
	}()

	got, err := Receive(context.Background(), recvCh, choices)
	require.NoError(t, err)
	require.NoError(t, <-errc)
	require.Len(t, got, l)

	for i, c := range choices {
		if c {
			require.Equal(t, m1[i], got[i])
		} else {
			require.Equal(t, m0[i], got[i])
		}
	}
}

func TestBaseOTTwoSessionsEachDeliverChosenMessage(t *testing.T) {
	senderCh1, recvCh1 := pipe()
	senderCh2, recvCh2 := pipe()

	m0 := []block.B16{{1, 2, 3}}
	m1 := []block.B16{{4, 5, 6}}
	choices := []bool{true}

	errc := make(chan error, 2)
	go func() {
		errc <- NewSender().Send(context.Background(), senderCh1, m0, m1)
	}()
	go func() {
		errc <- NewSender().Send(context.Background(), senderCh2, m0, m1)
	}()

	got1, err := Receive(context.Background(), recvCh1, choices)
	require.NoError(t, err)
	got2, err := Receive(context.Background(), recvCh2, choices)
	require.NoError(t, err)
	require.NoError(t, <-errc)
	require.NoError(t, <-errc)

	require.Equal(t, m1[0], got1[0])
	require.Equal(t, m1[0], got2[0])
}
