package voletriple

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/field"
)

func pipe() (*channel.Channel, *channel.Channel) {
	a, b := net.Pipe()
	return channel.New(a), channel.New(b)
}

// tinyParams is a deliberately miniature parameter set satisfying every
// Validate() constraint, so the bootstrap ladder and main extend round run
// against 4-leaf trees instead of the multi-million-element production
// sizes in DefaultParams/WolverineParams/PhuocParams.
var tinyParams = Params{
	N: 12, T: 3, K: 2, LogBinSz: 2,
	NPre: 12, TPre: 3, KPre: 2, LogBinSzPre: 2,
	NPre0: 12, TPre0: 3, KPre0: 1, LogBinSzPre0: 2,
}

func TestTinyParamsValidate(t *testing.T) {
	require.NoError(t, tinyParams.Validate())
}

func TestEndToEndSetupExtendAndCheck(t *testing.T) {
	senderCh, recvCh := pipe()
	ctx := context.Background()

	type sres struct {
		y   []field.Element
		err error
	}
	resc := make(chan sres, 1)
	go func() {
		vs, err := New(ctx, senderCh, RoleSender, false, tinyParams)
		if err != nil {
			resc <- sres{err: err}
			return
		}
		if err := vs.SetupSender(ctx, senderCh); err != nil {
			resc <- sres{err: err}
			return
		}
		vs.ExtendInitialization()
		y, _, err := vs.Extend(ctx, senderCh, 4)
		if err != nil {
			resc <- sres{err: err}
			return
		}
		if err := vs.CheckTriple(ctx, senderCh, y, nil); err != nil {
			resc <- sres{err: err}
			return
		}
		resc <- sres{y: y}
	}()

	vr, err := New(ctx, recvCh, RoleReceiver, false, tinyParams)
	require.NoError(t, err)
	require.NoError(t, vr.SetupReceiver(ctx, recvCh))
	vr.ExtendInitialization()

	y, z, err := vr.Extend(ctx, recvCh, 4)
	require.NoError(t, err)
	require.Len(t, y, 4)
	require.Len(t, z, 4)

	require.NoError(t, vr.CheckTriple(ctx, recvCh, y, z))

	sr := <-resc
	require.NoError(t, sr.err)
	require.Len(t, sr.y, 4)
}

func TestSilentOTLeftAccountingAfterInitialization(t *testing.T) {
	senderCh, recvCh := pipe()
	ctx := context.Background()

	type sres struct {
		vs  *VoleTriple
		err error
	}
	resc := make(chan sres, 1)
	go func() {
		vs, err := New(ctx, senderCh, RoleSender, false, tinyParams)
		if err != nil {
			resc <- sres{err: err}
			return
		}
		if err := vs.SetupSender(ctx, senderCh); err != nil {
			resc <- sres{err: err}
			return
		}
		resc <- sres{vs: vs}
	}()

	vr, err := New(ctx, recvCh, RoleReceiver, false, tinyParams)
	require.NoError(t, err)
	require.NoError(t, vr.SetupReceiver(ctx, recvCh))

	sr := <-resc
	require.NoError(t, sr.err)

	sr.vs.ExtendInitialization()
	vr.ExtendInitialization()

	wantOTLimit := tinyParams.N - (tinyParams.K + tinyParams.T + 1)
	require.Equal(t, wantOTLimit, sr.vs.SilentOTLeft())
	require.Equal(t, wantOTLimit, vr.SilentOTLeft())
}
