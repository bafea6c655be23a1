// Package basecot implements the thin orchestrator wrapping BaseOT+IKNP and
// feeding OTPre with Delta: it owns the one-time base-OT
// bootstrap and exposes `cot_gen`/`cot_gen_preot` for every later layer
// (COPE, BaseSVOLE, SPFSS, MPFSS) to draw correlated randomness from.
//
// Grounded on _examples/original_source/src/base_cot.rs for the
// cot_gen_pre/cot_gen/cot_gen_preot split and the low-bit trick (Sender
// clears q_i's LSB, Receiver overwrites t_i's LSB with the real choice bit,
// relying on Delta's LSB=1 so the XOR relation on bit 0 still carries the
// choice), and on crypto/iknp for the underlying extension.
package basecot

import (
	"context"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/iknp"
	"github.com/phuocchubeo123/volefp/crypto/otpre"
	"github.com/phuocchubeo123/volefp/crypto/prg"
)

// Role distinguishes the two base-COT parties.
type Role int

const (
	// RoleSender plays the IKNP sender / COT-Delta holder.
	RoleSender Role = iota
	// RoleReceiver plays the IKNP receiver / COT choice-bit holder.
	RoleReceiver
)

// BaseCOT is the per-session base-COT orchestrator.
type BaseCOT struct {
	role      Role
	malicious bool
	sender    *iknp.Sender
	receiver  *iknp.Receiver
}

func clearLSB(b block.B32) block.B32 {
	b[0] &^= 1
	return b
}

func setLSB(b block.B32, bit bool) block.B32 {
	if bit {
		b[0] |= 1
	} else {
		b[0] &^= 1
	}
	return b
}

// CotGenPreSender runs the sender's one-time bootstrap: if delta is nil, sample a random Delta with LSB forced to 1, then run
// IKNP.SetupSend with Delta's bits.
func CotGenPreSender(ctx context.Context, ch *channel.Channel, delta *block.B32, malicious bool) (*BaseCOT, error) {
	var d block.B32
	if delta != nil {
		d = setLSB(*delta, true)
	} else {
		p := prg.New(nil, 0)
		buf := make([]block.B32, 1)
		p.RandomBlock32(buf)
		d = setLSB(buf[0], true)
	}
	s, err := iknp.SetupSend(ctx, ch, &d, malicious)
	if err != nil {
		return nil, err
	}
	return &BaseCOT{role: RoleSender, malicious: malicious, sender: s}, nil
}

// CotGenPreReceiver runs the receiver's one-time bootstrap.
func CotGenPreReceiver(ctx context.Context, ch *channel.Channel, malicious bool) (*BaseCOT, error) {
	r, err := iknp.SetupRecv(ctx, ch, malicious)
	if err != nil {
		return nil, err
	}
	return &BaseCOT{role: RoleReceiver, malicious: malicious, receiver: r}, nil
}

// Delta returns the sender's global correlation key; only valid for
// RoleSender.
func (b *BaseCOT) Delta() block.B32 { return b.sender.Delta() }

// Role reports which party this BaseCOT instance plays.
func (b *BaseCOT) Role() Role { return b.role }

// CotGen produces n COT rows: the sender's out[i] holds
// q_i with its LSB cleared; the receiver's out[i] holds t_i with its LSB
// overwritten by the effective choice bit preBits[i] (random if preBits is
// nil).
func (b *BaseCOT) CotGen(ctx context.Context, ch *channel.Channel, n int, preBits []bool) ([]block.B32, error) {
	switch b.role {
	case RoleSender:
		q, err := b.sender.SendCOT(ctx, ch, n)
		if err != nil {
			return nil, err
		}
		out := make([]block.B32, n)
		for i := range q {
			out[i] = clearLSB(q[i])
		}
		return out, nil
	default:
		bits := preBits
		if bits == nil {
			bits = make([]bool, n)
			p := prg.New(nil, 1)
			p.RandomBools(bits)
		}
		t, err := b.receiver.RecvCOT(ctx, ch, bits)
		if err != nil {
			return nil, err
		}
		out := make([]block.B32, n)
		for i := range t {
			out[i] = setLSB(t[i], bits[i])
		}
		return out, nil
	}
}

// CotGenPreot is CotGen routed directly into an OTPre buffer via
// send_pre/recv_pre, ready for later layers to draw OT pairs out of.
func (b *BaseCOT) CotGenPreot(ctx context.Context, ch *channel.Channel, ot *otpre.OTPre, n int, preBits []bool) error {
	switch b.role {
	case RoleSender:
		q, err := b.CotGen(ctx, ch, n, nil)
		if err != nil {
			return err
		}
		ot.SendPre(q, b.Delta())
		return nil
	default:
		t, err := b.CotGen(ctx, ch, n, preBits)
		if err != nil {
			return err
		}
		var bits []bool
		if preBits != nil {
			bits = preBits
		}
		ot.RecvPre(t, bits)
		return nil
	}
}
