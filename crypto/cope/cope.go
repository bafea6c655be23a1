// Package cope implements Correlated-OT-to-Linear-Evaluation: it turns m
// parallel COT correlations (one per bit of Delta) into a single
// field-level relation w0 = k + Delta*u, where the Sender holds k and the
// Receiver holds (u, w0).
//
// Grounded on _examples/original_source/src/cope.rs for the per-bit PRG
// bootstrap via one-shot BaseOT and the powers-of-two fold, adapted onto
// this codebase's crypto/baseot and crypto/field.
package cope

import (
	"context"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/baseot"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
	"github.com/phuocchubeo123/volefp/crypto/prg"
)

// M is the number of bits of Delta COPE runs one PRG pair per; Delta is a
// 256-bit correlation key.
const M = 256

// Sender holds one PRG per bit of Delta, seeded via a one-shot BaseOT
// receive on Delta's bits.
type Sender struct {
	delta block.B32
	bits  [M]bool
	g     [M]*prg.PRG
}

// Receiver holds two PRGs per bit, seeded via a one-shot BaseOT send of
// random pairs.
type Receiver struct {
	g0, g1 [M]*prg.PRG
}

// Delta returns the sender's correlation key.
func (s *Sender) Delta() block.B32 { return s.delta }

func blockToBits(b block.B32) [M]bool {
	var out [M]bool
	for i := 0; i < M; i++ {
		out[i] = (b[i/8]>>uint(i%8))&1 == 1
	}
	return out
}

func powersOfTwo() []field.Element {
	pows := make([]field.Element, M)
	cur := field.One()
	for i := 0; i < M; i++ {
		pows[i] = cur
		cur = field.Double(cur)
	}
	return pows
}

// NewSender bootstraps the sender via BaseOT.Receive on Delta's bits.
func NewSender(ctx context.Context, ch *channel.Channel, delta block.B32) (*Sender, error) {
	bits := blockToBits(delta)
	choices := make([]bool, M)
	copy(choices, bits[:])
	keys, err := baseot.Receive(ctx, ch, choices)
	if err != nil {
		return nil, err
	}
	s := &Sender{delta: delta, bits: bits}
	for i := 0; i < M; i++ {
		k := keys[i]
		s.g[i] = prg.New(&k, 0)
	}
	return s, nil
}

// NewReceiver bootstraps the receiver via BaseOT.Send of M random pairs.
func NewReceiver(ctx context.Context, ch *channel.Channel) (*Receiver, error) {
	p := prg.New(nil, 0)
	var k0, k1 [M]block.B16
	p.RandomBlock16(k0[:])
	p.RandomBlock16(k1[:])
	sender := baseot.NewSender()
	if err := sender.Send(ctx, ch, k0[:], k1[:]); err != nil {
		return nil, err
	}
	r := &Receiver{}
	for i := 0; i < M; i++ {
		kk0 := k0[i]
		kk1 := k1[i]
		// Both halves reseed to id=0, matching Sender.g[i]'s id so a PRG
		// built from the same raw OT-derived key reproduces the same
		// keystream on both sides regardless of which bit of Delta it
		// corresponds to.
		r.g0[i] = prg.New(&kk0, 0)
		r.g1[i] = prg.New(&kk1, 0)
	}
	return r, nil
}

// ExtendSender performs one scalar extend: receives tau and folds Sender's
// v_i rows into a single field element k, satisfying w0 = k + Delta*u for
// the Receiver's (u, w0).
func (s *Sender) ExtendSender(ctx context.Context, ch *channel.Channel) (field.Element, error) {
	ks, err := s.ExtendSenderBatch(ctx, ch, 1)
	if err != nil {
		return field.Element{}, err
	}
	return ks[0], nil
}

// ExtendSenderBatch runs `size` independent extends, column-wise (spec
// section 4.9's batch variant).
func (s *Sender) ExtendSenderBatch(ctx context.Context, ch *channel.Channel, size int) ([]field.Element, error) {
	tau, err := ch.RecvField(ctx, M*size)
	if err != nil {
		return nil, err
	}
	pows := powersOfTwo()
	out := make([]field.Element, size)
	w := make([]field.Element, M)
	for col := 0; col < size; col++ {
		for i := 0; i < M; i++ {
			wi, err := oneField(s.g[i])
			if err != nil {
				return nil, err
			}
			if s.bits[i] {
				wi = field.Add(wi, tau[i*size+col])
			}
			w[i] = wi
		}
		out[col] = field.InnerProduct(pows, w)
	}
	return out, nil
}

// ExtendReceiver performs one scalar extend for the Receiver holding u,
// returning w0 (the fold of w_i^0).
func (r *Receiver) ExtendReceiver(ctx context.Context, ch *channel.Channel, u field.Element) (field.Element, error) {
	ws, err := r.ExtendReceiverBatch(ctx, ch, []field.Element{u})
	if err != nil {
		return field.Element{}, err
	}
	return ws[0], nil
}

// ExtendReceiverBatch runs one batched extend for u values of length size.
func (r *Receiver) ExtendReceiverBatch(ctx context.Context, ch *channel.Channel, us []field.Element) ([]field.Element, error) {
	size := len(us)
	pows := powersOfTwo()
	tau := make([]field.Element, M*size)
	w0 := make([]field.Element, size)
	w0rows := make([]field.Element, M)
	w1rows := make([]field.Element, M)
	for col := 0; col < size; col++ {
		for i := 0; i < M; i++ {
			w0i, err := oneField(r.g0[i])
			if err != nil {
				return nil, err
			}
			w1i, err := oneField(r.g1[i])
			if err != nil {
				return nil, err
			}
			w0rows[i] = w0i
			w1rows[i] = w1i
			tau[i*size+col] = field.Sub(w0i, field.Add(w1i, us[col]))
		}
		w0[col] = field.InnerProduct(pows, w0rows)
	}
	if err := ch.SendField(ctx, tau); err != nil {
		return nil, err
	}
	return w0, nil
}

func oneField(p *prg.PRG) (field.Element, error) {
	buf := make([]field.Element, 1)
	if err := p.RandomField(buf); err != nil {
		return field.Element{}, err
	}
	return buf[0], nil
}
