// Package svole implements BaseSVOLE: one COPE-extend of
// length `size` plus one extra scalar extend, followed by a universal-hash
// consistency check that sacrifices the extra element to catch a malicious
// deviation with probability 1-1/p.
//
// Grounded on _examples/original_source/src/svole_triple.rs's
// triple_gen_send/triple_gen_recv, built on crypto/cope.
package svole

import (
	"context"
	"errors"
	"math/big"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/cope"
	"github.com/phuocchubeo123/volefp/crypto/field"
	"github.com/phuocchubeo123/volefp/crypto/prg"
)

// deltaAsField reduces the 256-bit correlation key into a field element;
// Delta is wider than the STARK-252 modulus, so this is a genuine
// reduction, not a lossless round-trip (the Delta*X1 term only ever needs
// Delta's value mod p).
func deltaAsField(d block.B32) field.Element {
	be := make([]byte, 32)
	for i, b := range d {
		be[31-i] = b
	}
	return field.FromBigInt(new(big.Int).SetBytes(be))
}

// ErrMaliciousAbort is returned when the universal-hash check fails.
var ErrMaliciousAbort = errors.New("svole: malicious consistency check failed")

// TripleGenSend runs the Sender side, producing `size` MAC shares k (one
// per triple) such that w0_i = k_i + Delta*u_i holds for the Receiver's
// (w0_i, u_i) pair, having sacrificed one extra element for the check.
func TripleGenSend(ctx context.Context, ch *channel.Channel, c *cope.Sender, size int) ([]field.Element, error) {
	ks, err := c.ExtendSenderBatch(ctx, ch, size)
	if err != nil {
		return nil, err
	}
	b, err := c.ExtendSender(ctx, ch)
	if err != nil {
		return nil, err
	}
	if err := senderCheck(ctx, ch, ks, b, c.Delta()); err != nil {
		return nil, err
	}
	return ks, nil
}

// TripleGenRecv runs the Receiver side for `size` triples, given the
// Receiver's own field inputs u (length size) and a (the extra element's u).
// Returns the w0 values matching the Sender's k; the extra element's value
// is consumed by the check and not returned.
func TripleGenRecv(ctx context.Context, ch *channel.Channel, c *cope.Receiver, u []field.Element, a field.Element) ([]field.Element, error) {
	ws, err := c.ExtendReceiverBatch(ctx, ch, u)
	if err != nil {
		return nil, err
	}
	cExtra, err := c.ExtendReceiver(ctx, ch, a)
	if err != nil {
		return nil, err
	}
	if err := receiverCheck(ctx, ch, ws, u, cExtra, a); err != nil {
		return nil, err
	}
	return ws, nil
}

// senderCheck implements the Sender's half of the universal-hash check:
// sample seed sigma, expand to size-many coefficients
// chi, compute Y = <chi, k> + b, and verify Y == X0 - Delta*X1 against the
// Receiver's (X0, X1). The minus sign matches the w0 = k + Delta*u
// correlation cope's extend produces: k = w0 - Delta*u, so
// <chi,k>+b = (<chi,w0>+c) - Delta*(<chi,u>+a) = X0 - Delta*X1.
func senderCheck(ctx context.Context, ch *channel.Channel, k []field.Element, b field.Element, delta block.B32) error {
	p := prg.New(nil, 0)
	sigma := make([]field.Element, 1)
	if err := p.RandomField(sigma); err != nil {
		return err
	}
	if err := ch.SendField(ctx, sigma); err != nil {
		return err
	}
	chi := expandChi(sigma[0], len(k))
	y := field.Add(field.InnerProduct(chi, k), b)

	xs, err := ch.RecvField(ctx, 2)
	if err != nil {
		return err
	}
	x0, x1 := xs[0], xs[1]
	rhs := field.Sub(x0, field.Mul(deltaAsField(delta), x1))
	if !field.Equal(y, rhs) {
		return ErrMaliciousAbort
	}
	return nil
}

// receiverCheck implements the Receiver's half: send (X0, X1) derived from
// its own w/u shares.
func receiverCheck(ctx context.Context, ch *channel.Channel, w, u []field.Element, c, a field.Element) error {
	sigmas, err := ch.RecvField(ctx, 1)
	if err != nil {
		return err
	}
	chi := expandChi(sigmas[0], len(w))
	x0 := field.Add(field.InnerProduct(chi, w), c)
	x1 := field.Add(field.InnerProduct(chi, u), a)
	return ch.SendField(ctx, []field.Element{x0, x1})
}

// expandChi derives n field coefficients from a seed via repeated
// multiplication.
func expandChi(seed field.Element, n int) []field.Element {
	out := make([]field.Element, n)
	cur := seed
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = field.Mul(cur, seed)
	}
	return out
}
