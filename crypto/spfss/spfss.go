// Package spfss implements Single-Point Function Secret Sharing over a GGM
// tree: the Sender shares a point function with value gamma everywhere
// except a hidden position alpha, where the Receiver's share reconstructs
// to beta, using Delta as the outer sVOLE correlation.
//
// Grounded on _examples/original_source/src/spfss_sender.rs and
// spfss_receiver.rs for the GGM layer-sum OT shape and the malicious
// consistency check. Two bugs in that draft are deliberately NOT carried
// over (documented in DESIGN.md): it overwrites ot_msg_0 with ot_msg_1 in
// the same slice before sending (losing the even sum), and it never stores
// the reconstructed choice_pos anywhere, relying on an implicit loop
// variable that happens to end at the right value. This implementation
// keeps m0/m1 as separate slices and computes choice_pos explicitly via
// choice_pos = sum_{i<d-1} (not b_i) * 2^(d-2-i).
package spfss

import (
	"context"
	"errors"
	"math/big"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
	"github.com/phuocchubeo123/volefp/crypto/otpre"
	"github.com/phuocchubeo123/volefp/crypto/prg"
	"github.com/phuocchubeo123/volefp/crypto/twokeyprp"
)

// ErrMaliciousAbort is returned when the consistency check fails.
var ErrMaliciousAbort = errors.New("spfss: malicious consistency check failed")

func fieldToBlock32(e field.Element) block.B32 { return block.B32(e.Bytes32LE()) }

func block32ToField(b block.B32) field.Element {
	be := make([]byte, 32)
	for i, x := range b {
		be[31-i] = x
	}
	return field.FromBigInt(new(big.Int).SetBytes(be))
}

// SenderResult is what a Sender run produces: the full leaf tree (needed by
// the outer consistency check) and the encoded secret sum S.
type SenderResult struct {
	Tree []field.Element
	S    field.Element
}

// SenderRun plays the Sender side of one SPFSS instance with depth `depth`
// (2^(depth-1) leaves, depth-1 internal OT rounds), sharing gamma
// everywhere. ot/slot address depth-1 consecutive OTPre slots.
func SenderRun(ctx context.Context, ch *channel.Channel, ot *otpre.OTPre, slot, depth int, gamma field.Element) (SenderResult, error) {
	leaves := 1 << uint(depth-1)
	p := prg.New(nil, 0)
	rootBuf := make([]field.Element, 1)
	if err := p.RandomField(rootBuf); err != nil {
		return SenderResult{}, err
	}
	tree := []field.Element{rootBuf[0]}
	for h := 0; h < depth-1; h++ {
		next := make([]field.Element, len(tree)*2)
		for i, parent := range tree {
			l, r := twokeyprp.Expand1to2(parent)
			next[2*i] = l
			next[2*i+1] = r
		}
		var m0, m1 field.Element
		for i, v := range next {
			if i%2 == 0 {
				m0 = field.Add(m0, v)
			} else {
				m1 = field.Add(m1, v)
			}
		}
		if err := ot.Send(ctx, ch, []block.B32{fieldToBlock32(m0)}, []block.B32{fieldToBlock32(m1)}, 1, slot+h); err != nil {
			return SenderResult{}, err
		}
		tree = next
	}
	if len(tree) != leaves {
		panic("spfss: tree size mismatch") // internal invariant, not a protocol error
	}
	var sum field.Element
	for _, v := range tree {
		sum = field.Add(sum, v)
	}
	s := field.Add(field.Neg(sum), gamma)
	if err := ch.SendField(ctx, []field.Element{s}); err != nil {
		return SenderResult{}, err
	}
	return SenderResult{Tree: tree, S: s}, nil
}

// ConsistencyCheckSender runs protocol Pi_spsVOLE's sender half: receive
// x*, compute y* = y - x*.Delta, V = <chi, tree> - y*, send V.
func (r SenderResult) ConsistencyCheckSender(ctx context.Context, ch *channel.Channel, y, delta field.Element) error {
	chi := generateHashCoeff(digestOf(r.S), len(r.Tree))
	xs, err := ch.RecvField(ctx, 1)
	if err != nil {
		return err
	}
	xStar := xs[0]
	yStar := field.Sub(y, field.Mul(xStar, delta))
	v := field.Sub(field.InnerProduct(chi, r.Tree), yStar)
	return ch.SendField(ctx, []field.Element{v})
}

// ReceiverResult is what a Receiver run produces.
type ReceiverResult struct {
	Tree      []field.Element
	ChoicePos int
	S         field.Element // the Sender's secret sum, also the check digest seed
}

// ReceiverRun plays the Receiver side: recover every leaf except alpha
// (hidden in the OT choice bits) via the layer-wise OT exchange, receive the
// Sender's secret sum S, then repair position alpha to beta.
func ReceiverRun(ctx context.Context, ch *channel.Channel, ot *otpre.OTPre, slot, depth int, choices []bool, beta field.Element) (ReceiverResult, error) {
	leaves := 1 << uint(depth-1)
	tree := make([]field.Element, leaves)

	m0, m1 := make([]field.Element, depth-1), make([]field.Element, depth-1)
	toFill := 0
	levelNodes := make([]field.Element, 1) // level h has 2^h slots; unknown slots hold Zero() and are tracked by toFill
	for h := 0; h < depth-1; h++ {
		got, err := ot.Recv(ctx, ch, []bool{choices[h]}, 1, slot+h)
		if err != nil {
			return ReceiverResult{}, err
		}
		m0[h] = field.Zero()
		m1[h] = field.Zero()
		if choices[h] {
			m1[h] = block32ToField(got[0])
		} else {
			m0[h] = block32ToField(got[0])
		}

		next := make([]field.Element, len(levelNodes)*2)
		for i, parent := range levelNodes {
			if i == toFill {
				continue // the still-unknown path node: its children stay zero for now
			}
			l, r := twokeyprp.Expand1to2(parent)
			next[2*i] = l
			next[2*i+1] = r
		}

		toFill *= 2
		if !choices[h] {
			// revealed sibling is the even slot at toFill; unknown shifts to toFill+1
			var knownSum field.Element
			for i := 0; i < len(next); i += 2 {
				if i != toFill {
					knownSum = field.Add(knownSum, next[i])
				}
			}
			next[toFill] = field.Sub(m0[h], knownSum)
			toFill++
		} else {
			var knownSum field.Element
			for i := 1; i < len(next); i += 2 {
				if i != toFill+1 {
					knownSum = field.Add(knownSum, next[i])
				}
			}
			next[toFill+1] = field.Sub(m1[h], knownSum)
		}
		levelNodes = next
	}
	copy(tree, levelNodes)
	choicePos := choicePosFromBits(choices, depth-1)

	ss, err := ch.RecvField(ctx, 1)
	if err != nil {
		return ReceiverResult{}, err
	}
	share := ss[0]

	var knownLeafSum field.Element
	for i, v := range tree {
		if i != choicePos {
			knownLeafSum = field.Add(knownLeafSum, v)
		}
	}
	nodesSum := field.Neg(field.Add(knownLeafSum, share))
	tree[choicePos] = field.Add(beta, nodesSum)

	return ReceiverResult{Tree: tree, ChoicePos: choicePos, S: share}, nil
}

// ConsistencyCheckReceiver runs the receiver half: send x*, then verify
// W == V against the sender's response.
func (r ReceiverResult) ConsistencyCheckReceiver(ctx context.Context, ch *channel.Channel, z, beta field.Element) error {
	chi := generateHashCoeff(digestOf(r.S), len(r.Tree))
	xStar := field.Neg(field.Add(z, field.Mul(chi[r.ChoicePos], beta)))
	if err := ch.SendField(ctx, []field.Element{xStar}); err != nil {
		return err
	}
	w := field.Sub(field.InnerProduct(chi, r.Tree), z)
	vs, err := ch.RecvField(ctx, 1)
	if err != nil {
		return err
	}
	if !field.Equal(w, vs[0]) {
		return ErrMaliciousAbort
	}
	return nil
}

// choicePosFromBits computes the hidden leaf index directly from the
// complementary OT choice bits, replacing the Rust draft's implicit
// loop-counter approach with an explicit formula:
// choice_pos = sum_{i<rounds} (not b_i) * 2^(rounds-1-i).
func choicePosFromBits(b []bool, rounds int) int {
	pos := 0
	for i := 0; i < rounds; i++ {
		bit := 0
		if !b[i] {
			bit = 1
		}
		pos += bit << uint(rounds-1-i)
	}
	return pos
}

func digestOf(e field.Element) block.B16 {
	b := e.Bytes32LE()
	var out block.B16
	copy(out[:8], b[:8])
	return out
}

func generateHashCoeff(seed block.B16, n int) []field.Element {
	p := prg.New(&seed, 0)
	out := make([]field.Element, n)
	if err := p.RandomField(out); err != nil {
		panic(err) // rejection sampling budget exhaustion on a PRG stream is not recoverable here
	}
	return out
}
