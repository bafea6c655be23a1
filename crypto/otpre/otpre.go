// Package otpre implements the pre-OT buffer: a slab of
// precomputed COT-derived ROT hashes with deferred consumption and
// choice-bit reshaping, so precomputation can run on random bits and be
// adjusted lazily to the caller's actual choices.
//
// Grounded on _examples/original_source/src/preot.rs (choices_sender/
// choices_recver/send_pre/recv_pre/send/recv/reset), generalized from that
// draft's 16-byte blocks to the wider Block32 width (STARK-252 field
// elements need the wider correlation).
package otpre

import (
	"context"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/xhash"
)

// OTPre is the pre-computed OT buffer. n is the number of slots; preData
// holds 2n CCRH-hashed correlations ([0,n) the "0" side, [n,2n) the "1"
// side, following send_pre's layout).
type OTPre struct {
	n       int
	preData []block.B32
	bits    []bool
	count   int
	delta   *block.B32 // sender only
}

// New allocates an OTPre with room for n slots.
func New(n int) *OTPre {
	return &OTPre{
		n:       n,
		preData: make([]block.B32, 2*n),
		bits:    make([]bool, n),
	}
}

// SendPre installs the sender side of the buffer from n raw COT outputs
// data[i]: hash data[i] into preData[i], and
// data[i] xor Delta into preData[n+i].
func (o *OTPre) SendPre(data []block.B32, delta block.B32) {
	o.delta = &delta
	for i, d := range data {
		o.preData[i] = xhash.H32(d)
		o.preData[o.n+i] = xhash.H32(block.Xor32(d, delta))
	}
}

// RecvPre installs the receiver side. If bits is nil, the choice bits are
// derived from the LSB of each data[i]; otherwise bits is used directly.
func (o *OTPre) RecvPre(data []block.B32, bits []bool) {
	for i, d := range data {
		o.preData[i] = xhash.H32(d)
		if bits != nil {
			o.bits[i] = bits[i]
		} else {
			o.bits[i] = d.LSB()
		}
	}
}

// ChoicesSender receives an adjusted choice-bit vector from the receiver
// and loads it into bits[count:count+len], advancing count.
func (o *OTPre) ChoicesSender(ctx context.Context, ch *channel.Channel) error {
	adjusted, err := ch.RecvBits(ctx)
	if err != nil {
		return err
	}
	copy(o.bits[o.count:o.count+len(adjusted)], adjusted)
	o.count += len(adjusted)
	return nil
}

// ChoicesRecver XORs the receiver's desired choices with the stored
// precomputation bits and sends the adjusted vector, advancing count.
func (o *OTPre) ChoicesRecver(ctx context.Context, ch *channel.Channel, choices []bool) error {
	adjusted := make([]bool, len(choices))
	for i, c := range choices {
		adjusted[i] = c != o.bits[o.count+i]
	}
	if err := ch.SendBits(ctx, adjusted); err != nil {
		return err
	}
	o.count += len(choices)
	return nil
}

// Send transmits (m0, m1) pairs for `length` slots starting at `slot`,
// masking each with the appropriate precomputed pad.
func (o *OTPre) Send(ctx context.Context, ch *channel.Channel, m0, m1 []block.B32, length, slot int) error {
	pads0 := make([]block.B32, length)
	pads1 := make([]block.B32, length)
	for i := 0; i < length; i++ {
		idx := slot + i
		b := o.bits[idx]
		var off0, off1 int
		if b {
			off0, off1 = o.n, 0
		} else {
			off0, off1 = 0, o.n
		}
		pads0[i] = block.Xor32(m0[i], o.preData[idx+off0])
		pads1[i] = block.Xor32(m1[i], o.preData[idx+off1])
	}
	if err := ch.SendBlocks32(ctx, pads0); err != nil {
		return err
	}
	return ch.SendBlocks32(ctx, pads1)
}

// Recv receives the pads sent by Send and unmasks the chosen value per the
// receiver's choice bits.
func (o *OTPre) Recv(ctx context.Context, ch *channel.Channel, choices []bool, length, slot int) ([]block.B32, error) {
	pads0, err := ch.RecvBlocks32(ctx)
	if err != nil {
		return nil, err
	}
	pads1, err := ch.RecvBlocks32(ctx)
	if err != nil {
		return nil, err
	}
	if len(pads0) != length || len(pads1) != length {
		return nil, channel.ErrWireFormat
	}
	out := make([]block.B32, length)
	for i := 0; i < length; i++ {
		idx := slot + i
		var pad block.B32
		if choices[i] {
			pad = pads1[i]
		} else {
			pad = pads0[i]
		}
		out[i] = xhash.XorBlock32(o.preData[idx], pad)
	}
	return out, nil
}

// Reset zeroes the cursor only: an OTPre after Reset is observationally
// equivalent to a fresh OTPre with the same preData.
func (o *OTPre) Reset() { o.count = 0 }

// Len returns the slot capacity n.
func (o *OTPre) Len() int { return o.n }
