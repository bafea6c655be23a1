// Package channel implements a typed, length-framed transport: every message
// is [u64_le length][payload], with the length meaning bit-count for bit
// payloads, byte-count for block and point payloads, and byte-count (32*n)
// for field-element arrays. Grounded on
// _examples/original_source/src/socket_channel.rs's length-prefix framing
// convention, generalized from that draft's send_scalar/send_data pair to
// the full typed surface the VOLE protocol stack needs (bits, blocks,
// field elements, curve points).
//
// Concrete TCP listener/connector wiring is left to the caller; Channel
// wraps any io.ReadWriter already in hand (a net.Conn, an in-memory pipe,
// ...).
package channel

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"

	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
)

// ErrShortRead is returned when the underlying stream ends before a framed
// payload is fully read.
var ErrShortRead = errors.New("channel: short read")

// ErrWireFormat is returned when a framed length does not agree with the
// typed call that is reading it.
var ErrWireFormat = errors.New("channel: wire format mismatch")

// Channel is a blocking, synchronous, typed transport. It is meant to be
// passed by mutable borrow into every protocol operation rather than
// stored, so its methods never spawn goroutines and every blocking point
// accepts a context for cancellation.
type Channel struct {
	r *bufio.Reader
	w *bufio.Writer
	f interface{ Flush() error }
}

// New wraps rw as a Channel.
func New(rw io.ReadWriter) *Channel {
	w := bufio.NewWriter(rw)
	return &Channel{r: bufio.NewReader(rw), w: w, f: w}
}

// writeFrame writes one framed message and flushes it, so a peer blocked on
// the matching receive sees it without an explicit Flush.
func (c *Channel) writeFrame(ctx context.Context, length uint64, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], length)
	if _, err := c.w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := c.w.Write(payload); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

func (c *Channel) readFrame(ctx context.Context) (length uint64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var lenBuf [8]byte
	if _, err := io.ReadFull(c.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return 0, ErrShortRead
		}
		return 0, err
	}
	length = binary.LittleEndian.Uint64(lenBuf[:])
	return length, nil
}

// Flush guarantees previously queued bytes have entered the kernel.
func (c *Channel) Flush() error { return c.f.Flush() }

// SendBits sends a bit vector; the framed length is the bit count.
func (c *Channel) SendBits(ctx context.Context, bits []bool) error {
	packed := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return c.writeFrame(ctx, uint64(len(bits)), packed)
}

// RecvBits receives a bit vector.
func (c *Channel) RecvBits(ctx context.Context) ([]bool, error) {
	n, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	byteLen := int((n + 7) / 8)
	payload := make([]byte, byteLen)
	if byteLen > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, ErrShortRead
		}
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = (payload[i/8]>>uint(i%8))&1 == 1
	}
	return bits, nil
}

// SendBlocks16 sends a slice of 16-byte blocks; length is the total byte count.
func (c *Channel) SendBlocks16(ctx context.Context, blocks []block.B16) error {
	payload := make([]byte, len(blocks)*16)
	for i, b := range blocks {
		copy(payload[i*16:], b[:])
	}
	return c.writeFrame(ctx, uint64(len(payload)), payload)
}

// RecvBlocks16 receives a slice of 16-byte blocks.
func (c *Channel) RecvBlocks16(ctx context.Context) ([]block.B16, error) {
	n, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if n%16 != 0 {
		return nil, ErrWireFormat
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, ErrShortRead
		}
	}
	out := make([]block.B16, n/16)
	for i := range out {
		copy(out[i][:], payload[i*16:i*16+16])
	}
	return out, nil
}

// SendBlocks32 sends a slice of 32-byte blocks; length is the total byte count.
func (c *Channel) SendBlocks32(ctx context.Context, blocks []block.B32) error {
	payload := make([]byte, len(blocks)*32)
	for i, b := range blocks {
		copy(payload[i*32:], b[:])
	}
	return c.writeFrame(ctx, uint64(len(payload)), payload)
}

// RecvBlocks32 receives a slice of 32-byte blocks.
func (c *Channel) RecvBlocks32(ctx context.Context) ([]block.B32, error) {
	n, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if n%32 != 0 {
		return nil, ErrWireFormat
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, ErrShortRead
		}
	}
	out := make([]block.B32, n/32)
	for i := range out {
		copy(out[i][:], payload[i*32:i*32+32])
	}
	return out, nil
}

// SendField sends field elements, 32 little-endian bytes each; length is
// the total byte count (32*n).
func (c *Channel) SendField(ctx context.Context, elems []field.Element) error {
	payload := make([]byte, len(elems)*32)
	for i, e := range elems {
		b := e.Bytes32LE()
		copy(payload[i*32:], b[:])
	}
	return c.writeFrame(ctx, uint64(len(payload)), payload)
}

// RecvField receives exactly count field elements; a framed length that
// disagrees with 32*count is a WireFormat error, and a non-canonical
// element encoding is an InvalidField error (field.ErrInvalidField).
func (c *Channel) RecvField(ctx context.Context, count int) ([]field.Element, error) {
	n, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if n != uint64(count)*32 {
		return nil, ErrWireFormat
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, ErrShortRead
		}
	}
	out := make([]field.Element, count)
	for i := 0; i < count; i++ {
		var raw [32]byte
		copy(raw[:], payload[i*32:i*32+32])
		fe, err := field.FromBytes32LE(raw)
		if err != nil {
			return nil, err
		}
		out[i] = fe
	}
	return out, nil
}

// SendPoint sends a SEC1-encoded curve point as a length-prefixed byte blob.
func (c *Channel) SendPoint(ctx context.Context, p []byte) error {
	return c.writeFrame(ctx, uint64(len(p)), p)
}

// RecvPoint receives a SEC1-encoded curve point.
func (c *Channel) RecvPoint(ctx context.Context) ([]byte, error) {
	n, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, ErrShortRead
		}
	}
	return payload, nil
}

// SendRaw sends an arbitrary length-prefixed byte payload; used for
// fixed-width hash digests and seeds that are neither bits, blocks, field
// elements nor points but still need the same framing discipline.
func (c *Channel) SendRaw(ctx context.Context, data []byte) error {
	return c.writeFrame(ctx, uint64(len(data)), data)
}

// RecvRaw receives an arbitrary length-prefixed byte payload.
func (c *Channel) RecvRaw(ctx context.Context) ([]byte, error) {
	n, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, ErrShortRead
		}
	}
	return payload, nil
}
