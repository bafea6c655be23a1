// Package baseot implements 1-out-of-2 Chou-Orlandi OT over a prime-order
// elliptic curve, run once per session for a few hundred transfers and then
// consumed by the IKNP extension.
//
// Grounded on _examples/getamis-alice/crypto/ot/ot_sender.go and
// ot_receiver.go for the overall shape (a Sender holding a base scalar,
// per-index KDF derivation, encrypt-two/decrypt-one), adapted from that
// file's protobuf+ecpointgrouplaw messaging onto plain channel.Channel
// framing, and from its "Blazing Fast OT" protocol onto the exact
// three-message Chou-Orlandi shape. The curve is secp256k1 via
// btcsuite/btcd/btcec/v2, the same curve the teacher uses elsewhere in its
// ecpointgrouplaw package.
package baseot

import (
	"context"
	"crypto/elliptic"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/block"
)

// ErrInvalidEncoding is returned when a peer sends a malformed SEC1 curve point.
var ErrInvalidEncoding = errors.New("baseot: invalid curve point encoding")

var curve = btcec.S256()

func randScalar() *big.Int {
	k, err := cryptorand.Int(cryptorand.Reader, curve.Params().N)
	if err != nil {
		panic(err)
	}
	return k
}

// kdf derives a 16-byte key from a curve point and an index:
// SHA-256(point_bytes || i_le_u64), truncated to 16 bytes.
func kdf(x, y *big.Int, index uint64) block.B16 {
	pb := elliptic.Marshal(curve, x, y)
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	h := sha256.New()
	h.Write(pb)
	h.Write(idx[:])
	sum := h.Sum(nil)
	var out block.B16
	copy(out[:], sum[:16])
	return out
}

func marshalPoint(x, y *big.Int) []byte {
	return elliptic.Marshal(curve, x, y)
}

func unmarshalPoint(b []byte) (x, y *big.Int, err error) {
	x, y = elliptic.Unmarshal(curve, b)
	if x == nil {
		return nil, nil, ErrInvalidEncoding
	}
	return x, y, nil
}

func xorKey(key block.B16, msg [16]byte) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = msg[i] ^ key[i]
	}
	return out
}

// Sender is the OT sender, holding the fixed base scalar `a` for a session.
type Sender struct {
	a    *big.Int
	Ax   *big.Int
	Ay   *big.Int
}

// NewSender samples the base scalar and advertises A = aG.
func NewSender() *Sender {
	a := randScalar()
	Ax, Ay := curve.ScalarBaseMult(a.Bytes())
	return &Sender{a: a, Ax: Ax, Ay: Ay}
}

// Send runs the sender side of L 1-out-of-2 OTs, for message pairs
// (m0[i], m1[i]), over ch. It first advertises A, then for every index
// reads the receiver's B_i, derives the two KDF keys and ships the two
// masked 16-byte messages.
func (s *Sender) Send(ctx context.Context, ch *channel.Channel, m0, m1 []block.B16) error {
	if err := ch.SendPoint(ctx, marshalPoint(s.Ax, s.Ay)); err != nil {
		return err
	}
	for i := range m0 {
		bBytes, err := ch.RecvPoint(ctx)
		if err != nil {
			return err
		}
		Bx, By, err := unmarshalPoint(bBytes)
		if err != nil {
			return err
		}
		// k0 = KDF(a*B_i, i)
		k0x, k0y := curve.ScalarMult(Bx, By, s.a.Bytes())
		k0 := kdf(k0x, k0y, uint64(i))
		// k1 = KDF(a*(B_i - A), i); B_i - A = B_i + (-A), with -A the
		// point negation (Ax, P-Ay) over the underlying prime field.
		negAy := new(big.Int).Sub(curve.Params().P, s.Ay)
		diffx, diffy := curve.Add(Bx, By, s.Ax, negAy)
		k1x, k1y := curve.ScalarMult(diffx, diffy, s.a.Bytes())
		k1 := kdf(k1x, k1y, uint64(i))

		var pt0, pt1 [16]byte
		copy(pt0[:], m0[i][:])
		copy(pt1[:], m1[i][:])
		c0 := xorKey(k0, pt0)
		c1 := xorKey(k1, pt1)
		if err := ch.SendBlocks16(ctx, []block.B16{block.B16(c0), block.B16(c1)}); err != nil {
			return err
		}
	}
	return nil
}

// Receive runs the receiver side for choice bits `choices`, returning the
// chosen message per index.
func Receive(ctx context.Context, ch *channel.Channel, choices []bool) ([]block.B16, error) {
	aBytes, err := ch.RecvPoint(ctx)
	if err != nil {
		return nil, err
	}
	Ax, Ay, err := unmarshalPoint(aBytes)
	if err != nil {
		return nil, err
	}
	out := make([]block.B16, len(choices))
	for i, c := range choices {
		b := randScalar()
		var Bx, By *big.Int
		Bx, By = curve.ScalarBaseMult(b.Bytes())
		if c {
			Bx, By = curve.Add(Bx, By, Ax, Ay)
		}
		if err := ch.SendPoint(ctx, marshalPoint(Bx, By)); err != nil {
			return nil, err
		}
		// k_c = KDF(b*A, i) regardless of c, since B_c = bG + c*A so
		// b*A is always derivable directly from the receiver's own b and A.
		kx, ky := curve.ScalarMult(Ax, Ay, b.Bytes())
		kc := kdf(kx, ky, uint64(i))

		cts, err := ch.RecvBlocks16(ctx)
		if err != nil {
			return nil, err
		}
		if len(cts) != 2 {
			return nil, channel.ErrWireFormat
		}
		var ct [16]byte
		if c {
			ct = cts[1]
		} else {
			ct = cts[0]
		}
		pt := xorKey(kc, ct)
		out[i] = block.B16(pt)
	}
	return out, nil
}
