// Package xhash provides the incremental SHA-256 wrapper and the
// circular-correlation-robust hash (CCRH) used to turn a COT into a random
// OT for OTPre. AES and SHA-256 are treated as out-of-scope abstract
// primitives; this package only composes them.
//
// This implements the per-block-AES-key CCRH variant ("pi is an AES
// encryption keyed by the block itself"), matching
// _examples/original_source/src/hash.rs's CCRH::permute_block — the
// variant choice is recorded as an Open Question decision in DESIGN.md.
// That is the only CCRH definition in this codebase.
package xhash

import (
	"crypto/aes"
	"crypto/sha256"

	"github.com/phuocchubeo123/volefp/crypto/block"
)

// Hash is an incremental SHA-256 digest, mirroring the
// put/put_block/digest/reset shape of the Rust prototype and the digest
// wrapper in the teacher's crypto/commitment/hash.go.
type Hash struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
	}
}

// New returns a fresh incremental hash.
func New() *Hash {
	return &Hash{h: sha256.New()}
}

// Put absorbs arbitrary bytes.
func (h *Hash) Put(b []byte) { h.h.Write(b) }

// PutBlock absorbs a 16-byte block.
func (h *Hash) PutBlock(b block.B16) { h.h.Write(b[:]) }

// Digest returns the 32-byte SHA-256 digest of everything absorbed so far
// without resetting the internal state.
func (h *Hash) Digest() [32]byte {
	var out [32]byte
	copy(out[:], h.h.Sum(nil))
	return out
}

// Reset clears all absorbed state.
func (h *Hash) Reset() { h.h.Reset() }

// HashOnce is a one-shot convenience: SHA-256(data).
func HashOnce(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// sigma is the fixed invertible linear permutation CCRH applies before the
// AES permutation: it swaps the two halves of each 4-byte word pair and
// XORs with a fixed mask, matching the Rust prototype's sigma().
func sigma(x block.B16) block.B16 {
	var out block.B16
	// rotate 4-byte pairs: (w0,w1,w2,w3) -> (w1,w0,w3,w2)
	copy(out[0:4], x[4:8])
	copy(out[4:8], x[0:4])
	copy(out[8:12], x[12:16])
	copy(out[12:16], x[8:12])
	mask := [16]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	for i := range out {
		out[i] ^= mask[i]
	}
	return out
}

// permuteBlock16 implements pi for a 16-byte block: an AES-128 encryption
// keyed by the block itself, applied to two fixed plaintexts and XORed.
// Since AES-128 only produces one 16-byte output per key, we
// derive the "two blocks" by encrypting the all-zero and all-one 16-byte
// plaintexts and XORing them together, yielding a single pseudorandom
// 16-byte permutation output as the one-block CCRH needs.
func permuteBlock16(x block.B16) block.B16 {
	c, err := aes.NewCipher(x[:])
	if err != nil {
		panic(err)
	}
	var zero, one, out0, out1 [16]byte
	for i := range one {
		one[i] = 0xFF
	}
	c.Encrypt(out0[:], zero[:])
	c.Encrypt(out1[:], one[:])
	var out block.B16
	for i := range out {
		out[i] = out0[i] ^ out1[i]
	}
	return out
}

// H implements the single-block CCRH: CCRH(x) = pi(sigma(x)) XOR sigma(x).
func H(x block.B16) block.B16 {
	s := sigma(x)
	return block.Xor16(permuteBlock16(s), s)
}

// permuteBlock32 is the 32-byte tiling of permuteBlock16: an AES-256
// encryption keyed by the full 32-byte block, applied to four fixed
// plaintext indices and paired into two 16-byte halves.
func permuteBlock32(x block.B32) block.B32 {
	c, err := aes.NewCipher(x[:])
	if err != nil {
		panic(err)
	}
	var outs [4][16]byte
	for i := 0; i < 4; i++ {
		var pt [16]byte
		for j := range pt {
			pt[j] = byte(i)
		}
		c.Encrypt(outs[i][:], pt[:])
	}
	var lo, hi block.B16
	for i := range lo {
		lo[i] = outs[0][i] ^ outs[1][i]
		hi[i] = outs[2][i] ^ outs[3][i]
	}
	return block.JoinB32(lo, hi)
}

func sigma32(x block.B32) block.B32 {
	lo := x.Lo16()
	hi := x.Hi16()
	return block.JoinB32(sigma(hi), sigma(lo))
}

// H32 is the 32-byte variant of CCRH, tiling two AES-256 applications.
func H32(x block.B32) block.B32 {
	s := sigma32(x)
	return block.Xor32(permuteBlock32(s), s)
}

// HN batches H over a slice.
func HN(xs []block.B16) []block.B16 {
	out := make([]block.B16, len(xs))
	for i, x := range xs {
		out[i] = H(x)
	}
	return out
}

// HN32 batches H32 over a slice.
func HN32(xs []block.B32) []block.B32 {
	out := make([]block.B32, len(xs))
	for i, x := range xs {
		out[i] = H32(x)
	}
	return out
}

// XorBlock32 is a small helper name kept close to the Rust prototype's
// CCRH::xor_block used by OTPre.recv_pre.
func XorBlock32(a, b block.B32) block.B32 { return block.Xor32(a, b) }
