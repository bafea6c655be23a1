// Package gf256 implements the unreduced carryless-multiplication
// accumulator the IKNP malicious check runs in GF(2^256): both the CLMUL
// accumulator and the Delta-multiplication work in this ring
// with no modular reduction, since the check is a linear relation in the
// ambient ring. Grounded on _examples/original_source/src/iknp.rs's
// mul256/clmul64. No library in the example pack exposes unreduced
// GF(2^256) carryless multiplication (the teacher's binaryfield package is
// GF(2^128) with a missing ScalMulFieldElement implementation), so this
// narrow numerical primitive is hand-rolled rather than reimplementing a
// library the pack already ships (see DESIGN.md).
package gf256

import (
	"encoding/binary"

	"github.com/phuocchubeo123/volefp/crypto/block"
)

// clmul64 performs a 64x64 -> 128-bit carryless multiplication, returning
// the low and high 64-bit halves of the product in GF(2)[x].
func clmul64(a, b uint64) (lo, hi uint64) {
	for i := 0; i < 64; i++ {
		if (b>>uint(i))&1 == 1 {
			if i == 0 {
				lo ^= a
			} else {
				lo ^= a << uint(i)
				hi ^= a >> uint(64-i)
			}
		}
	}
	return lo, hi
}

func limbsOf(b block.B32) [4]uint64 {
	var l [4]uint64
	for i := 0; i < 4; i++ {
		l[i] = binary.LittleEndian.Uint64(b[i*8 : i*8+8])
	}
	return l
}

func bytesOf(l [4]uint64) block.B32 {
	var out block.B32
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], l[i])
	}
	return out
}

// Acc accumulates the 512-bit carryless product sum across 8 64-bit limbs,
// limbs[0:4] being the low 256-bit half and limbs[4:8] the high half.
type Acc struct {
	limbs [8]uint64
}

// AddProduct XORs a*b (as an unreduced carryless 256x256 -> 512-bit
// product) into the accumulator.
func (acc *Acc) AddProduct(a, b block.B32) {
	al := limbsOf(a)
	bl := limbsOf(b)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			lo, hi := clmul64(al[i], bl[j])
			acc.limbs[i+j] ^= lo
			if i+j+1 < 8 {
				acc.limbs[i+j+1] ^= hi
			}
		}
	}
}

// Halves returns the low and high 256-bit halves of the accumulator.
func (acc Acc) Halves() (lo, hi block.B32) {
	var loL, hiL [4]uint64
	copy(loL[:], acc.limbs[0:4])
	copy(hiL[:], acc.limbs[4:8])
	return bytesOf(loL), bytesOf(hiL)
}

// Mul256 computes a single unreduced 256x256 carryless product and returns
// its two 256-bit halves directly, without needing a persistent Acc.
func Mul256(a, b block.B32) (lo, hi block.B32) {
	var acc Acc
	acc.AddProduct(a, b)
	return acc.Halves()
}

// VectorInnerProductSumNoRed computes sum(coeffs[i] * vals[i]) in the
// unreduced GF(2^256) ring, returning the two 256-bit halves — the
// "Sigma chi_i * out_i ... carry-less multiplications returning a 512-bit
// accumulator" step of the IKNP malicious check.
func VectorInnerProductSumNoRed(coeffs, vals []block.B32) (lo, hi block.B32) {
	var acc Acc
	n := len(coeffs)
	if len(vals) < n {
		n = len(vals)
	}
	for i := 0; i < n; i++ {
		acc.AddProduct(coeffs[i], vals[i])
	}
	return acc.Halves()
}
