// Package lpn implements the LPN expander: an implicit
// n*k sparse matrix A over the STARK-252 field, regenerated on demand from a
// pair of public seeds rather than materialized, each row holding exactly
// RowWeight nonzero entries at pseudorandom columns with pseudorandom
// coefficients.
//
// Grounded on _examples/original_source/src/lpn.rs's LpnFp for the
// row-weight-10 add1/add2 accumulation shape. That draft generates its
// per-row indices with a bare LCG ("prng = prng.wrapping_mul(...)";
// literally commented "Replace with actual PRP") and farms rows out across
// rayon threads into a Mutex-guarded shared array. Neither survives here:
// row indices and coefficients are drawn from this codebase's AES-keyed PRG
// (crypto/prg), domain-separated per row via the PRG's id parameter so both
// parties regenerate an identical row without any lock-guarded shared
// state, and expansion runs single-threaded end to end.
package lpn

import (
	"errors"

	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
	"github.com/phuocchubeo123/volefp/crypto/prg"
)

// RowWeight is the fixed number of nonzero entries per row.
const RowWeight = 10

// ErrBaseLengthMismatch is returned when Expand is called with a base
// vector whose length doesn't match the matrix's column count k.
var ErrBaseLengthMismatch = errors.New("lpn: base vector length does not match k")

// Seeds are the two public PRG seeds that define the implicit matrix A: one
// stream for column indices, one for coefficients. Both parties must agree
// on the same Seeds value (exchanged or derived at setup) so they expand
// identical rows.
type Seeds struct {
	Index       block.B16
	Coefficient block.B16
}

// Expander regenerates rows of the n*k implicit matrix A on demand.
type Expander struct {
	n, k  int
	seeds Seeds
}

// New constructs an Expander for an n*k matrix under the given seeds.
func New(n, k int, seeds Seeds) *Expander {
	return &Expander{n: n, k: k, seeds: seeds}
}

// N returns the output dimension (number of rows).
func (e *Expander) N() int { return e.n }

// K returns the input dimension (number of columns, i.e. the base length).
func (e *Expander) K() int { return e.k }

// Row regenerates row i's RowWeight (column, coefficient) pairs. Both
// parties calling Row(i) under the same Seeds get byte-identical output, so
// no matrix is ever sent over the wire.
func (e *Expander) Row(i int) (cols [RowWeight]int, coeffs [RowWeight]field.Element, err error) {
	pIdx := prg.New(&e.seeds.Index, uint64(i))
	pCoef := prg.New(&e.seeds.Coefficient, uint64(i))
	for j := 0; j < RowWeight; j++ {
		cols[j] = randMod(pIdx, e.k)
	}
	buf := make([]field.Element, RowWeight)
	if err := pCoef.RandomField(buf); err != nil {
		return cols, coeffs, err
	}
	copy(coeffs[:], buf)
	return cols, coeffs, nil
}

// Expand computes out[i] = sum_j coeffs[i][j] * base[cols[i][j]] for every
// row i, i.e. the dense vector A*base. Both the Sender
// (base = preK, the sVOLE MAC shares) and the Receiver (base = preM, the
// sVOLE key shares) call this same routine over identical Seeds; only the
// base vector differs, matching the Rust draft's parallel add1/add2 which
// differ only in which guarded array they accumulate into.
func (e *Expander) Expand(base []field.Element) ([]field.Element, error) {
	if len(base) != e.k {
		return nil, ErrBaseLengthMismatch
	}
	out := make([]field.Element, e.n)
	for i := 0; i < e.n; i++ {
		cols, coeffs, err := e.Row(i)
		if err != nil {
			return nil, err
		}
		var sum field.Element
		for j := 0; j < RowWeight; j++ {
			sum = field.Add(sum, field.Mul(coeffs[j], base[cols[j]]))
		}
		out[i] = sum
	}
	return out, nil
}

// randMod draws a uniform column index in [0, k) by reducing the first 8
// bytes of one AES block of randomness modulo k; k is small relative to
// 2^64 (under a million in the built-in parameter sets) so the reduction
// bias is negligible, unlike
// the Rust draft's power-of-two bitmask, which silently restricts k to a
// power of two.
func randMod(p *prg.PRG, k int) int {
	var buf [1]block.B16
	p.RandomBlock16(buf[:])
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(buf[0][i])
	}
	return int(v % uint64(k))
}
