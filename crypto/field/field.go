// Package field implements arithmetic over the STARK-252 prime field.
//
// The field itself is treated as an abstract primitive: callers outside this
// package never reach into the underlying representation, only through
// Add/Mul/Sub/Bytes32LE/FromBytes32LE. math/big is used as the backing
// representation; no third-party big-integer or STARK-specific field library
// exists anywhere in the example pack for this exact modulus, so this one
// component is grounded on the standard library (see DESIGN.md).
package field

import (
	"errors"
	"math/big"
)

// ErrInvalidField is returned when a 32-byte little-endian encoding does not
// represent a canonically-reduced element (i.e. the integer it encodes is
// >= the field modulus).
var ErrInvalidField = errors.New("field: non-canonical encoding")

// ErrPrgReject is returned by callers that draw field elements via rejection
// sampling from a PRG once a bounded retry budget has been exhausted.
var ErrPrgReject = errors.New("field: rejection sampling exhausted")

// Modulus is the STARK-252 prime p = 2^251 + 17*2^192 + 1.
var Modulus = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	t := new(big.Int).Lsh(big.NewInt(17), 192)
	p.Add(p, t)
	p.Add(p, big.NewInt(1))
	return p
}()

// Element is a single element of GF(p), always kept reduced to [0, p).
type Element struct {
	v big.Int
}

// Zero returns the additive identity.
func Zero() Element { return Element{} }

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.v.SetInt64(1)
	return e
}

// FromUint64 lifts a uint64 into the field.
func FromUint64(x uint64) Element {
	var e Element
	e.v.SetUint64(x)
	return e
}

// FromBigInt reduces an arbitrary big.Int into the field.
func FromBigInt(x *big.Int) Element {
	var e Element
	e.v.Mod(x, Modulus)
	if e.v.Sign() < 0 {
		e.v.Add(&e.v, Modulus)
	}
	return e
}

// Add returns a+b mod p.
func Add(a, b Element) Element {
	var e Element
	e.v.Add(&a.v, &b.v)
	if e.v.Cmp(Modulus) >= 0 {
		e.v.Sub(&e.v, Modulus)
	}
	return e
}

// Sub returns a-b mod p.
func Sub(a, b Element) Element {
	var e Element
	e.v.Sub(&a.v, &b.v)
	if e.v.Sign() < 0 {
		e.v.Add(&e.v, Modulus)
	}
	return e
}

// Neg returns -a mod p.
func Neg(a Element) Element {
	if a.v.Sign() == 0 {
		return Zero()
	}
	var e Element
	e.v.Sub(Modulus, &a.v)
	return e
}

// Mul returns a*b mod p.
func Mul(a, b Element) Element {
	var e Element
	e.v.Mul(&a.v, &b.v)
	e.v.Mod(&e.v, Modulus)
	return e
}

// Double returns 2*a mod p, used by COPE's powers-of-two table.
func Double(a Element) Element {
	return Add(a, a)
}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool { return e.v.Sign() == 0 }

// Equal reports field equality.
func Equal(a, b Element) bool { return a.v.Cmp(&b.v) == 0 }

// Bytes32LE encodes the element as 32 little-endian bytes.
func (e Element) Bytes32LE() [32]byte {
	var out [32]byte
	be := e.v.Bytes() // big-endian, no leading zero padding
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

// FromBytes32LE decodes 32 little-endian bytes into an Element. It rejects
// non-canonical encodings (value >= Modulus).
func FromBytes32LE(in [32]byte) (Element, error) {
	be := make([]byte, 32)
	for i, b := range in {
		be[31-i] = b
	}
	var e Element
	e.v.SetBytes(be)
	if e.v.Cmp(Modulus) >= 0 {
		return Element{}, ErrInvalidField
	}
	return e, nil
}

// InnerProduct computes sum(a[i]*b[i]) over the shorter of the two slices.
func InnerProduct(a, b []Element) Element {
	acc := Zero()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		acc = Add(acc, Mul(a[i], b[i]))
	}
	return acc
}
