// Package block defines the fixed-width byte blocks used throughout the
// silent-VOLE pipeline: 16-byte blocks (AES keys, CCRH input, COT payload
// halves) and 32-byte blocks (COT/VOLE correlation values wide enough for
// the STARK-252 field).
package block

// B16 is a 16-byte block.
type B16 [16]byte

// B32 is a 32-byte block, two AES blocks wide.
type B32 [32]byte

// Xor16 returns a^b.
func Xor16(a, b B16) B16 {
	var out B16
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Xor32 returns a^b.
func Xor32(a, b B32) B32 {
	var out B32
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Equal16 reports bytewise equality.
func Equal16(a, b B16) bool { return a == b }

// Equal32 reports bytewise equality.
func Equal32(a, b B32) bool { return a == b }

// LSB returns the low bit of the first byte, the convention this pipeline
// uses for the COT choice-bit / Delta-parity trick.
func (b B16) LSB() bool { return b[0]&1 == 1 }

// LSB returns the low bit of the first byte.
func (b B32) LSB() bool { return b[0]&1 == 1 }

// Hi16 returns the high 16 bytes of a B32 (its second AES-block half).
func (b B32) Hi16() B16 {
	var out B16
	copy(out[:], b[16:])
	return out
}

// Lo16 returns the low 16 bytes of a B32.
func (b B32) Lo16() B16 {
	var out B16
	copy(out[:], b[:16])
	return out
}

// JoinB32 concatenates two B16 into a B32 (lo, then hi).
func JoinB32(lo, hi B16) B32 {
	var out B32
	copy(out[:16], lo[:])
	copy(out[16:], hi[:])
	return out
}
