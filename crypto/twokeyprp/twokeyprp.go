// Package twokeyprp implements the length-doubling PRP used as the GGM-tree
// node expander, grounded on
// _examples/original_source/src/two_key_prp.rs: an AES-256 key derived from
// the parent node's 32-byte encoding, applied to four fixed plaintext
// blocks, paired into two 32-byte children.
package twokeyprp

import (
	"crypto/aes"
	"math/big"

	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
)

// Expand1to2 expands a single parent field element into two children.
func Expand1to2(parent field.Element) (left, right field.Element) {
	key := parent.Bytes32LE()
	c, err := aes.NewCipher(key[:])
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
	leftBytes := block.JoinB32(block.B16(outs[0]), block.B16(outs[1]))
	rightBytes := block.JoinB32(block.B16(outs[2]), block.B16(outs[3]))
	return reduceToField(leftBytes), reduceToField(rightBytes)
}

// reduceToField treats the 32 little-endian bytes as an integer and reduces
// it mod the field modulus rather than rejecting non-canonical draws: PRP
// node expansion has no "resample" step in the GGM tree, so we reduce
// instead of erroring, which keeps the expander total.
func reduceToField(b block.B32) field.Element {
	be := make([]byte, 32)
	for i, x := range b {
		be[31-i] = x
	}
	n := new(big.Int).SetBytes(be)
	return field.FromBigInt(n)
}

// Expand2to4 expands a pair of sibling nodes into their four children,
// written into out in left-to-right order: [l.left, l.right, r.left, r.right].
func Expand2to4(out []field.Element, parents [2]field.Element) {
	out[0], out[1] = Expand1to2(parents[0])
	out[2], out[3] = Expand1to2(parents[1])
}

// Expand4to8 expands four sibling nodes into their eight children.
func Expand4to8(out []field.Element, parents [4]field.Element) {
	for i, p := range parents {
		out[i*2], out[i*2+1] = Expand1to2(p)
	}
}
