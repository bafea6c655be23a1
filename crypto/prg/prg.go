// Package prg implements an AES-CTR pseudorandom generator: a single
// AES-128 key with a 64-bit counter, domain separated at construction time
// by XORing a caller-supplied id into the low 8 bytes of the key. AES
// itself is treated as an abstract primitive, so this is one of the
// components justifiably built on crypto/aes rather than a pack library —
// the teacher's own OT extension code (crypto/ot/ot_ext_sender.go) reaches
// for crypto/aes the same way.
package prg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"

	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/field"
)

// maxRejectRetries bounds the rejection-sampling loop in RandomField; each
// draw is masked to 252 bits, so the probability any single draw lands >=
// the field modulus is just under 1/2, and this budget is exhausted only on
// adversarial or catastrophically broken input.
const maxRejectRetries = 64

// PRG is an AES-128-CTR stream, exclusively owned by its creator: state is
// never shared or cloned across goroutines.
type PRG struct {
	cipher cipher.Block
	ctr    uint64
}

func mixKey(seed *block.B16, id uint64) [16]byte {
	var key [16]byte
	if seed != nil {
		key = *seed
	} else {
		if _, err := rand.Read(key[:]); err != nil {
			panic(err) // crypto/rand failure is not a recoverable protocol error
		}
	}
	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], id)
	for i := 0; i < 8; i++ {
		key[i] ^= idBuf[i]
	}
	return key
}

// New constructs a PRG. If seed is nil, 16 random bytes are sampled.
func New(seed *block.B16, id uint64) *PRG {
	key := mixKey(seed, id)
	c, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err) // a 16-byte key always produces a valid AES-128 cipher
	}
	return &PRG{cipher: c}
}

// Reseed reinstalls the key (same id-mixing as New) and resets the counter.
func (p *PRG) Reseed(seed block.B16, id uint64) {
	key := mixKey(&seed, id)
	c, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	p.cipher = c
	p.ctr = 0
}

func (p *PRG) nextBlock() block.B16 {
	var in, out [16]byte
	binary.LittleEndian.PutUint64(in[:8], p.ctr)
	p.ctr++
	p.cipher.Encrypt(out[:], in[:])
	return block.B16(out)
}

// RandomBlock16 fills buf with one AES invocation per slot.
func (p *PRG) RandomBlock16(buf []block.B16) {
	for i := range buf {
		buf[i] = p.nextBlock()
	}
}

// RandomBlock32 fills buf with two AES invocations per slot.
func (p *PRG) RandomBlock32(buf []block.B32) {
	for i := range buf {
		lo := p.nextBlock()
		hi := p.nextBlock()
		buf[i] = block.JoinB32(lo, hi)
	}
}

// RandomField fills buf with uniformly-random field elements via rejection
// sampling on a 32-byte little-endian draw with its top four bits cleared.
func (p *PRG) RandomField(buf []field.Element) error {
	for i := range buf {
		ok := false
		for try := 0; try < maxRejectRetries; try++ {
			lo := p.nextBlock()
			hi := p.nextBlock()
			b32 := block.JoinB32(lo, hi)
			b32[31] &= 0x0f // keep the draw below 2^252
			fe, err := field.FromBytes32LE([32]byte(b32))
			if err == nil {
				buf[i] = fe
				ok = true
				break
			}
		}
		if !ok {
			return field.ErrPrgReject
		}
	}
	return nil
}

// RandomBools treats the PRG as a bit stream, little-endian bit order
// within each generated byte.
func (p *PRG) RandomBools(bits []bool) {
	need := (len(bits) + 7) / 8
	blocksNeeded := (need + 15) / 16
	raw := make([]block.B16, blocksNeeded)
	p.RandomBlock16(raw)
	bytes := make([]byte, 0, blocksNeeded*16)
	for _, b := range raw {
		bytes = append(bytes, b[:]...)
	}
	for i := range bits {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		bits[i] = (bytes[byteIdx]>>bitIdx)&1 == 1
	}
}
