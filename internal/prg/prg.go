// Package prg implements the seeded expansion used to bootstrap OT
// extension columns and choice-bit vectors from a 128-bit key, ported from
// the teacher's blake3-XOF-backed deterministic random bit generator
// (internal/crypto/prg.go's PseudorandomGenerate).
package prg

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/kunlun-party/match/internal/block"
)

// Seed is a PRG context keyed by a 128-bit value and a counter. Two Seeds
// created from the same key and counter produce identical output streams
// on every host: the hasher is reset and rewritten from (key, counter) on
// every call, there is no hidden mutable state carried between Gen* calls.
type Seed struct {
	key     [16]byte
	counter uint64
	h       *blake3.Hasher
}

// SetSeed builds a Seed from an optional 16-byte key (nil picks an
// all-zero key, matching the reference implementation's default) and an
// optional counter.
func SetSeed(key *[16]byte, counter uint64) *Seed {
	s := &Seed{counter: counter, h: blake3.New()}
	if key != nil {
		s.key = *key
	}
	return s
}

// Reseed rekeys s in place with a new 128-bit key and counter. Every ALSZ
// column gets its own Seed instance (see pkg/ote) rather than sharing one
// reseeded context, so concurrent column expansion never races on h.
func Reseed(s *Seed, key [16]byte, counter uint64) {
	s.key = key
	s.counter = counter
}

func (s *Seed) stream() *blake3.Digest {
	s.h.Reset()
	s.h.Write(s.key[:])
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], s.counter)
	s.h.Write(ctr[:])
	return s.h.Digest()
}

// GenRandomBytes fills and returns n pseudorandom bytes.
func GenRandomBytes(s *Seed, n int) []byte {
	out := make([]byte, n)
	d := s.stream()
	d.Read(out)
	return out
}

// GenRandomBlocks returns n pseudorandom blocks.
func GenRandomBlocks(s *Seed, n int) []block.Block {
	raw := GenRandomBytes(s, n*block.Size)
	out, err := block.FromDenseBytes(raw)
	if err != nil {
		panic(err) // unreachable: raw is always a multiple of block.Size
	}
	return out
}

// GenRandomBits returns n pseudorandom bits in sparse form: one output byte
// (0x00/0x01) per bit.
func GenRandomBits(s *Seed, n int) []byte {
	raw := GenRandomBytes(s, (n+7)/8)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = (raw[i/8] >> uint(i%8)) & 1
	}
	return out
}
