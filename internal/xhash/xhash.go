// Package xhash implements the hash primitives consumed by OT extension,
// NIZK, and the bloom filter: a correlation-robust block compression (the
// random oracle ALSZ key derivation relies on) and a family of salted,
// non-cryptographic multi-hashes for the bloom filter's k independent
// membership tests. Ported from the teacher's internal/crypto (blake3/
// blake2b XOF helpers) and internal/hash (Murmur3/Metro Hasher interface).
package xhash

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"math/big"

	"github.com/dgryski/go-metro"
	"github.com/hungrybirder/cityhash"
	"github.com/minio/highwayhash"
	"github.com/shivakar/metrohash"
	"github.com/twmb/murmur3"
	"github.com/zeebo/blake3"

	"github.com/kunlun-party/match/internal/block"
)

var (
	errSaltLength = errors.New("xhash: salt must be SaltLength bytes")
	errUnknownHash = errors.New("xhash: unknown hasher type")
)

// fixedKey is the correlation-robust hash's fixed AES key. Treated as a
// random oracle in the security analysis (spec note): any party can
// recompute it, it carries no secret.
var fixedKey = [16]byte{
	0x61, 0x7e, 0x8d, 0xa2, 0x03, 0x2f, 0x4c, 0x9b,
	0xe5, 0x11, 0x7a, 0xd4, 0x8e, 0x66, 0xf0, 0x29,
}

func fixedKeyCipher() cipher.Block {
	c, err := aes.NewCipher(fixedKey[:])
	if err != nil {
		panic(err) // unreachable: fixedKey is always 16 bytes
	}
	return c
}

// BlockToBlock is a fixed-key-AES-based block-to-block hash: H(x) = AES_k(x) ^ x
// (a Davies-Meyer compression, correlation-robust under the ideal-cipher model).
func BlockToBlock(x block.Block) block.Block {
	c := fixedKeyCipher()
	var y block.Block
	c.Encrypt(y[:], x[:])
	return block.XOR(x, y)
}

// BlockToBytes hashes a single block out to an arbitrary-length digest
// using blake3's XOF, seeded with the block.
func BlockToBytes(x block.Block, out []byte) {
	h := blake3.New()
	h.Write(x[:])
	d := h.Digest()
	d.Read(out)
}

// BlocksToBlock compresses an arbitrary-length sequence of blocks down to a
// single block. This is the correlation-robust hash used to derive final
// OT keys (ALSZ's Hash.blocks_to_block): it must behave like a random
// oracle even on inputs that differ only by a fixed, attacker-unknown
// offset, so each input block is tweaked with its own fixed-key AES
// compression before being folded in, rather than XORed in directly.
func BlocksToBlock(vec []block.Block) block.Block {
	acc := block.Zero
	for i, b := range vec {
		tweaked := BlockToBlock(XORIndex(b, i))
		acc = block.XOR(acc, tweaked)
	}
	return BlockToBlock(acc)
}

// XORIndex xors a small integer index into the low bytes of b, giving each
// position in a BlocksToBlock call a distinct tweak.
func XORIndex(b block.Block, i int) block.Block {
	var idx block.Block
	for s := 0; i != 0 && s < block.Size; s++ {
		idx[s] = byte(i)
		i >>= 8
	}
	return block.XOR(b, idx)
}

// StringToBigInt hashes an arbitrary transcript string down to a big.Int,
// the way the NIZK dlog-equality Fiat-Shamir challenge is derived.
func StringToBigInt(s string) *big.Int {
	sum := blake3.Sum256([]byte(s))
	return new(big.Int).SetBytes(sum[:])
}

// SaltLength is the fixed length, in bytes, of a Hasher salt.
const SaltLength = 32

const (
	// Murmur3 selects a murmur3-based Hasher.
	Murmur3 = iota
	// Metro selects a metrohash-based Hasher.
	Metro
	// Metro64 selects the dgryski/go-metro 64-bit hash.
	Metro64
	// CityHash selects a cityhash-based Hasher.
	CityHash
	// HighwayHash selects a highwayhash-based Hasher.
	HighwayHash
)

// Hasher is a salted non-cryptographic 64-bit hash, used by
// pkg/bloomfilter to build its k independent membership tests from a
// single family of hash functions keyed by distinct salts.
type Hasher interface {
	Hash64(data []byte) uint64
}

// NewHasher returns a Hasher of the given type, salted with salt (which
// must be SaltLength bytes).
func NewHasher(t int, salt []byte) (Hasher, error) {
	if len(salt) != SaltLength {
		return nil, errSaltLength
	}
	switch t {
	case Murmur3:
		return murmurHasher{salt: salt}, nil
	case Metro:
		return metroHasher{salt: salt}, nil
	case Metro64:
		return metro64Hasher{salt: salt}, nil
	case CityHash:
		return cityHasher{salt: salt}, nil
	case HighwayHash:
		return newHighwayHasher(salt)
	default:
		return nil, errUnknownHash
	}
}

type murmurHasher struct{ salt []byte }

func (h murmurHasher) Hash64(p []byte) uint64 {
	return murmur3.Sum64(append(h.salt, p...))
}

type metroHasher struct{ salt []byte }

func (h metroHasher) Hash64(p []byte) uint64 {
	mh := metrohash.NewMetroHash64()
	mh.Write(h.salt)
	mh.Write(p)
	return mh.Sum64()
}

type metro64Hasher struct{ salt []byte }

func (h metro64Hasher) Hash64(p []byte) uint64 {
	return metro.Hash64(append(h.salt, p...), 0)
}

type cityHasher struct{ salt []byte }

func (h cityHasher) Hash64(p []byte) uint64 {
	return cityhash.CityHash64(append(h.salt, p...), uint32(len(p)+len(h.salt)))
}

// Keyed32 evaluates the given Hasher backend keyed by a 32-bit salt (the
// bloom filter's native salt width) against data, truncated to 32 bits.
// The salt fills the first 4 bytes (little-endian) and is followed by
// zeros up to SaltLength.
func Keyed32(backend int, salt uint32, data []byte) (uint32, error) {
	var saltBytes [SaltLength]byte
	saltBytes[0] = byte(salt)
	saltBytes[1] = byte(salt >> 8)
	saltBytes[2] = byte(salt >> 16)
	saltBytes[3] = byte(salt >> 24)

	h, err := NewHasher(backend, saltBytes[:])
	if err != nil {
		return 0, err
	}
	return uint32(h.Hash64(data)), nil
}

type highwayHasher struct {
	key [32]byte
}

func newHighwayHasher(salt []byte) (highwayHasher, error) {
	var key [32]byte
	sum := blake3.Sum256(salt)
	copy(key[:], sum[:])
	return highwayHasher{key: key}, nil
}

func (h highwayHasher) Hash64(p []byte) uint64 {
	return highwayhash.Sum64(p, h.key[:])
}
