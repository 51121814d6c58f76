package xhash_test

import (
	"crypto/rand"
	"testing"

	"github.com/kunlun-party/match/internal/block"
	"github.com/kunlun-party/match/internal/xhash"
)

func TestBlockToBlockIsDeterministic(t *testing.T) {
	var b block.Block
	rand.Read(b[:])
	a := xhash.BlockToBlock(b)
	c := xhash.BlockToBlock(b)
	if a != c {
		t.Fatal("BlockToBlock is not deterministic")
	}
}

func TestBlockToBlockDiffusesSingleBitFlip(t *testing.T) {
	var b block.Block
	rand.Read(b[:])
	flipped := b
	flipped[0] ^= 1

	if xhash.BlockToBlock(b) == xhash.BlockToBlock(flipped) {
		t.Fatal("single-bit input difference produced identical output")
	}
}

func TestBlocksToBlockOrderSensitive(t *testing.T) {
	var a, b block.Block
	rand.Read(a[:])
	rand.Read(b[:])

	h1 := xhash.BlocksToBlock([]block.Block{a, b})
	h2 := xhash.BlocksToBlock([]block.Block{b, a})
	if h1 == h2 {
		t.Fatal("BlocksToBlock should be sensitive to input order")
	}
}

func TestNewHasherRejectsBadSaltLength(t *testing.T) {
	if _, err := xhash.NewHasher(xhash.Murmur3, make([]byte, 4)); err == nil {
		t.Fatal("expected error for short salt")
	}
}

func TestHashersAreDeterministicAndSaltSensitive(t *testing.T) {
	salt1 := make([]byte, xhash.SaltLength)
	salt2 := make([]byte, xhash.SaltLength)
	salt2[0] = 1

	backends := []int{xhash.Murmur3, xhash.Metro, xhash.Metro64, xhash.CityHash, xhash.HighwayHash}
	for _, backend := range backends {
		h1, err := xhash.NewHasher(backend, salt1)
		if err != nil {
			t.Fatalf("backend %d: %v", backend, err)
		}
		h2, err := xhash.NewHasher(backend, salt1)
		if err != nil {
			t.Fatalf("backend %d: %v", backend, err)
		}
		h3, err := xhash.NewHasher(backend, salt2)
		if err != nil {
			t.Fatalf("backend %d: %v", backend, err)
		}

		data := []byte("membership-probe")
		if h1.Hash64(data) != h2.Hash64(data) {
			t.Fatalf("backend %d: same salt produced different hashes", backend)
		}
		if h1.Hash64(data) == h3.Hash64(data) {
			t.Fatalf("backend %d: different salts produced the same hash", backend)
		}
	}
}

func TestKeyed32SaltSensitive(t *testing.T) {
	data := []byte("bloom-element")
	a, err := xhash.Keyed32(xhash.Murmur3, 0xAAAAAAAA, data)
	if err != nil {
		t.Fatalf("Keyed32: %v", err)
	}
	b, err := xhash.Keyed32(xhash.Murmur3, 0x55555555, data)
	if err != nil {
		t.Fatalf("Keyed32: %v", err)
	}
	if a == b {
		t.Fatal("distinct salts produced the same 32-bit digest")
	}
}
