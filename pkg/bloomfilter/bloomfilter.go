// Package bloomfilter implements a salted multi-hash Bloom filter: k
// keyed evaluations of a single hash family (internal/xhash) against an
// m-bit table, k and m sized from a target false-positive probability.
// Ported from original_source/filter/bloom_filter.hpp (itself adapted
// from github.com/ArashPartow/bloom): same 128 hard-coded salts, the same
// salt-mixing formula for hash_num <= 128, and the same persisted-field
// order. Table storage uses github.com/bits-and-blooms/bitset instead of
// a raw byte slice, since it already exposes the exact set/test/popcount
// operations this filter performs and is part of the pack's dependency
// surface (see DESIGN.md).
package bloomfilter

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/kunlun-party/match/internal/prg"
	"github.com/kunlun-party/match/internal/xhash"
)

// predefinedSalts are the 128 fixed salts every filter's hash functions
// start from, mixed with a per-filter random seed so two filters built
// from the same parameters never collide identically.
var predefinedSalts = [128]uint32{
	0xAAAAAAAA, 0x55555555, 0x33333333, 0xCCCCCCCC, 0x66666666, 0x99999999, 0xB5B5B5B5, 0x4B4B4B4B,
	0xAA55AA55, 0x55335533, 0x33CC33CC, 0xCC66CC66, 0x66996699, 0x99B599B5, 0xB54BB54B, 0x4BAA4BAA,
	0xAA33AA33, 0x55CC55CC, 0x33663366, 0xCC99CC99, 0x66B566B5, 0x994B994B, 0xB5AAB5AA, 0xAAAAAA33,
	0x555555CC, 0x33333366, 0xCCCCCC99, 0x666666B5, 0x9999994B, 0xB5B5B5AA, 0xFFFFFFFF, 0xFFFF0000,
	0xB823D5EB, 0xC1191CDF, 0xF623AEB3, 0xDB58499F, 0xC8D42E70, 0xB173F616, 0xA91A5967, 0xDA427D63,
	0xB1E8A2EA, 0xF6C0D155, 0x4909FEA3, 0xA68CC6A7, 0xC395E782, 0xA26057EB, 0x0CD5DA28, 0x467C5492,
	0xF15E6982, 0x61C6FAD3, 0x9615E352, 0x6E9E355A, 0x689B563E, 0x0C9831A8, 0x6753C18B, 0xA622689B,
	0x8CA63C47, 0x42CC2884, 0x8E89919B, 0x6EDBD7D3, 0x15B6796C, 0x1D6FDFE4, 0x63FF9092, 0xE7401432,
	0xEFFE9412, 0xAEAEDF79, 0x9F245A31, 0x83C136FC, 0xC3DA4A8C, 0xA5112C8C, 0x5271F491, 0x9A948DAB,
	0xCEE59A8D, 0xB5F525AB, 0x59D13217, 0x24E7C331, 0x697C2103, 0x84B0A460, 0x86156DA9, 0xAEF2AC68,
	0x23243DA5, 0x3F649643, 0x5FA495A8, 0x67710DF8, 0x9A6C499E, 0xDCFB0227, 0x46A43433, 0x1832B07A,
	0xC46AFF3C, 0xB9C8FFF0, 0xC9500467, 0x34431BDF, 0xB652432B, 0xE367F12B, 0x427F4C1B, 0x224C006E,
	0x2E7E5A89, 0x96F99AA5, 0x0BEB452A, 0x2FD87C39, 0x74B2E1FB, 0x222EFD24, 0xF357F60C, 0x440FCB1E,
	0x8BBE030F, 0x6704DC29, 0x1144D12F, 0x948B1355, 0x6D8FD7E9, 0x1C11A014, 0xADD1592F, 0xFB3C712E,
	0xFC77642F, 0xF9C4CE8C, 0x31312FB9, 0x08B0DD79, 0x318FA6E7, 0xC040D23D, 0xC0589AA7, 0x0CA5C075,
	0xF874B172, 0x0CF914D5, 0x784D3280, 0x4E8CFEBC, 0xC569F575, 0xCDB2A091, 0x2CC016B4, 0x5C5F4421,
}

// Filter is a salted multi-hash Bloom filter over an m-bit table.
type Filter struct {
	hashNum    uint32
	randomSeed uint32
	tableSize  uint32
	salts      []uint32
	bits       *bitset.BitSet
	backend    int
}

// New builds a Filter sized for projectedCount elements at the given
// desired false-positive probability p (0 < p < 1), keyed by seed (any
// caller-chosen value; two filters with the same seed and parameters
// derive the same salts).
func New(projectedCount int, p float64, seed uint32) (*Filter, error) {
	if p <= 0 || p >= 1 {
		return nil, fmt.Errorf("bloomfilter: false positive probability %v must be in (0,1)", p)
	}
	if projectedCount <= 0 {
		return nil, fmt.Errorf("bloomfilter: projected element count must be positive")
	}

	hashNum := uint32(math.Ceil(-math.Log2(p)))
	if hashNum == 0 {
		hashNum = 1
	}
	tableSize := uint32(math.Ceil(-1.44 * float64(projectedCount) * math.Log2(p)))
	// round up to a byte boundary, matching the persisted bit_table's
	// table_size/8 byte layout.
	tableSize = ((tableSize + 7) / 8) * 8

	return &Filter{
		hashNum:    hashNum,
		randomSeed: seed,
		tableSize:  tableSize,
		salts:      genSalts(hashNum, seed),
		bits:       bitset.New(uint(tableSize)),
		backend:    xhash.Murmur3,
	}, nil
}

// genSalts reproduces the reference implementation's salt derivation: the
// first min(hashNum, 128) salts come from the predefined table, mixed with
// seed; if more are needed, additional salts are drawn deterministically
// from a blake3 stream keyed by seed (in place of the reference's
// C rand()), skipping zero and any repeat.
func genSalts(hashNum, seed uint32) []uint32 {
	n := int(hashNum)
	salts := make([]uint32, 0, n)

	limit := n
	if limit > len(predefinedSalts) {
		limit = len(predefinedSalts)
	}
	for i := 0; i < limit; i++ {
		salts = append(salts, predefinedSalts[i])
	}
	for i := range salts {
		salts[i] = salts[i]*salts[(i+3)%len(salts)] + seed
	}

	if n <= len(predefinedSalts) {
		return salts
	}

	var seedKey [16]byte
	binary.LittleEndian.PutUint32(seedKey[:4], seed)
	extraSeed := prg.SetSeed(&seedKey, 0)

	seen := make(map[uint32]bool, len(salts))
	for _, s := range salts {
		seen[s] = true
	}
	for counter := uint64(0); len(salts) < n; counter++ {
		prg.Reseed(extraSeed, seedKey, counter)
		raw := prg.GenRandomBytes(extraSeed, 4)
		candidate := binary.LittleEndian.Uint32(raw)
		if candidate == 0 || seen[candidate] {
			continue
		}
		salts = append(salts, candidate)
		seen[candidate] = true
	}
	return salts
}

// Insert marks the k positions data hashes to.
func (f *Filter) Insert(data []byte) {
	for _, pos := range f.positions(data) {
		f.bits.Set(uint(pos))
	}
}

// Contains reports whether every one of data's k positions is set. Once
// inserted, an element always returns true; a non-member returns true
// only on a hash collision (the filter's false-positive event).
func (f *Filter) Contains(data []byte) bool {
	for _, pos := range f.positions(data) {
		if !f.bits.Test(uint(pos)) {
			return false
		}
	}
	return true
}

func (f *Filter) positions(data []byte) []uint32 {
	out := make([]uint32, f.hashNum)
	for i, salt := range f.salts {
		h, err := xhash.Keyed32(f.backend, salt, data)
		if err != nil {
			panic(err) // unreachable: backend and salt length are fixed at construction
		}
		out[i] = h % f.tableSize
	}
	return out
}

// WriteTo persists (hash_num, random_seed, table_size, bit_table):
// the three header fields as little-endian uint32s with no padding,
// followed by the bit table in the bitset library's own MarshalBinary
// encoding.
func (f *Filter) WriteTo(w io.Writer) error {
	hdr := make([]byte, 12)
	binary.LittleEndian.PutUint32(hdr[0:4], f.hashNum)
	binary.LittleEndian.PutUint32(hdr[4:8], f.randomSeed)
	binary.LittleEndian.PutUint32(hdr[8:12], f.tableSize)
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("bloomfilter: writing header: %w", err)
	}
	table, err := f.bits.MarshalBinary()
	if err != nil {
		return fmt.Errorf("bloomfilter: marshaling bit table: %w", err)
	}
	if _, err := w.Write(table); err != nil {
		return fmt.Errorf("bloomfilter: writing bit table: %w", err)
	}
	return nil
}

// ReadFrom reconstructs a Filter from the format WriteTo produces: salts
// are rederived from (hash_num, random_seed) rather than persisted.
func ReadFrom(r io.Reader) (*Filter, error) {
	hdr := make([]byte, 12)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("bloomfilter: reading header: %w", err)
	}
	hashNum := binary.LittleEndian.Uint32(hdr[0:4])
	seed := binary.LittleEndian.Uint32(hdr[4:8])
	tableSize := binary.LittleEndian.Uint32(hdr[8:12])

	table, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bloomfilter: reading bit table: %w", err)
	}
	bits := &bitset.BitSet{}
	if err := bits.UnmarshalBinary(table); err != nil {
		return nil, fmt.Errorf("bloomfilter: unmarshaling bit table: %w", err)
	}

	return &Filter{
		hashNum:    hashNum,
		randomSeed: seed,
		tableSize:  tableSize,
		salts:      genSalts(hashNum, seed),
		bits:       bits,
		backend:    xhash.Murmur3,
	}, nil
}
