// Package block implements the 128-bit word that every OT extension and
// bit-matrix operation in this module is built from.
package block

import (
	"encoding/binary"
	"fmt"

	"github.com/alecthomas/unsafeslice"
)

// Size is the length of a Block in bytes.
const Size = 16

// Block is a 128-bit value, the unit of both OT messages and bit-matrix rows.
type Block [Size]byte

// Zero is the all-zero block.
var Zero = Block{}

// XOR returns a ^ b.
func XOR(a, b Block) Block {
	var out Block
	castOut := unsafeslice.Uint64SliceFromByteSlice(out[:])
	castA := unsafeslice.Uint64SliceFromByteSlice(a[:])
	castB := unsafeslice.Uint64SliceFromByteSlice(b[:])
	castOut[0] = castA[0] ^ castB[0]
	castOut[1] = castA[1] ^ castB[1]
	return out
}

// AND returns a & b.
func AND(a, b Block) Block {
	var out Block
	castOut := unsafeslice.Uint64SliceFromByteSlice(out[:])
	castA := unsafeslice.Uint64SliceFromByteSlice(a[:])
	castB := unsafeslice.Uint64SliceFromByteSlice(b[:])
	castOut[0] = castA[0] & castB[0]
	castOut[1] = castA[1] & castB[1]
	return out
}

// AndNot returns a &^ b, clearing in a every bit set in b.
func AndNot(a, b Block) Block {
	var out Block
	castOut := unsafeslice.Uint64SliceFromByteSlice(out[:])
	castA := unsafeslice.Uint64SliceFromByteSlice(a[:])
	castB := unsafeslice.Uint64SliceFromByteSlice(b[:])
	castOut[0] = castA[0] &^ castB[0]
	castOut[1] = castA[1] &^ castB[1]
	return out
}

// Compare reports whether a and b are bitwise equal.
func Compare(a, b Block) bool {
	return a == b
}

// XORSlice xors every element of a with the corresponding element of b,
// in place into dst. Panics if the slices are not the same length.
func XORSlice(dst, a, b []Block) {
	if len(dst) != len(a) || len(dst) != len(b) {
		panic(fmt.Sprintf("block: XORSlice length mismatch: dst=%d a=%d b=%d", len(dst), len(a), len(b)))
	}
	for i := range dst {
		dst[i] = XOR(a[i], b[i])
	}
}

// ANDSlice ands every element of a with the corresponding element of b,
// in place into dst. Panics if the slices are not the same length.
func ANDSlice(dst, a, b []Block) {
	if len(dst) != len(a) || len(dst) != len(b) {
		panic(fmt.Sprintf("block: ANDSlice length mismatch: dst=%d a=%d b=%d", len(dst), len(a), len(b)))
	}
	for i := range dst {
		dst[i] = AND(a[i], b[i])
	}
}

// ToDenseBytes packs a slice of blocks into its little-endian dense byte
// representation: Size bytes per block, concatenated in order.
func ToDenseBytes(blocks []Block) []byte {
	out := make([]byte, len(blocks)*Size)
	for i, b := range blocks {
		copy(out[i*Size:(i+1)*Size], b[:])
	}
	return out
}

// FromDenseBytes unpacks a dense byte representation (a multiple of Size
// bytes) into a slice of blocks. It is the exact inverse of ToDenseBytes.
func FromDenseBytes(b []byte) ([]Block, error) {
	if len(b)%Size != 0 {
		return nil, fmt.Errorf("block: dense byte length %d is not a multiple of %d", len(b), Size)
	}
	out := make([]Block, len(b)/Size)
	for i := range out {
		copy(out[i][:], b[i*Size:(i+1)*Size])
	}
	return out, nil
}

// ToSparseBytes expands a block into its sparse representation: one output
// byte (0x00 or 0x01) per bit, 128 bytes per block, LSB of byte 0 first.
func ToSparseBytes(blocks []Block) []byte {
	out := make([]byte, len(blocks)*128)
	for i, b := range blocks {
		base := i * 128
		for byteIdx := 0; byteIdx < Size; byteIdx++ {
			v := b[byteIdx]
			for bit := 0; bit < 8; bit++ {
				out[base+byteIdx*8+bit] = (v >> bit) & 1
			}
		}
	}
	return out
}

// FromSparseBytes is the exact inverse of ToSparseBytes: one input byte
// (treated as zero/nonzero) per output bit, 128 input bytes per block.
func FromSparseBytes(sparse []byte) ([]Block, error) {
	if len(sparse)%128 != 0 {
		return nil, fmt.Errorf("block: sparse byte length %d is not a multiple of 128", len(sparse))
	}
	out := make([]Block, len(sparse)/128)
	for i := range out {
		base := i * 128
		for byteIdx := 0; byteIdx < Size; byteIdx++ {
			var v byte
			for bit := 0; bit < 8; bit++ {
				if sparse[base+byteIdx*8+bit] != 0 {
					v |= 1 << bit
				}
			}
			out[i][byteIdx] = v
		}
	}
	return out, nil
}

// FromUint64s builds a block from two little-endian-ordered 64-bit halves,
// matching the teacher's MakeBlock(high, low) convention.
func FromUint64s(high, low uint64) Block {
	var b Block
	binary.LittleEndian.PutUint64(b[0:8], low)
	binary.LittleEndian.PutUint64(b[8:16], high)
	return b
}
