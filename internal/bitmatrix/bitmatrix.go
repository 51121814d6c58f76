// Package bitmatrix implements the dense bit matrices that back every OT
// extension column/row operation: storage as contiguous 128-bit blocks and
// an in-place-safe transpose.
package bitmatrix

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"

	"github.com/kunlun-party/match/internal/block"
)

// Matrix is an R x C bit matrix stored row-major in dense block form: each
// row occupies C/128 contiguous blocks. R and C must both be multiples of
// 128 (the invariant every OTE matrix in this module relies on).
type Matrix struct {
	Rows, Cols int
	Data       []block.Block // len == Rows * Cols/128
}

// New allocates a zeroed R x C matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows%128 != 0 || cols%128 != 0 {
		return nil, fmt.Errorf("bitmatrix: rows=%d cols=%d must both be multiples of 128", rows, cols)
	}
	return &Matrix{Rows: rows, Cols: cols, Data: make([]block.Block, rows*cols/128)}, nil
}

// Row returns the blocks backing row i.
func (m *Matrix) Row(i int) []block.Block {
	w := m.Cols / 128
	return m.Data[i*w : (i+1)*w]
}

// SetBit sets bit (row, col) to v (0 or 1).
func (m *Matrix) SetBit(row, col int, v byte) {
	blk := &m.Data[row*(m.Cols/128)+col/128]
	byteIdx := (col % 128) / 8
	bitIdx := uint((col % 128) % 8)
	if v != 0 {
		blk[byteIdx] |= 1 << bitIdx
	} else {
		blk[byteIdx] &^= 1 << bitIdx
	}
}

// GetBit returns bit (row, col), 0 or 1.
func (m *Matrix) GetBit(row, col int) byte {
	blk := m.Data[row*(m.Cols/128)+col/128]
	byteIdx := (col % 128) / 8
	bitIdx := uint((col % 128) % 8)
	return (blk[byteIdx] >> bitIdx) & 1
}

// FromColumns builds a rows x cols matrix from cols sparse-bit columns,
// each colBits[j] a rows-length slice of 0/1 bytes — the shape a PRG
// column expansion (prg.GenRandomBits) produces.
func FromColumns(rows, cols int, colBits [][]byte) (*Matrix, error) {
	m, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(colBits) != cols {
		return nil, fmt.Errorf("bitmatrix: expected %d columns, got %d", cols, len(colBits))
	}
	for j, col := range colBits {
		if len(col) != rows {
			return nil, fmt.Errorf("bitmatrix: column %d has %d bits, want %d", j, len(col), rows)
		}
		for i, bit := range col {
			m.SetBit(i, j, bit)
		}
	}
	return m, nil
}

// SetRow overwrites row i's blocks with blocks (len(blocks) must equal
// Cols/128).
func (m *Matrix) SetRow(i int, blocks []block.Block) {
	copy(m.Row(i), blocks)
}

// FromDenseBlocks wraps an already-packed row-major block slice as a
// Matrix without copying, used when blocks arrive directly off the wire in
// the matrix's native layout.
func FromDenseBlocks(rows, cols int, data []block.Block) (*Matrix, error) {
	if rows%128 != 0 || cols%128 != 0 {
		return nil, fmt.Errorf("bitmatrix: rows=%d cols=%d must both be multiples of 128", rows, cols)
	}
	if len(data) != rows*cols/128 {
		return nil, fmt.Errorf("bitmatrix: expected %d blocks for a %dx%d matrix, got %d", rows*cols/128, rows, cols, len(data))
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

// rowBytes is the row width in bytes (Cols/8).
func (m *Matrix) rowBytes() int { return m.Cols / 8 }

// bytes is the dense byte-packed representation of the whole matrix,
// row-major, Cols/8 bytes per row.
func (m *Matrix) bytes() []byte {
	return block.ToDenseBytes(m.Data)
}

// fromBytes rebuilds a Matrix's Data from a dense row-major byte buffer.
func fromBytes(rows, cols int, buf []byte) (*Matrix, error) {
	blocks, err := block.FromDenseBytes(buf)
	if err != nil {
		return nil, err
	}
	return &Matrix{Rows: rows, Cols: cols, Data: blocks}, nil
}

// Transpose returns the Cols x Rows transpose of m. transpose is an
// involution: Transpose(Transpose(m)) bit-for-bit equals m.
//
// The algorithm processes the matrix in 16-row x 8-column tiles and, for
// each tile, extracts the top bit of 16 gathered bytes eight times while
// shifting left — the scalar analogue of the SSE2 movemask-based transpose
// used by this module's reference C/C++ ancestor. Because every Matrix
// satisfies rows%128==0 and cols%128==0 (enforced by New), rows is always a
// multiple of 16 and cols always a multiple of 8, so the tiling below always
// divides the matrix evenly and needs no 8x16/8x8 remainder branches.
func (m *Matrix) Transpose() *Matrix {
	in := m.bytes()
	inStride := m.rowBytes() // bytes per input row
	out := make([]byte, m.Cols*m.Rows/8)
	outStride := m.Rows / 8 // bytes per output row

	nTiles := m.Rows / 16
	worker := func(tileStart, tileEnd int) {
		for rr := tileStart * 16; rr < tileEnd*16; rr += 16 {
			for cc := 0; cc < m.Cols; cc += 8 {
				var gathered [16]byte
				for i := 0; i < 16; i++ {
					byteIdx := (rr+i)*inStride + cc/8
					gathered[i] = in[byteIdx]
				}
				lo := binary.LittleEndian.Uint64(gathered[0:8])
				hi := binary.LittleEndian.Uint64(gathered[8:16])
				for i := 7; i >= 0; i-- {
					maskLo := movemask8(lo)
					maskHi := movemask8(hi)
					outByteOff := (cc+i)*outStride + rr/8
					out[outByteOff] = maskLo
					out[outByteOff+1] = maskHi
					lo <<= 1
					hi <<= 1
				}
			}
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > nTiles {
		workers = nTiles
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (nTiles + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= nTiles {
			break
		}
		if end > nTiles {
			end = nTiles
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			worker(s, e)
		}(start, end)
	}
	wg.Wait()

	out2, err := fromBytes(m.Cols, m.Rows, out)
	if err != nil {
		// unreachable: out is exactly Cols*Rows/8 bytes by construction.
		panic(err)
	}
	return out2
}

// movemask8 extracts the top bit of each of the 8 bytes packed
// little-endian in v into a byte, bit i = top bit of byte i.
// The software analogue of _mm_movemask_epi8 restricted to one 64-bit lane.
func movemask8(v uint64) byte {
	var mask byte
	for i := 0; i < 8; i++ {
		if (v>>(uint(i)*8+7))&1 != 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}
