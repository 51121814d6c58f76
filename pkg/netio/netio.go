// Package netio implements the channel contract every protocol in this
// module talks over: framed, reliable, bidirectional delivery of blocks,
// EC points, and length-prefixed byte vectors on top of an io.ReadWriter.
// Grounded on the teacher's pkg/dhpsi point reader/writer pair
// (NewECPointReader/Writer) and internal/util/framing.go's length-prefixed
// line framing, generalized to the three wire primitives this module's
// protocols need.
package netio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kunlun-party/match/internal/block"
)

// Conn wraps an io.ReadWriter with the three wire primitives the channel
// contract defines. A Conn has no internal buffering state of its own: it
// is safe to alternate SendBlocks/SendPoints/SendByteVector calls on the
// same underlying connection as long as both ends agree on the schedule.
type Conn struct {
	rw io.ReadWriter
}

// New wraps rw in a Conn.
func New(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// SendBlocks writes n blocks (n*16 bytes) to the peer.
func (c *Conn) SendBlocks(blocks []block.Block) error {
	if _, err := c.rw.Write(block.ToDenseBytes(blocks)); err != nil {
		return fmt.Errorf("netio: send blocks: %w", err)
	}
	return nil
}

// ReceiveBlocks reads n blocks (n*16 bytes) from the peer.
func (c *Conn) ReceiveBlocks(n int) ([]block.Block, error) {
	buf := make([]byte, n*block.Size)
	if _, err := io.ReadFull(c.rw, buf); err != nil {
		return nil, fmt.Errorf("netio: receive blocks: %w", err)
	}
	blocks, err := block.FromDenseBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("netio: receive blocks: %w", err)
	}
	return blocks, nil
}

// PointLen is the byte length of one compressed EC point on the wire
// (the channel contract's `n x 32 bytes`).
const PointLen = 32

// SendPoints writes n encoded EC points (n*32 bytes) to the peer.
func (c *Conn) SendPoints(points [][PointLen]byte) error {
	buf := make([]byte, 0, len(points)*PointLen)
	for _, p := range points {
		buf = append(buf, p[:]...)
	}
	if _, err := c.rw.Write(buf); err != nil {
		return fmt.Errorf("netio: send points: %w", err)
	}
	return nil
}

// ReceivePoints reads n encoded EC points (n*32 bytes) from the peer.
func (c *Conn) ReceivePoints(n int) ([][PointLen]byte, error) {
	buf := make([]byte, n*PointLen)
	if _, err := io.ReadFull(c.rw, buf); err != nil {
		return nil, fmt.Errorf("netio: receive points: %w", err)
	}
	out := make([][PointLen]byte, n)
	for i := range out {
		copy(out[i][:], buf[i*PointLen:(i+1)*PointLen])
	}
	return out, nil
}

// SendByteVector writes a length-prefixed vector of n equal-length byte
// strings: a uint64 count, a uint64 element length, then the n elements
// concatenated.
func (c *Conn) SendByteVector(vec [][]byte) error {
	var elemLen int
	if len(vec) > 0 {
		elemLen = len(vec[0])
	}
	for _, v := range vec {
		if len(v) != elemLen {
			return fmt.Errorf("netio: send byte vector: element length mismatch: want %d got %d", elemLen, len(v))
		}
	}
	hdr := make([]byte, 16)
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(len(vec)))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(elemLen))
	if _, err := c.rw.Write(hdr); err != nil {
		return fmt.Errorf("netio: send byte vector header: %w", err)
	}
	for _, v := range vec {
		if _, err := c.rw.Write(v); err != nil {
			return fmt.Errorf("netio: send byte vector: %w", err)
		}
	}
	return nil
}

// ReceiveByteVector reads a length-prefixed vector of equal-length byte
// strings written by SendByteVector.
func (c *Conn) ReceiveByteVector() ([][]byte, error) {
	hdr := make([]byte, 16)
	if _, err := io.ReadFull(c.rw, hdr); err != nil {
		return nil, fmt.Errorf("netio: receive byte vector header: %w", err)
	}
	n := binary.LittleEndian.Uint64(hdr[0:8])
	elemLen := binary.LittleEndian.Uint64(hdr[8:16])
	out := make([][]byte, n)
	for i := range out {
		out[i] = make([]byte, elemLen)
		if _, err := io.ReadFull(c.rw, out[i]); err != nil {
			return nil, fmt.Errorf("netio: receive byte vector element %d: %w", i, err)
		}
	}
	return out, nil
}
