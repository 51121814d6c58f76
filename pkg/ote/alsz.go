// Package ote implements ALSZ OT extension: BaseLen base OTs (pkg/ot,
// "in the reverse direction") bootstrap ExtendLen batches of 1-out-of-2
// OT of 128-bit messages. Grounded on the teacher's internal/ot/
// improved_iknp.go (IKNP-family extension: base OT for column seeds, PRG
// column expansion, transpose, correlation-robust hash-to-key), adapted
// to the ALSZ 2013 correction-matrix variant the spec calls for and fixed
// for the known U/T_column aliasing bug in the reference source (see
// DESIGN.md).
package ote

import (
	"crypto/rand"
	"fmt"

	"github.com/kunlun-party/match/internal/bitmatrix"
	"github.com/kunlun-party/match/internal/block"
	"github.com/kunlun-party/match/internal/prg"
	"github.com/kunlun-party/match/internal/xhash"
	"github.com/kunlun-party/match/pkg/netio"
	"github.com/kunlun-party/match/pkg/ot"
)

// BaseLen is the fixed number of base OTs ALSZ extension bootstraps from.
const BaseLen = 128

// ErrBadExtendLen reports an ExtendLen that is not a positive multiple of 128.
var ErrBadExtendLen = fmt.Errorf("ote: extend length must be a positive multiple of %d", BaseLen)

func checkExtendLen(n int) error {
	if n <= 0 || n%128 != 0 {
		return ErrBadExtendLen
	}
	return nil
}

// randomBlock samples a uniform random 128-bit block, used for per-column
// base-OT seeds.
func randomBlock() (block.Block, error) {
	var b block.Block
	if _, err := rand.Read(b[:]); err != nil {
		return block.Zero, err
	}
	return b, nil
}

func packBits(bits []byte) ([]block.Block, error) {
	return block.FromSparseBytes(bits)
}

// Receiver is the OT extension receiver: it holds choice bits and, after
// Setup and Receive, learns m_{r[i]}[i] for every i. It plays the sender
// role in the underlying base OT (ALSZ's "reverse direction").
type Receiver struct {
	extendLen int
	choices   []byte // one 0/1 byte per OT, length extendLen
	rStar     []block.Block
	keys      []block.Block // K[i], length extendLen
}

// NewReceiver returns an extension Receiver for extendLen OTs with the
// given choice bits (one 0/1 byte per OT).
func NewReceiver(extendLen int, choices []byte) (*Receiver, error) {
	if err := checkExtendLen(extendLen); err != nil {
		return nil, err
	}
	if len(choices) != extendLen {
		return nil, fmt.Errorf("ote: choices length %d does not match extend length %d", len(choices), extendLen)
	}
	rStar, err := packBits(choices)
	if err != nil {
		return nil, err
	}
	return &Receiver{extendLen: extendLen, choices: choices, rStar: rStar}, nil
}

// Setup runs the base-OT phase and the column expansion/correction, and
// derives this receiver's per-OT keys K[i] = m_{r[i]}[i]'s mask.
func (rc *Receiver) Setup(conn *netio.Conn) error {
	r := rc.extendLen

	tSeeds := make([]block.Block, BaseLen)
	uSeeds := make([]block.Block, BaseLen)
	baseMsgs := make([][2]block.Block, BaseLen)

	tCols, err := bitmatrix.New(BaseLen, r)
	if err != nil {
		return err
	}
	pCols, err := bitmatrix.New(BaseLen, r)
	if err != nil {
		return err
	}

	for j := 0; j < BaseLen; j++ {
		tSeed, err := randomBlock()
		if err != nil {
			return err
		}
		uSeed, err := randomBlock()
		if err != nil {
			return err
		}
		tSeeds[j], uSeeds[j] = tSeed, uSeed
		baseMsgs[j] = [2]block.Block{tSeed, uSeed}

		// distinct PRG context per column: reseed with (seed, column index).
		tBits := prg.GenRandomBits(prg.SetSeed(seedKey(tSeed), uint64(j)), r)
		uBits := prg.GenRandomBits(prg.SetSeed(seedKey(uSeed), uint64(j)), r)

		tBlocks, err := packBits(tBits)
		if err != nil {
			return err
		}
		uBlocks, err := packBits(uBits)
		if err != nil {
			return err
		}
		tCols.SetRow(j, tBlocks)

		// P[:,j] = T[:,j] xor U[:,j] xor r*. U itself is never stored past
		// this point: only its role in the correction matters.
		pRow := make([]block.Block, len(rc.rStar))
		block.XORSlice(pRow, tBlocks, uBlocks)
		block.XORSlice(pRow, pRow, rc.rStar)
		pCols.SetRow(j, pRow)
	}

	// base OT: the extension receiver plays sender, offering (t_seed, u_seed)
	// pairs for each of the BaseLen columns.
	if err := ot.NewSender(BaseLen).Send(conn, baseMsgs); err != nil {
		return fmt.Errorf("ote: base OT send: %w", err)
	}

	if err := conn.SendBlocks(pCols.Data); err != nil {
		return fmt.Errorf("ote: send correction matrix: %w", err)
	}

	tRows := tCols.Transpose()
	keys := make([]block.Block, r)
	for i := 0; i < r; i++ {
		keys[i] = xhash.BlocksToBlock(tRows.Row(i))
	}
	rc.keys = keys
	return nil
}

// seedKey converts a block into the [16]byte key prg.SetSeed expects.
func seedKey(b block.Block) *[16]byte {
	return (*[16]byte)(&b)
}

// Receive reads the sender's 2*extendLen payload ciphertexts and returns
// m_{r[i]}[i] for every i.
func (rc *Receiver) Receive(conn *netio.Conn) ([]block.Block, error) {
	if rc.keys == nil {
		return nil, fmt.Errorf("ote: Receive called before Setup")
	}
	c, err := conn.ReceiveBlocks(2 * rc.extendLen)
	if err != nil {
		return nil, fmt.Errorf("ote: receive payload: %w", err)
	}
	c0, c1 := c[:rc.extendLen], c[rc.extendLen:]
	out := make([]block.Block, rc.extendLen)
	for i := 0; i < rc.extendLen; i++ {
		var chosen block.Block
		if rc.choices[i] == 0 {
			chosen = c0[i]
		} else {
			chosen = c1[i]
		}
		out[i] = block.XOR(chosen, rc.keys[i])
	}
	return out, nil
}

// Sender is the OT extension sender: after Setup, it can deliver any
// number of (m0, m1) payload batches via Send. It plays the receiver role
// in the underlying base OT.
type Sender struct {
	extendLen int
	keys0     []block.Block // K0[i]
	keys1     []block.Block // K1[i]
}

// NewSender returns an extension Sender for extendLen OTs.
func NewSender(extendLen int) (*Sender, error) {
	if err := checkExtendLen(extendLen); err != nil {
		return nil, err
	}
	return &Sender{extendLen: extendLen}, nil
}

// Setup runs the base-OT phase, receives and corrects the column matrix,
// and derives this sender's per-OT key pairs K0[i], K1[i].
func (s *Sender) Setup(conn *netio.Conn) error {
	r := s.extendLen

	choiceBits := make([]byte, BaseLen)
	if _, err := rand.Read(choiceBits); err != nil {
		return err
	}
	for i := range choiceBits {
		choiceBits[i] &= 1
	}
	sStarBlocks, err := packBits(choiceBits)
	if err != nil {
		return err
	}
	sStar := sStarBlocks[0] // BaseLen == 128, exactly one block.

	choices := make([]uint8, BaseLen)
	for i, b := range choiceBits {
		choices[i] = b
	}
	qSeeds, err := ot.NewReceiver(BaseLen).Receive(conn, choices)
	if err != nil {
		return fmt.Errorf("ote: base OT receive: %w", err)
	}

	qCols, err := bitmatrix.New(BaseLen, r)
	if err != nil {
		return err
	}
	for j := 0; j < BaseLen; j++ {
		qBits := prg.GenRandomBits(prg.SetSeed(seedKey(qSeeds[j]), uint64(j)), r)
		qBlocks, err := packBits(qBits)
		if err != nil {
			return err
		}
		qCols.SetRow(j, qBlocks)
	}

	pBlocks, err := conn.ReceiveBlocks(BaseLen * r / 128)
	if err != nil {
		return fmt.Errorf("ote: receive correction matrix: %w", err)
	}
	pCols, err := bitmatrix.FromDenseBlocks(BaseLen, r, pBlocks)
	if err != nil {
		return err
	}

	qRows := qCols.Transpose()
	pRows := pCols.Transpose()

	keys0 := make([]block.Block, r)
	keys1 := make([]block.Block, r)
	for i := 0; i < r; i++ {
		// adj = s* AND P[i,·]; q'[i] = Q[i,·] XOR adj (single block, since
		// BaseLen == 128 means every row is exactly one block wide).
		adj := block.AND(sStar, pRows.Row(i)[0])
		qPrime := block.XOR(qRows.Row(i)[0], adj)

		keys0[i] = xhash.BlocksToBlock([]block.Block{qPrime})
		keys1[i] = xhash.BlocksToBlock([]block.Block{block.XOR(qPrime, sStar)})
	}
	s.keys0, s.keys1 = keys0, keys1
	return nil
}

// Send masks (m0, m1) with this sender's derived keys and transmits them.
// len(m0) and len(m1) must equal the configured ExtendLen.
func (s *Sender) Send(conn *netio.Conn, m0, m1 []block.Block) error {
	if s.keys0 == nil {
		return fmt.Errorf("ote: Send called before Setup")
	}
	if len(m0) != s.extendLen || len(m1) != s.extendLen {
		return fmt.Errorf("ote: message slice length does not match extend length %d", s.extendLen)
	}
	c := make([]block.Block, 2*s.extendLen)
	for i := 0; i < s.extendLen; i++ {
		c[i] = block.XOR(m0[i], s.keys0[i])
		c[s.extendLen+i] = block.XOR(m1[i], s.keys1[i])
	}
	return conn.SendBlocks(c)
}
