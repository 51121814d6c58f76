package ot

import (
	"fmt"

	gr "github.com/bwesterb/go-ristretto"

	"github.com/kunlun-party/match/internal/block"
	"github.com/kunlun-party/match/internal/xhash"
	"github.com/kunlun-party/match/pkg/netio"
)

// Sender runs the sender side of Naor-Pinkas base OT.
type Sender struct {
	n int
}

// NewSender returns a Sender configured for n parallel base OTs.
func NewSender(n int) *Sender {
	return &Sender{n: n}
}

// Send runs n base OTs, delivering messages[i][0] or messages[i][1] as
// chosen by the receiver, without learning which.
func (s *Sender) Send(conn *netio.Conn, messages [][2]block.Block) error {
	if len(messages) != s.n {
		return ErrBaseCountMismatch
	}

	// sample y, publish S = g^y and T = S^y once per run.
	var y gr.Scalar
	y.Rand()
	var g, S, T gr.Point
	g.SetBase()
	S.ScalarMult(&g, &y)
	T.ScalarMult(&S, &y)

	var sEnc, tEnc [netio.PointLen]byte
	S.BytesInto(&sEnc)
	T.BytesInto(&tEnc)
	if err := conn.SendPoints([][netio.PointLen]byte{sEnc, tEnc}); err != nil {
		return err
	}

	// receive the receiver's n points R[i].
	rPoints, err := conn.ReceivePoints(s.n)
	if err != nil {
		return err
	}

	c := make([]block.Block, 2*s.n)
	for i := 0; i < s.n; i++ {
		var R gr.Point
		if ok := R.SetBytes(&rPoints[i]); !ok {
			return fmt.Errorf("ot: malformed receiver point at index %d", i)
		}

		// W0 = H(R^y, i)
		var rY gr.Point
		rY.ScalarMult(&R, &y)

		// W1 = H((R - S)^y, i)
		var rMinusS, rMinusSY gr.Point
		rMinusS.Sub(&R, &S)
		rMinusSY.ScalarMult(&rMinusS, &y)

		w0 := deriveKey(&rY, i)
		w1 := deriveKey(&rMinusSY, i)

		c[2*i] = block.XOR(messages[i][0], w0)
		c[2*i+1] = block.XOR(messages[i][1], w1)
	}

	return conn.SendBlocks(c)
}

// Receiver runs the receiver side of Naor-Pinkas base OT.
type Receiver struct {
	n int
}

// NewReceiver returns a Receiver configured for n parallel base OTs.
func NewReceiver(n int) *Receiver {
	return &Receiver{n: n}
}

// Receive runs n base OTs and returns the message each choice bit in
// choices selects. len(choices) must equal n.
func (r *Receiver) Receive(conn *netio.Conn, choices []uint8) ([]block.Block, error) {
	if len(choices) != r.n {
		return nil, ErrBaseCountMismatch
	}

	points, err := conn.ReceivePoints(2)
	if err != nil {
		return nil, err
	}
	var S gr.Point
	if ok := S.SetBytes(&points[0]); !ok {
		return nil, fmt.Errorf("ot: malformed S point")
	}
	// T = S^y (points[1]) is published so the sender can be audited; it is
	// not needed by the receiver for correctness.

	var g gr.Point
	g.SetBase()

	xs := make([]gr.Scalar, r.n)
	k := make([]block.Block, r.n)
	rPoints := make([][netio.PointLen]byte, r.n)
	for i := 0; i < r.n; i++ {
		xs[i].Rand()

		var gx, R gr.Point
		gx.ScalarMult(&g, &xs[i])
		if choices[i] == 0 {
			R.Set(&gx)
		} else {
			R.Add(&S, &gx)
		}
		R.BytesInto(&rPoints[i])

		var Sx gr.Point
		Sx.ScalarMult(&S, &xs[i])
		k[i] = deriveKey(&Sx, i)
	}

	if err := conn.SendPoints(rPoints); err != nil {
		return nil, err
	}

	c, err := conn.ReceiveBlocks(2 * r.n)
	if err != nil {
		return nil, err
	}

	out := make([]block.Block, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = block.XOR(c[2*i+int(choices[i])], k[i])
	}
	return out, nil
}

// deriveKey hashes a DH point together with its OT index, so the same
// point value recurring at two different indices never collides to the
// same key.
func deriveKey(p *gr.Point, index int) block.Block {
	var enc [netio.PointLen]byte
	p.BytesInto(&enc)
	var lo, hi block.Block
	copy(lo[:], enc[:block.Size])
	copy(hi[:], enc[block.Size:])
	return xhash.XORIndex(xhash.BlocksToBlock([]block.Block{lo, hi}), index)
}
