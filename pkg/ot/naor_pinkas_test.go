package ot_test

import (
	"io"
	"net"
	"testing"

	"github.com/kunlun-party/match/internal/block"
	"github.com/kunlun-party/match/pkg/netio"
	"github.com/kunlun-party/match/pkg/ot"
)

func pipe() (io.ReadWriter, io.ReadWriter) {
	a, b := net.Pipe()
	return a, b
}

// P1 (base OT slice): for distinct fixed (m0, m1) and alternating choice
// bits b, the receiver's output equals m_{b[i]} for every i.
func TestNaorPinkasCorrectness(t *testing.T) {
	const n = 64

	messages := make([][2]block.Block, n)
	choices := make([]uint8, n)
	for i := 0; i < n; i++ {
		messages[i][0] = block.FromUint64s(uint64(i), 0)
		messages[i][1] = block.FromUint64s(0, uint64(i)+1)
		choices[i] = uint8(i % 2)
	}

	senderConn, receiverConn := pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- ot.NewSender(n).Send(netio.New(senderConn), messages)
	}()

	out, err := ot.NewReceiver(n).Receive(netio.New(receiverConn), choices)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("send: %v", err)
	}

	for i := 0; i < n; i++ {
		want := messages[i][choices[i]]
		if out[i] != want {
			t.Fatalf("index %d: got %x want %x", i, out[i], want)
		}
	}
}

func TestNaorPinkasCountMismatch(t *testing.T) {
	s := ot.NewSender(4)
	senderConn, _ := pipe()
	if err := s.Send(netio.New(senderConn), make([][2]block.Block, 3)); err != ot.ErrBaseCountMismatch {
		t.Fatalf("got %v, want ErrBaseCountMismatch", err)
	}
}
