package ote_test

import (
	"io"
	"net"
	"testing"

	"github.com/kunlun-party/match/internal/block"
	"github.com/kunlun-party/match/pkg/netio"
	"github.com/kunlun-party/match/pkg/ote"
)

func pipe() (io.ReadWriter, io.ReadWriter) {
	a, b := net.Pipe()
	return a, b
}

func runExtension(t *testing.T, extendLen int, choices []byte, m0, m1 []block.Block) []block.Block {
	t.Helper()
	receiverConn, senderConn := pipe()

	receiver, err := ote.NewReceiver(extendLen, choices)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	sender, err := ote.NewSender(extendLen)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		if err := sender.Setup(netio.New(senderConn)); err != nil {
			errc <- err
			return
		}
		errc <- sender.Send(netio.New(senderConn), m0, m1)
	}()

	if err := receiver.Setup(netio.New(receiverConn)); err != nil {
		t.Fatalf("receiver setup: %v", err)
	}
	out, err := receiver.Receive(netio.New(receiverConn))
	if err != nil {
		t.Fatalf("receiver receive: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("sender: %v", err)
	}
	return out
}

// S1: EXTEND_LEN = 128, selection bits alternate 0/1, m0[i] = i, m1[i] = ~i.
func TestALSZScenarioS1(t *testing.T) {
	const n = 128
	choices := make([]byte, n)
	m0 := make([]block.Block, n)
	m1 := make([]block.Block, n)
	for i := 0; i < n; i++ {
		choices[i] = byte(i % 2)
		m0[i] = block.FromUint64s(0, uint64(i))
		m1[i] = block.FromUint64s(0, ^uint64(i))
	}

	out := runExtension(t, n, choices, m0, m1)
	for i := 0; i < n; i++ {
		want := m0[i]
		if choices[i] == 1 {
			want = m1[i]
		}
		if out[i] != want {
			t.Fatalf("index %d: got %x want %x", i, out[i], want)
		}
	}
}

// S2: EXTEND_LEN = 1024, all-zero selection bits yield m0; all-one yield m1.
func TestALSZScenarioS2(t *testing.T) {
	const n = 1024
	m0 := make([]block.Block, n)
	m1 := make([]block.Block, n)
	for i := 0; i < n; i++ {
		m0[i] = block.FromUint64s(uint64(i), 1)
		m1[i] = block.FromUint64s(uint64(i), 2)
	}

	allZero := make([]byte, n)
	out := runExtension(t, n, allZero, m0, m1)
	for i := 0; i < n; i++ {
		if out[i] != m0[i] {
			t.Fatalf("all-zero choices, index %d: got %x want m0 %x", i, out[i], m0[i])
		}
	}

	allOne := make([]byte, n)
	for i := range allOne {
		allOne[i] = 1
	}
	out = runExtension(t, n, allOne, m0, m1)
	for i := 0; i < n; i++ {
		if out[i] != m1[i] {
			t.Fatalf("all-one choices, index %d: got %x want m1 %x", i, out[i], m1[i])
		}
	}
}

func TestALSZRejectsBadExtendLen(t *testing.T) {
	if _, err := ote.NewReceiver(100, make([]byte, 100)); err != ote.ErrBadExtendLen {
		t.Fatalf("got %v, want ErrBadExtendLen", err)
	}
	if _, err := ote.NewSender(100); err != ote.ErrBadExtendLen {
		t.Fatalf("got %v, want ErrBadExtendLen", err)
	}
}
