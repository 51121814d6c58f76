package psi_test

import (
	"fmt"
	"io"
	"net"
	"sort"
	"testing"

	"github.com/kunlun-party/match/pkg/group"
	"github.com/kunlun-party/match/pkg/netio"
	"github.com/kunlun-party/match/pkg/psi"
)

func pipe() (io.ReadWriter, io.ReadWriter) {
	a, b := net.Pipe()
	return a, b
}

func runPSI(t *testing.T, x, y [][]byte) [][]byte {
	t.Helper()
	senderConn, receiverConn := pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- psi.NewSender(group.Ristretto255).Send(netio.New(senderConn), y, len(x))
	}()

	out, err := psi.NewReceiver(group.Ristretto255).Intersect(netio.New(receiverConn), x, len(y))
	if err != nil {
		t.Fatalf("intersect: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("send: %v", err)
	}
	return out
}

func sortedStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	sort.Strings(out)
	return out
}

// S4: PSI with |X| = |Y| = 1024, intersection of exactly 7 elements.
func TestPSIScenarioS4(t *testing.T) {
	const n = 1024
	x := make([][]byte, n)
	y := make([][]byte, n)
	for i := 0; i < n; i++ {
		x[i] = []byte(fmt.Sprintf("x-%d", i))
		y[i] = []byte(fmt.Sprintf("y-%d", i))
	}
	want := []string{}
	for i := 0; i < 7; i++ {
		shared := []byte(fmt.Sprintf("shared-%d", i))
		x[i*100] = shared
		y[i*137] = shared
		want = append(want, string(shared))
	}
	sort.Strings(want)

	out := runPSI(t, x, y)
	got := sortedStrings(out)
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %q want %q", i, got[i], want[i])
		}
	}
}

// S5: identical X == Y of size 256: output equals the full set.
func TestPSIScenarioS5(t *testing.T) {
	const n = 256
	x := make([][]byte, n)
	for i := 0; i < n; i++ {
		x[i] = []byte(fmt.Sprintf("elem-%d", i))
	}
	y := make([][]byte, n)
	copy(y, x)

	out := runPSI(t, x, y)
	if len(out) != n {
		t.Fatalf("got %d matches, want %d", len(out), n)
	}
	got := sortedStrings(out)
	want := sortedStrings(x)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %q want %q", i, got[i], want[i])
		}
	}
}

// P6: disjoint sets intersect to nothing.
func TestPSIDisjointSets(t *testing.T) {
	const n = 512
	x := make([][]byte, n)
	y := make([][]byte, n)
	for i := 0; i < n; i++ {
		x[i] = []byte(fmt.Sprintf("x-only-%d", i))
		y[i] = []byte(fmt.Sprintf("y-only-%d", i))
	}
	out := runPSI(t, x, y)
	if len(out) != 0 {
		t.Fatalf("expected empty intersection, got %d elements", len(out))
	}
}

func TestTruncationLengthGrowsWithSetSize(t *testing.T) {
	small := psi.TruncationLength(1<<10, 1<<10)
	large := psi.TruncationLength(1<<16, 1<<16)
	if large <= small {
		t.Fatalf("expected truncation length to grow with set size: small=%d large=%d", small, large)
	}
}
