// Package psi implements a commutative-weak-PRF private set intersection:
// F_k(x) = H(x)^k over ristretto255, whose commutativity
// (F_k1(F_k2(x)) = F_k2(F_k1(x))) lets sender and receiver each blind the
// other's set without either learning the other's raw elements.
//
// Grounded on the teacher's pkg/dhpsi (same Diffie-Hellman-blinding shape,
// same DeriveMultiply/Multiply split across two message stages) but
// deliberately order-preserving: the spec's cwPRF PSI never shuffles, so
// the permutation-table machinery in dhpsi.go/select.go (initP,
// InvertedPermutations, the DeriveMultiplyEncoder buffering) is dropped
// rather than ported — see DESIGN.md.
package psi

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/kunlun-party/match/pkg/group"
	"github.com/kunlun-party/match/pkg/netio"
)

// SecurityParameterBits is lambda_s, the statistical security parameter
// the truncation length is derived from.
const SecurityParameterBits = 40

// TruncationLength returns tau, the number of bytes cwPRF PSI truncates
// its blinded points to, given the sizes of the sender's set (nY) and the
// receiver's set (nX).
func TruncationLength(nX, nY int) int {
	logX := log2Ceil(nX)
	logY := log2Ceil(nY)
	bitsNeeded := SecurityParameterBits + logX + logY
	return (bitsNeeded + 7) / 8
}

func log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Sender runs the cwPRF PSI sender side, holding set Y. It never learns X
// or the intersection.
type Sender struct {
	backend group.Backend
}

// NewSender returns a Sender using the given ristretto backend.
func NewSender(backend group.Backend) *Sender {
	return &Sender{backend: backend}
}

// Send runs the protocol over conn: y holds this party's set, nX is the
// receiver's declared set size (needed to derive the shared truncation
// length).
func (s *Sender) Send(conn *netio.Conn, y [][]byte, nX int) error {
	g, err := group.NewRistretto(s.backend)
	if err != nil {
		return err
	}

	tau := TruncationLength(nX, len(y))

	a := make([][group.EncodedLen]byte, len(y))
	for i, yi := range y {
		a[i] = g.HashAndMult(yi)
	}
	if err := conn.SendPoints(a); err != nil {
		return fmt.Errorf("psi: sending A: %w", err)
	}

	b, err := conn.ReceivePoints(nX)
	if err != nil {
		return fmt.Errorf("psi: receiving B: %w", err)
	}

	truncated := make([][]byte, nX)
	for j, bj := range b {
		c := g.ScalarMult(bj)
		truncated[j] = append([]byte(nil), c[:tau]...)
	}
	if err := conn.SendByteVector(truncated); err != nil {
		return fmt.Errorf("psi: sending C: %w", err)
	}
	return nil
}

// Receiver runs the cwPRF PSI receiver side, holding set X, and learns the
// intersection of X with the sender's set, in X's original order.
type Receiver struct {
	backend group.Backend
}

// NewReceiver returns a Receiver using the given ristretto backend.
func NewReceiver(backend group.Backend) *Receiver {
	return &Receiver{backend: backend}
}

// Intersect runs the protocol over conn: x holds this party's set, nY is
// the sender's declared set size. Returns the subset of x present in the
// sender's set, preserving x's order.
func (r *Receiver) Intersect(conn *netio.Conn, x [][]byte, nY int) ([][]byte, error) {
	g, err := group.NewRistretto(r.backend)
	if err != nil {
		return nil, err
	}

	tau := TruncationLength(len(x), nY)

	a, err := conn.ReceivePoints(nY)
	if err != nil {
		return nil, fmt.Errorf("psi: receiving A: %w", err)
	}

	b := make([][group.EncodedLen]byte, len(x))
	for j, xj := range x {
		b[j] = g.HashAndMult(xj)
	}
	if err := conn.SendPoints(b); err != nil {
		return nil, fmt.Errorf("psi: sending B: %w", err)
	}

	set := make(map[string]struct{}, nY)
	for _, ai := range a {
		blinded := g.ScalarMult(ai)
		set[string(blinded[:tau])] = struct{}{}
	}

	truncated, err := conn.ReceiveByteVector()
	if err != nil {
		return nil, fmt.Errorf("psi: receiving C: %w", err)
	}
	if len(truncated) != len(x) {
		return nil, fmt.Errorf("psi: expected %d truncated points, got %d", len(x), len(truncated))
	}

	var out [][]byte
	for j, c := range truncated {
		if len(c) != tau {
			return nil, fmt.Errorf("psi: truncated point %d has length %d, want %d", j, len(c), tau)
		}
		if _, ok := set[string(c)]; ok {
			out = append(out, x[j])
		}
	}
	return out, nil
}

// falsePositiveBound is the theoretical maximum probability the truncation
// scheme collides two unrelated cross-pairs, for the tau TruncationLength
// returns. Nothing in this module calls it.
func falsePositiveBound(nX, nY int) float64 {
	tau := TruncationLength(nX, nY)
	return float64(nX) * float64(nY) * math.Pow(2, -8*float64(tau))
}
