// Package nizk implements a non-interactive Sigma protocol proving
// discrete-log equality: h1 = g1^w and h2 = g2^w for a shared witness w,
// over the P256 group (pkg/group), with a Fiat-Shamir challenge derived
// from a blake3 transcript hash (internal/xhash). Grounded on the
// teacher's internal/crypto/point.go P256 Point type, generalized from a
// single-group primitive into the two-group Sigma protocol the spec
// describes.
package nizk

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/kunlun-party/match/internal/xhash"
	"github.com/kunlun-party/match/pkg/group"
)

// Instance is the public statement (g1, h1, g2, h2) being proven: h1 =
// g1^w and h2 = g2^w for the same w.
type Instance struct {
	G1, H1, G2, H2 *group.P256Point
}

// Proof is a non-interactive Sigma proof (A1, A2, z) for an Instance.
type Proof struct {
	A1, A2 *group.P256Point
	Z      *big.Int
}

// Prove constructs a proof that w is the shared discrete log of h1 base g1
// and h2 base g2. prefix binds the proof to an external transcript (e.g. a
// session identifier) and must match between Prove and Verify.
func Prove(inst Instance, w *big.Int, prefix string) (*Proof, error) {
	a, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("nizk: sampling randomness: %w", err)
	}

	A1 := inst.G1.ScalarMult(a)
	A2 := inst.G2.ScalarMult(a)

	e := challenge(inst, A1, A2, prefix)

	z := new(big.Int).Mul(e, w)
	z.Add(z, a)
	z.Mod(z, group.P256Order())

	return &Proof{A1: A1, A2: A2, Z: z}, nil
}

// Verify checks a Proof against Instance, with the same prefix used to
// produce it. A false return is not a fatal error: it means the proof
// simply does not verify.
func Verify(inst Instance, proof *Proof, prefix string) bool {
	e := challenge(inst, proof.A1, proof.A2, prefix)

	// g1^z =? A1 . h1^e
	lhs1 := inst.G1.ScalarMult(proof.Z)
	rhs1 := proof.A1.Add(inst.H1.ScalarMult(e))
	if !lhs1.Equal(rhs1) {
		return false
	}

	// g2^z =? A2 . h2^e
	lhs2 := inst.G2.ScalarMult(proof.Z)
	rhs2 := proof.A2.Add(inst.H2.ScalarMult(e))
	return lhs2.Equal(rhs2)
}

func challenge(inst Instance, A1, A2 *group.P256Point, prefix string) *big.Int {
	var sb strings.Builder
	sb.Write(inst.G1.Marshal())
	sb.Write(inst.G2.Marshal())
	sb.Write(inst.H1.Marshal())
	sb.Write(inst.H2.Marshal())
	sb.Write(A1.Marshal())
	sb.Write(A2.Marshal())
	sb.WriteString(prefix)

	e := xhash.StringToBigInt(sb.String())
	return e.Mod(e, group.P256Order())
}
