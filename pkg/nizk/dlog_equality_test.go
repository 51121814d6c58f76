package nizk_test

import (
	"math/big"
	"testing"

	"github.com/kunlun-party/match/pkg/group"
	"github.com/kunlun-party/match/pkg/nizk"
)

func randomInstance(t *testing.T) (nizk.Instance, *big.Int) {
	t.Helper()
	g1 := group.P256Generator()
	a1, err := group.RandomScalar()
	if err != nil {
		t.Fatalf("random scalar: %v", err)
	}
	g2 := g1.ScalarMult(a1)

	w, err := group.RandomScalar()
	if err != nil {
		t.Fatalf("random scalar: %v", err)
	}
	h1 := g1.ScalarMult(w)
	h2 := g2.ScalarMult(w)

	return nizk.Instance{G1: g1, H1: h1, G2: g2, H2: h2}, w
}

// S6 / P7: a well-formed witness verifies; tampering with h2 rejects.
func TestDlogEqualityCompletenessAndSoundness(t *testing.T) {
	inst, w := randomInstance(t)

	proof, err := nizk.Prove(inst, w, "test-session")
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if !nizk.Verify(inst, proof, "test-session") {
		t.Fatal("expected verification to succeed for a well-formed proof")
	}

	tampered := inst
	tampered.H2 = inst.H2.Add(inst.G2)
	if nizk.Verify(tampered, proof, "test-session") {
		t.Fatal("expected verification to fail after tampering with h2")
	}
}

func TestDlogEqualityRejectsWrongPrefix(t *testing.T) {
	inst, w := randomInstance(t)
	proof, err := nizk.Prove(inst, w, "session-a")
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if nizk.Verify(inst, proof, "session-b") {
		t.Fatal("expected verification to fail for a mismatched transcript prefix")
	}
}
