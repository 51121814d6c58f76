package group_test

import (
	"testing"

	"github.com/kunlun-party/match/pkg/group"
)

func TestCommutativeMultiplication(t *testing.T) {
	for _, backend := range []group.Backend{group.GoRistretto, group.Ristretto255} {
		g1, err := group.NewRistretto(backend)
		if err != nil {
			t.Fatalf("backend %v: %v", backend, err)
		}
		g2, err := group.NewRistretto(backend)
		if err != nil {
			t.Fatalf("backend %v: %v", backend, err)
		}

		h := g1.HashToElement([]byte("cwprf-input"))
		left := g2.ScalarMult(g1.ScalarMult(h))
		right := g1.ScalarMult(g2.ScalarMult(h))
		if left != right {
			t.Fatalf("backend %v: F_k1(F_k2(x)) != F_k2(F_k1(x))", backend)
		}
	}
}

func TestHashAndMultMatchesTwoStep(t *testing.T) {
	g, err := group.NewRistretto(group.Ristretto255)
	if err != nil {
		t.Fatalf("NewRistretto: %v", err)
	}
	data := []byte("record")
	combined := g.HashAndMult(data)
	stepwise := g.ScalarMult(g.HashToElement(data))
	if combined != stepwise {
		t.Fatal("HashAndMult diverged from HashToElement + ScalarMult")
	}
}

func TestP256ScalarMultMarshalRoundTrip(t *testing.T) {
	g := group.P256Generator()
	w, err := group.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	h := g.ScalarMult(w)

	encoded := h.Marshal()
	decoded, err := group.UnmarshalP256Point(encoded)
	if err != nil {
		t.Fatalf("UnmarshalP256Point: %v", err)
	}
	if !h.Equal(decoded) {
		t.Fatal("marshal/unmarshal round trip changed the point")
	}
}
