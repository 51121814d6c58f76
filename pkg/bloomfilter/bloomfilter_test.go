package bloomfilter_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/kunlun-party/match/pkg/bloomfilter"
)

// P8: inserted elements always return Contains = true; false positive rate
// on random non-members stays within 1.5x the theoretical bound.
func TestBloomFilterMembershipAndFalsePositiveRate(t *testing.T) {
	const n = 2000
	const p = 0.01

	f, err := bloomfilter.New(n, p, 0xC0FFEE)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	members := make([][]byte, n)
	for i := 0; i < n; i++ {
		members[i] = []byte(fmt.Sprintf("member-%d", i))
		f.Insert(members[i])
	}
	for i, m := range members {
		if !f.Contains(m) {
			t.Fatalf("inserted element %d (%q) reported absent", i, m)
		}
	}

	const trials = n * 10
	falsePositives := 0
	for i := 0; i < trials; i++ {
		nonMember := []byte(fmt.Sprintf("non-member-%d", i))
		if f.Contains(nonMember) {
			falsePositives++
		}
	}
	observed := float64(falsePositives) / float64(trials)
	if observed > 1.5*p {
		t.Fatalf("observed false positive rate %.4f exceeds 1.5x theoretical %.4f", observed, p)
	}
}

func TestBloomFilterPersistenceRoundTrip(t *testing.T) {
	f, err := bloomfilter.New(500, 0.02, 42)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inserted := [][]byte{[]byte("alice"), []byte("bob"), []byte("carol")}
	for _, m := range inserted {
		f.Insert(m)
	}

	var buf bytes.Buffer
	if err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	reloaded, err := bloomfilter.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	for _, m := range inserted {
		if !reloaded.Contains(m) {
			t.Fatalf("reloaded filter lost membership of %q", m)
		}
	}
}

func TestBloomFilterRejectsInvalidProbability(t *testing.T) {
	if _, err := bloomfilter.New(100, 0, 1); err == nil {
		t.Fatal("expected error for p=0")
	}
	if _, err := bloomfilter.New(100, 1, 1); err == nil {
		t.Fatal("expected error for p=1")
	}
}
