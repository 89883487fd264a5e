package txbuilder

import (
	"math/rand"
	"testing"

	"github.com/mxhess/salvium-rs-sub002/chainsource"
)

func makeDistribution(startHeight uint64, blocks int, perBlock uint64) chainsource.OutputDistribution {
	dist := make([]uint64, blocks)
	var total uint64
	for i := range dist {
		total += perBlock
		dist[i] = total
	}
	return chainsource.OutputDistribution{StartHeight: startHeight, Distribution: dist}
}

func TestSelectRingReturnsDistinctSortedIndicesIncludingReal(t *testing.T) {
	dist := makeDistribution(0, 1000, 5)
	rng := rand.New(rand.NewSource(1))

	const currentHeight = 1000
	const realHeight = 500
	realIndex := outputCountAt(dist, realHeight) - 1

	const ringSize = 11
	indices, pos, err := SelectRing(rng, dist, currentHeight, realHeight, realIndex, ringSize)
	if err != nil {
		t.Fatalf("SelectRing: %v", err)
	}
	if len(indices) != ringSize {
		t.Fatalf("got %d ring members, want %d", len(indices), ringSize)
	}

	seen := make(map[uint64]bool)
	for i, idx := range indices {
		if seen[idx] {
			t.Fatalf("duplicate ring index %d", idx)
		}
		seen[idx] = true
		if i > 0 && indices[i-1] > idx {
			t.Fatalf("ring indices not sorted ascending: %v", indices)
		}
	}

	if pos < 0 || pos >= len(indices) {
		t.Fatalf("real index position %d out of range", pos)
	}
	if indices[pos] != realIndex {
		t.Fatalf("indices[%d] = %d, want real index %d", pos, indices[pos], realIndex)
	}
}

func TestSelectRingRejectsBadInputs(t *testing.T) {
	dist := makeDistribution(0, 1000, 5)
	rng := rand.New(rand.NewSource(1))

	if _, _, err := SelectRing(rng, dist, 1000, 500, 100, 1); err == nil {
		t.Fatalf("expected an error for ring size < 2")
	}
	if _, _, err := SelectRing(rng, dist, 500, 500, 100, 11); err == nil {
		t.Fatalf("expected an error when the real output is not in the past")
	}
}

func TestOutputCountAtClampsOutOfRange(t *testing.T) {
	dist := makeDistribution(100, 10, 3)
	if got := outputCountAt(dist, 50); got != 0 {
		t.Fatalf("outputCountAt before StartHeight = %d, want 0", got)
	}
	last := dist.Distribution[len(dist.Distribution)-1]
	if got := outputCountAt(dist, 100000); got != last {
		t.Fatalf("outputCountAt far beyond window = %d, want clamped %d", got, last)
	}
}

func TestAbsoluteToRelativeOffsets(t *testing.T) {
	got := AbsoluteToRelativeOffsets([]uint64{5, 8, 20})
	want := []uint64{5, 3, 12}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestAbsoluteToRelativeOffsetsSingleton(t *testing.T) {
	got := AbsoluteToRelativeOffsets([]uint64{42})
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("got %v, want [42]", got)
	}
}
