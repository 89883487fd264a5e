package hash2point

import (
	"testing"

	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/field"
)

func TestHashToPointInPrimeOrderSubgroup(t *testing.T) {
	inputs := [][]byte{
		[]byte(""),
		[]byte("Salvium"),
		[]byte{0x00, 0x01, 0x02, 0x03},
		[]byte("the quick brown fox"),
	}
	for _, in := range inputs {
		p := HashToPoint(in)
		if !curve.IsInPrimeOrderSubgroup(p) {
			t.Fatalf("HashToPoint(%q) not in prime-order subgroup", in)
		}
		if curve.IsIdentity(p) {
			t.Fatalf("HashToPoint(%q) produced identity, vanishingly unlikely and suspicious", in)
		}
	}
}

func TestHashToPointDeterministic(t *testing.T) {
	a := HashToPoint([]byte("deterministic"))
	b := HashToPoint([]byte("deterministic"))
	if !curve.Equal(a, b) {
		t.Fatalf("HashToPoint is not deterministic")
	}
}

func TestHashToPointDoubleKeccakDiffersFromSingle(t *testing.T) {
	single := HashToPoint([]byte("generator seed"))
	double := HashToPointDoubleKeccak([]byte("generator seed"))
	if curve.Equal(single, double) {
		t.Fatalf("single-keccak and double-keccak hash-to-point collided, extremely unlikely")
	}
	if !curve.IsInPrimeOrderSubgroup(double) {
		t.Fatalf("HashToPointDoubleKeccak not in prime-order subgroup")
	}
}

func TestFromFieldElementVariesWithInput(t *testing.T) {
	p1 := FromFieldElement(field.FromUint64(1))
	p2 := FromFieldElement(field.FromUint64(2))
	if curve.Equal(p1, p2) {
		t.Fatalf("distinct field elements mapped to the same point")
	}
	if !curve.IsInPrimeOrderSubgroup(p1) || !curve.IsInPrimeOrderSubgroup(p2) {
		t.Fatalf("FromFieldElement result not in prime-order subgroup")
	}
}

func TestFromFieldElementZero(t *testing.T) {
	// r=0 is a legal (if unlikely) Elligator2 input and must not panic.
	p := FromFieldElement(field.Zero)
	if !curve.IsInPrimeOrderSubgroup(p) {
		t.Fatalf("FromFieldElement(0) not in prime-order subgroup")
	}
}
