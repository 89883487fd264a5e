package field

import (
	"math/big"
	"testing"
)

func TestAddSubRoundTrip(t *testing.T) {
	a := FromUint64(123456789)
	b := FromUint64(987654321)
	sum := Add(a, b)
	back := Sub(sum, b)
	if !Equal(back, a) {
		t.Fatalf("Sub(Add(a,b),b) != a")
	}
}

func TestMulInvert(t *testing.T) {
	a := FromUint64(42)
	inv := Invert(a)
	got := Mul(a, inv)
	if !Equal(got, One) {
		t.Fatalf("a * a^-1 != 1")
	}
}

func TestInvertZero(t *testing.T) {
	if got := Invert(Zero); got != Zero {
		t.Fatalf("Invert(0) = %v, want 0 (must not panic)", got)
	}
}

func TestNegInvolution(t *testing.T) {
	a := FromUint64(7)
	if !Equal(Neg(Neg(a)), a) {
		t.Fatalf("-(-a) != a")
	}
}

func TestSquareSqrtRoundTrip(t *testing.T) {
	a := FromUint64(4)
	sq := Square(a)
	root, ok := Sqrt(sq)
	if !ok {
		t.Fatalf("Sqrt reported no root for a perfect square")
	}
	if !Equal(Square(root), sq) {
		t.Fatalf("Sqrt(Square(a))^2 != Square(a)")
	}
}

func TestSqrtNonResidue(t *testing.T) {
	// 2 is a quadratic non-residue mod p = 2^255-19: p ≡ 5 mod 8, so the
	// Legendre symbol (2/p) is -1. Sqrt must report ok=false for it rather
	// than fabricate a root.
	notAResidue := FromBytes([]byte{2})
	if _, ok := Sqrt(notAResidue); ok {
		t.Fatalf("Sqrt(2) returned ok=true, but 2 is not a square mod p")
	}
}

func TestFromBytesReducesLargeInput(t *testing.T) {
	big64 := make([]byte, 64)
	for i := range big64 {
		big64[i] = 0xff
	}
	e := FromBytes(big64)
	if !IsCanonical(e.Bytes()) {
		t.Fatalf("FromBytes result not canonical")
	}
}

func TestIsCanonicalRejectsPPlusSomething(t *testing.T) {
	// p itself, encoded as bytes, must not be "canonical" (must reduce to 0).
	var raw [32]byte
	pBytes := P.Bytes()
	for i, b := range pBytes {
		raw[len(pBytes)-1-i] = b
	}
	if IsCanonical(raw) {
		t.Fatalf("p itself must not be a canonical representative (>= p)")
	}
}

func TestPowMatchesRepeatedMul(t *testing.T) {
	a := FromUint64(5)
	got := Pow(a, big.NewInt(4))
	want := Mul(Mul(a, a), Mul(a, a))
	if !Equal(got, want) {
		t.Fatalf("Pow(a,4) != a*a*a*a")
	}
}

func TestCondNegate(t *testing.T) {
	a := FromUint64(9)
	if !Equal(CondNegate(a, false), a) {
		t.Fatalf("CondNegate(a,false) != a")
	}
	if !Equal(CondNegate(a, true), Neg(a)) {
		t.Fatalf("CondNegate(a,true) != -a")
	}
}
