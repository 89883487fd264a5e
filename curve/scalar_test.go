package curve

import (
	"math/big"
	"testing"
)

func TestScalarCheckBoundary(t *testing.T) {
	lMinus1 := scalarFromBig(new(big.Int).Sub(L, big.NewInt(1)))
	if !ScalarIsCanonical(lMinus1) {
		t.Fatalf("L-1 must be canonical")
	}

	var lBytes [32]byte
	lBig := new(big.Int).Set(L)
	be := lBig.Bytes()
	copy(lBytes[32-len(be):], be)
	reverseInPlace(lBytes[:])
	if ScalarIsCanonical(lBytes) {
		t.Fatalf("L itself must not be canonical (sc_check(L) must be false)")
	}
}

func TestScalarFromCanonicalBytesRejectsOutOfRange(t *testing.T) {
	var allFF [32]byte
	for i := range allFF {
		allFF[i] = 0xff
	}
	if _, ok := ScalarFromCanonicalBytes(allFF); ok {
		t.Fatalf("expected rejection of non-canonical all-0xff scalar")
	}
}

func TestScalarReduce32MatchesBigIntMod(t *testing.T) {
	var allFF [32]byte
	for i := range allFF {
		allFF[i] = 0xff
	}
	got := ScalarReduce32(allFF)
	x := new(big.Int).SetBytes(reverseBytes(allFF[:]))
	want := scalarFromBig(x)
	if got != want {
		t.Fatalf("ScalarReduce32 mismatch")
	}
	// Spot check against the spec's pinned first-byte value.
	if got[0] != 0x1c {
		t.Fatalf("ScalarReduce32(2^256-1)[0] = %#x, want 0x1c", got[0])
	}
}

func TestScalarAddSubRoundTrip(t *testing.T) {
	a := ScalarFromUint64(123456789)
	b := ScalarFromUint64(987654321)
	sum := ScalarAdd(a, b)
	back := ScalarSub(sum, b)
	if !ScalarEqual(back, a) {
		t.Fatalf("ScalarSub(ScalarAdd(a,b),b) != a")
	}
}

func TestScalarMulInvert(t *testing.T) {
	a := ScalarFromUint64(42)
	inv := ScalarInvert(a)
	got := ScalarMul(a, inv)
	if !ScalarEqual(got, ScalarOne) {
		t.Fatalf("a * a^-1 != 1")
	}
}

func TestScalarInvertZero(t *testing.T) {
	if got := ScalarInvert(ScalarZero); got != ScalarZero {
		t.Fatalf("ScalarInvert(0) = %v, want 0 (must not panic)", got)
	}
}

func TestScalarMulAddMulSub(t *testing.T) {
	a := ScalarFromUint64(5)
	b := ScalarFromUint64(7)
	c := ScalarFromUint64(3)
	madd := ScalarMulAdd(a, b, c)
	want := ScalarAdd(ScalarMul(a, b), c)
	if !ScalarEqual(madd, want) {
		t.Fatalf("ScalarMulAdd mismatch")
	}
	msub := ScalarMulSub(a, b, c)
	wantSub := ScalarSub(ScalarMul(a, b), c)
	if !ScalarEqual(msub, wantSub) {
		t.Fatalf("ScalarMulSub mismatch")
	}
}

func TestScalarRandomDistinct(t *testing.T) {
	r1, err := ScalarRandom(fakeRandSeq(1))
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	r2, err := ScalarRandom(fakeRandSeq(2))
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	if ScalarEqual(r1, r2) {
		t.Fatalf("two different seeds produced the same scalar")
	}
}

func fakeRandSeq(seed byte) func([]byte) (int, error) {
	return func(b []byte) (int, error) {
		for i := range b {
			b[i] = seed + byte(i)
		}
		return len(b), nil
	}
}
