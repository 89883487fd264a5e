package clsag

import (
	"crypto/rand"
	"testing"

	"github.com/mxhess/salvium-rs-sub002/curve"
)

func buildRing(t *testing.T, n, secretIndex int) (ring, commitments []curve.Point, pseudoOut curve.Point, x, z curve.Scalar) {
	t.Helper()
	ring = make([]curve.Point, n)
	commitments = make([]curve.Point, n)

	for i := 0; i < n; i++ {
		sec := curve.ScalarFromUint64(uint64(1000 + i))
		ring[i] = curve.ScalarMultBase(sec)
		commitments[i] = curve.ScalarMultBase(curve.ScalarFromUint64(uint64(2000 + i)))
	}

	x = curve.ScalarFromUint64(uint64(1000 + secretIndex))
	ring[secretIndex] = curve.ScalarMultBase(x)

	pseudoMask := curve.ScalarFromUint64(555)
	pseudoOut = curve.ScalarMultBase(pseudoMask)

	z = curve.ScalarSub(curve.ScalarFromUint64(2000+uint64(secretIndex)), pseudoMask)
	commitments[secretIndex] = curve.Add(pseudoOut, curve.ScalarMultBase(z))
	return
}

func TestSignVerifyRoundTrip(t *testing.T) {
	const n = 11
	const pi = 3
	ring, commitments, pseudoOut, x, z := buildRing(t, n, pi)

	var message [32]byte
	message[0] = 0xab

	sig, err := Sign(message, ring, commitments, pseudoOut, pi, x, z, rand.Read)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := Verify(message, sig, ring, commitments, pseudoOut); err != nil {
		t.Fatalf("Verify rejected a genuine signature: %v", err)
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	const n = 5
	const pi = 2
	ring, commitments, pseudoOut, x, z := buildRing(t, n, pi)

	var message [32]byte
	sig, err := Sign(message, ring, commitments, pseudoOut, pi, x, z, rand.Read)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	message[0] ^= 0x01
	if err := Verify(message, sig, ring, commitments, pseudoOut); err == nil {
		t.Fatalf("Verify accepted a signature over a tampered message")
	}
}

func TestVerifyRejectsTamperedScalar(t *testing.T) {
	const n = 5
	const pi = 0
	ring, commitments, pseudoOut, x, z := buildRing(t, n, pi)

	var message [32]byte
	sig, err := Sign(message, ring, commitments, pseudoOut, pi, x, z, rand.Read)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig.S[1] = curve.ScalarAdd(sig.S[1], curve.ScalarOne)
	if err := Verify(message, sig, ring, commitments, pseudoOut); err == nil {
		t.Fatalf("Verify accepted a signature with a tampered response scalar")
	}
}

func TestVerifyRejectsTamperedKeyImage(t *testing.T) {
	const n = 6
	const pi = 4
	ring, commitments, pseudoOut, x, z := buildRing(t, n, pi)

	var message [32]byte
	sig, err := Sign(message, ring, commitments, pseudoOut, pi, x, z, rand.Read)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := curve.ScalarMultBase(curve.ScalarFromUint64(999999))
	sig.I = other
	if err := Verify(message, sig, ring, commitments, pseudoOut); err == nil {
		t.Fatalf("Verify accepted a signature with a substituted key image")
	}
}

func TestKeyImageDeterministicAndDistinctAcrossIndices(t *testing.T) {
	p1 := curve.ScalarMultBase(curve.ScalarFromUint64(42))
	p2 := curve.ScalarMultBase(curve.ScalarFromUint64(43))
	x := curve.ScalarFromUint64(7)

	i1a := KeyImage(x, p1)
	i1b := KeyImage(x, p1)
	if !curve.Equal(i1a, i1b) {
		t.Fatalf("KeyImage is not deterministic")
	}

	i2 := KeyImage(x, p2)
	if curve.Equal(i1a, i2) {
		t.Fatalf("KeyImage collided across distinct public keys")
	}
}
