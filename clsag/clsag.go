// Package clsag implements CLSAG (Concise Linkable Spontaneous Anonymous
// Group) ring signatures: proving knowledge of the secret key at one
// index of a ring of public keys, and that the corresponding commitment
// offset is a commitment to zero, while publishing a key image that
// links repeated spends of the same key (spec.md §4.3).
package clsag

import (
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/errs"
	"github.com/mxhess/salvium-rs-sub002/hash"
	"github.com/mxhess/salvium-rs-sub002/hash2point"
)

// Signature is a CLSAG proof over a ring of size n: one response scalar
// per ring member, the starting challenge c1, the key image I and the
// auxiliary ("commitment") image D.
type Signature struct {
	S  []curve.Scalar
	C1 curve.Scalar
	I  curve.Point
	D  curve.Point
}

// KeyImage returns x*Hp(P), the deterministic double-spend marker for
// secret key x at public key P.
func KeyImage(x curve.Scalar, p curve.Point) curve.Point {
	enc := p.Compress()
	return curve.ScalarMult(x, hash2point.HashToPoint(enc[:]))
}

func aggregateWeights(ring, commitments []curve.Point, pseudoOut, i, d curve.Point) (muP, muC curve.Scalar) {
	transcript := [][]byte{[]byte("CLSAG_agg_0")}
	for _, p := range ring {
		enc := p.Compress()
		transcript = append(transcript, enc[:])
	}
	for _, c := range commitments {
		enc := c.Compress()
		transcript = append(transcript, enc[:])
	}
	iEnc := i.Compress()
	dEnc := d.Compress()
	poEnc := pseudoOut.Compress()
	transcript = append(transcript, iEnc[:], dEnc[:], poEnc[:])

	digest0 := hash.Keccak256(transcript...)
	muP = curve.ScalarReduce32(digest0)

	transcript[0] = []byte("CLSAG_agg_1")
	digest1 := hash.Keccak256(transcript...)
	muC = curve.ScalarReduce32(digest1)
	return
}

func roundChallenge(ring, commitments []curve.Point, pseudoOut curve.Point, message [32]byte, l, r curve.Point) curve.Scalar {
	transcript := [][]byte{[]byte("CLSAG_round")}
	for _, p := range ring {
		enc := p.Compress()
		transcript = append(transcript, enc[:])
	}
	for _, c := range commitments {
		enc := c.Compress()
		transcript = append(transcript, enc[:])
	}
	poEnc := pseudoOut.Compress()
	lEnc := l.Compress()
	rEnc := r.Compress()
	transcript = append(transcript, poEnc[:], message[:], lEnc[:], rEnc[:])
	digest := hash.Keccak256(transcript...)
	return curve.ScalarReduce32(digest)
}

func ringWeight(ring, commitments []curve.Point, pseudoOut curve.Point, idx int, muP, muC curve.Scalar) curve.Point {
	offset := curve.Sub(commitments[idx], pseudoOut)
	return curve.Add(curve.ScalarMult(muP, ring[idx]), curve.ScalarMult(muC, offset))
}

// Sign produces a CLSAG signature over message for ring index secretIndex,
// where x is the spend secret (ring[secretIndex] = x*G) and z is the
// commitment mask such that commitments[secretIndex] - pseudoOut = z*G.
// randRead supplies randomness (typically crypto/rand.Read) for the
// per-round nonces.
func Sign(
	message [32]byte,
	ring []curve.Point,
	commitments []curve.Point,
	pseudoOut curve.Point,
	secretIndex int,
	x, z curve.Scalar,
	randRead func([]byte) (int, error),
) (*Signature, error) {
	n := len(ring)
	if n == 0 || len(commitments) != n {
		return nil, errs.New(errs.ProtocolViolation, "clsag: ring/commitment length mismatch")
	}
	if secretIndex < 0 || secretIndex >= n {
		return nil, errs.New(errs.ProtocolViolation, "clsag: secret index out of range")
	}

	i := KeyImage(x, ring[secretIndex])
	d := KeyImage(z, ring[secretIndex])
	muP, muC := aggregateWeights(ring, commitments, pseudoOut, i, d)
	agg := curve.Add(curve.ScalarMult(muP, i), curve.ScalarMult(muC, d))

	a, err := curve.ScalarRandom(randRead)
	if err != nil {
		return nil, err
	}

	s := make([]curve.Scalar, n)
	c := make([]curve.Scalar, n)

	l0 := curve.ScalarMultBase(a)
	enc := ring[secretIndex].Compress()
	r0 := curve.ScalarMult(a, hash2point.HashToPoint(enc[:]))

	next := (secretIndex + 1) % n
	c[next] = roundChallenge(ring, commitments, pseudoOut, message, l0, r0)

	idx := next
	for idx != secretIndex {
		si, err := curve.ScalarRandom(randRead)
		if err != nil {
			return nil, err
		}
		s[idx] = si

		w := ringWeight(ring, commitments, pseudoOut, idx, muP, muC)
		li := curve.Add(curve.ScalarMultBase(si), curve.ScalarMult(c[idx], w))
		pEnc := ring[idx].Compress()
		ri := curve.Add(curve.ScalarMult(si, hash2point.HashToPoint(pEnc[:])), curve.ScalarMult(c[idx], agg))

		nxt := (idx + 1) % n
		c[nxt] = roundChallenge(ring, commitments, pseudoOut, message, li, ri)
		idx = nxt
	}

	s[secretIndex] = curve.ScalarSub(a, curve.ScalarMul(c[secretIndex], curve.ScalarMulAdd(muP, x, curve.ScalarMul(muC, z))))

	return &Signature{S: s, C1: c[0], I: i, D: d}, nil
}

// Verify checks sig over message against the given ring/commitments/
// pseudo-output, returning an InvalidProof error on mismatch.
func Verify(message [32]byte, sig *Signature, ring []curve.Point, commitments []curve.Point, pseudoOut curve.Point) error {
	n := len(ring)
	if n == 0 || len(commitments) != n || len(sig.S) != n {
		return errs.New(errs.ProtocolViolation, "clsag: ring/commitment/signature length mismatch")
	}
	if !curve.IsInPrimeOrderSubgroup(sig.I) || curve.IsIdentity(sig.I) {
		return errs.New(errs.InvalidProof, "clsag: key image not in prime-order subgroup")
	}

	muP, muC := aggregateWeights(ring, commitments, pseudoOut, sig.I, sig.D)
	agg := curve.Add(curve.ScalarMult(muP, sig.I), curve.ScalarMult(muC, sig.D))

	c := sig.C1
	for idx := 0; idx < n; idx++ {
		w := ringWeight(ring, commitments, pseudoOut, idx, muP, muC)
		li := curve.Add(curve.ScalarMultBase(sig.S[idx]), curve.ScalarMult(c, w))
		pEnc := ring[idx].Compress()
		ri := curve.Add(curve.ScalarMult(sig.S[idx], hash2point.HashToPoint(pEnc[:])), curve.ScalarMult(c, agg))
		c = roundChallenge(ring, commitments, pseudoOut, message, li, ri)
	}

	if !curve.ScalarEqual(c, sig.C1) {
		return errs.New(errs.InvalidProof, "clsag: challenge mismatch")
	}
	return nil
}
