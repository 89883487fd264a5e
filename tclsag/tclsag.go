// Package tclsag implements TCLSAG, the "twin" CLSAG variant: a ring
// signature proving knowledge of two parallel secrets (x, y) at the
// same secret index across two independently-keyed ring columns,
// producing separate response-scalar vectors sx[]/sy[] but a single
// shared starting challenge c1, key image I and auxiliary image D
// (spec.md §4.3).
package tclsag

import (
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/errs"
	"github.com/mxhess/salvium-rs-sub002/hash"
	"github.com/mxhess/salvium-rs-sub002/hash2point"
)

// Signature is a TCLSAG proof over a ring of size n.
type Signature struct {
	Sx []curve.Scalar
	Sy []curve.Scalar
	C1 curve.Scalar
	I  curve.Point
	D  curve.Point
}

// KeyImage returns x*Hp(P).
func KeyImage(x curve.Scalar, p curve.Point) curve.Point {
	enc := p.Compress()
	return curve.ScalarMult(x, hash2point.HashToPoint(enc[:]))
}

func roundChallenge(ringP, ringQ []curve.Point, message [32]byte, lx, rx, ly, ry curve.Point) curve.Scalar {
	transcript := [][]byte{[]byte("TCLSAG_round")}
	for _, p := range ringP {
		enc := p.Compress()
		transcript = append(transcript, enc[:])
	}
	for _, q := range ringQ {
		enc := q.Compress()
		transcript = append(transcript, enc[:])
	}
	lxEnc, rxEnc, lyEnc, ryEnc := lx.Compress(), rx.Compress(), ly.Compress(), ry.Compress()
	transcript = append(transcript, message[:], lxEnc[:], rxEnc[:], lyEnc[:], ryEnc[:])
	digest := hash.Keccak256(transcript...)
	return curve.ScalarReduce32(digest)
}

// Sign produces a TCLSAG signature binding two parallel ring columns
// ringP and ringQ (ringP[secretIndex] = x*G, ringQ[secretIndex] = y*G).
func Sign(
	message [32]byte,
	ringP, ringQ []curve.Point,
	secretIndex int,
	x, y curve.Scalar,
	randRead func([]byte) (int, error),
) (*Signature, error) {
	n := len(ringP)
	if n == 0 || len(ringQ) != n {
		return nil, errs.New(errs.ProtocolViolation, "tclsag: ring column length mismatch")
	}
	if secretIndex < 0 || secretIndex >= n {
		return nil, errs.New(errs.ProtocolViolation, "tclsag: secret index out of range")
	}

	i := KeyImage(x, ringP[secretIndex])
	d := KeyImage(y, ringQ[secretIndex])

	ax, err := curve.ScalarRandom(randRead)
	if err != nil {
		return nil, err
	}
	ay, err := curve.ScalarRandom(randRead)
	if err != nil {
		return nil, err
	}

	sx := make([]curve.Scalar, n)
	sy := make([]curve.Scalar, n)
	c := make([]curve.Scalar, n)

	lx0 := curve.ScalarMultBase(ax)
	pEnc := ringP[secretIndex].Compress()
	rx0 := curve.ScalarMult(ax, hash2point.HashToPoint(pEnc[:]))
	ly0 := curve.ScalarMultBase(ay)
	qEnc := ringQ[secretIndex].Compress()
	ry0 := curve.ScalarMult(ay, hash2point.HashToPoint(qEnc[:]))

	next := (secretIndex + 1) % n
	c[next] = roundChallenge(ringP, ringQ, message, lx0, rx0, ly0, ry0)

	idx := next
	for idx != secretIndex {
		sxi, err := curve.ScalarRandom(randRead)
		if err != nil {
			return nil, err
		}
		syi, err := curve.ScalarRandom(randRead)
		if err != nil {
			return nil, err
		}
		sx[idx] = sxi
		sy[idx] = syi

		lxi := curve.Add(curve.ScalarMultBase(sxi), curve.ScalarMult(c[idx], ringP[idx]))
		pe := ringP[idx].Compress()
		rxi := curve.Add(curve.ScalarMult(sxi, hash2point.HashToPoint(pe[:])), curve.ScalarMult(c[idx], i))

		lyi := curve.Add(curve.ScalarMultBase(syi), curve.ScalarMult(c[idx], ringQ[idx]))
		qe := ringQ[idx].Compress()
		ryi := curve.Add(curve.ScalarMult(syi, hash2point.HashToPoint(qe[:])), curve.ScalarMult(c[idx], d))

		nxt := (idx + 1) % n
		c[nxt] = roundChallenge(ringP, ringQ, message, lxi, rxi, lyi, ryi)
		idx = nxt
	}

	sx[secretIndex] = curve.ScalarSub(ax, curve.ScalarMul(c[secretIndex], x))
	sy[secretIndex] = curve.ScalarSub(ay, curve.ScalarMul(c[secretIndex], y))

	return &Signature{Sx: sx, Sy: sy, C1: c[0], I: i, D: d}, nil
}

// Verify checks sig over message against the two ring columns.
func Verify(message [32]byte, sig *Signature, ringP, ringQ []curve.Point) error {
	n := len(ringP)
	if n == 0 || len(ringQ) != n || len(sig.Sx) != n || len(sig.Sy) != n {
		return errs.New(errs.ProtocolViolation, "tclsag: ring/signature length mismatch")
	}
	if !curve.IsInPrimeOrderSubgroup(sig.I) || curve.IsIdentity(sig.I) {
		return errs.New(errs.InvalidProof, "tclsag: key image not in prime-order subgroup")
	}
	if !curve.IsInPrimeOrderSubgroup(sig.D) || curve.IsIdentity(sig.D) {
		return errs.New(errs.InvalidProof, "tclsag: auxiliary image not in prime-order subgroup")
	}

	c := sig.C1
	for idx := 0; idx < n; idx++ {
		lxi := curve.Add(curve.ScalarMultBase(sig.Sx[idx]), curve.ScalarMult(c, ringP[idx]))
		pe := ringP[idx].Compress()
		rxi := curve.Add(curve.ScalarMult(sig.Sx[idx], hash2point.HashToPoint(pe[:])), curve.ScalarMult(c, sig.I))

		lyi := curve.Add(curve.ScalarMultBase(sig.Sy[idx]), curve.ScalarMult(c, ringQ[idx]))
		qe := ringQ[idx].Compress()
		ryi := curve.Add(curve.ScalarMult(sig.Sy[idx], hash2point.HashToPoint(qe[:])), curve.ScalarMult(c, sig.D))

		c = roundChallenge(ringP, ringQ, message, lxi, rxi, lyi, ryi)
	}

	if !curve.ScalarEqual(c, sig.C1) {
		return errs.New(errs.InvalidProof, "tclsag: challenge mismatch")
	}
	return nil
}
