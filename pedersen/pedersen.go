// Package pedersen implements Pedersen commitments over Ed25519:
// Commit(a, mask) = mask*G + a*H, using the second generator H derived
// by Elligator2-hashing the base point's encoding (spec.md §3, §4.2).
package pedersen

import (
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/hash"
	"github.com/mxhess/salvium-rs-sub002/hash2point"
)

// H is the second, independent Pedersen generator: the Ed25519 point
// whose encoding matches Monero's H = point(Keccak(G)) after
// Elligator2+cofactor-clearing. CARROT's spend-key generator T is the
// same fixed constant (spec.md §3) -- callers needing T should import
// this value rather than re-deriving it.
var H = mustH()

func mustH() curve.Point {
	g := curve.BasePoint.Compress()
	return hash2point.HashToPoint(g[:])
}

// Commit returns mask*G + amount*H.
func Commit(amount uint64, mask curve.Scalar) curve.Point {
	amountScalar := curve.ScalarFromUint64(amount)
	return curve.Add(curve.ScalarMultBase(mask), curve.ScalarMult(amountScalar, H))
}

// ZeroCommit returns Commit(amount, 1) -- a commitment with mask fixed
// to 1, used where the mask is implicit (e.g. miner-tx outputs).
func ZeroCommit(amount uint64) curve.Point {
	return Commit(amount, curve.ScalarOne)
}

// GenCommitmentMask derives the commitment mask bound to a sender-
// receiver shared secret: reduce_32(Keccak("commitment_mask" || shared_secret))
// (spec.md §4.2).
func GenCommitmentMask(sharedSecret []byte) curve.Scalar {
	digest := hash.Keccak256([]byte("commitment_mask"), sharedSecret)
	return curve.ScalarReduce32(digest)
}
