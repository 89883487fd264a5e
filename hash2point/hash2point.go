// Package hash2point implements Elligator2 hash-to-point: mapping an
// arbitrary 32-byte string onto a point in the Ed25519 prime-order
// subgroup, via the Montgomery-curve Elligator2 map followed by a
// birational conversion to twisted Edwards coordinates and ×8 cofactor
// clearing (spec.md §4.1).
//
// Two entry points are exposed because the protocol uses both: the
// generator derivations (H, T) and key-image hashing apply Elligator2 to
// a single Keccak-256, while Bulletproofs+ generator derivation applies
// it to Keccak(Keccak(data)) -- callers must pick the one matching their
// protocol context (spec.md §4.1, §4.4).
package hash2point

import (
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/field"
	"github.com/mxhess/salvium-rs-sub002/hash"
)

// montgomeryA is the Curve25519 Montgomery coefficient A = 486662.
var montgomeryA = field.FromUint64(486662)

// nonSquare is the fixed non-square constant (2) Elligator2 uses to form
// the denominator 1+2r^2 (spec.md §4.1's "x = -A*(1+2u^2)^-1").
var nonSquare = field.FromUint64(2)

// sqrtNegAPlus2 is sqrt(-(A+2)) mod p, the fixed constant the Montgomery
// -> Edwards birational map multiplies by. It is a curve design fact
// that -(A+2) is a quadratic residue mod p=2^255-19; this is computed
// once at package init and the package panics if that invariant somehow
// failed to hold, since that would mean the field/curve constants
// themselves are wrong.
var sqrtNegAPlus2 = mustSqrtNegAPlus2()

func mustSqrtNegAPlus2() field.Element {
	aPlus2 := field.FromUint64(486664)
	root, ok := field.Sqrt(field.Neg(aPlus2))
	if !ok {
		panic("hash2point: -(A+2) is not a quadratic residue; field/curve constants are inconsistent")
	}
	return root
}

// montgomeryRHS returns g(x) = x^3 + A*x^2 + x, the right-hand side of
// the Montgomery curve equation y^2 = g(x).
func montgomeryRHS(x field.Element) field.Element {
	x2 := field.Square(x)
	x3 := field.Mul(x2, x)
	return field.Add(field.Add(x3, field.Mul(montgomeryA, x2)), x)
}

// FromFieldElement applies the Elligator2 map to a field element r
// (already reduced into [0, p)), producing an Ed25519 point in the
// prime-order subgroup after cofactor clearing. This is the core
// primitive both HashToPoint variants reduce their hash digest into.
func FromFieldElement(r field.Element) curve.Point {
	// v = -A / (1 + 2r^2)
	rSq := field.Square(r)
	denom := field.Add(field.One, field.Mul(nonSquare, rSq))
	v := field.Neg(field.Mul(montgomeryA, field.Invert(denom)))

	gv := montgomeryRHS(v)
	sqrtGv, isSquare := field.Sqrt(gv)

	var mu, mv field.Element
	if isSquare {
		mu = v
		mv = sqrtGv
	} else {
		// The alternate branch x = -v - A always yields a point on the
		// curve when g(v) is a non-residue (the Elligator2 completeness
		// identity g(-v-A) = 2r^2 * g(v), a product of two non-residues).
		mu = field.Sub(field.Neg(v), montgomeryA)
		gx := montgomeryRHS(mu)
		root, ok := field.Sqrt(gx)
		if !ok {
			// Cannot happen for a correctly reduced field element; treat
			// as an internal consistency failure rather than silently
			// returning a bogus point.
			panic("hash2point: Elligator2 completeness identity violated")
		}
		mv = root
	}

	// Birational Montgomery -> twisted-Edwards map:
	//   ed_y = (mu-1) / (mu+1)
	//   ed_x = sqrt(-(A+2)) * mu / mv
	edY := field.Mul(field.Sub(mu, field.One), field.Invert(field.Add(mu, field.One)))
	edX := field.Mul(field.Mul(sqrtNegAPlus2, mu), field.Invert(mv))

	p := curve.FromAffineUnchecked(edX, edY)
	return curve.ClearCofactor(p)
}

// HashToPoint applies Elligator2 to Keccak-256(parts...), the protocol's
// default "hash to point" (spec.md §4.1). Used for key-image hashing
// (H_p), the Pedersen H generator, and CARROT's T generator.
func HashToPoint(parts ...[]byte) curve.Point {
	digest := hash.Keccak256(parts...)
	r := field.FromBytes(digest[:])
	return FromFieldElement(r)
}

// HashToPointDoubleKeccak applies Elligator2 to Keccak(Keccak(data)),
// the variant Bulletproofs+ generator derivation uses (spec.md §4.1,
// §4.4). Callers MUST use this instead of HashToPoint wherever the
// protocol specifically calls for the doubled hash.
func HashToPointDoubleKeccak(data []byte) curve.Point {
	digest := hash.DoubleKeccak256(data)
	r := field.FromBytes(digest[:])
	return FromFieldElement(r)
}
