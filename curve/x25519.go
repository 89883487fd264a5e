package curve

import "github.com/mxhess/salvium-rs-sub002/field"

// a24 = (A-2)/4 = 486660/4 = 121665, the Montgomery ladder constant for
// A = 486662 (spec.md §4.1).
var a24 = field.FromUint64(121665)

// ClampCarrot applies CARROT's non-standard X25519 clamping: only bit 255
// is cleared. Bits 0-2 are left untouched and bit 254 is not set,
// deviating deliberately from RFC 7748 (spec.md §4.1).
func ClampCarrot(scalar [32]byte) [32]byte {
	out := scalar
	out[31] &= 0x7f
	return out
}

// X25519 performs the Montgomery ladder scalar multiplication used by
// CARROT's sender-receiver ECDH: computes scalar*u over the Montgomery
// form of Curve25519, given the clamped scalar (see ClampCarrot) and a
// u-coordinate. The ladder itself processes every bit regardless of
// value, and every iteration performs the identical sequence of field
// operations with a data-independent conditional swap, keeping it
// constant-time with respect to the scalar (spec.md §4.1, §5).
func X25519(clampedScalar [32]byte, u [32]byte) [32]byte {
	x1 := field.FromBytes(u[:])
	x2, z2 := field.One, field.Zero
	x3, z3 := x1, field.One

	swap := 0
	for t := 254; t >= 0; t-- {
		byteIdx := t / 8
		bitIdx := uint(t % 8)
		kt := int((clampedScalar[byteIdx] >> bitIdx) & 1)
		swap ^= kt
		x2, x3 = condSwap(x2, x3, swap == 1)
		z2, z3 = condSwap(z2, z3, swap == 1)
		swap = kt

		A := field.Add(x2, z2)
		AA := field.Square(A)
		B := field.Sub(x2, z2)
		BB := field.Square(B)
		E := field.Sub(AA, BB)
		C := field.Add(x3, z3)
		D := field.Sub(x3, z3)
		DA := field.Mul(D, A)
		CB := field.Mul(C, B)
		x3 = field.Square(field.Add(DA, CB))
		z3 = field.Mul(x1, field.Square(field.Sub(DA, CB)))
		x2 = field.Mul(AA, BB)
		z2 = field.Mul(E, field.Add(AA, field.Mul(a24, E)))
	}
	x2, x3 = condSwap(x2, x3, swap == 1)
	z2, z3 = condSwap(z2, z3, swap == 1)

	result := field.Mul(x2, field.Invert(z2))
	return result.Bytes()
}

// ToMontgomeryU converts an Ed25519 point's affine y-coordinate to the
// birationally equivalent Curve25519 u-coordinate, u = (1+y)/(1-y) --
// the same map hash2point.FromFieldElement uses in reverse. CARROT's
// sender-receiver ECDH runs X25519 against the recipient's incoming
// view pubkey or the ephemeral pubkey via this conversion (spec.md
// §4.5).
func ToMontgomeryU(p Point) [32]byte {
	_, y := p.affine()
	num := field.Add(field.One, y)
	den := field.Invert(field.Sub(field.One, y))
	return field.Mul(num, den).Bytes()
}

func condSwap(a, b field.Element, cond bool) (field.Element, field.Element) {
	if cond {
		return b, a
	}
	return a, b
}
