package curve

import (
	"math/big"

	"github.com/mxhess/salvium-rs-sub002/errs"
	"github.com/mxhess/salvium-rs-sub002/field"
)

// Point is an element of the Ed25519 curve, stored in extended projective
// coordinates (X, Y, Z, T) with x=X/Z, y=Y/Z, x*y=T/Z (spec.md §3).
type Point struct {
	X, Y, Z, T field.Element
}

// d is the twisted-Edwards curve coefficient, -121665/121666 mod p.
var d = mustD()

// d2 = 2*d, used by the unified addition/doubling formulas.
var d2 = field.Add(d, d)

func mustD() field.Element {
	num := field.Neg(field.FromUint64(121665))
	den := field.Invert(field.FromUint64(121666))
	return field.Mul(num, den)
}

// Identity is the neutral element (0, 1).
var Identity = Point{
	X: field.Zero,
	Y: field.One,
	Z: field.One,
	T: field.Zero,
}

// affine returns the (x, y) affine coordinates of p.
func (p Point) affine() (x, y field.Element) {
	zInv := field.Invert(p.Z)
	return field.Mul(p.X, zInv), field.Mul(p.Y, zInv)
}

// fromAffine builds an extended-coordinate point from affine (x, y), which
// must already satisfy the curve equation.
func fromAffine(x, y field.Element) Point {
	return Point{X: x, Y: y, Z: field.One, T: field.Mul(x, y)}
}

// FromAffineUnchecked builds a point directly from affine coordinates
// without running them through Decompress. Callers (hash2point's
// Montgomery-to-Edwards conversion) must already know (x, y) satisfies
// the curve equation.
func FromAffineUnchecked(x, y field.Element) Point { return fromAffine(x, y) }

// Decompress decodes 32 little-endian bytes (y with the sign of x packed
// into bit 255) into a curve point, per spec.md §3. It returns an
// InvalidEncoding error if the byte string does not encode a point on the
// curve (no square root exists, or the only root doesn't match the
// supplied sign).
func Decompress(b [32]byte) (Point, error) {
	signBit := b[31]>>7 == 1
	yBytes := b
	yBytes[31] &= 0x7f
	if !field.IsCanonical(yBytes) {
		return Point{}, errs.New(errs.InvalidEncoding, "point: non-canonical y coordinate")
	}
	y := field.Element(yBytes)

	// x^2 = (y^2 - 1) / (d*y^2 + 1)
	y2 := field.Square(y)
	num := field.Sub(y2, field.One)
	den := field.Add(field.Mul(d, y2), field.One)
	denInv := field.Invert(den)
	x2 := field.Mul(num, denInv)

	x, ok := field.Sqrt(x2)
	if !ok {
		return Point{}, errs.New(errs.InvalidEncoding, "point: not on curve (no square root)")
	}
	if x.IsZero() && signBit {
		// The only root is 0, which has no meaningful sign bit; a set
		// sign bit is therefore an invalid encoding.
		return Point{}, errs.New(errs.InvalidEncoding, "point: invalid sign on zero x")
	}
	if field.IsNegative(x) != signBit {
		x = field.Neg(x)
	}
	return fromAffine(x, y), nil
}

// Compress encodes p as 32 little-endian bytes: y with the sign of x
// packed into bit 255 (spec.md §3).
func (p Point) Compress() [32]byte {
	x, y := p.affine()
	out := y.Bytes()
	if field.IsNegative(x) {
		out[31] |= 0x80
	} else {
		out[31] &= 0x7f
	}
	return out
}

// Equal reports whether p and q represent the same curve point,
// comparing cross-multiplied affine coordinates to avoid an unnecessary
// inversion.
func Equal(p, q Point) bool {
	// x1/z1 == x2/z2  <=>  x1*z2 == x2*z1 ; same for y.
	return field.Equal(field.Mul(p.X, q.Z), field.Mul(q.X, p.Z)) &&
		field.Equal(field.Mul(p.Y, q.Z), field.Mul(q.Y, p.Z))
}

// IsIdentity reports whether p is the neutral element.
func IsIdentity(p Point) bool { return Equal(p, Identity) }

// Negate returns -p (negate the x-coordinate, per spec.md §4.1).
func Negate(p Point) Point {
	return Point{X: field.Neg(p.X), Y: p.Y, Z: p.Z, T: field.Neg(p.T)}
}

// Add returns p+q using the unified (complete) twisted-Edwards addition
// formula for a=-1 (Hisil-Wong-Carter-Dawson, "add-2008-hwcd-3"), which is
// correct for doubling too but Double is provided separately as the
// common fast path.
func Add(p, q Point) Point {
	A := field.Mul(field.Sub(p.Y, p.X), field.Sub(q.Y, q.X))
	B := field.Mul(field.Add(p.Y, p.X), field.Add(q.Y, q.X))
	C := field.Mul(field.Mul(p.T, d2), q.T)
	D := field.Mul(field.Add(p.Z, p.Z), q.Z)
	E := field.Sub(B, A)
	F := field.Sub(D, C)
	G := field.Add(D, C)
	H := field.Add(B, A)
	return Point{
		X: field.Mul(E, F),
		Y: field.Mul(G, H),
		T: field.Mul(E, H),
		Z: field.Mul(F, G),
	}
}

// Double returns p+p using the a=-1 doubling formula ("dbl-2008-hwcd").
func Double(p Point) Point {
	A := field.Square(p.X)
	B := field.Square(p.Y)
	C := field.Add(field.Square(p.Z), field.Square(p.Z))
	Dv := field.Neg(A)
	xy := field.Add(p.X, p.Y)
	E := field.Sub(field.Sub(field.Square(xy), A), B)
	G := field.Add(Dv, B)
	F := field.Sub(G, C)
	H := field.Sub(Dv, B)
	return Point{
		X: field.Mul(E, F),
		Y: field.Mul(G, H),
		T: field.Mul(E, H),
		Z: field.Mul(F, G),
	}
}

// Sub returns p-q.
func Sub(p, q Point) Point { return Add(p, Negate(q)) }

// ScalarMult returns s*p via a constant-structure double-and-add over the
// 256-bit scalar encoding (every bit is processed regardless of value).
func ScalarMult(s Scalar, p Point) Point {
	acc := Identity
	// Process from MSB to LSB; always double, conditionally add.
	b := s.Bytes()
	for i := 255; i >= 0; i-- {
		acc = Double(acc)
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if (b[byteIdx]>>bitIdx)&1 == 1 {
			acc = Add(acc, p)
		}
	}
	return acc
}

// ScalarMultBase returns s*G.
func ScalarMultBase(s Scalar) Point { return ScalarMult(s, BasePoint) }

// BasePoint is the standard Ed25519 base point G, derived by decompressing
// the canonical encoding fixed by spec.md §8 item 4 (zero_commit(0) = G).
var BasePoint = mustBasePoint()

func mustBasePoint() Point {
	raw := [32]byte{
		0x58, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
		0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
		0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
		0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
	}
	p, err := Decompress(raw)
	if err != nil {
		panic("curve: failed to decode base point: " + err.Error())
	}
	return p
}

// MultiScalarMult computes sum(scalars[i]*points[i]) with a windowed
// (Straus) method: all points are processed in lockstep, 4 bits at a
// time, sharing the doubling chain. This is the implementation
// spec.md §4.1 requires for batches >= 32 and Bulletproofs+ verification;
// it is also correct (if not maximally fast) for small batches, so it is
// used uniformly rather than forking on batch size.
func MultiScalarMult(scalars []Scalar, points []Point) Point {
	if len(scalars) != len(points) {
		panic("curve: MultiScalarMult: length mismatch")
	}
	if len(scalars) == 0 {
		return Identity
	}
	const window = 4
	const numDigits = 256 / window

	// Precompute 0..15 multiples of each point.
	tables := make([][16]Point, len(points))
	for i, p := range points {
		tables[i][0] = Identity
		for j := 1; j < 16; j++ {
			tables[i][j] = Add(tables[i][j-1], p)
		}
	}

	digits := make([][]byte, len(scalars))
	for i, s := range scalars {
		digits[i] = scalarDigits(s, window, numDigits)
	}

	acc := Identity
	for d := numDigits - 1; d >= 0; d-- {
		for w := 0; w < window; w++ {
			acc = Double(acc)
		}
		for i := range scalars {
			digit := digits[i][d]
			if digit != 0 {
				acc = Add(acc, tables[i][digit])
			}
		}
	}
	return acc
}

// scalarDigits splits s into numDigits base-2^window digits, returned
// least-significant first (out[i] is the digit of weight 2^(window*i)),
// so the caller's descending loop visits the most significant digit first.
func scalarDigits(s Scalar, window, numDigits int) []byte {
	b := s.Bytes()
	out := make([]byte, numDigits)
	bitPos := 0
	for i := 0; i < numDigits; i++ {
		var v byte
		for bit := 0; bit < window; bit++ {
			byteIdx := bitPos / 8
			bitIdx := uint(bitPos % 8)
			if (b[byteIdx]>>bitIdx)&1 == 1 {
				v |= 1 << uint(bit)
			}
			bitPos++
		}
		out[i] = v
	}
	return out
}

// ClearCofactor returns 8*p, the ×8 cofactor-clearing multiplication the
// spec requires wherever subgroup membership matters (key images,
// derivations, Bulletproofs+ commitments).
func ClearCofactor(p Point) Point {
	return Double(Double(Double(p)))
}

// IsInPrimeOrderSubgroup reports whether ℓ*p == identity, the structural
// check for "this point is in the prime-order subgroup" (spec.md §4.3's
// key-image validity condition). This multiplies by the curve order L
// itself (not L mod L, which is trivially zero), so it uses a raw
// big.Int double-and-add rather than the mod-L Scalar type.
func IsInPrimeOrderSubgroup(p Point) bool {
	return IsIdentity(scalarMultBigInt(L, p))
}

// scalarMultBigInt multiplies p by an arbitrary non-negative exponent
// that is not reduced mod L, needed for subgroup-membership checks where
// the exponent is L itself.
func scalarMultBigInt(exp *big.Int, p Point) Point {
	acc := Identity
	for i := exp.BitLen() - 1; i >= 0; i-- {
		acc = Double(acc)
		if exp.Bit(i) == 1 {
			acc = Add(acc, p)
		}
	}
	return acc
}
