// Package curve implements Ed25519 point arithmetic (extended projective
// coordinates), scalar arithmetic mod L, X25519 with CARROT's non-standard
// clamping, and windowed multi-scalar multiplication (spec.md §3, §4.1).
package curve

import "math/big"

// L is the prime order of the Ed25519 base point's subgroup:
// 2^252 + 27742317777372353535851937790883648493.
var L = mustL()

func mustL() *big.Int {
	l := new(big.Int).Lsh(big.NewInt(1), 252)
	rest, ok := new(big.Int).SetString("27742317777372353535851937790883648493", 10)
	if !ok {
		panic("curve: bad L constant")
	}
	l.Add(l, rest)
	return l
}

// Scalar is a 256-bit integer reduced mod L, canonically encoded as 32
// little-endian bytes (spec.md §3).
type Scalar [32]byte

var (
	ScalarZero = Scalar{}
	ScalarOne  = ScalarFromUint64(1)
)

func scalarToBig(s Scalar) *big.Int {
	return new(big.Int).SetBytes(reverseBytes(s[:]))
}

func scalarFromBig(x *big.Int) Scalar {
	y := new(big.Int).Mod(x, L)
	b := y.Bytes()
	var out Scalar
	copy(out[32-len(b):], b)
	reverseInPlace(out[:])
	return out
}

func reverseBytes(b []byte) []byte {
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

// ScalarFromUint64 builds a scalar from a small integer.
func ScalarFromUint64(v uint64) Scalar {
	return scalarFromBig(new(big.Int).SetUint64(v))
}

// ScalarReduce32 reduces a 32-byte little-endian input (interpreted as an
// integer possibly >= L, e.g. 2^256-1) into [0, L). This is sc_reduce32
// in the spec's vocabulary.
func ScalarReduce32(in [32]byte) Scalar {
	x := new(big.Int).SetBytes(reverseBytes(in[:]))
	return scalarFromBig(x)
}

// ScalarReduce64 reduces an input of arbitrary length, interpreted as a
// little-endian integer, into [0, L). Used for Elligator2 inputs and
// scalar derivation from 64-byte hash outputs (sc_reduce64).
func ScalarReduce64(in []byte) Scalar {
	be := make([]byte, len(in))
	copy(be, in)
	reverseInPlace(be)
	x := new(big.Int).SetBytes(be)
	return scalarFromBig(x)
}

// ScalarFromCanonicalBytes decodes 32 little-endian bytes as a scalar
// without reducing, returning ok=false if the value is >= L. Use this at protocol boundaries where a non-canonical
// scalar must be rejected (spec.md §3's sc_check).
func ScalarFromCanonicalBytes(b [32]byte) (Scalar, bool) {
	if !ScalarIsCanonical(b) {
		return Scalar{}, false
	}
	return Scalar(b), true
}

// ScalarIsCanonical reports whether b, read as a little-endian integer, is
// in [0, L) -- the spec's sc_check.
func ScalarIsCanonical(b [32]byte) bool {
	x := new(big.Int).SetBytes(reverseBytes(b[:]))
	return x.Cmp(L) < 0
}

// Bytes returns the canonical 32-byte little-endian encoding.
func (s Scalar) Bytes() [32]byte { return s }

// ScalarAdd returns a+b mod L.
func ScalarAdd(a, b Scalar) Scalar {
	return scalarFromBig(new(big.Int).Add(scalarToBig(a), scalarToBig(b)))
}

// ScalarSub returns a-b mod L.
func ScalarSub(a, b Scalar) Scalar {
	return scalarFromBig(new(big.Int).Sub(scalarToBig(a), scalarToBig(b)))
}

// ScalarNeg returns -a mod L.
func ScalarNeg(a Scalar) Scalar {
	return scalarFromBig(new(big.Int).Neg(scalarToBig(a)))
}

// ScalarMul returns a*b mod L.
func ScalarMul(a, b Scalar) Scalar {
	return scalarFromBig(new(big.Int).Mul(scalarToBig(a), scalarToBig(b)))
}

// ScalarMulAdd returns a*b+c mod L.
func ScalarMulAdd(a, b, c Scalar) Scalar {
	x := new(big.Int).Mul(scalarToBig(a), scalarToBig(b))
	x.Add(x, scalarToBig(c))
	return scalarFromBig(x)
}

// ScalarMulSub returns a*b-c mod L.
func ScalarMulSub(a, b, c Scalar) Scalar {
	x := new(big.Int).Mul(scalarToBig(a), scalarToBig(b))
	x.Sub(x, scalarToBig(c))
	return scalarFromBig(x)
}

// ScalarInvert returns a^-1 mod L via Fermat's little theorem. a must be
// non-zero.
func ScalarInvert(a Scalar) Scalar {
	if a == ScalarZero {
		return ScalarZero
	}
	exp := new(big.Int).Sub(L, big.NewInt(2))
	return scalarFromBig(new(big.Int).Exp(scalarToBig(a), exp, L))
}

// ScalarEqual reports whether a == b.
func ScalarEqual(a, b Scalar) bool { return a == b }

// ScalarRandom returns a uniformly random scalar in [0, L), reading from
// the supplied CSPRNG reader (typically crypto/rand.Reader). Used by
// Bulletproofs+ batch verification, which must draw its fold weights from
// a CSPRNG (spec.md §4.4).
func ScalarRandom(randRead func([]byte) (int, error)) (Scalar, error) {
	var buf [64]byte
	if _, err := randRead(buf[:]); err != nil {
		return Scalar{}, err
	}
	return ScalarReduce64(buf[:]), nil
}
