package curve

import (
	"testing"

	"github.com/mxhess/salvium-rs-sub002/field"
)

func TestBasePointCompressMatchesSpecVector(t *testing.T) {
	want := [32]byte{
		0x58, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
		0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
		0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
		0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x66,
	}
	got := BasePoint.Compress()
	if got != want {
		t.Fatalf("BasePoint.Compress() = %x, want %x", got, want)
	}
}

func TestDecompressCompressRoundTrip(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(12345))
	enc := p.Compress()
	back, err := Decompress(enc)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !Equal(p, back) {
		t.Fatalf("decompress(compress(p)) != p")
	}
}

func TestDecompressRejectsNonCanonical(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = 0xff
	}
	if _, err := Decompress(raw); err == nil {
		t.Fatalf("expected error decompressing a non-canonical y coordinate")
	}
}

func TestAddMatchesDouble(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(7))
	if !Equal(Add(p, p), Double(p)) {
		t.Fatalf("Add(p,p) != Double(p)")
	}
}

func TestScalarMultMatchesDouble(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(9))
	two := ScalarFromUint64(2)
	if !Equal(ScalarMult(two, p), Double(p)) {
		t.Fatalf("ScalarMult(2,p) != Double(p)")
	}
}

func TestScalarMultZeroIsIdentity(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(11))
	if !IsIdentity(ScalarMult(ScalarZero, p)) {
		t.Fatalf("ScalarMult(0,p) != identity")
	}
}

func TestScalarMultDistributesOverAdd(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(13))
	a := ScalarFromUint64(4)
	b := ScalarFromUint64(9)
	lhs := ScalarMult(ScalarAdd(a, b), p)
	rhs := Add(ScalarMult(a, p), ScalarMult(b, p))
	if !Equal(lhs, rhs) {
		t.Fatalf("(a+b)*p != a*p + b*p")
	}
}

func TestNegateAndSub(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(21))
	if !IsIdentity(Add(p, Negate(p))) {
		t.Fatalf("p + (-p) != identity")
	}
	if !IsIdentity(Sub(p, p)) {
		t.Fatalf("p - p != identity")
	}
}

func TestIdentityIsIdentity(t *testing.T) {
	if !IsIdentity(Identity) {
		t.Fatalf("Identity is not recognized as identity")
	}
	p := ScalarMultBase(ScalarFromUint64(3))
	if IsIdentity(p) {
		t.Fatalf("non-identity point misreported as identity")
	}
}

func TestMultiScalarMultMatchesSequential(t *testing.T) {
	scalars := []Scalar{
		ScalarFromUint64(3),
		ScalarFromUint64(17),
		ScalarFromUint64(255),
	}
	points := []Point{
		ScalarMultBase(ScalarFromUint64(1)),
		ScalarMultBase(ScalarFromUint64(2)),
		ScalarMultBase(ScalarFromUint64(100)),
	}
	got := MultiScalarMult(scalars, points)

	want := Identity
	for i := range scalars {
		want = Add(want, ScalarMult(scalars[i], points[i]))
	}
	if !Equal(got, want) {
		t.Fatalf("MultiScalarMult disagrees with sequential scalar mults")
	}
}

func TestMultiScalarMultEmpty(t *testing.T) {
	if !IsIdentity(MultiScalarMult(nil, nil)) {
		t.Fatalf("MultiScalarMult with no inputs must be identity")
	}
}

func TestClearCofactorIsEightTimes(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(5))
	want := ScalarMult(ScalarFromUint64(8), p)
	if !Equal(ClearCofactor(p), want) {
		t.Fatalf("ClearCofactor(p) != 8*p")
	}
}

func TestBasePointInPrimeOrderSubgroup(t *testing.T) {
	if !IsInPrimeOrderSubgroup(BasePoint) {
		t.Fatalf("base point must be in the prime-order subgroup")
	}
}

func TestIdentityInPrimeOrderSubgroup(t *testing.T) {
	if !IsInPrimeOrderSubgroup(Identity) {
		t.Fatalf("identity is trivially in every subgroup")
	}
}

func TestCompressEncodesSignOfX(t *testing.T) {
	p := ScalarMultBase(ScalarFromUint64(42))
	enc := p.Compress()
	x, _ := p.affine()
	signBit := enc[31]>>7 == 1
	if signBit != field.IsNegative(x) {
		t.Fatalf("compressed sign bit does not match affine x sign")
	}
}
