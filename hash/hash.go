// Package hash implements the hash primitives the Salvium core needs:
// Keccak-256 with the original (pre-NIST) Keccak padding CryptoNote uses,
// variable-length BLAKE2b (keyed and unkeyed) for CARROT domain-separated
// derivations, and SHA-256 where the spec calls for it directly.
package hash

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Size256 is the digest size, in bytes, of Keccak-256 and SHA-256.
const Size256 = 32

// Keccak256 hashes the concatenation of parts using the original Keccak
// padding (0x01), not the NIST SHA3-256 padding (0x06). This matches
// CryptoNote's "Keccak-256 of empty input" test vector in spec.md §8.
func Keccak256(parts ...[]byte) [32]byte {
	d := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		d.Write(p)
	}
	var out [32]byte
	d.Sum(out[:0])
	return out
}

// Keccak256Slice is Keccak256 returning a freshly allocated slice, for
// call sites that immediately need a []byte (e.g. feeding into another
// hash or a varint-prefixed field).
func Keccak256Slice(parts ...[]byte) []byte {
	out := Keccak256(parts...)
	return out[:]
}

// DoubleKeccak256 hashes Keccak256(Keccak256(data)); used for the
// Bulletproofs+ generator derivation per spec.md §4.1's note that some
// hash-to-point callers apply Elligator2 to Keccak(Keccak(data)) instead
// of Keccak(data). Callers must document which variant they use.
func DoubleKeccak256(data []byte) [32]byte {
	first := Keccak256(data)
	return Keccak256(first[:])
}

// SHA256 computes the standard SHA-256 digest.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Blake2bVar computes an unkeyed BLAKE2b digest of the given size, which
// must be in [1, 64]. RFC 7693 variable-output-length BLAKE2b.
func Blake2bVar(size int, data []byte) ([]byte, error) {
	h, err := blake2b.New(size, nil)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Blake2bKeyed computes a keyed BLAKE2b digest of the given size with the
// given key (both in [1, 64] bytes), as CARROT's domain-separated
// derivations require.
func Blake2bKeyed(size int, key, data []byte) ([]byte, error) {
	h, err := blake2b.New(size, key)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Blake2b32 is Blake2bKeyed/Blake2bVar specialized to 32-byte output,
// matching CARROT's 32-byte secrets (s_vb, s_ga, ...).
func Blake2b32(key, data []byte) [32]byte {
	var out [32]byte
	var digest []byte
	var err error
	if key != nil {
		digest, err = Blake2bKeyed(32, key, data)
	} else {
		digest, err = Blake2bVar(32, data)
	}
	if err != nil {
		// Only possible if key/size are out of [1,64], which callers of
		// this fixed-size helper cannot trigger.
		panic("hash: blake2b32: " + err.Error())
	}
	copy(out[:], digest)
	return out
}

// Blake2b64 is Blake2bKeyed/Blake2bVar specialized to 64-byte output,
// matching CARROT's 64-byte scalar pre-reduction outputs (k_ps, k_vi, k_gi).
func Blake2b64(key, data []byte) [64]byte {
	var out [64]byte
	var digest []byte
	var err error
	if key != nil {
		digest, err = Blake2bKeyed(64, key, data)
	} else {
		digest, err = Blake2bVar(64, data)
	}
	if err != nil {
		panic("hash: blake2b64: " + err.Error())
	}
	copy(out[:], digest)
	return out
}

// DomainSeparator length-prefixes an ASCII domain string as CARROT's BLAKE2b
// keyed hashes require: [len:1][ascii:len]. The domain must be at most 255
// bytes (every domain string used by this module is far shorter).
func DomainSeparator(domain string) []byte {
	if len(domain) > 255 {
		panic("hash: domain separator too long")
	}
	out := make([]byte, 0, 1+len(domain))
	out = append(out, byte(len(domain)))
	out = append(out, domain...)
	return out
}

// LE64 encodes v as 8 little-endian bytes, used throughout CARROT/tx_codec
// for fixed-width fields (block height, amounts).
func LE64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
