// Package txcodec implements the CryptoNote wire format: varints, length-
// prefixed byte strings, and (de)serialization of transaction prefixes,
// RCT signatures, extra-field TLV entries, and block headers (spec.md
// §4.6, §3).
package txcodec

import "github.com/mxhess/salvium-rs-sub002/errs"

// EncodeVarint appends v encoded as a CryptoNote varint to dst and
// returns the extended slice: 7 bits of payload per byte, little-endian
// group order, continuation signaled by a set high bit (spec.md §3).
func EncodeVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// DecodeVarint reads a CryptoNote varint from the front of b, returning
// the decoded value and the number of bytes consumed. It rejects inputs
// that run out of bytes before the continuation bit clears, and inputs
// whose 10th continuation byte would overflow a uint64.
func DecodeVarint(b []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(b); i++ {
		if i >= 10 {
			return 0, 0, errs.New(errs.InvalidEncoding, "txcodec: varint overflow")
		}
		c := b[i]
		if i == 9 && c > 0x01 {
			return 0, 0, errs.New(errs.InvalidEncoding, "txcodec: varint overflow")
		}
		v |= uint64(c&0x7f) << uint(7*i)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated varint")
}

// EncodeBytes appends a varint length prefix followed by b's contents.
func EncodeBytes(dst []byte, b []byte) []byte {
	dst = EncodeVarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// DecodeBytes reads a varint-length-prefixed byte string from the front
// of b, returning the decoded bytes and the number of bytes consumed.
func DecodeBytes(b []byte) ([]byte, int, error) {
	n, consumed, err := DecodeVarint(b)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(b)-consumed) < n {
		return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated byte string")
	}
	out := make([]byte, n)
	copy(out, b[consumed:consumed+int(n)])
	return out, consumed + int(n), nil
}
