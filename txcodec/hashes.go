package txcodec

import (
	"github.com/mxhess/salvium-rs-sub002/errs"
	"github.com/mxhess/salvium-rs-sub002/hash"
)

// TransactionPrefixHash is Keccak-256 of the serialized prefix
// (spec.md §4.6).
func TransactionPrefixHash(prefix TxPrefix) [32]byte {
	return hash.Keccak256(prefix.Encode(nil))
}

// PreMlsagHash combines the prefix hash with the rct-base hash and the
// prunable hash: Keccak(prefix_hash || rct_base_hash || prunable_hash)
// (spec.md §4.6). This is the message CLSAG/TCLSAG sign over.
func PreMlsagHash(prefixHash [32]byte, rctBase RctSignatureBase, prunable RctSignaturePrunable, rctType RctType) [32]byte {
	rctBaseHash := hash.Keccak256(rctBase.Encode(nil))
	prunableHash := hash.Keccak256(prunable.Encode(nil, rctType))
	return hash.Keccak256(prefixHash[:], rctBaseHash[:], prunableHash[:])
}

// FullTxHash is Keccak-256 of the concatenation of the prefix, rct-base
// and prunable hashes (spec.md §4.6).
func FullTxHash(prefix TxPrefix, rctBase RctSignatureBase, prunable RctSignaturePrunable) [32]byte {
	prefixHash := TransactionPrefixHash(prefix)
	rctBaseHash := hash.Keccak256(rctBase.Encode(nil))
	prunableHash := hash.Keccak256(prunable.Encode(nil, rctBase.Type))
	return hash.Keccak256(prefixHash[:], rctBaseHash[:], prunableHash[:])
}

// BlockHeader is the fixed-field portion of a block, enough for header
// hashing and difficulty checks; the full block additionally carries
// the miner tx and the list of included tx hashes (spec.md §4.7, §6).
type BlockHeader struct {
	MajorVersion uint64
	MinorVersion uint64
	Timestamp    uint64
	PrevID       [32]byte
	Nonce        uint32
}

// Encode appends the field-order serialization of h to dst.
func (h BlockHeader) Encode(dst []byte) []byte {
	dst = EncodeVarint(dst, h.MajorVersion)
	dst = EncodeVarint(dst, h.MinorVersion)
	dst = EncodeVarint(dst, h.Timestamp)
	dst = append(dst, h.PrevID[:]...)
	return append(dst, byte(h.Nonce), byte(h.Nonce>>8), byte(h.Nonce>>16), byte(h.Nonce>>24))
}

// DecodeBlockHeader parses a BlockHeader from the front of b.
func DecodeBlockHeader(b []byte) (BlockHeader, int, error) {
	var h BlockHeader
	off := 0

	major, n, err := DecodeVarint(b[off:])
	if err != nil {
		return h, 0, err
	}
	h.MajorVersion = major
	off += n

	minor, n, err := DecodeVarint(b[off:])
	if err != nil {
		return h, 0, err
	}
	h.MinorVersion = minor
	off += n

	ts, n, err := DecodeVarint(b[off:])
	if err != nil {
		return h, 0, err
	}
	h.Timestamp = ts
	off += n

	if len(b)-off < 32+4 {
		return h, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated block header")
	}
	copy(h.PrevID[:], b[off:off+32])
	off += 32

	h.Nonce = uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
	off += 4

	return h, off, nil
}
