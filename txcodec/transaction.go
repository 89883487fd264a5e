package txcodec

// Transaction bundles a decoded prefix with its RCT signature halves.
// Version 1 (pre-RingCT) transactions carry no RCT signature at all;
// Rct.Type is RctNull and Prunable is the zero value in that case.
type Transaction struct {
	Prefix   TxPrefix
	Rct      RctSignatureBase
	Prunable RctSignaturePrunable
}

// Encode appends the full wire encoding of tx to dst: the prefix,
// followed by the RCT base and prunable halves when the prefix version
// carries one (spec.md §4.6).
func (tx Transaction) Encode(dst []byte) []byte {
	dst = tx.Prefix.Encode(dst)
	if tx.Prefix.Version < 2 {
		return dst
	}
	dst = tx.Rct.Encode(dst)
	return tx.Prunable.Encode(dst, tx.Rct.Type)
}

// DecodeTransaction parses a full Transaction from the front of b.
func DecodeTransaction(b []byte) (Transaction, int, error) {
	var tx Transaction
	prefix, n, err := DecodeTxPrefix(b)
	if err != nil {
		return tx, 0, err
	}
	tx.Prefix = prefix
	off := n

	if prefix.Version < 2 {
		return tx, off, nil
	}

	rctBase, n, err := DecodeRctSignatureBase(b[off:], len(prefix.Outputs))
	if err != nil {
		return tx, 0, err
	}
	tx.Rct = rctBase
	off += n

	prunable, n, err := DecodeRctSignaturePrunable(b[off:], rctBase.Type)
	if err != nil {
		return tx, 0, err
	}
	tx.Prunable = prunable
	off += n

	return tx, off, nil
}
