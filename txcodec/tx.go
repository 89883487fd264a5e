package txcodec

import "github.com/mxhess/salvium-rs-sub002/errs"

// Input variant tags. This module's own tagged-union scheme (see
// DESIGN.md's "txcodec wire compatibility" note): the real network's
// boost-portable-storage variant encoding is not reproduced bit-exact,
// since this rewrite has no reference blob to decode against and no
// build/test loop to catch a subtly wrong transcription from memory.
const (
	tagTxInGen byte = 0x01
	tagTxInKey byte = 0x02
)

// Output variant tags (see the input-tag note above).
const (
	tagTxOutToKey       byte = 0x01
	tagTxOutToTaggedKey byte = 0x02
	tagTxOutCarrotV1    byte = 0x03
)

// Transaction types (spec.md §3's "tx_type").
const (
	TxTypeMiner    uint8 = 0
	TxTypeProtocol uint8 = 1
	TxTypeTransfer uint8 = 2
)

// TxIn is either a TxInGen (coinbase) or a TxInKey (spend) input.
type TxIn interface{ isTxIn() }

// TxInGen is a coinbase input: just the block height it rewards.
type TxInGen struct {
	Height uint64
}

func (TxInGen) isTxIn() {}

// TxInKey is a ring-signed spend input: the amount (0 for RCT), the
// asset type being spent, the ring's key offsets (first absolute, rest
// delta-encoded per spec.md §3), and the spent output's key image.
type TxInKey struct {
	Amount     uint64
	AssetType  string
	KeyOffsets []uint64
	KeyImage   [32]byte
}

func (TxInKey) isTxIn() {}

// TxOut is one of TxOutToKey, TxOutToTaggedKey, or TxOutCarrotV1.
type TxOut interface{ isTxOut() }

// TxOutToKey is the plain legacy output: an amount, an asset type, and
// a one-time public key.
type TxOutToKey struct {
	Amount    uint64
	AssetType string
	Key       [32]byte
}

func (TxOutToKey) isTxOut() {}

// TxOutToTaggedKey adds the 1-byte legacy view tag.
type TxOutToTaggedKey struct {
	Amount    uint64
	AssetType string
	Key       [32]byte
	ViewTag   byte
}

func (TxOutToTaggedKey) isTxOut() {}

// TxOutCarrotV1 is a CARROT-format output: 3-byte view tag and 16-byte
// encrypted janus anchor in place of the legacy 1-byte tag (spec.md
// §3, §4.5).
type TxOutCarrotV1 struct {
	Amount               uint64
	AssetType            string
	Key                  [32]byte
	ViewTag              [3]byte
	EncryptedJanusAnchor [16]byte
}

func (TxOutCarrotV1) isTxOut() {}

func encodeString(dst []byte, s string) []byte {
	return EncodeBytes(dst, []byte(s))
}

func decodeString(b []byte) (string, int, error) {
	raw, n, err := DecodeBytes(b)
	if err != nil {
		return "", 0, err
	}
	return string(raw), n, nil
}

// EncodeTxIn appends the tagged encoding of one input to dst.
func EncodeTxIn(dst []byte, in TxIn) []byte {
	switch v := in.(type) {
	case TxInGen:
		dst = append(dst, tagTxInGen)
		return EncodeVarint(dst, v.Height)
	case TxInKey:
		dst = append(dst, tagTxInKey)
		dst = EncodeVarint(dst, v.Amount)
		dst = encodeString(dst, v.AssetType)
		dst = EncodeVarint(dst, uint64(len(v.KeyOffsets)))
		for _, o := range v.KeyOffsets {
			dst = EncodeVarint(dst, o)
		}
		return append(dst, v.KeyImage[:]...)
	default:
		panic("txcodec: unknown TxIn variant")
	}
}

// DecodeTxIn reads one tagged input from the front of b.
func DecodeTxIn(b []byte) (TxIn, int, error) {
	if len(b) < 1 {
		return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated txin tag")
	}
	off := 1
	switch b[0] {
	case tagTxInGen:
		height, n, err := DecodeVarint(b[off:])
		if err != nil {
			return nil, 0, err
		}
		return TxInGen{Height: height}, off + n, nil
	case tagTxInKey:
		amount, n, err := DecodeVarint(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		assetType, n, err := decodeString(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		count, n, err := DecodeVarint(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		offsets := make([]uint64, count)
		for i := range offsets {
			o, n, err := DecodeVarint(b[off:])
			if err != nil {
				return nil, 0, err
			}
			offsets[i] = o
			off += n
		}
		if len(b)-off < 32 {
			return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated key image")
		}
		var ki [32]byte
		copy(ki[:], b[off:off+32])
		off += 32
		return TxInKey{Amount: amount, AssetType: assetType, KeyOffsets: offsets, KeyImage: ki}, off, nil
	default:
		return nil, 0, errs.Newf(errs.InvalidEncoding, "txcodec: unknown txin tag 0x%02x", b[0])
	}
}

// EncodeTxOut appends the tagged encoding of one output to dst.
func EncodeTxOut(dst []byte, out TxOut) []byte {
	switch v := out.(type) {
	case TxOutToKey:
		dst = append(dst, tagTxOutToKey)
		dst = EncodeVarint(dst, v.Amount)
		dst = encodeString(dst, v.AssetType)
		return append(dst, v.Key[:]...)
	case TxOutToTaggedKey:
		dst = append(dst, tagTxOutToTaggedKey)
		dst = EncodeVarint(dst, v.Amount)
		dst = encodeString(dst, v.AssetType)
		dst = append(dst, v.Key[:]...)
		return append(dst, v.ViewTag)
	case TxOutCarrotV1:
		dst = append(dst, tagTxOutCarrotV1)
		dst = EncodeVarint(dst, v.Amount)
		dst = encodeString(dst, v.AssetType)
		dst = append(dst, v.Key[:]...)
		dst = append(dst, v.ViewTag[:]...)
		return append(dst, v.EncryptedJanusAnchor[:]...)
	default:
		panic("txcodec: unknown TxOut variant")
	}
}

// DecodeTxOut reads one tagged output from the front of b.
func DecodeTxOut(b []byte) (TxOut, int, error) {
	if len(b) < 1 {
		return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated txout tag")
	}
	off := 1
	amount, n, err := DecodeVarint(b[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	assetType, n, err := decodeString(b[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	if len(b)-off < 32 {
		return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated output key")
	}
	var key [32]byte
	copy(key[:], b[off:off+32])
	off += 32

	switch b[0] {
	case tagTxOutToKey:
		return TxOutToKey{Amount: amount, AssetType: assetType, Key: key}, off, nil
	case tagTxOutToTaggedKey:
		if len(b)-off < 1 {
			return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated view tag")
		}
		vt := b[off]
		off++
		return TxOutToTaggedKey{Amount: amount, AssetType: assetType, Key: key, ViewTag: vt}, off, nil
	case tagTxOutCarrotV1:
		if len(b)-off < 3+16 {
			return nil, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated carrot output tail")
		}
		var vt [3]byte
		copy(vt[:], b[off:off+3])
		off += 3
		var anchor [16]byte
		copy(anchor[:], b[off:off+16])
		off += 16
		return TxOutCarrotV1{Amount: amount, AssetType: assetType, Key: key, ViewTag: vt, EncryptedJanusAnchor: anchor}, off, nil
	default:
		return nil, 0, errs.Newf(errs.InvalidEncoding, "txcodec: unknown txout tag 0x%02x", b[0])
	}
}

// TxPrefix is the unsigned half of a Salvium transaction (spec.md §3).
// Non-miner, non-protocol transactions additionally carry an
// amount-burnt field, a return pubkey, and the asset-conversion fields;
// this is a simplified single-return-pubkey form of the full v>=3/v>=4
// return-address-list and protocol_tx_data schema (see DESIGN.md).
type TxPrefix struct {
	Version              uint64
	UnlockTime           uint64
	Inputs               []TxIn
	Outputs              []TxOut
	Extra                []byte
	TxType               uint8
	AmountBurnt          uint64
	ReturnPubkey         [32]byte
	SourceAssetType      string
	DestAssetType        string
	AmountSlippageLimit  uint64
}

// Encode appends the field-order serialization of p to dst (spec.md
// §4.6: no length prefix on the struct itself).
func (p TxPrefix) Encode(dst []byte) []byte {
	dst = EncodeVarint(dst, p.Version)
	dst = EncodeVarint(dst, p.UnlockTime)
	dst = EncodeVarint(dst, uint64(len(p.Inputs)))
	for _, in := range p.Inputs {
		dst = EncodeTxIn(dst, in)
	}
	dst = EncodeVarint(dst, uint64(len(p.Outputs)))
	for _, out := range p.Outputs {
		dst = EncodeTxOut(dst, out)
	}
	dst = EncodeBytes(dst, p.Extra)
	dst = append(dst, p.TxType)
	if p.TxType != TxTypeMiner && p.TxType != TxTypeProtocol {
		dst = EncodeVarint(dst, p.AmountBurnt)
		dst = append(dst, p.ReturnPubkey[:]...)
		dst = encodeString(dst, p.SourceAssetType)
		dst = encodeString(dst, p.DestAssetType)
		dst = EncodeVarint(dst, p.AmountSlippageLimit)
	}
	return dst
}

// DecodeTxPrefix parses a TxPrefix from the front of b, returning the
// number of bytes consumed.
func DecodeTxPrefix(b []byte) (TxPrefix, int, error) {
	var p TxPrefix
	off := 0

	version, n, err := DecodeVarint(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.Version = version
	off += n

	unlock, n, err := DecodeVarint(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.UnlockTime = unlock
	off += n

	inCount, n, err := DecodeVarint(b[off:])
	if err != nil {
		return p, 0, err
	}
	off += n
	p.Inputs = make([]TxIn, inCount)
	for i := range p.Inputs {
		in, n, err := DecodeTxIn(b[off:])
		if err != nil {
			return p, 0, err
		}
		p.Inputs[i] = in
		off += n
	}

	outCount, n, err := DecodeVarint(b[off:])
	if err != nil {
		return p, 0, err
	}
	off += n
	p.Outputs = make([]TxOut, outCount)
	for i := range p.Outputs {
		out, n, err := DecodeTxOut(b[off:])
		if err != nil {
			return p, 0, err
		}
		p.Outputs[i] = out
		off += n
	}

	extra, n, err := DecodeBytes(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.Extra = extra
	off += n

	if len(b)-off < 1 {
		return p, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated tx_type")
	}
	p.TxType = b[off]
	off++

	if p.TxType != TxTypeMiner && p.TxType != TxTypeProtocol {
		amountBurnt, n, err := DecodeVarint(b[off:])
		if err != nil {
			return p, 0, err
		}
		p.AmountBurnt = amountBurnt
		off += n

		if len(b)-off < 32 {
			return p, 0, errs.New(errs.InvalidEncoding, "txcodec: truncated return pubkey")
		}
		copy(p.ReturnPubkey[:], b[off:off+32])
		off += 32

		src, n, err := decodeString(b[off:])
		if err != nil {
			return p, 0, err
		}
		p.SourceAssetType = src
		off += n

		dst, n, err := decodeString(b[off:])
		if err != nil {
			return p, 0, err
		}
		p.DestAssetType = dst
		off += n

		slippage, n, err := DecodeVarint(b[off:])
		if err != nil {
			return p, 0, err
		}
		p.AmountSlippageLimit = slippage
		off += n
	}

	return p, off, nil
}
