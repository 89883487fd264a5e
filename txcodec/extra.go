package txcodec

import "github.com/mxhess/salvium-rs-sub002/errs"

// Extra-field entry tags (spec.md §4.6).
const (
	ExtraTagPadding            byte = 0x00
	ExtraTagTxPubkey           byte = 0x01
	ExtraTagNonce              byte = 0x02
	ExtraTagMergeMining        byte = 0x03
	ExtraTagAdditionalPubkeys  byte = 0x04
)

// Nonce sub-tags, interior to an ExtraTagNonce entry's payload.
const (
	NonceTagPaymentID          byte = 0x00
	NonceTagEncryptedPaymentID byte = 0x01
)

// ExtraEntry is one TLV entry of a transaction's extra field.
type ExtraEntry interface{ isExtraEntry() }

// ExtraPadding is a run of Count consecutive 0x00 padding bytes.
type ExtraPadding struct{ Count int }

func (ExtraPadding) isExtraEntry() {}

// ExtraTxPubkey is the transaction's (un-length-prefixed) 32-byte
// ephemeral public key.
type ExtraTxPubkey struct{ Key [32]byte }

func (ExtraTxPubkey) isExtraEntry() {}

// ExtraNonce is a length-prefixed nonce payload. A recognized interior
// tag decodes PaymentID or EncryptedPaymentID; otherwise Raw preserves
// the undecoded payload for a lossless round trip.
type ExtraNonce struct {
	PaymentID          *[32]byte
	EncryptedPaymentID *[8]byte
	Raw                []byte
}

func (ExtraNonce) isExtraEntry() {}

// ExtraMergeMining carries varint-length-prefixed merge-mining data.
type ExtraMergeMining struct{ Data []byte }

func (ExtraMergeMining) isExtraEntry() {}

// ExtraAdditionalPubkeys carries one extra ephemeral pubkey per
// subaddress output in the transaction (1-byte count, then 32 bytes
// each).
type ExtraAdditionalPubkeys struct{ Keys [][32]byte }

func (ExtraAdditionalPubkeys) isExtraEntry() {}

// ExtraOther is any unrecognized tag: a plain varint-length-prefixed
// byte string.
type ExtraOther struct {
	Tag  byte
	Data []byte
}

func (ExtraOther) isExtraEntry() {}

// ParseExtra decodes a transaction's raw extra-field bytes into a
// sequence of TLV entries (spec.md §4.6).
func ParseExtra(b []byte) ([]ExtraEntry, error) {
	var entries []ExtraEntry
	off := 0
	for off < len(b) {
		tag := b[off]
		switch tag {
		case ExtraTagPadding:
			start := off
			for off < len(b) && b[off] == ExtraTagPadding {
				off++
			}
			entries = append(entries, ExtraPadding{Count: off - start})

		case ExtraTagTxPubkey:
			off++
			if len(b)-off < 32 {
				return nil, errs.New(errs.InvalidEncoding, "txcodec: truncated extra tx pubkey")
			}
			var key [32]byte
			copy(key[:], b[off:off+32])
			off += 32
			entries = append(entries, ExtraTxPubkey{Key: key})

		case ExtraTagNonce:
			off++
			payload, n, err := DecodeBytes(b[off:])
			if err != nil {
				return nil, err
			}
			off += n
			nonce := ExtraNonce{}
			switch {
			case len(payload) == 33 && payload[0] == NonceTagPaymentID:
				var id [32]byte
				copy(id[:], payload[1:])
				nonce.PaymentID = &id
			case len(payload) == 9 && payload[0] == NonceTagEncryptedPaymentID:
				var id [8]byte
				copy(id[:], payload[1:])
				nonce.EncryptedPaymentID = &id
			default:
				nonce.Raw = payload
			}
			entries = append(entries, nonce)

		case ExtraTagMergeMining:
			off++
			data, n, err := DecodeBytes(b[off:])
			if err != nil {
				return nil, err
			}
			off += n
			entries = append(entries, ExtraMergeMining{Data: data})

		case ExtraTagAdditionalPubkeys:
			off++
			if len(b)-off < 1 {
				return nil, errs.New(errs.InvalidEncoding, "txcodec: truncated additional pubkeys count")
			}
			count := int(b[off])
			off++
			if len(b)-off < 32*count {
				return nil, errs.New(errs.InvalidEncoding, "txcodec: truncated additional pubkeys")
			}
			keys := make([][32]byte, count)
			for i := range keys {
				copy(keys[i][:], b[off:off+32])
				off += 32
			}
			entries = append(entries, ExtraAdditionalPubkeys{Keys: keys})

		default:
			off++
			data, n, err := DecodeBytes(b[off:])
			if err != nil {
				return nil, err
			}
			off += n
			entries = append(entries, ExtraOther{Tag: tag, Data: data})
		}
	}
	return entries, nil
}

// EncodeExtra serializes entries back to raw extra-field bytes.
func EncodeExtra(entries []ExtraEntry) []byte {
	var out []byte
	for _, e := range entries {
		switch v := e.(type) {
		case ExtraPadding:
			for i := 0; i < v.Count; i++ {
				out = append(out, ExtraTagPadding)
			}
		case ExtraTxPubkey:
			out = append(out, ExtraTagTxPubkey)
			out = append(out, v.Key[:]...)
		case ExtraNonce:
			out = append(out, ExtraTagNonce)
			var payload []byte
			switch {
			case v.PaymentID != nil:
				payload = append([]byte{NonceTagPaymentID}, v.PaymentID[:]...)
			case v.EncryptedPaymentID != nil:
				payload = append([]byte{NonceTagEncryptedPaymentID}, v.EncryptedPaymentID[:]...)
			default:
				payload = v.Raw
			}
			out = EncodeBytes(out, payload)
		case ExtraMergeMining:
			out = append(out, ExtraTagMergeMining)
			out = EncodeBytes(out, v.Data)
		case ExtraAdditionalPubkeys:
			out = append(out, ExtraTagAdditionalPubkeys)
			out = append(out, byte(len(v.Keys)))
			for _, k := range v.Keys {
				out = append(out, k[:]...)
			}
		case ExtraOther:
			out = append(out, v.Tag)
			out = EncodeBytes(out, v.Data)
		default:
			panic("txcodec: unknown ExtraEntry variant")
		}
	}
	return out
}
