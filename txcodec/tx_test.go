package txcodec

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/mxhess/salvium-rs-sub002/curve"
)

func randomKeyImage(t *testing.T) [32]byte {
	t.Helper()
	s, err := curve.ScalarRandom(rand.Read)
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	enc := curve.ScalarMultBase(s).Compress()
	return enc
}

func TestTxPrefixRoundTripTransfer(t *testing.T) {
	prefix := TxPrefix{
		Version:    2,
		UnlockTime: 0,
		Inputs: []TxIn{
			TxInKey{Amount: 0, AssetType: "SAL", KeyOffsets: []uint64{10, 5, 2}, KeyImage: randomKeyImage(t)},
		},
		Outputs: []TxOut{
			TxOutToTaggedKey{Amount: 0, AssetType: "SAL", Key: randomKeyImage(t), ViewTag: 0x42},
			TxOutCarrotV1{Amount: 0, AssetType: "VSD", Key: randomKeyImage(t), ViewTag: [3]byte{1, 2, 3}, EncryptedJanusAnchor: [16]byte{9, 9}},
		},
		Extra:               []byte{0xde, 0xad, 0xbe, 0xef},
		TxType:              TxTypeTransfer,
		AmountBurnt:         100,
		ReturnPubkey:        randomKeyImage(t),
		SourceAssetType:     "SAL",
		DestAssetType:       "VSD",
		AmountSlippageLimit: 3,
	}

	enc := prefix.Encode(nil)
	got, n, err := DecodeTxPrefix(enc)
	if err != nil {
		t.Fatalf("DecodeTxPrefix: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	reenc := got.Encode(nil)
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("round trip did not reproduce the original bytes")
	}
}

func TestTxPrefixRoundTripMiner(t *testing.T) {
	prefix := TxPrefix{
		Version:    2,
		UnlockTime: 60,
		Inputs:     []TxIn{TxInGen{Height: 12345}},
		Outputs: []TxOut{
			TxOutToKey{Amount: 600000000, AssetType: "SAL", Key: randomKeyImage(t)},
		},
		Extra:  []byte{0x01},
		TxType: TxTypeMiner,
	}
	enc := prefix.Encode(nil)
	got, n, err := DecodeTxPrefix(enc)
	if err != nil {
		t.Fatalf("DecodeTxPrefix: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	if len(got.Inputs) != 1 {
		t.Fatalf("got %d inputs, want 1", len(got.Inputs))
	}
	if in, ok := got.Inputs[0].(TxInGen); !ok || in.Height != 12345 {
		t.Fatalf("miner input did not round trip: %#v", got.Inputs[0])
	}
}

func TestExtraFieldRoundTrip(t *testing.T) {
	pubkey := randomKeyImage(t)
	paymentID := randomKeyImage(t)
	entries := []ExtraEntry{
		ExtraPadding{Count: 3},
		ExtraTxPubkey{Key: pubkey},
		ExtraNonce{PaymentID: &paymentID},
		ExtraMergeMining{Data: []byte{1, 2, 3, 4}},
		ExtraAdditionalPubkeys{Keys: [][32]byte{randomKeyImage(t), randomKeyImage(t)}},
		ExtraOther{Tag: 0x7f, Data: []byte("hello")},
	}
	enc := EncodeExtra(entries)
	got, err := ParseExtra(enc)
	if err != nil {
		t.Fatalf("ParseExtra: %v", err)
	}
	reenc := EncodeExtra(got)
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("extra field round trip did not reproduce the original bytes")
	}
}

func TestExtraFieldEncryptedPaymentID(t *testing.T) {
	var encID [8]byte
	copy(encID[:], []byte("abcdefgh"))
	entries := []ExtraEntry{ExtraNonce{EncryptedPaymentID: &encID}}
	enc := EncodeExtra(entries)
	got, err := ParseExtra(enc)
	if err != nil {
		t.Fatalf("ParseExtra: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	nonce, ok := got[0].(ExtraNonce)
	if !ok || nonce.EncryptedPaymentID == nil || *nonce.EncryptedPaymentID != encID {
		t.Fatalf("encrypted payment id did not round trip: %#v", got[0])
	}
}

func TestRctSignatureBaseRoundTrip(t *testing.T) {
	base := RctSignatureBase{
		Type: RctBulletproofPlus,
		Fee:  12345,
		EcdhInfo: [][8]byte{
			{1, 2, 3, 4, 5, 6, 7, 8},
			{8, 7, 6, 5, 4, 3, 2, 1},
		},
		OutPk: []curve.Point{curve.BasePoint, curve.BasePoint},
		Pr:    randomKeyImage(t),
	}
	enc := base.Encode(nil)
	got, n, err := DecodeRctSignatureBase(enc, 2)
	if err != nil {
		t.Fatalf("DecodeRctSignatureBase: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	reenc := got.Encode(nil)
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("rct base round trip did not reproduce the original bytes")
	}
}

func TestRctSignatureBaseNullType(t *testing.T) {
	base := RctSignatureBase{Type: RctNull}
	enc := base.Encode(nil)
	if len(enc) != 1 {
		t.Fatalf("expected a 1-byte encoding for RctNull, got %d bytes", len(enc))
	}
	got, n, err := DecodeRctSignatureBase(enc, 0)
	if err != nil {
		t.Fatalf("DecodeRctSignatureBase: %v", err)
	}
	if n != 1 || got.Type != RctNull {
		t.Fatalf("RctNull did not round trip: %#v, consumed %d", got, n)
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := BlockHeader{MajorVersion: 16, MinorVersion: 16, Timestamp: 1732900000, PrevID: randomKeyImage(t), Nonce: 0xdeadbeef}
	enc := h.Encode(nil)
	got, n, err := DecodeBlockHeader(enc)
	if err != nil {
		t.Fatalf("DecodeBlockHeader: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	if got != h {
		t.Fatalf("block header did not round trip: got %#v, want %#v", got, h)
	}
}
