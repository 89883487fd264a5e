package scanning

import (
	"github.com/mxhess/salvium-rs-sub002/carrot"
	"github.com/mxhess/salvium-rs-sub002/chainsource"
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/tclsag"
	"github.com/mxhess/salvium-rs-sub002/txcodec"
)

// ScanKeys bundles the account material ScanTx needs to recognize its
// own outputs, across both the legacy and CARROT output formats.
type ScanKeys struct {
	AccountIndex uint32

	LegacyViewSecret  curve.Scalar
	LegacySpendPubkey curve.Point

	Carrot          *carrot.Account
	FindSpendPubkey carrot.FindSpendPubkey
}

// txPubkey extracts the transaction's ephemeral pubkey from its extra
// field. This core scans only the main address's single-recipient
// shape: every CARROT/legacy output in the transaction shares the one
// ExtraTxPubkey entry. A real wallet additionally consults
// ExtraAdditionalPubkeys for subaddress-targeted outputs; that table is
// not wired into scanning here since txbuilder (this core's sender
// side) never targets a counterparty subaddress this way -- see
// DESIGN.md.
func txPubkey(extra []byte) (curve.Point, bool) {
	entries, err := txcodec.ParseExtra(extra)
	if err != nil {
		return curve.Point{}, false
	}
	for _, e := range entries {
		if pk, ok := e.(txcodec.ExtraTxPubkey); ok {
			p, err := curve.Decompress(pk.Key)
			if err != nil {
				return curve.Point{}, false
			}
			return p, true
		}
	}
	return curve.Point{}, false
}

func firstInputKeyImage(inputs []txcodec.TxIn) ([32]byte, bool) {
	for _, in := range inputs {
		if k, ok := in.(txcodec.TxInKey); ok {
			return k.KeyImage, true
		}
	}
	return [32]byte{}, false
}

// ScanTx recognizes every output in tx belonging to keys, returning one
// WalletOutput per match. This is the multi-output counterpart to
// TryScanLegacy/carrot.ScanEnote's single-output entry points; walletsync
// drives it once per transaction in a synced block.
//
// Legacy outputs (TxOutToKey/TxOutToTaggedKey) are scanned via
// TryScanLegacy against LegacyViewSecret/LegacySpendPubkey. CARROT
// outputs (TxOutCarrotV1) are scanned via carrot.ScanEnote, trying
// EnotePayment then EnoteChange for a transfer tx (the wire format
// doesn't distinguish them; the wallet learns which by whichever
// decrypts) and EnoteCoinbase for a miner tx.
//
// The stored KeyImage for a CARROT output is not the two-generator
// ring-signature key image TCLSAG uses at spend time (spec.md leaves
// that construction unspecified for the K_s = k_gi*G + k_ps*T split
// key); it is tclsag.KeyImage(k_gi+ext, (k_gi+ext)*G) -- the G-column
// key image against the recovered extension, which is already
// per-output unique. txbuilder does not spend CARROT-format outputs, so
// no spend path in this module re-derives this value (see tclsag's
// KeyImage and DESIGN.md).
func ScanTx(keys ScanKeys, height uint64, txHash [32]byte, tx txcodec.Transaction) ([]chainsource.WalletOutput, error) {
	var out []chainsource.WalletOutput

	pubkey, havePubkey := txPubkey(tx.Prefix.Extra)

	var carrotContext [33]byte
	haveCarrotContext := false
	if tx.Prefix.TxType == txcodec.TxTypeMiner {
		carrotContext = carrot.CoinbaseInputContext(height)
		haveCarrotContext = true
	} else if ki, ok := firstInputKeyImage(tx.Prefix.Inputs); ok {
		carrotContext = carrot.SpendInputContext(ki)
		haveCarrotContext = true
	}

	for i, o := range tx.Prefix.Outputs {
		switch v := o.(type) {
		case txcodec.TxOutToKey, txcodec.TxOutToTaggedKey:
			if !havePubkey || keys.LegacySpendPubkey == (curve.Point{}) {
				continue
			}
			legacyOut, err := buildLegacyOutput(tx, i, v)
			if err != nil {
				continue
			}
			res, err := TryScanLegacy(keys.LegacyViewSecret, pubkey, keys.LegacySpendPubkey, legacyOut)
			if err != nil {
				return nil, err
			}
			if res == nil {
				continue
			}
			maskEnc := res.Mask.Bytes()
			out = append(out, chainsource.WalletOutput{
				KeyImage:     res.OneTimeKey.Compress(),
				TxHash:       txHash,
				OutputIndex:  uint64(i),
				Height:       height,
				AssetType:    assetTypeOf(v),
				Amount:       res.Amount,
				Mask:         maskEnc,
				AccountIndex: keys.AccountIndex,
				UnlockTime:   tx.Prefix.UnlockTime,
			})

		case txcodec.TxOutCarrotV1:
			if keys.Carrot == nil || !haveCarrotContext || !havePubkey {
				continue
			}
			onetime, err := curve.Decompress(v.Key)
			if err != nil {
				continue
			}
			commitment := curve.Point{}
			if i < len(tx.Rct.OutPk) {
				commitment = tx.Rct.OutPk[i]
			}
			var encAmount [8]byte
			if i < len(tx.Rct.EcdhInfo) {
				encAmount = tx.Rct.EcdhInfo[i]
			}
			enote := &carrot.Enote{
				Ephemeral:       pubkey,
				Onetime:         onetime,
				Commitment:      commitment,
				ViewTag:         v.ViewTag,
				EncryptedAmount: encAmount,
				JanusAnchorEnc:  v.EncryptedJanusAnchor,
			}

			types := []carrot.EnoteType{carrot.EnoteCoinbase}
			if tx.Prefix.TxType != txcodec.TxTypeMiner {
				types = []carrot.EnoteType{carrot.EnotePayment, carrot.EnoteChange}
			}

			for _, et := range types {
				res, err := carrot.ScanEnote(keys.Carrot.Kvi, enote, carrotContext, et, keys.FindSpendPubkey)
				if err != nil {
					return nil, err
				}
				if res == nil {
					continue
				}
				maskEnc := res.Mask.Bytes()
				x := curve.ScalarAdd(keys.Carrot.Kgi, res.Extension)
				gPoint := curve.ScalarMultBase(x)
				keyImageEnc := tclsag.KeyImage(x, gPoint).Compress()
				out = append(out, chainsource.WalletOutput{
					KeyImage:     keyImageEnc,
					TxHash:       txHash,
					OutputIndex:  uint64(i),
					Height:       height,
					AssetType:    v.AssetType,
					Amount:       res.Amount,
					Mask:         maskEnc,
					AccountIndex: keys.AccountIndex,
					SubIndex:     uint32(res.Minor),
					UnlockTime:   tx.Prefix.UnlockTime,
				})
				break
			}
		}
	}

	return out, nil
}

func assetTypeOf(o txcodec.TxOut) string {
	switch v := o.(type) {
	case txcodec.TxOutToKey:
		return v.AssetType
	case txcodec.TxOutToTaggedKey:
		return v.AssetType
	default:
		return ""
	}
}

func buildLegacyOutput(tx txcodec.Transaction, index int, o txcodec.TxOut) (LegacyOutput, error) {
	var out LegacyOutput
	out.Index = uint64(index)

	switch v := o.(type) {
	case txcodec.TxOutToKey:
		p, err := curve.Decompress(v.Key)
		if err != nil {
			return out, err
		}
		out.PublicKey = p
		out.Amount = v.Amount
	case txcodec.TxOutToTaggedKey:
		p, err := curve.Decompress(v.Key)
		if err != nil {
			return out, err
		}
		out.PublicKey = p
		out.Amount = v.Amount
		vt := v.ViewTag
		out.ViewTag = &vt
	}

	if tx.Rct.Type != txcodec.RctNull && index < len(tx.Rct.EcdhInfo) {
		enc := tx.Rct.EcdhInfo[index]
		out.EncAmount = &enc
	}
	return out, nil
}
