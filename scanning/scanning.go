// Package scanning recognizes a wallet's own outputs in legacy
// CryptoNote and CARROT-format transactions: deriving the ECDH shared
// secret, the one-time output key, and (legacy) the view tag, then
// handing CARROT enotes to the carrot package for the rest of the
// inversion (spec.md §4.2, §4.5).
package scanning

import (
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/hash"
	"github.com/mxhess/salvium-rs-sub002/pedersen"
	"github.com/mxhess/salvium-rs-sub002/txcodec"
)

// hashToScalar is legacy CryptoNote's H_sc: Keccak-256 reduced mod L
// (spec.md §4.2; distinct from CARROT's BLAKE2b-based H_sc in the
// carrot package).
func hashToScalar(parts ...[]byte) curve.Scalar {
	return curve.ScalarReduce32(hash.Keccak256(parts...))
}

// SharedSecret computes the legacy ECDH shared point D = 8*(scalar*point),
// used as D = 8*(r*V) on the sender side (r = tx secret key, V = the
// recipient's view pubkey) or D = 8*(v*R) on the receiver side (v = the
// account's view secret key, R = the tx public key) (spec.md §4.2).
func SharedSecret(scalar curve.Scalar, point curve.Point) curve.Point {
	return curve.ClearCofactor(curve.ScalarMult(scalar, point))
}

// DerivePublicKey computes the legacy one-time output public key
// derive(D, i, B) = H_sc(D || varint(i))*G + B, where B is the
// recipient's spend pubkey (spec.md §4.2).
func DerivePublicKey(sharedSecret curve.Point, outputIndex uint64, spendPubkey curve.Point) curve.Point {
	dEnc := sharedSecret.Compress()
	scalar := hashToScalar(dEnc[:], txcodec.EncodeVarint(nil, outputIndex))
	return curve.Add(curve.ScalarMultBase(scalar), spendPubkey)
}

// DeriveSecretKey computes the legacy one-time output secret key
// derive(D, i, b) = H_sc(D || varint(i)) + b, where b is the
// recipient's spend secret key.
func DeriveSecretKey(sharedSecret curve.Point, outputIndex uint64, spendSecret curve.Scalar) curve.Scalar {
	dEnc := sharedSecret.Compress()
	scalar := hashToScalar(dEnc[:], txcodec.EncodeVarint(nil, outputIndex))
	return curve.ScalarAdd(scalar, spendSecret)
}

// ViewTag computes the legacy one-byte view tag: the low byte of
// Keccak("view_tag" || D || varint(i)) (spec.md §4.2).
func ViewTag(sharedSecret curve.Point, outputIndex uint64) byte {
	dEnc := sharedSecret.Compress()
	digest := hash.Keccak256([]byte("view_tag"), dEnc[:], txcodec.EncodeVarint(nil, outputIndex))
	return digest[0]
}

// LegacyOutput is one output entry from a transaction's legacy
// (non-CARROT) output vector, as seen by a scanner.
type LegacyOutput struct {
	PublicKey  curve.Point
	Index      uint64
	ViewTag    *byte // nil for to_key; present for to_tagged_key
	Amount     uint64
	EncAmount  *[8]byte // present for RCT outputs; nil for a plaintext miner-tx amount
	AssetType  string
}

// LegacyScanResult is what TryScanLegacy recovers for an output that
// belongs to the scanning account.
type LegacyScanResult struct {
	OneTimeKey curve.Point
	Mask       curve.Scalar
	Amount     uint64
}

// TryScanLegacy checks whether output belongs to the account identified
// by (viewSecret, spendPubkey), given the transaction's public key R (or
// one of its additional pubkeys for subaddress outputs). It recomputes
// the shared secret and, if present, checks the view tag before doing
// any point arithmetic -- the same short-circuit legacy wallets use to
// skip the vast majority of outputs cheaply.
func TryScanLegacy(viewSecret curve.Scalar, txPubkey curve.Point, spendPubkey curve.Point, out LegacyOutput) (*LegacyScanResult, error) {
	d := SharedSecret(viewSecret, txPubkey)

	if out.ViewTag != nil {
		if ViewTag(d, out.Index) != *out.ViewTag {
			return nil, nil
		}
	}

	want := DerivePublicKey(d, out.Index, spendPubkey)
	if !curve.Equal(want, out.PublicKey) {
		return nil, nil
	}

	if out.EncAmount == nil {
		return &LegacyScanResult{OneTimeKey: out.PublicKey, Mask: curve.ScalarOne, Amount: out.Amount}, nil
	}

	// Per-output derivation scalar H_sc(D || varint(i)) -- the same value
	// DerivePublicKey folds into the one-time key -- doubles as the
	// per-output "shared secret" input to gen_commitment_mask and the
	// amount keystream, since D alone repeats across every output of a
	// transaction but H_sc(D||i) does not (spec.md §4.2).
	dEnc := d.Compress()
	perOutput := hashToScalar(dEnc[:], txcodec.EncodeVarint(nil, out.Index))
	perOutputBytes := perOutput.Bytes()
	mask := pedersen.GenCommitmentMask(perOutputBytes[:])

	amountKey := hash.Keccak256([]byte("amount"), perOutputBytes[:])
	var amountBytes [8]byte
	for i := range amountBytes {
		amountBytes[i] = out.EncAmount[i] ^ amountKey[i]
	}
	amount := le64(amountBytes)

	return &LegacyScanResult{OneTimeKey: out.PublicKey, Mask: mask, Amount: amount}, nil
}

func le64(b [8]byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
