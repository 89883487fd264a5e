// Package carrot implements the CARROT output protocol: a hierarchical
// BLAKE2b key-derivation tree rooted at a wallet's master secret, and
// per-output enote construction/scanning built on CARROT's
// sender-receiver ECDH (spec.md §3, §4.5).
package carrot

import (
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/errs"
	"github.com/mxhess/salvium-rs-sub002/hash"
	"github.com/mxhess/salvium-rs-sub002/pedersen"
)

// Domain separators for the key tree and per-enote derivations. Every
// BLAKE2b call in this package length-prefixes its domain string per
// hash.DomainSeparator (spec.md §4.5).
const (
	domViewBalance     = "Carrot view-balance secret"
	domProveSpend      = "Carrot prove-spend key"
	domIncomingView    = "Carrot incoming view key"
	domGenerateImage   = "Carrot generate-image key"
	domGenerateAddress = "Carrot generate-address secret"

	domEphemeralPrivkey = "carrot ephemeral privkey"
	domSenderReceiver    = "Carrot sender-receiver secret"
	domOneTimeExtension  = "extensions"
	domViewTag           = "Carrot view tag"
	domJanusAnchor       = "Carrot janus anchor"
	domAmount            = "Carrot amount"
	domCommitmentMask    = "Carrot commitment mask"
)

// EnoteType distinguishes the three contexts a commitment mask is bound
// to (spec.md §4.5's "Commitment mask derivation binds ... the enote
// type").
type EnoteType byte

const (
	EnotePayment EnoteType = iota
	EnoteChange
	EnoteCoinbase
)

// Account holds one wallet's full CARROT key tree, derived
// deterministically from a 32-byte master secret (spec.md §3).
type Account struct {
	SMaster [32]byte
	Svb     [32]byte
	Kps     curve.Scalar
	Kvi     curve.Scalar
	Kgi     curve.Scalar
	Sga     [32]byte

	// Ks is the account's public spend key K_s = k_gi*G + k_ps*T.
	Ks curve.Point
	// Kv0 is the unblinded incoming-view pubkey K^0_v = k_vi*G.
	Kv0 curve.Point
	// Kv is the account's public view key K_v = k_vi*K_s.
	Kv curve.Point
}

// NewAccount derives the full key tree from a master secret.
func NewAccount(sMaster [32]byte) *Account {
	svb := hash.Blake2b32(sMaster[:], hash.DomainSeparator(domViewBalance))
	kps := curve.ScalarReduce64(hash.Blake2b64(sMaster[:], hash.DomainSeparator(domProveSpend)))
	kvi := curve.ScalarReduce64(hash.Blake2b64(svb[:], hash.DomainSeparator(domIncomingView)))
	kgi := curve.ScalarReduce64(hash.Blake2b64(svb[:], hash.DomainSeparator(domGenerateImage)))
	sga := hash.Blake2b32(svb[:], hash.DomainSeparator(domGenerateAddress))

	ks := curve.Add(curve.ScalarMultBase(kgi), curve.ScalarMult(kps, pedersen.H))
	kv0 := curve.ScalarMultBase(kvi)
	kv := curve.ScalarMult(kvi, ks)

	return &Account{
		SMaster: sMaster,
		Svb:     svb,
		Kps:     kps,
		Kvi:     kvi,
		Kgi:     kgi,
		Sga:     sga,
		Ks:      ks,
		Kv0:     kv0,
		Kv:      kv,
	}
}

// CoinbaseInputContext builds the 33-byte input context for a miner-tx
// enote: 'C' || block_height (LE64) || 24 zero bytes (spec.md §4.5).
func CoinbaseInputContext(height uint64) [33]byte {
	var out [33]byte
	out[0] = 'C'
	copy(out[1:9], hash.LE64(height))
	return out
}

// SpendInputContext builds the 33-byte input context for an RCT-spending
// tx enote: 'R' || the key image of the transaction's first input
// (spec.md §4.5).
func SpendInputContext(firstInputKeyImage [32]byte) [33]byte {
	var out [33]byte
	out[0] = 'R'
	copy(out[1:33], firstInputKeyImage[:])
	return out
}

// hashToScalar64 is CARROT's H_sc: a 64-byte keyed/unkeyed BLAKE2b digest
// over a domain-separated transcript, reduced mod L.
func hashToScalar64(key []byte, domain string, parts ...[]byte) curve.Scalar {
	data := hash.DomainSeparator(domain)
	for _, p := range parts {
		data = append(data, p...)
	}
	digest := hash.Blake2b64(key, data)
	return curve.ScalarReduce64(digest[:])
}

func hashBytes(key []byte, size int, domain string, parts ...[]byte) []byte {
	data := hash.DomainSeparator(domain)
	for _, p := range parts {
		data = append(data, p...)
	}
	out, err := hash.Blake2bKeyed(size, key, data)
	if err != nil {
		// size is always in [1,64] and key is always a 32-byte digest
		// for every call site in this package.
		panic("carrot: " + err.Error())
	}
	return out
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// Enote is a CARROT output record: a one-time address, encrypted
// amount, view tag and janus anchor, plus the Pedersen commitment that
// binds the output's value (spec.md §4.5).
type Enote struct {
	Ephemeral       curve.Point
	Onetime         curve.Point
	Commitment      curve.Point
	ViewTag         [3]byte
	EncryptedAmount [8]byte
	JanusAnchorEnc  [16]byte

	// Mask is the commitment mask Commitment was built with
	// (pedersen.Commit(amount, Mask)). CreateEnote exposes it so a
	// caller building the transaction's aggregate Bulletproofs+ proof
	// can pass the identical mask bulletproofs.Prove needs to reproduce
	// Commitment exactly.
	Mask curve.Scalar
}

// CreateEnote constructs a CARROT enote paying amount to the recipient
// identified by (recipientSpendPubkey, recipientView0). context is the
// 33-byte input context (CoinbaseInputContext or SpendInputContext);
// isSubaddress selects whether the ephemeral pubkey is derived against
// G or against the recipient's own spend pubkey (spec.md §4.5).
func CreateEnote(
	recipientSpendPubkey, recipientView0 curve.Point,
	amount uint64,
	context [33]byte,
	enoteType EnoteType,
	isSubaddress bool,
	randRead func([]byte) (int, error),
) (*Enote, error) {
	amountBytes := hash.LE64(amount)
	recipEnc := recipientSpendPubkey.Compress()

	kEph := hashToScalar64(nil, domEphemeralPrivkey, context[:], recipEnc[:], amountBytes)

	var kEphPoint curve.Point
	if isSubaddress {
		kEphPoint = curve.ScalarMult(kEph, recipientSpendPubkey)
	} else {
		kEphPoint = curve.ScalarMultBase(kEph)
	}

	u := curve.ToMontgomeryU(recipientView0)
	clamped := curve.ClampCarrot(kEph.Bytes())
	sSrUnctx := curve.X25519(clamped, u)

	sSrCtx := hash.Blake2b32(sSrUnctx[:], append(hash.DomainSeparator(domSenderReceiver), context[:]...))

	ext := hashToScalar64(sSrCtx[:], domOneTimeExtension)
	onetime := curve.Add(recipientSpendPubkey, curve.ScalarMultBase(ext))
	onetimeEnc := onetime.Compress()

	var viewTag [3]byte
	copy(viewTag[:], hashBytes(sSrUnctx[:], 3, domViewTag, context[:], onetimeEnc[:]))

	var anchor [16]byte
	if _, err := randRead(anchor[:]); err != nil {
		return nil, errs.Wrap(errs.InvalidEncoding, "carrot: reading janus anchor randomness", err)
	}
	janusKey := hashBytes(sSrCtx[:], 16, domJanusAnchor, onetimeEnc[:])
	var anchorEnc [16]byte
	xorBytes(anchorEnc[:], anchor[:], janusKey)

	mask := hashToScalar64(sSrCtx[:], domCommitmentMask, recipEnc[:], []byte{byte(enoteType)})
	commitment := pedersen.Commit(amount, mask)

	amtKey := hashBytes(sSrCtx[:], 8, domAmount, onetimeEnc[:])
	var encAmount [8]byte
	xorBytes(encAmount[:], amountBytes, amtKey)

	return &Enote{
		Ephemeral:       kEphPoint,
		Onetime:         onetime,
		Commitment:      commitment,
		ViewTag:         viewTag,
		EncryptedAmount: encAmount,
		JanusAnchorEnc:  anchorEnc,
		Mask:            mask,
	}, nil
}

// ScanResult is what ScanEnote recovers for an output that belongs to
// the scanning account.
type ScanResult struct {
	Amount      uint64
	Mask        curve.Scalar
	JanusAnchor [16]byte
	Major       int
	Minor       int

	// Extension is the recovered one-time-address extension scalar
	// ext = H_sc(s_sr^ctx, "extensions"). The G-component of the
	// spend-authority secret for this output is k_gi + Extension
	// (main address) -- the caller combines it with the account's k_gi
	// to key-image the output at spend time (spec.md §4.3's TCLSAG,
	// where this is the x/ringP secret).
	Extension curve.Scalar
}

// FindSpendPubkey looks up a candidate recovered spend pubkey against a
// wallet's account/subaddress table, reporting the (major, minor)
// subaddress index on a match. This models the "batch map" spec.md
// §4.5 describes the wallet populating ahead of a scan pass.
type FindSpendPubkey func(candidate curve.Point) (major, minor int, found bool)

// ScanEnote inverts CreateEnote using the account's incoming view key.
// It returns (nil, nil) when the enote's view tag or recovered spend
// pubkey don't match this account -- not an error, just "not ours".
// enoteType must be the type the caller expects for this output's
// position (coinbase outputs are always EnoteCoinbase; tx outputs are
// EnotePayment or EnoteChange).
func ScanEnote(kvi curve.Scalar, enote *Enote, context [33]byte, enoteType EnoteType, find FindSpendPubkey) (*ScanResult, error) {
	u := curve.ToMontgomeryU(enote.Ephemeral)
	clamped := curve.ClampCarrot(kvi.Bytes())
	sSrUnctx := curve.X25519(clamped, u)

	onetimeEnc := enote.Onetime.Compress()
	wantTag := hashBytes(sSrUnctx[:], 3, domViewTag, context[:], onetimeEnc[:])
	if wantTag[0] != enote.ViewTag[0] || wantTag[1] != enote.ViewTag[1] || wantTag[2] != enote.ViewTag[2] {
		return nil, nil
	}

	sSrCtx := hash.Blake2b32(sSrUnctx[:], append(hash.DomainSeparator(domSenderReceiver), context[:]...))

	ext := hashToScalar64(sSrCtx[:], domOneTimeExtension)
	candidateSpend := curve.Sub(enote.Onetime, curve.ScalarMultBase(ext))

	major, minor, found := find(candidateSpend)
	if !found {
		return nil, nil
	}
	candidateEnc := candidateSpend.Compress()

	amtKey := hashBytes(sSrCtx[:], 8, domAmount, onetimeEnc[:])
	var amountBytes [8]byte
	xorBytes(amountBytes[:], enote.EncryptedAmount[:], amtKey)
	amount := le64(amountBytes)

	mask := hashToScalar64(sSrCtx[:], domCommitmentMask, candidateEnc[:], []byte{byte(enoteType)})
	if !curve.Equal(pedersen.Commit(amount, mask), enote.Commitment) {
		return nil, errs.New(errs.InvalidProof, "carrot: decrypted amount/mask do not match the output commitment")
	}

	janusKey := hashBytes(sSrCtx[:], 16, domJanusAnchor, onetimeEnc[:])
	var anchor [16]byte
	xorBytes(anchor[:], enote.JanusAnchorEnc[:], janusKey)

	return &ScanResult{
		Amount:      amount,
		Mask:        mask,
		JanusAnchor: anchor,
		Major:       major,
		Minor:       minor,
		Extension:   ext,
	}, nil
}

func le64(b [8]byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
