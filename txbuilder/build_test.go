package txbuilder

import (
	"bytes"
	"context"
	"crypto/rand"
	mathrand "math/rand"
	"testing"

	"github.com/mxhess/salvium-rs-sub002/carrot"
	"github.com/mxhess/salvium-rs-sub002/bulletproofs"
	"github.com/mxhess/salvium-rs-sub002/chainsource"
	"github.com/mxhess/salvium-rs-sub002/clsag"
	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/pedersen"
	"github.com/mxhess/salvium-rs-sub002/txcodec"
)

// fakeBuildChain is a ChainSource test double that manufactures a
// deterministic decoy point for every global output index on demand,
// so SelectRing's sampled indices always resolve to something signable.
type fakeBuildChain struct {
	dist chainsource.OutputDistribution
}

func (c *fakeBuildChain) GetInfo(ctx context.Context) (chainsource.ChainInfo, error) {
	return chainsource.ChainInfo{}, nil
}

func (c *fakeBuildChain) GetBlockHeaders(ctx context.Context, start, end uint64) ([]chainsource.BlockHeader, error) {
	return nil, nil
}

func (c *fakeBuildChain) GetBlock(ctx context.Context, height uint64) (chainsource.Block, error) {
	return chainsource.Block{}, nil
}

func (c *fakeBuildChain) GetTransactions(ctx context.Context, hashes [][32]byte) ([]chainsource.RawTx, error) {
	return nil, nil
}

func (c *fakeBuildChain) GetMempool(ctx context.Context) ([]chainsource.RawTx, error) {
	return nil, nil
}

func (c *fakeBuildChain) GetOutputDistribution(ctx context.Context, assetType string) (chainsource.OutputDistribution, error) {
	return c.dist, nil
}

func (c *fakeBuildChain) GetOutputs(ctx context.Context, assetType string, globalIndices []uint64) ([]chainsource.RingMember, error) {
	out := make([]chainsource.RingMember, len(globalIndices))
	for i, idx := range globalIndices {
		key := curve.ScalarMultBase(curve.ScalarFromUint64(idx*2 + 1))
		mask := curve.ScalarFromUint64(idx*2 + 2)
		commitment := pedersen.Commit(0, mask)
		out[i] = chainsource.RingMember{
			GlobalIndex: idx,
			Key:         key.Compress(),
			Commitment:  commitment.Compress(),
			Height:      0,
		}
	}
	return out, nil
}

var _ chainsource.ChainSource = (*fakeBuildChain)(nil)

func relativeToAbsoluteOffsets(rel []uint64) []uint64 {
	abs := make([]uint64, len(rel))
	var prev uint64
	for i, v := range rel {
		if i == 0 {
			abs[i] = v
		} else {
			abs[i] = prev + v
		}
		prev = abs[i]
	}
	return abs
}

func TestBuilderBuildProducesVerifiableTransaction(t *testing.T) {
	dist := makeDistribution(0, 1000, 5)
	chain := &fakeBuildChain{dist: dist}

	const currentHeight = 900
	const realHeight = 400
	realIndex := outputCountAt(dist, realHeight) - 1

	spendSecret := mustScalar(t)
	spendKey := curve.ScalarMultBase(spendSecret)
	inputMask := mustScalar(t)
	const inputAmount = 100_000_000
	inputCommitment := pedersen.Commit(inputAmount, inputMask)

	input := SpendableOutput{
		GlobalIndex: realIndex,
		Height:      realHeight,
		AssetType:   "SAL",
		Key:         spendKey,
		Commitment:  inputCommitment,
		Amount:      inputAmount,
		Mask:        inputMask,
		Spend:       spendSecret,
	}

	recipientSpend := curve.ScalarMultBase(mustScalar(t))
	recipientView := curve.ScalarMultBase(mustScalar(t))

	weight := estimateWeight(1, 1, 11)
	fee := EstimateFee(weight, PriorityNormal)
	recipient := Recipient{
		SpendPubkey:  recipientSpend,
		View0:        recipientView,
		Amount:       inputAmount - fee,
		IsSubaddress: false,
		EnoteType:    carrot.EnotePayment,
	}

	b := NewBuilder(chain, mathrand.New(mathrand.NewSource(7)))
	tx, err := b.Build(context.Background(), currentHeight, "SAL", []SpendableOutput{input}, []Recipient{recipient})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	enc := tx.Encode(nil)
	decoded, n, err := txcodec.DecodeTransaction(enc)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d bytes, want %d", n, len(enc))
	}
	reenc := decoded.Encode(nil)
	if !bytes.Equal(enc, reenc) {
		t.Fatalf("transaction round trip did not reproduce the original bytes")
	}

	if decoded.Rct.Type != txcodec.RctBulletproofPlus {
		t.Fatalf("rct type = %v, want RctBulletproofPlus", decoded.Rct.Type)
	}
	if decoded.Rct.Fee != fee {
		t.Fatalf("fee = %d, want %d", decoded.Rct.Fee, fee)
	}

	if err := bulletproofs.Verify(decoded.Prunable.BulletproofsPlus[0], decoded.Rct.OutPk); err != nil {
		t.Fatalf("bulletproofs.Verify: %v", err)
	}

	in0, ok := decoded.Prefix.Inputs[0].(txcodec.TxInKey)
	if !ok {
		t.Fatalf("decoded input is not a TxInKey")
	}
	abs := relativeToAbsoluteOffsets(in0.KeyOffsets)

	members, err := chain.GetOutputs(context.Background(), "SAL", abs)
	if err != nil {
		t.Fatalf("GetOutputs: %v", err)
	}
	ring := make([]curve.Point, len(abs))
	commitments := make([]curve.Point, len(abs))
	for i, idx := range abs {
		if idx == realIndex {
			ring[i] = spendKey
			commitments[i] = inputCommitment
			continue
		}
		k, err := curve.Decompress(members[i].Key)
		if err != nil {
			t.Fatalf("decompress ring key: %v", err)
		}
		c, err := curve.Decompress(members[i].Commitment)
		if err != nil {
			t.Fatalf("decompress ring commitment: %v", err)
		}
		ring[i] = k
		commitments[i] = c
	}

	prefixHash := txcodec.TransactionPrefixHash(decoded.Prefix)
	pseudoOut := decoded.Prunable.PseudoOuts[0]
	if err := clsag.Verify(prefixHash, decoded.Prunable.Clsags[0], ring, commitments, pseudoOut); err != nil {
		t.Fatalf("clsag.Verify: %v", err)
	}

	expectedKeyImage := clsag.KeyImage(spendSecret, spendKey).Compress()
	if in0.KeyImage != expectedKeyImage {
		t.Fatalf("key image does not match the expected spend key image")
	}
}

func TestBuilderBuildRejectsEmptyInputsOrRecipients(t *testing.T) {
	chain := &fakeBuildChain{dist: makeDistribution(0, 10, 5)}
	b := NewBuilder(chain, mathrand.New(mathrand.NewSource(1)))

	recipient := Recipient{
		SpendPubkey: curve.ScalarMultBase(mustScalar(t)),
		View0:       curve.ScalarMultBase(mustScalar(t)),
		Amount:      1000,
	}
	if _, err := b.Build(context.Background(), 100, "SAL", nil, []Recipient{recipient}); err == nil {
		t.Fatalf("expected an error with no inputs")
	}

	input := SpendableOutput{GlobalIndex: 1, Height: 1, AssetType: "SAL", Amount: 1000}
	if _, err := b.Build(context.Background(), 100, "SAL", []SpendableOutput{input}, nil); err == nil {
		t.Fatalf("expected an error with no recipients")
	}
}

func TestBuilderBuildRejectsInsufficientFunds(t *testing.T) {
	dist := makeDistribution(0, 1000, 5)
	chain := &fakeBuildChain{dist: dist}

	const currentHeight = 900
	const realHeight = 400
	realIndex := outputCountAt(dist, realHeight) - 1

	spendSecret := mustScalar(t)
	spendKey := curve.ScalarMultBase(spendSecret)
	inputMask := mustScalar(t)
	const inputAmount = 100

	input := SpendableOutput{
		GlobalIndex: realIndex,
		Height:      realHeight,
		AssetType:   "SAL",
		Key:         spendKey,
		Commitment:  pedersen.Commit(inputAmount, inputMask),
		Amount:      inputAmount,
		Mask:        inputMask,
		Spend:       spendSecret,
	}
	recipient := Recipient{
		SpendPubkey: curve.ScalarMultBase(mustScalar(t)),
		View0:       curve.ScalarMultBase(mustScalar(t)),
		Amount:      inputAmount,
	}

	b := NewBuilder(chain, mathrand.New(mathrand.NewSource(1)))
	if _, err := b.Build(context.Background(), currentHeight, "SAL", []SpendableOutput{input}, []Recipient{recipient}); err == nil {
		t.Fatalf("expected an error when inputs do not cover outputs plus fee")
	}
}

func mustScalar(t *testing.T) curve.Scalar {
	t.Helper()
	s, err := curve.ScalarRandom(rand.Read)
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	return s
}
