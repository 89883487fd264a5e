package carrot

import (
	"crypto/rand"
	"testing"

	"github.com/mxhess/salvium-rs-sub002/curve"
	"github.com/mxhess/salvium-rs-sub002/pedersen"
)

func randomSeed(t *testing.T) [32]byte {
	t.Helper()
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return seed
}

func TestAccountKeyTreeIsDeterministic(t *testing.T) {
	seed := randomSeed(t)
	a1 := NewAccount(seed)
	a2 := NewAccount(seed)

	if !curve.Equal(a1.Ks, a2.Ks) || !curve.Equal(a1.Kv0, a2.Kv0) || !curve.Equal(a1.Kv, a2.Kv) {
		t.Fatalf("NewAccount is not deterministic for a fixed master secret")
	}
	if a1.Kvi != a2.Kvi || a1.Kgi != a2.Kgi || a1.Kps != a2.Kps {
		t.Fatalf("derived scalars are not deterministic for a fixed master secret")
	}
}

func TestKvEqualsKviTimesKs(t *testing.T) {
	seed := randomSeed(t)
	a := NewAccount(seed)
	if !curve.Equal(a.Kv, curve.ScalarMult(a.Kvi, a.Ks)) {
		t.Fatalf("K_v != k_vi * K_s")
	}
}

func TestScanRoundTripMainAddressPaymentCoinbase(t *testing.T) {
	seed := randomSeed(t)
	acct := NewAccount(seed)

	findMain := func(candidate curve.Point) (int, int, bool) {
		if curve.Equal(candidate, acct.Ks) {
			return 0, 0, true
		}
		return 0, 0, false
	}

	cases := []struct {
		name      string
		amount    uint64
		enoteType EnoteType
		context   [33]byte
	}{
		{"payment", 123456789, EnotePayment, SpendInputContext([32]byte{1, 2, 3})},
		{"change", 1, EnoteChange, SpendInputContext([32]byte{9, 9, 9})},
		{"coinbase", ^uint64(0), EnoteCoinbase, CoinbaseInputContext(1_234_567)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enote, err := CreateEnote(acct.Ks, acct.Kv0, tc.amount, tc.context, tc.enoteType, false, rand.Read)
			if err != nil {
				t.Fatalf("CreateEnote: %v", err)
			}

			result, err := ScanEnote(acct.Kvi, enote, tc.context, tc.enoteType, findMain)
			if err != nil {
				t.Fatalf("ScanEnote: %v", err)
			}
			if result == nil {
				t.Fatalf("ScanEnote did not recognize an enote addressed to this account")
			}
			if result.Amount != tc.amount {
				t.Fatalf("recovered amount %d, want %d", result.Amount, tc.amount)
			}
			if result.Major != 0 || result.Minor != 0 {
				t.Fatalf("recovered subaddress index (%d,%d), want (0,0)", result.Major, result.Minor)
			}
			if !curve.Equal(pedersen.Commit(tc.amount, result.Mask), enote.Commitment) {
				t.Fatalf("recovered mask does not reopen the output commitment")
			}
		})
	}
}

func TestScanRejectsWrongAccount(t *testing.T) {
	seedA := randomSeed(t)
	seedB := randomSeed(t)
	acctA := NewAccount(seedA)
	acctB := NewAccount(seedB)

	ctx := SpendInputContext([32]byte{7})
	enote, err := CreateEnote(acctA.Ks, acctA.Kv0, 42, ctx, EnotePayment, false, rand.Read)
	if err != nil {
		t.Fatalf("CreateEnote: %v", err)
	}

	findB := func(candidate curve.Point) (int, int, bool) {
		return 0, 0, curve.Equal(candidate, acctB.Ks)
	}

	result, err := ScanEnote(acctB.Kvi, enote, ctx, EnotePayment, findB)
	if err != nil {
		t.Fatalf("ScanEnote returned an error instead of a clean non-match: %v", err)
	}
	if result != nil {
		t.Fatalf("account B's scan incorrectly claimed account A's output")
	}
}

func TestScanRejectsTamperedCommitment(t *testing.T) {
	seed := randomSeed(t)
	acct := NewAccount(seed)
	ctx := SpendInputContext([32]byte{3, 1, 4})

	enote, err := CreateEnote(acct.Ks, acct.Kv0, 777, ctx, EnotePayment, false, rand.Read)
	if err != nil {
		t.Fatalf("CreateEnote: %v", err)
	}
	enote.Commitment = curve.ScalarMultBase(curve.ScalarFromUint64(999))

	find := func(candidate curve.Point) (int, int, bool) {
		return 0, 0, curve.Equal(candidate, acct.Ks)
	}

	if _, err := ScanEnote(acct.Kvi, enote, ctx, EnotePayment, find); err == nil {
		t.Fatalf("ScanEnote accepted an output whose commitment doesn't match the decrypted amount/mask")
	}
}

func TestScanRejectsWrongEnoteType(t *testing.T) {
	seed := randomSeed(t)
	acct := NewAccount(seed)
	ctx := SpendInputContext([32]byte{5, 5, 5})

	enote, err := CreateEnote(acct.Ks, acct.Kv0, 555, ctx, EnotePayment, false, rand.Read)
	if err != nil {
		t.Fatalf("CreateEnote: %v", err)
	}

	find := func(candidate curve.Point) (int, int, bool) {
		return 0, 0, curve.Equal(candidate, acct.Ks)
	}

	if _, err := ScanEnote(acct.Kvi, enote, ctx, EnoteChange, find); err == nil {
		t.Fatalf("ScanEnote accepted an output scanned with the wrong enote type")
	}
}
