package chainsource

import "testing"

func TestMemStorePutGetOutput(t *testing.T) {
	s := NewMemStore()
	var ki [32]byte
	ki[0] = 1
	o := WalletOutput{KeyImage: ki, Height: 10, AssetType: "SAL", Amount: 500}
	if err := s.PutOutput(o); err != nil {
		t.Fatalf("PutOutput: %v", err)
	}
	got, ok, err := s.GetOutput(ki)
	if err != nil || !ok {
		t.Fatalf("GetOutput: ok=%v err=%v", ok, err)
	}
	if got.Amount != 500 {
		t.Fatalf("amount = %d, want 500", got.Amount)
	}
}

func TestMemStoreMarkSpentUnknownOutput(t *testing.T) {
	s := NewMemStore()
	var ki, tx [32]byte
	if err := s.MarkSpent(ki, tx, 5); err == nil {
		t.Fatalf("expected error marking unknown output spent")
	}
}

func TestMemStoreRollbackDeletesAboveHeightAndUnspends(t *testing.T) {
	s := NewMemStore()
	var ki1, ki2, tx1 [32]byte
	ki1[0], ki2[0] = 1, 2

	if err := s.PutOutput(WalletOutput{KeyImage: ki1, Height: 5, AssetType: "SAL", Amount: 100}); err != nil {
		t.Fatalf("PutOutput: %v", err)
	}
	if err := s.PutOutput(WalletOutput{KeyImage: ki2, Height: 20, AssetType: "SAL", Amount: 200}); err != nil {
		t.Fatalf("PutOutput: %v", err)
	}
	if err := s.MarkSpent(ki1, tx1, 15); err != nil {
		t.Fatalf("MarkSpent: %v", err)
	}
	if err := s.SetBlockHash(5, [32]byte{9}); err != nil {
		t.Fatalf("SetBlockHash: %v", err)
	}
	if err := s.SetBlockHash(20, [32]byte{8}); err != nil {
		t.Fatalf("SetBlockHash: %v", err)
	}
	if err := s.SetSyncHeight(20); err != nil {
		t.Fatalf("SetSyncHeight: %v", err)
	}

	if err := s.Rollback(10); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, ok, _ := s.GetOutput(ki2); ok {
		t.Fatalf("output above rollback height was not deleted")
	}
	got, ok, err := s.GetOutput(ki1)
	if err != nil || !ok {
		t.Fatalf("output at or below rollback height should survive")
	}
	if got.Spent {
		t.Fatalf("output spent above rollback height should be un-spent")
	}
	if _, ok, _ := s.BlockHash(20); ok {
		t.Fatalf("block hash above rollback height was not deleted")
	}
	h, err := s.SyncHeight()
	if err != nil || h != 10 {
		t.Fatalf("sync height = %d, want 10 (err=%v)", h, err)
	}
}

func TestMemStoreGetBalanceLockedVsUnlocked(t *testing.T) {
	s := NewMemStore()
	var ki1, ki2 [32]byte
	ki1[0], ki2[0] = 1, 2
	if err := s.PutOutput(WalletOutput{KeyImage: ki1, Height: 100, AssetType: "SAL", Amount: 100}); err != nil {
		t.Fatalf("PutOutput: %v", err)
	}
	if err := s.PutOutput(WalletOutput{KeyImage: ki2, Height: 195, AssetType: "SAL", Amount: 50}); err != nil {
		t.Fatalf("PutOutput: %v", err)
	}
	bal, err := s.GetBalance(200, "SAL", 0)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal.Balance != 150 {
		t.Fatalf("balance = %d, want 150", bal.Balance)
	}
	if bal.UnlockedBalance != 100 || bal.LockedBalance != 50 {
		t.Fatalf("unlocked=%d locked=%d, want 100/50", bal.UnlockedBalance, bal.LockedBalance)
	}
}
