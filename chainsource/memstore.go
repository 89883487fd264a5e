package chainsource

import (
	"sort"
	"sync"

	"github.com/mxhess/salvium-rs-sub002/errs"
)

// MemStore is an in-memory WalletStore, used by walletsync's tests and
// by callers that want a zero-dependency store before wiring a real
// persistence layer.
type MemStore struct {
	mu sync.RWMutex

	open bool

	outputs      map[[32]byte]WalletOutput
	transactions map[[32]byte]StoredTx
	blockHashes  map[uint64][32]byte
	syncHeight   uint64
}

// NewMemStore constructs an empty, unopened MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		outputs:      make(map[[32]byte]WalletOutput),
		transactions: make(map[[32]byte]StoredTx),
		blockHashes:  make(map[uint64][32]byte),
	}
}

func (s *MemStore) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = make(map[[32]byte]WalletOutput)
	s.transactions = make(map[[32]byte]StoredTx)
	s.blockHashes = make(map[uint64][32]byte)
	s.syncHeight = 0
	return nil
}

func (s *MemStore) PutOutput(o WalletOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[o.KeyImage] = o
	return nil
}

func (s *MemStore) GetOutput(keyImage [32]byte) (WalletOutput, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outputs[keyImage]
	return o, ok, nil
}

func (s *MemStore) GetOutputs(filter OutputFilter) ([]WalletOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []WalletOutput
	for _, o := range s.outputs {
		if filter.AssetType != nil && o.AssetType != *filter.AssetType {
			continue
		}
		if filter.AccountIndex != nil && o.AccountIndex != *filter.AccountIndex {
			continue
		}
		if filter.Spent != nil && o.Spent != *filter.Spent {
			continue
		}
		if filter.MinHeight != nil && o.Height < *filter.MinHeight {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out, nil
}

func (s *MemStore) MarkSpent(keyImage [32]byte, txHash [32]byte, height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outputs[keyImage]
	if !ok {
		return errs.New(errs.StoreError, "chainsource: mark spent on unknown output")
	}
	o.Spent = true
	o.SpentTxHash = txHash
	o.SpentHeight = height
	s.outputs[keyImage] = o
	return nil
}

func (s *MemStore) PutTransaction(tx StoredTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.TxHash] = tx
	return nil
}

func (s *MemStore) GetTransaction(hash [32]byte) (StoredTx, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[hash]
	return tx, ok, nil
}

func (s *MemStore) GetTransactions(filter TxFilter) ([]StoredTx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []StoredTx
	for _, tx := range s.transactions {
		if filter.MinHeight != nil && tx.Height < *filter.MinHeight {
			continue
		}
		if filter.MaxHeight != nil && tx.Height > *filter.MaxHeight {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out, nil
}

func (s *MemStore) SyncHeight() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncHeight, nil
}

func (s *MemStore) SetSyncHeight(h uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncHeight = h
	return nil
}

func (s *MemStore) BlockHash(height uint64) ([32]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.blockHashes[height]
	return h, ok, nil
}

func (s *MemStore) SetBlockHash(height uint64, hash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockHashes[height] = hash
	return nil
}

// Rollback deletes every output, transaction and block hash recorded
// above height, and un-spends any output whose SpentHeight exceeds
// height (spec.md §6).
func (s *MemStore) Rollback(height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ki, o := range s.outputs {
		if o.Height > height {
			delete(s.outputs, ki)
			continue
		}
		if o.Spent && o.SpentHeight > height {
			o.Spent = false
			o.SpentTxHash = [32]byte{}
			o.SpentHeight = 0
			s.outputs[ki] = o
		}
	}
	for hash, tx := range s.transactions {
		if tx.Height > height {
			delete(s.transactions, hash)
		}
	}
	for h := range s.blockHashes {
		if h > height {
			delete(s.blockHashes, h)
		}
	}
	if s.syncHeight > height {
		s.syncHeight = height
	}
	return nil
}

func (s *MemStore) GetBalance(currentHeight uint64, assetType string, accountIndex uint32) (Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bal Balance
	for _, o := range s.outputs {
		if o.AssetType != assetType || o.AccountIndex != accountIndex || o.Spent {
			continue
		}
		bal.Balance += o.Amount
		if o.Height+10 <= currentHeight && o.UnlockTime <= currentHeight {
			bal.UnlockedBalance += o.Amount
		} else {
			bal.LockedBalance += o.Amount
		}
	}
	return bal, nil
}

var _ WalletStore = (*MemStore)(nil)
