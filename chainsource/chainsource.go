// Package chainsource defines the external collaborators walletsync
// drives: a read-only view of the chain (ChainSource) and a persistence
// layer for scanned outputs and transactions (WalletStore). Both are
// interfaces plus the data-transfer types their methods exchange; the
// only implementation here is MemStore, an in-memory WalletStore
// (memstore.go). No ChainSource implementation lives here.
package chainsource

import "context"

// ChainInfo is the reply to GetInfo: the daemon's current chain tip.
type ChainInfo struct {
	Height uint64
}

// BlockHeader is the reply element of GetBlockHeaders.
type BlockHeader struct {
	Height    uint64
	Hash      [32]byte
	Timestamp uint64
}

// RawTx is an undecoded transaction as the daemon returns it: callers
// hand TxHex to txcodec.DecodeTxPrefix/DecodeRctSignatureBase.
type RawTx struct {
	TxHash [32]byte
	TxHex  []byte
}

// Block is the reply to GetBlock: the header, the non-coinbase
// transaction hashes, and the two always-present special transactions
// (the miner/coinbase tx and, for Salvium, the protocol tx carrying
// oracle-conversion bookkeeping).
type Block struct {
	Header      BlockHeader
	TxHashes    [][32]byte
	MinerTx     RawTx
	ProtocolTx  RawTx
	HasProtocol bool
}

// OutputDistribution is the reply to GetOutputDistribution: the
// cumulative count of outputs of AssetType up to and including each
// height in the returned range, used to weight decoy selection by
// output density (spec.md §4.6).
type OutputDistribution struct {
	StartHeight uint64
	Distribution []uint64
}

// RingMember is one candidate ring entry txbuilder's decoy selection
// resolves a global output index to: the one-time key and commitment a
// CLSAG/TCLSAG ring needs, plus the height it was created at (so the
// caller can double check the spendable-age window). This supplements
// spec.md §6's chain-source list with the one daemon call decoy
// selection cannot do without (the real network's equivalent is
// get_outs.bin) -- named here since §6 names "get_output_distribution
// for decoy selection" but decoy selection also needs to resolve the
// indices that distribution yields into actual ring material.
type RingMember struct {
	GlobalIndex uint64
	Key         [32]byte
	Commitment  [32]byte
	Height      uint64
}

// ChainSource is the read-only daemon surface wallet_sync and
// txbuilder consume (spec.md §6). Implementations own the transport
// (RPC, IPC, in-process test double); this package only names the
// contract.
type ChainSource interface {
	GetInfo(ctx context.Context) (ChainInfo, error)
	GetBlockHeaders(ctx context.Context, start, end uint64) ([]BlockHeader, error)
	GetBlock(ctx context.Context, height uint64) (Block, error)
	GetTransactions(ctx context.Context, hashes [][32]byte) ([]RawTx, error)
	GetMempool(ctx context.Context) ([]RawTx, error)
	GetOutputDistribution(ctx context.Context, assetType string) (OutputDistribution, error)
	GetOutputs(ctx context.Context, assetType string, globalIndices []uint64) ([]RingMember, error)
}

// OutputFilter narrows WalletStore.GetOutputs queries. A zero value
// matches everything; a non-nil pointer field restricts to that value.
type OutputFilter struct {
	AssetType     *string
	AccountIndex  *uint32
	Spent         *bool
	MinHeight     *uint64
}

// TxFilter narrows WalletStore.GetTransactions.
type TxFilter struct {
	MinHeight *uint64
	MaxHeight *uint64
}

// Balance is the reply to WalletStore.GetBalance.
type Balance struct {
	Balance         uint64
	UnlockedBalance uint64
	LockedBalance   uint64
}

// WalletOutput is a scanned output recorded by the store (spec.md §3).
type WalletOutput struct {
	KeyImage     [32]byte
	TxHash       [32]byte
	OutputIndex  uint64
	Height       uint64
	AssetType    string
	Amount       uint64
	Mask         [32]byte
	AccountIndex uint32
	SubIndex     uint32
	Spent        bool
	SpentTxHash  [32]byte
	SpentHeight  uint64
	UnlockTime   uint64
}

// StoredTx is a transaction record the store persists alongside its
// outputs, for history and resync bookkeeping.
type StoredTx struct {
	TxHash      [32]byte
	Height      uint64
	Fee         uint64
	Confirmed   bool
}

// WalletStore is the persistence surface wallet_sync drives (spec.md
// §6). Rollback must be atomic: it deletes every output, transaction
// and block hash recorded above height, and un-spends any output whose
// SpentHeight exceeds height.
type WalletStore interface {
	Open() error
	Close() error
	Clear() error

	PutOutput(WalletOutput) error
	GetOutput(keyImage [32]byte) (WalletOutput, bool, error)
	GetOutputs(filter OutputFilter) ([]WalletOutput, error)
	MarkSpent(keyImage [32]byte, txHash [32]byte, height uint64) error

	PutTransaction(StoredTx) error
	GetTransaction(hash [32]byte) (StoredTx, bool, error)
	GetTransactions(filter TxFilter) ([]StoredTx, error)

	SyncHeight() (uint64, error)
	SetSyncHeight(uint64) error
	BlockHash(height uint64) ([32]byte, bool, error)
	SetBlockHash(height uint64, hash [32]byte) error

	Rollback(height uint64) error

	GetBalance(currentHeight uint64, assetType string, accountIndex uint32) (Balance, error)
}
