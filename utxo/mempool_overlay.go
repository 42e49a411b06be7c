package utxo

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// TxLookup resolves a txid to its mempool transaction, satisfied by the
// mempool package's own index without this package importing it back.
type TxLookup interface {
	GetTx(txHash chainhash.Hash) (*model.Tx, bool)
}

// MempoolOverlay is a read-only view that, on a parent miss, synthesizes a
// Coins record from a pooled mempool transaction at MempoolHeight. It lets
// one in-flight transaction's inputs resolve against another still-pooled
// transaction's outputs.
type MempoolOverlay struct {
	parent View
	pool   TxLookup
}

// NewMempoolOverlay wraps parent with read-through synthesis from pool.
func NewMempoolOverlay(parent View, pool TxLookup) *MempoolOverlay {
	return &MempoolOverlay{parent: parent, pool: pool}
}

// GetCoins returns the parent's record if present, otherwise synthesizes
// one from a same-hash pooled transaction.
func (m *MempoolOverlay) GetCoins(txHash chainhash.Hash) (*model.Coins, bool) {
	if coins, ok := m.parent.GetCoins(txHash); ok {
		return coins, true
	}

	tx, ok := m.pool.GetTx(txHash)
	if !ok {
		return nil, false
	}

	return model.NewCoinsFromTx(tx, MempoolHeight), true
}

// HaveCoins reports presence via GetCoins.
func (m *MempoolOverlay) HaveCoins(txHash chainhash.Hash) bool {
	_, ok := m.GetCoins(txHash)
	return ok
}

// SetCoins always fails: the overlay is read-only.
func (m *MempoolOverlay) SetCoins(_ chainhash.Hash, _ *model.Coins) error {
	return fmt.Errorf("mempool overlay is read-only")
}

// GetOutput is the shared View convenience built on GetCoins.
func (m *MempoolOverlay) GetOutput(op model.OutPoint) (*model.TxOut, bool) {
	return getOutput(m, op)
}

// HaveInputs is the shared View convenience built on GetOutput.
func (m *MempoolOverlay) HaveInputs(tx *model.Tx) bool {
	return haveInputs(m, tx)
}

// BestBlock delegates to the parent.
func (m *MempoolOverlay) BestBlock() (chainhash.Hash, bool) {
	return m.parent.BestBlock()
}

// SetBestBlock is a no-op: the overlay never owns the best-block marker.
func (m *MempoolOverlay) SetBestBlock(_ chainhash.Hash) {}

// Flush is a no-op: the overlay holds no writable delta.
func (m *MempoolOverlay) Flush() error {
	return nil
}

// CacheSize is always zero: the overlay caches nothing of its own.
func (m *MempoolOverlay) CacheSize() int {
	return 0
}
