// Package utxo implements the layered coin view: a persistent base store,
// stackable in-memory caches for tentative apply/rollback, and a read-only
// overlay that lets mempool transactions resolve each other's prevouts.
package utxo

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// MempoolHeight is the pseudo-height assigned to Coins records synthesized
// from an unconfirmed mempool transaction.
const MempoolHeight = 0x7fffffff

// View is the read/write contract every layer of the coin view satisfies.
type View interface {
	GetCoins(txHash chainhash.Hash) (*model.Coins, bool)
	HaveCoins(txHash chainhash.Hash) bool
	SetCoins(txHash chainhash.Hash, coins *model.Coins) error
	GetOutput(op model.OutPoint) (*model.TxOut, bool)
	HaveInputs(tx *model.Tx) bool
	BestBlock() (chainhash.Hash, bool)
	SetBestBlock(hash chainhash.Hash)
	Flush() error
	CacheSize() int
}

// haveInputs implements the shared have-all-prevouts check used by every
// View implementation.
func haveInputs(v View, tx *model.Tx) bool {
	for _, in := range tx.Inputs {
		if in.PreviousOutPoint.IsNull() {
			continue
		}

		if _, ok := v.GetOutput(in.PreviousOutPoint); !ok {
			return false
		}
	}

	return true
}

// getOutput implements the shared get-output convenience built from
// GetCoins, used by every View implementation.
func getOutput(v View, op model.OutPoint) (*model.TxOut, bool) {
	coins, ok := v.GetCoins(op.Hash)
	if !ok {
		return nil, false
	}

	out := coins.GetOutput(op.Index)
	if out == nil {
		return nil, false
	}

	return out, true
}
