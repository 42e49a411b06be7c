// Package blocktemplate assembles a fee-maximising, dependency-respecting
// subset of the mempool into a candidate block (§4.6).
package blocktemplate

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/mempool"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/txrules"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// TxInfo is one candidate's bookkeeping for template assembly: its mempool
// entry, the parents it still depends on, the children waiting on it, and
// the priority/fee numbers the two selection phases rank by.
type TxInfo struct {
	Entry *mempool.Entry

	DependsOn  map[chainhash.Hash]struct{}
	Dependents map[chainhash.Hash]struct{}

	Priority   float64
	DeltaFee   int64
	DeltaPrio  float64

	included bool
}

// Hash returns the candidate's txid.
func (t *TxInfo) Hash() chainhash.Hash {
	return *t.Entry.Tx.TxID()
}

// FeeRate is the effective fee rate including the CPFP bound and any
// manually-applied priority delta.
func (t *TxInfo) FeeRate() float64 {
	size := t.Entry.SumSize
	if size == 0 {
		return 0
	}

	return float64(t.Entry.SumFees+t.DeltaFee) / float64(size) * 1000
}

// EffectivePriority returns Σ value·age / effective_size for the priority
// phase, plus any manually-applied priority delta.
func (t *TxInfo) EffectivePriority() float64 {
	return t.Priority + t.DeltaPrio
}

// sigOps counts this candidate's own legacy plus P2SH sigops against view,
// the same accounting ConnectBlock uses.
func (t *TxInfo) sigOps(view utxo.View) int {
	count := 0

	for _, in := range t.Entry.Tx.Inputs {
		count += txrules.CountLegacySigOps(in.UnlockingScript)
	}

	for _, out := range t.Entry.Tx.Outputs {
		count += txrules.CountLegacySigOps(out.LockingScript)
	}

	count += txrules.CountP2SHSigOps(t.Entry.Tx, view)

	return count
}

// buildCandidates builds one TxInfo per mempool entry, skipping coinbases
// (the pool never holds one) and transactions not yet final at
// (height, blockTime). Dependency edges are derived from which other
// candidates' outputs a candidate's inputs spend.
func buildCandidates(entries []*mempool.Entry, pool *mempool.Pool, height int32, isFinal func(*model.Tx) bool) map[chainhash.Hash]*TxInfo {
	candidates := make(map[chainhash.Hash]*TxInfo, len(entries))

	for _, e := range entries {
		if !isFinal(e.Tx) {
			continue
		}

		hash := *e.Tx.TxID()

		prio, feeDelta := pool.Delta(hash)

		candidates[hash] = &TxInfo{
			Entry:      e,
			DependsOn:  make(map[chainhash.Hash]struct{}),
			Dependents: make(map[chainhash.Hash]struct{}),
			DeltaPrio:  prio,
			DeltaFee:   feeDelta,
		}
	}

	for hash, info := range candidates {
		for _, in := range info.Entry.Tx.Inputs {
			parentHash := in.PreviousOutPoint.Hash

			if parent, ok := candidates[parentHash]; ok {
				info.DependsOn[parentHash] = struct{}{}
				parent.Dependents[hash] = struct{}{}
			}
		}
	}

	return candidates
}
