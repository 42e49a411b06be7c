package blocktemplate

import "github.com/bsv-blockchain/chaincore/utxo"

// computePriority fills in info.Priority as Σ value·age / effective_size,
// where age is how many blocks have passed since each input confirmed (a
// still-pooled input contributes zero age) and effective_size is the
// entry's own transaction size.
func computePriority(info *TxInfo, view utxo.View, height int32) {
	var weighted int64

	for _, in := range info.Entry.Tx.Inputs {
		coins, ok := view.GetCoins(in.PreviousOutPoint.Hash)
		if !ok {
			continue
		}

		out := coins.GetOutput(in.PreviousOutPoint.Index)
		if out == nil {
			continue
		}

		age := int64(0)
		if coins.Height != uint32(utxo.MempoolHeight) && int32(coins.Height) < height {
			age = int64(height - int32(coins.Height))
		}

		weighted += out.Value * age
	}

	if info.Entry.Size == 0 {
		info.Priority = 0
		return
	}

	info.Priority = float64(weighted) / float64(info.Entry.Size)
}

// isFree reports whether info still qualifies as a "free" candidate for the
// priority phase: its effective fee rate is below the pool's own minimum
// relay fee floor.
func isFree(info *TxInfo, minRelayFeePerKB float64) bool {
	minFee := minRelayFeePerKB * 1e8

	return info.FeeRate() < minFee
}
