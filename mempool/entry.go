// Package mempool holds validated, unconfirmed transactions indexed for
// fast lookup by txid and by prevout, maintaining child-pays-for-parent
// priority summaries for the block template builder.
package mempool

import (
	"time"

	"github.com/bsv-blockchain/chaincore/model"
)

// Entry is one pooled transaction plus the bookkeeping needed for CPFP
// ranking and conflict/descendant tracking.
type Entry struct {
	Tx     *model.Tx
	Size   int
	Fee    int64
	Height int32
	Time   time.Time

	// SumSize, SumFees and Depth are the CPFP summary: the pessimistic
	// size bound across shared ancestors, the max-not-sum fee bound that
	// keeps a single parent's fee from being claimed by multiple
	// children, and the longest in-mempool ancestor chain.
	SumSize int
	SumFees int64
	Depth   int
}

// FeeRate is fee per 1000 bytes of the entry's own size, ignoring ancestors.
func (e *Entry) FeeRate() float64 {
	if e.Size == 0 {
		return 0
	}

	return float64(e.Fee) / float64(e.Size) * 1000
}

// EffectiveFeeRate is fee per 1000 bytes measured against the CPFP size
// bound, the rate a block-template builder should actually rank by.
func (e *Entry) EffectiveFeeRate() float64 {
	if e.SumSize == 0 {
		return 0
	}

	return float64(e.SumFees) / float64(e.SumSize) * 1000
}
