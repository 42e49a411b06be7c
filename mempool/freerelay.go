package mempool

import (
	"math"
	"time"

	"github.com/bsv-blockchain/chaincore/settings"
)

// freeRelayLimiter is an exponentially decaying byte counter bounding how
// much below-minimum-fee traffic the pool accepts per minute (§4.4). It
// decays toward zero with time constant settings.FreeRelayDecayInterval,
// so a burst of free relay is tolerated but sustained free relay is not.
type freeRelayLimiter struct {
	bytesPerMinute int

	credit float64
	last   time.Time
}

func newFreeRelayLimiter(bytesPerMinute int) *freeRelayLimiter {
	return &freeRelayLimiter{
		bytesPerMinute: bytesPerMinute,
		credit:         float64(bytesPerMinute),
	}
}

// Allow reports whether a size-byte free transaction fits under the current
// decayed budget, and if so debits it.
func (f *freeRelayLimiter) Allow(now time.Time, size int) bool {
	if !f.last.IsZero() {
		elapsed := now.Sub(f.last)
		decay := math.Exp(-elapsed.Seconds() / settings.FreeRelayDecayInterval.Seconds())

		// The bytes counted against the budget (bytesPerMinute - credit)
		// decay exponentially toward zero.
		used := float64(f.bytesPerMinute) - f.credit
		f.credit = float64(f.bytesPerMinute) - used*decay
	}

	f.last = now

	if f.credit < float64(size) {
		return false
	}

	f.credit -= float64(size)

	return true
}
