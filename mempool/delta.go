package mempool

import "github.com/bsv-blockchain/go-bt/v2/chainhash"

// priorityDelta is a manually-applied adjustment to one transaction's
// priority and fee ranking, letting an operator bump a transaction without
// inserting a replacement.
type priorityDelta struct {
	Priority float64
	Fee      int64
}

// Prioritise records an additive priority/fee adjustment for hash, applied
// whenever the entry's priority or fee-rate is computed by a caller that
// consults Delta.
func (p *Pool) Prioritise(hash chainhash.Hash, priorityDelta, feeDelta int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.deltas[hash]
	d.Priority += float64(priorityDelta)
	d.Fee += feeDelta
	p.deltas[hash] = d
}

// Delta returns the accumulated priority/fee adjustment for hash, zero if
// none was ever recorded.
func (p *Pool) Delta(hash chainhash.Hash) (priority float64, fee int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.deltas[hash]

	return d.Priority, d.Fee
}
