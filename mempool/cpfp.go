package mempool

import "github.com/bsv-blockchain/go-bt/v2/chainhash"

// recomputeCPFPLocked recomputes entry's CPFP summary from its current
// in-mempool parents. depth is one more than the deepest parent; SumSize is
// the pessimistic bound that double-counts shared ancestors; SumFees takes
// the max across parents, not the sum, so a single parent's fee cannot be
// claimed by more than one child (§4.4's central anti-abuse rule).
func (p *Pool) recomputeCPFPLocked(entry *Entry) {
	parents := p.parentsOf(entry.Tx)

	depth := 0
	sumSize := entry.Size
	var maxParentFees int64

	for _, parent := range parents {
		if parent.Depth+1 > depth {
			depth = parent.Depth + 1
		}

		sumSize += parent.SumSize

		if parent.SumFees > maxParentFees {
			maxParentFees = parent.SumFees
		}
	}

	entry.Depth = depth
	entry.SumSize = sumSize
	entry.SumFees = entry.Fee + maxParentFees
}

// Reprioritise satisfies chainstate.MempoolAdapter: given the hashes
// touched by a reorg (removed or resurrected), it walks breadth-first
// through the next_tx descendant index and recomputes the CPFP summary of
// every transitive descendant not itself in changed. The frontier strictly
// shrinks as descendants are visited once each, bounding total work to
// O(n) per reorg.
func (p *Pool) Reprioritise(changed []chainhash.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inChanged := make(map[chainhash.Hash]struct{}, len(changed))
	for _, h := range changed {
		inChanged[h] = struct{}{}
	}

	visited := make(map[chainhash.Hash]struct{})
	queue := append([]chainhash.Hash(nil), changed...)

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		for _, child := range p.descendantsOf(h) {
			if _, done := visited[child]; done {
				continue
			}

			visited[child] = struct{}{}

			if _, skip := inChanged[child]; skip {
				continue
			}

			if entry, ok := p.byHash[child]; ok {
				p.recomputeCPFPLocked(entry)
			}

			queue = append(queue, child)
		}
	}
}
