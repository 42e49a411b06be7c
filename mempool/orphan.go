package mempool

import (
	"math/rand"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// orphanTxPool holds transactions rejected only for a missing input,
// indexed by the prevout hash still missing, bounded in size with random
// eviction on overflow (§4.5).
type orphanTxPool struct {
	maxCount int
	maxSize  int

	byHash      map[chainhash.Hash]*model.Tx
	byMissing   map[chainhash.Hash][]chainhash.Hash
	order       []chainhash.Hash
}

func newOrphanTxPool(maxCount, maxSize int) *orphanTxPool {
	if maxCount <= 0 {
		maxCount = 100
	}

	if maxSize <= 0 {
		maxSize = 5000
	}

	return &orphanTxPool{
		maxCount:  maxCount,
		maxSize:   maxSize,
		byHash:    make(map[chainhash.Hash]*model.Tx),
		byMissing: make(map[chainhash.Hash][]chainhash.Hash),
	}
}

// Add stores tx as an orphan waiting on missingParent, unless it exceeds the
// per-entry size bound. If the pool is at capacity, a randomly chosen
// existing orphan is evicted first.
func (p *orphanTxPool) Add(tx *model.Tx, missingParent chainhash.Hash) {
	if tx.Size() > p.maxSize {
		return
	}

	hash := *tx.TxID()

	if _, exists := p.byHash[hash]; exists {
		return
	}

	if len(p.order) >= p.maxCount {
		p.remove(p.order[rand.Intn(len(p.order))])
	}

	p.byHash[hash] = tx
	p.order = append(p.order, hash)
	p.byMissing[missingParent] = append(p.byMissing[missingParent], hash)
}

func (p *orphanTxPool) remove(hash chainhash.Hash) {
	if _, ok := p.byHash[hash]; !ok {
		return
	}

	delete(p.byHash, hash)

	for parent, children := range p.byMissing {
		for i, h := range children {
			if h == hash {
				p.byMissing[parent] = append(children[:i], children[i+1:]...)
				break
			}
		}

		if len(p.byMissing[parent]) == 0 {
			delete(p.byMissing, parent)
		}
	}

	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Drain removes and returns every orphan waiting on parentHash.
func (p *orphanTxPool) Drain(parentHash chainhash.Hash) []*model.Tx {
	hashes := append([]chainhash.Hash(nil), p.byMissing[parentHash]...)

	txs := make([]*model.Tx, 0, len(hashes))

	for _, h := range hashes {
		if tx, ok := p.byHash[h]; ok {
			txs = append(txs, tx)
		}

		p.remove(h)
	}

	return txs
}
