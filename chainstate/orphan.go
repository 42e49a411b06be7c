package chainstate

import (
	"math/rand"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// orphanBlockPool holds blocks whose parent is not yet known, indexed by
// their own hash and by their claimed parent's hash, bounded in size with
// random eviction on overflow (§4.5).
type orphanBlockPool struct {
	maxSize int

	byHash   map[chainhash.Hash]*model.Block
	byParent map[chainhash.Hash][]chainhash.Hash
	order    []chainhash.Hash
}

func newOrphanBlockPool(maxSize int) *orphanBlockPool {
	if maxSize <= 0 {
		maxSize = 750
	}

	return &orphanBlockPool{
		maxSize:  maxSize,
		byHash:   make(map[chainhash.Hash]*model.Block),
		byParent: make(map[chainhash.Hash][]chainhash.Hash),
	}
}

// Add stores block as an orphan. If the pool is already at capacity, a
// randomly chosen existing orphan is evicted first.
func (p *orphanBlockPool) Add(block *model.Block) {
	hash := *block.Hash()

	if _, exists := p.byHash[hash]; exists {
		return
	}

	if len(p.order) >= p.maxSize {
		p.remove(p.order[rand.Intn(len(p.order))])
	}

	p.byHash[hash] = block
	p.order = append(p.order, hash)

	parent := block.Header.HashPrevBlock
	p.byParent[parent] = append(p.byParent[parent], hash)
}

func (p *orphanBlockPool) remove(hash chainhash.Hash) {
	block, ok := p.byHash[hash]
	if !ok {
		return
	}

	delete(p.byHash, hash)

	parent := block.Header.HashPrevBlock
	siblings := p.byParent[parent]

	for i, h := range siblings {
		if h == hash {
			p.byParent[parent] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}

	if len(p.byParent[parent]) == 0 {
		delete(p.byParent, parent)
	}

	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Children returns the orphans claiming parentHash as their parent.
func (p *orphanBlockPool) Children(parentHash chainhash.Hash) []*model.Block {
	hashes := p.byParent[parentHash]
	children := make([]*model.Block, 0, len(hashes))

	for _, h := range hashes {
		if b, ok := p.byHash[h]; ok {
			children = append(children, b)
		}
	}

	return children
}
