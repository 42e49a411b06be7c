package mempool

import (
	"sync"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/script"
	"github.com/bsv-blockchain/chaincore/settings"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// Pool holds validated, unconfirmed transactions. It satisfies both
// chainstate.MempoolAdapter and utxo.TxLookup structurally, letting
// chainstate feed it reorg deltas and letting the coin view resolve
// still-pooled prevouts, without either package importing this one.
type Pool struct {
	mu sync.Mutex

	params   *chaincfg.Params
	settings *settings.Settings
	view     utxo.View
	verifier script.Verifier

	byHash map[chainhash.Hash]*Entry
	nextTx map[model.OutPoint]chainhash.Hash

	deltas map[chainhash.Hash]priorityDelta

	orphans   *orphanTxPool
	freeRelay *freeRelayLimiter
}

// New builds an empty Pool resolving prevouts against view (typically a
// chainstate's live coin view).
func New(params *chaincfg.Params, cfg *settings.Settings, view utxo.View, verifier script.Verifier) *Pool {
	return &Pool{
		params:   params,
		settings: cfg,
		view:     view,
		verifier: verifier,

		byHash: make(map[chainhash.Hash]*Entry),
		nextTx: make(map[model.OutPoint]chainhash.Hash),
		deltas: make(map[chainhash.Hash]priorityDelta),

		orphans:   newOrphanTxPool(cfg.Orphan.MaxOrphanTxs, cfg.Orphan.MaxOrphanTxSize),
		freeRelay: newFreeRelayLimiter(cfg.Mempool.FreeRelayBytesPerMinute),
	}
}

// GetTx satisfies utxo.TxLookup and chainstate.MempoolAdapter.
func (p *Pool) GetTx(txHash chainhash.Hash) (*model.Tx, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byHash[txHash]
	if !ok {
		return nil, false
	}

	return e.Tx, true
}

// Get returns the full entry for txHash.
func (p *Pool) Get(txHash chainhash.Hash) (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byHash[txHash]

	return e, ok
}

// Size returns the number of pooled transactions.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.byHash)
}

// Entries returns a snapshot of every pooled entry, in no particular order.
func (p *Pool) Entries() []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Entry, 0, len(p.byHash))
	for _, e := range p.byHash {
		out = append(out, e)
	}

	return out
}

// spenderOf returns the pooled tx currently spending op, if any.
func (p *Pool) spenderOf(op model.OutPoint) (chainhash.Hash, bool) {
	h, ok := p.nextTx[op]
	return h, ok
}

// parentsOf returns the pooled entries tx's inputs spend from.
func (p *Pool) parentsOf(tx *model.Tx) []*Entry {
	seen := make(map[chainhash.Hash]struct{})

	var parents []*Entry

	for _, in := range tx.Inputs {
		if e, ok := p.byHash[in.PreviousOutPoint.Hash]; ok {
			if _, dup := seen[*e.Tx.TxID()]; dup {
				continue
			}

			seen[*e.Tx.TxID()] = struct{}{}
			parents = append(parents, e)
		}
	}

	return parents
}

// descendantsOf returns the pooled entries that directly spend any output
// of txHash.
func (p *Pool) descendantsOf(txHash chainhash.Hash) []chainhash.Hash {
	seen := make(map[chainhash.Hash]struct{})

	var out []chainhash.Hash

	for op, spender := range p.nextTx {
		if op.Hash != txHash {
			continue
		}

		if _, dup := seen[spender]; dup {
			continue
		}

		seen[spender] = struct{}{}
		out = append(out, spender)
	}

	return out
}

func (p *Pool) insertLocked(tx *model.Tx, fee int64, height int32, when time.Time) {
	hash := *tx.TxID()

	entry := &Entry{
		Tx:     tx,
		Size:   tx.Size(),
		Fee:    fee,
		Height: height,
		Time:   when,
	}

	p.byHash[hash] = entry

	for _, in := range tx.Inputs {
		p.nextTx[in.PreviousOutPoint] = hash
	}

	p.recomputeCPFPLocked(entry)
}
