package mempool

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/txrules"
)

// Remove drops txHash from the pool. If recursive, every descendant found
// via the nextTx index is removed first.
func (p *Pool) Remove(txHash chainhash.Hash, recursive bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removeLocked(txHash, recursive)
}

func (p *Pool) removeLocked(txHash chainhash.Hash, recursive bool) {
	entry, ok := p.byHash[txHash]
	if !ok {
		return
	}

	if recursive {
		for _, child := range p.descendantsOf(txHash) {
			p.removeLocked(child, true)
		}
	}

	for _, in := range entry.Tx.Inputs {
		if spender, ok := p.nextTx[in.PreviousOutPoint]; ok && spender == txHash {
			delete(p.nextTx, in.PreviousOutPoint)
		}
	}

	delete(p.byHash, txHash)
	delete(p.deltas, txHash)
}

// RemoveConflicts drops every other pooled transaction that spends any input
// of tx, together with its descendants — used after a block connects tx so
// anything built on a conflicting version disappears. A pooled copy of tx
// itself is left in place.
func (p *Pool) RemoveConflicts(tx *model.Tx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := *tx.TxID()

	for _, in := range tx.Inputs {
		spender, ok := p.nextTx[in.PreviousOutPoint]
		if !ok || spender == hash {
			continue
		}

		p.removeLocked(spender, true)
	}
}

// resolveConflictsLocked applies the default reject-on-conflict policy: any
// pooled transaction sharing an input with tx blocks admission. When
// settings.Mempool.RBFEnabled is set, replacement is permitted instead when
// every conflicting transaction is non-final, tx's first input carries a
// strictly higher sequence number than the entry it conflicts with, and tx
// spends a superset of the contested inputs starting at input 0. On
// success it returns the hashes of the directly conflicting transactions
// that admitting tx will evict; their descendants are not listed.
func (p *Pool) resolveConflictsLocked(tx *model.Tx, height int32, currentTime uint32) ([]chainhash.Hash, error) {
	conflicts := make(map[chainhash.Hash]struct{})

	for _, in := range tx.Inputs {
		if spender, ok := p.nextTx[in.PreviousOutPoint]; ok {
			conflicts[spender] = struct{}{}
		}
	}

	if len(conflicts) == 0 {
		return nil, nil
	}

	if !p.settings.Mempool.RBFEnabled {
		return nil, errors.NewTxInvalidDoubleSpendError("transaction %s conflicts with a pooled transaction", tx.TxID().String())
	}

	if len(tx.Inputs) == 0 || tx.Inputs[0].Sequence == 0xffffffff {
		return nil, errors.NewTxInvalidDoubleSpendError("replacement requires a non-final first input sequence")
	}

	spent := make(map[model.OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		spent[in.PreviousOutPoint] = struct{}{}
	}

	var toReplace []chainhash.Hash

	for conflictHash := range conflicts {
		entry, ok := p.byHash[conflictHash]
		if !ok {
			continue
		}

		if txrules.IsFinal(entry.Tx, height, currentTime) {
			return nil, errors.NewTxInvalidDoubleSpendError("transaction %s is final and cannot be replaced", conflictHash.String())
		}

		if entry.Tx.Inputs[0].Sequence >= tx.Inputs[0].Sequence {
			return nil, errors.NewTxInvalidDoubleSpendError("replacement sequence does not strictly exceed the transaction it replaces")
		}

		for _, in := range entry.Tx.Inputs {
			if _, ok := spent[in.PreviousOutPoint]; !ok {
				return nil, errors.NewTxInvalidDoubleSpendError("replacement does not spend a superset of the contested inputs")
			}
		}

		toReplace = append(toReplace, conflictHash)
	}

	return toReplace, nil
}
