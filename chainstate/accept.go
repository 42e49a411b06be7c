package chainstate

import (
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/txrules"
)

// ProcessBlock validates block and, if it extends a known chain, tries to
// make it (or whichever candidate now has the most work) the active tip.
func (cs *ChainState) ProcessBlock(block *model.Block) ValidationState {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.processBlockLocked(block)
}

func (cs *ChainState) processBlockLocked(block *model.Block) ValidationState {
	hash := *block.Hash()

	if cs.index.GetByHash(hash) != nil {
		return InvalidState(0, "duplicate block")
	}

	if err := txrules.CheckBlock(block, cs.settings.Policy.MaxBlockSize, cs.settings.Policy.MaxBlockSigops, time.Now()); err != nil {
		return InvalidState(100, err.Error())
	}

	parent := cs.index.GetByHash(block.Header.HashPrevBlock)
	if parent == nil {
		cs.orphans.Add(block)
		return OrphanState("parent block not known")
	}

	if parent.Status.Failed() {
		return InvalidState(100, "parent block failed validation")
	}

	return cs.acceptKnownParent(block, parent)
}

// acceptKnownParent runs the contextual checks and, on success, tries to
// extend the active chain to the new best candidate.
func (cs *ChainState) acceptKnownParent(block *model.Block, parent *blockindex.Node) ValidationState {
	if err := txrules.AcceptBlock(cs.index, block, parent, cs.params); err != nil {
		node := cs.index.Insert(block.Header, parent)
		cs.index.SetStatus(node, blockindex.StatusValidHeader|blockindex.StatusFailedValid)

		return InvalidState(100, err.Error())
	}

	node := cs.index.Insert(block.Header, parent)
	cs.index.SetStatus(node, blockindex.StatusValidHeader|blockindex.StatusValidTransactions)
	cs.blocks.PutBlock(block)

	if err := cs.activateBestChain(); err != nil {
		return ErrorState(err)
	}

	cs.replayOrphans(*block.Hash())

	return ValidState()
}

// activateBestChain repeatedly tries to move the tip to the index's current
// best candidate, retrying against whatever is best next if a candidate
// turns out to fail ConnectBlock.
func (cs *ChainState) activateBestChain() error {
	for {
		best := cs.index.BestTip()
		if best == nil || best.ID == cs.tip.ID {
			return nil
		}

		if err := cs.setBestChain(best); err != nil {
			if errors.Is(err, errors.ERR_BLOCK_INVALID) {
				continue
			}

			return err
		}
	}
}

// replayOrphans walks the orphan-block pool breadth-first from a newly
// accepted block, trying each previously-parked child now that its parent
// is known.
func (cs *ChainState) replayOrphans(accepted chainhash.Hash) {
	queue := []chainhash.Hash{accepted}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for _, child := range cs.orphans.Children(parent) {
			childHash := *child.Hash()
			cs.orphans.remove(childHash)

			node := cs.index.GetByHash(parent)
			if node == nil || node.Status.Failed() {
				continue
			}

			if state := cs.acceptKnownParent(child, node); state.IsValid() {
				queue = append(queue, childHash)
			}
		}
	}
}
