package chainstate

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// SetBestChain rewinds the active chain to the fork point with newTip and
// replays forward to it, all-or-nothing against a scratch overlay (§4.2).
func (cs *ChainState) SetBestChain(newTip *blockindex.Node) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.setBestChain(newTip)
}

func (cs *ChainState) setBestChain(newTip *blockindex.Node) error {
	forkPoint := cs.index.ForkPoint(cs.tip, newTip)
	if forkPoint == nil {
		return errors.NewProcessingError("no common ancestor between current tip and candidate")
	}

	scratch := utxo.NewCache(cs.view)

	disconnected, resurrect, err := cs.disconnectToForkPoint(scratch, forkPoint)
	if err != nil {
		return err
	}

	connected, err := cs.connectFromForkPoint(scratch, forkPoint, newTip)
	if err != nil {
		return err
	}

	if err := scratch.Flush(); err != nil {
		return errors.NewStorageError("flushing reorg scratch view: %v", err)
	}

	cs.tip = newTip

	for i := len(disconnected) - 1; i >= 0; i-- {
		n := disconnected[i]

		block, ok := cs.blocks.GetBlock(n.Hash)
		if ok {
			cs.notifier.Disconnected(block, n.Height)
		}
	}

	for _, n := range connected {
		block, ok := cs.blocks.GetBlock(n.Hash)
		if ok {
			cs.notifier.Connected(block, n.Height)
		}
	}

	for _, tx := range resurrect {
		cs.mempool.Resurrect(tx)
	}

	changedSet := make(map[chainhash.Hash]struct{})

	for _, n := range connected {
		block, ok := cs.blocks.GetBlock(n.Hash)
		if !ok {
			continue
		}

		for _, tx := range block.Transactions {
			if tx.IsCoinbase() {
				continue
			}

			txid := *tx.TxID()

			cs.mempool.Remove(txid, false)
			cs.mempool.RemoveConflicts(tx)

			changedSet[txid] = struct{}{}
		}
	}

	for _, tx := range resurrect {
		changedSet[*tx.TxID()] = struct{}{}
	}

	changed := make([]chainhash.Hash, 0, len(changedSet))
	for h := range changedSet {
		changed = append(changed, h)
	}

	cs.mempool.Reprioritise(changed)

	return nil
}

// disconnectToForkPoint walks the current tip back to forkPoint, undoing
// each block against scratch and collecting the transactions it spent back
// out of the dying branch (other than coinbases) to resurrect into the
// mempool.
func (cs *ChainState) disconnectToForkPoint(scratch utxo.View, forkPoint *blockindex.Node) ([]*blockindex.Node, []*model.Tx, error) {
	var disconnected []*blockindex.Node
	var resurrect []*model.Tx

	for n := cs.tip; n != nil && n.ID != forkPoint.ID; n = cs.index.Get(n.Prev) {
		block, ok := cs.blocks.GetBlock(n.Hash)
		if !ok {
			return nil, nil, errors.NewBlockNotFoundError("block %s not found while disconnecting", n.Hash.String())
		}

		undo, ok := cs.undos.GetUndo(n.Hash)
		if !ok {
			return nil, nil, errors.NewBlockNotFoundError("undo data for block %s not found", n.Hash.String())
		}

		if clean := DisconnectBlock(scratch, block, undo); !clean {
			cs.warnings.SetMisc("inconsistent undo data disconnecting block " + n.Hash.String())
		}

		for _, tx := range block.Transactions {
			if !tx.IsCoinbase() {
				resurrect = append(resurrect, tx)
			}
		}

		disconnected = append(disconnected, n)
	}

	return disconnected, resurrect, nil
}

// connectFromForkPoint replays the path from forkPoint to newTip against
// scratch, in ascending-height order, storing the BlockUndo each block
// produces. A failing block is marked FAILED_VALID so activateBestChain
// will not pick it again.
func (cs *ChainState) connectFromForkPoint(scratch utxo.View, forkPoint, newTip *blockindex.Node) ([]*blockindex.Node, error) {
	var path []*blockindex.Node

	for n := newTip; n != nil && n.ID != forkPoint.ID; n = cs.index.Get(n.Prev) {
		path = append(path, n)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	for _, n := range path {
		block, ok := cs.blocks.GetBlock(n.Hash)
		if !ok {
			return nil, errors.NewBlockNotFoundError("block %s not found while connecting", n.Hash.String())
		}

		control := cs.newControl()

		undo, err := ConnectBlock(scratch, block, n.Height, cs.params, cs.settings.Policy.MaxBlockSigops, control, cs.scriptFlags())
		if err != nil {
			cs.index.SetStatus(n, blockindex.StatusFailedValid)
			return nil, errors.NewBlockInvalidError("connecting block %s: %v", n.Hash.String(), err)
		}

		cs.index.SetStatus(n, blockindex.StatusValidScripts)
		cs.undos.PutUndo(n.Hash, undo)
	}

	return path, nil
}
