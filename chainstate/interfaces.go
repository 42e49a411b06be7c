package chainstate

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// BlockSource durably stores and retrieves whole block bodies by hash,
// standing in for the disk block-file layer named as a non-goal in §1/§6.
type BlockSource interface {
	GetBlock(hash chainhash.Hash) (*model.Block, bool)
	PutBlock(block *model.Block)
}

// UndoSource durably stores and retrieves the BlockUndo a ConnectBlock call
// produced, standing in for the undo-file layer named in §6.
type UndoSource interface {
	GetUndo(hash chainhash.Hash) (*BlockUndo, bool)
	PutUndo(hash chainhash.Hash, undo *BlockUndo)
}

// Notifier receives the ordered connect/disconnect notifications described
// in §5's ordering guarantees, standing in for the wallet-module listeners
// named as a non-goal in §1.
type Notifier interface {
	Connected(block *model.Block, height int32)
	Disconnected(block *model.Block, height int32)
}

// MempoolAdapter is the narrow slice of the mempool package a reorg needs:
// resurrecting disconnected transactions, dropping newly-confirmed ones and
// their conflicts, and re-running CPFP summaries over the union of both.
// Defined here rather than importing package mempool to keep §2's dependency
// order one-way; package mempool implements this interface and is wired in
// by whatever constructs a ChainState.
type MempoolAdapter interface {
	Resurrect(tx *model.Tx)
	RemoveConflicts(tx *model.Tx)
	Remove(txHash chainhash.Hash, recursive bool)
	Reprioritise(changed []chainhash.Hash)
	GetTx(txHash chainhash.Hash) (*model.Tx, bool)
}

type noopMempool struct{}

func (noopMempool) Resurrect(*model.Tx)                {}
func (noopMempool) RemoveConflicts(*model.Tx)           {}
func (noopMempool) Remove(chainhash.Hash, bool)         {}
func (noopMempool) Reprioritise([]chainhash.Hash)       {}
func (noopMempool) GetTx(chainhash.Hash) (*model.Tx, bool) { return nil, false }

type noopNotifier struct{}

func (noopNotifier) Connected(*model.Block, int32)    {}
func (noopNotifier) Disconnected(*model.Block, int32) {}

// memoryBlockSource is the default BlockSource: every accepted block body
// lives in a map for the process lifetime. A real deployment substitutes
// the append-only block-file store described in §6.
type memoryBlockSource struct {
	blocks map[chainhash.Hash]*model.Block
}

func newMemoryBlockSource() *memoryBlockSource {
	return &memoryBlockSource{blocks: make(map[chainhash.Hash]*model.Block)}
}

func (m *memoryBlockSource) GetBlock(hash chainhash.Hash) (*model.Block, bool) {
	b, ok := m.blocks[hash]
	return b, ok
}

func (m *memoryBlockSource) PutBlock(block *model.Block) {
	m.blocks[*block.Hash()] = block
}

// memoryUndoSource is the default UndoSource, analogous to memoryBlockSource.
type memoryUndoSource struct {
	undos map[chainhash.Hash]*BlockUndo
}

func newMemoryUndoSource() *memoryUndoSource {
	return &memoryUndoSource{undos: make(map[chainhash.Hash]*BlockUndo)}
}

func (m *memoryUndoSource) GetUndo(hash chainhash.Hash) (*BlockUndo, bool) {
	u, ok := m.undos[hash]
	return u, ok
}

func (m *memoryUndoSource) PutUndo(hash chainhash.Hash, undo *BlockUndo) {
	m.undos[hash] = undo
}
