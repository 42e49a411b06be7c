package chainstate

import (
	"sync"

	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/script"
	"github.com/bsv-blockchain/chaincore/settings"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// ChainState owns the block index, the active coin view, and the side
// stores and listeners a running node wires in around them. It is the
// single point through which new blocks are accepted and the active chain
// is advanced or rewound (§4).
type ChainState struct {
	mu sync.Mutex

	params   *chaincfg.Params
	settings *settings.Settings

	index *blockindex.Index
	tip   *blockindex.Node
	view  utxo.View

	blocks BlockSource
	undos  UndoSource

	mempool  MempoolAdapter
	notifier Notifier

	orphans  *orphanBlockPool
	verifier script.Verifier

	warnings WarningBoard
}

// Option configures a ChainState at construction.
type Option func(*ChainState)

// WithMempool wires the mempool package's adapter in place of the no-op
// default, so a reorg can resurrect and re-prioritise unconfirmed
// transactions.
func WithMempool(m MempoolAdapter) Option {
	return func(cs *ChainState) { cs.mempool = m }
}

// WithNotifier wires a listener for ordered connect/disconnect
// notifications in place of the no-op default.
func WithNotifier(n Notifier) Option {
	return func(cs *ChainState) { cs.notifier = n }
}

// WithScriptVerifier enables script verification during ConnectBlock.
// Without it, ConnectBlock skips script checks entirely — the degenerate
// configuration used by tests that only exercise UTXO bookkeeping.
func WithScriptVerifier(v script.Verifier) Option {
	return func(cs *ChainState) { cs.verifier = v }
}

// WithUndoSource wires a durable UndoSource in place of the default
// in-memory one.
func WithUndoSource(u UndoSource) Option {
	return func(cs *ChainState) { cs.undos = u }
}

// WithBlockSource wires a durable BlockSource in place of the default
// in-memory one.
func WithBlockSource(b BlockSource) Option {
	return func(cs *ChainState) { cs.blocks = b }
}

// New constructs a ChainState rooted at params' genesis block, which is
// inserted and connected immediately so the returned value always has a
// valid tip.
func New(params *chaincfg.Params, cfg *settings.Settings, view utxo.View, opts ...Option) (*ChainState, error) {
	cs := &ChainState{
		params:   params,
		settings: cfg,
		index:    blockindex.New(),
		view:     view,
		blocks:   newMemoryBlockSource(),
		undos:    newMemoryUndoSource(),
		mempool:  noopMempool{},
		notifier: noopNotifier{},
		orphans:  newOrphanBlockPool(cfg.Orphan.MaxOrphanBlocks),
	}

	for _, opt := range opts {
		opt(cs)
	}

	genesis := params.GenesisBlock
	if genesis == nil {
		return nil, errors.NewConfigurationError("chain params carry no genesis block")
	}

	node := cs.index.Insert(genesis.Header, nil)
	cs.index.SetStatus(node, blockindex.StatusValidHeader|blockindex.StatusValidTransactions)

	undo, err := ConnectBlock(cs.view, genesis, node.Height, cs.params, cs.settings.Policy.MaxBlockSigops, nil, 0)
	if err != nil {
		return nil, errors.NewConfigurationError("connecting genesis block: %v", err)
	}

	cs.index.SetStatus(node, blockindex.StatusValidScripts)
	cs.blocks.PutBlock(genesis)
	cs.undos.PutUndo(*genesis.Hash(), undo)

	cs.tip = node

	return cs, nil
}

// Tip returns the current active chain tip.
func (cs *ChainState) Tip() *blockindex.Node {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.tip
}

// Index returns the block index.
func (cs *ChainState) Index() *blockindex.Index {
	return cs.index
}

// Warnings returns the board aggregating operator-facing warnings.
func (cs *ChainState) Warnings() *WarningBoard {
	return &cs.warnings
}

// scriptFlags is the verification flag set ConnectBlock is called with.
// P2SH and strict signature encoding are always enforced; there is no
// height-gated activation since this implementation has no notion of a
// pre-BIP16 chain segment (see DESIGN.md).
func (cs *ChainState) scriptFlags() script.Flag {
	return script.FlagP2SH | script.FlagStrictEnc
}

// newControl starts a fresh script-check work queue for one block, or
// returns nil when no verifier is wired — ConnectBlock treats a nil
// control as "skip script verification".
func (cs *ChainState) newControl() *script.Control {
	if cs.verifier == nil {
		return nil
	}

	workers := cs.settings.Script.Workers
	if workers < 1 {
		workers = 1
	}

	return script.NewControl(cs.verifier, workers)
}
