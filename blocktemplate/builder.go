package blocktemplate

import (
	"time"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/chainstate"
	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/mempool"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/script"
	"github.com/bsv-blockchain/chaincore/settings"
	"github.com/bsv-blockchain/chaincore/txrules"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// Builder assembles candidate blocks from a mempool and a chain index.
type Builder struct {
	params   *chaincfg.Params
	settings *settings.Settings
	pool     *mempool.Pool
	index    *blockindex.Index
	verifier script.Verifier
}

// NewBuilder returns a Builder drawing candidates from pool and chain
// context from index.
func NewBuilder(params *chaincfg.Params, cfg *settings.Settings, pool *mempool.Pool, index *blockindex.Index, verifier script.Verifier) *Builder {
	return &Builder{
		params:   params,
		settings: cfg,
		pool:     pool,
		index:    index,
		verifier: verifier,
	}
}

// Build selects a fee-maximising, dependency-respecting subset of the
// mempool and assembles it into a candidate block extending tip, paying
// the coinbase to coinbaseScript (§4.6).
func (b *Builder) Build(tip *blockindex.Node, view utxo.View, coinbaseScript *bscript.Script, extraNonce uint64) (*model.Block, error) {
	height := tip.Height + 1
	blockTime := uint32(time.Now().Unix())

	candidates := buildCandidates(b.pool.Entries(), b.pool, height, func(tx *model.Tx) bool {
		return txrules.IsFinal(tx, height, blockTime)
	})

	for _, info := range candidates {
		computePriority(info, view, height)
	}

	// Selection tentatively applies each included candidate's own outputs
	// so a later candidate can spend an earlier one's change output within
	// the same template (see doInputs). That bookkeeping happens against
	// a scratch overlay, never against view itself, so the final dry-run
	// connect below can replay every included transaction against
	// untouched chain state exactly once.
	working := utxo.NewCache(view)
	template := newTemplate(working, b.settings.Policy.MaxBlockSize, b.settings.Policy.MaxBlockSigops)

	b.runPriorityPhase(candidates, template)
	b.runFeeRatePhase(candidates, template)

	return b.finalize(tip, height, view, template, coinbaseScript, extraNonce)
}

// runPriorityPhase includes candidates by descending priority until the
// configured size budget is exhausted or the next candidate is no longer
// "free" (paying below the minimum relay rate).
func (b *Builder) runPriorityPhase(candidates map[chainhash.Hash]*TxInfo, template *template) {
	pending := pendingList(candidates)

	h := newCandidateHeap(pending, priorityLess)

	for h.Len() > 0 {
		info := popHeap(h)
		if info.included {
			continue
		}

		if template.size >= b.settings.Template.PrioritySizeBudget {
			return
		}

		if !isFree(info, b.settings.Policy.MinRelayTxFee) {
			return
		}

		b.tryInclude(info, candidates, template, h)
	}
}

// runFeeRatePhase rebuilds the heap over whatever remains, now ordered by
// effective fee-rate descending, and greedily includes until nothing more
// fits.
func (b *Builder) runFeeRatePhase(candidates map[chainhash.Hash]*TxInfo, template *template) {
	pending := pendingList(candidates)

	h := newCandidateHeap(pending, feeRateLess)

	for h.Len() > 0 {
		info := popHeap(h)
		if info.included {
			continue
		}

		b.tryInclude(info, candidates, template, h)
	}
}

func pendingList(candidates map[chainhash.Hash]*TxInfo) []*TxInfo {
	out := make([]*TxInfo, 0, len(candidates))

	for _, info := range candidates {
		if !info.included {
			out = append(out, info)
		}
	}

	return out
}

// tryInclude attempts to include info and every not-yet-included ancestor
// it depends on, via a second-level scratch view that is discarded on any
// size, sigop, or validation failure (§4.6 step 4).
func (b *Builder) tryInclude(info *TxInfo, candidates map[chainhash.Hash]*TxInfo, template *template, h *candidateHeap) {
	scratch := utxo.NewCache(template.view)

	order, ok := b.doInputs(info, candidates, scratch, template, make(map[chainhash.Hash]struct{}))
	if !ok {
		return
	}

	if err := scratch.Flush(); err != nil {
		return
	}

	for _, included := range order {
		template.add(included)

		for dependent := range included.Dependents {
			if dep, ok := candidates[dependent]; ok {
				delete(dep.DependsOn, included.Hash())

				if !dep.included {
					h.items = append(h.items, dep)
					fixHeap(h)
				}
			}
		}
	}
}

// doInputs recursively includes info's not-yet-included dependencies
// before info itself, validating every step against scratch. It returns
// the list in parents-before-children order.
func (b *Builder) doInputs(info *TxInfo, candidates map[chainhash.Hash]*TxInfo, scratch utxo.View, template *template, visiting map[chainhash.Hash]struct{}) ([]*TxInfo, bool) {
	hash := info.Hash()

	if info.included {
		return nil, true
	}

	if _, cyclic := visiting[hash]; cyclic {
		return nil, false
	}

	visiting[hash] = struct{}{}
	defer delete(visiting, hash)

	var order []*TxInfo

	for parentHash := range info.DependsOn {
		parent, ok := candidates[parentHash]
		if !ok || parent.included {
			continue
		}

		parentOrder, ok := b.doInputs(parent, candidates, scratch, template, visiting)
		if !ok {
			return nil, false
		}

		order = append(order, parentOrder...)
	}

	size := template.size
	sigops := template.sigops

	for _, p := range order {
		size += p.Entry.Size
		sigops += p.sigOps(scratch)
	}

	txSigOps := info.sigOps(scratch)

	if size+info.Entry.Size > template.maxSize || sigops+txSigOps > template.maxSigOps {
		return nil, false
	}

	if !scratch.HaveInputs(info.Entry.Tx) {
		return nil, false
	}

	if err := scratch.SetCoins(hash, model.NewCoinsFromTx(info.Entry.Tx, uint32(utxo.MempoolHeight))); err != nil {
		return nil, false
	}

	order = append(order, info)

	return order, true
}

// finalize sets the coinbase value and height-commitment script, builds
// the merkle root and retarget-derived bits, assembles the block, and runs
// a dry-run connect against the untouched view as a final consistency
// check.
func (b *Builder) finalize(tip *blockindex.Node, height int32, view utxo.View, template *template, coinbaseScript *bscript.Script, extraNonce uint64) (*model.Block, error) {
	var totalFees int64
	for _, info := range template.included {
		totalFees += info.Entry.Fee
	}

	coinbaseTx := b.buildCoinbase(height, totalFees, coinbaseScript, extraNonce)

	txs := make([]*model.Tx, 0, len(template.included)+1)
	txs = append(txs, coinbaseTx)

	for _, info := range template.included {
		txs = append(txs, info.Entry.Tx)
	}

	bits := txrules.NextWorkRequired(b.index, tip, uint32(time.Now().Unix()), b.params)

	header := &model.BlockHeader{
		Version:       2,
		HashPrevBlock: tip.Hash,
		Timestamp:     uint32(time.Now().Unix()),
		Bits:          bits,
	}

	block, err := model.NewBlock(header, txs)
	if err != nil {
		return nil, errors.NewProcessingError("assembling block template: %v", err)
	}

	dryRun := utxo.NewCache(view)

	var control *script.Control
	if b.verifier != nil {
		control = script.NewControl(b.verifier, b.settings.Script.Workers)
	}

	if _, err := chainstate.ConnectBlock(dryRun, block, height, b.params, b.settings.Policy.MaxBlockSigops, control, script.FlagP2SH|script.FlagStrictEnc); err != nil {
		return nil, errors.NewProcessingError("block template failed its own dry-run connect: %v", err)
	}

	return block, nil
}

// buildCoinbase pays subsidy(height)+fees to coinbaseScript, with a
// BIP34 height commitment prefix and an extra-nonce suffix to keep the
// coinbase unique across successive template rebuilds.
func (b *Builder) buildCoinbase(height int32, fees int64, coinbaseScript *bscript.Script, extraNonce uint64) *model.Tx {
	heightPush := model.EncodeCoinbaseHeight(uint32(height))

	sigScript := bscript.Script(heightPush)
	sigScript = append(sigScript, byte(extraNonce), byte(extraNonce>>8), byte(extraNonce>>16), byte(extraNonce>>24))
	sigScript = append(sigScript, []byte(b.settings.Template.CoinbaseFlags)...)

	return &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{
				PreviousOutPoint: model.NullOutPoint,
				UnlockingScript:  &sigScript,
				Sequence:         0xffffffff,
			},
		},
		Outputs: []*model.TxOut{
			{
				Value:         b.params.Subsidy(height) + fees,
				LockingScript: coinbaseScript,
			},
		},
	}
}
