package mempool

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/settings"
)

// mapView is a trivial no-parent View, enough to fund test transactions
// without pulling in the leveldb-backed utxo.Base.
type mapView struct {
	coins map[chainhash.Hash]*model.Coins
}

func newMapView() *mapView {
	return &mapView{coins: make(map[chainhash.Hash]*model.Coins)}
}

func (v *mapView) GetCoins(h chainhash.Hash) (*model.Coins, bool) {
	c, ok := v.coins[h]
	return c, ok
}

func (v *mapView) HaveCoins(h chainhash.Hash) bool {
	_, ok := v.coins[h]
	return ok
}

func (v *mapView) SetCoins(h chainhash.Hash, c *model.Coins) error {
	if c == nil || c.IsSpent() {
		delete(v.coins, h)
	} else {
		v.coins[h] = c
	}

	return nil
}

func (v *mapView) GetOutput(op model.OutPoint) (*model.TxOut, bool) {
	c, ok := v.coins[op.Hash]
	if !ok {
		return nil, false
	}

	out := c.GetOutput(op.Index)
	if out == nil {
		return nil, false
	}

	return out, true
}

func (v *mapView) HaveInputs(tx *model.Tx) bool {
	for _, in := range tx.Inputs {
		if _, ok := v.GetOutput(in.PreviousOutPoint); !ok {
			return false
		}
	}

	return true
}

func (v *mapView) BestBlock() (chainhash.Hash, bool) { return chainhash.Hash{}, false }

func (v *mapView) SetBestBlock(chainhash.Hash) {}

func (v *mapView) Flush() error { return nil }

func (v *mapView) CacheSize() int { return len(v.coins) }

func testSettings() *settings.Settings {
	return &settings.Settings{
		Policy: settings.PolicySettings{
			MaxBlockSize:      1_000_000,
			MaxStandardTxSize: 100_000,
			MaxTxSigScriptLen: 500,
			MinRelayTxFee:     0.00001,
			DustThreshold:     546,
		},
		Mempool: settings.MempoolSettings{
			FreeRelayBytesPerMinute: 0,
		},
		Orphan: settings.OrphanSettings{
			MaxOrphanTxs:    10,
			MaxOrphanTxSize: 10_000,
		},
	}
}

func freeScript() *bscript.Script {
	s := bscript.Script{byte(bscript.OpTRUE)}
	return &s
}

// fundedOutput plants a spendable coin directly in view and returns its
// outpoint.
func fundedOutput(view *mapView, value int64) model.OutPoint {
	fundingTx := &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{PreviousOutPoint: model.NullOutPoint, Sequence: 0xffffffff},
		},
		Outputs: []*model.TxOut{
			{Value: value, LockingScript: freeScript()},
		},
	}

	hash := *fundingTx.TxID()
	view.coins[hash] = model.NewCoinsFromTx(fundingTx, 1)

	return model.OutPoint{Hash: hash, Index: 0}
}

func spendTx(from model.OutPoint, value int64, sequence uint32) *model.Tx {
	return &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{PreviousOutPoint: from, UnlockingScript: freeScript(), Sequence: sequence},
		},
		Outputs: []*model.TxOut{
			{Value: value, LockingScript: freeScript()},
		},
	}
}

// nonFinalSpendTx is spendTx with a lock_time that is not yet final at
// height 2 (so it is RBF-replaceable) but becomes final within the relay
// horizon of height+2 (so CheckStandard still admits it).
func nonFinalSpendTx(from model.OutPoint, value int64, sequence uint32) *model.Tx {
	tx := spendTx(from, value, sequence)
	tx.LockTime = 3
	return tx
}

func TestAcceptAdmitsAStandaloneTransaction(t *testing.T) {
	view := newMapView()
	pool := New(&chaincfg.RegressionNetParams, testSettings(), view, nil)

	out := fundedOutput(view, 10_000)
	tx := spendTx(out, 9_000, 0xffffffff)

	require.NoError(t, pool.Accept(tx, 2, 0))
	require.Equal(t, 1, pool.Size())

	entry, ok := pool.Get(*tx.TxID())
	require.True(t, ok)
	require.Equal(t, int64(1_000), entry.Fee)
}

func TestAcceptRejectsConflictWithoutRBF(t *testing.T) {
	view := newMapView()
	pool := New(&chaincfg.RegressionNetParams, testSettings(), view, nil)

	out := fundedOutput(view, 10_000)
	first := spendTx(out, 9_000, 0)
	second := spendTx(out, 8_000, 1)

	require.NoError(t, pool.Accept(first, 2, 0))
	require.Error(t, pool.Accept(second, 2, 0))
	require.Equal(t, 1, pool.Size())
}

func TestAcceptReplacesUnderRBF(t *testing.T) {
	view := newMapView()
	cfg := testSettings()
	cfg.Mempool.RBFEnabled = true
	pool := New(&chaincfg.RegressionNetParams, cfg, view, nil)

	out := fundedOutput(view, 10_000)
	first := nonFinalSpendTx(out, 9_000, 0)
	second := nonFinalSpendTx(out, 8_000, 1)

	require.NoError(t, pool.Accept(first, 2, 0))
	require.NoError(t, pool.Accept(second, 2, 0))

	require.Equal(t, 1, pool.Size())
	_, ok := pool.Get(*second.TxID())
	require.True(t, ok)
	_, ok = pool.Get(*first.TxID())
	require.False(t, ok)
}

func TestAcceptParksOrphanUntilParentArrives(t *testing.T) {
	view := newMapView()
	pool := New(&chaincfg.RegressionNetParams, testSettings(), view, nil)

	out := fundedOutput(view, 10_000)
	parent := spendTx(out, 9_000, 0xffffffff)
	child := spendTx(model.OutPoint{Hash: *parent.TxID(), Index: 0}, 8_000, 0xffffffff)

	require.Error(t, pool.Accept(child, 2, 0))
	require.Equal(t, 0, pool.Size())

	require.NoError(t, pool.Accept(parent, 2, 0))

	_, ok := pool.Get(*child.TxID())
	require.True(t, ok)
}

func TestCPFPUsesMaxNotSumAcrossParents(t *testing.T) {
	view := newMapView()
	pool := New(&chaincfg.RegressionNetParams, testSettings(), view, nil)

	outA := fundedOutput(view, 10_000)
	outB := fundedOutput(view, 10_000)

	parentA := spendTx(outA, 9_000, 0xffffffff) // fee 1000
	parentB := spendTx(outB, 9_500, 0xffffffff) // fee 500

	require.NoError(t, pool.Accept(parentA, 2, 0))
	require.NoError(t, pool.Accept(parentB, 2, 0))

	child := &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{PreviousOutPoint: model.OutPoint{Hash: *parentA.TxID(), Index: 0}, UnlockingScript: freeScript(), Sequence: 0xffffffff},
			{PreviousOutPoint: model.OutPoint{Hash: *parentB.TxID(), Index: 0}, UnlockingScript: freeScript(), Sequence: 0xffffffff},
		},
		Outputs: []*model.TxOut{
			{Value: 18_000, LockingScript: freeScript()}, // fee 500 (9000+9500-18000)
		},
	}

	require.NoError(t, pool.Accept(child, 2, 0))

	entry, ok := pool.Get(*child.TxID())
	require.True(t, ok)

	// SumFees must be the child's own fee plus the *larger* parent fee
	// (1000), never the sum of both parents' fees (1500).
	require.Equal(t, entry.Fee+1_000, entry.SumFees)
	require.Equal(t, 1, entry.Depth)
}

func TestRemoveRecursiveDropsDescendants(t *testing.T) {
	view := newMapView()
	pool := New(&chaincfg.RegressionNetParams, testSettings(), view, nil)

	out := fundedOutput(view, 10_000)
	parent := spendTx(out, 9_000, 0xffffffff)
	child := spendTx(model.OutPoint{Hash: *parent.TxID(), Index: 0}, 8_000, 0xffffffff)

	require.NoError(t, pool.Accept(parent, 2, 0))
	require.NoError(t, pool.Accept(child, 2, 0))
	require.Equal(t, 2, pool.Size())

	pool.Remove(*parent.TxID(), true)

	require.Equal(t, 0, pool.Size())
}

func TestReprioritiseRecomputesDescendantsNotInChangedSet(t *testing.T) {
	view := newMapView()
	pool := New(&chaincfg.RegressionNetParams, testSettings(), view, nil)

	out := fundedOutput(view, 10_000)
	parent := spendTx(out, 9_000, 0xffffffff)
	child := spendTx(model.OutPoint{Hash: *parent.TxID(), Index: 0}, 8_000, 0xffffffff)

	require.NoError(t, pool.Accept(parent, 2, 0))
	require.NoError(t, pool.Accept(child, 2, 0))

	childEntry, _ := pool.Get(*child.TxID())
	before := childEntry.SumFees

	// Simulate a reorg bumping the parent's recorded fee, then
	// reprioritising from the parent outward.
	pool.mu.Lock()
	pool.byHash[*parent.TxID()].Fee += 5_000
	pool.recomputeCPFPLocked(pool.byHash[*parent.TxID()])
	pool.mu.Unlock()

	pool.Reprioritise([]chainhash.Hash{*parent.TxID()})

	childEntry, _ = pool.Get(*child.TxID())
	require.Greater(t, childEntry.SumFees, before)
}
