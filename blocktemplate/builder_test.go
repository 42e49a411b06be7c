package blocktemplate

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/mempool"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/settings"
)

// mapView is a trivial no-parent utxo.View, standing in for a durable store
// in tests that only need a handful of coins.
type mapView struct {
	coins map[chainhash.Hash]*model.Coins
	best  chainhash.Hash
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

func (v *mapView) BestBlock() (chainhash.Hash, bool) { return v.best, v.best != chainhash.Hash{} }

func (v *mapView) SetBestBlock(h chainhash.Hash) { v.best = h }

func (v *mapView) Flush() error { return nil }

func (v *mapView) CacheSize() int { return len(v.coins) }

func freeScript() *bscript.Script {
	s := bscript.Script{byte(bscript.OpTRUE)}
	return &s
}

func testSettings() *settings.Settings {
	return &settings.Settings{
		Policy: settings.PolicySettings{
			MaxBlockSize:      1_000_000,
			MaxBlockSigops:    20_000,
			MaxStandardTxSize: 100_000,
			MaxTxSigScriptLen: 500,
			MinRelayTxFee:     0.00001,
			DustThreshold:     546,
		},
		Orphan: settings.OrphanSettings{
			MaxOrphanTxs:    10,
			MaxOrphanTxSize: 10_000,
		},
		Template: settings.TemplateSettings{
			PrioritySizeBudget: 50_000,
			CoinbaseFlags:      "/test/",
		},
		Script: settings.ScriptSettings{Workers: 1},
	}
}

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

	// Planted as a non-coinbase coin so the template's dry-run connect at
	// height 1 does not reject the spend for coinbase maturity.
	hash := *fundingTx.TxID()
	coins := model.NewCoinsFromTx(fundingTx, 1)
	coins.Coinbase = false
	view.coins[hash] = coins

	return model.OutPoint{Hash: hash, Index: 0}
}

func spendTx(from model.OutPoint, value int64) *model.Tx {
	return &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{PreviousOutPoint: from, UnlockingScript: freeScript(), Sequence: 0xffffffff},
		},
		Outputs: []*model.TxOut{
			{Value: value, LockingScript: freeScript()},
		},
	}
}

func TestBuildIncludesAPooledTransactionAndPaysItsFeeToTheCoinbase(t *testing.T) {
	params := chaincfg.RegressionNetParams

	view := newMapView()
	view.coins[*params.GenesisBlock.CoinbaseTx().TxID()] = model.NewCoinsFromTx(params.GenesisBlock.CoinbaseTx(), 0)

	idx := blockindex.New()
	tip := idx.Insert(params.GenesisBlock.Header, nil)
	idx.SetStatus(tip, blockindex.StatusValidHeader|blockindex.StatusValidTransactions|blockindex.StatusValidScripts)

	cfg := testSettings()
	pool := mempool.New(&params, cfg, view, nil)

	out := fundedOutput(view, 10_000)
	tx := spendTx(out, 9_000)
	require.NoError(t, pool.Accept(tx, tip.Height+1, tip.Header.Timestamp))

	builder := NewBuilder(&params, cfg, pool, idx, nil)

	block, err := builder.Build(tip, view, freeScript(), 1)
	require.NoError(t, err)

	require.Len(t, block.Transactions, 2)
	require.True(t, block.Transactions[0].IsCoinbase())
	require.Equal(t, *tx.TxID(), *block.Transactions[1].TxID())

	wantCoinbaseValue := params.Subsidy(tip.Height+1) + 1_000
	require.Equal(t, wantCoinbaseValue, block.Transactions[0].Outputs[0].Value)
}

func TestBuildSkipsATransactionWhoseInputsAreNotYetInTheView(t *testing.T) {
	params := chaincfg.RegressionNetParams

	view := newMapView()
	view.coins[*params.GenesisBlock.CoinbaseTx().TxID()] = model.NewCoinsFromTx(params.GenesisBlock.CoinbaseTx(), 0)

	idx := blockindex.New()
	tip := idx.Insert(params.GenesisBlock.Header, nil)
	idx.SetStatus(tip, blockindex.StatusValidHeader|blockindex.StatusValidTransactions|blockindex.StatusValidScripts)

	cfg := testSettings()
	pool := mempool.New(&params, cfg, view, nil)

	builder := NewBuilder(&params, cfg, pool, idx, nil)

	block, err := builder.Build(tip, view, freeScript(), 1)
	require.NoError(t, err)
	require.Len(t, block.Transactions, 1)
	require.Equal(t, params.Subsidy(tip.Height+1), block.Transactions[0].Outputs[0].Value)
}
