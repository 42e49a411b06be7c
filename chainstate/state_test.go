package chainstate

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/script"
	"github.com/bsv-blockchain/chaincore/settings"
)

// mapView is a trivial in-memory View with no parent, standing in for a
// durable store in tests that only need a few blocks of history.
type mapView struct {
	coins     map[chainhash.Hash]*model.Coins
	bestBlock chainhash.Hash
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
		if in.PreviousOutPoint.IsNull() {
			continue
		}

		if _, ok := v.GetOutput(in.PreviousOutPoint); !ok {
			return false
		}
	}

	return true
}

func (v *mapView) BestBlock() (chainhash.Hash, bool) {
	return v.bestBlock, v.bestBlock != chainhash.Hash{}
}

func (v *mapView) SetBestBlock(h chainhash.Hash) { v.bestBlock = h }

func (v *mapView) Flush() error { return nil }

func (v *mapView) CacheSize() int { return len(v.coins) }

func testParams() *chaincfg.Params {
	p := chaincfg.RegressionNetParams
	return &p
}

func testSettings() *settings.Settings {
	return &settings.Settings{
		ChainCfgParams: testParams(),
		Policy: settings.PolicySettings{
			MaxBlockSize:   1_000_000,
			MaxBlockSigops: 20_000,
		},
		Orphan: settings.OrphanSettings{
			MaxOrphanBlocks: 10,
		},
		Script: settings.ScriptSettings{Workers: 1},
	}
}

func payToScript() *bscript.Script {
	s := bscript.Script{byte(bscript.OpTRUE)}
	return &s
}

func TestNewConnectsGenesisAndSetsTip(t *testing.T) {
	params := testParams()
	view := newMapView()

	cs, err := New(params, testSettings(), view)
	require.NoError(t, err)

	require.Equal(t, int32(0), cs.Tip().Height)
	require.Equal(t, *params.GenesisBlock.Hash(), cs.Tip().Hash)

	best, ok := view.BestBlock()
	require.True(t, ok)
	require.Equal(t, *params.GenesisBlock.Hash(), best)

	coinbaseID := *params.GenesisBlock.CoinbaseTx().TxID()
	coins, ok := view.GetCoins(coinbaseID)
	require.True(t, ok)
	require.True(t, coins.Coinbase)
}

// mineBlock builds a single-coinbase-tx block extending tip, valued at the
// exact subsidy so ConnectBlock's subsidy-plus-fees check on the coinbase
// passes.
func mineBlock(t *testing.T, params *chaincfg.Params, tip *model.BlockHeader, height int32) *model.Block {
	t.Helper()

	coinbase := &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{PreviousOutPoint: model.NullOutPoint, Sequence: 0xffffffff},
		},
		Outputs: []*model.TxOut{
			{Value: params.Subsidy(height), LockingScript: payToScript()},
		},
	}

	header := &model.BlockHeader{
		Version:       2,
		HashPrevBlock: *tip.Hash(),
		Timestamp:     tip.Timestamp + 600,
		Bits:          tip.Bits,
	}

	block, err := model.NewBlock(header, []*model.Tx{coinbase})
	require.NoError(t, err)

	return block
}

func TestConnectAndDisconnectBlockRoundTrip(t *testing.T) {
	params := testParams()
	view := newMapView()

	cs, err := New(params, testSettings(), view)
	require.NoError(t, err)

	tipHeader := cs.Tip().Header
	block := mineBlock(t, params, &tipHeader, 1)

	undo, err := ConnectBlock(view, block, 1, params, 20_000, nil, cs.scriptFlags())
	require.NoError(t, err)
	require.Len(t, undo.TxUndos, 1)

	coinbaseID := *block.CoinbaseTx().TxID()
	_, ok := view.GetCoins(coinbaseID)
	require.True(t, ok)

	clean := DisconnectBlock(view, block, undo)
	require.True(t, clean)

	_, ok = view.GetCoins(coinbaseID)
	require.False(t, ok)
}

func TestConnectBlockRejectsOversizedCoinbase(t *testing.T) {
	params := testParams()
	view := newMapView()

	_, err := New(params, testSettings(), view)
	require.NoError(t, err)

	tipHeader := params.GenesisBlock.Header
	block := mineBlock(t, params, tipHeader, 1)
	block.Transactions[0].Outputs[0].Value = params.Subsidy(1) + 1

	_, err = ConnectBlock(view, block, 1, params, 20_000, nil, script.FlagP2SH|script.FlagStrictEnc)
	require.Error(t, err)
}
