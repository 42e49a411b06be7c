package utxo

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/model"
)

type memView struct {
	coins     map[chainhash.Hash]*model.Coins
	bestBlock chainhash.Hash
}

func newMemView() *memView {
	return &memView{coins: make(map[chainhash.Hash]*model.Coins)}
}

func (m *memView) GetCoins(h chainhash.Hash) (*model.Coins, bool) {
	c, ok := m.coins[h]
	return c, ok
}

func (m *memView) HaveCoins(h chainhash.Hash) bool {
	_, ok := m.coins[h]
	return ok
}

func (m *memView) SetCoins(h chainhash.Hash, c *model.Coins) error {
	if c == nil || c.IsSpent() {
		delete(m.coins, h)
		return nil
	}

	m.coins[h] = c

	return nil
}

func (m *memView) GetOutput(op model.OutPoint) (*model.TxOut, bool) { return getOutput(m, op) }
func (m *memView) HaveInputs(tx *model.Tx) bool                      { return haveInputs(m, tx) }
func (m *memView) BestBlock() (chainhash.Hash, bool)                 { return m.bestBlock, true }
func (m *memView) SetBestBlock(h chainhash.Hash)                     { m.bestBlock = h }
func (m *memView) Flush() error                                      { return nil }
func (m *memView) CacheSize() int                                    { return len(m.coins) }

func sampleCoins() *model.Coins {
	s := bscript.Script{0x51}
	return &model.Coins{
		Height:  10,
		Version: 1,
		Outputs: map[uint32]*model.TxOut{0: {Value: 1000, LockingScript: &s}},
	}
}

func TestCacheReadThroughPopulatesLocalCopy(t *testing.T) {
	base := newMemView()
	hash := chainhash.Hash{1}
	require.NoError(t, base.SetCoins(hash, sampleCoins()))

	cache := NewCache(base)
	require.Equal(t, 0, cache.CacheSize())

	coins, ok := cache.GetCoins(hash)
	require.True(t, ok)
	require.Equal(t, uint32(10), coins.Height)
	require.Equal(t, 1, cache.CacheSize())
}

func TestCacheWritesDoNotTouchParentUntilFlush(t *testing.T) {
	base := newMemView()
	cache := NewCache(base)

	hash := chainhash.Hash{2}
	require.NoError(t, cache.SetCoins(hash, sampleCoins()))

	require.False(t, base.HaveCoins(hash))
	require.True(t, cache.HaveCoins(hash))

	require.NoError(t, cache.Flush())
	require.True(t, base.HaveCoins(hash))
	require.Equal(t, 0, cache.CacheSize())
}

func TestStackedCacheRollbackDiscardsOuterOnly(t *testing.T) {
	base := newMemView()
	hash := chainhash.Hash{3}
	require.NoError(t, base.SetCoins(hash, sampleCoins()))

	inner := NewCache(base)
	outer := NewCache(inner)

	require.NoError(t, outer.SetCoins(hash, nil)) // tentatively spend

	require.False(t, outer.HaveCoins(hash))
	require.True(t, inner.HaveCoins(hash)) // rollback: just drop outer

	outer = NewCache(inner)
	require.True(t, outer.HaveCoins(hash))
}

func TestMempoolOverlaySynthesizesCoinsAtMempoolHeight(t *testing.T) {
	base := newMemView()

	tx := &model.Tx{Outputs: []*model.TxOut{{Value: 500, LockingScript: &bscript.Script{}}}}
	pool := stubLookup{tx: tx}

	overlay := NewMempoolOverlay(base, pool)

	coins, ok := overlay.GetCoins(*tx.TxID())
	require.True(t, ok)
	require.Equal(t, uint32(MempoolHeight), coins.Height)

	require.Error(t, overlay.SetCoins(*tx.TxID(), coins))
}

type stubLookup struct {
	tx *model.Tx
}

func (s stubLookup) GetTx(h chainhash.Hash) (*model.Tx, bool) {
	if s.tx != nil && *s.tx.TxID() == h {
		return s.tx, true
	}

	return nil, false
}
