package utxo

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// Cache is an in-memory overlay on a parent View: reads that miss the local
// map fall through to the parent and populate the local map; writes only
// ever touch the local map. Stacking a Cache over a Cache is the mechanism
// by which validation tentatively applies a block and rolls back on
// failure, simply by discarding the outer Cache.
type Cache struct {
	parent View

	coins         map[chainhash.Hash]*model.Coins
	bestBlock     chainhash.Hash
	bestBlockSet  bool
}

// NewCache wraps parent with a fresh, empty local overlay.
func NewCache(parent View) *Cache {
	return &Cache{
		parent: parent,
		coins:  make(map[chainhash.Hash]*model.Coins),
	}
}

// GetCoins returns the local copy if present, otherwise reads through to
// the parent and caches the result (a clone, so further local mutation
// never touches the parent's record).
func (c *Cache) GetCoins(txHash chainhash.Hash) (*model.Coins, bool) {
	if coins, ok := c.coins[txHash]; ok {
		if coins == nil {
			return nil, false
		}

		return coins, true
	}

	parentCoins, ok := c.parent.GetCoins(txHash)
	if !ok {
		return nil, false
	}

	clone := parentCoins.Clone()
	c.coins[txHash] = clone

	return clone, true
}

// HaveCoins reports presence without requiring the caller to discard the
// result, still populating the local cache via GetCoins.
func (c *Cache) HaveCoins(txHash chainhash.Hash) bool {
	_, ok := c.GetCoins(txHash)
	return ok
}

// SetCoins installs coins as txHash's record in the local overlay only. A
// nil or fully-spent coins value records an explicit local tombstone so a
// subsequent read does not fall through to a stale parent record.
func (c *Cache) SetCoins(txHash chainhash.Hash, coins *model.Coins) error {
	if coins == nil || coins.IsSpent() {
		c.coins[txHash] = nil
		return nil
	}

	c.coins[txHash] = coins

	return nil
}

// GetOutput is the shared View convenience built on GetCoins.
func (c *Cache) GetOutput(op model.OutPoint) (*model.TxOut, bool) {
	return getOutput(c, op)
}

// HaveInputs is the shared View convenience built on GetOutput.
func (c *Cache) HaveInputs(tx *model.Tx) bool {
	return haveInputs(c, tx)
}

// BestBlock returns the local override if set, otherwise the parent's.
func (c *Cache) BestBlock() (chainhash.Hash, bool) {
	if c.bestBlockSet {
		return c.bestBlock, true
	}

	return c.parent.BestBlock()
}

// SetBestBlock overrides the best-block marker locally.
func (c *Cache) SetBestBlock(hash chainhash.Hash) {
	c.bestBlock = hash
	c.bestBlockSet = true
}

// Flush pushes every local delta into the parent and, on success, clears
// the local overlay. It is all-or-nothing: on the first error the records
// already pushed are set back to the values the parent held before, and
// this Cache's own state is left untouched.
func (c *Cache) Flush() error {
	previous := make(map[chainhash.Hash]*model.Coins, len(c.coins))

	for txHash, coins := range c.coins {
		prev, _ := c.parent.GetCoins(txHash)

		if err := c.parent.SetCoins(txHash, coins); err != nil {
			for h, p := range previous {
				_ = c.parent.SetCoins(h, p)
			}

			return fmt.Errorf("flushing coins for %s: %w", txHash.String(), err)
		}

		previous[txHash] = prev
	}

	if c.bestBlockSet {
		c.parent.SetBestBlock(c.bestBlock)
	}

	c.coins = make(map[chainhash.Hash]*model.Coins)
	c.bestBlockSet = false

	return nil
}

// CacheSize returns the number of records (including tombstones) held
// locally.
func (c *Cache) CacheSize() int {
	return len(c.coins)
}
