package chainstate

import (
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/script"
	"github.com/bsv-blockchain/chaincore/txrules"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// bip30Exceptions are the two mainnet blocks grandfathered by the historical
// BIP30 rollout, whose coinbase txid collides with an earlier, still unspent
// transaction of the same hash, which the block overwrote (§9 Open
// Questions: "two grandfathered historical exceptions", preserved literally).
var bip30Exceptions = map[int32]string{
	91842: "00000000000a4d0a398161ffc163c503763b1f4360639393e0e4c8e300e0caec",
	91880: "00000000000743f190a18c5577a3c2d2a1f610ae9601ac046a38084ccb7cd721",
}

func bip30Exempt(height int32, hash *chainhash.Hash) bool {
	want, ok := bip30Exceptions[height]
	if !ok {
		return false
	}

	h, err := chainhash.NewHashFromStr(want)
	if err != nil {
		return false
	}

	return hash.IsEqual(h)
}

// ConnectBlock applies block's transactions to view in order: rejects a
// transaction that would overwrite an already-unspent record, resolves and
// values every non-coinbase input (enforcing coinbase maturity and the
// money-range/value-in-at-least-value-out rules), tracks the running legacy
// plus P2SH sigop budget, optionally queues script verification on control,
// and finally checks the coinbase does not over-claim subsidy plus fees. On
// success it returns the BlockUndo needed to reverse every Coins mutation it
// made.
func ConnectBlock(view utxo.View, block *model.Block, height int32, params *chaincfg.Params, maxBlockSigops int, control *script.Control, flags script.Flag) (*BlockUndo, error) {
	undo := &BlockUndo{TxUndos: make([]TxUndo, len(block.Transactions))}

	sigOps := 0
	var totalFees int64

	for i, tx := range block.Transactions {
		txid := *tx.TxID()

		if existing, ok := view.GetCoins(txid); ok && !existing.IsSpent() && !bip30Exempt(height, block.Hash()) {
			return nil, errors.NewBlockInvalidError("transaction %s would overwrite an existing unspent transaction", txid.String())
		}

		if !tx.IsCoinbase() {
			txUndo, valueIn, err := spendInputs(view, tx, height, params)
			if err != nil {
				return nil, err
			}

			undo.TxUndos[i] = txUndo

			valueOut := tx.TotalOutputValue()
			if valueIn < valueOut {
				return nil, errors.NewBlockInvalidError("transaction %s spends more than its inputs provide", txid.String())
			}

			totalFees += valueIn - valueOut
		}

		sigOps += txSigOps(tx, view, flags)
		if sigOps > maxBlockSigops {
			return nil, errors.NewBlockInvalidError("block sigop count exceeds max block sigops %d", maxBlockSigops)
		}

		if control != nil {
			queueScriptChecks(control, tx, view, flags)
		}

		if err := view.SetCoins(txid, model.NewCoinsFromTx(tx, uint32(height))); err != nil {
			return nil, errors.NewStorageError("writing coins for %s: %v", txid.String(), err)
		}
	}

	if control != nil && !control.Wait() {
		return nil, errors.NewBlockInvalidError("script verification failed for block %s", block.Hash().String())
	}

	subsidy := params.Subsidy(height)

	coinbaseOut := block.CoinbaseTx().TotalOutputValue()
	if coinbaseOut > subsidy+totalFees {
		return nil, errors.NewBlockInvalidError("coinbase pays out %d, exceeding subsidy %d plus fees %d", coinbaseOut, subsidy, totalFees)
	}

	view.SetBestBlock(*block.Hash())

	return undo, nil
}

// spendInputs resolves and marks spent every input of a non-coinbase
// transaction, returning the TxUndo needed to reverse it and the total
// value spent.
func spendInputs(view utxo.View, tx *model.Tx, height int32, params *chaincfg.Params) (TxUndo, int64, error) {
	undo := TxUndo{Inputs: make([]CoinUndo, len(tx.Inputs))}

	var valueIn int64

	for i, in := range tx.Inputs {
		coins, ok := view.GetCoins(in.PreviousOutPoint.Hash)
		if !ok || !coins.HaveOutput(in.PreviousOutPoint.Index) {
			return TxUndo{}, 0, errors.NewTxInvalidError("input %d spends missing or already-spent output %s", i, in.PreviousOutPoint.String())
		}

		if coins.Coinbase {
			confirmations := height - int32(coins.Height)
			if confirmations < int32(params.CoinbaseMaturity) {
				return TxUndo{}, 0, errors.NewTxInvalidError("input %d spends an immature coinbase output (%d confirmations, need %d)", i, confirmations, params.CoinbaseMaturity)
			}
		}

		out := coins.GetOutput(in.PreviousOutPoint.Index)

		valueIn += out.Value
		if valueIn < 0 || valueIn > model.MaxMoney {
			return TxUndo{}, 0, errors.NewTxInvalidError("transaction input value exceeds money range")
		}

		undo.Inputs[i] = CoinUndo{
			Output:         out,
			Height:         coins.Height,
			Coinbase:       coins.Coinbase,
			Version:        coins.Version,
			WholeTxRevival: len(coins.Outputs) == 1,
		}

		coins.Spend(in.PreviousOutPoint.Index)

		if coins.IsSpent() {
			if err := view.SetCoins(in.PreviousOutPoint.Hash, nil); err != nil {
				return TxUndo{}, 0, err
			}
		} else if err := view.SetCoins(in.PreviousOutPoint.Hash, coins); err != nil {
			return TxUndo{}, 0, err
		}
	}

	return undo, valueIn, nil
}

// txSigOps counts the legacy sigops of a transaction's own scripts plus,
// when FlagP2SH is set, the sigops of any redeem scripts its inputs commit
// to via the P2SH pattern.
func txSigOps(tx *model.Tx, view utxo.View, flags script.Flag) int {
	count := 0

	for _, in := range tx.Inputs {
		count += txrules.CountLegacySigOps(in.UnlockingScript)
	}

	for _, out := range tx.Outputs {
		count += txrules.CountLegacySigOps(out.LockingScript)
	}

	if flags&script.FlagP2SH != 0 {
		count += txrules.CountP2SHSigOps(tx, view)
	}

	return count
}

// queueScriptChecks enqueues one script.Check per non-coinbase input.
func queueScriptChecks(control *script.Control, tx *model.Tx, view utxo.View, flags script.Flag) {
	if tx.IsCoinbase() {
		return
	}

	for i, in := range tx.Inputs {
		prevOut, ok := view.GetOutput(in.PreviousOutPoint)
		if !ok {
			continue
		}

		control.Add(&script.Check{
			Tx:              tx,
			InputIndex:      i,
			LockingScript:   scriptBytes(prevOut.LockingScript),
			UnlockingScript: scriptBytes(in.UnlockingScript),
			Flags:           flags,
		})
	}
}

func scriptBytes(s *bscript.Script) []byte {
	if s == nil {
		return nil
	}

	return *s
}

// DisconnectBlock reverses block's effect on view using undo. It returns
// clean = false when it detects an inconsistency (an existing output would
// be overwritten, or the undo data names a transaction view no longer has)
// but continues rather than aborting, per §4.3; callers treat an unclean
// disconnect as corruption worth surfacing, not a hard failure.
func DisconnectBlock(view utxo.View, block *model.Block, undo *BlockUndo) (clean bool) {
	clean = true

	for i := len(block.Transactions) - 1; i >= 0; i-- {
		tx := block.Transactions[i]
		txid := *tx.TxID()

		if coins, ok := view.GetCoins(txid); ok {
			for idx := range tx.Outputs {
				if !coins.HaveOutput(uint32(idx)) {
					clean = false
				}
			}
		} else {
			clean = false
		}

		_ = view.SetCoins(txid, nil)

		if tx.IsCoinbase() {
			continue
		}

		txUndo := undo.TxUndos[i]

		for j := len(tx.Inputs) - 1; j >= 0; j-- {
			in := tx.Inputs[j]
			u := txUndo.Inputs[j]
			prevHash := in.PreviousOutPoint.Hash

			if u.WholeTxRevival {
				if existing, ok := view.GetCoins(prevHash); ok && !existing.IsSpent() {
					clean = false
				}

				_ = view.SetCoins(prevHash, &model.Coins{
					Coinbase: u.Coinbase,
					Height:   u.Height,
					Version:  u.Version,
					Outputs:  map[uint32]*model.TxOut{in.PreviousOutPoint.Index: u.Output},
				})

				continue
			}

			existing, ok := view.GetCoins(prevHash)
			if !ok {
				clean = false
				existing = &model.Coins{Outputs: map[uint32]*model.TxOut{}}
			} else if existing.HaveOutput(in.PreviousOutPoint.Index) {
				clean = false
			}

			existing.Outputs[in.PreviousOutPoint.Index] = u.Output

			_ = view.SetCoins(prevHash, existing)
		}
	}

	return clean
}
