package mempool

import (
	"time"

	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/script"
	"github.com/bsv-blockchain/chaincore/txrules"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// Accept validates tx against consensus rules, standardness policy, the
// minimum relay fee (or the free-relay rate limit), replace-by-fee
// conflicts, and full script verification, then admits it at the pool's
// current tip context (§4.4). Any previously orphaned transaction waiting
// on tx is then retried.
func (p *Pool) Accept(tx *model.Tx, height int32, currentTime uint32) error {
	if tx.IsCoinbase() {
		return errors.NewTxInvalidError("coinbase transactions are not relayed")
	}

	if err := txrules.CheckTransaction(tx, p.settings.Policy.MaxBlockSize); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.acceptLocked(tx, height, currentTime); err != nil {
		return err
	}

	hash := *tx.TxID()
	for _, child := range p.orphans.Drain(hash) {
		_ = p.acceptLocked(child, height, currentTime)
	}

	return nil
}

func (p *Pool) acceptLocked(tx *model.Tx, height int32, currentTime uint32) error {
	hash := *tx.TxID()

	if _, exists := p.byHash[hash]; exists {
		return errors.NewTxAlreadyExistsError("transaction %s already in pool", hash.String())
	}

	replaced, err := p.resolveConflictsLocked(tx, height, currentTime)
	if err != nil {
		return err
	}

	overlay := utxo.NewMempoolOverlay(p.view, p)

	if !overlay.HaveInputs(tx) {
		p.orphans.Add(tx, firstMissingParent(overlay, tx).Hash)
		return errors.NewTxInvalidError("transaction %s has an unresolved input", hash.String())
	}

	fee, err := valueDelta(overlay, tx)
	if err != nil {
		return err
	}

	if err := txrules.CheckStandard(tx, height, currentTime, &p.settings.Policy, p.settings.Policy.AcceptNonStdTxs); err != nil {
		return err
	}

	minFee := txrules.MinRelayFee(tx.Size(), p.settings.Policy.MinRelayTxFee)
	if fee < minFee && !p.freeRelay.Allow(time.Now(), tx.Size()) {
		return errors.NewTxInvalidError("transaction %s pays below minimum relay fee and exceeds the free-relay rate limit", hash.String())
	}

	if err := p.verifyScripts(tx, overlay); err != nil {
		return err
	}

	for _, r := range replaced {
		p.removeLocked(r, true)
	}

	p.insertLocked(tx, fee, height, time.Now())

	return nil
}

func valueDelta(view utxo.View, tx *model.Tx) (int64, error) {
	var valueIn int64

	for _, in := range tx.Inputs {
		out, ok := view.GetOutput(in.PreviousOutPoint)
		if !ok {
			return 0, errors.NewTxInvalidError("input references missing output %s", in.PreviousOutPoint.String())
		}

		valueIn += out.Value
	}

	valueOut := tx.TotalOutputValue()
	if valueIn < valueOut {
		return 0, errors.NewTxInvalidError("transaction spends more than its inputs provide")
	}

	return valueIn - valueOut, nil
}

func firstMissingParent(view utxo.View, tx *model.Tx) model.OutPoint {
	for _, in := range tx.Inputs {
		if !view.HaveCoins(in.PreviousOutPoint.Hash) {
			return in.PreviousOutPoint
		}
	}

	return model.OutPoint{}
}

func (p *Pool) verifyScripts(tx *model.Tx, view utxo.View) error {
	if p.verifier == nil {
		return nil
	}

	control := script.NewControl(p.verifier, 1)

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
			Flags:           script.FlagP2SH | script.FlagStrictEnc,
		})
	}

	if !control.Wait() {
		return errors.NewTxInvalidError("script verification failed for %s", tx.TxID().String())
	}

	return nil
}
