package mempool

import (
	"time"

	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// Resurrect re-admits a transaction that a reorg disconnected, ignoring the
// usual fee, standardness and conflict checks (§4.2 step 5: "feed the
// resurrect list back into the mempool, ignoring validation errors") — the
// only requirement is that its inputs still resolve against the
// now-active chain.
func (p *Pool) Resurrect(tx *model.Tx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := *tx.TxID()

	if _, exists := p.byHash[hash]; exists {
		return
	}

	overlay := utxo.NewMempoolOverlay(p.view, p)

	if !overlay.HaveInputs(tx) {
		return
	}

	fee, err := valueDelta(overlay, tx)
	if err != nil {
		return
	}

	p.insertLocked(tx, fee, int32(utxo.MempoolHeight), time.Now())
}
