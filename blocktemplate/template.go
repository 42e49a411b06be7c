package blocktemplate

import "github.com/bsv-blockchain/chaincore/utxo"

// template accumulates the transactions selected so far, their running
// size/sigop cost, and the view they were validated against.
type template struct {
	view utxo.View

	maxSize   int
	maxSigOps int

	size    int
	sigops  int
	included []*TxInfo
}

func newTemplate(view utxo.View, maxSize, maxSigOps int) *template {
	return &template{view: view, maxSize: maxSize, maxSigOps: maxSigOps}
}

func (t *template) add(info *TxInfo) {
	info.included = true

	t.included = append(t.included, info)
	t.size += info.Entry.Size
	t.sigops += info.sigOps(t.view)
}
