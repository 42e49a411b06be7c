package chainstate

import "github.com/bsv-blockchain/chaincore/model"

// CoinUndo is the information needed to reverse one spent input. Output is
// the output that was spent. WholeTxRevival is set when this input's spend
// exhausted the last remaining output of its transaction's Coins record —
// in that case Height, Coinbase, and Version must be replayed to rebuild the
// record from scratch; otherwise the spent output is simply reinserted into
// the transaction's still-live Coins record.
type CoinUndo struct {
	Output         *model.TxOut
	Height         uint32
	Coinbase       bool
	Version        int32
	WholeTxRevival bool
}

// TxUndo holds one CoinUndo per non-coinbase input of a transaction, in
// input order. A coinbase transaction's TxUndo carries no entries.
type TxUndo struct {
	Inputs []CoinUndo
}

// BlockUndo holds one TxUndo per transaction of a connected block, in
// transaction order — enough information for DisconnectBlock to exactly
// reverse what ConnectBlock applied.
type BlockUndo struct {
	TxUndos []TxUndo
}
