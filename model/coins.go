package model

import "github.com/bsv-blockchain/go-bt/v2/bscript"

// Coins is the UTXO-view record for a single transaction: which of its
// outputs are still unspent, keyed by output index, plus the metadata
// needed to validate future spends of them (height, coinbase-ness, the
// version byte recorded for disk compaction diagnostics).
type Coins struct {
	Coinbase bool
	Height   uint32
	Version  int32
	Outputs  map[uint32]*TxOut
}

// NewCoinsFromTx builds a Coins record holding every output of tx, as the
// view looks immediately after tx is added at height.
func NewCoinsFromTx(tx *Tx, height uint32) *Coins {
	outputs := make(map[uint32]*TxOut, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[uint32(i)] = out
	}

	return &Coins{
		Coinbase: tx.IsCoinbase(),
		Height:   height,
		Version:  tx.Version,
		Outputs:  outputs,
	}
}

// IsSpent reports whether every output has been removed, meaning the record
// as a whole is prunable.
func (c *Coins) IsSpent() bool {
	return len(c.Outputs) == 0
}

// HaveOutput reports whether output index i is still present and unspent.
func (c *Coins) HaveOutput(i uint32) bool {
	_, ok := c.Outputs[i]
	return ok
}

// GetOutput returns output index i, or nil if it has been spent or never
// existed.
func (c *Coins) GetOutput(i uint32) *TxOut {
	return c.Outputs[i]
}

// Spend removes output index i, returning false if it was already absent
// (a double-spend attempt against this record).
func (c *Coins) Spend(i uint32) bool {
	if _, ok := c.Outputs[i]; !ok {
		return false
	}

	delete(c.Outputs, i)

	return true
}

// Clone returns a deep copy suitable for a scratch overlay that may be
// rolled back without mutating c.
func (c *Coins) Clone() *Coins {
	outputs := make(map[uint32]*TxOut, len(c.Outputs))
	for i, out := range c.Outputs {
		outCopy := &TxOut{Value: out.Value}
		if out.LockingScript != nil {
			s := make(bscript.Script, len(*out.LockingScript))
			copy(s, *out.LockingScript)
			outCopy.LockingScript = &s
		}

		outputs[i] = outCopy
	}

	return &Coins{
		Coinbase: c.Coinbase,
		Height:   c.Height,
		Version:  c.Version,
		Outputs:  outputs,
	}
}
