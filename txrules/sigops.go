package txrules

import (
	"github.com/bsv-blockchain/go-bt/v2/bscript"

	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/utxo"
)

// IsPayToScriptHash reports whether script is the canonical P2SH pattern
// OP_HASH160 <20-byte hash> OP_EQUAL (BIP16).
func IsPayToScriptHash(script *bscript.Script) bool {
	if script == nil {
		return false
	}

	b := []byte(*script)

	return len(b) == 23 &&
		b[0] == byte(bscript.OpHASH160) &&
		b[1] == 0x14 &&
		b[22] == byte(bscript.OpEQUAL)
}

// lastPush returns the final data push in a push-only script, the redeem
// script a P2SH input commits to. It returns nil if script is not push-only
// or pushes nothing.
func lastPush(script *bscript.Script) []byte {
	if script == nil || !IsPushOnly(script) {
		return nil
	}

	b := []byte(*script)

	var last []byte

	for i := 0; i < len(b); {
		op := b[i]

		switch {
		case op <= 0x4b:
			last = b[i+1 : i+1+int(op)]
			i += 1 + int(op)
		case op == byte(bscript.OpPUSHDATA1):
			n := int(b[i+1])
			last = b[i+2 : i+2+n]
			i += 2 + n
		case op == byte(bscript.OpPUSHDATA2):
			n := int(b[i+1]) | int(b[i+2])<<8
			last = b[i+3 : i+3+n]
			i += 3 + n
		case op == byte(bscript.OpPUSHDATA4):
			n := int(b[i+1]) | int(b[i+2])<<8 | int(b[i+3])<<16 | int(b[i+4])<<24
			last = b[i+5 : i+5+n]
			i += 5 + n
		default:
			last = nil
			i++
		}
	}

	return last
}

// CountP2SHSigOps counts the sigops contributed by a transaction's P2SH
// inputs: for each non-coinbase input whose claimed prevout locking script
// is the P2SH pattern, the redeem script committed to by the unlocking
// script's final push is itself scanned for legacy sigops.
func CountP2SHSigOps(tx *model.Tx, view utxo.View) int {
	if tx.IsCoinbase() {
		return 0
	}

	count := 0

	for _, in := range tx.Inputs {
		prevOut, ok := view.GetOutput(in.PreviousOutPoint)
		if !ok || !IsPayToScriptHash(prevOut.LockingScript) {
			continue
		}

		redeem := lastPush(in.UnlockingScript)
		if redeem == nil {
			continue
		}

		redeemScript := bscript.Script(redeem)
		count += CountLegacySigOps(&redeemScript)
	}

	return count
}
