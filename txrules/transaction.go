// Package txrules implements the context-free and contextual validation
// rules applied to transactions and blocks: the checks every node performs
// identically regardless of configuration (check_transaction, check_block),
// the checks that depend on chain position (accept_block, retarget), and
// the configurable standardness policy layered on top for mempool relay.
package txrules

import (
	"github.com/bsv-blockchain/go-bt/v2/bscript"

	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
)

// CoinbaseScriptSigMin and CoinbaseScriptSigMax bound the coinbase's
// unlocking script length.
const (
	CoinbaseScriptSigMin = 2
	CoinbaseScriptSigMax = 100
)

// CheckTransaction applies the context-free rules every transaction must
// satisfy regardless of where it will be spent: non-empty vin/vout, a
// serialized size within maxBlockSize, no negative or overflowing output
// values, no duplicate inputs, and the coinbase-specific or
// non-coinbase-specific prevout shape.
func CheckTransaction(tx *model.Tx, maxBlockSize int) error {
	if len(tx.Inputs) == 0 {
		return errors.NewTxInvalidError("transaction has no inputs")
	}

	if len(tx.Outputs) == 0 {
		return errors.NewTxInvalidError("transaction has no outputs")
	}

	if tx.Size() > maxBlockSize {
		return errors.NewTxInvalidError("transaction size %d exceeds max block size %d", tx.Size(), maxBlockSize)
	}

	if err := checkOutputValues(tx); err != nil {
		return err
	}

	if err := checkDuplicateInputs(tx); err != nil {
		return err
	}

	if tx.IsCoinbase() {
		scriptLen := 0
		if tx.Inputs[0].UnlockingScript != nil {
			scriptLen = len(*tx.Inputs[0].UnlockingScript)
		}

		if scriptLen < CoinbaseScriptSigMin || scriptLen > CoinbaseScriptSigMax {
			return errors.NewTxInvalidError("coinbase script_sig length %d out of range [%d,%d]", scriptLen, CoinbaseScriptSigMin, CoinbaseScriptSigMax)
		}

		return nil
	}

	for i, in := range tx.Inputs {
		if in.PreviousOutPoint.IsNull() {
			return errors.NewTxInvalidError("non-coinbase transaction input %d has null prevout", i)
		}
	}

	return nil
}

func checkOutputValues(tx *model.Tx) error {
	var total int64

	for i, out := range tx.Outputs {
		if out.Value < 0 {
			return errors.NewTxInvalidError("transaction output %d has negative value", i)
		}

		if out.Value > model.MaxMoney {
			return errors.NewTxInvalidError("transaction output %d value exceeds money range", i)
		}

		total += out.Value
		if total < 0 || total > model.MaxMoney {
			return errors.NewTxInvalidError("transaction output total exceeds money range")
		}
	}

	return nil
}

func checkDuplicateInputs(tx *model.Tx) error {
	seen := make(map[model.OutPoint]struct{}, len(tx.Inputs))

	for i, in := range tx.Inputs {
		if _, ok := seen[in.PreviousOutPoint]; ok {
			return errors.NewTxInvalidError("transaction input %d duplicates prevout %s", i, in.PreviousOutPoint.String())
		}

		seen[in.PreviousOutPoint] = struct{}{}
	}

	return nil
}

// IsFinal reports whether tx is final at (height, blockTime), per the
// classic lock_time/sequence rule: lock_time == 0 is always final; a
// lock_time below the threshold is compared against height, otherwise
// against blockTime; either comparison is moot if every input carries the
// max sequence number.
func IsFinal(tx *model.Tx, height int32, blockTime uint32) bool {
	if tx.LockTime == 0 {
		return true
	}

	const lockTimeThreshold = 500_000_000

	if tx.LockTime < lockTimeThreshold {
		if int32(tx.LockTime) < height {
			return true
		}
	} else if tx.LockTime < blockTime {
		return true
	}

	for _, in := range tx.Inputs {
		if in.Sequence != 0xffffffff {
			return false
		}
	}

	return true
}

// IsPushOnly reports whether script contains only data-push opcodes, the
// mempool standardness requirement for unlocking scripts.
func IsPushOnly(script *bscript.Script) bool {
	if script == nil {
		return true
	}

	b := []byte(*script)

	for i := 0; i < len(b); {
		op := b[i]

		switch {
		case op <= 0x4b: // direct push of op bytes
			i += 1 + int(op)
		case op == byte(bscript.OpPUSHDATA1):
			if i+1 >= len(b) {
				return false
			}

			i += 2 + int(b[i+1])
		case op == byte(bscript.OpPUSHDATA2):
			if i+2 >= len(b) {
				return false
			}

			n := int(b[i+1]) | int(b[i+2])<<8
			i += 3 + n
		case op == byte(bscript.OpPUSHDATA4):
			if i+4 >= len(b) {
				return false
			}

			n := int(b[i+1]) | int(b[i+2])<<8 | int(b[i+3])<<16 | int(b[i+4])<<24
			i += 5 + n
		case op >= byte(bscript.Op1) && op <= byte(bscript.Op16), op == byte(bscript.Op1NEGATE), op == byte(bscript.OpFALSE):
			i++
		default:
			return false
		}
	}

	return true
}

// IsUnspendable reports whether script is the OP_FALSE OP_RETURN pattern
// used to provably burn an output (a recognized zero-value exception to the
// dust rule).
func IsUnspendable(script *bscript.Script) bool {
	if script == nil {
		return false
	}

	b := []byte(*script)

	return len(b) >= 2 && b[0] == byte(bscript.OpFALSE) && b[1] == byte(bscript.OpRETURN)
}

// CountLegacySigOps counts OP_CHECKSIG(VERIFY) and OP_CHECKMULTISIG(VERIFY)
// occurrences in script, the classic (non-P2SH) signature-operation cost
// used against MAX_BLOCK_SIGOPS.
func CountLegacySigOps(script *bscript.Script) int {
	if script == nil {
		return 0
	}

	b := []byte(*script)
	count := 0

	for i := 0; i < len(b); {
		op := b[i]

		switch {
		case op <= 0x4b:
			i += 1 + int(op)
			continue
		case op == byte(bscript.OpPUSHDATA1):
			if i+1 >= len(b) {
				return count
			}

			i += 2 + int(b[i+1])
			continue
		case op == byte(bscript.OpPUSHDATA2):
			if i+2 >= len(b) {
				return count
			}

			n := int(b[i+1]) | int(b[i+2])<<8
			i += 3 + n

			continue
		case op == byte(bscript.OpPUSHDATA4):
			if i+4 >= len(b) {
				return count
			}

			n := int(b[i+1]) | int(b[i+2])<<8 | int(b[i+3])<<16 | int(b[i+4])<<24
			i += 5 + n

			continue
		}

		switch op {
		case byte(bscript.OpCHECKSIG), byte(bscript.OpCHECKSIGVERIFY):
			count++
		case byte(bscript.OpCHECKMULTISIG), byte(bscript.OpCHECKMULTISIGVERIFY):
			count += 20
		}

		i++
	}

	return count
}
