package txrules

import (
	"math"

	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/settings"
)

// NonFinalMempoolHorizon is how many blocks ahead of the current tip a
// non-final transaction's lock_time must resolve by to be relay-standard,
// matching the classic "would be final within the next two blocks" relay
// exception.
const NonFinalMempoolHorizon = 2

// CheckStandard applies the mempool relay/standardness policy on top of the
// consensus rules CheckTransaction already enforces: bounded size, push-only
// unlocking scripts, no non-final transactions outside the mempool horizon,
// and no dust outputs. acceptNonStandard (testnet, or an explicit operator
// override) skips every check here.
func CheckStandard(tx *model.Tx, height int32, currentTime uint32, policy *settings.PolicySettings, acceptNonStandard bool) error {
	if acceptNonStandard {
		return nil
	}

	if tx.Size() > policy.MaxStandardTxSize {
		return errors.NewTxInvalidError("transaction size %d exceeds standard size policy %d", tx.Size(), policy.MaxStandardTxSize)
	}

	if !IsFinal(tx, height+NonFinalMempoolHorizon, currentTime) {
		return errors.NewTxInvalidError("transaction is not final within the relay horizon")
	}

	for i, in := range tx.Inputs {
		if in.UnlockingScript != nil && len(*in.UnlockingScript) > policy.MaxTxSigScriptLen {
			return errors.NewTxInvalidError("input %d unlocking script length %d exceeds policy %d", i, len(*in.UnlockingScript), policy.MaxTxSigScriptLen)
		}

		if !IsPushOnly(in.UnlockingScript) {
			return errors.NewTxInvalidError("input %d unlocking script is not push-only", i)
		}
	}

	for i, out := range tx.Outputs {
		if IsDust(out, policy.DustThreshold) {
			return errors.NewTxInvalidError("output %d value %d is dust", i, out.Value)
		}
	}

	return nil
}

// IsDust reports whether out's value is below threshold, exempting the
// OP_FALSE OP_RETURN burn pattern which is allowed to carry zero value.
func IsDust(out *model.TxOut, threshold int64) bool {
	if IsUnspendable(out.LockingScript) {
		return false
	}

	return out.Value < threshold
}

// MinRelayFee returns the minimum fee, in satoshis, a transaction of size
// bytes must pay at the configured minRelayTxFee rate (expressed in
// BSV/kB, matching settings.PolicySettings.MinRelayTxFee): the fee is
// ceil(size · rate / 1000) satoshis, proportional to size and rounded up to
// the next whole satoshi. The size is not rounded up to whole kilobytes.
func MinRelayFee(size int, minRelayTxFee float64) int64 {
	satoshisPerKB := int64(math.Round(minRelayTxFee * 1e8))

	fee := (int64(size)*satoshisPerKB + 999) / 1000
	if fee == 0 && size > 0 && minRelayTxFee > 0 {
		fee = 1
	}

	return fee
}
