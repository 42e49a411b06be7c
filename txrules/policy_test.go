package txrules

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/model"
	"github.com/bsv-blockchain/chaincore/settings"
)

func samplePolicy() *settings.PolicySettings {
	return &settings.PolicySettings{
		MaxStandardTxSize: 100_000,
		MaxTxSigScriptLen: 500,
		MinRelayTxFee:     0.00001,
		DustThreshold:     546,
	}
}

func TestCheckStandardSkipsWhenNonStandardAccepted(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Outputs[0].Value = 1 // dust

	require.NoError(t, CheckStandard(tx, 100, 1000, samplePolicy(), true))
}

func TestCheckStandardRejectsNonPushOnlyUnlockingScript(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	notPushOnly := bscript.Script{byte(bscript.OpCHECKSIG)}
	tx.Inputs[0].UnlockingScript = &notPushOnly

	require.Error(t, CheckStandard(tx, 100, 1000, samplePolicy(), false))
}

func TestCheckStandardRejectsDustOutput(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Outputs[0].Value = 1

	require.Error(t, CheckStandard(tx, 100, 1000, samplePolicy(), false))
}

func TestCheckStandardAllowsZeroValueBurnOutput(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	burn := bscript.Script{byte(bscript.OpFALSE), byte(bscript.OpRETURN)}
	tx.Outputs[0] = &model.TxOut{Value: 0, LockingScript: &burn}

	require.NoError(t, CheckStandard(tx, 100, 1000, samplePolicy(), false))
}

func TestCheckStandardRejectsOversizeScriptSig(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	big := make(bscript.Script, 501)
	tx.Inputs[0].UnlockingScript = &big

	require.Error(t, CheckStandard(tx, 100, 1000, samplePolicy(), false))
}

func TestIsDustExemptsUnspendableOutputs(t *testing.T) {
	burn := bscript.Script{byte(bscript.OpFALSE), byte(bscript.OpRETURN)}
	out := &model.TxOut{Value: 0, LockingScript: &burn}

	require.False(t, IsDust(out, 546))
}

func TestMinRelayFeeRoundsUpToWholeSatoshi(t *testing.T) {
	// 0.000005 BSV/kB == 0.5 satoshi/byte; 3 bytes costs 1.5 sat, rounded up.
	fee := MinRelayFee(3, 0.000005)
	require.Equal(t, int64(2), fee)
}

func TestMinRelayFeeScalesWithSize(t *testing.T) {
	// same rate, 2000 bytes costs exactly 1000 sat, no rounding needed.
	fee := MinRelayFee(2000, 0.000005)
	require.Equal(t, int64(1000), fee)
}
