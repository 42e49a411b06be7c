package txrules

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/model"
)

func sampleNonCoinbaseTx() *model.Tx {
	lock := bscript.Script{0x76, 0xa9}
	unlock := bscript.Script{0x47}

	return &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{PreviousOutPoint: model.OutPoint{Index: 0}, UnlockingScript: &unlock, Sequence: 0xffffffff},
		},
		Outputs: []*model.TxOut{
			{Value: 1000, LockingScript: &lock},
		},
	}
}

func TestCheckTransactionRejectsEmptyInputsOrOutputs(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Inputs = nil

	require.Error(t, CheckTransaction(tx, 1_000_000))
}

func TestCheckTransactionRejectsNegativeOutputValue(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Outputs[0].Value = -1

	require.Error(t, CheckTransaction(tx, 1_000_000))
}

func TestCheckTransactionRejectsOutputOverMoneyRange(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Outputs[0].Value = model.MaxMoney + 1

	require.Error(t, CheckTransaction(tx, 1_000_000))
}

func TestCheckTransactionRejectsDuplicateInputs(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Inputs = append(tx.Inputs, tx.Inputs[0])

	require.Error(t, CheckTransaction(tx, 1_000_000))
}

func TestCheckTransactionRejectsNullPrevoutOnNonCoinbase(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.Inputs[0].PreviousOutPoint = model.NullOutPoint

	require.Error(t, CheckTransaction(tx, 1_000_000))
}

func TestCheckTransactionAcceptsValidNonCoinbase(t *testing.T) {
	require.NoError(t, CheckTransaction(sampleNonCoinbaseTx(), 1_000_000))
}

func TestCheckTransactionEnforcesCoinbaseScriptSigLength(t *testing.T) {
	tooShort := bscript.Script{0x00}

	tx := &model.Tx{
		Inputs:  []*model.TxIn{{PreviousOutPoint: model.NullOutPoint, UnlockingScript: &tooShort}},
		Outputs: []*model.TxOut{{Value: 5_000_000_000}},
	}

	require.Error(t, CheckTransaction(tx, 1_000_000))

	justRight := make(bscript.Script, CoinbaseScriptSigMin)
	tx.Inputs[0].UnlockingScript = &justRight

	require.NoError(t, CheckTransaction(tx, 1_000_000))
}

func TestIsFinalZeroLockTimeIsAlwaysFinal(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	require.True(t, IsFinal(tx, 100, 1000))
}

func TestIsFinalHeightBasedLockTime(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.LockTime = 150
	tx.Inputs[0].Sequence = 0

	require.False(t, IsFinal(tx, 100, 1000))
	require.True(t, IsFinal(tx, 200, 1000))
}

func TestIsFinalMaxSequenceOverridesLockTime(t *testing.T) {
	tx := sampleNonCoinbaseTx()
	tx.LockTime = 999_999
	tx.Inputs[0].Sequence = 0xffffffff

	require.True(t, IsFinal(tx, 1, 1))
}

func TestIsPushOnlyAcceptsDirectPushesAndRejectsOpcodes(t *testing.T) {
	push := bscript.Script{0x01, 0xAB}
	require.True(t, IsPushOnly(&push))

	opcode := bscript.Script{byte(bscript.OpCHECKSIG)}
	require.False(t, IsPushOnly(&opcode))
}

func TestIsUnspendableDetectsOpFalseOpReturn(t *testing.T) {
	s := bscript.Script{byte(bscript.OpFALSE), byte(bscript.OpRETURN), 0x01}
	require.True(t, IsUnspendable(&s))

	notBurn := bscript.Script{byte(bscript.OpTRUE)}
	require.False(t, IsUnspendable(&notBurn))
}

func TestCountLegacySigOpsCountsCheckSigAndMultisig(t *testing.T) {
	s := bscript.Script{byte(bscript.OpCHECKSIG), byte(bscript.OpCHECKMULTISIG)}
	require.Equal(t, 21, CountLegacySigOps(&s))
}
