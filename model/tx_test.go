package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/stretchr/testify/require"
)

func sampleLockingScript() *bscript.Script {
	s := bscript.Script{0x76, 0xa9, 0x14}
	return &s
}

func TestTxSerializationRoundTrip(t *testing.T) {
	tx := &Tx{
		Version: 1,
		Inputs: []*TxIn{
			{
				PreviousOutPoint: OutPoint{Index: 3},
				UnlockingScript:  sampleLockingScript(),
				Sequence:         0xffffffff,
			},
		},
		Outputs: []*TxOut{
			{Value: 5000, LockingScript: sampleLockingScript()},
			{Value: 1500, LockingScript: sampleLockingScript()},
		},
		LockTime: 0,
	}

	decoded, err := NewTxFromBytes(tx.Bytes())
	require.NoError(t, err)

	require.Equal(t, tx.Version, decoded.Version)
	require.Equal(t, tx.LockTime, decoded.LockTime)
	require.Len(t, decoded.Inputs, 1)
	require.Len(t, decoded.Outputs, 2)
	require.Equal(t, tx.Outputs[0].Value, decoded.Outputs[0].Value)
	require.Equal(t, tx.TxID().String(), decoded.TxID().String())
}

func TestTxIsCoinbase(t *testing.T) {
	coinbase := &Tx{
		Inputs: []*TxIn{{PreviousOutPoint: NullOutPoint}},
	}
	require.True(t, coinbase.IsCoinbase())

	spend := &Tx{
		Inputs: []*TxIn{{PreviousOutPoint: OutPoint{Index: 0}}},
	}
	require.False(t, spend.IsCoinbase())
}

func TestTxTotalOutputValue(t *testing.T) {
	tx := &Tx{
		Outputs: []*TxOut{
			{Value: 100},
			{Value: 250},
		},
	}
	require.Equal(t, int64(350), tx.TotalOutputValue())
}

func TestOutPointNullAndString(t *testing.T) {
	require.True(t, NullOutPoint.IsNull())

	op := OutPoint{Index: 7}
	require.False(t, op.IsNull())
	require.Contains(t, op.String(), ":7")
}
