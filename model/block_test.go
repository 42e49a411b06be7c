package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"
)

func coinbaseWithHeight(height uint32) *Tx {
	push := bscript.Script(EncodeCoinbaseHeight(height))
	script := &push

	return &Tx{
		Version: 2,
		Inputs: []*TxIn{
			{PreviousOutPoint: NullOutPoint, UnlockingScript: script},
		},
		Outputs: []*TxOut{{Value: 5000000000}},
	}
}

func TestEncodeDecodeCoinbaseHeightRoundTrip(t *testing.T) {
	for _, h := range []uint32{0, 1, 16, 17, 255, 869334, 1_000_000} {
		blk := &Block{
			Header:       &BlockHeader{Version: 2},
			Transactions: []*Tx{coinbaseWithHeight(h)},
		}

		got, err := blk.ExtractCoinbaseHeight()
		require.NoError(t, err)
		require.Equal(t, h, got)
	}
}

func TestMerkleRootSingleTxEqualsTxID(t *testing.T) {
	tx := coinbaseWithHeight(1)
	blk := &Block{Header: &BlockHeader{Version: 2}, Transactions: []*Tx{tx}}

	require.Equal(t, tx.TxID().String(), blk.MerkleRoot().String())
}

func TestMerkleRootOddCountDuplicatesLast(t *testing.T) {
	blk := &Block{
		Header: &BlockHeader{Version: 2},
		Transactions: []*Tx{
			coinbaseWithHeight(1),
			{Outputs: []*TxOut{{Value: 10}}},
			{Outputs: []*TxOut{{Value: 20}}},
		},
	}

	// With three leaves the third is paired with itself at the first level.
	pair := func(a, b *chainhash.Hash) chainhash.Hash {
		var buf [64]byte
		copy(buf[:32], a[:])
		copy(buf[32:], b[:])

		return chainhash.DoubleHashH(buf[:])
	}

	left := pair(blk.Transactions[0].TxID(), blk.Transactions[1].TxID())
	right := pair(blk.Transactions[2].TxID(), blk.Transactions[2].TxID())
	want := pair(&left, &right)
	require.Equal(t, want.String(), blk.MerkleRoot().String())

	blk.Header.HashMerkleRoot = *blk.MerkleRoot()
	require.NoError(t, blk.CheckMerkleRoot())
}

func TestCheckDuplicateTransactionsDetectsRepeat(t *testing.T) {
	tx := coinbaseWithHeight(1)
	blk := &Block{
		Header:       &BlockHeader{Version: 2},
		Transactions: []*Tx{tx, tx},
	}

	require.Error(t, blk.CheckDuplicateTransactions())
}
