package txrules

import (
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chaincore/model"
)

func coinbaseTx(scriptLen int) *model.Tx {
	script := make(bscript.Script, scriptLen)

	return &model.Tx{
		Version: 1,
		Inputs:  []*model.TxIn{{PreviousOutPoint: model.NullOutPoint, UnlockingScript: &script}},
		Outputs: []*model.TxOut{{Value: 5_000_000_000, LockingScript: &bscript.Script{}}},
	}
}

func easyBlock(t *testing.T, txs []*model.Tx) *model.Block {
	t.Helper()

	bits, err := model.NewNBitFromString("207fffff")
	require.NoError(t, err)

	header := &model.BlockHeader{
		Version:   1,
		Timestamp: uint32(time.Now().Unix()),
		Bits:      bits,
	}

	block, err := model.NewBlock(header, txs)
	require.NoError(t, err)

	return block
}

func TestCheckBlockAcceptsMinimalValidBlock(t *testing.T) {
	block := easyBlock(t, []*model.Tx{coinbaseTx(4)})

	err := CheckBlock(block, 1_000_000, 20_000, time.Now())
	require.NoError(t, err)
}

func TestCheckBlockRejectsEmptyBlock(t *testing.T) {
	block := &model.Block{Header: &model.BlockHeader{}}

	err := CheckBlock(block, 1_000_000, 20_000, time.Now())
	require.Error(t, err)
}

func TestCheckBlockRejectsMissingCoinbase(t *testing.T) {
	nonCoinbase := sampleNonCoinbaseTx()
	block := easyBlock(t, []*model.Tx{nonCoinbase})

	err := CheckBlock(block, 1_000_000, 20_000, time.Now())
	require.Error(t, err)
}

func TestCheckBlockRejectsSecondCoinbase(t *testing.T) {
	block := easyBlock(t, []*model.Tx{coinbaseTx(4), coinbaseTx(4)})

	err := CheckBlock(block, 1_000_000, 20_000, time.Now())
	require.Error(t, err)
}

func TestCheckBlockRejectsFutureTimestamp(t *testing.T) {
	block := easyBlock(t, []*model.Tx{coinbaseTx(4)})
	block.Header.Timestamp = uint32(time.Now().Add(3 * time.Hour).Unix())

	err := CheckBlock(block, 1_000_000, 20_000, time.Now())
	require.Error(t, err)
}

func TestCheckBlockRejectsBadMerkleRoot(t *testing.T) {
	block := easyBlock(t, []*model.Tx{coinbaseTx(4)})
	block.Header.HashMerkleRoot[0] ^= 0xff

	err := CheckBlock(block, 1_000_000, 20_000, time.Now())
	require.Error(t, err)
}

func TestCheckBlockRejectsOversizeBlock(t *testing.T) {
	block := easyBlock(t, []*model.Tx{coinbaseTx(4)})

	err := CheckBlock(block, 10, 20_000, time.Now())
	require.Error(t, err)
}
