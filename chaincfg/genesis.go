package chaincfg

import (
	"encoding/hex"

	"github.com/bsv-blockchain/go-bt/v2/bscript"

	"github.com/bsv-blockchain/chaincore/model"
)

// genesisCoinbaseScriptSig is the exact unlocking script of the genesis
// coinbase input, carrying the famous Times headline.
const genesisCoinbaseScriptSig = "04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73"

// genesisCoinbaseLockingScript pays the genesis block's 50 BTC subsidy to
// Satoshi's public key.
const genesisCoinbaseLockingScript = "4104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac"

func mustDecodeScript(hexStr string) *bscript.Script {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		panic(err)
	}

	s := bscript.Script(b)

	return &s
}

func genesisCoinbaseTx() *model.Tx {
	return &model.Tx{
		Version: 1,
		Inputs: []*model.TxIn{
			{
				PreviousOutPoint: model.NullOutPoint,
				UnlockingScript:  mustDecodeScript(genesisCoinbaseScriptSig),
				Sequence:         0xffffffff,
			},
		},
		Outputs: []*model.TxOut{
			{
				Value:         5_000_000_000,
				LockingScript: mustDecodeScript(genesisCoinbaseLockingScript),
			},
		},
		LockTime: 0,
	}
}

func genesisHeader(timestamp, nonce uint32, bits uint32) *model.BlockHeader {
	bitsBytes := make([]byte, 4)
	bitsBytes[0] = byte(bits)
	bitsBytes[1] = byte(bits >> 8)
	bitsBytes[2] = byte(bits >> 16)
	bitsBytes[3] = byte(bits >> 24)

	nb, err := model.NewNBitFromSlice(bitsBytes)
	if err != nil {
		panic(err)
	}

	// The genesis block has exactly one transaction, so its merkle root is
	// that coinbase's own txid - no separate tree construction needed.
	merkleRoot := *genesisCoinbaseTx().TxID()

	return &model.BlockHeader{
		Version:        1,
		HashMerkleRoot: merkleRoot,
		Timestamp:      timestamp,
		Bits:           nb,
		Nonce:          nonce,
	}
}

var genesisBlockMain = model.Block{
	Header:       genesisHeader(1231006505, 2083236893, 0x1d00ffff),
	Transactions: []*model.Tx{genesisCoinbaseTx()},
}

var genesisBlockTestNet = model.Block{
	Header:       genesisHeader(1296688602, 414098458, 0x1d00ffff),
	Transactions: []*model.Tx{genesisCoinbaseTx()},
}

var genesisBlockRegtest = model.Block{
	Header:       genesisHeader(1296688602, 2, 0x207fffff),
	Transactions: []*model.Tx{genesisCoinbaseTx()},
}
