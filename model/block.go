package model

import (
	"bytes"
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// coinbaseHeightScriptVersion is the block version from which a coinbase's
// unlocking script is required to begin with its own height (BIP34).
const coinbaseHeightScriptVersion = 2

// Script opcodes used when decoding/encoding a BIP34 height push. Named
// locally rather than imported since only the push-length byte and the
// small-integer range (OP_0, OP_1..OP_16) are needed here.
const (
	op0  = 0x00
	op1  = 0x51
	op16 = 0x60
)

// Block is a header plus its ordered transaction list, the first of which
// must be the coinbase.
type Block struct {
	Header       *BlockHeader
	Transactions []*Tx

	hash *chainhash.Hash
}

// NewBlock assembles a Block, deriving its merkle root from the transaction
// list and writing it into header before returning.
func NewBlock(header *BlockHeader, txs []*Tx) (*Block, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("block has no transactions")
	}

	if !txs[0].IsCoinbase() {
		return nil, fmt.Errorf("first transaction is not a coinbase")
	}

	b := &Block{Header: header, Transactions: txs}
	b.Header.HashMerkleRoot = *b.MerkleRoot()

	return b, nil
}

// Hash returns the block's identity, which is its header's hash.
func (b *Block) Hash() *chainhash.Hash {
	if b.hash != nil {
		return b.hash
	}

	b.hash = b.Header.Hash()

	return b.hash
}

func (b *Block) String() string {
	return b.Hash().String()
}

// CoinbaseTx returns the block's first transaction.
func (b *Block) CoinbaseTx() *Tx {
	if len(b.Transactions) == 0 {
		return nil
	}

	return b.Transactions[0]
}

// MerkleRoot computes the root of the binary hash tree over the block's
// transaction ids, duplicating the final node at each level with an odd
// count (the classic, non-subtree merkle construction).
func (b *Block) MerkleRoot() *chainhash.Hash {
	if len(b.Transactions) == 0 {
		zero := chainhash.Hash{}
		return &zero
	}

	level := make([]chainhash.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		level[i] = *tx.TxID()
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([]chainhash.Hash, len(level)/2)

		for i := 0; i < len(next); i++ {
			var buf [64]byte
			copy(buf[0:32], level[2*i][:])
			copy(buf[32:64], level[2*i+1][:])
			next[i] = chainhash.DoubleHashH(buf[:])
		}

		level = next
	}

	return &level[0]
}

// CheckMerkleRoot reports whether the header's committed merkle root matches
// the root recomputed from Transactions.
func (b *Block) CheckMerkleRoot() error {
	computed := b.MerkleRoot()

	if !b.Header.HashMerkleRoot.IsEqual(computed) {
		return fmt.Errorf("merkle root mismatch: header has %s, computed %s",
			b.Header.HashMerkleRoot.String(), computed.String())
	}

	return nil
}

// CheckDuplicateTransactions reports an error if any txid appears more than
// once in the block (the classic CVE-2012-2459 duplicate-leaf guard).
func (b *Block) CheckDuplicateTransactions() error {
	seen := make(map[chainhash.Hash]struct{}, len(b.Transactions))

	for _, tx := range b.Transactions {
		id := *tx.TxID()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate transaction %s", id.String())
		}

		seen[id] = struct{}{}
	}

	return nil
}

// ExtractCoinbaseHeight recovers the height BIP34 requires the coinbase's
// unlocking script to encode as its first push, for version-2-and-later
// blocks.
func (b *Block) ExtractCoinbaseHeight() (uint32, error) {
	coinbase := b.CoinbaseTx()
	if coinbase == nil {
		return 0, fmt.Errorf("block has no coinbase")
	}

	if len(coinbase.Inputs) != 1 {
		return 0, fmt.Errorf("coinbase must have exactly one input")
	}

	if b.Header.Version < coinbaseHeightScriptVersion {
		return 0, nil
	}

	sigScript := scriptBytes(coinbase.Inputs[0].UnlockingScript)
	if len(sigScript) < 1 {
		return 0, fmt.Errorf("coinbase script for version %d blocks must begin with the serialized height", b.Header.Version)
	}

	opcode := int(sigScript[0])

	switch {
	case opcode == op0:
		return 0, nil
	case opcode >= op1 && opcode <= op16:
		return uint32(opcode - (op1 - 1)), nil
	}

	serializedLen := opcode
	if len(sigScript[1:]) < serializedLen || serializedLen > 8 {
		return 0, fmt.Errorf("coinbase script height push has invalid length %d", serializedLen)
	}

	heightBytes := make([]byte, 8)
	copy(heightBytes, sigScript[1:serializedLen+1])

	height := uint64(0)
	for i := serializedLen - 1; i >= 0; i-- {
		height = height<<8 | uint64(heightBytes[i])
	}

	return uint32(height), nil
}

// EncodeCoinbaseHeight builds the BIP34 height push script fragment for
// height, the inverse of ExtractCoinbaseHeight's decode.
func EncodeCoinbaseHeight(height uint32) []byte {
	if height == 0 {
		return []byte{op0}
	}

	if height <= 16 {
		return []byte{op1 + byte(height) - 1}
	}

	var raw []byte
	for height > 0 {
		raw = append(raw, byte(height&0xff))
		height >>= 8
	}

	return append([]byte{byte(len(raw))}, raw...)
}

// Bytes serializes the block as header || varint(tx count) || each tx.
func (b *Block) Bytes() []byte {
	buf := new(bytes.Buffer)
	buf.Write(b.Header.Bytes())
	writeVarInt(buf, uint64(len(b.Transactions)))

	for _, tx := range b.Transactions {
		buf.Write(tx.Bytes())
	}

	return buf.Bytes()
}
