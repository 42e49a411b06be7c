package model

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// BlockHeader is the 80-byte header that commits to a block's content and
// its position in the chain.
type BlockHeader struct {
	Version        uint32
	HashPrevBlock  chainhash.Hash
	HashMerkleRoot chainhash.Hash
	Timestamp      uint32
	Bits           NBit
	Nonce          uint32

	hash *chainhash.Hash
}

// NewBlockHeaderFromBytes parses an 80-byte serialized header.
func NewBlockHeaderFromBytes(b []byte) (*BlockHeader, error) {
	if len(b) != 80 {
		return nil, fmt.Errorf("block header must be 80 bytes, got %d", len(b))
	}

	prevBlock, err := chainhash.NewHash(b[4:36])
	if err != nil {
		return nil, fmt.Errorf("parsing hashPrevBlock: %w", err)
	}

	merkleRoot, err := chainhash.NewHash(b[36:68])
	if err != nil {
		return nil, fmt.Errorf("parsing hashMerkleRoot: %w", err)
	}

	bits, err := NewNBitFromSlice(b[72:76])
	if err != nil {
		return nil, fmt.Errorf("parsing bits: %w", err)
	}

	return &BlockHeader{
		Version:        binary.LittleEndian.Uint32(b[0:4]),
		HashPrevBlock:  *prevBlock,
		HashMerkleRoot: *merkleRoot,
		Timestamp:      binary.LittleEndian.Uint32(b[68:72]),
		Bits:           bits,
		Nonce:          binary.LittleEndian.Uint32(b[76:80]),
	}, nil
}

// NewBlockHeaderFromString parses a hex-encoded 80-byte header.
func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	b, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, fmt.Errorf("decoding header hex: %w", err)
	}

	return NewBlockHeaderFromBytes(b)
}

// Bytes serializes the header to its canonical 80-byte wire form.
func (bh *BlockHeader) Bytes() []byte {
	out := make([]byte, 80)

	binary.LittleEndian.PutUint32(out[0:4], bh.Version)
	copy(out[4:36], bh.HashPrevBlock[:])
	copy(out[36:68], bh.HashMerkleRoot[:])
	binary.LittleEndian.PutUint32(out[68:72], bh.Timestamp)
	copy(out[72:76], bh.Bits[:])
	binary.LittleEndian.PutUint32(out[76:80], bh.Nonce)

	return out
}

// Hash returns the header's double-SHA-256 identity hash, memoized after
// the first call.
func (bh *BlockHeader) Hash() *chainhash.Hash {
	if bh.hash != nil {
		return bh.hash
	}

	h := chainhash.DoubleHashH(bh.Bytes())
	bh.hash = &h

	return bh.hash
}

// MeetsTarget reports whether the header's hash, read as a big-endian
// integer, is strictly below the target its own Bits field encodes. It does
// not check that Bits matches the chain's expected difficulty at this
// height; that contextual check lives with retarget validation.
func (bh *BlockHeader) MeetsTarget() bool {
	target := bh.Bits.CalculateTarget()
	if target.Sign() <= 0 {
		return false
	}

	hashBytes := bh.Hash().CloneBytes()
	reversed := make([]byte, len(hashBytes))

	for i, b := range hashBytes {
		reversed[len(hashBytes)-1-i] = b
	}

	hashInt := new(big.Int).SetBytes(reversed)

	return hashInt.Cmp(target) < 0
}
