package utxo

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// bestBlockKey is the singleton key holding the view's best-block hash.
var bestBlockKey = []byte("best_block_hash")

const coinsKeyPrefix = 'c'

func coinsKey(txHash chainhash.Hash) []byte {
	key := make([]byte, 0, 33)
	key = append(key, coinsKeyPrefix)
	key = append(key, txHash[:]...)

	return key
}

// Base is the bottom layer of the coin view: a leveldb-backed persistent
// key-value store keyed by txid, storing serialized Coins records plus a
// singleton best-block-hash key.
type Base struct {
	db *leveldb.DB
}

// OpenBase opens (creating if absent) the leveldb store at path. Compression
// is disabled, mirroring the teacher's handling of Bitcoin Core's own
// chainstate leveldb database, where an incompatible compression scheme
// would otherwise corrupt the store.
func OpenBase(path string) (*Base, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{Compression: opt.NoCompression})
	if err != nil {
		return nil, fmt.Errorf("opening utxo base store at %s: %w", path, err)
	}

	return &Base{db: db}, nil
}

// Close releases the underlying database handle.
func (b *Base) Close() error {
	return b.db.Close()
}

// GetCoins reads and deserializes the Coins record for txHash.
func (b *Base) GetCoins(txHash chainhash.Hash) (*model.Coins, bool) {
	raw, err := b.db.Get(coinsKey(txHash), nil)
	if err != nil {
		return nil, false
	}

	coins, err := decodeCoins(raw)
	if err != nil {
		return nil, false
	}

	return coins, true
}

// HaveCoins reports whether a Coins record exists for txHash.
func (b *Base) HaveCoins(txHash chainhash.Hash) bool {
	ok, err := b.db.Has(coinsKey(txHash), nil)
	return err == nil && ok
}

// SetCoins writes coins for txHash, or deletes the record entirely when
// coins is nil or fully spent (the on-disk pruning invariant from §3).
func (b *Base) SetCoins(txHash chainhash.Hash, coins *model.Coins) error {
	key := coinsKey(txHash)

	if coins == nil || coins.IsSpent() {
		if err := b.db.Delete(key, nil); err != nil {
			return fmt.Errorf("pruning coins for %s: %w", txHash.String(), err)
		}

		return nil
	}

	if err := b.db.Put(key, encodeCoins(coins), nil); err != nil {
		return fmt.Errorf("writing coins for %s: %w", txHash.String(), err)
	}

	return nil
}

// GetOutput is the shared View convenience built on GetCoins.
func (b *Base) GetOutput(op model.OutPoint) (*model.TxOut, bool) {
	return getOutput(b, op)
}

// HaveInputs is the shared View convenience built on GetOutput.
func (b *Base) HaveInputs(tx *model.Tx) bool {
	return haveInputs(b, tx)
}

// BestBlock returns the persisted best-block hash.
func (b *Base) BestBlock() (chainhash.Hash, bool) {
	raw, err := b.db.Get(bestBlockKey, nil)
	if err != nil || len(raw) != 32 {
		return chainhash.Hash{}, false
	}

	var h chainhash.Hash
	copy(h[:], raw)

	return h, true
}

// SetBestBlock persists hash as the view's best-block marker, writing it
// immediately. An overlying Cache's Flush pushes its Coins deltas through
// SetCoins and then the marker through SetBestBlock, each as a separate
// leveldb write; they are not grouped into one atomic batch.
func (b *Base) SetBestBlock(hash chainhash.Hash) {
	_ = b.db.Put(bestBlockKey, hash[:], nil)
}

// Flush is a no-op on Base: it is always the terminal layer, so there is
// nothing above it to push a delta into.
func (b *Base) Flush() error {
	return nil
}

// CacheSize is always zero: Base holds no in-memory delta of its own.
func (b *Base) CacheSize() int {
	return 0
}

// encodeCoins serializes a Coins record using the canonical little-endian
// encoding: coinbase flag, height, version, then each (index, output) pair
// in ascending index order.
func encodeCoins(c *model.Coins) []byte {
	buf := new(bytes.Buffer)

	if c.Coinbase {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	writeUint32(buf, c.Height)

	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], uint32(c.Version))
	buf.Write(versionBuf[:])

	indexes := make([]uint32, 0, len(c.Outputs))
	for i := range c.Outputs {
		indexes = append(indexes, i)
	}

	sortUint32s(indexes)

	writeUint32(buf, uint32(len(indexes)))

	for _, i := range indexes {
		out := c.Outputs[i]

		writeUint32(buf, i)

		var valueBuf [8]byte
		binary.LittleEndian.PutUint64(valueBuf[:], uint64(out.Value))
		buf.Write(valueBuf[:])

		script := []byte(*out.LockingScript)
		writeUint32(buf, uint32(len(script)))
		buf.Write(script)
	}

	return buf.Bytes()
}

func decodeCoins(raw []byte) (*model.Coins, error) {
	if len(raw) < 9 {
		return nil, fmt.Errorf("coins record too short: %d bytes", len(raw))
	}

	r := bytes.NewReader(raw)

	coinbaseByte, _ := r.ReadByte()

	var height, count uint32

	var versionBuf [4]byte

	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return nil, err
	}

	if _, err := r.Read(versionBuf[:]); err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	outputs := make(map[uint32]*model.TxOut, count)

	for i := uint32(0); i < count; i++ {
		var index uint32
		if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
			return nil, err
		}

		var valueBuf [8]byte
		if _, err := r.Read(valueBuf[:]); err != nil {
			return nil, err
		}

		var scriptLen uint32
		if err := binary.Read(r, binary.LittleEndian, &scriptLen); err != nil {
			return nil, err
		}

		script := make(bscript.Script, scriptLen)
		if _, err := r.Read(script); err != nil {
			return nil, err
		}

		outputs[index] = &model.TxOut{
			Value:         int64(binary.LittleEndian.Uint64(valueBuf[:])),
			LockingScript: &script,
		}
	}

	return &model.Coins{
		Coinbase: coinbaseByte == 1,
		Height:   height,
		Version:  int32(binary.LittleEndian.Uint32(versionBuf[:])),
		Outputs:  outputs,
	}, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func sortUint32s(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
