package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// MaxMoney is the maximum number of satoshis that can ever exist, and the
// upper bound of the money-range check applied to every output and running
// sum (§3 Amounts).
const MaxMoney = int64(21_000_000 * 100_000_000)

// TxIn is one transaction input: a reference to a previous output, the
// unlocking script that spends it, and a sequence number.
type TxIn struct {
	PreviousOutPoint OutPoint
	UnlockingScript  *bscript.Script
	Sequence         uint32
}

// TxOut is one transaction output: an amount in satoshis and the script that
// must be satisfied to spend it.
type TxOut struct {
	Value          int64
	LockingScript  *bscript.Script
}

// Tx is a Bitcoin transaction in the classic (non-extended) wire shape:
// inputs carry only the prevout they spend, not a prefetched copy of the
// output they reference. Identity is the double-SHA-256 of the canonical
// serialization.
type Tx struct {
	Version  int32
	Inputs   []*TxIn
	Outputs  []*TxOut
	LockTime uint32

	hash *chainhash.Hash
}

// IsCoinbase reports whether tx has the single null-prevout input that marks
// a block's coinbase transaction.
func (tx *Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutPoint.IsNull()
}

// TxID returns the transaction's double-SHA-256 identity hash, memoized
// after the first call. Mutating a Tx after computing its hash leaves the
// cached value stale, matching the teacher's Block.Hash() memoization in
// model.Block.Hash (BlockHeader.go/Block.go).
func (tx *Tx) TxID() *chainhash.Hash {
	if tx.hash != nil {
		return tx.hash
	}

	h := chainhash.DoubleHashH(tx.Bytes())
	tx.hash = &h

	return tx.hash
}

// Size returns the serialized byte length of tx.
func (tx *Tx) Size() int {
	return len(tx.Bytes())
}

// Bytes serializes tx using the canonical little-endian wire format shared
// by disk and network encodings (§6 Serialization).
func (tx *Tx) Bytes() []byte {
	buf := new(bytes.Buffer)

	_ = binary.Write(buf, binary.LittleEndian, tx.Version)
	writeVarInt(buf, uint64(len(tx.Inputs)))

	for _, in := range tx.Inputs {
		buf.Write(in.PreviousOutPoint.Hash[:])
		_ = binary.Write(buf, binary.LittleEndian, in.PreviousOutPoint.Index)

		script := scriptBytes(in.UnlockingScript)
		writeVarInt(buf, uint64(len(script)))
		buf.Write(script)

		_ = binary.Write(buf, binary.LittleEndian, in.Sequence)
	}

	writeVarInt(buf, uint64(len(tx.Outputs)))

	for _, out := range tx.Outputs {
		_ = binary.Write(buf, binary.LittleEndian, out.Value)

		script := scriptBytes(out.LockingScript)
		writeVarInt(buf, uint64(len(script)))
		buf.Write(script)
	}

	_ = binary.Write(buf, binary.LittleEndian, tx.LockTime)

	return buf.Bytes()
}

// NewTxFromBytes deserializes a Tx from its canonical wire encoding.
func NewTxFromBytes(b []byte) (*Tx, error) {
	r := bytes.NewReader(b)

	tx := &Tx{}

	if err := binary.Read(r, binary.LittleEndian, &tx.Version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}

	numIn, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("reading input count: %w", err)
	}

	tx.Inputs = make([]*TxIn, 0, numIn)

	for i := uint64(0); i < numIn; i++ {
		in := &TxIn{}

		if _, err = io.ReadFull(r, in.PreviousOutPoint.Hash[:]); err != nil {
			return nil, fmt.Errorf("reading input %d prevout hash: %w", i, err)
		}

		if err = binary.Read(r, binary.LittleEndian, &in.PreviousOutPoint.Index); err != nil {
			return nil, fmt.Errorf("reading input %d prevout index: %w", i, err)
		}

		scriptLen, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("reading input %d script length: %w", i, err)
		}

		script := make(bscript.Script, scriptLen)
		if _, err = io.ReadFull(r, script); err != nil {
			return nil, fmt.Errorf("reading input %d script: %w", i, err)
		}

		in.UnlockingScript = &script

		if err = binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
			return nil, fmt.Errorf("reading input %d sequence: %w", i, err)
		}

		tx.Inputs = append(tx.Inputs, in)
	}

	numOut, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("reading output count: %w", err)
	}

	tx.Outputs = make([]*TxOut, 0, numOut)

	for i := uint64(0); i < numOut; i++ {
		out := &TxOut{}

		if err = binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
			return nil, fmt.Errorf("reading output %d value: %w", i, err)
		}

		scriptLen, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("reading output %d script length: %w", i, err)
		}

		script := make(bscript.Script, scriptLen)
		if _, err = io.ReadFull(r, script); err != nil {
			return nil, fmt.Errorf("reading output %d script: %w", i, err)
		}

		out.LockingScript = &script

		tx.Outputs = append(tx.Outputs, out)
	}

	if err = binary.Read(r, binary.LittleEndian, &tx.LockTime); err != nil {
		return nil, fmt.Errorf("reading locktime: %w", err)
	}

	return tx, nil
}

// TotalOutputValue sums the value of tx's outputs. It does not itself range
// check the sum; callers apply MoneyRange per §3/§4.3.
func (tx *Tx) TotalOutputValue() int64 {
	var total int64
	for _, out := range tx.Outputs {
		total += out.Value
	}

	return total
}

func scriptBytes(s *bscript.Script) []byte {
	if s == nil {
		return nil
	}

	return *s
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	buf.Write(bt.VarInt(v).Bytes())
}

func readVarInt(r *bytes.Reader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	switch first {
	case 0xfd:
		var v uint16
		if err = binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}

		return uint64(v), nil
	case 0xfe:
		var v uint32
		if err = binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}

		return uint64(v), nil
	case 0xff:
		var v uint64
		if err = binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}

		return v, nil
	default:
		return uint64(first), nil
	}
}
