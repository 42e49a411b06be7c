package model

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// OutPoint uniquely names one transaction output.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NullOutPoint is the sentinel prevout carried by a coinbase input: the zero
// hash with index 0xFFFFFFFF.
var NullOutPoint = OutPoint{Index: 0xFFFFFFFF}

// IsNull reports whether op is the coinbase sentinel prevout.
func (op OutPoint) IsNull() bool {
	return op.Index == 0xFFFFFFFF && op.Hash == chainhash.Hash{}
}

func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.Hash.String(), op.Index)
}
