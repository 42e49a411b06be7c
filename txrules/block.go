package txrules

import (
	"time"

	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
)

// MaxFutureBlockTime is how far a block's timestamp may exceed the local
// adjusted network time before it is rejected outright.
const MaxFutureBlockTime = 2 * time.Hour

// CheckBlock applies the context-free rules every block must satisfy
// regardless of its position in the chain: a non-empty, size-bounded
// transaction list, proof-of-work meeting bits, a sane timestamp, exactly
// one (leading) coinbase, every transaction individually valid, no
// duplicate txids, a bounded legacy sigop count, and a matching merkle
// root.
func CheckBlock(block *model.Block, maxBlockSize, maxBlockSigops int, adjustedNetworkTime time.Time) error {
	if len(block.Transactions) == 0 {
		return errors.NewBlockInvalidError("block has no transactions")
	}

	if block.Header == nil {
		return errors.NewBlockInvalidError("block has no header")
	}

	if len(block.Bytes()) > maxBlockSize {
		return errors.NewBlockInvalidError("block size exceeds max block size %d", maxBlockSize)
	}

	if !block.Header.MeetsTarget() {
		return errors.NewBlockInvalidError("block hash does not meet its declared bits")
	}

	maxTimestamp := uint32(adjustedNetworkTime.Add(MaxFutureBlockTime).Unix())
	if block.Header.Timestamp > maxTimestamp {
		return errors.NewBlockInvalidError("block timestamp %d too far in the future", block.Header.Timestamp)
	}

	if !block.Transactions[0].IsCoinbase() {
		return errors.NewBlockInvalidError("first transaction is not a coinbase")
	}

	for i, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return errors.NewBlockInvalidError("transaction %d is an unexpected second coinbase", i+1)
		}
	}

	for i, tx := range block.Transactions {
		if err := CheckTransaction(tx, maxBlockSize); err != nil {
			return errors.NewBlockInvalidError("transaction %d: %v", i, err)
		}
	}

	if err := block.CheckDuplicateTransactions(); err != nil {
		return errors.NewBlockInvalidError("%v", err)
	}

	sigOps := 0
	for _, tx := range block.Transactions {
		for _, in := range tx.Inputs {
			sigOps += CountLegacySigOps(in.UnlockingScript)
		}

		for _, out := range tx.Outputs {
			sigOps += CountLegacySigOps(out.LockingScript)
		}

		if sigOps > maxBlockSigops {
			return errors.NewBlockInvalidError("block sigop count exceeds max block sigops %d", maxBlockSigops)
		}
	}

	if err := block.CheckMerkleRoot(); err != nil {
		return errors.NewBlockInvalidError("%v", err)
	}

	return nil
}
