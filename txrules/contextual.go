package txrules

import (
	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/errors"
	"github.com/bsv-blockchain/chaincore/model"
)

// AcceptBlock applies the rules that depend on a block's position in a
// particular chain: parent linkage and height, the retarget-derived bits,
// the median-time-past timestamp floor, transaction finality, checkpoint
// agreement, and the version-bit soft-fork gate. CheckBlock must already
// have passed; this does not repeat the context-free checks.
func AcceptBlock(idx *blockindex.Index, block *model.Block, parent *blockindex.Node, params *chaincfg.Params) error {
	if parent == nil {
		return errors.NewBlockInvalidError("block's parent is unknown")
	}

	height := parent.Height + 1

	expectedBits := NextWorkRequired(idx, parent, block.Header.Timestamp, params)
	if block.Header.Bits.Uint32() != expectedBits.Uint32() {
		return errors.NewBlockInvalidError("block bits %s does not match required %s", block.Header.Bits.String(), expectedBits.String())
	}

	mtp := idx.MedianTimePast(parent)
	if block.Header.Timestamp <= mtp {
		return errors.NewBlockInvalidError("block timestamp %d does not exceed median time past %d", block.Header.Timestamp, mtp)
	}

	for i, tx := range block.Transactions {
		if !IsFinal(tx, height, block.Header.Timestamp) {
			return errors.NewBlockInvalidError("transaction %d is not final at height %d", i, height)
		}
	}

	for _, cp := range params.Checkpoints {
		if cp.Height == height && !cp.Hash.IsEqual(block.Hash()) {
			return errors.NewBlockInvalidError("block at checkpointed height %d does not match checkpoint hash %s", height, cp.Hash.String())
		}
	}

	if err := checkVersionSoftForkGate(idx, block, parent, height, params); err != nil {
		return err
	}

	return nil
}

// SuperMajority reports whether at least threshold of the window ancestors
// ending at and including tip advertise a header version >= version, the
// classic pre-BIP9 activation test named in the glossary.
func SuperMajority(idx *blockindex.Index, tip *blockindex.Node, version int32, threshold, window uint32) bool {
	count := uint32(0)
	n := tip

	for i := uint32(0); i < window && n != nil; i++ {
		if int64(n.Header.Version) >= int64(version) {
			count++
		}

		n = idx.Get(n.Prev)
	}

	return count >= threshold
}

// checkVersionSoftForkGate rejects a block whose version has fallen behind
// a version the network has already supermajority-adopted, and, once
// version 2 is adopted, requires the coinbase to commit to its own height
// (BIP34) as a minimal script push.
func checkVersionSoftForkGate(idx *blockindex.Index, block *model.Block, parent *blockindex.Node, height int32, params *chaincfg.Params) error {
	const gateVersion = 2

	adopted := SuperMajority(idx, parent, gateVersion, params.RuleChangeActivationThreshold, params.MinerConfirmationWindow)

	if adopted && block.Header.Version < gateVersion {
		return errors.NewBlockInvalidError("block version %d is below the supermajority-adopted version %d", block.Header.Version, gateVersion)
	}

	if !adopted || block.Header.Version < gateVersion {
		return nil
	}

	committed, err := block.ExtractCoinbaseHeight()
	if err != nil {
		return errors.NewBlockInvalidError("coinbase does not commit to its height: %v", err)
	}

	if int32(committed) != height {
		return errors.NewBlockInvalidError("coinbase height commitment %d does not match block height %d", committed, height)
	}

	return nil
}
