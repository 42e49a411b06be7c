package txrules

import (
	"math/big"

	"github.com/bsv-blockchain/chaincore/blockindex"
	"github.com/bsv-blockchain/chaincore/chaincfg"
	"github.com/bsv-blockchain/chaincore/model"
)

// NextWorkRequired computes the bits field the block following tip must
// carry. Outside a retarget boundary, bits are inherited unchanged except
// for testnet's "gap since last block" minimum-difficulty exception.
// At a boundary, the classic window is reclamped and the old target scaled
// by the observed/target timespan ratio, capped at the chain's PowLimit.
func NextWorkRequired(idx *blockindex.Index, tip *blockindex.Node, newBlockTime uint32, params *chaincfg.Params) model.NBit {
	if params.NoDifficultyAdjustment {
		return tip.Header.Bits
	}

	nextHeight := tip.Height + 1

	if nextHeight%params.BlocksPerRetarget() != 0 {
		if params.ReduceMinDifficulty {
			spacing := int64(params.TargetTimePerBlock.Seconds())
			if int64(newBlockTime)-int64(tip.Header.Timestamp) > 2*spacing {
				return model.NewNBitFromUint32(params.PowLimitBits)
			}
		}

		return tip.Header.Bits
	}

	first := idx.AncestorAt(tip, tip.Height-(params.BlocksPerRetarget()-1))
	if first == nil {
		return tip.Header.Bits
	}

	actualTimespan := int64(tip.Header.Timestamp) - int64(first.Header.Timestamp)

	minSpan := params.MinRetargetTimespan()
	maxSpan := params.MaxRetargetTimespan()

	if actualTimespan < minSpan {
		actualTimespan = minSpan
	}

	if actualTimespan > maxSpan {
		actualTimespan = maxSpan
	}

	oldTarget := tip.Header.Bits.CalculateTarget()

	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(int64(params.TargetTimespan.Seconds())))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget = params.PowLimit
	}

	return model.ToCompact(newTarget)
}
