package chaincfg

// baseSubsidy is the block reward at height 0, in satoshis, halved every
// SubsidyReductionInterval blocks.
const baseSubsidy = 50 * 100_000_000

// Subsidy returns the block reward due a coinbase at height, halving every
// SubsidyReductionInterval blocks until it reaches zero.
func (p *Params) Subsidy(height int32) int64 {
	if p.SubsidyReductionInterval <= 0 {
		return baseSubsidy
	}

	halvings := height / p.SubsidyReductionInterval
	if halvings >= 64 {
		return 0
	}

	return baseSubsidy >> uint(halvings)
}
