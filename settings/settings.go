// Package settings builds the typed configuration consumed across the
// chain-state core from a single gocore-backed config source, the way the
// teacher's settings package turns key/value config into a struct once at
// startup instead of scattering config lookups through the codebase.
package settings

import (
	"runtime"
	"time"

	"github.com/bsv-blockchain/chaincore/chaincfg"
)

// Settings is the root configuration object, constructed once at process
// startup and passed by reference to every component that needs it.
type Settings struct {
	Network        string
	ChainCfgParams *chaincfg.Params
	DataFolder     string

	Policy    PolicySettings
	Mempool   MempoolSettings
	Orphan    OrphanSettings
	Script    ScriptSettings
	Template  TemplateSettings
}

// PolicySettings bounds the context-free and standardness rules applied to
// transactions and blocks.
type PolicySettings struct {
	MaxBlockSize      int
	MaxBlockSigops    int
	MaxStandardTxSize int
	MaxTxSigScriptLen int
	MinRelayTxFee     float64
	DustThreshold     int64
	AcceptNonStdTxs   bool
}

// MempoolSettings bounds the in-memory pool of unconfirmed transactions.
type MempoolSettings struct {
	FreeRelayBytesPerMinute int
	RBFEnabled              bool
}

// OrphanSettings bounds the orphan-block and orphan-transaction side
// indexes.
type OrphanSettings struct {
	MaxOrphanTxs        int
	MaxOrphanTxSize      int
	MaxOrphanBlocks     int
}

// ScriptSettings sizes the script-check work queue.
type ScriptSettings struct {
	Workers int
}

// TemplateSettings bounds block template assembly.
type TemplateSettings struct {
	PrioritySizeBudget int
	CoinbaseFlags      string
}

// NewSettings builds a Settings from the process config, applying defaults
// grounded in the classic consensus constants of §4/§5/§6.
func NewSettings() *Settings {
	network := getString("network", "mainnet")

	params := chainParamsForNetwork(network)

	return &Settings{
		Network:        network,
		ChainCfgParams: params,
		DataFolder:     getString("dataFolder", "data"),

		Policy: PolicySettings{
			MaxBlockSize:      getInt("maxblocksize", 32_000_000),
			MaxBlockSigops:    getInt("maxblocksigops", 80_000),
			MaxStandardTxSize: getInt("maxstandardtxsize", 100_000),
			MaxTxSigScriptLen: getInt("maxtxsigscriptlen", 500),
			MinRelayTxFee:     getFloat64("minrelaytxfee", 0.00001),
			DustThreshold:     getInt64("dustthreshold", 546),
			AcceptNonStdTxs:   getBool("acceptnonstdtxs", network != "mainnet"),
		},

		Mempool: MempoolSettings{
			FreeRelayBytesPerMinute: getInt("mempool_freerelaybytesperminute", 15_000),
			RBFEnabled:              getBool("mempool_rbfenabled", false),
		},

		Orphan: OrphanSettings{
			MaxOrphanTxs:        getInt("orphan_maxtxs", 100),
			MaxOrphanTxSize:     getInt("orphan_maxtxsize", 5000),
			MaxOrphanBlocks:     getInt("orphan_maxblocks", 750),
		},

		Script: ScriptSettings{
			Workers: getInt("script_workers", runtime.GOMAXPROCS(0)),
		},

		Template: TemplateSettings{
			PrioritySizeBudget: getInt("template_prioritysizebudget", 50_000),
			CoinbaseFlags:      getString("template_coinbaseflags", "/chaincore/"),
		},
	}
}

func chainParamsForNetwork(network string) *chaincfg.Params {
	switch network {
	case "testnet":
		return &chaincfg.TestNetParams
	case "regtest":
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// FreeRelayDecayInterval is the exponential-decay time constant of the
// free-transaction relay limiter (§4.4).
const FreeRelayDecayInterval = 10 * time.Minute
