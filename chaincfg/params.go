// Package chaincfg defines the consensus parameters that distinguish one
// chain (mainnet, testnet, regtest) from another: genesis, proof-of-work
// limits, retarget timing, maturity, and the checkpoints and soft-fork
// deployments layered on top of the base rules.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

var bigOne = big.NewInt(1)

// mainPowLimit is the loosest allowed target on mainnet/testnet: 2^224 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// regtestPowLimit is the loosest allowed target on regtest: 2^255 - 1,
// making regtest mining trivial.
var regtestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// Checkpoint pins a known-good block at a height, used to reject deep
// reorganizations below it without full validation.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// Constants identifying the entries of Params.Deployments by name.
const (
	DeploymentTestDummy = iota
	DeploymentCSV
	DefinedDeployments
)

// ConsensusDeployment describes one BIP9-style version-bit soft fork.
type ConsensusDeployment struct {
	BitNumber  uint8
	StartTime  uint64
	ExpireTime uint64
}

// Params defines the consensus rules of one chain.
type Params struct {
	Name string

	GenesisBlock *model.Block
	GenesisHash  *chainhash.Hash

	PowLimit     *big.Int
	PowLimitBits uint32

	BIP0034Height int32
	BIP0065Height int32
	BIP0066Height int32

	CoinbaseMaturity         uint16
	SubsidyReductionInterval int32

	TargetTimespan           time.Duration
	TargetTimePerBlock       time.Duration
	RetargetAdjustmentFactor int64

	ReduceMinDifficulty    bool
	NoDifficultyAdjustment bool
	MinDiffReductionTime   time.Duration

	Checkpoints []Checkpoint

	RuleChangeActivationThreshold uint32
	MinerConfirmationWindow       uint32
	Deployments                   [DefinedDeployments]ConsensusDeployment

	RelayNonStdTxs bool
}

// BlocksPerRetarget is the classic number of blocks between difficulty
// retargets: TargetTimespan / TargetTimePerBlock.
func (p *Params) BlocksPerRetarget() int32 {
	return int32(p.TargetTimespan / p.TargetTimePerBlock)
}

// MinRetargetTimespan and MaxRetargetTimespan bound the window actually
// used in a retarget calculation, clamped by RetargetAdjustmentFactor.
func (p *Params) MinRetargetTimespan() int64 {
	return int64(p.TargetTimespan) / p.RetargetAdjustmentFactor
}

func (p *Params) MaxRetargetTimespan() int64 {
	return int64(p.TargetTimespan) * p.RetargetAdjustmentFactor
}

func newHashFromStr(hexStr string) *chainhash.Hash {
	h, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}

	return h
}

// MainNetParams are the consensus parameters for the production chain.
var MainNetParams = Params{
	Name: "mainnet",

	GenesisBlock: &genesisBlockMain,
	GenesisHash:  newHashFromStr("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"),

	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1d00ffff,

	BIP0034Height: 227931,
	BIP0065Height: 388381,
	BIP0066Height: 363725,

	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,

	Checkpoints: []Checkpoint{
		{11111, newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{33333, newHashFromStr("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
		{210000, newHashFromStr("000000000000048b95347e83192f69cf0366076336c639f9b7228e9ba171342e")},
	},

	RuleChangeActivationThreshold: 1916,
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentCSV: {BitNumber: 0, StartTime: 1462060800, ExpireTime: 1493596800},
	},

	RelayNonStdTxs: false,
}

// TestNetParams are the consensus parameters for the public test chain.
var TestNetParams = Params{
	Name: "testnet",

	GenesisBlock: &genesisBlockTestNet,
	GenesisHash:  newHashFromStr("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"),

	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1d00ffff,

	BIP0034Height: 21111,
	BIP0065Height: 581885,
	BIP0066Height: 330776,

	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,

	ReduceMinDifficulty:  true,
	MinDiffReductionTime: time.Minute * 20,

	RuleChangeActivationThreshold: 1512,
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentCSV: {BitNumber: 0, StartTime: 1456790400, ExpireTime: 1493596800},
	},

	RelayNonStdTxs: true,
}

// RegressionNetParams are the consensus parameters for a local regtest
// chain: trivial proof of work and no scheduled retargets or checkpoints.
var RegressionNetParams = Params{
	Name: "regtest",

	GenesisBlock: &genesisBlockRegtest,
	GenesisHash:  newHashFromStr("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206"),

	PowLimit:     regtestPowLimit,
	PowLimitBits: 0x207fffff,

	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 150,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,

	ReduceMinDifficulty:    true,
	NoDifficultyAdjustment: true,

	RuleChangeActivationThreshold: 108,
	MinerConfirmationWindow:       144,

	RelayNonStdTxs: true,
}
