// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainconfig

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// These variables are the proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainSHA256dPowMax is the highest proof of work value a SHA256d block
	// can have for the main network. It is the value 2^224 - 1.
	mainSHA256dPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// mainScryptPowMax is the highest proof of work value a Scrypt block
	// can have for the main network. It is the value 2^236 - 1.
	mainScryptPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// mainGroestlPowMax is the highest proof of work value a Groestl block
	// can have for the main network. It is the value 2^232 - 1.
	mainGroestlPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 232), bigOne)

	// mainStakePowMax is the highest per-unit-of-weight kernel target of
	// the main network. It is the value 2^236 - 1.
	mainStakePowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// testnetPowMax is the highest proof of work value of every lane of
	// the test network. It is the value 2^240 - 1.
	testnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 240), bigOne)

	// simnetPowMax is the highest proof of work value of every lane of
	// the simulation and regression test networks. It is the value
	// 2^255 - 1.
	simnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// powMin is the lowest target any lane may retarget to.
	powMin = big.NewInt(1)
)

const (
	// UnitsPerCoin is the number of minor units in one coin
	UnitsPerCoin = 100_000_000

	defaultPosInterval                    = 10
	defaultPastMedianTimeWindowSize       = 11
	defaultMaxBlockSize                   = 1_000_000
	defaultMaxTxSize                      = 100_000
	defaultMaxBlockSigOpsCost             = 80_000
	defaultSigOpCostFactor                = 4
	defaultMaxFutureBlockTime             = 2 * time.Hour
	defaultMinStakeAge                    = time.Hour
	defaultMaxStakeAge                    = 30 * 24 * time.Hour
	defaultStakeAgeUnit                   = time.Hour
	defaultMinStakeAmount                 = 333 * UnitsPerCoin
	defaultBaseSubsidy                    = 50 * UnitsPerCoin
	defaultSubsidyReductionInterval       = 210_000
	defaultDifficultyAdjustmentWindowSize = 24
	defaultPowTargetSpacing               = 3 * time.Minute
	defaultStakeTargetSpacing             = 10 * time.Minute
)

// LaneParams defines the difficulty parameters of a single algorithm lane
type LaneParams struct {
	// PowMax is the easiest target the lane allows. It is also the target
	// of the first blocks of the lane.
	PowMax *big.Int

	// PowMin is the hardest target the lane allows
	PowMin *big.Int

	// TargetSpacing is the desired time between two consecutive blocks of
	// the lane
	TargetSpacing time.Duration
}

// Params defines a network by its parameters. These parameters may be used
// by applications to differentiate networks as well as to configure the
// consensus rules the node enforces.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net uint32

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// Lanes holds the difficulty parameters of every algorithm lane,
	// indexed by externalapi.Algorithm
	Lanes [externalapi.NumberOfAlgorithms]LaneParams

	// DifficultyAdjustmentWindowSize is the number of same-lane intervals
	// inspected to calculate the required difficulty of each block.
	DifficultyAdjustmentWindowSize uint64

	// PastMedianTimeWindowSize is the number of previous blocks whose
	// median time a new block must exceed
	PastMedianTimeWindowSize uint64

	// PosInterval makes every PosInterval-th height a proof-of-stake slot.
	// Zero disables proof-of-stake slots.
	PosInterval uint64

	// BlockCoinbaseMaturity is the number of blocks required before newly
	// minted coins can be spent. It applies to coinbase and coinstake
	// outputs alike.
	BlockCoinbaseMaturity uint64

	// BaseSubsidy is the block reward before any reduction
	BaseSubsidy uint64

	// SubsidyReductionInterval is the interval of blocks before the subsidy
	// is halved.
	SubsidyReductionInterval uint64

	// MaxBlockSize is the maximal serialized size of a block
	MaxBlockSize uint64

	// MaxTxSize is the maximal serialized size of a transaction
	MaxTxSize uint64

	// MaxBlockSigOpsCost is the maximal aggregate signature operation cost
	// of a block. Every signature operation costs SigOpCostFactor.
	MaxBlockSigOpsCost uint64
	SigOpCostFactor    uint64

	// MaxFutureBlockTime is how far ahead of the local clock a block
	// timestamp may be
	MaxFutureBlockTime time.Duration

	// Stake rules
	MinStakeAmount uint64
	MinStakeAge    time.Duration
	MaxStakeAge    time.Duration
	StakeAgeUnit   time.Duration
	CoinUnit       uint64

	// MaxStakePastDrift is how far behind the local clock a proof-of-stake
	// block timestamp may be. Zero disables the check.
	MaxStakePastDrift time.Duration

	// MaxReorgDepth is the deepest reorganization the node accepts
	MaxReorgDepth uint64

	// Finality thresholds, in blocks of depth below the active tip
	SoftFinalityDepth         uint64
	HardFinalityDepth         uint64
	IrreversibleFinalityDepth uint64

	// DisableDifficultyAdjustment keeps every lane at its PowMax
	DisableDifficultyAdjustment bool

	// SkipProofOfWork skips header hash and stake kernel checks. It is
	// meant for tests only.
	SkipProofOfWork bool

	// Mempool parameters
	RelayNonStdTxs bool
}

// Lane returns the difficulty parameters of the given algorithm lane
func (p *Params) Lane(algorithm externalapi.Algorithm) *LaneParams {
	return &p.Lanes[algorithm]
}

// Clone returns a deep enough copy of the params for tests and overrides to
// mutate freely
func (p *Params) Clone() *Params {
	clone := *p
	for i := range clone.Lanes {
		clone.Lanes[i].PowMax = new(big.Int).Set(p.Lanes[i].PowMax)
		clone.Lanes[i].PowMin = new(big.Int).Set(p.Lanes[i].PowMin)
	}
	return &clone
}

// ValidateFinalityThresholds returns an error unless the finality thresholds
// are strictly increasing
func (p *Params) ValidateFinalityThresholds() error {
	if p.SoftFinalityDepth >= p.HardFinalityDepth || p.HardFinalityDepth >= p.IrreversibleFinalityDepth {
		return errors.Errorf("finality thresholds must satisfy soft < hard < irreversible, "+
			"got soft %d, hard %d, irreversible %d",
			p.SoftFinalityDepth, p.HardFinalityDepth, p.IrreversibleFinalityDepth)
	}
	return nil
}

func newLanes(sha256dPowMax, scryptPowMax, groestlPowMax, stakePowMax *big.Int) [externalapi.NumberOfAlgorithms]LaneParams {
	return [externalapi.NumberOfAlgorithms]LaneParams{
		externalapi.AlgorithmSHA256d:      {PowMax: sha256dPowMax, PowMin: powMin, TargetSpacing: defaultPowTargetSpacing},
		externalapi.AlgorithmScrypt:       {PowMax: scryptPowMax, PowMin: powMin, TargetSpacing: defaultPowTargetSpacing},
		externalapi.AlgorithmGroestl:      {PowMax: groestlPowMax, PowMin: powMin, TargetSpacing: defaultPowTargetSpacing},
		externalapi.AlgorithmProofOfStake: {PowMax: stakePowMax, PowMin: powMin, TargetSpacing: defaultStakeTargetSpacing},
	}
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:        "mainnet",
	Net:         0x74657472,
	DefaultPort: "17111",

	// Chain parameters
	GenesisBlock:                   &genesisBlock,
	GenesisHash:                    genesisHash,
	Lanes:                          newLanes(mainSHA256dPowMax, mainScryptPowMax, mainGroestlPowMax, mainStakePowMax),
	DifficultyAdjustmentWindowSize: defaultDifficultyAdjustmentWindowSize,
	PastMedianTimeWindowSize:       defaultPastMedianTimeWindowSize,
	PosInterval:                    defaultPosInterval,
	BlockCoinbaseMaturity:          100,
	BaseSubsidy:                    defaultBaseSubsidy,
	SubsidyReductionInterval:       defaultSubsidyReductionInterval,
	MaxBlockSize:                   defaultMaxBlockSize,
	MaxTxSize:                      defaultMaxTxSize,
	MaxBlockSigOpsCost:             defaultMaxBlockSigOpsCost,
	SigOpCostFactor:                defaultSigOpCostFactor,
	MaxFutureBlockTime:             defaultMaxFutureBlockTime,

	// Stake parameters
	MinStakeAmount:    defaultMinStakeAmount,
	MinStakeAge:       defaultMinStakeAge,
	MaxStakeAge:       defaultMaxStakeAge,
	StakeAgeUnit:      defaultStakeAgeUnit,
	CoinUnit:          UnitsPerCoin,
	MaxStakePastDrift: 2 * time.Hour,

	// Reorganization and finality
	MaxReorgDepth:             100,
	SoftFinalityDepth:         100,
	HardFinalityDepth:         300,
	IrreversibleFinalityDepth: 1000,

	// Mempool parameters
	RelayNonStdTxs: false,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:        "testnet",
	Net:         0x74747374,
	DefaultPort: "17211",

	// Chain parameters
	GenesisBlock:                   &testnetGenesisBlock,
	GenesisHash:                    testnetGenesisHash,
	Lanes:                          newLanes(testnetPowMax, testnetPowMax, testnetPowMax, testnetPowMax),
	DifficultyAdjustmentWindowSize: defaultDifficultyAdjustmentWindowSize,
	PastMedianTimeWindowSize:       defaultPastMedianTimeWindowSize,
	PosInterval:                    defaultPosInterval,
	BlockCoinbaseMaturity:          100,
	BaseSubsidy:                    defaultBaseSubsidy,
	SubsidyReductionInterval:       defaultSubsidyReductionInterval,
	MaxBlockSize:                   defaultMaxBlockSize,
	MaxTxSize:                      defaultMaxTxSize,
	MaxBlockSigOpsCost:             defaultMaxBlockSigOpsCost,
	SigOpCostFactor:                defaultSigOpCostFactor,
	MaxFutureBlockTime:             defaultMaxFutureBlockTime,

	// Stake parameters
	MinStakeAmount:    defaultMinStakeAmount,
	MinStakeAge:       defaultMinStakeAge,
	MaxStakeAge:       defaultMaxStakeAge,
	StakeAgeUnit:      defaultStakeAgeUnit,
	CoinUnit:          UnitsPerCoin,
	MaxStakePastDrift: 2 * time.Hour,

	// Reorganization and finality
	MaxReorgDepth:             100,
	SoftFinalityDepth:         100,
	HardFinalityDepth:         300,
	IrreversibleFinalityDepth: 1000,

	// Mempool parameters
	RelayNonStdTxs: true,
}

// SimnetParams defines the network parameters for the simulation test
// network. This network is intended for private use within a group of
// individuals doing simulation testing, and for the unit tests of this
// repository. Its lanes are trivially easy and it has shallow finality.
var SimnetParams = Params{
	Name:        "simnet",
	Net:         0x7473696d,
	DefaultPort: "17511",

	// Chain parameters
	GenesisBlock:                   &simnetGenesisBlock,
	GenesisHash:                    simnetGenesisHash,
	Lanes:                          newLanes(simnetPowMax, simnetPowMax, simnetPowMax, simnetPowMax),
	DifficultyAdjustmentWindowSize: defaultDifficultyAdjustmentWindowSize,
	PastMedianTimeWindowSize:       defaultPastMedianTimeWindowSize,
	PosInterval:                    defaultPosInterval,
	BlockCoinbaseMaturity:          10,
	BaseSubsidy:                    defaultBaseSubsidy,
	SubsidyReductionInterval:       defaultSubsidyReductionInterval,
	MaxBlockSize:                   defaultMaxBlockSize,
	MaxTxSize:                      defaultMaxTxSize,
	MaxBlockSigOpsCost:             defaultMaxBlockSigOpsCost,
	SigOpCostFactor:                defaultSigOpCostFactor,
	MaxFutureBlockTime:             defaultMaxFutureBlockTime,

	// Stake parameters
	MinStakeAmount:    defaultMinStakeAmount,
	MinStakeAge:       defaultMinStakeAge,
	MaxStakeAge:       defaultMaxStakeAge,
	StakeAgeUnit:      defaultStakeAgeUnit,
	CoinUnit:          UnitsPerCoin,
	MaxStakePastDrift: 0,

	// Reorganization and finality
	MaxReorgDepth:             100,
	SoftFinalityDepth:         100,
	HardFinalityDepth:         200,
	IrreversibleFinalityDepth: 300,

	// Mempool parameters
	RelayNonStdTxs: true,
}

// RegressionNetParams defines the network parameters for the regression
// test network. Difficulty never adjusts on it.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         0x74726567,
	DefaultPort: "17611",

	// Chain parameters
	GenesisBlock:                   &regtestGenesisBlock,
	GenesisHash:                    regtestGenesisHash,
	Lanes:                          newLanes(simnetPowMax, simnetPowMax, simnetPowMax, simnetPowMax),
	DifficultyAdjustmentWindowSize: defaultDifficultyAdjustmentWindowSize,
	PastMedianTimeWindowSize:       defaultPastMedianTimeWindowSize,
	PosInterval:                    defaultPosInterval,
	BlockCoinbaseMaturity:          100,
	BaseSubsidy:                    defaultBaseSubsidy,
	SubsidyReductionInterval:       150,
	MaxBlockSize:                   defaultMaxBlockSize,
	MaxTxSize:                      defaultMaxTxSize,
	MaxBlockSigOpsCost:             defaultMaxBlockSigOpsCost,
	SigOpCostFactor:                defaultSigOpCostFactor,
	MaxFutureBlockTime:             defaultMaxFutureBlockTime,

	// Stake parameters
	MinStakeAmount:    defaultMinStakeAmount,
	MinStakeAge:       defaultMinStakeAge,
	MaxStakeAge:       defaultMaxStakeAge,
	StakeAgeUnit:      defaultStakeAgeUnit,
	CoinUnit:          UnitsPerCoin,
	MaxStakePastDrift: 0,

	// Reorganization and finality
	MaxReorgDepth:             100,
	SoftFinalityDepth:         100,
	HardFinalityDepth:         200,
	IrreversibleFinalityDepth: 300,

	DisableDifficultyAdjustment: true,

	// Mempool parameters
	RelayNonStdTxs: true,
}

var (
	// ErrDuplicateNet describes an error where the parameters for a
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes an error where the parameters for a network
	// were requested by a name that was never registered.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a network. This may error
// with ErrDuplicateNet if the network is already registered (either due to a
// previous Register call, or the network being one of the default networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return errors.Wrapf(ErrDuplicateNet, "network %s", params.Name)
	}
	registeredNets[params.Name] = params
	return nil
}

// ParamsByName returns the registered parameters of the named network
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %s", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&SimnetParams)
	mustRegister(&RegressionNetParams)
}
