package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                 bool   `long:"testnet" description:"Use the test network"`
	Simnet                  bool   `long:"simnet" description:"Use the simulation test network"`
	RegressionTest          bool   `long:"regtest" description:"Use the regression test network"`
	OverrideChainParamsFile string `long:"override-chain-params-file" description:"Overrides chain params (allowed only on simnet and regtest)"`

	ActiveNetParams *chainconfig.Params
}

type overrideLaneConfig struct {
	PowMax                      *string `json:"powMax"`
	TargetSpacingInMilliSeconds *int64  `json:"targetSpacingInMilliSeconds"`
}

type overrideChainParamsConfig struct {
	Lanes                          map[string]*overrideLaneConfig `json:"lanes"`
	DifficultyAdjustmentWindowSize *uint64                        `json:"difficultyAdjustmentWindowSize"`
	PastMedianTimeWindowSize       *uint64                        `json:"pastMedianTimeWindowSize"`
	PosInterval                    *uint64                        `json:"posInterval"`
	BlockCoinbaseMaturity          *uint64                        `json:"blockCoinbaseMaturity"`
	BaseSubsidy                    *uint64                        `json:"baseSubsidy"`
	SubsidyReductionInterval       *uint64                        `json:"subsidyReductionInterval"`
	MaxBlockSize                   *uint64                        `json:"maxBlockSize"`
	MaxTxSize                      *uint64                        `json:"maxTxSize"`
	MaxFutureBlockTimeInSeconds    *int64                         `json:"maxFutureBlockTimeInSeconds"`
	MinStakeAmount                 *uint64                        `json:"minStakeAmount"`
	MinStakeAgeInSeconds           *int64                         `json:"minStakeAgeInSeconds"`
	MaxStakeAgeInSeconds           *int64                         `json:"maxStakeAgeInSeconds"`
	MaxReorgDepth                  *uint64                        `json:"maxReorgDepth"`
	SoftFinalityDepth              *uint64                        `json:"softFinalityDepth"`
	HardFinalityDepth              *uint64                        `json:"hardFinalityDepth"`
	IrreversibleFinalityDepth      *uint64                        `json:"irreversibleFinalityDepth"`
	DisableDifficultyAdjustment    *bool                          `json:"disableDifficultyAdjustment"`
	SkipProofOfWork                *bool                          `json:"skipProofOfWork"`
	RelayNonStdTxs                 *bool                          `json:"relayNonStdTxs"`
}

// ResolveNetwork parses the network command line argument and sets
// ActiveNetParams accordingly. The selected params are cloned, so overrides
// never leak into the package level network definitions.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default value is main-net.
	params := &chainconfig.MainnetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = &chainconfig.TestnetParams
	}
	if networkFlags.Simnet {
		numNets++
		params = &chainconfig.SimnetParams
	}
	if networkFlags.RegressionTest {
		numNets++
		params = &chainconfig.RegressionNetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, simnet, regtest, etc.) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	networkFlags.ActiveNetParams = params.Clone()

	err := networkFlags.overrideChainParams()
	if err != nil {
		return err
	}
	return networkFlags.ActiveNetParams.ValidateFinalityThresholds()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideChainParams() error {
	if networkFlags.OverrideChainParamsFile == "" {
		return nil
	}

	if !networkFlags.Simnet && !networkFlags.RegressionTest {
		return errors.Errorf("override-chain-params-file is allowed only when using simnet or regtest")
	}

	overrideChainParamsFile, err := os.Open(networkFlags.OverrideChainParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideChainParamsFile.Close()

	decoder := json.NewDecoder(overrideChainParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideChainParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "couldn't decode %s", networkFlags.OverrideChainParamsFile)
	}

	return applyChainParamsOverrides(networkFlags.ActiveNetParams, config)
}

func applyChainParamsOverrides(params *chainconfig.Params, config *overrideChainParamsConfig) error {
	for name, laneConfig := range config.Lanes {
		algorithm, ok := algorithmByName(name)
		if !ok {
			return errors.Errorf("unknown lane %s", name)
		}
		lane := &params.Lanes[algorithm]

		if laneConfig.PowMax != nil {
			powMax, ok := big.NewInt(0).SetString(*laneConfig.PowMax, 16)
			if !ok {
				return errors.Errorf("couldn't convert %s to big int", *laneConfig.PowMax)
			}
			if powMax.Cmp(lane.PowMin) < 0 {
				return errors.Errorf("powMax of lane %s (%s) is smaller than its powMin (%s)", name,
					powMax.Text(16), lane.PowMin.Text(16))
			}
			lane.PowMax = powMax
		}

		if laneConfig.TargetSpacingInMilliSeconds != nil {
			if *laneConfig.TargetSpacingInMilliSeconds <= 0 {
				return errors.Errorf("targetSpacingInMilliSeconds of lane %s must be positive", name)
			}
			lane.TargetSpacing = time.Duration(*laneConfig.TargetSpacingInMilliSeconds) * time.Millisecond
		}
	}

	if config.DifficultyAdjustmentWindowSize != nil {
		params.DifficultyAdjustmentWindowSize = *config.DifficultyAdjustmentWindowSize
	}

	if config.PastMedianTimeWindowSize != nil {
		if *config.PastMedianTimeWindowSize == 0 {
			return errors.Errorf("pastMedianTimeWindowSize must be positive")
		}
		params.PastMedianTimeWindowSize = *config.PastMedianTimeWindowSize
	}

	if config.PosInterval != nil {
		params.PosInterval = *config.PosInterval
	}

	if config.BlockCoinbaseMaturity != nil {
		params.BlockCoinbaseMaturity = *config.BlockCoinbaseMaturity
	}

	if config.BaseSubsidy != nil {
		params.BaseSubsidy = *config.BaseSubsidy
	}

	if config.SubsidyReductionInterval != nil {
		params.SubsidyReductionInterval = *config.SubsidyReductionInterval
	}

	if config.MaxBlockSize != nil {
		params.MaxBlockSize = *config.MaxBlockSize
	}

	if config.MaxTxSize != nil {
		params.MaxTxSize = *config.MaxTxSize
	}

	if config.MaxFutureBlockTimeInSeconds != nil {
		params.MaxFutureBlockTime = time.Duration(*config.MaxFutureBlockTimeInSeconds) * time.Second
	}

	if config.MinStakeAmount != nil {
		params.MinStakeAmount = *config.MinStakeAmount
	}

	if config.MinStakeAgeInSeconds != nil {
		params.MinStakeAge = time.Duration(*config.MinStakeAgeInSeconds) * time.Second
	}

	if config.MaxStakeAgeInSeconds != nil {
		params.MaxStakeAge = time.Duration(*config.MaxStakeAgeInSeconds) * time.Second
	}

	if config.MaxReorgDepth != nil {
		params.MaxReorgDepth = *config.MaxReorgDepth
	}

	if config.SoftFinalityDepth != nil {
		params.SoftFinalityDepth = *config.SoftFinalityDepth
	}

	if config.HardFinalityDepth != nil {
		params.HardFinalityDepth = *config.HardFinalityDepth
	}

	if config.IrreversibleFinalityDepth != nil {
		params.IrreversibleFinalityDepth = *config.IrreversibleFinalityDepth
	}

	if config.DisableDifficultyAdjustment != nil {
		params.DisableDifficultyAdjustment = *config.DisableDifficultyAdjustment
	}

	if config.SkipProofOfWork != nil {
		params.SkipProofOfWork = *config.SkipProofOfWork
	}

	if config.RelayNonStdTxs != nil {
		params.RelayNonStdTxs = *config.RelayNonStdTxs
	}

	return nil
}

func algorithmByName(name string) (externalapi.Algorithm, bool) {
	for algorithm := externalapi.Algorithm(0); algorithm < externalapi.NumberOfAlgorithms; algorithm++ {
		if algorithm.String() == name {
			return algorithm, true
		}
	}
	return 0, false
}
