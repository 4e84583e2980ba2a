// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus"
	"github.com/tetranet/tetrad/domain/miningmanager/mempool"
	"github.com/tetranet/tetrad/domain/policy"
	"github.com/tetranet/tetrad/infrastructure/logger"
	"github.com/tetranet/tetrad/version"
	"golang.org/x/time/rate"
)

const (
	defaultConfigFilename       = "tetrad.conf"
	defaultDataDirname          = "data"
	defaultLogLevel             = "info"
	defaultLogDirname           = "logs"
	defaultLogFilename          = "tetrad.log"
	defaultErrLogFilename       = "tetrad_err.log"
	defaultDatabaseCacheSizeMiB = 256
	defaultBlockCacheSize       = 200
	defaultMaxMempoolTxs        = 100_000
	defaultPeerMessagesPerSec   = 50
	defaultPeerBurst            = 200
)

var (
	// DefaultAppDir is the default home directory for tetrad.
	DefaultAppDir = appDataDir("tetrad")

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for tetrad.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion               bool    `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile                string  `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir                    string  `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir                    string  `long:"logdir" description:"Directory to log output."`
	DebugLevel                string  `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Profile                   string  `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	DatabaseCacheSizeMiB      int     `long:"dbcachesize" description:"Size of the LevelDB block cache in MiB"`
	BlockCacheSize            int     `long:"blockcachesize" description:"Number of deserialized blocks kept in memory"`
	MaxReorgDepth             uint64  `long:"maxreorgdepth" description:"Deepest reorganization that is accepted -- 0 keeps the network default"`
	SoftFinalityDepth         uint64  `long:"softfinalitydepth" description:"Depth at which a block becomes soft final -- 0 keeps the network default"`
	HardFinalityDepth         uint64  `long:"hardfinalitydepth" description:"Depth at which a block becomes hard final -- 0 keeps the network default"`
	IrreversibleFinalityDepth uint64  `long:"irreversiblefinalitydepth" description:"Depth at which a block becomes irreversible -- 0 keeps the network default"`
	MaxMempoolTxs             int     `long:"maxmempooltx" description:"Max number of transactions to keep in the mempool"`
	MinRelayTxFee             uint64  `long:"minrelaytxfee" description:"The minimum transaction fee in minor units/kB to be considered a non-zero fee."`
	DustThreshold             uint64  `long:"dustthreshold" description:"Outputs below this value in minor units are considered dust"`
	MaxOpReturnData           int     `long:"maxopreturndata" description:"Largest payload of a standard OP_RETURN output in bytes"`
	MaxOpReturnPerBlock       int     `long:"maxopreturnperblock" description:"Largest number of OP_RETURN outputs in a relayed block"`
	RelayNonStd               bool    `long:"relaynonstd" description:"Relay non-standard transactions regardless of the default settings for the active network."`
	RejectNonStd              bool    `long:"rejectnonstd" description:"Reject non-standard transactions regardless of the default settings for the active network."`
	PeerMessagesPerSecond     float64 `long:"peermsgrate" description:"Sustained number of messages per second accepted from a single peer"`
	PeerBurst                 int     `long:"peerburst" description:"Number of messages a single peer may send in a burst"`
	NetworkFlags
}

// Config defines the configuration options for tetrad.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags
}

// DefaultConfig returns the default tetrad configuration, resolved for
// mainnet
func DefaultConfig() *Config {
	config := &Config{Flags: newDefaultFlags()}
	err := config.ResolveNetwork(nil)
	if err != nil {
		panic(errors.Wrap(err, "the default network params are invalid"))
	}
	params := config.NetParams()
	config.RelayNonStd = params.RelayNonStdTxs
	config.AppDir = filepath.Join(config.AppDir, params.Name)
	config.LogDir = filepath.Join(config.LogDir, params.Name)
	return config
}

func newDefaultFlags() *Flags {
	return &Flags{
		ConfigFile:            defaultConfigFile,
		AppDir:                DefaultAppDir,
		LogDir:                defaultLogDir,
		DebugLevel:            defaultLogLevel,
		DatabaseCacheSizeMiB:  defaultDatabaseCacheSizeMiB,
		BlockCacheSize:        defaultBlockCacheSize,
		MaxMempoolTxs:         defaultMaxMempoolTxs,
		MinRelayTxFee:         policy.DefaultMinRelayTxFee,
		DustThreshold:         policy.DefaultDustThreshold,
		MaxOpReturnData:       policy.DefaultMaxOpReturnData,
		MaxOpReturnPerBlock:   policy.DefaultMaxOpReturnPerBlock,
		PeerMessagesPerSecond: defaultPeerMessagesPerSec,
		PeerBurst:             defaultPeerBurst,
	}
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func newConfigParser(cfgFlags *Flags, options flags.Options) *flags.Parser {
	return flags.NewParser(cfgFlags, options)
}

// LoadConfig initializes and parses the config using a config file and
// the given command line arguments.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// The above results in tetrad functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags := newDefaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	parser := newConfigParser(cfgFlags, flags.Default)
	if _, err := os.Stat(preCfg.ConfigFile); err == nil {
		err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, errors.WithStack(err)
		}
	} else if preCfg.ConfigFile != defaultConfigFile {
		return nil, errors.Wrapf(err, "couldn't read config file %s", preCfg.ConfigFile)
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	config := &Config{Flags: cfgFlags}
	err = config.resolve(parser)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}
	return config, nil
}

// resolve selects the network, applies the command line overrides of the
// network params and validates the result
func (config *Config) resolve(parser *flags.Parser) error {
	funcName := "loadConfig"

	err := config.ResolveNetwork(parser)
	if err != nil {
		return err
	}

	params := config.NetParams()
	if config.MaxReorgDepth != 0 {
		params.MaxReorgDepth = config.MaxReorgDepth
	}
	if config.SoftFinalityDepth != 0 {
		params.SoftFinalityDepth = config.SoftFinalityDepth
	}
	if config.HardFinalityDepth != 0 {
		params.HardFinalityDepth = config.HardFinalityDepth
	}
	if config.IrreversibleFinalityDepth != 0 {
		params.IrreversibleFinalityDepth = config.IrreversibleFinalityDepth
	}
	err = params.ValidateFinalityThresholds()
	if err != nil {
		return errors.Wrapf(err, "%s", funcName)
	}

	// Set the default policy for relaying non-standard transactions
	// according to the default of the active network. The set
	// configuration value takes precedence over the default value for the
	// selected network.
	relayNonStd := params.RelayNonStdTxs
	switch {
	case config.RelayNonStd && config.RejectNonStd:
		return errors.Errorf("%s: rejectnonstd and relaynonstd cannot be used "+
			"together -- choose only one", funcName)
	case config.RejectNonStd:
		relayNonStd = false
	case config.RelayNonStd:
		relayNonStd = true
	}
	config.RelayNonStd = relayNonStd

	// Append the network type to the data and log directories so they
	// are "namespaced" per network.
	config.AppDir = filepath.Join(cleanAndExpandPath(config.AppDir), params.Name)
	config.LogDir = filepath.Join(cleanAndExpandPath(config.LogDir), params.Name)

	// Special show command to list supported subsystems and exit.
	if config.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	err = logger.ParseAndSetLogLevels(config.DebugLevel)
	if err != nil {
		return errors.Errorf("%s: %s", funcName, err)
	}

	if config.Profile != "" {
		profilePort, err := strconv.Atoi(config.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("%s: The profile port must be between 1024 and 65535", funcName)
		}
	}

	if config.DatabaseCacheSizeMiB <= 0 {
		return errors.Errorf("%s: dbcachesize must be positive -- parsed [%d]",
			funcName, config.DatabaseCacheSizeMiB)
	}
	if config.BlockCacheSize <= 0 {
		return errors.Errorf("%s: blockcachesize must be positive -- parsed [%d]",
			funcName, config.BlockCacheSize)
	}
	if config.MaxMempoolTxs <= 0 {
		return errors.Errorf("%s: maxmempooltx must be positive -- parsed [%d]",
			funcName, config.MaxMempoolTxs)
	}
	if config.MaxOpReturnData < 0 || config.MaxOpReturnPerBlock < 0 {
		return errors.Errorf("%s: maxopreturndata and maxopreturnperblock may not be negative", funcName)
	}
	if config.PeerMessagesPerSecond <= 0 || config.PeerBurst <= 0 {
		return errors.Errorf("%s: peermsgrate and peerburst must be positive", funcName)
	}

	return nil
}

// ConsensusConfig returns the consensus configuration of the active network
func (config *Config) ConsensusConfig() *consensus.Config {
	consensusConfig := consensus.NewConfig(config.NetParams())
	consensusConfig.BlockCacheSize = config.BlockCacheSize
	return consensusConfig
}

// PolicyConfig returns the relay policy described by config
func (config *Config) PolicyConfig() *policy.Config {
	policyConfig := policy.DefaultConfig()
	policyConfig.DustThreshold = config.DustThreshold
	policyConfig.MaxOpReturnData = config.MaxOpReturnData
	policyConfig.MaxOpReturnPerBlock = config.MaxOpReturnPerBlock
	policyConfig.MinRelayTxFee = config.MinRelayTxFee
	policyConfig.AcceptNonStandard = config.RelayNonStd
	policyConfig.PeerMessagesPerSecond = rate.Limit(config.PeerMessagesPerSecond)
	policyConfig.PeerBurst = config.PeerBurst
	return policyConfig
}

// MempoolConfig returns the mempool limits described by config
func (config *Config) MempoolConfig() *mempool.Config {
	return &mempool.Config{
		MaximumTransactionCount: config.MaxMempoolTxs,
	}
}

// LogFile returns the path of the main log file
func (config *Config) LogFile() string {
	return filepath.Join(config.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the warnings-and-above log file
func (config *Config) ErrLogFile() string {
	return filepath.Join(config.LogDir, defaultErrLogFilename)
}

// DatabaseDir returns the directory of the block database
func (config *Config) DatabaseDir() string {
	return filepath.Join(config.AppDir, defaultDataDirname)
}
