package consensus

import (
	"math/rand"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/compactblock"
	"github.com/tetranet/tetrad/domain/consensus/datastructures/blockindex"
	"github.com/tetranet/tetrad/domain/consensus/datastructures/blockstore"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/model/testapi"
	"github.com/tetranet/tetrad/domain/consensus/processes/blockbuilder"
	"github.com/tetranet/tetrad/domain/consensus/processes/blockvalidator"
	"github.com/tetranet/tetrad/domain/consensus/processes/chainmanager"
	"github.com/tetranet/tetrad/domain/consensus/processes/difficultymanager"
	"github.com/tetranet/tetrad/domain/consensus/processes/finalitymanager"
	"github.com/tetranet/tetrad/domain/consensus/processes/pastmediantimemanager"
	"github.com/tetranet/tetrad/domain/consensus/processes/stakemanager"
	"github.com/tetranet/tetrad/domain/consensus/processes/transactionvalidator"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/infrastructure/db/database"
	"github.com/tetranet/tetrad/infrastructure/db/database/ldb"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

const testDatabaseCacheSizeMiB = 8

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database, interrupter model.Interrupter) (externalapi.Consensus, error)
	NewTestConsensus(config *Config, testName string) (
		tc testapi.TestConsensus, teardown func(keepDataDir bool), err error)
	NewTestConsensusWithDataDir(config *Config, dataDir string) (
		tc testapi.TestConsensus, teardown func(keepDataDir bool), err error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus backed by db. Blocks already
// in db are replayed on top of the genesis block before it returns.
func (f *factory) NewConsensus(config *Config, db database.Database,
	interrupter model.Interrupter) (externalapi.Consensus, error) {

	return f.newConsensus(config, db, interrupter, NewTimeSource())
}

func (f *factory) newConsensus(config *Config, db database.Database, interrupter model.Interrupter,
	timeSource model.TimeSource) (*consensus, error) {

	params := config.Params

	// Data Structures
	blockIndex := blockindex.New()
	blockStore, err := blockstore.New(db, config.BlockCacheSize)
	if err != nil {
		return nil, err
	}

	// Processes
	pastMedianTimeManager := pastmediantimemanager.New(
		params.PastMedianTimeWindowSize,
		blockIndex)
	difficultyManager := difficultymanager.New(
		params.Lanes,
		params.DifficultyAdjustmentWindowSize,
		params.PosInterval,
		params.DisableDifficultyAdjustment,
		blockIndex)
	stakeManager := stakemanager.New(
		params.MinStakeAmount,
		params.MinStakeAge,
		params.MaxStakeAge,
		params.StakeAgeUnit,
		params.CoinUnit,
		params.MaxFutureBlockTime,
		params.MaxStakePastDrift)
	transactionValidator := transactionvalidator.New(
		params.MaxTxSize,
		params.BlockCoinbaseMaturity)
	blockValidator := blockvalidator.New(
		params.MaxBlockSize,
		params.MaxBlockSigOpsCost,
		params.SigOpCostFactor,
		params.MaxFutureBlockTime,
		params.PosInterval,
		params.Lanes,
		params.BaseSubsidy,
		params.SubsidyReductionInterval,
		params.SkipProofOfWork,

		blockIndex,
		difficultyManager,
		pastMedianTimeManager,
		transactionValidator,
		stakeManager,
		timeSource,
	)
	finalityManager, err := finalitymanager.New(
		params.SoftFinalityDepth,
		params.HardFinalityDepth,
		params.IrreversibleFinalityDepth,
		config.FinalityCacheSize,
		blockIndex)
	if err != nil {
		return nil, err
	}
	chainManager, err := chainmanager.New(
		params.MaxReorgDepth,
		params.PosInterval,
		params.GenesisBlock,
		blockIndex,
		blockStore,
		blockValidator,
		stakeManager,
		finalityManager,
		interrupter)
	if err != nil {
		return nil, err
	}
	blockBuilder := blockbuilder.New(
		params.PosInterval,

		blockIndex,
		chainManager,
		blockValidator,
		difficultyManager,
		pastMedianTimeManager,
		transactionValidator,
		timeSource,
	)

	reconstructor, err := compactblock.NewReconstructor(config.CompactBlockRetryBudget,
		config.MaxPendingCompactBlocks)
	if err != nil {
		return nil, err
	}

	c := &consensus{
		lock:   &sync.RWMutex{},
		params: params,

		blockIndex:            blockIndex,
		blockStore:            blockStore,
		blockBuilder:          blockBuilder,
		blockValidator:        blockValidator,
		chainManager:          chainManager,
		difficultyManager:     difficultyManager,
		finalityManager:       finalityManager,
		pastMedianTimeManager: pastMedianTimeManager,
		stakeManager:          stakeManager,
		transactionValidator:  transactionValidator,

		reconstructor:        reconstructor,
		blockAdmissionFilter: config.BlockAdmissionFilter,
		interrupter:          interrupter,
	}

	err = c.replayStoredBlocks()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// replayStoredBlocks rebuilds the block index, the active chain and the
// UTXO set from the blocks of the block store, in the order they were
// first stored
func (s *consensus) replayStoredBlocks() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "replayStoredBlocks")
	defer onEnd()

	blocks, err := s.blockStore.BlocksInInsertionOrder()
	if err != nil {
		return err
	}

	replayed := 0
	for _, block := range blocks {
		if s.interrupter.Interrupted() {
			return errors.Wrapf(ruleerrors.ErrInterrupted, "replay stopped after %d blocks", replayed)
		}

		blockHash := consensushashing.BlockHash(block)
		if blockHash.Equal(s.params.GenesisHash) {
			continue
		}

		result, err := s.chainManager.AddBlock(block, true)
		if err != nil {
			return errors.Wrapf(err, "failed replaying stored block %s", blockHash)
		}
		if result.Kind != externalapi.ProcessResultAccepted {
			log.Warnf("Stored block %s was not accepted on replay: %s %v",
				blockHash, result.Kind, result.RejectReason)
			continue
		}
		replayed++
	}

	if replayed > 0 {
		tip := s.blockIndex.Node(s.blockIndex.ActiveTip())
		log.Infof("Replayed %d stored blocks. The active tip is %s at height %d", replayed, tip.Hash, tip.Height)
	}
	return nil
}

func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc testapi.TestConsensus, teardown func(keepDataDir bool), err error) {

	dataDir, err := os.MkdirTemp("", testName)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return f.NewTestConsensusWithDataDir(config, dataDir)
}

func (f *factory) NewTestConsensusWithDataDir(config *Config, dataDir string) (
	tc testapi.TestConsensus, teardown func(keepDataDir bool), err error) {

	db, err := ldb.NewLevelDB(dataDir, testDatabaseCacheSizeMiB)
	if err != nil {
		return nil, nil, err
	}

	interrupter := &testInterrupter{}
	consensusAsImplementation, err := f.newConsensus(config, db, interrupter, NewTimeSource())
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	testConsensusImpl := &testConsensus{
		consensus:   consensusAsImplementation,
		interrupter: interrupter,
		rd:          rand.New(rand.NewSource(0)),
	}

	teardown = func(keepDataDir bool) {
		db.Close()
		if !keepDataDir {
			err := os.RemoveAll(dataDir)
			if err != nil {
				log.Errorf("Error removing data directory for test consensus: %s", err)
			}
		}
	}
	return testConsensusImpl, teardown, nil
}
