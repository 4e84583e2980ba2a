package blockvalidator

import (
	"time"

	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	maxBlockSize             uint64
	maxBlockSigOpsCost       uint64
	sigOpCostFactor          uint64
	maxFutureBlockTime       time.Duration
	posInterval              uint64
	lanes                    [externalapi.NumberOfAlgorithms]chainconfig.LaneParams
	baseSubsidy              uint64
	subsidyReductionInterval uint64
	skipPoW                  bool

	blockIndex            model.BlockIndex
	difficultyManager     model.DifficultyManager
	pastMedianTimeManager model.PastMedianTimeManager
	transactionValidator  model.TransactionValidator
	stakeManager          model.StakeManager
	timeSource            model.TimeSource
}

// New instantiates a new BlockValidator
func New(maxBlockSize uint64,
	maxBlockSigOpsCost uint64,
	sigOpCostFactor uint64,
	maxFutureBlockTime time.Duration,
	posInterval uint64,
	lanes [externalapi.NumberOfAlgorithms]chainconfig.LaneParams,
	baseSubsidy uint64,
	subsidyReductionInterval uint64,
	skipPoW bool,

	blockIndex model.BlockIndex,
	difficultyManager model.DifficultyManager,
	pastMedianTimeManager model.PastMedianTimeManager,
	transactionValidator model.TransactionValidator,
	stakeManager model.StakeManager,
	timeSource model.TimeSource,
) model.BlockValidator {

	return &blockValidator{
		maxBlockSize:             maxBlockSize,
		maxBlockSigOpsCost:       maxBlockSigOpsCost,
		sigOpCostFactor:          sigOpCostFactor,
		maxFutureBlockTime:       maxFutureBlockTime,
		posInterval:              posInterval,
		lanes:                    lanes,
		baseSubsidy:              baseSubsidy,
		subsidyReductionInterval: subsidyReductionInterval,
		skipPoW:                  skipPoW,

		blockIndex:            blockIndex,
		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastMedianTimeManager,
		transactionValidator:  transactionValidator,
		stakeManager:          stakeManager,
		timeSource:            timeSource,
	}
}

// ValidateBlockInIsolation validates the block with nothing but its height
// as context
func (v *blockValidator) ValidateBlockInIsolation(block *externalapi.DomainBlock, height uint64) error {
	return v.validateBlockWithoutUTXO(block, height, nil)
}

// ValidateBlockWithoutUTXO validates everything but the block's inputs and
// stake kernel, in the context of its parent
func (v *blockValidator) ValidateBlockWithoutUTXO(block *externalapi.DomainBlock, parent model.NodeIndex) error {
	height := v.blockIndex.Node(parent).Height + 1
	return v.validateBlockWithoutUTXO(block, height, func() error {
		return v.validateHeaderInContext(block.Header, parent, height)
	})
}

// ValidateBlock runs every check of ValidateBlockWithoutUTXO followed by
// the checks of ValidateBlockUTXO
func (v *blockValidator) ValidateBlock(block *externalapi.DomainBlock, parent model.NodeIndex,
	utxoView model.UTXOView, isTrusted bool) error {

	err := v.ValidateBlockWithoutUTXO(block, parent)
	if err != nil {
		return err
	}
	return v.ValidateBlockUTXO(block, parent, utxoView, isTrusted)
}

// validateBlockWithoutUTXO runs the checks in their consensus order,
// stopping at the first failure. validateHeaderInContext, if set, runs right
// after the proof-of-work check.
func (v *blockValidator) validateBlockWithoutUTXO(block *externalapi.DomainBlock, height uint64,
	validateHeaderInContext func() error) error {

	err := v.checkBlockSize(block)
	if err != nil {
		return err
	}

	err = v.checkProofOfWork(block.Header, height)
	if err != nil {
		return err
	}

	if validateHeaderInContext != nil {
		err = validateHeaderInContext()
		if err != nil {
			return err
		}
	}

	err = v.checkBlockHashMerkleRoot(block)
	if err != nil {
		return err
	}

	err = v.validateBodyInIsolation(block, height)
	if err != nil {
		return err
	}

	return v.checkBlockSigOpsCost(block)
}
