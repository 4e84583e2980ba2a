package blockbuilder

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/merkle"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

type blockBuilder struct {
	posInterval uint64

	blockIndex            model.BlockIndex
	chainManager          model.ChainManager
	blockValidator        model.BlockValidator
	difficultyManager     model.DifficultyManager
	pastMedianTimeManager model.PastMedianTimeManager
	transactionValidator  model.TransactionValidator
	timeSource            model.TimeSource
}

// New creates a new instance of a BlockBuilder
func New(
	posInterval uint64,

	blockIndex model.BlockIndex,
	chainManager model.ChainManager,
	blockValidator model.BlockValidator,
	difficultyManager model.DifficultyManager,
	pastMedianTimeManager model.PastMedianTimeManager,
	transactionValidator model.TransactionValidator,
	timeSource model.TimeSource,
) model.BlockBuilder {

	return &blockBuilder{
		posInterval: posInterval,

		blockIndex:            blockIndex,
		chainManager:          chainManager,
		blockValidator:        blockValidator,
		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastMedianTimeManager,
		transactionValidator:  transactionValidator,
		timeSource:            timeSource,
	}
}

// BuildBlock builds a block over the current state, with the given
// coinbaseScript and the given transactions
func (bb *blockBuilder) BuildBlock(coinbaseScript []byte, transactions []*externalapi.DomainTransaction,
	coinstake *externalapi.DomainTransaction, blockTime uint32) (*externalapi.DomainBlock, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildBlock")
	defer onEnd()

	return bb.buildBlock(bb.blockIndex.ActiveTip(), coinbaseScript, transactions, coinstake, blockTime)
}

func (bb *blockBuilder) buildBlock(parent model.NodeIndex, coinbaseScript []byte,
	transactions []*externalapi.DomainTransaction, coinstake *externalapi.DomainTransaction,
	blockTime uint32) (*externalapi.DomainBlock, error) {

	height := bb.blockIndex.Node(parent).Height + 1
	isProofOfStake := pow.IsProofOfStakeHeight(height, bb.posInterval)
	if isProofOfStake && coinstake == nil {
		return nil, errors.Errorf("a coinstake is required at proof-of-stake height %d", height)
	}
	if !isProofOfStake && coinstake != nil {
		return nil, errors.Errorf("height %d is not a proof-of-stake height", height)
	}

	coinbase, err := bb.newBlockCoinbaseTransaction(parent, height, coinbaseScript, transactions, coinstake)
	if err != nil {
		return nil, err
	}
	blockTransactions := []*externalapi.DomainTransaction{coinbase}
	if coinstake != nil {
		blockTransactions = append(blockTransactions, coinstake)
	}
	blockTransactions = append(blockTransactions, transactions...)

	return &externalapi.DomainBlock{
		Header:       bb.buildHeader(parent, height, blockTransactions, blockTime),
		Transactions: blockTransactions,
	}, nil
}

// newBlockCoinbaseTransaction pays the subsidy and the fees of the block
// to coinbaseScript, less what the coinstake already mints
func (bb *blockBuilder) newBlockCoinbaseTransaction(parent model.NodeIndex, height uint64, coinbaseScript []byte,
	transactions []*externalapi.DomainTransaction,
	coinstake *externalapi.DomainTransaction) (*externalapi.DomainTransaction, error) {

	utxoView := bb.chainManager.UTXOSet()
	reward := bb.blockValidator.BlockSubsidy(height)

	if parent == bb.blockIndex.ActiveTip() {
		for _, transaction := range transactions {
			fee, err := bb.transactionValidator.ValidateTransactionInContext(transaction, utxoView, height, false)
			if err != nil {
				return nil, err
			}
			reward += fee
		}
	}

	if coinstake != nil {
		minted, err := coinstakeMinted(coinstake, utxoView)
		if err != nil {
			return nil, err
		}
		if minted >= reward {
			reward = 0
		} else {
			reward -= minted
		}
	}

	return transactionhelper.NewCoinbaseTransaction(height, nil, coinbaseScript, reward), nil
}

func coinstakeMinted(coinstake *externalapi.DomainTransaction, utxoView model.UTXOView) (uint64, error) {
	totalIn := uint64(0)
	for _, input := range coinstake.Inputs {
		entry, ok := utxoView.Get(&input.PreviousOutpoint)
		if !ok {
			return 0, errors.Errorf("coinstake input %s is not in the UTXO set", input.PreviousOutpoint)
		}
		totalIn += entry.Amount()
	}

	totalOut := uint64(0)
	for _, output := range coinstake.Outputs {
		totalOut += output.Value
	}
	if totalOut <= totalIn {
		return 0, nil
	}
	return totalOut - totalIn, nil
}

func (bb *blockBuilder) buildHeader(parent model.NodeIndex, height uint64,
	transactions []*externalapi.DomainTransaction, blockTime uint32) *externalapi.DomainBlockHeader {

	if blockTime == 0 {
		blockTime = bb.newBlockTime(parent)
	}

	return &externalapi.DomainBlockHeader{
		Version:       constants.BlockVersion,
		PrevBlockHash: *bb.blockIndex.Node(parent).Hash,
		MerkleRoot:    *merkle.CalculateHashMerkleRoot(transactions),
		Time:          blockTime,
		Bits:          bb.difficultyManager.RequiredDifficulty(parent, height),
	}
}

// newBlockTime returns the current time, or one second after the past
// median time of parent if that is later. The timestamp of a block must
// be strictly after the past median time.
func (bb *blockBuilder) newBlockTime(parent model.NodeIndex) uint32 {
	newTimestamp := uint32(bb.timeSource.Now().Unix())
	minTimestamp := bb.pastMedianTimeManager.PastMedianTime(parent) + 1
	if newTimestamp < minTimestamp {
		newTimestamp = minTimestamp
	}
	return newTimestamp
}
