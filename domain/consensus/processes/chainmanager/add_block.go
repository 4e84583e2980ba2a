package chainmanager

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/processes/chainmanager/blocklogger"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

// AddBlock inserts block into the block index and, if it leaves a valid
// chain with more work than the active one, switches the active chain to
// it. Rule violations are reported through the returned ProcessResult.
// isTrusted marks blocks replayed from the local block store.
func (cm *chainManager) AddBlock(block *externalapi.DomainBlock, isTrusted bool) (*externalapi.ProcessResult, error) {
	blockHash := consensushashing.BlockHash(block)
	onEnd := logger.LogAndMeasureExecutionTime(log, fmt.Sprintf("AddBlock %s", blockHash))
	defer onEnd()

	if index, ok := cm.blockIndex.Lookup(blockHash); ok {
		node := cm.blockIndex.Node(index)
		if node.Status == externalapi.StatusInvalid {
			return externalapi.NewRejectedResult(blockHash,
				errors.Wrapf(ruleerrors.ErrKnownInvalid, "block %s is a known invalid block", blockHash)), nil
		}
		// A candidate heavier than the active tip is left behind by an
		// interrupted chain switch, so it is retried
		if node.Status != externalapi.StatusCandidate || !cm.isHeavierThanActiveTip(index) {
			return externalapi.NewRejectedResult(blockHash,
				errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s already exists", blockHash)), nil
		}
		return cm.switchToBlock(block, index, isTrusted)
	}

	parentHash := &block.Header.PrevBlockHash
	parentIndex, ok := cm.blockIndex.Lookup(parentHash)
	if !ok {
		log.Debugf("Parent %s of block %s is unknown", parentHash, blockHash)
		return externalapi.NewMissingBlocksResult(blockHash, []*externalapi.DomainHash{parentHash}), nil
	}
	parentNode := cm.blockIndex.Node(parentIndex)

	if parentNode.Status == externalapi.StatusInvalid {
		cm.insertNode(block, blockHash, parentIndex, externalapi.StatusInvalid)
		return externalapi.NewRejectedResult(blockHash,
			errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "parent %s of block %s is invalid",
				parentHash, blockHash)), nil
	}

	err := cm.blockValidator.ValidateBlockWithoutUTXO(block, parentIndex)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			log.Debugf("Block %s failed context free validation: %s", blockHash, err)
			return externalapi.NewRejectedResult(blockHash, err), nil
		}
		return nil, err
	}

	cm.blockStore.Stage(blockHash, block)
	err = cm.blockStore.Commit()
	if err != nil {
		return nil, err
	}
	index := cm.insertNode(block, blockHash, parentIndex, externalapi.StatusCandidate)

	if !cm.isHeavierThanActiveTip(index) {
		log.Debugf("Block %s was added to a side branch at height %d", blockHash, parentNode.Height+1)
		return externalapi.NewAcceptedResult(blockHash, nil), nil
	}
	return cm.switchToBlock(block, index, isTrusted)
}

// isHeavierThanActiveTip returns whether the chain ending at index has
// strictly more work than the active chain. Ties keep the block that was
// seen first.
func (cm *chainManager) isHeavierThanActiveTip(index model.NodeIndex) bool {
	tipNode := cm.blockIndex.Node(cm.blockIndex.ActiveTip())
	return cm.blockIndex.Node(index).Work.Cmp(tipNode.Work) > 0
}

func (cm *chainManager) switchToBlock(block *externalapi.DomainBlock, index model.NodeIndex,
	isTrusted bool) (*externalapi.ProcessResult, error) {

	blockHash := cm.blockIndex.Node(index).Hash
	chainChanges, err := cm.reorganize(index, isTrusted)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			return externalapi.NewRejectedResult(blockHash, err), nil
		}
		return nil, err
	}

	blocklogger.LogBlock(block, cm.blockIndex.Node(index).Height)
	return externalapi.NewAcceptedResult(blockHash, chainChanges), nil
}

func (cm *chainManager) insertNode(block *externalapi.DomainBlock, blockHash *externalapi.DomainHash,
	parentIndex model.NodeIndex, status externalapi.BlockStatus) model.NodeIndex {

	parentNode := cm.blockIndex.Node(parentIndex)
	height := parentNode.Height + 1
	node := &model.BlockNode{
		Hash:          blockHash,
		Parent:        parentIndex,
		Height:        height,
		Header:        block.Header,
		Work:          new(big.Int).Add(parentNode.Work, math.CalcWork(block.Header.Bits)),
		Algorithm:     pow.SelectAlgorithm(height, cm.posInterval),
		Status:        status,
		StakeModifier: cm.stakeManager.NextStakeModifier(parentNode),
		Sequence:      cm.blockIndex.NextSequence(),
	}
	return cm.blockIndex.Insert(node)
}
