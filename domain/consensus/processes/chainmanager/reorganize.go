package chainmanager

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/utxo"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

// reorganize makes newTip the active tip. Extending the current tip is a
// reorganization of depth zero. On any failure the active chain and the
// UTXO set are restored to exactly what they were before the call.
func (cm *chainManager) reorganize(newTip model.NodeIndex, isTrusted bool) (*externalapi.ChainChanges, error) {
	oldTip := cm.blockIndex.ActiveTip()
	onEnd := logger.LogAndMeasureExecutionTime(log, "reorganize")
	defer onEnd()

	oldTipNode := cm.blockIndex.Node(oldTip)
	newTipNode := cm.blockIndex.Node(newTip)
	ancestor := cm.blockIndex.CommonAncestor(oldTip, newTip)
	ancestorNode := cm.blockIndex.Node(ancestor)

	depth := oldTipNode.Height - ancestorNode.Height
	if depth > cm.maxReorgDepth {
		return nil, errors.Wrapf(ruleerrors.ErrReorgTooDeep, "switching to %s requires disconnecting "+
			"%d blocks, which is more than the maximum of %d", newTipNode.Hash, depth, cm.maxReorgDepth)
	}
	if depth > 0 {
		deepest := cm.blockIndex.Ancestor(oldTip, ancestorNode.Height+1)
		if !cm.finalityManager.CanReorganizeBeyond(deepest) {
			return nil, errors.Wrapf(ruleerrors.ErrFinalityViolation, "switching to %s requires "+
				"disconnecting block %s which is %s", newTipNode.Hash, cm.blockIndex.Node(deepest).Hash,
				cm.finalityManager.FinalityStatus(deepest))
		}
		log.Infof("Reorganizing the active chain from %s to %s (%d blocks disconnected)",
			oldTipNode.Hash, newTipNode.Hash, depth)
	}

	// All undo data is gathered before anything is disconnected
	var disconnected []model.NodeIndex
	var undos []*utxo.Diff
	for current := oldTip; current != ancestor; current = cm.blockIndex.Node(current).Parent {
		undo, err := cm.undoDataFor(current)
		if err != nil {
			return nil, err
		}
		disconnected = append(disconnected, current)
		undos = append(undos, undo)
	}

	var steps []*utxo.Diff
	chainChanges := &externalapi.ChainChanges{}

	for i, current := range disconnected {
		if cm.isInterrupted() {
			cm.rollback(oldTip, steps)
			return nil, errors.WithStack(ruleerrors.ErrInterrupted)
		}

		inverse := undos[i].Inverse()
		cm.applyDiff(inverse)
		cm.blockIndex.SetActiveTip(cm.blockIndex.Node(current).Parent)
		steps = append(steps, inverse)
		chainChanges.Removed = append(chainChanges.Removed, cm.blockIndex.Node(current).Hash)
	}

	for _, current := range cm.pathFrom(ancestor, newTip) {
		if cm.isInterrupted() {
			cm.rollback(oldTip, steps)
			return nil, errors.WithStack(ruleerrors.ErrInterrupted)
		}

		diff, err := cm.connectBlock(current, isTrusted)
		if err != nil {
			cm.rollback(oldTip, steps)
			if ruleerrors.IsRuleError(err) {
				cm.markInvalid(current)
			}
			return nil, err
		}
		steps = append(steps, diff)
		chainChanges.Added = append(chainChanges.Added, cm.blockIndex.Node(current).Hash)
	}

	cm.finalityManager.Invalidate(disconnected)
	for _, index := range disconnected {
		delete(cm.undoData, index)
	}
	cm.pruneUndoData()
	return chainChanges, nil
}

// connectBlock validates the block at index against the current UTXO set,
// whose tip must be its parent, and connects it
func (cm *chainManager) connectBlock(index model.NodeIndex, isTrusted bool) (*utxo.Diff, error) {
	node := cm.blockIndex.Node(index)
	block, err := cm.blockStore.Block(node.Hash)
	if err != nil {
		return nil, err
	}

	err = cm.blockValidator.ValidateBlockUTXO(block, node.Parent, cm.utxoSet, isTrusted)
	if err != nil {
		log.Debugf("Block %s failed validation against the UTXO set: %s", node.Hash, err)
		return nil, err
	}

	diff := utxo.NewDiff()
	for _, transaction := range block.Transactions {
		err := diff.AddTransaction(cm.utxoSet, transaction, node.Height, block.Header.Time)
		if err != nil {
			return nil, err
		}
	}
	cm.applyDiff(diff)
	cm.blockIndex.SetActiveTip(index)
	cm.undoData[index] = diff
	node.Status = externalapi.StatusValid
	return diff, nil
}

// rollback undoes the applied diffs in reverse order and restores oldTip
// as the active tip
func (cm *chainManager) rollback(oldTip model.NodeIndex, steps []*utxo.Diff) {
	log.Debugf("Rolling back %d chain steps", len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		cm.applyDiff(steps[i].Inverse())
	}
	cm.blockIndex.SetActiveTip(oldTip)
}

func (cm *chainManager) applyDiff(diff *utxo.Diff) {
	err := cm.utxoSet.ApplyDiff(diff)
	if err != nil {
		panic(errors.Wrap(err, "UTXO diff does not fit the UTXO set"))
	}
}

// pathFrom returns the chain leading from ancestor, exclusive, to index,
// inclusive, ordered by height
func (cm *chainManager) pathFrom(ancestor model.NodeIndex, index model.NodeIndex) []model.NodeIndex {
	var path []model.NodeIndex
	for current := index; current != ancestor; current = cm.blockIndex.Node(current).Parent {
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// markInvalid marks the block at index and all of its descendants invalid
func (cm *chainManager) markInvalid(index model.NodeIndex) {
	queue := []model.NodeIndex{index}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		cm.blockIndex.Node(current).Status = externalapi.StatusInvalid
		queue = append(queue, cm.blockIndex.Children(current)...)
	}
}

func (cm *chainManager) pruneUndoData() {
	tipHeight := cm.blockIndex.Node(cm.blockIndex.ActiveTip()).Height
	if tipHeight <= cm.maxReorgDepth {
		return
	}
	minHeight := tipHeight - cm.maxReorgDepth
	for index := range cm.undoData {
		if cm.blockIndex.Node(index).Height < minHeight {
			delete(cm.undoData, index)
		}
	}
}
