package difficultymanager

import (
	"math/big"
	"time"

	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
)

// difficultyManager provides a method to resolve the
// difficulty value of a block. Every algorithm lane retargets
// independently, looking only at blocks of its own lane.
type difficultyManager struct {
	lanes                          [externalapi.NumberOfAlgorithms]chainconfig.LaneParams
	difficultyAdjustmentWindowSize uint64
	posInterval                    uint64
	disableDifficultyAdjustment    bool

	blockIndex model.BlockIndex
}

// New instantiates a new DifficultyManager
func New(lanes [externalapi.NumberOfAlgorithms]chainconfig.LaneParams,
	difficultyAdjustmentWindowSize uint64,
	posInterval uint64,
	disableDifficultyAdjustment bool,
	blockIndex model.BlockIndex) model.DifficultyManager {

	return &difficultyManager{
		lanes:                          lanes,
		difficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,
		posInterval:                    posInterval,
		disableDifficultyAdjustment:    disableDifficultyAdjustment,
		blockIndex:                     blockIndex,
	}
}

// RequiredDifficulty returns the difficulty required for a block at the
// given height on top of parent
func (dm *difficultyManager) RequiredDifficulty(parent model.NodeIndex, height uint64) uint32 {
	lane := pow.SelectAlgorithm(height, dm.posInterval)
	return dm.NextTarget(lane, dm.LaneWindow(parent, lane))
}

// LaneWindow returns up to difficultyAdjustmentWindowSize+1 blocks of the
// given lane, walking back from parent. The newest block comes first.
func (dm *difficultyManager) LaneWindow(parent model.NodeIndex, lane externalapi.Algorithm) []*model.BlockNode {
	windowCapacity := dm.difficultyAdjustmentWindowSize + 1
	window := make([]*model.BlockNode, 0, windowCapacity)
	for current := parent; current != model.NoParent && uint64(len(window)) < windowCapacity; {
		node := dm.blockIndex.Node(current)
		if node.Algorithm == lane {
			window = append(window, node)
		}
		current = node.Parent
	}
	return window
}

// NextTarget returns the compact target of the next block of the given lane.
// Until the lane has a full window, and whenever difficulty adjustment is
// disabled, the target is the lane's PowMax.
func (dm *difficultyManager) NextTarget(lane externalapi.Algorithm, window []*model.BlockNode) uint32 {
	laneParams := &dm.lanes[lane]
	if dm.disableDifficultyAdjustment || uint64(len(window)) < dm.difficultyAdjustmentWindowSize+1 {
		return math.BigToCompact(laneParams.PowMax)
	}

	newest := window[0]
	oldest := window[len(window)-1]

	targetTimespan := int64(dm.difficultyAdjustmentWindowSize) * int64(laneParams.TargetSpacing/time.Second)
	minTimespan := targetTimespan / 4
	maxTimespan := targetTimespan * 4

	actualTimespan := int64(newest.Header.Time) - int64(oldest.Header.Time)
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	// newTarget = lastTarget * actualTimespan / targetTimespan
	newTarget := math.CompactToBig(newest.Header.Bits)
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	if newTarget.Cmp(laneParams.PowMax) > 0 {
		newTarget.Set(laneParams.PowMax)
	}
	if newTarget.Cmp(laneParams.PowMin) < 0 {
		newTarget.Set(laneParams.PowMin)
	}

	newTargetBits := math.BigToCompact(newTarget)
	log.Debugf("Retargeting %s lane: old target %08x, new target %08x, actual timespan %ds, "+
		"target timespan %ds", lane, newest.Header.Bits, newTargetBits, actualTimespan, targetTimespan)
	return newTargetBits
}
