package pastmediantimemanager

import (
	"sort"

	"github.com/tetranet/tetrad/domain/consensus/model"
)

// pastMedianTimeManager provides a method to resolve the
// past median time of a block
type pastMedianTimeManager struct {
	windowSize uint64
	blockIndex model.BlockIndex
}

// New instantiates a new PastMedianTimeManager
func New(windowSize uint64, blockIndex model.BlockIndex) model.PastMedianTimeManager {
	return &pastMedianTimeManager{
		windowSize: windowSize,
		blockIndex: blockIndex,
	}
}

// PastMedianTime returns the median timestamp of parent and up to
// windowSize-1 of its ancestors. A block must be timestamped strictly
// after the past median time of its parent.
func (pmtm *pastMedianTimeManager) PastMedianTime(parent model.NodeIndex) uint32 {
	if parent == model.NoParent {
		return 0
	}

	timestamps := make([]uint32, 0, pmtm.windowSize)
	for current := parent; current != model.NoParent && uint64(len(timestamps)) < pmtm.windowSize; {
		node := pmtm.blockIndex.Node(current)
		timestamps = append(timestamps, node.Header.Time)
		current = node.Parent
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return timestamps[len(timestamps)/2]
}
