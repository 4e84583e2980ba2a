package finalitymanager

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// finalityManager derives the finality status of active chain blocks from
// their depth below the active tip. A status, once observed, never goes down
// for as long as the block stays in the active chain.
type finalityManager struct {
	softFinalityDepth         uint64
	hardFinalityDepth         uint64
	irreversibleFinalityDepth uint64

	blockIndex model.BlockIndex
	cache      *lru.Cache[model.NodeIndex, externalapi.FinalityStatus]
}

// New instantiates a new FinalityManager. The thresholds must satisfy
// soft < hard < irreversible.
func New(softFinalityDepth uint64,
	hardFinalityDepth uint64,
	irreversibleFinalityDepth uint64,
	cacheSize int,
	blockIndex model.BlockIndex) (model.FinalityManager, error) {

	if softFinalityDepth >= hardFinalityDepth || hardFinalityDepth >= irreversibleFinalityDepth {
		return nil, errors.Errorf("finality thresholds must satisfy soft < hard < irreversible, "+
			"got soft %d, hard %d, irreversible %d",
			softFinalityDepth, hardFinalityDepth, irreversibleFinalityDepth)
	}

	cache, err := lru.New[model.NodeIndex, externalapi.FinalityStatus](cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &finalityManager{
		softFinalityDepth:         softFinalityDepth,
		hardFinalityDepth:         hardFinalityDepth,
		irreversibleFinalityDepth: irreversibleFinalityDepth,
		blockIndex:                blockIndex,
		cache:                     cache,
	}, nil
}

// StatusForDepth maps a confirmation depth to its finality status
func (fm *finalityManager) StatusForDepth(depth uint64) externalapi.FinalityStatus {
	switch {
	case depth >= fm.irreversibleFinalityDepth:
		return externalapi.FinalityIrreversible
	case depth >= fm.hardFinalityDepth:
		return externalapi.FinalityHard
	case depth >= fm.softFinalityDepth:
		return externalapi.FinalitySoft
	default:
		return externalapi.FinalityPending
	}
}

// FinalityStatus returns the finality status of the block at index. Blocks
// outside the active chain are always pending.
func (fm *finalityManager) FinalityStatus(index model.NodeIndex) externalapi.FinalityStatus {
	if !fm.blockIndex.IsInActiveChain(index) {
		return externalapi.FinalityPending
	}

	tip := fm.blockIndex.Node(fm.blockIndex.ActiveTip())
	depth := tip.Height - fm.blockIndex.Node(index).Height
	status := fm.StatusForDepth(depth)

	if cached, ok := fm.cache.Get(index); ok && cached > status {
		return cached
	}
	if status > externalapi.FinalityPending {
		fm.cache.Add(index, status)
	}
	return status
}

// CanReorganizeBeyond returns whether the block at index may still be
// disconnected from the active chain
func (fm *finalityManager) CanReorganizeBeyond(index model.NodeIndex) bool {
	return fm.FinalityStatus(index) < externalapi.FinalitySoft
}

// Invalidate drops the cached statuses of the given blocks. It must be
// called for every block disconnected from the active chain.
func (fm *finalityManager) Invalidate(indexes []model.NodeIndex) {
	for _, index := range indexes {
		fm.cache.Remove(index)
	}
}
