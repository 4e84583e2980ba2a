package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// DifficultyManager resolves the required difficulty of blocks, per
// algorithm lane
type DifficultyManager interface {
	RequiredDifficulty(parent NodeIndex, height uint64) uint32
	NextTarget(lane externalapi.Algorithm, window []*BlockNode) uint32
	LaneWindow(parent NodeIndex, lane externalapi.Algorithm) []*BlockNode
}
