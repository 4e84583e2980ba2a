package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// FinalityManager derives finality statuses from confirmation depth
type FinalityManager interface {
	StatusForDepth(depth uint64) externalapi.FinalityStatus
	FinalityStatus(index NodeIndex) externalapi.FinalityStatus
	CanReorganizeBeyond(index NodeIndex) bool
	Invalidate(indexes []NodeIndex)
}
