package model

import (
	"math/big"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// NodeIndex addresses a node in the block index arena
type NodeIndex int32

// NoParent is the parent index of the genesis node
const NoParent NodeIndex = -1

// BlockNode is an entry of the block index. Nodes are append-only: apart
// from Status, their fields never change after insertion.
type BlockNode struct {
	Hash   *externalapi.DomainHash
	Parent NodeIndex
	Height uint64
	Header *externalapi.DomainBlockHeader

	// Work is the cumulative work of the chain ending at this node
	Work *big.Int

	Algorithm externalapi.Algorithm

	// Status is one of StatusCandidate, StatusValid or StatusInvalid
	Status externalapi.BlockStatus

	// StakeModifier is the modifier blocks built on top of this node use
	// in their stake kernel
	StakeModifier *externalapi.DomainHash

	// Sequence is the order in which the node was first seen
	Sequence uint64
}

// BlockType returns whether the node is a proof-of-work or proof-of-stake block
func (node *BlockNode) BlockType() externalapi.BlockType {
	return node.Algorithm.BlockType()
}
