package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// BlockIndex is the arena of all known block nodes, addressed by NodeIndex,
// together with the active chain
type BlockIndex interface {
	Insert(node *BlockNode) NodeIndex
	Lookup(blockHash *externalapi.DomainHash) (NodeIndex, bool)
	Node(index NodeIndex) *BlockNode
	Len() int
	NextSequence() uint64

	ActiveTip() NodeIndex
	SetActiveTip(index NodeIndex)
	IsInActiveChain(index NodeIndex) bool
	ActiveChainAt(height uint64) (NodeIndex, bool)

	Ancestor(index NodeIndex, height uint64) NodeIndex
	CommonAncestor(a, b NodeIndex) NodeIndex
	IsAncestorOf(ancestor, index NodeIndex) bool
	Children(index NodeIndex) []NodeIndex
}
