package blockindex

import (
	"fmt"

	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// blockIndex is an append-only arena of block nodes. Nodes refer to their
// parents by index, and the active chain is kept as a height-indexed slice
// of node indexes.
type blockIndex struct {
	nodes       []*model.BlockNode
	lookup      map[externalapi.DomainHash]model.NodeIndex
	children    map[model.NodeIndex][]model.NodeIndex
	activeChain []model.NodeIndex
	sequence    uint64
}

// New instantiates a new, empty BlockIndex
func New() model.BlockIndex {
	return &blockIndex{
		lookup:   make(map[externalapi.DomainHash]model.NodeIndex),
		children: make(map[model.NodeIndex][]model.NodeIndex),
	}
}

// Insert appends node to the arena and returns its index. Inserting a hash
// twice is a programming error.
func (bi *blockIndex) Insert(node *model.BlockNode) model.NodeIndex {
	if _, ok := bi.lookup[*node.Hash]; ok {
		panic(fmt.Sprintf("block %s is already in the block index", node.Hash))
	}
	if node.Parent != model.NoParent && int(node.Parent) >= len(bi.nodes) {
		panic(fmt.Sprintf("parent %d of block %s is not in the block index", node.Parent, node.Hash))
	}

	index := model.NodeIndex(len(bi.nodes))
	bi.nodes = append(bi.nodes, node)
	bi.lookup[*node.Hash] = index
	if node.Parent != model.NoParent {
		bi.children[node.Parent] = append(bi.children[node.Parent], index)
	}
	return index
}

func (bi *blockIndex) Lookup(blockHash *externalapi.DomainHash) (model.NodeIndex, bool) {
	index, ok := bi.lookup[*blockHash]
	return index, ok
}

func (bi *blockIndex) Node(index model.NodeIndex) *model.BlockNode {
	return bi.nodes[index]
}

func (bi *blockIndex) Len() int {
	return len(bi.nodes)
}

// NextSequence returns a new first-seen sequence number
func (bi *blockIndex) NextSequence() uint64 {
	sequence := bi.sequence
	bi.sequence++
	return sequence
}

// ActiveTip returns the tip of the active chain, or model.NoParent if no
// chain was set yet
func (bi *blockIndex) ActiveTip() model.NodeIndex {
	if len(bi.activeChain) == 0 {
		return model.NoParent
	}
	return bi.activeChain[len(bi.activeChain)-1]
}

// SetActiveTip makes the chain ending at index the active chain. Only the
// part of the chain above the fork point is rewritten.
func (bi *blockIndex) SetActiveTip(index model.NodeIndex) {
	tip := bi.nodes[index]
	newChain := bi.activeChain
	if uint64(len(newChain)) > tip.Height+1 {
		newChain = newChain[:tip.Height+1]
	}
	for uint64(len(newChain)) < tip.Height+1 {
		newChain = append(newChain, model.NoParent)
	}

	current := index
	for current != model.NoParent {
		height := bi.nodes[current].Height
		if newChain[height] == current {
			break
		}
		newChain[height] = current
		current = bi.nodes[current].Parent
	}
	bi.activeChain = newChain
}

func (bi *blockIndex) IsInActiveChain(index model.NodeIndex) bool {
	height := bi.nodes[index].Height
	return height < uint64(len(bi.activeChain)) && bi.activeChain[height] == index
}

func (bi *blockIndex) ActiveChainAt(height uint64) (model.NodeIndex, bool) {
	if height >= uint64(len(bi.activeChain)) {
		return model.NoParent, false
	}
	return bi.activeChain[height], true
}

// Ancestor returns the ancestor of index at the given height. Asking for a
// height above the node is a programming error.
func (bi *blockIndex) Ancestor(index model.NodeIndex, height uint64) model.NodeIndex {
	if height > bi.nodes[index].Height {
		panic(fmt.Sprintf("block %s at height %d has no ancestor at height %d",
			bi.nodes[index].Hash, bi.nodes[index].Height, height))
	}
	if bi.IsInActiveChain(index) {
		return bi.activeChain[height]
	}

	current := index
	for bi.nodes[current].Height > height {
		current = bi.nodes[current].Parent
		if bi.IsInActiveChain(current) {
			return bi.activeChain[height]
		}
	}
	return current
}

// CommonAncestor returns the highest node both a and b descend from
func (bi *blockIndex) CommonAncestor(a, b model.NodeIndex) model.NodeIndex {
	if bi.nodes[a].Height > bi.nodes[b].Height {
		a = bi.Ancestor(a, bi.nodes[b].Height)
	} else if bi.nodes[b].Height > bi.nodes[a].Height {
		b = bi.Ancestor(b, bi.nodes[a].Height)
	}

	for a != b {
		a = bi.nodes[a].Parent
		b = bi.nodes[b].Parent
		if a == model.NoParent || b == model.NoParent {
			return model.NoParent
		}
	}
	return a
}

func (bi *blockIndex) IsAncestorOf(ancestor, index model.NodeIndex) bool {
	if bi.nodes[ancestor].Height > bi.nodes[index].Height {
		return false
	}
	return bi.Ancestor(index, bi.nodes[ancestor].Height) == ancestor
}

func (bi *blockIndex) Children(index model.NodeIndex) []model.NodeIndex {
	return bi.children[index]
}
