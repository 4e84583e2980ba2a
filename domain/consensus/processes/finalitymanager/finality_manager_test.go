package finalitymanager

import (
	"math/big"
	"testing"

	"github.com/tetranet/tetrad/domain/consensus/datastructures/blockindex"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

func insertChain(bi model.BlockIndex, parent model.NodeIndex, length int, hashOffset int) []model.NodeIndex {
	indexes := make([]model.NodeIndex, length)
	height := uint64(0)
	if parent != model.NoParent {
		height = bi.Node(parent).Height + 1
	}
	for i := range indexes {
		var hash [externalapi.DomainHashSize]byte
		hash[0] = byte(hashOffset + i)
		hash[1] = byte((hashOffset + i) >> 8)
		indexes[i] = bi.Insert(&model.BlockNode{
			Hash:     externalapi.NewDomainHashFromByteArray(&hash),
			Parent:   parent,
			Height:   height,
			Work:     big.NewInt(int64(height)),
			Sequence: bi.NextSequence(),
		})
		parent = indexes[i]
		height++
	}
	return indexes
}

func TestNewValidatesThresholds(t *testing.T) {
	tests := []struct {
		soft, hard, irreversible uint64
		expectError              bool
	}{
		{soft: 6, hard: 100, irreversible: 1000, expectError: false},
		{soft: 100, hard: 100, irreversible: 1000, expectError: true},
		{soft: 6, hard: 1000, irreversible: 100, expectError: true},
		{soft: 7, hard: 6, irreversible: 1000, expectError: true},
	}

	for i, test := range tests {
		_, err := New(test.soft, test.hard, test.irreversible, 10, blockindex.New())
		if (err != nil) != test.expectError {
			t.Fatalf("TestNewValidatesThresholds: test #%d: expected error %t but got %v",
				i, test.expectError, err)
		}
	}
}

func TestStatusForDepth(t *testing.T) {
	fm, err := New(6, 100, 1000, 10, blockindex.New())
	if err != nil {
		t.Fatalf("TestStatusForDepth: New: %+v", err)
	}

	tests := []struct {
		depth    uint64
		expected externalapi.FinalityStatus
	}{
		{0, externalapi.FinalityPending},
		{5, externalapi.FinalityPending},
		{6, externalapi.FinalitySoft},
		{99, externalapi.FinalitySoft},
		{100, externalapi.FinalityHard},
		{999, externalapi.FinalityHard},
		{1000, externalapi.FinalityIrreversible},
		{5000, externalapi.FinalityIrreversible},
	}
	for _, test := range tests {
		status := fm.StatusForDepth(test.depth)
		if status != test.expected {
			t.Fatalf("TestStatusForDepth: depth %d: expected %s but got %s", test.depth, test.expected, status)
		}
	}
}

func TestFinalityStatusMonotonic(t *testing.T) {
	bi := blockindex.New()
	fm, err := New(2, 4, 8, 100, bi)
	if err != nil {
		t.Fatalf("TestFinalityStatusMonotonic: New: %+v", err)
	}

	chain := insertChain(bi, model.NoParent, 1, 0)
	bi.SetActiveTip(chain[0])

	watched := chain[0]
	previous := externalapi.FinalityPending
	for i := 1; i <= 12; i++ {
		next := insertChain(bi, bi.ActiveTip(), 1, i)
		bi.SetActiveTip(next[0])

		status := fm.FinalityStatus(watched)
		if status < previous {
			t.Fatalf("TestFinalityStatusMonotonic: status went down from %s to %s at tip height %d",
				previous, status, i)
		}
		previous = status
	}
	if previous != externalapi.FinalityIrreversible {
		t.Fatalf("TestFinalityStatusMonotonic: expected %s at depth 12 but got %s",
			externalapi.FinalityIrreversible, previous)
	}
	if fm.CanReorganizeBeyond(watched) {
		t.Fatalf("TestFinalityStatusMonotonic: an irreversible block must not be reorganizable")
	}
}

func TestFinalityStatusOfSideBranch(t *testing.T) {
	bi := blockindex.New()
	fm, err := New(2, 4, 8, 100, bi)
	if err != nil {
		t.Fatalf("TestFinalityStatusOfSideBranch: New: %+v", err)
	}

	mainChain := insertChain(bi, model.NoParent, 6, 0)
	bi.SetActiveTip(mainChain[5])
	sideBranch := insertChain(bi, mainChain[2], 5, 100)

	if status := fm.FinalityStatus(sideBranch[0]); status != externalapi.FinalityPending {
		t.Fatalf("TestFinalityStatusOfSideBranch: expected a side branch block to be %s but got %s",
			externalapi.FinalityPending, status)
	}
	if status := fm.FinalityStatus(mainChain[3]); status != externalapi.FinalitySoft {
		t.Fatalf("TestFinalityStatusOfSideBranch: expected %s but got %s", externalapi.FinalitySoft, status)
	}
	if !fm.CanReorganizeBeyond(mainChain[4]) {
		t.Fatalf("TestFinalityStatusOfSideBranch: a pending block must be reorganizable")
	}

	// Switch to the side branch: the disconnected blocks lose their status
	bi.SetActiveTip(sideBranch[4])
	fm.Invalidate(mainChain[3:])
	if status := fm.FinalityStatus(mainChain[3]); status != externalapi.FinalityPending {
		t.Fatalf("TestFinalityStatusOfSideBranch: expected a disconnected block to be %s but got %s",
			externalapi.FinalityPending, status)
	}
}
