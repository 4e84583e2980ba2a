package difficultymanager

import (
	"math/big"
	"testing"

	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/datastructures/blockindex"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
	"pgregory.net/rapid"
)

const startBits = 0x1c00ffff

func laneWindow(size int, bits uint32, timeAt func(i int) uint32) []*model.BlockNode {
	window := make([]*model.BlockNode, size)
	for i := range window {
		// Newest first
		window[i] = &model.BlockNode{
			Header: &externalapi.DomainBlockHeader{Time: timeAt(size - 1 - i), Bits: bits},
		}
	}
	return window
}

func newTestDifficultyManager(params *chainconfig.Params) *difficultyManager {
	return New(params.Lanes, params.DifficultyAdjustmentWindowSize, params.PosInterval,
		params.DisableDifficultyAdjustment, blockindex.New()).(*difficultyManager)
}

func TestNextTarget(t *testing.T) {
	params := chainconfig.MainnetParams.Clone()
	dm := newTestDifficultyManager(params)
	lane := externalapi.AlgorithmSHA256d
	spacing := uint32(params.Lane(lane).TargetSpacing.Seconds())
	fullWindow := int(params.DifficultyAdjustmentWindowSize) + 1
	powMaxBits := math.BigToCompact(params.Lane(lane).PowMax)

	tests := []struct {
		name     string
		window   []*model.BlockNode
		expected uint32
	}{
		{
			name:     "empty window",
			window:   nil,
			expected: powMaxBits,
		},
		{
			name:     "window not yet full",
			window:   laneWindow(fullWindow-1, startBits, func(i int) uint32 { return uint32(i) }),
			expected: powMaxBits,
		},
		{
			name:     "on schedule",
			window:   laneWindow(fullWindow, startBits, func(i int) uint32 { return 1_000_000 + uint32(i)*spacing }),
			expected: startBits,
		},
		{
			name:   "too fast is clamped to a quarter",
			window: laneWindow(fullWindow, startBits, func(i int) uint32 { return 1_000_000 }),
			expected: math.BigToCompact(new(big.Int).Div(math.CompactToBig(startBits),
				big.NewInt(4))),
		},
		{
			name: "timestamps going backwards are clamped to a quarter",
			window: laneWindow(fullWindow, startBits, func(i int) uint32 {
				return 1_000_000 - uint32(i)
			}),
			expected: math.BigToCompact(new(big.Int).Div(math.CompactToBig(startBits),
				big.NewInt(4))),
		},
		{
			name:     "too slow is clamped to the lane's PowMax",
			window:   laneWindow(fullWindow, powMaxBits, func(i int) uint32 { return uint32(i) * spacing * 100 }),
			expected: powMaxBits,
		},
	}

	for _, test := range tests {
		result := dm.NextTarget(lane, test.window)
		if result != test.expected {
			t.Errorf("TestNextTarget: %s: expected bits %08x but got %08x", test.name, test.expected, result)
		}
	}

	params.DisableDifficultyAdjustment = true
	dm = newTestDifficultyManager(params)
	window := laneWindow(fullWindow, startBits, func(i int) uint32 { return 1_000_000 })
	if result := dm.NextTarget(lane, window); result != powMaxBits {
		t.Errorf("TestNextTarget: expected PowMax bits with difficulty adjustment disabled, got %08x", result)
	}
}

func TestNextTargetBounds(t *testing.T) {
	params := chainconfig.MainnetParams.Clone()
	dm := newTestDifficultyManager(params)
	fullWindow := int(params.DifficultyAdjustmentWindowSize) + 1

	rapid.Check(t, func(t *rapid.T) {
		lane := externalapi.Algorithm(rapid.IntRange(0, externalapi.NumberOfAlgorithms-1).Draw(t, "lane"))
		laneParams := params.Lane(lane)
		exponent := rapid.UintRange(1, uint(laneParams.PowMax.BitLen())).Draw(t, "exponent")
		lastTarget := new(big.Int).Lsh(big.NewInt(1), exponent-1)
		bits := math.BigToCompact(lastTarget)

		times := make([]uint32, fullWindow)
		for i := range times {
			times[i] = rapid.Uint32().Draw(t, "time")
		}
		window := laneWindow(fullWindow, bits, func(i int) uint32 { return times[i] })

		target := math.CompactToBig(dm.NextTarget(lane, window))
		if target.Cmp(laneParams.PowMax) > 0 || target.Cmp(laneParams.PowMin) < 0 {
			t.Fatalf("target %x is out of the lane's bounds", target)
		}
	})
}

func TestLaneWindowAndRequiredDifficulty(t *testing.T) {
	params := chainconfig.SimnetParams.Clone()
	index := blockindex.New()
	dm := New(params.Lanes, params.DifficultyAdjustmentWindowSize, params.PosInterval,
		params.DisableDifficultyAdjustment, index)

	if bits := dm.RequiredDifficulty(model.NoParent, 0); bits != math.BigToCompact(params.Lanes[0].PowMax) {
		t.Fatalf("TestLaneWindowAndRequiredDifficulty: the genesis must get the lane's PowMax, got %08x", bits)
	}

	parent := model.NoParent
	for height := uint64(0); height < 300; height++ {
		var hashBytes [externalapi.DomainHashSize]byte
		hashBytes[0], hashBytes[1] = byte(height), byte(height>>8)
		parent = index.Insert(&model.BlockNode{
			Hash:      externalapi.NewDomainHashFromByteArray(&hashBytes),
			Parent:    parent,
			Height:    height,
			Header:    &externalapi.DomainBlockHeader{Time: uint32(height) * 60, Bits: 0x207fffff},
			Algorithm: pow.SelectAlgorithm(height, params.PosInterval),
		})
	}

	for lane := externalapi.Algorithm(0); lane < externalapi.NumberOfAlgorithms; lane++ {
		window := dm.LaneWindow(parent, lane)
		if uint64(len(window)) != params.DifficultyAdjustmentWindowSize+1 {
			t.Fatalf("TestLaneWindowAndRequiredDifficulty: expected a full %s window, got %d blocks",
				lane, len(window))
		}
		for i, node := range window {
			if node.Algorithm != lane {
				t.Fatalf("TestLaneWindowAndRequiredDifficulty: %s window contains a %s block", lane, node.Algorithm)
			}
			if i > 0 && node.Height >= window[i-1].Height {
				t.Fatalf("TestLaneWindowAndRequiredDifficulty: the window is not ordered newest first")
			}
		}
	}

	// Height 300 is a proof-of-stake slot
	required := dm.RequiredDifficulty(parent, 300)
	expected := dm.NextTarget(externalapi.AlgorithmProofOfStake, dm.LaneWindow(parent, externalapi.AlgorithmProofOfStake))
	if required != expected {
		t.Fatalf("TestLaneWindowAndRequiredDifficulty: expected %08x, got %08x", expected, required)
	}
}
