package chainmanager

import (
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
	"github.com/tetranet/tetrad/domain/consensus/utils/utxo"
)

// chainManager keeps the active chain and its UTXO set pointing at the
// valid chain with the most cumulative work. It is not safe for concurrent
// use: the consensus lock serializes all calls.
type chainManager struct {
	maxReorgDepth uint64
	posInterval   uint64

	blockIndex      model.BlockIndex
	blockStore      model.BlockStore
	blockValidator  model.BlockValidator
	stakeManager    model.StakeManager
	finalityManager model.FinalityManager
	interrupter     model.Interrupter

	utxoSet *utxo.Set

	// undoData holds the UTXO diff every active chain block applied on top
	// of its parent. Entries deeper than maxReorgDepth below the active
	// tip are pruned and rebuilt from the block store if a later reorg
	// onto a shorter chain reaches them.
	undoData map[model.NodeIndex]*utxo.Diff
}

// New instantiates a new ChainManager whose active chain holds only the
// given genesis block. The genesis block is stored if the block store does
// not have it yet. Its coinbase outputs are never added to the UTXO set.
func New(
	maxReorgDepth uint64,
	posInterval uint64,
	genesisBlock *externalapi.DomainBlock,
	blockIndex model.BlockIndex,
	blockStore model.BlockStore,
	blockValidator model.BlockValidator,
	stakeManager model.StakeManager,
	finalityManager model.FinalityManager,
	interrupter model.Interrupter) (model.ChainManager, error) {

	cm := &chainManager{
		maxReorgDepth: maxReorgDepth,
		posInterval:   posInterval,

		blockIndex:      blockIndex,
		blockStore:      blockStore,
		blockValidator:  blockValidator,
		stakeManager:    stakeManager,
		finalityManager: finalityManager,
		interrupter:     interrupter,

		utxoSet:  utxo.NewSet(),
		undoData: make(map[model.NodeIndex]*utxo.Diff),
	}

	err := cm.insertGenesis(genesisBlock)
	if err != nil {
		return nil, err
	}
	return cm, nil
}

func (cm *chainManager) insertGenesis(genesisBlock *externalapi.DomainBlock) error {
	genesisHash := consensushashing.BlockHash(genesisBlock)
	genesisNode := &model.BlockNode{
		Hash:          genesisHash,
		Parent:        model.NoParent,
		Height:        0,
		Header:        genesisBlock.Header,
		Work:          math.CalcWork(genesisBlock.Header.Bits),
		Algorithm:     pow.SelectAlgorithm(0, cm.posInterval),
		Status:        externalapi.StatusValid,
		StakeModifier: &externalapi.DomainHash{},
		Sequence:      cm.blockIndex.NextSequence(),
	}
	genesisIndex := cm.blockIndex.Insert(genesisNode)
	cm.blockIndex.SetActiveTip(genesisIndex)

	hasGenesis, err := cm.blockStore.HasBlock(genesisHash)
	if err != nil {
		return err
	}
	if hasGenesis {
		return nil
	}

	log.Debugf("Storing genesis block %s", genesisHash)
	cm.blockStore.Stage(genesisHash, genesisBlock)
	return cm.blockStore.Commit()
}

// UTXOSet returns the UTXO set of the active tip
func (cm *chainManager) UTXOSet() model.UTXOView {
	return cm.utxoSet
}

func (cm *chainManager) isInterrupted() bool {
	return cm.interrupter != nil && cm.interrupter.Interrupted()
}
