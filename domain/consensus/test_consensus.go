package consensus

import (
	"math/rand"
	"sync/atomic"

	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/model/testapi"
	"github.com/tetranet/tetrad/domain/consensus/processes/blockbuilder"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/mining"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
)

type testInterrupter struct {
	interrupted atomic.Bool
}

func (ti *testInterrupter) Interrupted() bool {
	return ti.interrupted.Load()
}

type testConsensus struct {
	*consensus
	interrupter *testInterrupter
	rd          *rand.Rand
}

func (tc *testConsensus) Params() *chainconfig.Params {
	return tc.params
}

func (tc *testConsensus) BuildBlockOnParent(parentHash *externalapi.DomainHash, coinbaseScript []byte,
	transactions []*externalapi.DomainTransaction, coinstake *externalapi.DomainTransaction,
	blockTime uint32) (*externalapi.DomainBlock, error) {

	// The write lock also guards rd
	tc.lock.Lock()
	defer tc.lock.Unlock()

	block, err := tc.BlockBuilder().BuildBlockOnParent(parentHash, coinbaseScript, transactions, coinstake, blockTime)
	if err != nil {
		return nil, err
	}

	parent, _ := tc.blockIndex.Lookup(parentHash)
	algorithm := pow.SelectAlgorithm(tc.blockIndex.Node(parent).Height+1, tc.params.PosInterval)
	if !tc.params.SkipProofOfWork && algorithm != externalapi.AlgorithmProofOfStake {
		mining.SolveBlock(block, algorithm, tc.rd)
	}
	return block, nil
}

func (tc *testConsensus) AddBlock(parentHash *externalapi.DomainHash, coinbaseScript []byte,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, *externalapi.ProcessResult, error) {

	block, err := tc.BuildBlockOnParent(parentHash, coinbaseScript, transactions, nil, 0)
	if err != nil {
		return nil, nil, err
	}

	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		return nil, nil, err
	}
	return consensushashing.BlockHash(block), result, nil
}

func (tc *testConsensus) SetInterrupted(interrupted bool) {
	tc.interrupter.interrupted.Store(interrupted)
}

func (tc *testConsensus) BlockIndex() model.BlockIndex {
	return tc.blockIndex
}

func (tc *testConsensus) BlockStore() model.BlockStore {
	return tc.blockStore
}

func (tc *testConsensus) BlockBuilder() testapi.TestBlockBuilder {
	return blockbuilder.NewTestBlockBuilder(tc.blockBuilder)
}

func (tc *testConsensus) BlockValidator() model.BlockValidator {
	return tc.blockValidator
}

func (tc *testConsensus) ChainManager() model.ChainManager {
	return tc.chainManager
}

func (tc *testConsensus) DifficultyManager() model.DifficultyManager {
	return tc.difficultyManager
}

func (tc *testConsensus) FinalityManager() model.FinalityManager {
	return tc.finalityManager
}

func (tc *testConsensus) PastMedianTimeManager() model.PastMedianTimeManager {
	return tc.pastMedianTimeManager
}

func (tc *testConsensus) StakeManager() model.StakeManager {
	return tc.stakeManager
}

func (tc *testConsensus) TransactionValidator() model.TransactionValidator {
	return tc.transactionValidator
}
