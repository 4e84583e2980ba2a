package consensus

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/compactblock"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/processes/transactionvalidator"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"golang.org/x/sync/errgroup"
)

type consensus struct {
	lock   *sync.RWMutex
	params *chainconfig.Params

	blockIndex            model.BlockIndex
	blockStore            model.BlockStore
	blockBuilder          model.BlockBuilder
	blockValidator        model.BlockValidator
	chainManager          model.ChainManager
	difficultyManager     model.DifficultyManager
	finalityManager       model.FinalityManager
	pastMedianTimeManager model.PastMedianTimeManager
	stakeManager          model.StakeManager
	transactionValidator  model.TransactionValidator

	reconstructor        *compactblock.Reconstructor
	blockAdmissionFilter func(block *externalapi.DomainBlock) error
	interrupter          model.Interrupter
}

// ValidateAndConnect validates the given block and, if valid, connects it
// to the block index and possibly to the active chain
func (s *consensus) ValidateAndConnect(block *externalapi.DomainBlock) (*externalapi.ProcessResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if rejected := s.checkBlockAdmission(block); rejected != nil {
		return rejected, nil
	}

	result, err := s.chainManager.AddBlock(block, false)
	if err != nil {
		return nil, err
	}
	if result.Kind == externalapi.ProcessResultAccepted {
		s.reconstructor.Forget(result.BlockHash)
	}
	return result, nil
}

// checkBlockAdmission runs the block admission filter and returns the
// rejection result of a block it refuses
func (s *consensus) checkBlockAdmission(block *externalapi.DomainBlock) *externalapi.ProcessResult {
	if s.blockAdmissionFilter == nil {
		return nil
	}
	err := s.blockAdmissionFilter(block)
	if err == nil {
		return nil
	}
	blockHash := consensushashing.BlockHash(block)
	log.Debugf("Block %s was refused admission: %s", blockHash, err)
	return externalapi.NewRejectedResult(blockHash, err)
}

// PreValidateBlocks runs the checks that need no UTXO set on all blocks in
// parallel. Blocks with a known parent are checked in its context, the
// rest only against the height committed to in their coinbase.
func (s *consensus) PreValidateBlocks(blocks []*externalapi.DomainBlock) []error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	results := make([]error, len(blocks))
	group := errgroup.Group{}
	for i, block := range blocks {
		i, block := i, block
		group.Go(func() error {
			results[i] = s.preValidateBlock(block)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (s *consensus) preValidateBlock(block *externalapi.DomainBlock) error {
	parentIndex, ok := s.blockIndex.Lookup(&block.Header.PrevBlockHash)
	if ok {
		return s.blockValidator.ValidateBlockWithoutUTXO(block, parentIndex)
	}

	height := uint64(0)
	if len(block.Transactions) > 0 && transactionhelper.IsCoinBase(block.Transactions[0]) {
		committedHeight, err := transactionhelper.CoinbaseHeight(block.Transactions[0].Inputs[0].SignatureScript)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase of block %s does not "+
				"commit to a height: %s", consensushashing.BlockHash(block), err)
		}
		height = committedHeight
	}
	return s.blockValidator.ValidateBlockInIsolation(block, height)
}

// ValidateTransactionInContext validates a loose transaction as if it
// were included in the next block on top of the active tip, and returns
// its fee
func (s *consensus) ValidateTransactionInContext(transaction *externalapi.DomainTransaction) (uint64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	transactionID := consensushashing.TransactionID(transaction)
	if transactionhelper.IsCoinBase(transaction) || transactionhelper.IsCoinStake(transaction) {
		return 0, errors.Wrapf(ruleerrors.ErrBadTxInput, "transaction %s is only valid "+
			"at its place in a block", transactionID)
	}

	err := s.transactionValidator.ValidateTransactionInIsolation(transaction)
	if err != nil {
		return 0, err
	}

	tip := s.blockIndex.ActiveTip()
	povHeight := s.blockIndex.Node(tip).Height + 1
	medianTime := s.pastMedianTimeManager.PastMedianTime(tip)
	if !transactionvalidator.IsFinalizedTransaction(transaction, povHeight, medianTime) {
		return 0, errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "transaction %s is not finalized "+
			"at height %d", transactionID, povHeight)
	}

	utxoSet := s.chainManager.UTXOSet()
	fee, err := s.transactionValidator.ValidateTransactionInContext(transaction, utxoSet, povHeight, false)
	if err != nil {
		return 0, err
	}

	err = s.transactionValidator.ValidateTransactionScripts(transaction, utxoSet)
	if err != nil {
		return 0, err
	}
	return fee, nil
}

// BuildBlock builds an unsolved block on top of the active tip
func (s *consensus) BuildBlock(coinbaseScript []byte, transactions []*externalapi.DomainTransaction,
	coinstake *externalapi.DomainTransaction, blockTime uint32) (*externalapi.DomainBlock, error) {

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blockBuilder.BuildBlock(coinbaseScript, transactions, coinstake, blockTime)
}

// GetFinalityStatus returns the finality status of the given block
func (s *consensus) GetFinalityStatus(blockHash *externalapi.DomainHash) (externalapi.FinalityStatus, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	index, ok := s.blockIndex.Lookup(blockHash)
	if !ok {
		return externalapi.FinalityPending, errors.Errorf("block %s does not exist", blockHash)
	}
	return s.finalityManager.FinalityStatus(index), nil
}

// IsStakeEligible returns whether an output of amount held for age may
// be staked
func (s *consensus) IsStakeEligible(address []byte, amount uint64, age time.Duration) bool {
	return s.stakeManager.IsStakeEligible(address, amount, age)
}

// GetNextDifficulty returns the compact target of the next block of the
// given lane on top of the active tip
func (s *consensus) GetNextDifficulty(lane externalapi.Algorithm) (uint32, error) {
	if !lane.IsValid() {
		return 0, errors.Errorf("unknown difficulty lane %s", lane)
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	window := s.difficultyManager.LaneWindow(s.blockIndex.ActiveTip(), lane)
	return s.difficultyManager.NextTarget(lane, window), nil
}

// ReconstructBlock rebuilds the block of compactBlock from pool and, if it
// is complete, connects it
func (s *consensus) ReconstructBlock(compactBlock *externalapi.CompactBlock,
	pool []*externalapi.DomainTransaction) (*externalapi.ProcessResult, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	partial, err := s.reconstructor.Reconstruct(compactBlock, pool)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			var blockHash *externalapi.DomainHash
			if compactBlock.Header != nil {
				blockHash = consensushashing.HeaderHash(compactBlock.Header)
			}
			return externalapi.NewRejectedResult(blockHash, err), nil
		}
		return nil, err
	}

	if !partial.IsComplete() {
		log.Debugf("Compact block %s is missing %d transactions", partial.BlockHash(), len(partial.MissingIndexes()))
		return externalapi.NewMissingTransactionsResult(partial.BlockHash(), partial.MissingIndexes()), nil
	}
	return s.connectReconstructedBlock(partial)
}

// FillMissing supplies the transactions a previous ReconstructBlock call
// reported missing, ordered like the reported indexes
func (s *consensus) FillMissing(blockHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*externalapi.ProcessResult, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	partial, err := s.reconstructor.FillMissing(blockHash, transactions)
	if err != nil {
		if !ruleerrors.IsRuleError(err) {
			return nil, err
		}
		if partial == nil {
			return externalapi.NewRejectedResult(blockHash, err), nil
		}
		result := externalapi.NewMissingTransactionsResult(blockHash, partial.MissingIndexes())
		result.RejectReason = err
		return result, nil
	}
	return s.connectReconstructedBlock(partial)
}

func (s *consensus) connectReconstructedBlock(partial *compactblock.PartialBlock) (*externalapi.ProcessResult, error) {
	block, err := partial.Block()
	if err != nil {
		return nil, err
	}

	if rejected := s.checkBlockAdmission(block); rejected != nil {
		rejected.Block = block
		return rejected, nil
	}

	result, err := s.chainManager.AddBlock(block, false)
	if err != nil {
		return nil, err
	}
	if result.Kind == externalapi.ProcessResultAccepted {
		s.reconstructor.Forget(result.BlockHash)
	}
	if result.Kind == externalapi.ProcessResultRejected && !errors.Is(result.RejectReason, ruleerrors.ErrDuplicateBlock) {
		result.RejectReason = errors.Wrapf(ruleerrors.ErrCheckBlockFailed, "reconstructed block %s: %s",
			result.BlockHash, result.RejectReason)
	}
	result.Block = block
	return result, nil
}

// GetChainTip returns the block info of the active tip
func (s *consensus) GetChainTip() (*externalapi.BlockInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blockInfo(s.blockIndex.ActiveTip()), nil
}

// GetBlockByHash returns the stored block with the given hash
func (s *consensus) GetBlockByHash(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blockStore.Block(blockHash)
}

// GetBlockInfo returns the block info of the given block. Unknown blocks
// get an info with Exists set to false.
func (s *consensus) GetBlockInfo(blockHash *externalapi.DomainHash) (*externalapi.BlockInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	index, ok := s.blockIndex.Lookup(blockHash)
	if !ok {
		return &externalapi.BlockInfo{Exists: false, Hash: blockHash}, nil
	}
	return s.blockInfo(index), nil
}

func (s *consensus) blockInfo(index model.NodeIndex) *externalapi.BlockInfo {
	node := s.blockIndex.Node(index)

	status := node.Status
	if status == externalapi.StatusValid {
		if index == s.blockIndex.ActiveTip() {
			status = externalapi.StatusActiveTip
		} else if !s.blockIndex.IsInActiveChain(index) {
			status = externalapi.StatusStale
		}
	}

	return &externalapi.BlockInfo{
		Exists:    true,
		Hash:      node.Hash,
		Height:    node.Height,
		Status:    status,
		BlockType: node.BlockType(),
		Algorithm: node.Algorithm,
		Work:      node.Work,
		Finality:  s.finalityManager.FinalityStatus(index),
	}
}

// GetUTXOEntry returns the entry of the given outpoint in the UTXO set of
// the active chain
func (s *consensus) GetUTXOEntry(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.chainManager.UTXOSet().Get(outpoint)
}

// GetActiveChainHashes returns the hashes of the active chain from the
// genesis to the tip
func (s *consensus) GetActiveChainHashes() ([]*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	tipHeight := s.blockIndex.Node(s.blockIndex.ActiveTip()).Height
	hashes := make([]*externalapi.DomainHash, 0, tipHeight+1)
	for height := uint64(0); height <= tipHeight; height++ {
		index, ok := s.blockIndex.ActiveChainAt(height)
		if !ok {
			return nil, errors.Errorf("active chain has no block at height %d", height)
		}
		hashes = append(hashes, s.blockIndex.Node(index).Hash)
	}
	return hashes, nil
}
