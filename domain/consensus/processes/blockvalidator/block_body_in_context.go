package blockvalidator

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/infrastructure/logger"
	"golang.org/x/sync/errgroup"
)

// ValidateBlockUTXO validates the block's transactions against utxoView,
// the UTXO set of the active chain at parent, and the stake kernel of
// proof-of-stake blocks. It does not modify utxoView.
func (v *blockValidator) ValidateBlockUTXO(block *externalapi.DomainBlock, parent model.NodeIndex,
	utxoView model.UTXOView, isTrusted bool) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBlockUTXO")
	defer onEnd()

	parentNode := v.blockIndex.Node(parent)
	height := parentNode.Height + 1

	totalFees, minted, err := v.checkTransactionsInContext(block, utxoView, height)
	if err != nil {
		return err
	}

	err = v.checkCoinbaseValue(block, height, totalFees, minted)
	if err != nil {
		return err
	}

	err = v.checkTransactionScripts(block, utxoView)
	if err != nil {
		return err
	}

	return v.checkStakeKernel(block, parentNode, height, utxoView, isTrusted)
}

// checkTransactionsInContext returns the total fees the block collects and
// the amount its coinstake mints
func (v *blockValidator) checkTransactionsInContext(block *externalapi.DomainBlock, utxoView model.UTXOView,
	height uint64) (totalFees uint64, minted uint64, err error) {

	for i, tx := range block.Transactions {
		if i == coinbaseTransactionIndex {
			continue
		}

		isCoinstake := i == coinstakeTransactionIndex && transactionhelper.IsCoinStake(tx)
		fee, err := v.transactionValidator.ValidateTransactionInContext(tx, utxoView, height, isCoinstake)
		if err != nil {
			return 0, 0, err
		}

		if isCoinstake {
			minted = v.coinstakeMinted(tx, utxoView)
			continue
		}

		newTotalFees := totalFees + fee
		if newTotalFees < totalFees {
			return 0, 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total fees of the block overflow")
		}
		totalFees = newTotalFees
	}
	return totalFees, minted, nil
}

// coinstakeMinted returns how much more the coinstake pays out than it
// spends. Its inputs must have been resolved against utxoView already.
func (v *blockValidator) coinstakeMinted(coinstake *externalapi.DomainTransaction, utxoView model.UTXOView) uint64 {
	totalIn := uint64(0)
	for _, input := range coinstake.Inputs {
		entry, ok := utxoView.Get(&input.PreviousOutpoint)
		if !ok {
			panic(errors.Errorf("coinstake input %s was resolved but is missing", input.PreviousOutpoint))
		}
		totalIn += entry.Amount()
	}

	totalOut := uint64(0)
	for _, output := range coinstake.Outputs {
		totalOut += output.Value
	}

	if totalOut <= totalIn {
		return 0
	}
	return totalOut - totalIn
}

// BlockSubsidy returns the subsidy amount a block at the provided height
// should have. This is mainly used for determining how much the coinbase for
// newly generated blocks awards as well as validating the coinbase for blocks
// has the expected value.
//
// The subsidy is halved every SubsidyReductionInterval blocks. Mathematically
// this is: baseSubsidy / 2^(height/SubsidyReductionInterval)
func (v *blockValidator) BlockSubsidy(height uint64) uint64 {
	if v.subsidyReductionInterval == 0 {
		return v.baseSubsidy
	}

	halvings := height / v.subsidyReductionInterval
	if halvings >= 64 {
		return 0
	}
	return v.baseSubsidy >> halvings
}

func (v *blockValidator) checkCoinbaseValue(block *externalapi.DomainBlock, height uint64,
	totalFees uint64, minted uint64) error {

	reward := minted
	for _, output := range block.Transactions[coinbaseTransactionIndex].Outputs {
		reward += output.Value
	}

	allowed := v.BlockSubsidy(height) + totalFees
	if reward > allowed {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseValue, "block at height %d pays out %d, "+
			"but its subsidy and fees are only %d", height, reward, allowed)
	}
	return nil
}

// checkTransactionScripts verifies the scripts of all transactions in
// parallel
func (v *blockValidator) checkTransactionScripts(block *externalapi.DomainBlock, utxoView model.UTXOView) error {
	group := errgroup.Group{}
	group.SetLimit(runtime.NumCPU())
	for _, tx := range block.Transactions[coinbaseTransactionIndex+1:] {
		tx := tx
		group.Go(func() error {
			return v.transactionValidator.ValidateTransactionScripts(tx, utxoView)
		})
	}
	return group.Wait()
}

func (v *blockValidator) checkStakeKernel(block *externalapi.DomainBlock, parentNode *model.BlockNode,
	height uint64, utxoView model.UTXOView, isTrusted bool) error {

	if v.skipPoW || !pow.IsProofOfStakeHeight(height, v.posInterval) {
		return nil
	}

	stakeInput, err := v.stakeManager.StakeInputFromCoinstake(block.Transactions[coinstakeTransactionIndex], utxoView)
	if err != nil {
		return err
	}

	header := block.Header
	if !v.stakeManager.CheckKernel(stakeInput, parentNode.StakeModifier, header.Time, header.Bits,
		v.timeSource.Now(), isTrusted) {

		return errors.Wrapf(ruleerrors.ErrKernelCheckFailed, "stake kernel of block at height %d "+
			"does not meet its target", height)
	}
	return nil
}
