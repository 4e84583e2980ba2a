package chainmanager

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/utxo"
)

// ErrMissingUndoData indicates that the UTXO diff of an active chain block
// could neither be found in memory nor rebuilt from the block store
var ErrMissingUndoData = errors.New("missing undo data")

// spentOutputs is a UTXO view holding only the outputs a single block spends
type spentOutputs map[externalapi.DomainOutpoint]externalapi.UTXOEntry

func (so spentOutputs) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	entry, ok := so[*outpoint]
	return entry, ok
}

// undoDataFor returns the diff the active chain block at index applied on
// top of its parent. Pruned diffs are rebuilt from the block store, since a
// reorganization onto a shorter chain lowers the active tip and brings
// blocks pruned under the higher tip back within reach.
func (cm *chainManager) undoDataFor(index model.NodeIndex) (*utxo.Diff, error) {
	if undo, ok := cm.undoData[index]; ok {
		return undo, nil
	}

	node := cm.blockIndex.Node(index)
	log.Debugf("Rebuilding the undo data of block %s at height %d", node.Hash, node.Height)

	block, err := cm.blockStore.Block(node.Hash)
	if err != nil {
		return nil, err
	}

	createdInBlock := make(map[externalapi.DomainTransactionID]struct{}, len(block.Transactions))
	for _, transaction := range block.Transactions {
		createdInBlock[*consensushashing.TransactionID(transaction)] = struct{}{}
	}
	needed := make(map[externalapi.DomainOutpoint]struct{})
	for _, transaction := range block.Transactions {
		if transactionhelper.IsCoinBase(transaction) {
			continue
		}
		for _, input := range transaction.Inputs {
			if _, ok := createdInBlock[input.PreviousOutpoint.TransactionID]; ok {
				continue
			}
			needed[input.PreviousOutpoint] = struct{}{}
		}
	}

	spent, err := cm.findSpentOutputs(node.Parent, needed)
	if err != nil {
		return nil, err
	}
	if len(spent) != len(needed) {
		return nil, errors.Wrapf(ErrMissingUndoData, "only %d of the %d outputs spent by block %s "+
			"were found in its ancestors", len(spent), len(needed), node.Hash)
	}

	undo := utxo.NewDiff()
	for _, transaction := range block.Transactions {
		err := undo.AddTransaction(spent, transaction, node.Height, block.Header.Time)
		if err != nil {
			return nil, errors.Wrapf(ErrMissingUndoData, "rebuilding the undo data of block %s: %s",
				node.Hash, err)
		}
	}
	cm.undoData[index] = undo
	return undo, nil
}

// findSpentOutputs walks the chain down from index and collects the UTXO
// entries of the needed outpoints as they were when created. The genesis
// outputs are never spendable so the walk stops above genesis.
func (cm *chainManager) findSpentOutputs(index model.NodeIndex,
	needed map[externalapi.DomainOutpoint]struct{}) (spentOutputs, error) {

	spent := make(spentOutputs, len(needed))
	for current := index; len(spent) < len(needed); {
		node := cm.blockIndex.Node(current)
		if node.Parent == model.NoParent {
			break
		}

		block, err := cm.blockStore.Block(node.Hash)
		if err != nil {
			return nil, err
		}
		for _, transaction := range block.Transactions {
			transactionID := consensushashing.TransactionID(transaction)
			isCoinbase := transactionhelper.IsCoinBase(transaction)
			isCoinstake := transactionhelper.IsCoinStake(transaction)
			for i, output := range transaction.Outputs {
				outpoint := externalapi.DomainOutpoint{TransactionID: *transactionID, Index: uint32(i)}
				if _, ok := needed[outpoint]; !ok {
					continue
				}
				spent[outpoint] = utxo.NewUTXOEntry(output.Value, output.ScriptPublicKey, node.Height,
					block.Header.Time, isCoinbase, isCoinstake)
			}
		}
		current = node.Parent
	}
	return spent, nil
}
