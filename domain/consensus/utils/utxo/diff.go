package utxo

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

// Diff is the change connecting a block makes to a UTXO set. Entries in
// ToRemove keep the full spent entry so that the diff can be inverted to
// disconnect the block.
type Diff struct {
	ToAdd    map[externalapi.DomainOutpoint]externalapi.UTXOEntry
	ToRemove map[externalapi.DomainOutpoint]externalapi.UTXOEntry
}

// NewDiff returns an empty diff
func NewDiff() *Diff {
	return &Diff{
		ToAdd:    make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry),
		ToRemove: make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry),
	}
}

// Inverse returns a diff undoing d
func (d *Diff) Inverse() *Diff {
	return &Diff{
		ToAdd:    d.ToRemove,
		ToRemove: d.ToAdd,
	}
}

// Get returns the entry of outpoint as seen through the diff on top of base
func (d *Diff) Get(base model.UTXOView, outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	if entry, ok := d.ToAdd[*outpoint]; ok {
		return entry, true
	}
	if _, ok := d.ToRemove[*outpoint]; ok {
		return nil, false
	}
	return base.Get(outpoint)
}

// AddTransaction records the effect of tx on top of base: its inputs are
// spent and its spendable outputs are added. An output created and spent
// within the same diff cancels out.
func (d *Diff) AddTransaction(base model.UTXOView, tx *externalapi.DomainTransaction,
	blockHeight uint64, blockTime uint32) error {

	isCoinbase := transactionhelper.IsCoinBase(tx)
	if !isCoinbase {
		for _, input := range tx.Inputs {
			outpoint := input.PreviousOutpoint
			if _, ok := d.ToAdd[outpoint]; ok {
				delete(d.ToAdd, outpoint)
				continue
			}
			entry, ok := base.Get(&outpoint)
			if !ok {
				return errors.Errorf("outpoint %s is not in the UTXO set", outpoint)
			}
			d.ToRemove[outpoint] = entry
		}
	}

	isCoinstake := transactionhelper.IsCoinStake(tx)
	txID := consensushashing.TransactionID(tx)
	for i, output := range tx.Outputs {
		if txscript.IsUnspendable(output.ScriptPublicKey) || (isCoinstake && i == 0) {
			continue
		}
		outpoint := externalapi.DomainOutpoint{TransactionID: *txID, Index: uint32(i)}
		d.ToAdd[outpoint] = NewUTXOEntry(output.Value, output.ScriptPublicKey, blockHeight, blockTime,
			isCoinbase, isCoinstake)
	}
	return nil
}
