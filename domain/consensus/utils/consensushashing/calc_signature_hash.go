package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint8

// SigHashAll is the only supported hash type: it commits to every input and
// output of the transaction.
const SigHashAll SigHashType = 0x1

// CalculateSignatureHash will, given the locking script of the output being
// spent, calculate the signature hash to be used for signing and verifying
// the idx'th input of tx.
func CalculateSignatureHash(tx *externalapi.DomainTransaction, idx int, lockingScript []byte,
	hashType SigHashType) (*externalapi.DomainHash, error) {

	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, errors.Errorf("input index %d is out of range for a transaction "+
			"with %d inputs", idx, len(tx.Inputs))
	}
	if hashType != SigHashAll {
		return nil, errors.Errorf("unsupported signature hash type 0x%x", hashType)
	}

	// Make a shallow copy of the transaction, replacing the script of the
	// input being signed by the locking script and emptying all others.
	txCopy := shallowCopyTx(tx)
	for i := range txCopy.Inputs {
		if i == idx {
			txCopy.Inputs[i].SignatureScript = lockingScript
		} else {
			txCopy.Inputs[i].SignatureScript = nil
		}
	}

	writer := hashes.NewHashWriter()
	err := serialization.SerializeTransaction(writer, txCopy)
	if err != nil {
		return nil, err
	}
	writer.InfallibleWrite([]byte{byte(hashType)})
	return writer.Finalize(), nil
}

// shallowCopyTx creates a shallow copy of the transaction for use when
// calculating the signature hash. It is used over the Copy method on the
// transaction itself since that is a deep copy and therefore does more work
// and allocates much more space than needed.
func shallowCopyTx(tx *externalapi.DomainTransaction) *externalapi.DomainTransaction {
	// As an additional memory optimization, use contiguous backing arrays
	// for the copied inputs and outputs and point the final slice of
	// pointers into the contiguous arrays. This avoids a lot of small
	// allocations.
	txCopy := &externalapi.DomainTransaction{
		Version:  tx.Version,
		Inputs:   make([]*externalapi.DomainTransactionInput, len(tx.Inputs)),
		Outputs:  tx.Outputs,
		LockTime: tx.LockTime,
	}
	txIns := make([]externalapi.DomainTransactionInput, len(tx.Inputs))
	for i, oldTxIn := range tx.Inputs {
		txIns[i] = *oldTxIn
		txCopy.Inputs[i] = &txIns[i]
	}
	return txCopy
}
