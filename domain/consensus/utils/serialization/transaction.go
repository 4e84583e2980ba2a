package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

const (
	// minTxInputSize is the smallest a serialized input can be: the
	// outpoint, an empty script and the sequence.
	minTxInputSize = externalapi.DomainHashSize + 4 + 1 + 8

	// minTxOutputSize is the smallest a serialized output can be: the
	// value and an empty script.
	minTxOutputSize = 8 + 1
)

// SerializeTransaction writes the wire encoding of transaction to w
func SerializeTransaction(w io.Writer, transaction *externalapi.DomainTransaction) error {
	err := WriteElement(w, transaction.Version)
	if err != nil {
		return err
	}

	err = WriteVarInt(w, uint64(len(transaction.Inputs)))
	if err != nil {
		return err
	}
	for _, input := range transaction.Inputs {
		err = WriteElements(w, input.PreviousOutpoint.TransactionID, input.PreviousOutpoint.Index)
		if err != nil {
			return err
		}
		err = WriteVarBytes(w, input.SignatureScript)
		if err != nil {
			return err
		}
		err = WriteElement(w, input.Sequence)
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, uint64(len(transaction.Outputs)))
	if err != nil {
		return err
	}
	for _, output := range transaction.Outputs {
		err = WriteElement(w, output.Value)
		if err != nil {
			return err
		}
		err = WriteVarBytes(w, output.ScriptPublicKey)
		if err != nil {
			return err
		}
	}

	return WriteElement(w, transaction.LockTime)
}

// TransactionToBytes returns the wire encoding of transaction
func TransactionToBytes(transaction *externalapi.DomainTransaction) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, TransactionSerializeSize(transaction)))
	err := SerializeTransaction(buf, transaction)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes should never fail"))
	}
	return buf.Bytes()
}

// DeserializeTransaction reads a transaction from r
func DeserializeTransaction(r io.Reader) (*externalapi.DomainTransaction, error) {
	transaction := &externalapi.DomainTransaction{}
	err := ReadElement(r, &transaction.Version)
	if err != nil {
		return nil, err
	}

	inputCount, err := ReadCount(r, "transaction inputs", minTxInputSize)
	if err != nil {
		return nil, err
	}
	transaction.Inputs = make([]*externalapi.DomainTransactionInput, inputCount)
	for i := range transaction.Inputs {
		input := &externalapi.DomainTransactionInput{}
		err = ReadElements(r, &input.PreviousOutpoint.TransactionID, &input.PreviousOutpoint.Index)
		if err != nil {
			return nil, err
		}
		input.SignatureScript, err = ReadVarBytes(r, "signature script")
		if err != nil {
			return nil, err
		}
		err = ReadElement(r, &input.Sequence)
		if err != nil {
			return nil, err
		}
		transaction.Inputs[i] = input
	}

	outputCount, err := ReadCount(r, "transaction outputs", minTxOutputSize)
	if err != nil {
		return nil, err
	}
	transaction.Outputs = make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := range transaction.Outputs {
		output := &externalapi.DomainTransactionOutput{}
		err = ReadElement(r, &output.Value)
		if err != nil {
			return nil, err
		}
		output.ScriptPublicKey, err = ReadVarBytes(r, "script public key")
		if err != nil {
			return nil, err
		}
		transaction.Outputs[i] = output
	}

	err = ReadElement(r, &transaction.LockTime)
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// TransactionSerializeSize returns the number of bytes it would take to
// serialize the transaction
func TransactionSerializeSize(transaction *externalapi.DomainTransaction) int {
	size := 2 + VarIntSerializeSize(uint64(len(transaction.Inputs)))
	for _, input := range transaction.Inputs {
		size += externalapi.DomainHashSize + 4 +
			VarIntSerializeSize(uint64(len(input.SignatureScript))) + len(input.SignatureScript) + 8
	}
	size += VarIntSerializeSize(uint64(len(transaction.Outputs)))
	for _, output := range transaction.Outputs {
		size += 8 + VarIntSerializeSize(uint64(len(output.ScriptPublicKey))) + len(output.ScriptPublicKey)
	}
	return size + 8
}
