package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// minTransactionSize is the smallest a serialized transaction can be
const minTransactionSize = 2 + 1 + 1 + 8

// SerializeBlock writes the wire encoding of block to w: the header, a
// varint transaction count and the transactions.
func SerializeBlock(w io.Writer, block *externalapi.DomainBlock) error {
	err := SerializeHeader(w, block.Header)
	if err != nil {
		return err
	}
	err = WriteVarInt(w, uint64(len(block.Transactions)))
	if err != nil {
		return err
	}
	for _, transaction := range block.Transactions {
		err = SerializeTransaction(w, transaction)
		if err != nil {
			return err
		}
	}
	return nil
}

// BlockToBytes returns the wire encoding of block
func BlockToBytes(block *externalapi.DomainBlock) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, BlockSerializeSize(block)))
	err := SerializeBlock(buf, block)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes should never fail"))
	}
	return buf.Bytes()
}

// DeserializeBlock reads a block from r
func DeserializeBlock(r io.Reader) (*externalapi.DomainBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	transactionCount, err := ReadCount(r, "transactions", minTransactionSize)
	if err != nil {
		return nil, err
	}
	transactions := make([]*externalapi.DomainTransaction, transactionCount)
	for i := range transactions {
		transactions[i], err = DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
	}
	return &externalapi.DomainBlock{
		Header:       header,
		Transactions: transactions,
	}, nil
}

// BlockFromBytes decodes a block and fails if bytes remain after it
func BlockFromBytes(blockBytes []byte) (*externalapi.DomainBlock, error) {
	reader := bytes.NewReader(blockBytes)
	block, err := DeserializeBlock(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.Wrapf(errMalformed, "%d trailing bytes after block", reader.Len())
	}
	return block, nil
}

// BlockSerializeSize returns the number of bytes it would take to serialize
// the block
func BlockSerializeSize(block *externalapi.DomainBlock) int {
	size := HeaderSize + VarIntSerializeSize(uint64(len(block.Transactions)))
	for _, transaction := range block.Transactions {
		size += TransactionSerializeSize(transaction)
	}
	return size
}
