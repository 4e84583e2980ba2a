package compactblock

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
)

// minPrefilledTransactionSize is the smallest a serialized prefilled
// transaction can be: a one byte index and a minimal transaction
const minPrefilledTransactionSize = 1 + 12

// Serialize writes the wire encoding of compactBlock to w: the header, the
// nonce, the varint prefixed prefilled transactions and the varint
// prefixed short IDs.
func Serialize(w io.Writer, compactBlock *externalapi.CompactBlock) error {
	err := serialization.SerializeHeader(w, compactBlock.Header)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, compactBlock.Nonce)
	if err != nil {
		return err
	}

	err = serialization.WriteVarInt(w, uint64(len(compactBlock.PrefilledTransactions)))
	if err != nil {
		return err
	}
	for _, prefilled := range compactBlock.PrefilledTransactions {
		err = serialization.WriteVarInt(w, prefilled.Index)
		if err != nil {
			return err
		}
		err = serialization.SerializeTransaction(w, prefilled.Transaction)
		if err != nil {
			return err
		}
	}

	err = serialization.WriteVarInt(w, uint64(len(compactBlock.ShortIDs)))
	if err != nil {
		return err
	}
	for _, shortID := range compactBlock.ShortIDs {
		_, err = w.Write(shortID[:])
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// ToBytes returns the wire encoding of compactBlock
func ToBytes(compactBlock *externalapi.CompactBlock) []byte {
	buf := &bytes.Buffer{}
	err := Serialize(buf, compactBlock)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes should never fail"))
	}
	return buf.Bytes()
}

// Deserialize reads a compact block from r. Malformed input is reported
// as ErrInvalidCompactBlock.
func Deserialize(r io.Reader) (*externalapi.CompactBlock, error) {
	compactBlock, err := deserialize(r)
	if err != nil {
		if serialization.IsMalformedError(err) {
			return nil, errors.Wrapf(ruleerrors.ErrInvalidCompactBlock, "malformed compact block: %s", err)
		}
		return nil, err
	}
	return compactBlock, nil
}

// FromBytes decodes the wire encoding of a compact block
func FromBytes(compactBlockBytes []byte) (*externalapi.CompactBlock, error) {
	reader := bytes.NewReader(compactBlockBytes)
	compactBlock, err := Deserialize(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidCompactBlock,
			"%d trailing bytes after the compact block", reader.Len())
	}
	return compactBlock, nil
}

func deserialize(r io.Reader) (*externalapi.CompactBlock, error) {
	header, err := serialization.DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	compactBlock := &externalapi.CompactBlock{Header: header}
	err = serialization.ReadElement(r, &compactBlock.Nonce)
	if err != nil {
		return nil, err
	}

	prefilledCount, err := serialization.ReadCount(r, "prefilled transactions", minPrefilledTransactionSize)
	if err != nil {
		return nil, err
	}
	compactBlock.PrefilledTransactions = make([]*externalapi.PrefilledTransaction, prefilledCount)
	for i := range compactBlock.PrefilledTransactions {
		index, err := serialization.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		transaction, err := serialization.DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
		compactBlock.PrefilledTransactions[i] = &externalapi.PrefilledTransaction{
			Index:       index,
			Transaction: transaction,
		}
	}

	shortIDCount, err := serialization.ReadCount(r, "short IDs", externalapi.ShortIDSize)
	if err != nil {
		return nil, err
	}
	compactBlock.ShortIDs = make([]externalapi.ShortID, shortIDCount)
	for i := range compactBlock.ShortIDs {
		_, err := io.ReadFull(r, compactBlock.ShortIDs[i][:])
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return compactBlock, nil
}
