package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// HeaderSize is the size of a serialized block header
const HeaderSize = 80

// SerializeHeader writes the 80 byte wire encoding of header to w
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return WriteElements(w, header.Version, header.PrevBlockHash, header.MerkleRoot,
		header.Time, header.Bits, header.Nonce)
}

// HeaderToBytes returns the 80 byte wire encoding of header
func HeaderToBytes(header *externalapi.DomainBlockHeader) [HeaderSize]byte {
	var result [HeaderSize]byte
	buf := bytes.NewBuffer(result[:0])
	err := SerializeHeader(buf, header)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes should never fail"))
	}
	return result
}

// DeserializeHeader reads a block header from r
func DeserializeHeader(r io.Reader) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{}
	err := ReadElements(r, &header.Version, &header.PrevBlockHash, &header.MerkleRoot,
		&header.Time, &header.Bits, &header.Nonce)
	if err != nil {
		return nil, err
	}
	return header, nil
}
