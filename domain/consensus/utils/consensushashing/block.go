package consensushashing

import (
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
)

// BlockHash returns the given block's hash
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash returns the given header's hash. Blocks are identified by the
// double SHA-256 of their serialized header, regardless of the algorithm
// they were mined with.
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	headerBytes := serialization.HeaderToBytes(header)
	return hashes.DoubleSHA256(headerBytes[:])
}
