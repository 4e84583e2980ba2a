package mining

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
)

// SolveBlock increments the given block's nonce until it matches the
// difficulty requirements of its Bits field under the given algorithm
func SolveBlock(block *externalapi.DomainBlock, algorithm externalapi.Algorithm, rd *rand.Rand) {
	start := rd.Uint32()
	for i := uint64(0); i <= math.MaxUint32; i++ {
		block.Header.Nonce = start + uint32(i)
		if pow.CheckProofOfWorkByBits(block.Header, algorithm) {
			return
		}
	}

	panic(errors.New("went over all the nonce space and couldn't find a single one that gives a valid block"))
}
