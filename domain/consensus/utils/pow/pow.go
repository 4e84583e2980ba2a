package pow

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes/groestl"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"golang.org/x/crypto/scrypt"
)

// Scrypt parameters of the Litecoin construction
const (
	scryptN      = 1024
	scryptR      = 1
	scryptP      = 1
	scryptKeyLen = externalapi.DomainHashSize
)

// powAlgorithms is the proof-of-work rotation by height
var powAlgorithms = [...]externalapi.Algorithm{
	externalapi.AlgorithmSHA256d,
	externalapi.AlgorithmScrypt,
	externalapi.AlgorithmGroestl,
}

// SelectAlgorithm returns the algorithm a block at the given height must
// use. Every posInterval-th height is a proof-of-stake slot. A posInterval
// of zero disables proof-of-stake slots.
func SelectAlgorithm(height uint64, posInterval uint64) externalapi.Algorithm {
	if IsProofOfStakeHeight(height, posInterval) {
		return externalapi.AlgorithmProofOfStake
	}
	return powAlgorithms[height%uint64(len(powAlgorithms))]
}

// IsProofOfStakeHeight returns whether height is a proof-of-stake slot
func IsProofOfStakeHeight(height uint64, posInterval uint64) bool {
	return posInterval > 0 && height > 0 && height%posInterval == 0
}

// BlockTypeForHeight returns the block type a block at the given height has
func BlockTypeForHeight(height uint64, posInterval uint64) externalapi.BlockType {
	return SelectAlgorithm(height, posInterval).BlockType()
}

// Hash returns the proof-of-work hash of the serialized header under the
// given algorithm. Proof-of-stake slots hash with double SHA-256.
func Hash(headerBytes [serialization.HeaderSize]byte, algorithm externalapi.Algorithm) *externalapi.DomainHash {
	switch algorithm {
	case externalapi.AlgorithmSHA256d, externalapi.AlgorithmProofOfStake:
		return hashes.DoubleSHA256(headerBytes[:])

	case externalapi.AlgorithmScrypt:
		key, err := scrypt.Key(headerBytes[:], headerBytes[:], scryptN, scryptR, scryptP, scryptKeyLen)
		if err != nil {
			panic(errors.Wrap(err, "this should never happen. scrypt parameters are constant and valid"))
		}
		hash, err := externalapi.NewDomainHashFromByteSlice(key)
		if err != nil {
			panic(err)
		}
		return hash

	case externalapi.AlgorithmGroestl:
		first := groestl.Sum512(headerBytes[:])
		second := groestl.Sum512(first[:])
		var truncated [externalapi.DomainHashSize]byte
		copy(truncated[:], second[:externalapi.DomainHashSize])
		return externalapi.NewDomainHashFromByteArray(&truncated)
	}

	panic(errors.Errorf("unknown algorithm %d", algorithm))
}

// HeaderHash returns the proof-of-work hash of header under the given algorithm
func HeaderHash(header *externalapi.DomainBlockHeader, algorithm externalapi.Algorithm) *externalapi.DomainHash {
	return Hash(serialization.HeaderToBytes(header), algorithm)
}

// CheckProofOfWorkWithTarget check's if the block has a valid PoW according to the provided target
// it does not check if the difficulty itself is valid or less than the maximum for the appropriate network
func CheckProofOfWorkWithTarget(header *externalapi.DomainBlockHeader, algorithm externalapi.Algorithm,
	target *big.Int) bool {

	// The block pow must be less or equal than the claimed target.
	return hashes.ToBig(HeaderHash(header, algorithm)).Cmp(target) <= 0
}

// CheckProofOfWorkByBits check's if the block has a valid PoW according to its Bits field
// it does not check if the difficulty itself is valid or less than the maximum for the appropriate network
func CheckProofOfWorkByBits(header *externalapi.DomainBlockHeader, algorithm externalapi.Algorithm) bool {
	return CheckProofOfWorkWithTarget(header, algorithm, math.CompactToBig(header.Bits))
}
