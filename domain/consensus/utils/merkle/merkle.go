package merkle

import (
	"math"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes"
)

// nextPowerOfTwo returns the next highest power of two from a given number if
// it is not already a power of two. This is a helper function used during the
// calculation of a merkle tree.
func nextPowerOfTwo(n int) int {
	// Return the number if it's already a power of 2.
	if n&(n-1) == 0 {
		return n
	}

	// Figure out and return the next power of two.
	exponent := uint(math.Log2(float64(n))) + 1
	return 1 << exponent // 2^exponent
}

// hashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation. This is a helper
// function used to aid in the generation of a merkle tree.
func hashMerkleBranches(left, right *externalapi.DomainHash) *externalapi.DomainHash {
	// Concatenate the left and right nodes.
	w := hashes.NewHashWriter()
	w.InfallibleWrite(left.ByteSlice())
	w.InfallibleWrite(right.ByteSlice())
	return w.Finalize()
}

// CalculateHashMerkleRoot calculates the merkle root of a tree consisting of
// the given transaction IDs.
func CalculateHashMerkleRoot(transactions []*externalapi.DomainTransaction) *externalapi.DomainHash {
	if len(transactions) == 0 {
		return &externalapi.DomainHash{}
	}
	return CalculateMerkleRootFromHashes(consensushashing.TransactionIDs(transactions))
}

// CalculateMerkleRootFromHashes calculates the merkle root of a tree whose
// leaves are the given hashes. A level with an odd number of nodes pairs its
// last node with itself.
func CalculateMerkleRootFromHashes(leaves []*externalapi.DomainHash) *externalapi.DomainHash {
	if len(leaves) == 0 {
		return &externalapi.DomainHash{}
	}

	// Calculate how many entries are required to hold the binary merkle
	// tree as a linear array and create an array of that size.
	nextPoT := nextPowerOfTwo(len(leaves))
	arraySize := nextPoT*2 - 1
	merkles := make([]*externalapi.DomainHash, arraySize)

	// Create the base transaction hashes and populate the array with them.
	copy(merkles, leaves)

	// Start the array offset after the last transaction and adjusted to the
	// next power of two.
	offset := nextPoT
	for i := 0; i < arraySize-1; i += 2 {
		switch {
		// When there is no left child node, the parent is nil too.
		case merkles[i] == nil:
			merkles[offset] = nil

		// When there is no right child, the parent is generated by
		// hashing the concatenation of the left child with itself.
		case merkles[i+1] == nil:
			merkles[offset] = hashMerkleBranches(merkles[i], merkles[i])

		// The normal case sets the parent node to the hash of the
		// concatenation of the left and right children.
		default:
			merkles[offset] = hashMerkleBranches(merkles[i], merkles[i+1])
		}
		offset++
	}

	return merkles[len(merkles)-1]
}
