package externalapi

import "fmt"

// BlockType tags a block as proof-of-work or proof-of-stake
type BlockType uint8

const (
	// BlockTypePoW marks a block whose validity comes from its header hash
	BlockTypePoW BlockType = iota

	// BlockTypePoS marks a block whose validity comes from its stake kernel
	BlockTypePoS
)

func (bt BlockType) String() string {
	switch bt {
	case BlockTypePoW:
		return "PoW"
	case BlockTypePoS:
		return "PoS"
	}
	return fmt.Sprintf("BlockType(%d)", uint8(bt))
}

// Algorithm identifies the mining algorithm used for a block height. Every
// algorithm is also a difficulty lane.
type Algorithm uint8

const (
	// AlgorithmSHA256d is double SHA-256
	AlgorithmSHA256d Algorithm = iota

	// AlgorithmScrypt is scrypt with N=1024, r=1, p=1
	AlgorithmScrypt

	// AlgorithmGroestl is double Grøstl-512 truncated to 256 bits
	AlgorithmGroestl

	// AlgorithmProofOfStake marks a proof-of-stake slot
	AlgorithmProofOfStake
)

// NumberOfAlgorithms is the number of algorithm lanes
const NumberOfAlgorithms = 4

var algorithmStrings = [NumberOfAlgorithms]string{
	AlgorithmSHA256d:      "sha256d",
	AlgorithmScrypt:       "scrypt",
	AlgorithmGroestl:      "groestl",
	AlgorithmProofOfStake: "pos",
}

func (algorithm Algorithm) String() string {
	if int(algorithm) < len(algorithmStrings) {
		return algorithmStrings[algorithm]
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(algorithm))
}

// IsValid returns true if the algorithm is one of the known lanes
func (algorithm Algorithm) IsValid() bool {
	return int(algorithm) < NumberOfAlgorithms
}

// BlockType returns the block type blocks of this algorithm have
func (algorithm Algorithm) BlockType() BlockType {
	if algorithm == AlgorithmProofOfStake {
		return BlockTypePoS
	}
	return BlockTypePoW
}
