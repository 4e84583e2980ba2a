package externalapi

import "math/big"

// BlockInfo contains various information about a specific block
type BlockInfo struct {
	Exists bool
	Hash   *DomainHash

	Height    uint64
	Status    BlockStatus
	BlockType BlockType
	Algorithm Algorithm
	Work      *big.Int
	Finality  FinalityStatus
}
