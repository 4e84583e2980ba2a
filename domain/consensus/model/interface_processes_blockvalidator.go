package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// BlockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid. None of them
// mutate state.
type BlockValidator interface {
	// ValidateBlockInIsolation runs the checks that only need the block
	// and its height: size, proof of work, merkle root, coinbase and
	// transaction sanity, and signature operation cost.
	ValidateBlockInIsolation(block *externalapi.DomainBlock, height uint64) error

	// ValidateBlockWithoutUTXO runs ValidateBlockInIsolation with the
	// contextual header checks in their place after the proof of work.
	ValidateBlockWithoutUTXO(block *externalapi.DomainBlock, parent NodeIndex) error

	// ValidateBlockUTXO checks the block's inputs against utxoView, which
	// must be the UTXO set at the block's parent, and the stake kernel of
	// proof-of-stake blocks.
	ValidateBlockUTXO(block *externalapi.DomainBlock, parent NodeIndex, utxoView UTXOView, isTrusted bool) error

	ValidateBlock(block *externalapi.DomainBlock, parent NodeIndex, utxoView UTXOView, isTrusted bool) error

	// BlockSubsidy returns the amount a block at the given height may mint
	// on top of the fees it collects
	BlockSubsidy(height uint64) uint64
}
