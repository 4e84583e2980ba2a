package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// ChainManager accepts blocks into the block index and keeps the active
// chain and its UTXO set pointing at the valid chain with the most work
type ChainManager interface {
	AddBlock(block *externalapi.DomainBlock, isTrusted bool) (*externalapi.ProcessResult, error)
	UTXOSet() UTXOView
}
