package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// BlockStore represents a store of blocks
type BlockStore interface {
	Stage(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock)
	Commit() error
	Discard()
	IsStaged() bool
	Block(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)
	HasBlock(blockHash *externalapi.DomainHash) (bool, error)
	Count() uint64
	BlocksInInsertionOrder() ([]*externalapi.DomainBlock, error)
}
