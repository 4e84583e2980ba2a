package blockstore

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/infrastructure/db/database"
)

var bucket = database.MakeBucket([]byte("blocks"))
var orderBucket = database.MakeBucket([]byte("block-order"))
var countKey = database.MakeBucket(nil).Key([]byte("blocks-count"))

// blockStore represents a store of blocks
type blockStore struct {
	db          database.Database
	cache       *lru.Cache[externalapi.DomainHash, *externalapi.DomainBlock]
	countCached uint64

	toAdd      map[externalapi.DomainHash]*externalapi.DomainBlock
	toAddOrder []*externalapi.DomainHash
}

// New instantiates a new BlockStore
func New(db database.Database, cacheSize int) (model.BlockStore, error) {
	cache, err := lru.New[externalapi.DomainHash, *externalapi.DomainBlock](cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	blockStore := &blockStore{
		db:    db,
		cache: cache,
		toAdd: make(map[externalapi.DomainHash]*externalapi.DomainBlock),
	}

	err = blockStore.initializeCount()
	if err != nil {
		return nil, err
	}

	return blockStore, nil
}

func (bs *blockStore) initializeCount() error {
	count := uint64(0)
	hasCountBytes, err := bs.db.Has(countKey)
	if err != nil {
		return err
	}
	if hasCountBytes {
		countBytes, err := bs.db.Get(countKey)
		if err != nil {
			return err
		}
		count, err = bs.deserializeBlockCount(countBytes)
		if err != nil {
			return err
		}
	}
	bs.countCached = count
	return nil
}

// Stage stages the given block for the given blockHash
func (bs *blockStore) Stage(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) {
	if _, ok := bs.toAdd[*blockHash]; ok {
		return
	}
	bs.toAdd[*blockHash] = block.Clone()
	bs.toAddOrder = append(bs.toAddOrder, blockHash)
}

func (bs *blockStore) IsStaged() bool {
	return len(bs.toAdd) != 0
}

// Discard drops all staged blocks
func (bs *blockStore) Discard() {
	bs.toAdd = make(map[externalapi.DomainHash]*externalapi.DomainBlock)
	bs.toAddOrder = nil
}

// Commit writes all staged blocks to the database in a single transaction
func (bs *blockStore) Commit() error {
	if !bs.IsStaged() {
		return nil
	}

	dbTx, err := bs.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	count := bs.countCached
	for _, hash := range bs.toAddOrder {
		exists, err := dbTx.Has(bs.hashAsKey(hash))
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		blockBytes := serialization.BlockToBytes(bs.toAdd[*hash])
		err = dbTx.Put(bs.hashAsKey(hash), blockBytes)
		if err != nil {
			return err
		}
		err = dbTx.Put(bs.orderKey(count), hash.ByteSlice())
		if err != nil {
			return err
		}
		count++
	}

	err = dbTx.Put(countKey, bs.serializeBlockCount(count))
	if err != nil {
		return err
	}

	err = dbTx.Commit()
	if err != nil {
		return err
	}

	for hash, block := range bs.toAdd {
		bs.cache.Add(hash, block)
	}
	bs.countCached = count
	bs.Discard()
	return nil
}

// Block gets the block associated with the given blockHash
func (bs *blockStore) Block(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	if block, ok := bs.toAdd[*blockHash]; ok {
		return block.Clone(), nil
	}

	if block, ok := bs.cache.Get(*blockHash); ok {
		return block.Clone(), nil
	}

	blockBytes, err := bs.db.Get(bs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	block, err := serialization.BlockFromBytes(blockBytes)
	if err != nil {
		return nil, err
	}
	bs.cache.Add(*blockHash, block)
	return block.Clone(), nil
}

// HasBlock returns whether a block with a given hash exists in the store.
func (bs *blockStore) HasBlock(blockHash *externalapi.DomainHash) (bool, error) {
	if _, ok := bs.toAdd[*blockHash]; ok {
		return true, nil
	}

	if bs.cache.Contains(*blockHash) {
		return true, nil
	}

	return bs.db.Has(bs.hashAsKey(blockHash))
}

// Count returns the number of committed blocks
func (bs *blockStore) Count() uint64 {
	return bs.countCached
}

// BlocksInInsertionOrder returns all committed blocks in the order they
// were first stored
func (bs *blockStore) BlocksInInsertionOrder() ([]*externalapi.DomainBlock, error) {
	cursor, err := bs.db.Cursor(orderBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	blocks := make([]*externalapi.DomainBlock, 0, bs.countCached)
	for cursor.Next() {
		hashBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		hash, err := externalapi.NewDomainHashFromByteSlice(hashBytes)
		if err != nil {
			return nil, err
		}
		block, err := bs.Block(hash)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (bs *blockStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return bucket.Key(hash.ByteSlice())
}

// orderKey is big endian so that cursor order is insertion order
func (bs *blockStore) orderKey(sequence uint64) *database.Key {
	var keyBytes [8]byte
	binary.BigEndian.PutUint64(keyBytes[:], sequence)
	return orderBucket.Key(keyBytes[:])
}

func (bs *blockStore) serializeBlockCount(count uint64) []byte {
	var countBytes [8]byte
	binary.LittleEndian.PutUint64(countBytes[:], count)
	return countBytes[:]
}

func (bs *blockStore) deserializeBlockCount(countBytes []byte) (uint64, error) {
	if len(countBytes) != 8 {
		return 0, errors.Errorf("malformed block count of length %d", len(countBytes))
	}
	return binary.LittleEndian.Uint64(countBytes), nil
}
