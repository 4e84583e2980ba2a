package compactblock

import (
	"github.com/aead/siphash"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
)

// PartialBlock is a block being rebuilt from a compact block. Slots that
// could not be resolved from the local pool hold nil.
type PartialBlock struct {
	header       *externalapi.DomainBlockHeader
	key          *[siphash.KeySize]byte
	transactions []*externalapi.DomainTransaction
	shortIDs     map[int]externalapi.ShortID
}

// Reconstruct resolves the short IDs of compactBlock against pool.
// Short IDs that match no pool transaction, match several, or appear more
// than once in the compact block are left unresolved.
func Reconstruct(compactBlock *externalapi.CompactBlock, pool []*externalapi.DomainTransaction) (*PartialBlock, error) {
	err := checkStructure(compactBlock)
	if err != nil {
		return nil, err
	}

	count := compactBlock.TransactionCount()
	partial := &PartialBlock{
		header:       compactBlock.Header,
		key:          ShortIDKey(compactBlock.Header, compactBlock.Nonce),
		transactions: make([]*externalapi.DomainTransaction, count),
		shortIDs:     make(map[int]externalapi.ShortID, len(compactBlock.ShortIDs)),
	}
	for _, prefilled := range compactBlock.PrefilledTransactions {
		partial.transactions[prefilled.Index] = prefilled.Transaction
	}

	shortIDCounts := make(map[externalapi.ShortID]int, len(compactBlock.ShortIDs))
	for _, shortID := range compactBlock.ShortIDs {
		shortIDCounts[shortID]++
	}

	candidates, collisions := partial.indexPool(pool, shortIDCounts)

	shortIDPosition := 0
	for index := range partial.transactions {
		if partial.transactions[index] != nil {
			continue
		}
		shortID := compactBlock.ShortIDs[shortIDPosition]
		shortIDPosition++
		partial.shortIDs[index] = shortID

		if shortIDCounts[shortID] > 1 {
			continue
		}
		if _, collided := collisions[shortID]; collided {
			continue
		}
		if transaction, ok := candidates[shortID]; ok {
			partial.transactions[index] = transaction
		}
	}

	log.Debugf("Reconstructed %d out of %d transactions of block %s",
		count-len(partial.MissingIndexes()), count, consensushashing.HeaderHash(compactBlock.Header))
	return partial, nil
}

// indexPool maps the short IDs requested by the compact block to the pool
// transactions that produce them. Short IDs produced by more than one
// distinct pool transaction are reported as collisions.
func (pb *PartialBlock) indexPool(pool []*externalapi.DomainTransaction,
	requested map[externalapi.ShortID]int) (
	candidates map[externalapi.ShortID]*externalapi.DomainTransaction,
	collisions map[externalapi.ShortID]struct{}) {

	candidates = make(map[externalapi.ShortID]*externalapi.DomainTransaction)
	collisions = make(map[externalapi.ShortID]struct{})
	candidateIDs := make(map[externalapi.ShortID]*externalapi.DomainTransactionID)

	for _, transaction := range pool {
		if transactionhelper.IsCoinBase(transaction) {
			continue
		}
		transactionID := consensushashing.TransactionID(transaction)
		shortID := shortIDFunc(pb.key, transactionID)
		if _, ok := requested[shortID]; !ok {
			continue
		}
		if existingID, ok := candidateIDs[shortID]; ok {
			if !existingID.Equal(transactionID) {
				collisions[shortID] = struct{}{}
			}
			continue
		}
		candidates[shortID] = transaction
		candidateIDs[shortID] = transactionID
	}
	return candidates, collisions
}

func checkStructure(compactBlock *externalapi.CompactBlock) error {
	if compactBlock.Header == nil {
		return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock, "compact block has no header")
	}
	count := compactBlock.TransactionCount()
	if count == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock, "compact block has no transactions")
	}

	prefilled := compactBlock.PrefilledTransactions
	if len(prefilled) == 0 || prefilled[0].Index != 0 || prefilled[0].Transaction == nil ||
		!transactionhelper.IsCoinBase(prefilled[0].Transaction) {
		return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock,
			"the coinbase must be prefilled at index 0")
	}

	for i, entry := range prefilled[1:] {
		if entry.Transaction == nil {
			return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock, "prefilled entry %d has no transaction", i+1)
		}
		if entry.Index <= prefilled[i].Index {
			return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock,
				"prefilled indexes are not strictly increasing (%d after %d)", entry.Index, prefilled[i].Index)
		}
		if entry.Index >= uint64(count) {
			return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock,
				"prefilled index %d is out of range for %d transactions", entry.Index, count)
		}
		if transactionhelper.IsCoinBase(entry.Transaction) {
			return errors.Wrapf(ruleerrors.ErrInvalidCompactBlock,
				"prefilled transaction at index %d is a second coinbase", entry.Index)
		}
	}
	return nil
}

// BlockHash returns the hash of the block being rebuilt
func (pb *PartialBlock) BlockHash() *externalapi.DomainHash {
	return consensushashing.HeaderHash(pb.header)
}

// MissingIndexes returns the indexes of the unresolved transactions, in
// increasing order
func (pb *PartialBlock) MissingIndexes() []int {
	var missing []int
	for index, transaction := range pb.transactions {
		if transaction == nil {
			missing = append(missing, index)
		}
	}
	return missing
}

// IsComplete returns whether every transaction slot is resolved
func (pb *PartialBlock) IsComplete() bool {
	for _, transaction := range pb.transactions {
		if transaction == nil {
			return false
		}
	}
	return true
}

// Fill places transactions, ordered like MissingIndexes, in the
// unresolved slots. A transaction whose short ID differs from the one its
// slot was announced with is not placed, and the call then returns
// ErrReconstructionIncomplete.
func (pb *PartialBlock) Fill(transactions []*externalapi.DomainTransaction) error {
	missing := pb.MissingIndexes()
	if len(transactions) != len(missing) {
		return errors.Wrapf(ruleerrors.ErrReconstructionIncomplete,
			"got %d transactions for %d missing slots", len(transactions), len(missing))
	}

	var mismatched []int
	for i, index := range missing {
		transaction := transactions[i]
		if transaction == nil {
			mismatched = append(mismatched, index)
			continue
		}
		shortID := shortIDFunc(pb.key, consensushashing.TransactionID(transaction))
		if shortID != pb.shortIDs[index] {
			mismatched = append(mismatched, index)
			continue
		}
		pb.transactions[index] = transaction
	}
	if len(mismatched) > 0 {
		return errors.Wrapf(ruleerrors.ErrReconstructionIncomplete,
			"transactions supplied for slots %v do not match their short IDs", mismatched)
	}
	return nil
}

// Block returns the rebuilt block. It returns ErrReconstructionIncomplete
// while slots are unresolved.
func (pb *PartialBlock) Block() (*externalapi.DomainBlock, error) {
	missing := pb.MissingIndexes()
	if len(missing) > 0 {
		return nil, errors.Wrapf(ruleerrors.ErrReconstructionIncomplete,
			"block %s is missing the transactions at %v", pb.BlockHash(), missing)
	}
	transactions := make([]*externalapi.DomainTransaction, len(pb.transactions))
	copy(transactions, pb.transactions)
	return &externalapi.DomainBlock{
		Header:       pb.header,
		Transactions: transactions,
	}, nil
}
