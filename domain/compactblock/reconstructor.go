package compactblock

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
)

const (
	// DefaultRetryBudget is the number of fill attempts a compact block
	// gets before the full block has to be requested
	DefaultRetryBudget = 2

	// DefaultMaxPendingBlocks is the number of incomplete compact blocks
	// kept while their missing transactions are awaited
	DefaultMaxPendingBlocks = 100
)

type pendingBlock struct {
	partial      *PartialBlock
	fillAttempts int
}

// Reconstructor tracks partially rebuilt compact blocks between the
// initial reconstruction and the fills of their missing transactions. At
// most maxPendingBlocks are tracked, the least recently used one is
// evicted first. It is not safe for concurrent use.
type Reconstructor struct {
	retryBudget int
	pending     *lru.Cache[externalapi.DomainHash, *pendingBlock]
}

// NewReconstructor returns a Reconstructor allowing retryBudget fill
// attempts per block and tracking at most maxPendingBlocks blocks
func NewReconstructor(retryBudget int, maxPendingBlocks int) (*Reconstructor, error) {
	pending, err := lru.NewWithEvict[externalapi.DomainHash, *pendingBlock](maxPendingBlocks,
		func(blockHash externalapi.DomainHash, _ *pendingBlock) {
			log.Tracef("Compact block %s is no longer awaiting transactions", blockHash)
		})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Reconstructor{
		retryBudget: retryBudget,
		pending:     pending,
	}, nil
}

// Reconstruct rebuilds compactBlock from pool. Incomplete blocks are kept
// until FillMissing completes them or their retry budget runs out.
func (r *Reconstructor) Reconstruct(compactBlock *externalapi.CompactBlock,
	pool []*externalapi.DomainTransaction) (*PartialBlock, error) {

	partial, err := Reconstruct(compactBlock, pool)
	if err != nil {
		return nil, err
	}
	if !partial.IsComplete() {
		r.pending.Add(*partial.BlockHash(), &pendingBlock{partial: partial})
	}
	return partial, nil
}

// FillMissing supplies the missing transactions of a pending block,
// ordered like its MissingIndexes. Once the retry budget of the block is
// exhausted without completing it, the block is dropped and
// ErrFullBlockRequired is returned.
func (r *Reconstructor) FillMissing(blockHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*PartialBlock, error) {

	pending, ok := r.pending.Get(*blockHash)
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidCompactBlock,
			"no compact block %s is awaiting transactions", blockHash)
	}

	pending.fillAttempts++
	fillErr := pending.partial.Fill(transactions)
	if fillErr == nil && pending.partial.IsComplete() {
		r.pending.Remove(*blockHash)
		return pending.partial, nil
	}

	if pending.fillAttempts >= r.retryBudget {
		r.pending.Remove(*blockHash)
		log.Debugf("Compact block %s exhausted its %d fill attempts", blockHash, r.retryBudget)
		return nil, errors.Wrapf(ruleerrors.ErrFullBlockRequired,
			"compact block %s is still incomplete after %d fill attempts", blockHash, pending.fillAttempts)
	}
	if fillErr != nil {
		return pending.partial, fillErr
	}
	return pending.partial, errors.Wrapf(ruleerrors.ErrReconstructionIncomplete,
		"compact block %s is still missing transactions", blockHash)
}

// Forget drops the pending state of blockHash. It is called once the block
// is accepted through any path.
func (r *Reconstructor) Forget(blockHash *externalapi.DomainHash) {
	r.pending.Remove(*blockHash)
}

// PendingCount returns the number of blocks awaiting transactions
func (r *Reconstructor) PendingCount() int {
	return r.pending.Len()
}
