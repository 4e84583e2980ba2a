package policy

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// recentRejects is a rolling bloom filter of rejected transaction IDs. It
// keeps two generations of capacity entries each. Once the current one is
// full it becomes the previous one, and the old previous one is dropped.
type recentRejects struct {
	lock              sync.Mutex
	capacity          uint
	falsePositiveRate float64
	count             uint
	current           *bloom.BloomFilter
	previous          *bloom.BloomFilter
}

func newRecentRejects(capacity uint, falsePositiveRate float64) *recentRejects {
	return &recentRejects{
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		current:           bloom.NewWithEstimates(capacity, falsePositiveRate),
		previous:          bloom.NewWithEstimates(capacity, falsePositiveRate),
	}
}

func (rr *recentRejects) add(transactionID *externalapi.DomainTransactionID) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if rr.count >= rr.capacity {
		rr.previous = rr.current
		rr.current = bloom.NewWithEstimates(rr.capacity, rr.falsePositiveRate)
		rr.count = 0
	}
	rr.current.Add(transactionID.ByteSlice())
	rr.count++
}

func (rr *recentRejects) contains(transactionID *externalapi.DomainTransactionID) bool {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	key := transactionID.ByteSlice()
	return rr.current.Test(key) || rr.previous.Test(key)
}

func (rr *recentRejects) reset() {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rr.current.ClearAll()
	rr.previous.ClearAll()
	rr.count = 0
}
