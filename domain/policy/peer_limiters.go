package policy

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// peerLimiters keeps a token bucket per peer. Only the most recently seen
// peers keep their bucket. An evicted peer starts over with a full one.
type peerLimiters struct {
	lock     sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *lru.Cache[string, *rate.Limiter]
}

func newPeerLimiters(limit rate.Limit, burst int, cacheSize int) (*peerLimiters, error) {
	if burst <= 0 {
		return nil, errors.Errorf("peer burst must be positive, got %d", burst)
	}
	limiters, err := lru.New[string, *rate.Limiter](cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating the peer limiter cache")
	}
	return &peerLimiters{
		limit:    limit,
		burst:    burst,
		limiters: limiters,
	}, nil
}

func (pl *peerLimiters) allow(peer string, now time.Time) bool {
	pl.lock.Lock()
	defer pl.lock.Unlock()

	limiter, ok := pl.limiters.Get(peer)
	if !ok {
		limiter = rate.NewLimiter(pl.limit, pl.burst)
		pl.limiters.Add(peer, limiter)
	}
	return limiter.AllowN(now, 1)
}

func (pl *peerLimiters) len() int {
	return pl.limiters.Len()
}
