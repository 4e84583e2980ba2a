package consensus

import (
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/compactblock"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

const (
	defaultBlockCacheSize    = 200
	defaultFinalityCacheSize = 10_000
)

// Config is a descriptor which specifies the consensus operation configuration.
type Config struct {
	*chainconfig.Params

	// BlockCacheSize is the number of deserialized blocks the block store
	// keeps in memory
	BlockCacheSize int

	// FinalityCacheSize is the number of finality statuses kept in memory
	FinalityCacheSize int

	// CompactBlockRetryBudget is the number of fill attempts a compact
	// block gets before the full block must be requested
	CompactBlockRetryBudget int

	// MaxPendingCompactBlocks is the number of incomplete compact blocks
	// kept while their missing transactions are awaited
	MaxPendingCompactBlocks int

	// BlockAdmissionFilter, if set, is run on every submitted or
	// reconstructed block before it reaches the chain manager. It carries
	// relay policy, not consensus rules, so replayed blocks skip it.
	BlockAdmissionFilter func(block *externalapi.DomainBlock) error
}

// NewConfig returns a Config for params with the default cache sizes
func NewConfig(params *chainconfig.Params) *Config {
	return &Config{
		Params:                  params,
		BlockCacheSize:          defaultBlockCacheSize,
		FinalityCacheSize:       defaultFinalityCacheSize,
		CompactBlockRetryBudget: compactblock.DefaultRetryBudget,
		MaxPendingCompactBlocks: compactblock.DefaultMaxPendingBlocks,
	}
}
