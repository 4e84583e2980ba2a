package mempool

const defaultMaximumTransactionCount = 100_000

// Config holds the mempool limits
type Config struct {
	MaximumTransactionCount int
}

// DefaultConfig returns the default mempool config
func DefaultConfig() *Config {
	return &Config{
		MaximumTransactionCount: defaultMaximumTransactionCount,
	}
}
