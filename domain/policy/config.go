package policy

import (
	"crypto/sha256"

	"golang.org/x/time/rate"
)

const (
	// DefaultDustThreshold is the smallest value of a standard output in
	// minor units
	DefaultDustThreshold = 546

	// DefaultMaxOpReturnData is the largest payload of a standard
	// OP_RETURN output
	DefaultMaxOpReturnData = 80

	// DefaultMaxOpReturnPerBlock is the largest number of OP_RETURN
	// outputs a relayed block may carry
	DefaultMaxOpReturnPerBlock = 32

	// DefaultMaxStandardTxSize is the largest serialized size of a
	// standard transaction
	DefaultMaxStandardTxSize = 100_000

	// DefaultMinRelayTxFee is the minimum relay fee in minor units per 1000
	// bytes
	DefaultMinRelayTxFee = 1000

	defaultRecentRejectsCapacity          = 50_000
	defaultRecentRejectsFalsePositiveRate = 0.000001
	defaultPeerMessagesPerSecond          = 50
	defaultPeerBurst                      = 200
	defaultPeerLimiterCacheSize           = 1024
)

// Config holds the relay policy knobs
type Config struct {
	DustThreshold       uint64
	MaxOpReturnData     int
	MaxOpReturnPerBlock int
	MaxStandardTxSize   uint64
	MinRelayTxFee       uint64
	AcceptNonStandard   bool

	// HoneytrapSignatureHashes lists SHA-256 hashes of signature pushes
	// that are rejected on sight
	HoneytrapSignatureHashes [][sha256.Size]byte

	RecentRejectsCapacity          uint
	RecentRejectsFalsePositiveRate float64

	PeerMessagesPerSecond rate.Limit
	PeerBurst             int
	PeerLimiterCacheSize  int
}

// DefaultConfig returns the default relay policy
func DefaultConfig() *Config {
	return &Config{
		DustThreshold:       DefaultDustThreshold,
		MaxOpReturnData:     DefaultMaxOpReturnData,
		MaxOpReturnPerBlock: DefaultMaxOpReturnPerBlock,
		MaxStandardTxSize:   DefaultMaxStandardTxSize,
		MinRelayTxFee:       DefaultMinRelayTxFee,
		AcceptNonStandard:   false,

		RecentRejectsCapacity:          defaultRecentRejectsCapacity,
		RecentRejectsFalsePositiveRate: defaultRecentRejectsFalsePositiveRate,

		PeerMessagesPerSecond: defaultPeerMessagesPerSecond,
		PeerBurst:             defaultPeerBurst,
		PeerLimiterCacheSize:  defaultPeerLimiterCacheSize,
	}
}
