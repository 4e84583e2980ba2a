package constants

import "math"

const (
	// BlockVersion represents the current version of blocks mined and the maximum block version
	// this node is able to validate
	BlockVersion = 1

	// TransactionVersion is the current latest supported transaction version.
	TransactionVersion = 1

	// UnitsPerCoin is the number of minor units in one coin.
	UnitsPerCoin = 100_000_000

	// MaxAmount is the maximum transaction amount allowed in minor units.
	MaxAmount = 21_000_000 * UnitsPerCoin

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint64 = math.MaxUint64

	// CoinbaseOutpointIndex is the outpoint index of the single input of
	// coinbase transactions
	CoinbaseOutpointIndex uint32 = math.MaxUint32

	// MinCoinbaseScriptLen and MaxCoinbaseScriptLen bound the length of
	// the coinbase signature script
	MinCoinbaseScriptLen = 2
	MaxCoinbaseScriptLen = 100

	// CoinbaseHeightCommitmentLength is the length of the little endian
	// height every coinbase signature script starts with
	CoinbaseHeightCommitmentLength = 8

	// LockTimeThreshold is the number below which a lock time is
	// interpreted to be a block height.
	LockTimeThreshold = 500_000_000
)
