package transactionvalidator

import (
	"github.com/tetranet/tetrad/domain/consensus/model"
)

// transactionValidator exposes a set of validation classes, after which
// it's possible to determine whether either a transaction is valid
type transactionValidator struct {
	maxTxSize             uint64
	blockCoinbaseMaturity uint64
}

// New instantiates a new TransactionValidator
func New(maxTxSize uint64, blockCoinbaseMaturity uint64) model.TransactionValidator {
	return &transactionValidator{
		maxTxSize:             maxTxSize,
		blockCoinbaseMaturity: blockCoinbaseMaturity,
	}
}
