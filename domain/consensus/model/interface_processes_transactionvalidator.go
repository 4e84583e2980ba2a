package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// TransactionValidator exposes a set of validation classes, after which
// it's possible to determine whether a transaction is valid
type TransactionValidator interface {
	ValidateTransactionInIsolation(transaction *externalapi.DomainTransaction) error
	ValidateTransactionInContext(transaction *externalapi.DomainTransaction, utxoView UTXOView,
		povHeight uint64, isCoinstake bool) (fee uint64, err error)
	ValidateTransactionScripts(transaction *externalapi.DomainTransaction, utxoView UTXOView) error
}
