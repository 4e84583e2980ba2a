package miningmanager

import (
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	miningmanagermodel "github.com/tetranet/tetrad/domain/miningmanager/model"
)

// MiningManager creates block templates for mining as well as maintaining
// known transactions that have no yet been added to any block
type MiningManager interface {
	GetBlockTemplate(coinbaseScript []byte, coinstake *externalapi.DomainTransaction) (*externalapi.DomainBlock, error)
	GetMempoolTransactions() []*externalapi.DomainTransaction
	GetTransaction(transactionID *externalapi.DomainTransactionID) (*externalapi.DomainTransaction, bool)
	HandleNewBlock(result *externalapi.ProcessResult) error
	ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction, source string) error
}

type miningManager struct {
	mempool              miningmanagermodel.Mempool
	blockTemplateBuilder miningmanagermodel.BlockTemplateBuilder
}

// GetBlockTemplate creates a block template for a miner to consume
func (mm *miningManager) GetBlockTemplate(coinbaseScript []byte,
	coinstake *externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	return mm.blockTemplateBuilder.GetBlockTemplate(coinbaseScript, coinstake)
}

// GetMempoolTransactions returns the mempool transactions ordered by
// descending fee rate
func (mm *miningManager) GetMempoolTransactions() []*externalapi.DomainTransaction {
	return mm.mempool.GetMempoolTransactions()
}

func (mm *miningManager) GetTransaction(
	transactionID *externalapi.DomainTransactionID) (*externalapi.DomainTransaction, bool) {

	return mm.mempool.GetTransaction(transactionID)
}

// HandleNewBlock updates the mempool with the chain changes of a
// processed block
func (mm *miningManager) HandleNewBlock(result *externalapi.ProcessResult) error {
	if result.Kind != externalapi.ProcessResultAccepted {
		return nil
	}
	return mm.mempool.HandleChainChanges(result.ChainChanges)
}

// ValidateAndInsertTransaction validates the given transaction, and
// adds it to the set of known transactions that have not yet been
// added to any block
func (mm *miningManager) ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction, source string) error {
	return mm.mempool.ValidateAndInsertTransaction(transaction, source)
}
