package blocktemplatebuilder

import (
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/domain/miningmanager/model"
	"github.com/tetranet/tetrad/domain/policy"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

// blockSizeReserve is left unused by mempool transactions for the header,
// the coinbase and the coinstake
const blockSizeReserve = 1000

var log = logger.RegisterSubSystem("BLTB")

// blockTemplateBuilder creates block templates for a miner to consume
type blockTemplateBuilder struct {
	maxBlockSize uint64

	consensus externalapi.Consensus
	mempool   model.Mempool
	policy    *policy.Policy
}

// New creates a new blockTemplateBuilder
func New(maxBlockSize uint64, consensus externalapi.Consensus, mempool model.Mempool,
	policy *policy.Policy) model.BlockTemplateBuilder {

	return &blockTemplateBuilder{
		maxBlockSize: maxBlockSize,
		consensus:    consensus,
		mempool:      mempool,
		policy:       policy,
	}
}

// GetBlockTemplate creates a block template for a miner to consume. It
// picks mempool transactions by descending fee rate as long as they fit
// the block size and the OP_RETURN allowance of a block.
func (btb *blockTemplateBuilder) GetBlockTemplate(coinbaseScript []byte,
	coinstake *externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "GetBlockTemplate")
	defer onEnd()

	selected := btb.selectTransactions()
	block, err := btb.consensus.BuildBlock(coinbaseScript, selected, coinstake, 0)
	if err != nil {
		return nil, err
	}

	err = btb.policy.CheckBlockStandard(block)
	if err != nil {
		return nil, err
	}

	log.Debugf("Created block template %s with %d transactions", consensushashing.BlockHash(block),
		len(block.Transactions))
	return block, nil
}

func (btb *blockTemplateBuilder) selectTransactions() []*externalapi.DomainTransaction {
	sizeLimit := uint64(0)
	if btb.maxBlockSize > blockSizeReserve {
		sizeLimit = btb.maxBlockSize - blockSizeReserve
	}

	var selected []*externalapi.DomainTransaction
	totalSize := uint64(0)
	opReturns := 0
	for _, transaction := range btb.mempool.GetMempoolTransactions() {
		size := uint64(serialization.TransactionSerializeSize(transaction))
		if totalSize+size > sizeLimit {
			continue
		}
		transactionOpReturns := policy.CountOpReturns(transaction)
		if opReturns+transactionOpReturns > btb.policy.MaxOpReturnPerBlock() {
			continue
		}

		selected = append(selected, transaction)
		totalSize += size
		opReturns += transactionOpReturns
	}
	return selected
}
