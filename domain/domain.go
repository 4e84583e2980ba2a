package domain

import (
	"github.com/tetranet/tetrad/domain/consensus"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/miningmanager"
	"github.com/tetranet/tetrad/domain/miningmanager/mempool"
	"github.com/tetranet/tetrad/domain/policy"
	infrastructuredatabase "github.com/tetranet/tetrad/infrastructure/db/database"
)

// Domain provides a reference to the domain's external aps. Blocks and
// transactions submitted through it keep the mempool in step with the
// active chain.
type Domain interface {
	MiningManager() miningmanager.MiningManager
	Consensus() externalapi.Consensus
	Policy() *policy.Policy

	ProcessBlock(block *externalapi.DomainBlock, source string) (*externalapi.ProcessResult, error)
	ProcessCompactBlock(compactBlock *externalapi.CompactBlock, source string) (*externalapi.ProcessResult, error)
	FillMissing(blockHash *externalapi.DomainHash, transactions []*externalapi.DomainTransaction,
		source string) (*externalapi.ProcessResult, error)
	ProcessTransaction(transaction *externalapi.DomainTransaction, source string) error
}

type domain struct {
	miningManager miningmanager.MiningManager
	consensus     externalapi.Consensus
	policy        *policy.Policy
}

func (d *domain) Consensus() externalapi.Consensus {
	return d.consensus
}

func (d *domain) MiningManager() miningmanager.MiningManager {
	return d.miningManager
}

func (d *domain) Policy() *policy.Policy {
	return d.policy
}

// checkSource applies the message rate limit of the relaying peer.
// Local submissions have an empty source and are never limited.
func (d *domain) checkSource(source string) error {
	if source == "" {
		return nil
	}
	return d.policy.CheckPeerMessage(source)
}

// ProcessBlock validates and connects block, and updates the mempool with
// the chain changes it caused. source identifies the relaying peer, and is
// empty for local blocks.
func (d *domain) ProcessBlock(block *externalapi.DomainBlock, source string) (*externalapi.ProcessResult, error) {
	err := d.checkSource(source)
	if err != nil {
		return nil, err
	}
	result, err := d.consensus.ValidateAndConnect(block)
	if err != nil {
		return nil, err
	}
	return result, d.miningManager.HandleNewBlock(result)
}

// ProcessCompactBlock reconstructs compactBlock from the mempool
// transactions. Complete blocks are validated and connected right away.
func (d *domain) ProcessCompactBlock(compactBlock *externalapi.CompactBlock,
	source string) (*externalapi.ProcessResult, error) {

	err := d.checkSource(source)
	if err != nil {
		return nil, err
	}
	result, err := d.consensus.ReconstructBlock(compactBlock, d.miningManager.GetMempoolTransactions())
	if err != nil {
		return nil, err
	}
	return result, d.miningManager.HandleNewBlock(result)
}

func (d *domain) FillMissing(blockHash *externalapi.DomainHash, transactions []*externalapi.DomainTransaction,
	source string) (*externalapi.ProcessResult, error) {

	err := d.checkSource(source)
	if err != nil {
		return nil, err
	}
	result, err := d.consensus.FillMissing(blockHash, transactions)
	if err != nil {
		return nil, err
	}
	return result, d.miningManager.HandleNewBlock(result)
}

// ProcessTransaction validates transaction and adds it to the mempool.
// source identifies the relaying peer, and is empty for local
// transactions.
func (d *domain) ProcessTransaction(transaction *externalapi.DomainTransaction, source string) error {
	return d.miningManager.ValidateAndInsertTransaction(transaction, source)
}

// New instantiates a new instance of a Domain object. Blocks stored in db
// are replayed before it returns.
func New(consensusConfig *consensus.Config, mempoolConfig *mempool.Config, policyConfig *policy.Config,
	db infrastructuredatabase.Database, interrupter model.Interrupter) (Domain, error) {

	policyInstance, err := policy.New(policyConfig)
	if err != nil {
		return nil, err
	}

	// Blocks reach the chain manager only once they pass the block
	// level relay policy
	consensusConfigWithPolicy := *consensusConfig
	consensusConfigWithPolicy.BlockAdmissionFilter = policyInstance.CheckBlockStandard

	consensusFactory := consensus.NewFactory()
	consensusInstance, err := consensusFactory.NewConsensus(&consensusConfigWithPolicy, db, interrupter)
	if err != nil {
		return nil, err
	}

	miningManagerFactory := miningmanager.NewFactory()
	miningManager := miningManagerFactory.NewMiningManager(consensusInstance, consensusConfig.Params,
		mempoolConfig, policyInstance)

	return &domain{
		consensus:     consensusInstance,
		miningManager: miningManager,
		policy:        policyInstance,
	}, nil
}
