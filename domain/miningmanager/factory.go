package miningmanager

import (
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/miningmanager/blocktemplatebuilder"
	"github.com/tetranet/tetrad/domain/miningmanager/mempool"
	"github.com/tetranet/tetrad/domain/policy"
)

// Factory instantiates new mining managers
type Factory interface {
	NewMiningManager(consensus externalapi.Consensus, params *chainconfig.Params,
		mempoolConfig *mempool.Config, policy *policy.Policy) MiningManager
}

type factory struct{}

// NewMiningManager instantiate a new mining manager
func (f *factory) NewMiningManager(consensus externalapi.Consensus, params *chainconfig.Params,
	mempoolConfig *mempool.Config, policy *policy.Policy) MiningManager {

	mempool := mempool.New(mempoolConfig, consensus, policy)
	blockTemplateBuilder := blocktemplatebuilder.New(params.MaxBlockSize, consensus, mempool, policy)

	return &miningManager{
		mempool:              mempool,
		blockTemplateBuilder: blockTemplateBuilder,
	}
}

// NewFactory creates a new mining manager factory
func NewFactory() Factory {
	return &factory{}
}
