package app

import (
	"sync/atomic"

	"github.com/tetranet/tetrad/domain"
	"github.com/tetranet/tetrad/domain/consensus"
	"github.com/tetranet/tetrad/infrastructure/config"
	infrastructuredatabase "github.com/tetranet/tetrad/infrastructure/db/database"
)

// ComponentManager is a wrapper for all the tetrad services
type ComponentManager struct {
	cfg    *config.Config
	domain domain.Domain

	started, shutdown int32
}

// Start launches all the tetrad services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Tracef("Starting tetrad")

	tip, err := a.domain.Consensus().GetChainTip()
	if err != nil {
		log.Errorf("Error reading the chain tip: %+v", err)
		return
	}
	log.Infof("Active chain tip %s at height %d on %s", tip.Hash, tip.Height, a.cfg.NetParams().Name)
}

// Stop gracefully shuts down all the tetrad services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Tetrad is already in the process of shutting down")
		return
	}

	log.Warnf("Tetrad shutting down")
}

// Domain returns the Domain associated with this ComponentManager
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}

// NewComponentManager returns a new ComponentManager instance. Blocks
// stored in db are replayed unless interrupt is closed first.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database, interrupt <-chan struct{}) (
	*ComponentManager, error) {

	domain, err := domain.New(cfg.ConsensusConfig(), cfg.MempoolConfig(), cfg.PolicyConfig(), db,
		consensus.NewChannelInterrupter(interrupt))
	if err != nil {
		return nil, err
	}

	return &ComponentManager{
		cfg:    cfg,
		domain: domain,
	}, nil
}
