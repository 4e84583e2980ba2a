package blockbuilder

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/model/testapi"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

type testBlockBuilder struct {
	*blockBuilder
}

// NewTestBlockBuilder creates an instance of a TestBlockBuilder
func NewTestBlockBuilder(baseBlockBuilder model.BlockBuilder) testapi.TestBlockBuilder {
	return &testBlockBuilder{blockBuilder: baseBlockBuilder.(*blockBuilder)}
}

func (bb *testBlockBuilder) BuildBlockOnParent(parentHash *externalapi.DomainHash, coinbaseScript []byte,
	transactions []*externalapi.DomainTransaction, coinstake *externalapi.DomainTransaction,
	blockTime uint32) (*externalapi.DomainBlock, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildBlockOnParent")
	defer onEnd()

	parent, ok := bb.blockIndex.Lookup(parentHash)
	if !ok {
		return nil, errors.Errorf("parent %s is not in the block index", parentHash)
	}
	return bb.buildBlock(parent, coinbaseScript, transactions, coinstake, blockTime)
}
