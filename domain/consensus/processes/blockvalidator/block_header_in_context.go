package blockvalidator

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
)

// validateHeaderInContext validates the header fields that depend on the
// chain the block extends
func (v *blockValidator) validateHeaderInContext(header *externalapi.DomainBlockHeader,
	parent model.NodeIndex, height uint64) error {

	err := v.checkDifficulty(header, parent, height)
	if err != nil {
		return err
	}

	err = v.validateMedianTime(header, parent)
	if err != nil {
		return err
	}

	return v.checkBlockTimestampInFuture(header)
}

func (v *blockValidator) checkDifficulty(header *externalapi.DomainBlockHeader,
	parent model.NodeIndex, height uint64) error {

	// Ensure the difficulty specified in the block header matches
	// the calculated difficulty based on the previous blocks of its lane.
	expectedBits := v.difficultyManager.RequiredDifficulty(parent, height)
	if header.Bits != expectedBits {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty, "block difficulty of %08x "+
			"is not the expected value of %08x", header.Bits, expectedBits)
	}
	return nil
}

func (v *blockValidator) validateMedianTime(header *externalapi.DomainBlockHeader, parent model.NodeIndex) error {
	// Ensure the timestamp for the block header is not before the
	// median time of the last several blocks.
	pastMedianTime := v.pastMedianTimeManager.PastMedianTime(parent)
	if header.Time <= pastMedianTime {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp of %d is not after expected %d",
			header.Time, pastMedianTime)
	}
	return nil
}

func (v *blockValidator) checkBlockTimestampInFuture(header *externalapi.DomainBlockHeader) error {
	blockTimestamp := time.Unix(int64(header.Time), 0)
	maxTimestamp := v.timeSource.Now().Add(v.maxFutureBlockTime)
	if blockTimestamp.After(maxTimestamp) {
		return errors.Wrapf(ruleerrors.ErrTimeTooMuchInTheFuture, "block timestamp of %s is too far "+
			"in the future. Max allowed is %s", blockTimestamp, maxTimestamp)
	}
	return nil
}
