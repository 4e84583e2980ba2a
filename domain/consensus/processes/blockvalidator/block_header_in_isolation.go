package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
)

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range of the lane of height and that the block
// hash is less than the target difficulty as claimed. Proof-of-stake slots
// skip the hash check: their stake kernel is checked against the utxo set.
func (v *blockValidator) checkProofOfWork(header *externalapi.DomainBlockHeader, height uint64) error {
	if header.Version < constants.BlockVersion {
		return errors.Wrapf(ruleerrors.ErrBlockVersionTooOld, "block version %d is older than "+
			"the minimum of %d", header.Version, constants.BlockVersion)
	}

	algorithm := pow.SelectAlgorithm(height, v.posInterval)
	lane := &v.lanes[algorithm]

	// The target difficulty must be larger than zero.
	target := math.CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		return errors.Wrapf(ruleerrors.ErrNegativeTarget, "block target difficulty of %064x is too low",
			target)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Cmp(lane.PowMax) > 0 {
		return errors.Wrapf(ruleerrors.ErrTargetTooHigh, "block target difficulty of %064x is "+
			"higher than max of %064x of the %s lane", target, lane.PowMax, algorithm)
	}

	if v.skipPoW || algorithm == externalapi.AlgorithmProofOfStake {
		return nil
	}

	// The block pow must be valid unless the flag to avoid proof of work checks is set.
	if !pow.CheckProofOfWorkWithTarget(header, algorithm, target) {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "block has invalid %s proof of work", algorithm)
	}
	return nil
}
