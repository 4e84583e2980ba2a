package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrKnownInvalid indicates a block that was already found to be
	// invalid was submitted again.
	ErrKnownInvalid = newRuleError("ErrKnownInvalid")

	// ErrInvalidAncestorBlock indicates that an ancestor of this block has
	// failed validation.
	ErrInvalidAncestorBlock = newRuleError("ErrInvalidAncestorBlock")

	// ErrBlockSizeTooHigh indicates the serialized block size exceeds the
	// maximum allowed size.
	ErrBlockSizeTooHigh = newRuleError("ErrBlockSizeTooHigh")

	// ErrBlockVersionTooOld indicates the block version is too old and is
	// no longer accepted.
	ErrBlockVersionTooOld = newRuleError("ErrBlockVersionTooOld")

	// ErrInvalidPoW indicates that the block hash does not meet the
	// target of its algorithm.
	ErrInvalidPoW = newRuleError("ErrInvalidPoW")

	// ErrTargetTooHigh indicates specified bits do not align with
	// the expected value either because it is above the valid
	// range of the block's lane.
	ErrTargetTooHigh = newRuleError("ErrTargetTooHigh")

	// ErrNegativeTarget indicates specified bits encode a negative or zero
	// target.
	ErrNegativeTarget = newRuleError("ErrNegativeTarget")

	// ErrUnexpectedDifficulty indicates specified bits do not align with
	// the expected value because it doesn't match the calculated
	// value based on difficulty regarding rules.
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty")

	// ErrTimeTooOld indicates the time is either before the median time of
	// the last several blocks per the chain consensus rules.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrTimeTooMuchInTheFuture indicates that the block timestamp is too much in the future.
	ErrTimeTooMuchInTheFuture = newRuleError("ErrTimeTooMuchInTheFuture")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrNoTransactions indicates the block does not have a least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newRuleError("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newRuleError("ErrMultipleCoinbases")

	// ErrBadCoinbaseTransaction indicates that the coinbase transaction is
	// malformed.
	ErrBadCoinbaseTransaction = newRuleError("ErrBadCoinbaseTransaction")

	// ErrBadCoinbaseValue indicates that the amount the block generates
	// exceeds the expected subsidy plus the fees it collects.
	ErrBadCoinbaseValue = newRuleError("ErrBadCoinbaseValue")

	// ErrDuplicateTx indicates a block contains an identical transaction
	// (or at least two transactions which hash to the same value). A
	// valid block may only contain unique transactions.
	ErrDuplicateTx = newRuleError("ErrDuplicateTx")

	// ErrDoubleSpendInSameBlock indicates a transaction
	// that spends an output that was already spent by another
	// transaction in the same block.
	ErrDoubleSpendInSameBlock = newRuleError("ErrDoubleSpendInSameBlock")

	// ErrChainedTransactions indicates that a block contains a transaction
	// that spends an output of a transaction in the same block.
	ErrChainedTransactions = newRuleError("ErrChainedTransactions")

	// ErrNoTxInputs indicates a transaction does not have any inputs. A
	// valid transaction must have at least one input.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs")

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs = newRuleError("ErrNoTxOutputs")

	// ErrTxTooBig indicates a transaction exceeds the maximum allowed size
	// when serialized.
	ErrTxTooBig = newRuleError("ErrTxTooBig")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = newRuleError("ErrBadTxOutValue")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newRuleError("ErrDuplicateTxInputs")

	// ErrBadTxInput indicates a non-coinbase transaction input references
	// the null outpoint.
	ErrBadTxInput = newRuleError("ErrBadTxInput")

	// ErrUnfinalizedTx indicates a transaction has not been finalized.
	// A valid block may only contain finalized transactions.
	ErrUnfinalizedTx = newRuleError("ErrUnfinalizedTx")

	// ErrSigOpsExceeded indicates the aggregate signature operation cost
	// of a block exceeds the maximum allowed.
	ErrSigOpsExceeded = newRuleError("ErrSigOpsExceeded")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase or coinstake output that has not yet reached the required
	// maturity.
	ErrImmatureSpend = newRuleError("ErrImmatureSpend")

	// ErrSpendTooHigh indicates a transaction is attempting to spend more
	// value than the sum of all of its inputs.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh")

	// ErrScriptMalformed indicates a transaction script is malformed in
	// some way.
	ErrScriptMalformed = newRuleError("ErrScriptMalformed")

	// ErrScriptValidation indicates the result of executing a transaction
	// script failed.
	ErrScriptValidation = newRuleError("ErrScriptValidation")

	// ErrMissingCoinstake indicates a proof-of-stake block does not carry
	// a well formed coinstake as its second transaction.
	ErrMissingCoinstake = newRuleError("ErrMissingCoinstake")

	// ErrUnexpectedCoinstake indicates a coinstake transaction in a
	// proof-of-work block or at a position other than the second.
	ErrUnexpectedCoinstake = newRuleError("ErrUnexpectedCoinstake")

	// ErrKernelCheckFailed indicates the stake kernel of a proof-of-stake
	// block does not meet its target or its stake is not eligible.
	ErrKernelCheckFailed = newRuleError("ErrKernelCheckFailed")

	// ErrReorgTooDeep indicates that switching to a heavier chain would
	// disconnect more blocks than allowed.
	ErrReorgTooDeep = newRuleError("ErrReorgTooDeep")

	// ErrFinalityViolation indicates that switching to a heavier chain would
	// disconnect a block that is already final.
	ErrFinalityViolation = newRuleError("ErrFinalityViolation")

	// ErrInvalidCompactBlock indicates a compact block is malformed.
	ErrInvalidCompactBlock = newRuleError("ErrInvalidCompactBlock")

	// ErrReconstructionIncomplete indicates that a compact block still has
	// unresolved transactions after a fill attempt.
	ErrReconstructionIncomplete = newRuleError("ErrReconstructionIncomplete")

	// ErrCheckBlockFailed indicates that a reconstructed compact block
	// failed block validation.
	ErrCheckBlockFailed = newRuleError("ErrCheckBlockFailed")

	// ErrFullBlockRequired indicates that the retry budget of a compact
	// block reconstruction was exhausted and the full block must be
	// requested instead.
	ErrFullBlockRequired = newRuleError("ErrFullBlockRequired")
)

// ErrInterrupted indicates that an operation was stopped by a shutdown
// request before it completed. The chain state was rolled back and the
// operation may be retried.
var ErrInterrupted = errors.New("operation interrupted")

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns true if err is or wraps a RuleError
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}

// IsTransientError returns true if err reports an operation that was
// stopped and may be retried, as opposed to a rule violation
func IsTransientError(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingTxOut",
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}

// ErrMissingParents indicates a block points to an unknown parent.
type ErrMissingParents struct {
	MissingParentHashes []*externalapi.DomainHash
}

func (e ErrMissingParents) Error() string {
	return fmt.Sprintf("missing the following parent hashes: %v", e.MissingParentHashes)
}

// NewErrMissingParents creates a new ErrMissingParents error wrapped in a RuleError
func NewErrMissingParents(missingParentHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingParents",
		inner:   ErrMissingParents{missingParentHashes},
	})
}
