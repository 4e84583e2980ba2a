// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
)

// RejectCode represents a numeric value by which a remote peer indicates
// why a message was rejected.
type RejectCode uint8

// These constants define the various supported reject codes.
const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectDust            RejectCode = 0x41
	RejectInsufficientFee RejectCode = 0x42
	RejectFinality        RejectCode = 0x43
	RejectRateLimited     RejectCode = 0x45
)

// Map of reject codes back strings for pretty printing.
var rejectCodeStrings = map[RejectCode]string{
	RejectMalformed:       "REJECT_MALFORMED",
	RejectInvalid:         "REJECT_INVALID",
	RejectObsolete:        "REJECT_OBSOLETE",
	RejectDuplicate:       "REJECT_DUPLICATE",
	RejectNonstandard:     "REJECT_NONSTANDARD",
	RejectDust:            "REJECT_DUST",
	RejectInsufficientFee: "REJECT_INSUFFICIENTFEE",
	RejectFinality:        "REJECT_FINALITY",
	RejectRateLimited:     "REJECT_RATELIMITED",
}

// String returns the RejectCode in human-readable form.
func (code RejectCode) String() string {
	if s, ok := rejectCodeStrings[code]; ok {
		return s
	}

	return fmt.Sprintf("Unknown RejectCode (%d)", uint8(code))
}

// These constants are used to identify a specific PolicyError.
var (
	// ErrNonStandard indicates a transaction that is valid by consensus
	// but has a form this node does not relay.
	ErrNonStandard = newPolicyError("ErrNonStandard", RejectNonstandard)

	// ErrTxTooLarge indicates a transaction larger than the maximum
	// standard transaction size.
	ErrTxTooLarge = newPolicyError("ErrTxTooLarge", RejectNonstandard)

	// ErrDust indicates an output that pays less than the dust threshold.
	ErrDust = newPolicyError("ErrDust", RejectDust)

	// ErrOpReturnTooLarge indicates an OP_RETURN output carrying more
	// data than allowed.
	ErrOpReturnTooLarge = newPolicyError("ErrOpReturnTooLarge", RejectNonstandard)

	// ErrMultipleOpReturns indicates a transaction with more than one
	// OP_RETURN output.
	ErrMultipleOpReturns = newPolicyError("ErrMultipleOpReturns", RejectNonstandard)

	// ErrTooManyOpReturnsInBlock indicates a block with more OP_RETURN
	// outputs than allowed.
	ErrTooManyOpReturnsInBlock = newPolicyError("ErrTooManyOpReturnsInBlock", RejectNonstandard)

	// ErrHoneytrapSignature indicates a signature that is malformed,
	// trivially forged or blacklisted.
	ErrHoneytrapSignature = newPolicyError("ErrHoneytrapSignature", RejectNonstandard)

	// ErrInsufficientFee indicates a transaction paying less than the
	// minimum relay fee.
	ErrInsufficientFee = newPolicyError("ErrInsufficientFee", RejectInsufficientFee)

	// ErrRecentlyRejected indicates a transaction that was rejected a
	// short while ago.
	ErrRecentlyRejected = newPolicyError("ErrRecentlyRejected", RejectDuplicate)

	// ErrRateLimited indicates a peer that sent more than its share of
	// messages.
	ErrRateLimited = newPolicyError("ErrRateLimited", RejectRateLimited)

	// ErrDuplicateTransaction indicates a transaction that is already in
	// the mempool.
	ErrDuplicateTransaction = newPolicyError("ErrDuplicateTransaction", RejectDuplicate)

	// ErrMempoolConflict indicates a transaction spending an output that
	// a mempool transaction already spends.
	ErrMempoolConflict = newPolicyError("ErrMempoolConflict", RejectDuplicate)

	// ErrMempoolFull indicates the mempool holds as many transactions as
	// it is allowed to.
	ErrMempoolFull = newPolicyError("ErrMempoolFull", RejectInsufficientFee)
)

// PolicyError identifies a violation of relay policy. Unlike a
// ruleerrors.RuleError it says nothing about consensus validity.
type PolicyError struct {
	message    string
	RejectCode RejectCode
}

// Error satisfies the error interface and prints human-readable errors.
func (e PolicyError) Error() string {
	return e.message
}

func newPolicyError(message string, rejectCode RejectCode) PolicyError {
	return PolicyError{message: message, RejectCode: rejectCode}
}

// IsPolicyError returns true if err is or wraps a PolicyError
func IsPolicyError(err error) bool {
	return errors.As(err, &PolicyError{})
}

// ExtractRejectCode attempts to return a relevant reject code for a given error
// by examining the error for known types. It will return true if a code
// was successfully extracted.
func ExtractRejectCode(err error) (RejectCode, bool) {
	var policyErr PolicyError
	if errors.As(err, &policyErr) {
		return policyErr.RejectCode, true
	}

	var ruleErr ruleerrors.RuleError
	if errors.As(err, &ruleErr) {
		switch {
		case errors.Is(err, ruleerrors.ErrDuplicateBlock):
			return RejectDuplicate, true
		case errors.Is(err, ruleerrors.ErrBlockVersionTooOld):
			return RejectObsolete, true
		case errors.Is(err, ruleerrors.ErrFinalityViolation), errors.Is(err, ruleerrors.ErrReorgTooDeep):
			return RejectFinality, true
		case errors.Is(err, ruleerrors.ErrInvalidCompactBlock):
			return RejectMalformed, true
		}
		return RejectInvalid, true
	}

	return RejectInvalid, false
}
