// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"crypto/sha256"
	"time"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

// Policy decides which valid transactions and blocks this node relays and
// mines. It is never consulted for consensus validity.
type Policy struct {
	config        *Config
	honeytraps    map[[sha256.Size]byte]struct{}
	recentRejects *recentRejects
	peerLimiters  *peerLimiters
}

// New creates a new Policy from config
func New(config *Config) (*Policy, error) {
	if config.MaxOpReturnData < 0 || config.MaxOpReturnPerBlock < 0 {
		return nil, errors.Errorf("OP_RETURN limits may not be negative")
	}
	if config.RecentRejectsCapacity == 0 {
		return nil, errors.Errorf("the recent rejects capacity must be positive")
	}
	if config.RecentRejectsFalsePositiveRate <= 0 || config.RecentRejectsFalsePositiveRate >= 1 {
		return nil, errors.Errorf("the recent rejects false positive rate must be in (0, 1), got %f",
			config.RecentRejectsFalsePositiveRate)
	}

	peerLimiters, err := newPeerLimiters(config.PeerMessagesPerSecond, config.PeerBurst, config.PeerLimiterCacheSize)
	if err != nil {
		return nil, err
	}

	honeytraps := make(map[[sha256.Size]byte]struct{}, len(config.HoneytrapSignatureHashes))
	for _, hash := range config.HoneytrapSignatureHashes {
		honeytraps[hash] = struct{}{}
	}

	return &Policy{
		config:        config,
		honeytraps:    honeytraps,
		recentRejects: newRecentRejects(config.RecentRejectsCapacity, config.RecentRejectsFalsePositiveRate),
		peerLimiters:  peerLimiters,
	}, nil
}

// CheckTransactionStandard performs the context free policy checks of a
// transaction: its size, the form of its scripts and its outputs.
func (p *Policy) CheckTransactionStandard(transaction *externalapi.DomainTransaction) error {
	transactionID := consensushashing.TransactionID(transaction)

	// Since extremely large transactions with a lot of inputs can cost
	// almost as much to process as the sender fees, limit the maximum
	// size of a transaction. This also helps mitigate CPU exhaustion
	// attacks.
	size := uint64(serialization.TransactionSerializeSize(transaction))
	if size > p.config.MaxStandardTxSize {
		return errors.Wrapf(ErrTxTooLarge, "transaction %s has a size of %d which is larger "+
			"than the max allowed size of %d", transactionID, size, p.config.MaxStandardTxSize)
	}

	err := p.checkHoneytrapSignatures(transaction)
	if err != nil {
		return errors.Wrapf(err, "transaction %s", transactionID)
	}

	opReturns := 0
	for i, output := range transaction.Outputs {
		scriptClass := txscript.GetScriptClass(output.ScriptPublicKey)
		switch scriptClass {
		case txscript.NullDataTy:
			opReturns++
			if opReturns > 1 {
				return errors.Wrapf(ErrMultipleOpReturns, "transaction %s has more than one "+
					"OP_RETURN output", transactionID)
			}
			payload := txscript.NullDataPayload(output.ScriptPublicKey)
			if len(payload) > p.config.MaxOpReturnData {
				return errors.Wrapf(ErrOpReturnTooLarge, "transaction %s output %d carries %d bytes, "+
					"max %d", transactionID, i, len(payload), p.config.MaxOpReturnData)
			}
			continue

		case txscript.NonStandardTy:
			if !p.config.AcceptNonStandard {
				return errors.Wrapf(ErrNonStandard, "transaction %s output %d has a non-standard "+
					"script form", transactionID, i)
			}
		}

		if p.IsDust(output) {
			return errors.Wrapf(ErrDust, "transaction %s output %d pays %d which is below the dust "+
				"threshold of %d", transactionID, i, output.Value, p.config.DustThreshold)
		}
	}

	return nil
}

// IsDust returns whether output pays less than the dust threshold.
// OP_RETURN outputs are never dust.
func (p *Policy) IsDust(output *externalapi.DomainTransactionOutput) bool {
	if txscript.GetScriptClass(output.ScriptPublicKey) == txscript.NullDataTy {
		return false
	}
	return output.Value < p.config.DustThreshold
}

// CheckTransactionFee makes sure the fee of transaction is at least the
// minimum relay fee for its size
func (p *Policy) CheckTransactionFee(transaction *externalapi.DomainTransaction, fee uint64) error {
	size := uint64(serialization.TransactionSerializeSize(transaction))
	minimumFee := p.MinimumRelayFee(size)
	if fee < minimumFee {
		return errors.Wrapf(ErrInsufficientFee, "transaction %s has %d fees which is under "+
			"the required amount of %d", consensushashing.TransactionID(transaction), fee, minimumFee)
	}
	return nil
}

// MinimumRelayFee returns the minimum fee a transaction of the given
// serialized size must pay to be relayed
func (p *Policy) MinimumRelayFee(size uint64) uint64 {
	return calcMinRequiredTxRelayFee(size, p.config.MinRelayTxFee)
}

// calcMinRequiredTxRelayFee returns the minimum transaction fee required for a
// transaction with the passed serialized size to be accepted into the memory
// pool and relayed.
func calcMinRequiredTxRelayFee(serializedSize uint64, minRelayTxFee uint64) uint64 {
	// Calculate the minimum fee for a transaction to be allowed into the
	// mempool and relayed by scaling the base fee. minRelayTxFee is in
	// minor units/kB so multiply by serializedSize (which is in bytes) and
	// divide by 1000 to get minimum units.
	minFee := (serializedSize * minRelayTxFee) / 1000

	if minFee == 0 && minRelayTxFee > 0 {
		minFee = minRelayTxFee
	}

	// Set the minimum fee to the maximum possible value if the calculated
	// fee is not in the valid range for monetary amounts.
	if minFee > constants.MaxAmount {
		minFee = constants.MaxAmount
	}

	return minFee
}

// CountOpReturns returns the number of OP_RETURN outputs of transaction
func CountOpReturns(transaction *externalapi.DomainTransaction) int {
	count := 0
	for _, output := range transaction.Outputs {
		if txscript.GetScriptClass(output.ScriptPublicKey) == txscript.NullDataTy {
			count++
		}
	}
	return count
}

// MaxOpReturnPerBlock returns the largest number of OP_RETURN outputs a
// block may carry
func (p *Policy) MaxOpReturnPerBlock() int {
	return p.config.MaxOpReturnPerBlock
}

// CheckBlockStandard performs the block level policy checks
func (p *Policy) CheckBlockStandard(block *externalapi.DomainBlock) error {
	opReturns := 0
	for _, transaction := range block.Transactions {
		opReturns += CountOpReturns(transaction)
	}
	if opReturns > p.config.MaxOpReturnPerBlock {
		return errors.Wrapf(ErrTooManyOpReturnsInBlock, "block %s has %d OP_RETURN outputs, max %d",
			consensushashing.BlockHash(block), opReturns, p.config.MaxOpReturnPerBlock)
	}
	return nil
}

// AddRecentReject remembers transactionID as recently rejected
func (p *Policy) AddRecentReject(transactionID *externalapi.DomainTransactionID) {
	p.recentRejects.add(transactionID)
}

// IsRecentlyRejected returns whether transactionID was recently rejected.
// False positives are possible at the configured rate.
func (p *Policy) IsRecentlyRejected(transactionID *externalapi.DomainTransactionID) bool {
	return p.recentRejects.contains(transactionID)
}

// ResetRecentRejects forgets all recent rejects. Rejections may depend on
// the chain state, so this is done whenever the active tip changes.
func (p *Policy) ResetRecentRejects() {
	p.recentRejects.reset()
}

// AllowPeerMessage consumes one token from the bucket of peer and returns
// whether there was one to consume
func (p *Policy) AllowPeerMessage(peer string) bool {
	return p.peerLimiters.allow(peer, time.Now())
}

// CheckPeerMessage is like AllowPeerMessage but returns ErrRateLimited
// when the peer is out of tokens
func (p *Policy) CheckPeerMessage(peer string) error {
	if !p.AllowPeerMessage(peer) {
		log.Debugf("Peer %s exceeded its message rate", peer)
		return errors.Wrapf(ErrRateLimited, "peer %s sent too many messages", peer)
	}
	return nil
}
