package stakemanager

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes"
	"github.com/tetranet/tetrad/domain/consensus/utils/math"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
)

// stakeManager checks proof-of-stake kernels. A kernel passes when its
// hash is at most the block target multiplied by the weight of the stake,
// so the chance of a stake to find a block grows with its amount and age.
type stakeManager struct {
	minStakeAmount     uint64
	minStakeAge        time.Duration
	maxStakeAge        time.Duration
	stakeAgeUnit       time.Duration
	coinUnit           uint64
	maxFutureBlockTime time.Duration
	maxStakePastDrift  time.Duration
}

// New instantiates a new StakeManager
func New(minStakeAmount uint64,
	minStakeAge time.Duration,
	maxStakeAge time.Duration,
	stakeAgeUnit time.Duration,
	coinUnit uint64,
	maxFutureBlockTime time.Duration,
	maxStakePastDrift time.Duration) model.StakeManager {

	return &stakeManager{
		minStakeAmount:     minStakeAmount,
		minStakeAge:        minStakeAge,
		maxStakeAge:        maxStakeAge,
		stakeAgeUnit:       stakeAgeUnit,
		coinUnit:           coinUnit,
		maxFutureBlockTime: maxFutureBlockTime,
		maxStakePastDrift:  maxStakePastDrift,
	}
}

// CheckKernel returns whether stakeInput may sign a proof-of-stake block
// with the given time and target. It never returns an error: any failed
// precondition makes the kernel fail.
func (sm *stakeManager) CheckKernel(stakeInput *externalapi.StakeInput, modifier *externalapi.DomainHash,
	blockTime uint32, targetBits uint32, now time.Time, isTrusted bool) bool {

	if stakeInput.Amount < sm.minStakeAmount {
		log.Debugf("Stake of %d is below the minimum of %d", stakeInput.Amount, sm.minStakeAmount)
		return false
	}
	if blockTime < stakeInput.SourceTime {
		log.Debugf("Block time %d is before the stake source time %d", blockTime, stakeInput.SourceTime)
		return false
	}
	age := time.Duration(blockTime-stakeInput.SourceTime) * time.Second
	if age < sm.minStakeAge {
		log.Debugf("Stake age %s is below the minimum of %s", age, sm.minStakeAge)
		return false
	}

	blockTimestamp := time.Unix(int64(blockTime), 0)
	if blockTimestamp.After(now.Add(sm.maxFutureBlockTime)) {
		log.Debugf("Block time %s is too far in the future", blockTimestamp)
		return false
	}
	if !isTrusted && sm.maxStakePastDrift > 0 && blockTimestamp.Before(now.Add(-sm.maxStakePastDrift)) {
		log.Debugf("Block time %s is too far in the past", blockTimestamp)
		return false
	}

	target := math.CompactToBig(targetBits)
	if target.Sign() <= 0 {
		return false
	}

	weightedTarget := target.Mul(target, sm.weight(stakeInput.Amount, age))
	kernelHash := sm.KernelHash(stakeInput, modifier, blockTime)
	return hashes.ToBig(kernelHash).Cmp(weightedTarget) <= 0
}

// weight returns amount * min(age, maxStakeAge) / (coinUnit * stakeAgeUnit),
// and at least 1
func (sm *stakeManager) weight(amount uint64, age time.Duration) *big.Int {
	if age > sm.maxStakeAge {
		age = sm.maxStakeAge
	}

	weight := new(big.Int).SetUint64(amount)
	weight.Mul(weight, big.NewInt(int64(age/time.Second)))

	divisor := new(big.Int).SetUint64(sm.coinUnit)
	divisor.Mul(divisor, big.NewInt(int64(sm.stakeAgeUnit/time.Second)))
	if divisor.Sign() > 0 {
		weight.Div(weight, divisor)
	}

	if weight.Sign() <= 0 {
		return big.NewInt(1)
	}
	return weight
}

// KernelHash returns SHA256d(modifier || txHash || LE32(sourceTime) || LE32(blockTime))
func (sm *stakeManager) KernelHash(stakeInput *externalapi.StakeInput, modifier *externalapi.DomainHash,
	blockTime uint32) *externalapi.DomainHash {

	writer := hashes.NewHashWriter()
	writer.InfallibleWrite(modifier.ByteSlice())
	writer.InfallibleWrite(stakeInput.TxHash.ByteSlice())

	var timestamps [8]byte
	binary.LittleEndian.PutUint32(timestamps[:4], stakeInput.SourceTime)
	binary.LittleEndian.PutUint32(timestamps[4:], blockTime)
	writer.InfallibleWrite(timestamps[:])

	return writer.Finalize()
}

// IsStakeEligible returns whether an output of the given amount and age may
// be staked
func (sm *stakeManager) IsStakeEligible(address []byte, amount uint64, age time.Duration) bool {
	return len(address) > 0 && amount >= sm.minStakeAmount && age >= sm.minStakeAge
}

// NextStakeModifier returns SHA256d(parent.StakeModifier || parent.Hash),
// the modifier of a child of parent
func (sm *stakeManager) NextStakeModifier(parent *model.BlockNode) *externalapi.DomainHash {
	writer := hashes.NewHashWriter()
	writer.InfallibleWrite(parent.StakeModifier.ByteSlice())
	writer.InfallibleWrite(parent.Hash.ByteSlice())
	return writer.Finalize()
}

// StakeInputFromCoinstake resolves the output the first input of coinstake
// spends into a StakeInput
func (sm *stakeManager) StakeInputFromCoinstake(coinstake *externalapi.DomainTransaction,
	utxoView model.UTXOView) (*externalapi.StakeInput, error) {

	if !transactionhelper.IsCoinStake(coinstake) {
		return nil, errors.Wrapf(ruleerrors.ErrMissingCoinstake, "transaction does not have the coinstake layout")
	}

	outpoint := coinstake.Inputs[0].PreviousOutpoint
	entry, ok := utxoView.Get(&outpoint)
	if !ok {
		return nil, ruleerrors.NewErrMissingTxOut([]*externalapi.DomainOutpoint{&outpoint})
	}

	return &externalapi.StakeInput{
		Address:    entry.ScriptPublicKey(),
		Amount:     entry.Amount(),
		TxHash:     outpoint.TransactionID,
		SourceTime: entry.BlockTime(),
	}, nil
}
