package model

import (
	"time"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// StakeManager checks proof-of-stake kernels and maintains the stake modifier
type StakeManager interface {
	CheckKernel(stakeInput *externalapi.StakeInput, modifier *externalapi.DomainHash,
		blockTime uint32, targetBits uint32, now time.Time, isTrusted bool) bool
	KernelHash(stakeInput *externalapi.StakeInput, modifier *externalapi.DomainHash,
		blockTime uint32) *externalapi.DomainHash
	IsStakeEligible(address []byte, amount uint64, age time.Duration) bool
	NextStakeModifier(parent *BlockNode) *externalapi.DomainHash
	StakeInputFromCoinstake(coinstake *externalapi.DomainTransaction, utxoView UTXOView) (*externalapi.StakeInput, error)
}
