package utxo

import (
	"bytes"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

type utxoEntry struct {
	amount          uint64
	scriptPublicKey []byte
	blockHeight     uint64
	blockTime       uint32
	isCoinbase      bool
	isCoinstake     bool
}

// NewUTXOEntry creates a new utxoEntry representing the given txOut
func NewUTXOEntry(amount uint64, scriptPubKey []byte, blockHeight uint64, blockTime uint32,
	isCoinbase bool, isCoinstake bool) externalapi.UTXOEntry {

	return &utxoEntry{
		amount:          amount,
		scriptPublicKey: scriptPubKey,
		blockHeight:     blockHeight,
		blockTime:       blockTime,
		isCoinbase:      isCoinbase,
		isCoinstake:     isCoinstake,
	}
}

func (u *utxoEntry) Amount() uint64 {
	return u.amount
}

func (u *utxoEntry) ScriptPublicKey() []byte {
	clone := make([]byte, len(u.scriptPublicKey))
	copy(clone, u.scriptPublicKey)
	return clone
}

func (u *utxoEntry) BlockHeight() uint64 {
	return u.blockHeight
}

func (u *utxoEntry) BlockTime() uint32 {
	return u.blockTime
}

func (u *utxoEntry) IsCoinbase() bool {
	return u.isCoinbase
}

func (u *utxoEntry) IsCoinstake() bool {
	return u.isCoinstake
}

// Equal returns whether entry equals to other
func (u *utxoEntry) Equal(other externalapi.UTXOEntry) bool {
	if u == nil || other == nil {
		return u == nil && other == nil
	}

	return u.Amount() == other.Amount() &&
		bytes.Equal(u.scriptPublicKey, other.ScriptPublicKey()) &&
		u.BlockHeight() == other.BlockHeight() &&
		u.BlockTime() == other.BlockTime() &&
		u.IsCoinbase() == other.IsCoinbase() &&
		u.IsCoinstake() == other.IsCoinstake()
}
