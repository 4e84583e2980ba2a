package externalapi

// UTXOEntry houses details about an individual transaction output in a utxo
// set such as whether or not it was contained in a coinbase or coinstake tx,
// the height and time of the block that contains the tx, its public key
// script, and how much it pays.
type UTXOEntry interface {
	Amount() uint64          // Utxo amount in minor units
	ScriptPublicKey() []byte // The public key script for the output.
	BlockHeight() uint64     // Height of the block containing the tx.
	BlockTime() uint32       // Timestamp of the block containing the tx.
	IsCoinbase() bool
	IsCoinstake() bool
	Equal(other UTXOEntry) bool
}

// OutpointAndUTXOEntryPair is an outpoint along with its
// respective UTXO entry
type OutpointAndUTXOEntryPair struct {
	Outpoint  *DomainOutpoint
	UTXOEntry UTXOEntry
}
