package externalapi

// StakeInput is an output claimed as the stake of a proof-of-stake block
type StakeInput struct {
	// Address is the locking script of the staked output
	Address []byte

	// Amount is the staked amount in minor units
	Amount uint64

	// TxHash is the ID of the transaction that created the staked output
	TxHash DomainTransactionID

	// SourceTime is the timestamp of the block containing the staked output
	SourceTime uint32
}
