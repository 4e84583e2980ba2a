package externalapi

// FinalityStatus is the level of protection a block has against being
// reorganized out of the active chain. Statuses are ordered, so they can be
// compared with < and >.
type FinalityStatus uint8

const (
	// FinalityPending means the block may still be reorganized away
	FinalityPending FinalityStatus = iota

	// FinalitySoft means the block's history is protected from reorgs
	FinalitySoft

	// FinalityHard means the block is past the hard finality threshold
	FinalityHard

	// FinalityIrreversible means the block is past the irreversible threshold
	FinalityIrreversible
)

var finalityStatusStrings = map[FinalityStatus]string{
	FinalityPending:      "PENDING",
	FinalitySoft:         "SOFT_FINAL",
	FinalityHard:         "HARD_FINAL",
	FinalityIrreversible: "IRREVERSIBLE",
}

func (fs FinalityStatus) String() string {
	return finalityStatusStrings[fs]
}
