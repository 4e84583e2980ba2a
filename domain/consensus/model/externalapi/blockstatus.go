package externalapi

// BlockStatus represents the validation state of the block.
type BlockStatus byte

const (
	// StatusCandidate indicates that the header and the context free parts
	// of the block are valid, but it has not been connected yet.
	StatusCandidate BlockStatus = iota

	// StatusValid indicates that the block has been fully validated.
	StatusValid

	// StatusInvalid indicates that the block is invalid.
	StatusInvalid

	// StatusActiveTip indicates that the block is the head of the active chain.
	// It is derived from StatusValid and never stored.
	StatusActiveTip

	// StatusStale indicates that the block was fully validated but is not
	// part of the active chain. It is derived from StatusValid and never stored.
	StatusStale
)

var blockStatusStrings = map[BlockStatus]string{
	StatusCandidate: "Candidate",
	StatusValid:     "Valid",
	StatusInvalid:   "Invalid",
	StatusActiveTip: "ActiveTip",
	StatusStale:     "Stale",
}

func (bs BlockStatus) String() string {
	return blockStatusStrings[bs]
}
