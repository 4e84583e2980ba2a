package utxo

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// Set is an in-memory UTXO set. It is not safe for concurrent mutation:
// the consensus lock guards it.
type Set struct {
	entries map[externalapi.DomainOutpoint]externalapi.UTXOEntry
}

// NewSet returns an empty UTXO set
func NewSet() *Set {
	return &Set{entries: make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry)}
}

// Get returns the entry of outpoint, if it is unspent
func (s *Set) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	entry, ok := s.entries[*outpoint]
	return entry, ok
}

// Len returns the number of unspent outputs
func (s *Set) Len() int {
	return len(s.entries)
}

// ApplyDiff removes the spent entries of diff and adds its new ones. The
// set is left untouched if the diff does not fit it.
func (s *Set) ApplyDiff(diff *Diff) error {
	for outpoint := range diff.ToRemove {
		if _, ok := s.entries[outpoint]; !ok {
			return errors.Errorf("cannot remove outpoint %s that is not in the set", outpoint)
		}
	}
	for outpoint := range diff.ToAdd {
		if _, ok := s.entries[outpoint]; ok {
			if _, removedToo := diff.ToRemove[outpoint]; !removedToo {
				return errors.Errorf("cannot add outpoint %s that is already in the set", outpoint)
			}
		}
	}

	for outpoint := range diff.ToRemove {
		delete(s.entries, outpoint)
	}
	for outpoint, entry := range diff.ToAdd {
		s.entries[outpoint] = entry
	}
	return nil
}
