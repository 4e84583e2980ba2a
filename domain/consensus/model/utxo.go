package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// UTXOView is a read-only view of a UTXO set
type UTXOView interface {
	Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool)
}
