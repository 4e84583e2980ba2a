/*
Package compactblock implements the compact block relay encoding: blocks
are sent as their header, a prefilled coinbase and a 6 byte short ID for
every other transaction. The receiver rebuilds the block from the
transactions it already knows, and asks for the rest by index.
*/
package compactblock

import (
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
)

// Encode returns the compact form of block. nonce salts the short IDs so
// that collisions differ between peers and relays.
func Encode(block *externalapi.DomainBlock, nonce uint64) *externalapi.CompactBlock {
	key := ShortIDKey(block.Header, nonce)

	compactBlock := &externalapi.CompactBlock{
		Header: block.Header.Clone(),
		Nonce:  nonce,
		PrefilledTransactions: []*externalapi.PrefilledTransaction{{
			Index:       0,
			Transaction: block.Transactions[0].Clone(),
		}},
		ShortIDs: make([]externalapi.ShortID, 0, len(block.Transactions)-1),
	}
	for _, transaction := range block.Transactions[1:] {
		compactBlock.ShortIDs = append(compactBlock.ShortIDs,
			shortIDFunc(key, consensushashing.TransactionID(transaction)))
	}
	return compactBlock
}
