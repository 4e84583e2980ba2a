package compactblock

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/aead/siphash"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
)

// shortIDMask keeps the low 48 bits of a SipHash digest
const shortIDMask = 0xFFFFFFFFFFFF

// ShortIDKey derives the SipHash key of a compact block: the first 16
// bytes of SHA256(header || LE64(nonce))
func ShortIDKey(header *externalapi.DomainBlockHeader, nonce uint64) *[siphash.KeySize]byte {
	headerBytes := serialization.HeaderToBytes(header)

	var preimage [serialization.HeaderSize + 8]byte
	copy(preimage[:], headerBytes[:])
	binary.LittleEndian.PutUint64(preimage[serialization.HeaderSize:], nonce)
	digest := sha256.Sum256(preimage[:])

	var key [siphash.KeySize]byte
	copy(key[:], digest[:siphash.KeySize])
	return &key
}

// shortIDFunc is the short ID function the codec uses
var shortIDFunc = ShortIDFor

// ShortIDFor returns the short ID of the transaction with the given ID
// under key
func ShortIDFor(key *[siphash.KeySize]byte, transactionID *externalapi.DomainTransactionID) externalapi.ShortID {
	digest := siphash.Sum64(transactionID.ByteSlice(), key) & shortIDMask

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], digest)
	var shortID externalapi.ShortID
	copy(shortID[:], buf[:externalapi.ShortIDSize])
	return shortID
}
