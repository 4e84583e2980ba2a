// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainconfig

import (
	"math"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// genesisCoinbaseTx is the coinbase transaction of the genesis blocks of all
// default networks. Its single output is provably unspendable.
var genesisCoinbaseTx = &externalapi.DomainTransaction{
	Version: 1,
	Inputs: []*externalapi.DomainTransactionInput{
		{
			PreviousOutpoint: externalapi.DomainOutpoint{
				TransactionID: externalapi.DomainTransactionID{},
				Index:         math.MaxUint32,
			},
			SignatureScript: []byte{
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, /* |........| */
				0x74, 0x65, 0x74, 0x72, 0x61, 0x64, 0x20, 0x67, /* |tetrad g| */
				0x65, 0x6e, 0x65, 0x73, 0x69, 0x73, 0x3a, 0x20, /* |enesis: | */
				0x66, 0x6f, 0x75, 0x72, 0x20, 0x6c, 0x61, 0x6e, /* |four lan| */
				0x65, 0x73, 0x2c, 0x20, 0x6f, 0x6e, 0x65, 0x20, /* |es, one | */
				0x63, 0x68, 0x61, 0x69, 0x6e, /* |chain| */
			},
			Sequence: math.MaxUint64,
		},
	},
	Outputs: []*externalapi.DomainTransactionOutput{
		{
			Value:           0,
			ScriptPublicKey: []byte{0x6a},
		},
	},
	LockTime: 0,
}

// genesisMerkleRoot is the hash of the only transaction of the genesis
// blocks.
var genesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x0e, 0x20, 0x84, 0x6e, 0xa3, 0x51, 0x02, 0x79,
	0x3d, 0x86, 0xad, 0x0c, 0x5f, 0x2f, 0x61, 0x33,
	0xd7, 0x8e, 0x0b, 0x80, 0xc8, 0xb3, 0xbe, 0xe0,
	0xcb, 0x20, 0xd4, 0xa1, 0xb7, 0x9d, 0x02, 0xeb,
})

// genesisHash is the hash of the first block in the block chain for the main network.
var genesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x63, 0xa0, 0xa7, 0x16, 0x67, 0x97, 0x49, 0x2d,
	0xfc, 0xd1, 0xac, 0xe6, 0xbc, 0xc0, 0x8c, 0x01,
	0xa7, 0x00, 0x91, 0x05, 0x8e, 0x29, 0x98, 0x56,
	0x24, 0x14, 0x07, 0x34, 0x50, 0xa2, 0xbe, 0x78,
})

// genesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the main network.
var genesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    *genesisMerkleRoot,
		Time:          1735689600,
		Bits:          0x1d00ffff,
		Nonce:         0,
	},
	Transactions: []*externalapi.DomainTransaction{genesisCoinbaseTx},
}

// testnetGenesisHash is the hash of the first block in the block chain for the test network.
var testnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x36, 0xfa, 0x2f, 0xc8, 0xec, 0xee, 0x02, 0x4f,
	0x70, 0x3a, 0x21, 0xbf, 0x85, 0xdc, 0xac, 0x3a,
	0x5c, 0xf1, 0xdd, 0xff, 0xdc, 0x78, 0x4f, 0x37,
	0x1d, 0x53, 0xa5, 0xfb, 0xdf, 0x0e, 0x17, 0x89,
})

// testnetGenesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the test network.
var testnetGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    *genesisMerkleRoot,
		Time:          1735776000,
		Bits:          0x1f00ffff,
		Nonce:         0,
	},
	Transactions: []*externalapi.DomainTransaction{genesisCoinbaseTx},
}

// simnetGenesisHash is the hash of the first block in the block chain for the simulation test network.
var simnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xbc, 0xfb, 0xc9, 0xb0, 0x0d, 0x98, 0x08, 0xa9,
	0x5c, 0xa7, 0x26, 0x69, 0xfb, 0x5b, 0x2c, 0x69,
	0x56, 0xd7, 0x1d, 0xfb, 0xe6, 0xc4, 0xac, 0x68,
	0x60, 0x57, 0x59, 0x5e, 0xf5, 0xce, 0x58, 0x36,
})

// simnetGenesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the simulation test network.
var simnetGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    *genesisMerkleRoot,
		Time:          1735862400,
		Bits:          0x207fffff,
		Nonce:         0,
	},
	Transactions: []*externalapi.DomainTransaction{genesisCoinbaseTx},
}

// regtestGenesisHash is the hash of the first block in the block chain for the regression test network.
var regtestGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xd0, 0x6c, 0xc8, 0xd5, 0x01, 0x4f, 0x09, 0x12,
	0x37, 0xb7, 0x5d, 0x9f, 0x03, 0x48, 0x52, 0x18,
	0x2b, 0x57, 0x12, 0x5c, 0xbf, 0x1b, 0xb1, 0x24,
	0xcb, 0x2f, 0x44, 0x83, 0x63, 0x8f, 0x68, 0xb4,
})

// regtestGenesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the regression test network.
var regtestGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:       1,
		PrevBlockHash: externalapi.DomainHash{},
		MerkleRoot:    *genesisMerkleRoot,
		Time:          1735948800,
		Bits:          0x207fffff,
		Nonce:         0,
	},
	Transactions: []*externalapi.DomainTransaction{genesisCoinbaseTx},
}
