package pow

import (
	"crypto/sha256"
	"testing"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/hashes/groestl"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"golang.org/x/crypto/scrypt"
	"pgregory.net/rapid"
)

func TestSelectAlgorithm(t *testing.T) {
	tests := []struct {
		height      uint64
		posInterval uint64
		expected    externalapi.Algorithm
	}{
		{0, 10, externalapi.AlgorithmSHA256d},
		{1, 10, externalapi.AlgorithmScrypt},
		{2, 10, externalapi.AlgorithmGroestl},
		{3, 10, externalapi.AlgorithmSHA256d},
		{10, 10, externalapi.AlgorithmProofOfStake},
		{11, 10, externalapi.AlgorithmGroestl},
		{20, 10, externalapi.AlgorithmProofOfStake},
		{30, 10, externalapi.AlgorithmProofOfStake},
		{10, 0, externalapi.AlgorithmScrypt},
		{0, 1, externalapi.AlgorithmSHA256d},
		{5, 1, externalapi.AlgorithmProofOfStake},
	}

	for _, test := range tests {
		algorithm := SelectAlgorithm(test.height, test.posInterval)
		if algorithm != test.expected {
			t.Errorf("TestSelectAlgorithm: height %d with interval %d: expected %s but got %s",
				test.height, test.posInterval, test.expected, algorithm)
		}
	}
}

func TestSelectAlgorithmProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		height := rapid.Uint64().Draw(t, "height")
		posInterval := rapid.Uint64Range(0, 1000).Draw(t, "posInterval")

		algorithm := SelectAlgorithm(height, posInterval)
		if algorithm != SelectAlgorithm(height, posInterval) {
			t.Fatalf("the selection is not deterministic")
		}
		if !algorithm.IsValid() {
			t.Fatalf("got invalid algorithm %d", algorithm)
		}

		isStakeSlot := posInterval > 0 && height > 0 && height%posInterval == 0
		if isStakeSlot != (algorithm == externalapi.AlgorithmProofOfStake) {
			t.Fatalf("height %d interval %d: unexpected algorithm %s", height, posInterval, algorithm)
		}
		if !isStakeSlot && algorithm != powAlgorithms[height%3] {
			t.Fatalf("height %d: expected %s but got %s", height, powAlgorithms[height%3], algorithm)
		}
		if BlockTypeForHeight(height, posInterval) != algorithm.BlockType() {
			t.Fatalf("the block type does not follow the algorithm")
		}
	})
}

func TestHashConstructions(t *testing.T) {
	header := &externalapi.DomainBlockHeader{Version: 1, Time: 1735689600, Bits: 0x207fffff, Nonce: 42}
	headerBytes := serialization.HeaderToBytes(header)

	first := sha256.Sum256(headerBytes[:])
	second := sha256.Sum256(first[:])
	if *Hash(headerBytes, externalapi.AlgorithmSHA256d).ByteArray() != second {
		t.Fatalf("TestHashConstructions: unexpected SHA256d hash")
	}
	if *Hash(headerBytes, externalapi.AlgorithmProofOfStake).ByteArray() != second {
		t.Fatalf("TestHashConstructions: proof-of-stake slots must hash with SHA256d")
	}

	expectedScrypt, err := scrypt.Key(headerBytes[:], headerBytes[:], 1024, 1, 1, 32)
	if err != nil {
		t.Fatalf("TestHashConstructions: scrypt.Key: %+v", err)
	}
	if string(Hash(headerBytes, externalapi.AlgorithmScrypt).ByteSlice()) != string(expectedScrypt) {
		t.Fatalf("TestHashConstructions: unexpected scrypt hash")
	}

	groestlFirst := groestl.Sum512(headerBytes[:])
	groestlSecond := groestl.Sum512(groestlFirst[:])
	if string(Hash(headerBytes, externalapi.AlgorithmGroestl).ByteSlice()) != string(groestlSecond[:32]) {
		t.Fatalf("TestHashConstructions: unexpected groestl hash")
	}
}

func TestHashAlgorithmSeparation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		header := &externalapi.DomainBlockHeader{
			Version: rapid.Int32().Draw(t, "version"),
			Time:    rapid.Uint32().Draw(t, "time"),
			Bits:    rapid.Uint32().Draw(t, "bits"),
			Nonce:   rapid.Uint32().Draw(t, "nonce"),
		}
		headerBytes := serialization.HeaderToBytes(header)

		sha := Hash(headerBytes, externalapi.AlgorithmSHA256d)
		scryptHash := Hash(headerBytes, externalapi.AlgorithmScrypt)
		groestlHash := Hash(headerBytes, externalapi.AlgorithmGroestl)

		if !sha.Equal(Hash(headerBytes, externalapi.AlgorithmSHA256d)) ||
			!scryptHash.Equal(Hash(headerBytes, externalapi.AlgorithmScrypt)) ||
			!groestlHash.Equal(Hash(headerBytes, externalapi.AlgorithmGroestl)) {
			t.Fatalf("hashing is not deterministic")
		}
		if sha.Equal(scryptHash) || sha.Equal(groestlHash) || scryptHash.Equal(groestlHash) {
			t.Fatalf("two algorithms produced the same hash")
		}
	})
}

func TestCheckProofOfWork(t *testing.T) {
	header := &externalapi.DomainBlockHeader{Version: 1, Time: 1735689600, Bits: 0x207fffff}

	// Find a nonce that satisfies the easiest target, then make sure the
	// same header fails an impossible one.
	for !CheckProofOfWorkByBits(header, externalapi.AlgorithmScrypt) {
		header.Nonce++
	}
	header.Bits = 0x03000001
	if CheckProofOfWorkByBits(header, externalapi.AlgorithmScrypt) {
		t.Fatalf("TestCheckProofOfWork: a target of 1 was satisfied")
	}
}
