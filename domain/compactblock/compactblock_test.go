package compactblock

import (
	"reflect"
	"testing"

	"github.com/aead/siphash"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/merkle"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/domain/consensus/utils/testutils"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
)

func testTransaction(seed byte) *externalapi.DomainTransaction {
	var previousIDBytes [externalapi.DomainHashSize]byte
	previousIDBytes[0] = seed
	previousID := *externalapi.NewDomainHashFromByteArray(&previousIDBytes)
	return transactionhelper.NewNativeTransaction(
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: previousID, Index: uint32(seed)},
			SignatureScript:  []byte{seed},
		}},
		[]*externalapi.DomainTransactionOutput{{
			Value:           uint64(seed) * 1000,
			ScriptPublicKey: testutils.OpTrueScript(),
		}})
}

func testBlock(transactionCount int) *externalapi.DomainBlock {
	transactions := []*externalapi.DomainTransaction{
		transactionhelper.NewCoinbaseTransaction(1, nil, testutils.OpTrueScript(), 50),
	}
	for i := 1; i < transactionCount; i++ {
		transactions = append(transactions, testTransaction(byte(i)))
	}
	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:    1,
			MerkleRoot: *merkle.CalculateHashMerkleRoot(transactions),
			Time:       1600000000,
			Bits:       0x207fffff,
			Nonce:      7,
		},
		Transactions: transactions,
	}
}

func TestEncodeAndReconstruct(t *testing.T) {
	block := testBlock(6)
	compactBlock := Encode(block, 12345)

	if compactBlock.TransactionCount() != len(block.Transactions) {
		t.Fatalf("TestEncodeAndReconstruct: expected %d transactions but got %d",
			len(block.Transactions), compactBlock.TransactionCount())
	}
	if len(compactBlock.PrefilledTransactions) != 1 || compactBlock.PrefilledTransactions[0].Index != 0 {
		t.Fatalf("TestEncodeAndReconstruct: expected only the coinbase to be prefilled")
	}

	// The pool is a superset of the block transactions, in another order
	pool := []*externalapi.DomainTransaction{testTransaction(100), testTransaction(101)}
	for i := len(block.Transactions) - 1; i >= 1; i-- {
		pool = append(pool, block.Transactions[i])
	}

	partial, err := Reconstruct(compactBlock, pool)
	if err != nil {
		t.Fatalf("TestEncodeAndReconstruct: Reconstruct: %+v", err)
	}
	if !partial.IsComplete() {
		t.Fatalf("TestEncodeAndReconstruct: expected a complete reconstruction, missing %v",
			partial.MissingIndexes())
	}
	reconstructed, err := partial.Block()
	if err != nil {
		t.Fatalf("TestEncodeAndReconstruct: Block: %+v", err)
	}
	if !reconstructed.Equal(block) {
		t.Fatalf("TestEncodeAndReconstruct: the reconstructed block differs from the original:\n%s",
			spew.Sdump(reconstructed))
	}
	if !partial.BlockHash().Equal(consensushashing.BlockHash(block)) {
		t.Fatalf("TestEncodeAndReconstruct: unexpected block hash")
	}
}

func TestShortIDsDependOnNonce(t *testing.T) {
	block := testBlock(2)
	first := Encode(block, 1)
	second := Encode(block, 2)
	if first.ShortIDs[0] == second.ShortIDs[0] {
		t.Fatalf("TestShortIDsDependOnNonce: expected different short IDs for different nonces")
	}

	key := ShortIDKey(block.Header, 1)
	if *key == ([siphash.KeySize]byte{}) {
		t.Fatalf("TestShortIDsDependOnNonce: unexpected zero key")
	}
	shortID := ShortIDFor(key, consensushashing.TransactionID(block.Transactions[1]))
	if shortID != first.ShortIDs[0] {
		t.Fatalf("TestShortIDsDependOnNonce: ShortIDFor disagrees with Encode")
	}
}

func TestReconstructMissingTransaction(t *testing.T) {
	block := testBlock(5)
	compactBlock := Encode(block, 99)

	// Leave transaction #3 out of the pool
	pool := []*externalapi.DomainTransaction{block.Transactions[1], block.Transactions[2], block.Transactions[4]}
	partial, err := Reconstruct(compactBlock, pool)
	if err != nil {
		t.Fatalf("TestReconstructMissingTransaction: Reconstruct: %+v", err)
	}
	if !reflect.DeepEqual(partial.MissingIndexes(), []int{3}) {
		t.Fatalf("TestReconstructMissingTransaction: expected missing [3] but got %v", partial.MissingIndexes())
	}
	_, err = partial.Block()
	if !errors.Is(err, ruleerrors.ErrReconstructionIncomplete) {
		t.Fatalf("TestReconstructMissingTransaction: expected ErrReconstructionIncomplete but got %v", err)
	}

	err = partial.Fill([]*externalapi.DomainTransaction{testTransaction(200)})
	if !errors.Is(err, ruleerrors.ErrReconstructionIncomplete) {
		t.Fatalf("TestReconstructMissingTransaction: expected a mismatching fill to fail but got %v", err)
	}
	err = partial.Fill(nil)
	if !errors.Is(err, ruleerrors.ErrReconstructionIncomplete) {
		t.Fatalf("TestReconstructMissingTransaction: expected an empty fill to fail but got %v", err)
	}

	err = partial.Fill([]*externalapi.DomainTransaction{block.Transactions[3]})
	if err != nil {
		t.Fatalf("TestReconstructMissingTransaction: Fill: %+v", err)
	}
	reconstructed, err := partial.Block()
	if err != nil {
		t.Fatalf("TestReconstructMissingTransaction: Block: %+v", err)
	}
	if !reconstructed.Equal(block) {
		t.Fatalf("TestReconstructMissingTransaction: the reconstructed block differs from the original")
	}
}

func TestReconstructCollision(t *testing.T) {
	// Short IDs made of the first byte of the transaction ID collide often
	originalShortIDFunc := shortIDFunc
	defer func() { shortIDFunc = originalShortIDFunc }()
	shortIDFunc = func(_ *[siphash.KeySize]byte, transactionID *externalapi.DomainTransactionID) externalapi.ShortID {
		return externalapi.ShortID{transactionID.ByteSlice()[0]}
	}

	block := testBlock(3)
	target := block.Transactions[1]
	targetShortID := shortIDFunc(nil, consensushashing.TransactionID(target))

	var impostor *externalapi.DomainTransaction
	for seed := 0; seed < 256*16; seed++ {
		candidate := testTransaction(byte(seed))
		candidate.LockTime = uint64(seed)
		candidateID := consensushashing.TransactionID(candidate)
		if shortIDFunc(nil, candidateID) == targetShortID && !candidateID.Equal(consensushashing.TransactionID(target)) {
			impostor = candidate
			break
		}
	}
	if impostor == nil {
		t.Fatalf("TestReconstructCollision: could not find a colliding transaction")
	}

	compactBlock := Encode(block, 1)
	pool := []*externalapi.DomainTransaction{target, impostor, block.Transactions[2]}
	partial, err := Reconstruct(compactBlock, pool)
	if err != nil {
		t.Fatalf("TestReconstructCollision: Reconstruct: %+v", err)
	}
	missing := partial.MissingIndexes()
	if len(missing) == 0 || missing[0] != 1 {
		t.Fatalf("TestReconstructCollision: expected the colliding slot 1 to stay unresolved, missing %v", missing)
	}
}

func TestReconstructDuplicateShortIDs(t *testing.T) {
	block := testBlock(3)
	compactBlock := Encode(block, 1)
	compactBlock.ShortIDs[1] = compactBlock.ShortIDs[0]

	partial, err := Reconstruct(compactBlock, block.Transactions[1:])
	if err != nil {
		t.Fatalf("TestReconstructDuplicateShortIDs: Reconstruct: %+v", err)
	}
	if !reflect.DeepEqual(partial.MissingIndexes(), []int{1, 2}) {
		t.Fatalf("TestReconstructDuplicateShortIDs: expected missing [1 2] but got %v", partial.MissingIndexes())
	}
}

func TestReconstructInvalidStructure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(compactBlock *externalapi.CompactBlock)
	}{
		{
			name: "no prefilled coinbase",
			mutate: func(compactBlock *externalapi.CompactBlock) {
				compactBlock.PrefilledTransactions = nil
			},
		},
		{
			name: "coinbase not at index 0",
			mutate: func(compactBlock *externalapi.CompactBlock) {
				compactBlock.PrefilledTransactions[0].Index = 1
			},
		},
		{
			name: "second coinbase",
			mutate: func(compactBlock *externalapi.CompactBlock) {
				compactBlock.PrefilledTransactions = append(compactBlock.PrefilledTransactions,
					&externalapi.PrefilledTransaction{
						Index:       1,
						Transaction: compactBlock.PrefilledTransactions[0].Transaction,
					})
			},
		},
		{
			name: "prefilled index out of range",
			mutate: func(compactBlock *externalapi.CompactBlock) {
				compactBlock.PrefilledTransactions = append(compactBlock.PrefilledTransactions,
					&externalapi.PrefilledTransaction{Index: 10, Transaction: testTransaction(1)})
			},
		},
	}

	for _, test := range tests {
		compactBlock := Encode(testBlock(3), 1)
		test.mutate(compactBlock)
		_, err := Reconstruct(compactBlock, nil)
		if !errors.Is(err, ruleerrors.ErrInvalidCompactBlock) {
			t.Fatalf("TestReconstructInvalidStructure: %s: expected ErrInvalidCompactBlock but got %v",
				test.name, err)
		}
	}
}

func TestWireRoundTrip(t *testing.T) {
	block := testBlock(4)
	compactBlock := Encode(block, 0xdeadbeef)
	compactBlock.PrefilledTransactions = append(compactBlock.PrefilledTransactions,
		&externalapi.PrefilledTransaction{Index: 2, Transaction: block.Transactions[2]})
	compactBlock.ShortIDs = append(compactBlock.ShortIDs[:1], compactBlock.ShortIDs[2:]...)

	serialized := ToBytes(compactBlock)
	expectedLength := 80 + 8 + 1 + 1 + len(serialization.TransactionToBytes(block.Transactions[0])) +
		1 + len(serialization.TransactionToBytes(block.Transactions[2])) + 1 + 2*externalapi.ShortIDSize
	if len(serialized) != expectedLength {
		t.Fatalf("TestWireRoundTrip: expected %d bytes but got %d", expectedLength, len(serialized))
	}

	deserialized, err := FromBytes(serialized)
	if err != nil {
		t.Fatalf("TestWireRoundTrip: FromBytes: %+v", err)
	}
	if !deserialized.Header.Equal(compactBlock.Header) || deserialized.Nonce != compactBlock.Nonce ||
		!reflect.DeepEqual(deserialized.ShortIDs, compactBlock.ShortIDs) ||
		len(deserialized.PrefilledTransactions) != len(compactBlock.PrefilledTransactions) {
		t.Fatalf("TestWireRoundTrip: round trip mismatch:\n%s\n%s", spew.Sdump(deserialized), spew.Sdump(compactBlock))
	}
	for i, prefilled := range deserialized.PrefilledTransactions {
		expected := compactBlock.PrefilledTransactions[i]
		if prefilled.Index != expected.Index || !prefilled.Transaction.Equal(expected.Transaction) {
			t.Fatalf("TestWireRoundTrip: prefilled transaction #%d mismatch", i)
		}
	}

	_, err = FromBytes(serialized[:len(serialized)-1])
	if !errors.Is(err, ruleerrors.ErrInvalidCompactBlock) {
		t.Fatalf("TestWireRoundTrip: expected a truncated compact block to be invalid but got %v", err)
	}
	_, err = FromBytes(append(serialized, 0))
	if !errors.Is(err, ruleerrors.ErrInvalidCompactBlock) {
		t.Fatalf("TestWireRoundTrip: expected trailing bytes to be invalid but got %v", err)
	}
}

func TestReconstructorRetryBudget(t *testing.T) {
	block := testBlock(4)
	compactBlock := Encode(block, 5)
	reconstructor, err := NewReconstructor(DefaultRetryBudget, DefaultMaxPendingBlocks)
	if err != nil {
		t.Fatalf("TestReconstructorRetryBudget: NewReconstructor: %+v", err)
	}

	partial, err := reconstructor.Reconstruct(compactBlock, nil)
	if err != nil {
		t.Fatalf("TestReconstructorRetryBudget: Reconstruct: %+v", err)
	}
	if !reflect.DeepEqual(partial.MissingIndexes(), []int{1, 2, 3}) {
		t.Fatalf("TestReconstructorRetryBudget: unexpected missing indexes %v", partial.MissingIndexes())
	}
	if reconstructor.PendingCount() != 1 {
		t.Fatalf("TestReconstructorRetryBudget: expected one pending block")
	}

	blockHash := consensushashing.BlockHash(block)
	_, err = reconstructor.FillMissing(blockHash, block.Transactions[1:3])
	if !errors.Is(err, ruleerrors.ErrReconstructionIncomplete) {
		t.Fatalf("TestReconstructorRetryBudget: expected ErrReconstructionIncomplete but got %v", err)
	}
	_, err = reconstructor.FillMissing(blockHash, block.Transactions[1:3])
	if !errors.Is(err, ruleerrors.ErrFullBlockRequired) {
		t.Fatalf("TestReconstructorRetryBudget: expected ErrFullBlockRequired but got %v", err)
	}
	if reconstructor.PendingCount() != 0 {
		t.Fatalf("TestReconstructorRetryBudget: expected the block to be dropped")
	}

	// A successful fill completes the block
	_, err = reconstructor.Reconstruct(compactBlock, nil)
	if err != nil {
		t.Fatalf("TestReconstructorRetryBudget: Reconstruct: %+v", err)
	}
	partial, err = reconstructor.FillMissing(blockHash, block.Transactions[1:])
	if err != nil {
		t.Fatalf("TestReconstructorRetryBudget: FillMissing: %+v", err)
	}
	reconstructed, err := partial.Block()
	if err != nil || !reconstructed.Equal(block) {
		t.Fatalf("TestReconstructorRetryBudget: unexpected reconstruction result: %v", err)
	}
}

func TestReconstructorPendingCap(t *testing.T) {
	const maxPendingBlocks = 10
	reconstructor, err := NewReconstructor(DefaultRetryBudget, maxPendingBlocks)
	if err != nil {
		t.Fatalf("TestReconstructorPendingCap: NewReconstructor: %+v", err)
	}

	var firstHash *externalapi.DomainHash
	var lastBlock *externalapi.DomainBlock
	for i := 0; i < 1000; i++ {
		block := testBlock(3)
		block.Header.Time = uint32(i)
		if i == 0 {
			firstHash = consensushashing.BlockHash(block)
		}
		lastBlock = block

		_, err := reconstructor.Reconstruct(Encode(block, uint64(i)), nil)
		if err != nil {
			t.Fatalf("TestReconstructorPendingCap: Reconstruct: %+v", err)
		}
		if reconstructor.PendingCount() > maxPendingBlocks {
			t.Fatalf("TestReconstructorPendingCap: %d blocks are pending, more than the maximum of %d",
				reconstructor.PendingCount(), maxPendingBlocks)
		}
	}
	if reconstructor.PendingCount() != maxPendingBlocks {
		t.Fatalf("TestReconstructorPendingCap: expected %d pending blocks but got %d",
			maxPendingBlocks, reconstructor.PendingCount())
	}

	_, err = reconstructor.FillMissing(firstHash, nil)
	if !errors.Is(err, ruleerrors.ErrInvalidCompactBlock) {
		t.Fatalf("TestReconstructorPendingCap: expected the oldest block to be evicted but got %v", err)
	}

	lastHash := consensushashing.BlockHash(lastBlock)
	reconstructor.Forget(lastHash)
	if reconstructor.PendingCount() != maxPendingBlocks-1 {
		t.Fatalf("TestReconstructorPendingCap: expected Forget to drop the block")
	}
	_, err = reconstructor.FillMissing(lastHash, lastBlock.Transactions[1:])
	if !errors.Is(err, ruleerrors.ErrInvalidCompactBlock) {
		t.Fatalf("TestReconstructorPendingCap: expected a forgotten block to be unknown but got %v", err)
	}
}
