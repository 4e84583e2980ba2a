package consensus

import (
	"os"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/model/testapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/testutils"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

// sideBranchScript makes the coinbases, and therefore the hashes, of side
// branch blocks differ from the blocks of the main branch
var sideBranchScript = []byte{txscript.OpReturn}

// regtestParams returns regtest parameters without proof-of-stake slots,
// so chains of any length can be built with AddBlock
func regtestParams() *chainconfig.Params {
	params := chainconfig.RegressionNetParams.Clone()
	params.SkipProofOfWork = true
	params.PosInterval = 0
	return params
}

func testHash(firstByte byte) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{firstByte})
}

func newTestConsensus(t *testing.T, params *chainconfig.Params, testName string) (
	testapi.TestConsensus, func(keepDataDir bool)) {

	tc, teardown, err := NewFactory().NewTestConsensus(NewConfig(params), testName)
	if err != nil {
		t.Fatalf("%s: Error setting up consensus: %+v", testName, err)
	}
	return tc, teardown
}

// addChain builds and connects length blocks on top of parentHash and
// returns their hashes. Every block must be accepted.
func addChain(t *testing.T, tc testapi.TestConsensus, testName string, parentHash *externalapi.DomainHash,
	length int, coinbaseScript []byte) []*externalapi.DomainHash {

	hashes := make([]*externalapi.DomainHash, length)
	for i := range hashes {
		block, err := tc.BuildBlockOnParent(parentHash, coinbaseScript, nil, nil, 0)
		if err != nil {
			t.Fatalf("%s: BuildBlockOnParent #%d: %+v", testName, i, err)
		}
		result, err := tc.ValidateAndConnect(block)
		if err != nil {
			t.Fatalf("%s: ValidateAndConnect #%d: %+v", testName, i, err)
		}
		if result.Kind != externalapi.ProcessResultAccepted {
			t.Fatalf("%s: block #%d was not accepted: %s", testName, i, spew.Sdump(result))
		}
		hashes[i] = consensushashing.BlockHash(block)
		parentHash = hashes[i]
	}
	return hashes
}

func tipHash(t *testing.T, tc testapi.TestConsensus, testName string) *externalapi.DomainHash {
	tip, err := tc.GetChainTip()
	if err != nil {
		t.Fatalf("%s: GetChainTip: %+v", testName, err)
	}
	return tip.Hash
}

func coinbaseOutpoint(t *testing.T, tc testapi.TestConsensus, blockHash *externalapi.DomainHash) *externalapi.DomainOutpoint {
	block, err := tc.GetBlockByHash(blockHash)
	if err != nil {
		t.Fatalf("GetBlockByHash %s: %+v", blockHash, err)
	}
	return &externalapi.DomainOutpoint{
		TransactionID: *consensushashing.TransactionID(block.Transactions[0]),
		Index:         0,
	}
}

func TestValidateAndConnect(t *testing.T) {
	testutils.ForAllNets(t, true, func(t *testing.T, params *chainconfig.Params) {
		params.PosInterval = 0
		tc, teardown := newTestConsensus(t, params, "TestValidateAndConnect")
		defer teardown(false)

		hashes := addChain(t, tc, "TestValidateAndConnect", params.GenesisHash, 5, testutils.OpTrueScript())

		tip, err := tc.GetChainTip()
		if err != nil {
			t.Fatalf("GetChainTip: %+v", err)
		}
		if !tip.Hash.Equal(hashes[4]) || tip.Height != 5 || tip.Status != externalapi.StatusActiveTip {
			t.Fatalf("TestValidateAndConnect: unexpected tip: %s", spew.Sdump(tip))
		}

		chainHashes, err := tc.GetActiveChainHashes()
		if err != nil {
			t.Fatalf("GetActiveChainHashes: %+v", err)
		}
		if len(chainHashes) != 6 || !chainHashes[0].Equal(params.GenesisHash) {
			t.Fatalf("TestValidateAndConnect: unexpected active chain %v", chainHashes)
		}
		for i, hash := range hashes {
			if !chainHashes[i+1].Equal(hash) {
				t.Fatalf("TestValidateAndConnect: active chain hash #%d is %s, expected %s",
					i+1, chainHashes[i+1], hash)
			}
		}

		info, err := tc.GetBlockInfo(hashes[1])
		if err != nil {
			t.Fatalf("GetBlockInfo: %+v", err)
		}
		if !info.Exists || info.Status != externalapi.StatusValid || info.Height != 2 ||
			info.BlockType != externalapi.BlockTypePoW {
			t.Fatalf("TestValidateAndConnect: unexpected block info: %s", spew.Sdump(info))
		}

		if info.Algorithm != externalapi.AlgorithmGroestl {
			t.Fatalf("TestValidateAndConnect: expected the groestl lane at height 2, got %s", info.Algorithm)
		}

		unknownInfo, err := tc.GetBlockInfo(testHash(0x01))
		if err != nil {
			t.Fatalf("GetBlockInfo: %+v", err)
		}
		if unknownInfo.Exists {
			t.Fatalf("TestValidateAndConnect: an unknown block exists")
		}

		block, err := tc.GetBlockByHash(hashes[2])
		if err != nil {
			t.Fatalf("GetBlockByHash: %+v", err)
		}
		if !consensushashing.BlockHash(block).Equal(hashes[2]) {
			t.Fatalf("TestValidateAndConnect: GetBlockByHash returned another block")
		}

		entry, ok := tc.GetUTXOEntry(coinbaseOutpoint(t, tc, hashes[0]))
		if !ok || !entry.IsCoinbase() || entry.BlockHeight() != 1 {
			t.Fatalf("TestValidateAndConnect: the coinbase of the first block is not spendable")
		}

		genesisOutpoint := &externalapi.DomainOutpoint{
			TransactionID: *consensushashing.TransactionID(params.GenesisBlock.Transactions[0]),
			Index:         0,
		}
		if _, ok := tc.GetUTXOEntry(genesisOutpoint); ok {
			t.Fatalf("TestValidateAndConnect: the genesis coinbase must not be spendable")
		}

		result, err := tc.ValidateAndConnect(block)
		if err != nil {
			t.Fatalf("ValidateAndConnect: %+v", err)
		}
		if result.Kind != externalapi.ProcessResultRejected || !errors.Is(result.RejectReason, ruleerrors.ErrDuplicateBlock) {
			t.Fatalf("TestValidateAndConnect: expected a duplicate block, got %s", spew.Sdump(result))
		}
	})
}

func TestMissingParent(t *testing.T) {
	tc, teardown := newTestConsensus(t, regtestParams(), "TestMissingParent")
	defer teardown(false)

	block, err := tc.BuildBlock(testutils.OpTrueScript(), nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildBlock: %+v", err)
	}
	unknownParent := testHash(0xaa)
	block.Header.PrevBlockHash = *unknownParent

	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		t.Fatalf("ValidateAndConnect: %+v", err)
	}
	if result.Kind != externalapi.ProcessResultNeedsMoreData || len(result.MissingBlockHashes) != 1 ||
		!result.MissingBlockHashes[0].Equal(unknownParent) {

		t.Fatalf("TestMissingParent: unexpected result %s", spew.Sdump(result))
	}
}

func TestReorganization(t *testing.T) {
	tc, teardown := newTestConsensus(t, regtestParams(), "TestReorganization")
	defer teardown(false)

	genesisHash := tc.Params().GenesisHash
	mainBranch := addChain(t, tc, "TestReorganization", genesisHash, 3, testutils.OpTrueScript())

	// Three side blocks tie with the active chain, so it stays
	sideBranch := addChain(t, tc, "TestReorganization", genesisHash, 3, sideBranchScript)
	if !tipHash(t, tc, "TestReorganization").Equal(mainBranch[2]) {
		t.Fatalf("TestReorganization: a side branch of equal work replaced the active chain")
	}
	sideInfo, err := tc.GetBlockInfo(sideBranch[2])
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if sideInfo.Status != externalapi.StatusCandidate {
		t.Fatalf("TestReorganization: expected a candidate side block, got %s", sideInfo.Status)
	}

	block, err := tc.BuildBlockOnParent(sideBranch[2], sideBranchScript, nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildBlockOnParent: %+v", err)
	}
	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		t.Fatalf("ValidateAndConnect: %+v", err)
	}
	if result.Kind != externalapi.ProcessResultAccepted || !result.IsNewTip() {
		t.Fatalf("TestReorganization: the heavier branch did not become active: %s", spew.Sdump(result))
	}

	changes := result.ChainChanges
	if len(changes.Removed) != 3 || len(changes.Added) != 4 {
		t.Fatalf("TestReorganization: unexpected chain changes %s", spew.Sdump(changes))
	}
	for i := range mainBranch {
		if !changes.Removed[i].Equal(mainBranch[2-i]) {
			t.Fatalf("TestReorganization: removed block #%d is %s, expected %s",
				i, changes.Removed[i], mainBranch[2-i])
		}
		if !changes.Added[i].Equal(sideBranch[i]) {
			t.Fatalf("TestReorganization: added block #%d is %s, expected %s", i, changes.Added[i], sideBranch[i])
		}
	}

	staleInfo, err := tc.GetBlockInfo(mainBranch[2])
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if staleInfo.Status != externalapi.StatusStale {
		t.Fatalf("TestReorganization: expected the old tip to be stale, got %s", staleInfo.Status)
	}

	for _, hash := range mainBranch {
		if _, ok := tc.GetUTXOEntry(coinbaseOutpoint(t, tc, hash)); ok {
			t.Fatalf("TestReorganization: coinbase of disconnected block %s is still in the UTXO set", hash)
		}
	}
	for _, hash := range sideBranch {
		if _, ok := tc.GetUTXOEntry(coinbaseOutpoint(t, tc, hash)); !ok {
			t.Fatalf("TestReorganization: coinbase of connected block %s is missing from the UTXO set", hash)
		}
	}
}

func TestReorgDepthCap(t *testing.T) {
	params := regtestParams()
	params.MaxReorgDepth = 100
	tc, teardown := newTestConsensus(t, params, "TestReorgDepthCap")
	defer teardown(false)

	mainBranch := addChain(t, tc, "TestReorgDepthCap", params.GenesisHash, 150, testutils.OpTrueScript())
	sideBranch := addChain(t, tc, "TestReorgDepthCap", params.GenesisHash, 150, sideBranchScript)

	block, err := tc.BuildBlockOnParent(sideBranch[149], sideBranchScript, nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildBlockOnParent: %+v", err)
	}
	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		t.Fatalf("ValidateAndConnect: %+v", err)
	}
	if result.Kind != externalapi.ProcessResultRejected || !errors.Is(result.RejectReason, ruleerrors.ErrReorgTooDeep) {
		t.Fatalf("TestReorgDepthCap: expected ErrReorgTooDeep, got %s", spew.Sdump(result))
	}
	if !tipHash(t, tc, "TestReorgDepthCap").Equal(mainBranch[149]) {
		t.Fatalf("TestReorgDepthCap: the active tip changed")
	}
}

func TestFinalityViolation(t *testing.T) {
	params := regtestParams()
	params.SoftFinalityDepth = 5
	params.HardFinalityDepth = 10
	params.IrreversibleFinalityDepth = 15
	tc, teardown := newTestConsensus(t, params, "TestFinalityViolation")
	defer teardown(false)

	mainBranch := addChain(t, tc, "TestFinalityViolation", params.GenesisHash, 8, testutils.OpTrueScript())

	status, err := tc.GetFinalityStatus(mainBranch[0])
	if err != nil {
		t.Fatalf("GetFinalityStatus: %+v", err)
	}
	if status != externalapi.FinalitySoft {
		t.Fatalf("TestFinalityViolation: expected the first block to be %s, got %s", externalapi.FinalitySoft, status)
	}
	status, err = tc.GetFinalityStatus(mainBranch[7])
	if err != nil {
		t.Fatalf("GetFinalityStatus: %+v", err)
	}
	if status != externalapi.FinalityPending {
		t.Fatalf("TestFinalityViolation: expected the tip to be %s, got %s", externalapi.FinalityPending, status)
	}
	_, err = tc.GetFinalityStatus(testHash(0x01))
	if err == nil {
		t.Fatalf("TestFinalityViolation: expected an error for an unknown block")
	}

	sideBranch := addChain(t, tc, "TestFinalityViolation", params.GenesisHash, 8, sideBranchScript)
	block, err := tc.BuildBlockOnParent(sideBranch[7], sideBranchScript, nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildBlockOnParent: %+v", err)
	}
	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		t.Fatalf("ValidateAndConnect: %+v", err)
	}
	if result.Kind != externalapi.ProcessResultRejected || !errors.Is(result.RejectReason, ruleerrors.ErrFinalityViolation) {
		t.Fatalf("TestFinalityViolation: expected ErrFinalityViolation, got %s", spew.Sdump(result))
	}
	if !tipHash(t, tc, "TestFinalityViolation").Equal(mainBranch[7]) {
		t.Fatalf("TestFinalityViolation: the active tip changed")
	}

	// A fork below the soft finality depth is allowed to take over
	shallowFork := addChain(t, tc, "TestFinalityViolation", mainBranch[5], 3, sideBranchScript)
	if !tipHash(t, tc, "TestFinalityViolation").Equal(shallowFork[2]) {
		t.Fatalf("TestFinalityViolation: the shallow fork did not become active")
	}
}

func TestInterruptedReorganization(t *testing.T) {
	tc, teardown := newTestConsensus(t, regtestParams(), "TestInterruptedReorganization")
	defer teardown(false)

	genesisHash := tc.Params().GenesisHash
	mainBranch := addChain(t, tc, "TestInterruptedReorganization", genesisHash, 3, testutils.OpTrueScript())
	sideBranch := addChain(t, tc, "TestInterruptedReorganization", genesisHash, 3, sideBranchScript)

	block, err := tc.BuildBlockOnParent(sideBranch[2], sideBranchScript, nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildBlockOnParent: %+v", err)
	}

	tc.SetInterrupted(true)
	_, err = tc.ValidateAndConnect(block)
	if !errors.Is(err, ruleerrors.ErrInterrupted) {
		t.Fatalf("TestInterruptedReorganization: expected ErrInterrupted, got %+v", err)
	}
	if !tipHash(t, tc, "TestInterruptedReorganization").Equal(mainBranch[2]) {
		t.Fatalf("TestInterruptedReorganization: the active tip changed")
	}
	for _, hash := range mainBranch {
		if _, ok := tc.GetUTXOEntry(coinbaseOutpoint(t, tc, hash)); !ok {
			t.Fatalf("TestInterruptedReorganization: coinbase of block %s was not restored", hash)
		}
	}

	tc.SetInterrupted(false)
	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		t.Fatalf("ValidateAndConnect: %+v", err)
	}
	if result.Kind != externalapi.ProcessResultAccepted || !result.IsNewTip() {
		t.Fatalf("TestInterruptedReorganization: the retried block did not become the tip: %s", spew.Sdump(result))
	}
}

func TestReplayStoredBlocks(t *testing.T) {
	params := regtestParams()
	config := NewConfig(params)
	dataDir, err := os.MkdirTemp("", "TestReplayStoredBlocks")
	if err != nil {
		t.Fatalf("MkdirTemp: %s", err)
	}
	defer os.RemoveAll(dataDir)

	factory := NewFactory()
	tc, teardown, err := factory.NewTestConsensusWithDataDir(config, dataDir)
	if err != nil {
		t.Fatalf("NewTestConsensusWithDataDir: %+v", err)
	}
	mainBranch := addChain(t, tc, "TestReplayStoredBlocks", params.GenesisHash, 5, testutils.OpTrueScript())
	sideBranch := addChain(t, tc, "TestReplayStoredBlocks", params.GenesisHash, 2, sideBranchScript)
	chainBefore, err := tc.GetActiveChainHashes()
	if err != nil {
		t.Fatalf("GetActiveChainHashes: %+v", err)
	}
	teardown(true)

	tc, teardown, err = factory.NewTestConsensusWithDataDir(config, dataDir)
	if err != nil {
		t.Fatalf("NewTestConsensusWithDataDir: %+v", err)
	}
	defer teardown(true)

	if !tipHash(t, tc, "TestReplayStoredBlocks").Equal(mainBranch[4]) {
		t.Fatalf("TestReplayStoredBlocks: the replayed tip differs")
	}
	chainAfter, err := tc.GetActiveChainHashes()
	if err != nil {
		t.Fatalf("GetActiveChainHashes: %+v", err)
	}
	if len(chainAfter) != len(chainBefore) {
		t.Fatalf("TestReplayStoredBlocks: expected %d active blocks, got %d", len(chainBefore), len(chainAfter))
	}
	for i := range chainBefore {
		if !chainAfter[i].Equal(chainBefore[i]) {
			t.Fatalf("TestReplayStoredBlocks: active block #%d differs after replay", i)
		}
	}

	sideInfo, err := tc.GetBlockInfo(sideBranch[1])
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !sideInfo.Exists || sideInfo.Status != externalapi.StatusCandidate {
		t.Fatalf("TestReplayStoredBlocks: the side branch was not replayed: %s", spew.Sdump(sideInfo))
	}
	if _, ok := tc.GetUTXOEntry(coinbaseOutpoint(t, tc, mainBranch[2])); !ok {
		t.Fatalf("TestReplayStoredBlocks: the UTXO set was not rebuilt")
	}
}

func TestPreValidateBlocks(t *testing.T) {
	tc, teardown := newTestConsensus(t, regtestParams(), "TestPreValidateBlocks")
	defer teardown(false)

	parentHash := addChain(t, tc, "TestPreValidateBlocks", tc.Params().GenesisHash, 2, testutils.OpTrueScript())[1]

	validBlock, err := tc.BuildBlockOnParent(parentHash, testutils.OpTrueScript(), nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildBlockOnParent: %+v", err)
	}

	badMerkleRootBlock := validBlock.Clone()
	badMerkleRootBlock.Header.MerkleRoot = *testHash(0x01)

	orphanBlock := validBlock.Clone()
	orphanBlock.Header.PrevBlockHash = *testHash(0x02)

	noCoinbaseBlock := validBlock.Clone()
	noCoinbaseBlock.Transactions = nil

	results := tc.PreValidateBlocks([]*externalapi.DomainBlock{
		validBlock, badMerkleRootBlock, orphanBlock, noCoinbaseBlock})
	if results[0] != nil {
		t.Fatalf("TestPreValidateBlocks: valid block failed: %+v", results[0])
	}
	if !errors.Is(results[1], ruleerrors.ErrBadMerkleRoot) {
		t.Fatalf("TestPreValidateBlocks: expected ErrBadMerkleRoot, got %+v", results[1])
	}
	if results[2] != nil {
		t.Fatalf("TestPreValidateBlocks: a block with an unknown parent failed its context free checks: %+v",
			results[2])
	}
	if results[3] == nil {
		t.Fatalf("TestPreValidateBlocks: a block without transactions passed")
	}
}

func TestValidateTransactionInContext(t *testing.T) {
	params := regtestParams()
	params.BlockCoinbaseMaturity = 2
	tc, teardown := newTestConsensus(t, params, "TestValidateTransactionInContext")
	defer teardown(false)

	hashes := addChain(t, tc, "TestValidateTransactionInContext", params.GenesisHash, 3, testutils.OpTrueScript())

	spendable := coinbaseOutpoint(t, tc, hashes[0])
	transaction := spendTransaction(t, tc, spendable, 1000)
	fee, err := tc.ValidateTransactionInContext(transaction)
	if err != nil {
		t.Fatalf("ValidateTransactionInContext: %+v", err)
	}
	if fee != 1000 {
		t.Fatalf("TestValidateTransactionInContext: expected a fee of 1000, got %d", fee)
	}

	immature := spendTransaction(t, tc, coinbaseOutpoint(t, tc, hashes[2]), 1000)
	_, err = tc.ValidateTransactionInContext(immature)
	if !errors.Is(err, ruleerrors.ErrImmatureSpend) {
		t.Fatalf("TestValidateTransactionInContext: expected ErrImmatureSpend, got %+v", err)
	}

	missing := transactionhelper.NewNativeTransaction(
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: *testHash(0x01)},
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		[]*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: testutils.OpTrueScript()}})
	_, err = tc.ValidateTransactionInContext(missing)
	if !errors.As(err, &ruleerrors.ErrMissingTxOut{}) {
		t.Fatalf("TestValidateTransactionInContext: expected ErrMissingTxOut, got %+v", err)
	}

	block, err := tc.GetBlockByHash(hashes[0])
	if err != nil {
		t.Fatalf("GetBlockByHash: %+v", err)
	}
	_, err = tc.ValidateTransactionInContext(block.Transactions[0])
	if !errors.Is(err, ruleerrors.ErrBadTxInput) {
		t.Fatalf("TestValidateTransactionInContext: expected a loose coinbase to fail, got %+v", err)
	}
}

// spendTransaction returns a transaction spending the anyone-can-spend
// output at outpoint back to an anyone-can-spend output, leaving fee
func spendTransaction(t *testing.T, tc testapi.TestConsensus, outpoint *externalapi.DomainOutpoint,
	fee uint64) *externalapi.DomainTransaction {

	entry, ok := tc.GetUTXOEntry(outpoint)
	if !ok {
		t.Fatalf("spendTransaction: outpoint %s is not in the UTXO set", outpoint)
	}
	return transactionhelper.NewNativeTransaction(
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: *outpoint,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		[]*externalapi.DomainTransactionOutput{{
			Value:           entry.Amount() - fee,
			ScriptPublicKey: testutils.OpTrueScript(),
		}})
}

func TestIsStakeEligible(t *testing.T) {
	tc, teardown := newTestConsensus(t, regtestParams(), "TestIsStakeEligible")
	defer teardown(false)

	address := testutils.OpTrueScript()
	amount := 1000 * uint64(chainconfig.UnitsPerCoin)
	if !tc.IsStakeEligible(address, amount, 2*time.Hour) {
		t.Fatalf("TestIsStakeEligible: 1000 coins held for 2 hours are not eligible")
	}
	if tc.IsStakeEligible(address, amount, 30*time.Minute) {
		t.Fatalf("TestIsStakeEligible: 1000 coins held for 30 minutes are eligible")
	}
	if tc.IsStakeEligible(address, uint64(chainconfig.UnitsPerCoin), 2*time.Hour) {
		t.Fatalf("TestIsStakeEligible: 1 coin is eligible")
	}
	if tc.IsStakeEligible(nil, amount, 2*time.Hour) {
		t.Fatalf("TestIsStakeEligible: a stake without an address is eligible")
	}
}

func TestGetNextDifficulty(t *testing.T) {
	tc, teardown := newTestConsensus(t, regtestParams(), "TestGetNextDifficulty")
	defer teardown(false)

	for lane := externalapi.Algorithm(0); lane < externalapi.NumberOfAlgorithms; lane++ {
		bits, err := tc.GetNextDifficulty(lane)
		if err != nil {
			t.Fatalf("GetNextDifficulty(%s): %+v", lane, err)
		}
		expected := tc.DifficultyManager().NextTarget(lane, nil)
		if bits != expected {
			t.Fatalf("TestGetNextDifficulty: lane %s has bits %08x, expected %08x", lane, bits, expected)
		}
	}

	_, err := tc.GetNextDifficulty(externalapi.NumberOfAlgorithms)
	if err == nil {
		t.Fatalf("TestGetNextDifficulty: expected an error for an unknown lane")
	}
}

func TestProofOfStakeBlock(t *testing.T) {
	params := chainconfig.RegressionNetParams.Clone()
	params.PosInterval = 4
	params.BlockCoinbaseMaturity = 1
	params.MinStakeAmount = uint64(chainconfig.UnitsPerCoin)
	params.MinStakeAge = time.Second
	params.StakeAgeUnit = time.Second
	tc, teardown := newTestConsensus(t, params, "TestProofOfStakeBlock")
	defer teardown(false)

	hashes := addChain(t, tc, "TestProofOfStakeBlock", params.GenesisHash, 3, testutils.OpTrueScript())

	stakeOutpoint := coinbaseOutpoint(t, tc, hashes[0])
	stakeEntry, ok := tc.GetUTXOEntry(stakeOutpoint)
	if !ok {
		t.Fatalf("TestProofOfStakeBlock: the staked output is missing")
	}
	const minted = 10
	coinstake := transactionhelper.NewCoinstakeTransaction(*stakeOutpoint, testutils.OpTrueScript(),
		stakeEntry.Amount()+minted)

	// Without a coinstake no block can be built in a proof-of-stake slot
	_, err := tc.BuildBlockOnParent(hashes[2], testutils.OpTrueScript(), nil, nil, 0)
	if err == nil {
		t.Fatalf("TestProofOfStakeBlock: built a proof-of-stake slot block without a coinstake")
	}

	blockTime := stakeEntry.BlockTime() + 60
	block, err := tc.BuildBlockOnParent(hashes[2], testutils.OpTrueScript(), nil, coinstake, blockTime)
	if err != nil {
		t.Fatalf("BuildBlockOnParent: %+v", err)
	}
	result, err := tc.ValidateAndConnect(block)
	if err != nil {
		t.Fatalf("ValidateAndConnect: %+v", err)
	}
	if result.Kind != externalapi.ProcessResultAccepted || !result.IsNewTip() {
		t.Fatalf("TestProofOfStakeBlock: the proof-of-stake block was not accepted: %s", spew.Sdump(result))
	}

	blockHash := consensushashing.BlockHash(block)
	info, err := tc.GetBlockInfo(blockHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if info.BlockType != externalapi.BlockTypePoS || info.Algorithm != externalapi.AlgorithmProofOfStake {
		t.Fatalf("TestProofOfStakeBlock: unexpected block info %s", spew.Sdump(info))
	}

	coinstakeID := consensushashing.TransactionID(coinstake)
	if _, ok := tc.GetUTXOEntry(&externalapi.DomainOutpoint{TransactionID: *coinstakeID, Index: 0}); ok {
		t.Fatalf("TestProofOfStakeBlock: the empty coinstake marker output is spendable")
	}
	stakeReturn, ok := tc.GetUTXOEntry(&externalapi.DomainOutpoint{TransactionID: *coinstakeID, Index: 1})
	if !ok || !stakeReturn.IsCoinstake() || stakeReturn.Amount() != stakeEntry.Amount()+minted {
		t.Fatalf("TestProofOfStakeBlock: the coinstake output is missing from the UTXO set")
	}
	if _, ok := tc.GetUTXOEntry(stakeOutpoint); ok {
		t.Fatalf("TestProofOfStakeBlock: the staked output was not spent")
	}

	coinbase := block.Transactions[0]
	if coinbase.Outputs[0].Value != tc.BlockValidator().BlockSubsidy(4)-minted {
		t.Fatalf("TestProofOfStakeBlock: the coinbase pays %d, expected the subsidy less the minted %d",
			coinbase.Outputs[0].Value, minted)
	}
}
