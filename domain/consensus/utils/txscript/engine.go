package txscript

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
)

var (
	// ErrNotPushOnly is returned when a signature script does anything
	// but push data.
	ErrNotPushOnly = errors.New("signature script is not push only")

	// ErrUnsupportedScript is returned when the locking script is not one of
	// the script classes the engine can execute.
	ErrUnsupportedScript = errors.New("unsupported locking script")

	// ErrEvalFalse is returned when the script executed without error but
	// ended with a false result.
	ErrEvalFalse = errors.New("script evaluated to false")
)

// VerifyInputScript executes the signature script of the idx'th input of tx
// against lockingScript, the script of the output it spends.
func VerifyInputScript(tx *externalapi.DomainTransaction, idx int, lockingScript []byte) error {
	if idx < 0 || idx >= len(tx.Inputs) {
		return errors.Errorf("input index %d is out of range for a transaction "+
			"with %d inputs", idx, len(tx.Inputs))
	}

	signatureScript := tx.Inputs[idx].SignatureScript
	if !IsPushOnly(signatureScript) {
		return errors.Wrapf(ErrNotPushOnly, "input %d", idx)
	}

	lockingPops, err := parseScript(lockingScript)
	if err != nil {
		return err
	}

	switch typeOfScript(lockingPops) {
	case TrueTy:
		return nil

	case PubKeyTy:
		pushes, err := PushedData(signatureScript)
		if err != nil {
			return err
		}
		if len(pushes) != 1 {
			return errors.Wrapf(ErrEvalFalse, "input %d: pay-to-pubkey expects a single "+
				"signature push, got %d pushes", idx, len(pushes))
		}
		return verifySignature(tx, idx, lockingScript, pushes[0], lockingPops[0].data)
	}

	return errors.Wrapf(ErrUnsupportedScript, "input %d spends a %s script", idx,
		GetScriptClass(lockingScript))
}

func verifySignature(tx *externalapi.DomainTransaction, idx int, lockingScript []byte,
	signatureWithHashType []byte, serializedPubKey []byte) error {

	if len(signatureWithHashType) < 2 {
		return errors.Wrapf(ErrEvalFalse, "input %d: signature is too short", idx)
	}
	hashType := consensushashing.SigHashType(signatureWithHashType[len(signatureWithHashType)-1])
	derSignature := signatureWithHashType[:len(signatureWithHashType)-1]

	signature, err := ecdsa.ParseDERSignature(derSignature)
	if err != nil {
		return errors.Wrapf(ErrEvalFalse, "input %d: malformed signature: %s", idx, err)
	}
	pubKey, err := btcec.ParsePubKey(serializedPubKey)
	if err != nil {
		return errors.Wrapf(ErrEvalFalse, "input %d: malformed public key: %s", idx, err)
	}
	sigHash, err := consensushashing.CalculateSignatureHash(tx, idx, lockingScript, hashType)
	if err != nil {
		return errors.Wrapf(ErrEvalFalse, "input %d: %s", idx, err)
	}
	if !signature.Verify(sigHash.ByteSlice(), pubKey) {
		return errors.Wrapf(ErrEvalFalse, "input %d: signature verification failed", idx)
	}
	return nil
}
