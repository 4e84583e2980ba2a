package policy

import (
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

const (
	// derSequenceTag starts every DER encoded signature
	derSequenceTag = 0x30

	// minSignaturePushLength is the length of the smallest DER signature
	// followed by its hash type byte
	minSignaturePushLength = 9
)

var bigOne = big.NewInt(1)

// checkHoneytrapSignatures rejects transactions whose signature scripts
// push signatures that are not strict DER, that have trivial components
// or that are on the configured blacklist
func (p *Policy) checkHoneytrapSignatures(transaction *externalapi.DomainTransaction) error {
	for i, input := range transaction.Inputs {
		pushes, err := txscript.PushedData(input.SignatureScript)
		if err != nil {
			return errors.Wrapf(ErrNonStandard, "input %d: %s", i, err)
		}

		for _, push := range pushes {
			if !isSignaturePush(push) {
				continue
			}
			reason := p.honeytrapReason(push)
			if reason != "" {
				log.Debugf("Input %d pushes a honeytrap signature: %s", i, reason)
				return errors.Wrapf(ErrHoneytrapSignature, "input %d: %s", i, reason)
			}
		}
	}
	return nil
}

func isSignaturePush(push []byte) bool {
	return len(push) >= minSignaturePushLength && push[0] == derSequenceTag
}

// honeytrapReason returns why signatureWithHashType is a honeytrap, or an
// empty string if it is not one
func (p *Policy) honeytrapReason(signatureWithHashType []byte) string {
	if _, ok := p.honeytraps[sha256.Sum256(signatureWithHashType)]; ok {
		return "signature is blacklisted"
	}

	der := signatureWithHashType[:len(signatureWithHashType)-1]
	_, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return "signature is not strict DER: " + err.Error()
	}

	r, s := derComponents(der)
	if r.Cmp(s) == 0 {
		return "signature has R equal to S"
	}
	if r.Cmp(bigOne) <= 0 || s.Cmp(bigOne) <= 0 {
		return "signature has a trivial component"
	}
	return ""
}

// derComponents returns R and S of a signature already known to be
// strict DER:
// 0x30 <length> 0x02 <length of R> <R> 0x02 <length of S> <S>
func derComponents(der []byte) (r, s *big.Int) {
	rLength := int(der[3])
	rBytes := der[4 : 4+rLength]
	sLength := int(der[5+rLength])
	sBytes := der[6+rLength : 6+rLength+sLength]
	return new(big.Int).SetBytes(rBytes), new(big.Int).SetBytes(sBytes)
}
