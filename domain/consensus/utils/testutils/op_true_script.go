package testutils

import (
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

// OpTrueScript returns a script paying to an anyone-can-spend output. Its
// spending signature script is empty.
func OpTrueScript() []byte {
	return txscript.PayToTrueScript()
}
