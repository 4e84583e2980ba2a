package testutils

import (
	"testing"

	"github.com/tetranet/tetrad/domain/chainconfig"
)

// ForAllNets runs the passed testFunc with all available networks. Every
// run gets its own copy of the network parameters, so testFunc may modify
// them. If skipPow is set, proof of work and stake kernels are not checked.
func ForAllNets(t *testing.T, skipPow bool, testFunc func(*testing.T, *chainconfig.Params)) {
	allParams := []*chainconfig.Params{
		&chainconfig.MainnetParams,
		&chainconfig.TestnetParams,
		&chainconfig.SimnetParams,
		&chainconfig.RegressionNetParams,
	}

	for _, params := range allParams {
		params := params.Clone()
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			params.SkipProofOfWork = skipPow
			t.Logf("Running test for %s", params.Name)
			testFunc(t, params)
		})
	}
}
