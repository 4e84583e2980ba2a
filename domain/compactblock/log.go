package compactblock

import (
	"github.com/tetranet/tetrad/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CMPB")
