package app

import (
	"github.com/tetranet/tetrad/infrastructure/logger"
)

var log = logger.RegisterSubSystem("TTRD")
