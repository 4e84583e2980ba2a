package blockvalidator

import (
	"github.com/tetranet/tetrad/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BLVA")
