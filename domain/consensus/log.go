package consensus

import (
	"github.com/tetranet/tetrad/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CNSS")
