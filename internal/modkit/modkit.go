package modkit

import (
	"marketwatch/internal/modkit/module"
)

// Module is the surface main wires against: a name, optional routes and a ports bundle
type Module = module.Module
