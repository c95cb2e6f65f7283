// Package modkit wires modules from shared dependencies
package modkit

import (
	"marketwatch/internal/modkit/repokit"
	"marketwatch/internal/platform/config"
	"marketwatch/internal/platform/logger"
)

// Deps holds the core dependencies every module constructor receives
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
}
