package module

import (
	"time"

	"marketwatch/internal/platform/config"
)

// Options configures the admin API
type Options struct {
	// Token guards every admin route; empty leaves the API open
	Token string
	// RunTimeout bounds scans started from POST /queries/{id}/run
	RunTimeout time.Duration
}

// FromConfig reads options using the CORE_API_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_API_")
	return Options{
		Token:      c.MayString("TOKEN", ""),
		RunTimeout: c.MayDuration("RUN_TIMEOUT", 30*time.Minute),
	}
}
