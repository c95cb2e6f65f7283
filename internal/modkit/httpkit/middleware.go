package httpkit

import (
	"net/http"
	"time"

	"marketwatch/internal/platform/config"
	"marketwatch/internal/platform/net/middleware"
)

// CommonStack reads CORS_ORIGINS and REQUEST_TIMEOUT from cfg and returns the
// root middleware chain
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return middleware.Stack(
		middleware.CORSOptions{AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil)},
		cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
	)
}

// Guard is the per-scope token check for /api routes; empty token disables it
func Guard(token string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{middleware.BearerToken(token)}
}
