// Package module defines the contract every service module satisfies
package module

import (
	phttp "marketwatch/internal/platform/net/http"
)

// Module mounts routes and exposes a ports bundle for cross wiring.
// It lives apart from modkit so a module can import it without import knots.
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
