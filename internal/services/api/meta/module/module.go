// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "marketwatch/internal/modkit"
	"marketwatch/internal/modkit/httpkit"

	metahttp "marketwatch/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	prefix    string
	startedAt time.Time
}

// New constructs a meta module mounted under /meta
func New(deps modkit.Deps) *Module {
	return &Module{deps: deps, prefix: "/meta", startedAt: time.Now()}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName: "marketwatch",
			StartedAt:   m.startedAt,
			Checks:      map[string]any{"pg": m.deps.PG},
		})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return "meta" }

// Prefix returns the route prefix
func (m *Module) Prefix() string { return m.prefix }

// Ports implements the modkit.Module interface; meta exposes none
func (m *Module) Ports() any { return nil }
