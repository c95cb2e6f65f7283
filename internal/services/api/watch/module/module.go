// Package module wires the admin API over the watcher ports
package module

import (
	"context"

	modkit "marketwatch/internal/modkit"
	"marketwatch/internal/modkit/httpkit"

	watchhttp "marketwatch/internal/services/api/watch/http"
	watchsvc "marketwatch/internal/services/api/watch/service"
)

// Ports exposes the admin service to other modules
type Ports struct {
	Service watchsvc.Service
}

// Module implements the admin API module
type Module struct {
	deps  modkit.Deps
	opts  Options
	svc   *watchsvc.Svc
	ports Ports
}

// New constructs the admin module; zero fields in overrides keep the env values
func New(deps modkit.Deps, collab watchsvc.Ports, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.Token != "" {
		opts.Token = overrides.Token
	}
	if overrides.RunTimeout > 0 {
		opts.RunTimeout = overrides.RunTimeout
	}
	if opts.Token == "" {
		deps.Log.Warn().Msg("CORE_API_TOKEN not set; admin API is unauthenticated")
	}

	svc := watchsvc.New(collab, watchsvc.Config{RunTimeout: opts.RunTimeout})
	return &Module{deps: deps, opts: opts, svc: svc, ports: Ports{Service: svc}}
}

// MountRoutes mounts the admin endpoints behind the token guard
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(g httpkit.Router) {
		g.Use(httpkit.Guard(m.opts.Token)...)
		watchhttp.Register(g, m.svc)
	})
}

// Name returns the module name
func (m *Module) Name() string { return "watch" }

// Prefix returns the module config prefix
func (m *Module) Prefix() string { return "CORE_API_" }

// Ports returns the module ports (Service)
func (m *Module) Ports() any { return m.ports }

// Drain waits for scans started over the API to finish
func (m *Module) Drain(ctx context.Context) error { return m.svc.Wait(ctx) }
