// Package module wires the watcher service and exposes its ports
package module

import (
	"marketwatch/internal/modkit"
	"marketwatch/internal/modkit/httpkit"

	"marketwatch/internal/services/watcher/service"
)

// Module defines the watcher module
type Module struct {
	deps  modkit.Deps
	svc   *service.Svc
	ports Ports
}

// New constructs the watcher module; zero fields in overrides keep the env values
func New(deps modkit.Deps, collab service.Ports, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.MaxListings != 0 {
		opts.MaxListings = overrides.MaxListings
	}
	if overrides.JitterMinutes != 0 {
		opts.JitterMinutes = overrides.JitterMinutes
	}
	if overrides.EnrichSeller {
		opts.EnrichSeller = true
	}

	svc := service.New(deps, collab, service.Config{
		PageSize:         opts.PageSize,
		MaxListings:      opts.MaxListings,
		SeenStreak:       opts.SeenStreak,
		FailureThreshold: opts.FailureThreshold,
		JitterMinutes:    opts.JitterMinutes,
		HealthEvery:      opts.HealthEvery,
		CleanupEvery:     opts.CleanupEvery,
		KeepAliveEvery:   opts.KeepAliveEvery,
		RetentionDays:    opts.RetentionDays,
		StaleScanAfter:   opts.StaleScanAfter,
		ScanTimeout:      opts.ScanTimeout,
		EnrichSeller:     opts.EnrichSeller,
		AllowedIntervals: opts.AllowedIntervals,
	})

	return &Module{
		deps: deps,
		svc:  svc,
		ports: Ports{
			Scheduler: svc.Scheduler,
			Scanner:   svc.Scanner,
			Admin:     svc.Admin,
			Stats:     svc.Admin,
			Maint:     svc.Scheduler,
		},
	}
}

// Name returns the module name
func (m *Module) Name() string { return "watcher" }

// Ports returns the module ports (Scheduler, Scanner, Admin, Stats, Maint)
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module config prefix
func (m *Module) Prefix() string { return "WATCH_" }

// MountRoutes mounts nothing; the admin API module owns the HTTP surface
func (m *Module) MountRoutes(_ httpkit.Router) {}
