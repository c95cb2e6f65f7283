// Package service contains the watcher workflows: scanning, scheduling and query admin
package service

import (
	"math/rand/v2"
	"time"

	"marketwatch/internal/modkit"
	"marketwatch/internal/modkit/repokit"
	"marketwatch/internal/services/watcher/domain"
	"marketwatch/internal/services/watcher/repo"

	"github.com/google/uuid"
)

// Config carries the scan and scheduling knobs
type Config struct {
	PageSize    int
	MaxListings int
	SeenStreak  int

	// FailureThreshold is both the consecutive-failure alert count and
	// the hourly failure count that trips the health alert
	FailureThreshold int

	JitterMinutes  int
	HealthEvery    time.Duration
	CleanupEvery   time.Duration
	KeepAliveEvery time.Duration
	RetentionDays  int
	StaleScanAfter time.Duration
	ScanTimeout    time.Duration
	JobTimeout     time.Duration

	EnrichSeller     bool
	AllowedIntervals []int
}

// withDefaults fills zero values
func withDefaults(c Config) Config {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxListings <= 0 {
		c.MaxListings = 200
	}
	if c.SeenStreak <= 0 {
		c.SeenStreak = 30
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.HealthEvery <= 0 {
		c.HealthEvery = 6 * time.Hour
	}
	if c.CleanupEvery <= 0 {
		c.CleanupEvery = 24 * time.Hour
	}
	if c.KeepAliveEvery <= 0 {
		c.KeepAliveEvery = 2 * time.Hour
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.StaleScanAfter <= 0 {
		c.StaleScanAfter = 2 * time.Hour
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = 30 * time.Minute
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
	return c
}

// Ports are the collaborators the watcher drives
type Ports struct {
	Search domain.SearchPort
	// Seller is optional; used only when EnrichSeller is on
	Seller domain.SellerPort
	// Verify is optional; a nil verifier reads as always unavailable
	Verify domain.VerifyPort
	Notify domain.NotifierPort
}

// Svc bundles the watcher components around one store
type Svc struct {
	Scanner   *Scanner
	Scheduler *Scheduler
	Admin     *Admin
}

// New binds the Postgres repo and builds the watcher
func New(deps modkit.Deps, p Ports, cfg Config) *Svc {
	if deps.PG == nil {
		panic("watcher.Service requires a non nil TxRunner")
	}
	return NewWithStore(repokit.MustBind(repo.NewPG(), deps.PG), p, cfg)
}

// NewWithStore builds the watcher on any Store
func NewWithStore(st domain.Store, p Ports, cfg Config) *Svc {
	if p.Search == nil || p.Notify == nil {
		panic("watcher.Service requires search and notify ports")
	}
	cfg = withDefaults(cfg)

	sc := &Scanner{
		store:    st,
		queries:  st,
		search:   p.Search,
		seller:   p.Seller,
		verify:   p.Verify,
		notify:   p.Notify,
		cfg:      cfg,
		breaker:  &failureBreaker{threshold: cfg.FailureThreshold},
		now:      time.Now,
		newRunID: uuid.NewString,
		inflight: map[int64]struct{}{},
	}
	sch := newScheduler(st, st, sc, p, cfg, rand.IntN)
	return &Svc{
		Scanner:   sc,
		Scheduler: sch,
		Admin:     &Admin{store: st, sched: sch, search: p.Search, cfg: cfg},
	}
}
