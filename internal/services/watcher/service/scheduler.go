package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"
	"marketwatch/internal/services/watcher/domain"

	"github.com/robfig/cron/v3"
)

// EffectiveInterval applies uniform jitter in [-j, +j] minutes and clamps to at least one minute
func EffectiveInterval(base, j int, intn func(int) int) int {
	if j > 0 {
		base += intn(2*j+1) - j
	}
	if base < 1 {
		base = 1
	}
	return base
}

// Scheduler keeps one recurring job per enabled query plus the system jobs
type Scheduler struct {
	cron    *cron.Cron
	queries domain.QueryStore
	maint   domain.MaintenanceStore
	scanner *Scanner
	search  domain.SearchPort
	verify  domain.VerifyPort
	notify  domain.NotifierPort
	cfg     Config
	log     *logger.Logger
	intn    func(int) int

	// base outlives Stop so in-flight scans reach a terminal state
	base context.Context

	mu          sync.Mutex
	jobs        map[int64]cron.EntryID
	started     bool
	stopped     bool
	authAlerted bool
}

func newScheduler(qs domain.QueryStore, ms domain.MaintenanceStore, sc *Scanner, p Ports, cfg Config, intn func(int) int) *Scheduler {
	log := logger.Named("scheduler")
	cl := cronLogger{l: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		queries: qs,
		maint:   ms,
		scanner: sc,
		search:  p.Search,
		verify:  p.Verify,
		notify:  p.Notify,
		cfg:     cfg,
		log:     log,
		intn:    intn,
		base:    context.Background(),
		jobs:    map[int64]cron.EntryID{},
	}
}

// Start reconciles stale scans, schedules every enabled query and the system jobs, then starts the runner.
// A second call is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	if n, err := s.maint.AbandonStaleScans(ctx, s.cfg.StaleScanAfter); err != nil {
		s.log.Warn().Err(err).Msg("abandon stale scans")
	} else if n > 0 {
		s.log.Info().Int64("scans", n).Msg("marked stale running scans as failed")
	}

	qs, err := s.queries.ListQueries(ctx, true)
	if err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return err
	}
	for _, q := range qs {
		s.schedule(q)
	}

	s.addSystem("health", s.cfg.HealthEvery, s.healthCheck)
	s.addSystem("cleanup", s.cfg.CleanupEvery, s.cleanup)
	s.addSystem("keepalive", s.cfg.KeepAliveEvery, s.keepAlive)

	s.cron.Start()
	s.log.Info().Int("queries", len(qs)).Msg("scheduler started")
	return nil
}

// Stop halts the timers without waiting for running jobs, then closes the search and verify ports
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cron.Stop()

	var errs []error
	if err := s.search.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.verify != nil {
		if err := s.verify.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Info().Msg("scheduler stopped")
	return errors.Join(errs...)
}

// ScheduleQuery (re)schedules a query; missing or disabled queries are left alone
func (s *Scheduler) ScheduleQuery(ctx context.Context, id int64) error {
	q, err := s.queries.Query(ctx, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !q.Enabled {
		return nil
	}
	s.schedule(q)
	return nil
}

// UnscheduleQuery removes the query's job if one exists
func (s *Scheduler) UnscheduleQuery(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.jobs[id]; ok {
		s.cron.Remove(entry)
		delete(s.jobs, id)
		s.log.Info().Int64("query_id", id).Msg("query unscheduled")
	}
}

// Scheduled lists query ids with a live job, ascending
func (s *Scheduler) Scheduled() []int64 {
	s.mu.Lock()
	out := make([]int64, 0, len(s.jobs))
	for id := range s.jobs {
		out = append(out, id)
	}
	s.mu.Unlock()
	slices.Sort(out)
	return out
}

func (s *Scheduler) schedule(q domain.Query) {
	minutes := EffectiveInterval(q.IntervalMinutes, s.cfg.JitterMinutes, s.intn)
	id := q.ID
	job := cron.FuncJob(func() { s.runQuery(id) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[id]; ok {
		s.cron.Remove(old)
	}
	s.jobs[id] = s.cron.Schedule(cron.Every(time.Duration(minutes)*time.Minute), job)
	s.log.Info().Int64("query_id", id).Int("every_minutes", minutes).Str("keyword", q.Keyword).Msg("query scheduled")
}

func (s *Scheduler) addSystem(name string, every time.Duration, fn func()) {
	s.cron.Schedule(cron.Every(every), cron.FuncJob(fn))
	s.log.Debug().Str("job", name).Dur("every", every).Msg("system job scheduled")
}
