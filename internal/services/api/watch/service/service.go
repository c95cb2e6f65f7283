// Package service adapts the watcher ports to the admin API shapes
package service

import (
	"context"
	"sync"
	"time"

	"marketwatch/internal/platform/logger"
	"marketwatch/internal/services/api/watch/domain"
	wdom "marketwatch/internal/services/watcher/domain"
)

// Service defines the admin service contract
type Service interface {
	domain.ServicePort
}

// Ports are the watcher collaborators the admin API drives
type Ports struct {
	Admin   wdom.AdminPort
	Stats   wdom.StatsPort
	Scanner wdom.ScannerPort
	// Channels lists the enabled notification channels for the health view
	Channels []string
}

// Config tunes the service
type Config struct {
	// LogPath returns the active log file; "" disables the log endpoints
	LogPath func() string
	// RunTimeout bounds a background scan started over the API
	RunTimeout time.Duration
}

// Svc implements the admin service
type Svc struct {
	p   Ports
	cfg Config
	log *logger.Logger
	now func() time.Time

	runs sync.WaitGroup
}

// New constructs the admin service
func New(p Ports, cfg Config) *Svc {
	if p.Admin == nil || p.Stats == nil || p.Scanner == nil {
		panic("watch.Service requires non nil Admin, Stats and Scanner ports")
	}
	if cfg.LogPath == nil {
		cfg.LogPath = logger.FilePath
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	return &Svc{p: p, cfg: cfg, log: logger.Named("api.watch"), now: time.Now}
}

// ListQueries lists every query
func (s *Svc) ListQueries(ctx context.Context) ([]domain.QueryView, error) {
	qs, err := s.p.Admin.ListQueries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QueryView, 0, len(qs))
	for _, q := range qs {
		out = append(out, domain.ViewQuery(q))
	}
	return out, nil
}

// Query loads one query
func (s *Svc) Query(ctx context.Context, id int64) (domain.QueryView, error) {
	q, err := s.p.Admin.Query(ctx, id)
	if err != nil {
		return domain.QueryView{}, err
	}
	return domain.ViewQuery(q), nil
}

// CreateQuery stores and schedules a query
func (s *Svc) CreateQuery(ctx context.Context, in domain.QueryInput) (domain.QueryView, error) {
	q, err := s.p.Admin.CreateQuery(ctx, in.ToQuery(0))
	if err != nil {
		return domain.QueryView{}, err
	}
	s.log.Info().Int64("query_id", q.ID).Str("keyword", q.Keyword).Msg("query created")
	return domain.ViewQuery(q), nil
}

// ReplaceQuery overwrites a query; omitted switches take their defaults
func (s *Svc) ReplaceQuery(ctx context.Context, id int64, in domain.QueryInput) (domain.QueryView, error) {
	q, err := s.p.Admin.UpdateQuery(ctx, in.ToQuery(id))
	if err != nil {
		return domain.QueryView{}, err
	}
	return domain.ViewQuery(q), nil
}

// DeleteQuery removes a query and its job
func (s *Svc) DeleteQuery(ctx context.Context, id int64) error {
	if err := s.p.Admin.DeleteQuery(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("query_id", id).Msg("query deleted")
	return nil
}

// SetEnabled toggles a query and returns its new state
func (s *Svc) SetEnabled(ctx context.Context, id int64, enabled bool) (domain.QueryView, error) {
	if err := s.p.Admin.SetEnabled(ctx, id, enabled); err != nil {
		return domain.QueryView{}, err
	}
	return s.Query(ctx, id)
}

// RunNow scans a query and waits for the result
func (s *Svc) RunNow(ctx context.Context, id int64) (domain.ScanResultView, error) {
	res, err := s.p.Scanner.RunScanNow(ctx, id)
	if err != nil {
		return domain.ScanResultView{}, err
	}
	return domain.ViewScanResult(res), nil
}

// RunAsync checks the query exists then scans it in the background.
// The scan outlives the request; Wait drains it on shutdown.
func (s *Svc) RunAsync(ctx context.Context, id int64) (domain.RunAccepted, error) {
	if _, err := s.p.Admin.Query(ctx, id); err != nil {
		return domain.RunAccepted{}, err
	}
	base := context.WithoutCancel(ctx)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		rctx, cancel := context.WithTimeout(base, s.cfg.RunTimeout)
		defer cancel()
		res, err := s.p.Scanner.RunScanNow(rctx, id)
		if err != nil {
			s.log.Warn().Err(err).Int64("query_id", id).Msg("manual scan not run")
			return
		}
		s.log.Info().Int64("query_id", id).Str("status", string(res.Status)).
			Int("new", res.Counts.New).Int("notified", res.Counts.Notified).Msg("manual scan finished")
	}()
	return domain.RunAccepted{QueryID: id, Status: "started"}, nil
}

// Wait blocks until background scans finish or ctx is done
func (s *Svc) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueryStats aggregates a query's recent scans
func (s *Svc) QueryStats(ctx context.Context, id int64) (domain.QueryStatsView, error) {
	st, err := s.p.Stats.QueryStats(ctx, id)
	if err != nil {
		return domain.QueryStatsView{}, err
	}
	return domain.ViewQueryStats(st), nil
}

// Overview returns the global counters
func (s *Svc) Overview(ctx context.Context) (domain.OverviewView, error) {
	g, err := s.p.Stats.GlobalStats(ctx)
	if err != nil {
		return domain.OverviewView{}, err
	}
	return domain.ViewOverview(g), nil
}

// Health reports auth state and recent failures
func (s *Svc) Health(ctx context.Context) (domain.HealthView, error) {
	h, err := s.p.Stats.Health(ctx)
	if err != nil {
		return domain.HealthView{}, err
	}
	ch := s.p.Channels
	if ch == nil {
		ch = []string{}
	}
	return domain.HealthView{
		Status:        string(h.Status),
		Authenticated: h.Authenticated,
		Failures1h:    h.Failures1h,
		Scheduled:     h.Scheduled,
		Channels:      ch,
		Now:           s.now().UTC(),
	}, nil
}

// RecentScans lists scans newest first; limit is clamped to 1..MaxScans
func (s *Svc) RecentScans(ctx context.Context, queryID int64, limit int) ([]domain.ScanView, error) {
	limit = domain.ScanLimit(limit)
	scans, err := s.p.Stats.RecentScans(ctx, queryID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScanView, 0, len(scans))
	for _, sc := range scans {
		out = append(out, domain.ViewScan(sc))
	}
	return out, nil
}

// Notification loads one notification with labels
func (s *Svc) Notification(ctx context.Context, id int64) (domain.NotificationView, error) {
	n, err := s.p.Stats.Notification(ctx, id)
	if err != nil {
		return domain.NotificationView{}, err
	}
	return domain.ViewNotification(n), nil
}

// AddLabel attaches a label and returns the notification's labels
func (s *Svc) AddLabel(ctx context.Context, id int64, label string) ([]string, error) {
	if err := s.p.Stats.AddLabel(ctx, id, label); err != nil {
		return nil, err
	}
	return s.Labels(ctx, id)
}

// Labels lists a notification's labels
func (s *Svc) Labels(ctx context.Context, id int64) ([]string, error) {
	ls, err := s.p.Stats.Labels(ctx, id)
	if ls == nil && err == nil {
		ls = []string{}
	}
	return ls, err
}

var _ Service = (*Svc)(nil)
