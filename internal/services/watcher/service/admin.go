package service

import (
	"context"

	"marketwatch/internal/services/watcher/domain"
)

// Admin manages queries and keeps the schedule in step with the store
type Admin struct {
	store  domain.Store
	sched  *Scheduler
	search domain.SearchPort
	cfg    Config
}

// ListQueries lists every query
func (a *Admin) ListQueries(ctx context.Context) ([]domain.Query, error) {
	qs, err := a.store.ListQueries(ctx, false)
	if qs == nil && err == nil {
		qs = []domain.Query{}
	}
	return qs, err
}

// Query loads one query
func (a *Admin) Query(ctx context.Context, id int64) (domain.Query, error) {
	return a.store.Query(ctx, id)
}

// CreateQuery validates, stores and schedules a new query
func (a *Admin) CreateQuery(ctx context.Context, q domain.Query) (domain.Query, error) {
	q.Clean()
	if err := q.Validate(a.cfg.AllowedIntervals); err != nil {
		return domain.Query{}, err
	}
	out, err := a.store.CreateQuery(ctx, q)
	if err != nil {
		return out, err
	}
	return out, a.sync(ctx, out)
}

// UpdateQuery replaces a query and reschedules it with the new interval
func (a *Admin) UpdateQuery(ctx context.Context, q domain.Query) (domain.Query, error) {
	q.Clean()
	if err := q.Validate(a.cfg.AllowedIntervals); err != nil {
		return domain.Query{}, err
	}
	out, err := a.store.UpdateQuery(ctx, q)
	if err != nil {
		return out, err
	}
	return out, a.sync(ctx, out)
}

// DeleteQuery removes a query and its job
func (a *Admin) DeleteQuery(ctx context.Context, id int64) error {
	if err := a.store.DeleteQuery(ctx, id); err != nil {
		return err
	}
	a.sched.UnscheduleQuery(id)
	return nil
}

// SetEnabled toggles a query and its job
func (a *Admin) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := a.store.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	if !enabled {
		a.sched.UnscheduleQuery(id)
		return nil
	}
	return a.sched.ScheduleQuery(ctx, id)
}

func (a *Admin) sync(ctx context.Context, q domain.Query) error {
	if !q.Enabled {
		a.sched.UnscheduleQuery(q.ID)
		return nil
	}
	return a.sched.ScheduleQuery(ctx, q.ID)
}

// GlobalStats is the overview counters
func (a *Admin) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	return a.store.GlobalStats(ctx)
}

// QueryStats aggregates a query's recent scans; unknown queries are NotFound
func (a *Admin) QueryStats(ctx context.Context, queryID int64) (domain.QueryStats, error) {
	if _, err := a.store.Query(ctx, queryID); err != nil {
		return domain.QueryStats{}, err
	}
	return a.store.QueryStats(ctx, queryID)
}

// RecentScans lists scans newest first
func (a *Admin) RecentScans(ctx context.Context, queryID int64, limit int) ([]domain.Scan, error) {
	out, err := a.store.RecentScans(ctx, queryID, limit)
	if out == nil && err == nil {
		out = []domain.Scan{}
	}
	return out, err
}

// Notification loads one notification
func (a *Admin) Notification(ctx context.Context, id int64) (domain.Notification, error) {
	return a.store.Notification(ctx, id)
}

// AddLabel normalizes and attaches a label
func (a *Admin) AddLabel(ctx context.Context, notificationID int64, label string) error {
	return a.store.AddLabel(ctx, notificationID, domain.NormalizeLabel(label))
}

// Labels lists a notification's labels
func (a *Admin) Labels(ctx context.Context, notificationID int64) ([]string, error) {
	return a.store.Labels(ctx, notificationID)
}

// Health combines the auth probe with the last hour of failures
func (a *Admin) Health(ctx context.Context) (domain.Health, error) {
	h := domain.Health{
		Authenticated: a.search.CheckAuth(ctx),
		Scheduled:     len(a.sched.Scheduled()),
	}
	n, err := a.store.RecentFailures(ctx, 1)
	if err != nil {
		return h, err
	}
	h.Failures1h = n
	switch {
	case !h.Authenticated:
		h.Status = domain.HealthDown
	case n >= a.cfg.FailureThreshold:
		h.Status = domain.HealthDegraded
	default:
		h.Status = domain.HealthOK
	}
	return h, nil
}

var (
	_ domain.AdminPort     = (*Admin)(nil)
	_ domain.StatsPort     = (*Admin)(nil)
	_ domain.SchedulerPort = (*Scheduler)(nil)
	_ domain.MaintenancePort = (*Scheduler)(nil)
	_ domain.ScannerPort   = (*Scanner)(nil)
)
