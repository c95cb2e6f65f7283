package service

import (
	"context"
	"fmt"
	"runtime/debug"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"
)

// Operator alert titles
const (
	AlertAuthExpired = "🔴 Cookie Expired"
	AlertHighFailure = "⚠️ High Failure Rate"
	AlertConsecutive = "⚠️ Consecutive Failures"
)

// guard keeps a job panic from reaching the runner
func (s *Scheduler) guard(ctx context.Context, job string) {
	if r := recover(); r != nil {
		logger.C(ctx).Error().Str("job", job).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("job panicked")
	}
}

// runQuery is the body of a query job; the query is re-read so edits apply without rescheduling
func (s *Scheduler) runQuery(id int64) {
	ctx, cancel := context.WithTimeout(s.base, s.cfg.ScanTimeout)
	defer cancel()
	ctx = logger.WithQuery(ctx, id)
	defer s.guard(ctx, "scan")

	q, err := s.queries.Query(ctx, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			logger.C(ctx).Debug().Msg("query gone, skipping")
			return
		}
		logger.C(ctx).Warn().Err(err).Msg("load query for scan")
		return
	}
	if !q.Enabled {
		return
	}
	if _, err := s.scanner.Scan(ctx, q); err != nil {
		logger.C(ctx).Debug().Err(err).Msg("scheduled scan ended with error")
	}
}

func (s *Scheduler) systemCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.base, s.cfg.JobTimeout)
}

func (s *Scheduler) healthCheck() {
	ctx, cancel := s.systemCtx()
	defer cancel()
	defer s.guard(ctx, "health")
	s.CheckHealth(ctx)
}

func (s *Scheduler) cleanup() {
	ctx, cancel := s.systemCtx()
	defer cancel()
	defer s.guard(ctx, "cleanup")
	if _, err := s.Cleanup(ctx); err != nil {
		s.log.Warn().Err(err).Msg("cleanup failed")
	}
}

func (s *Scheduler) keepAlive() {
	ctx, cancel := s.systemCtx()
	defer cancel()
	defer s.guard(ctx, "keepalive")
	s.KeepAlive(ctx)
}

// CheckHealth probes auth and the recent failure rate, alerting the operator.
// The auth alert fires once per authenticated to unauthenticated transition.
func (s *Scheduler) CheckHealth(ctx context.Context) {
	ok := s.search.CheckAuth(ctx)

	s.mu.Lock()
	alert := !ok && !s.authAlerted
	s.authAlerted = !ok
	s.mu.Unlock()

	if alert {
		s.log.Warn().Msg("marketplace session no longer authenticated")
		s.notify.Alert(ctx, AlertAuthExpired,
			"Goofish authentication has expired. Refresh the cookie file and restart the watcher.")
	}

	n, err := s.maint.RecentFailures(ctx, 1)
	if err != nil {
		s.log.Warn().Err(err).Msg("count recent failures")
		return
	}
	if n >= s.cfg.FailureThreshold {
		s.notify.Alert(ctx, AlertHighFailure,
			fmt.Sprintf("%d scan failures in the last hour. Check logs and authentication.", n))
	}
	s.log.Info().Bool("authenticated", ok).Int("failures_1h", n).Msg("health check")
}

// Cleanup deletes seen records older than the retention window
func (s *Scheduler) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.maint.CleanupOlderThan(ctx, s.cfg.RetentionDays)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("deleted", n).Int("retention_days", s.cfg.RetentionDays).Msg("seen listings cleaned up")
	return n, nil
}

// KeepAlive pings the marketplace and persists the refreshed session
func (s *Scheduler) KeepAlive(ctx context.Context) {
	if !s.search.KeepAlive(ctx) {
		s.log.Warn().Msg("keep-alive failed")
		return
	}
	if err := s.search.RefreshSession(ctx); err != nil {
		s.log.Warn().Err(err).Msg("persist session")
	}
}
