package repo

import (
	"context"

	"marketwatch/internal/modkit/repokit"
	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/store"
	"marketwatch/internal/services/watcher/domain"
)

// statsWindow is how many recent scans QueryStats aggregates
const statsWindow = 100

// GlobalStats returns the operator overview counters
func (r *queries) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	const sql = `
		SELECT
			(SELECT COUNT(*) FROM queries),
			(SELECT COUNT(*) FROM queries WHERE enabled),
			(SELECT COUNT(*) FROM scans WHERE started_at > NOW() - INTERVAL '24 hours'),
			(SELECT COUNT(*) FROM notifications WHERE created_at > NOW() - INTERVAL '24 hours'),
			(SELECT COUNT(*) FROM listings_seen)
	`
	var g domain.GlobalStats
	err := r.q.QueryRow(ctx, sql).Scan(&g.QueriesTotal, &g.QueriesEnabled, &g.Scans24h, &g.Notifications24h, &g.ListingsTracked)
	return g, perr.FromPostgres(err, "global stats")
}

// QueryStats aggregates the query's most recent scans
func (r *queries) QueryStats(ctx context.Context, queryID int64) (domain.QueryStats, error) {
	const sql = `
		WITH recent AS (
			SELECT * FROM scans WHERE query_id = $1
			ORDER BY started_at DESC, id DESC
			LIMIT $2
		)
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(found), 0),
			COALESCE(SUM(new_count), 0),
			COALESCE(SUM(notified), 0),
			MAX(started_at),
			COALESCE((SELECT error_message FROM recent WHERE status = 'failed' ORDER BY started_at DESC, id DESC LIMIT 1), '')
		FROM recent
	`
	s := domain.QueryStats{QueryID: queryID}
	err := r.q.QueryRow(ctx, sql, queryID, statsWindow).Scan(
		&s.TotalScans, &s.Successful, &s.Failed,
		&s.TotalFound, &s.TotalNew, &s.TotalNotified,
		&s.LastScanAt, &s.LastError,
	)
	return s, perr.FromPostgresf(err, "stats for query %d", queryID)
}

func scanScan(r repokit.Row) (domain.Scan, error) {
	var (
		s      domain.Scan
		status string
	)
	err := r.Scan(&s.ID, &s.QueryID, &s.RunID, &status,
		&s.Counts.Found, &s.Counts.New, &s.Counts.Notified,
		&s.Error, &s.StartedAt, &s.FinishedAt)
	s.Status = domain.ScanStatus(status)
	return s, err
}

// RecentScans lists scans newest first; queryID 0 means every query
func (r *queries) RecentScans(ctx context.Context, queryID int64, limit int) ([]domain.Scan, error) {
	const sql = `
		SELECT id, query_id, run_id, status, found, new_count, notified, error_message, started_at, finished_at
		FROM scans
		WHERE ($1::bigint = 0 OR query_id = $1)
		ORDER BY started_at DESC, id DESC
		LIMIT $2
	`
	out, err := store.Many(ctx, r.q, scanScan, sql, queryID, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "recent scans")
	}
	return out, nil
}

// Notification loads one notification with its labels
func (r *queries) Notification(ctx context.Context, id int64) (domain.Notification, error) {
	const sql = `
		SELECT n.id, n.query_id, n.listing_id, n.status, n.confidence, n.reason, n.created_at, n.sent_at,
			COALESCE(ARRAY(SELECT label FROM notification_labels l WHERE l.notification_id = n.id ORDER BY l.id), '{}')
		FROM notifications n
		WHERE n.id = $1
	`
	scan := func(row repokit.Row) (domain.Notification, error) {
		var (
			n      domain.Notification
			status string
		)
		err := row.Scan(&n.ID, &n.QueryID, &n.ListingID, &status, &n.Confidence, &n.Reason, &n.CreatedAt, &n.SentAt, &n.Labels)
		n.Status = domain.NotificationStatus(status)
		return n, err
	}
	n, err := store.One(ctx, r.q, scan, sql, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return n, perr.NotFoundf("notification %d not found", id)
	}
	return n, perr.FromPostgresf(err, "load notification %d", id)
}

// AddLabel records a label; repeats are kept as separate entries
func (r *queries) AddLabel(ctx context.Context, notificationID int64, label string) error {
	const sql = `INSERT INTO notification_labels (notification_id, label) VALUES ($1, $2)`
	_, err := r.q.Exec(ctx, sql, notificationID, label)
	if perr.IsForeignKeyViolation(err) {
		return perr.NotFoundf("notification %d not found", notificationID)
	}
	return perr.FromPostgresf(err, "label notification %d", notificationID)
}

// Labels lists a notification's labels in the order they were added
func (r *queries) Labels(ctx context.Context, notificationID int64) ([]string, error) {
	const sql = `SELECT label FROM notification_labels WHERE notification_id = $1 ORDER BY id`
	scan := func(row repokit.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}
	out, err := store.Many(ctx, r.q, scan, sql, notificationID)
	if err != nil {
		return nil, perr.FromPostgres(err, "labels")
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
