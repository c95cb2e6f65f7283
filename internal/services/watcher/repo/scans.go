package repo

import (
	"context"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/store"
	"marketwatch/internal/services/watcher/domain"
)

// IsSeen reports whether the listing was already recorded for the query
func (r *queries) IsSeen(ctx context.Context, queryID int64, listingID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM listings_seen WHERE query_id = $1 AND listing_id = $2)`
	ok, err := store.Scalar[bool](ctx, r.q, sql, queryID, listingID)
	return ok, perr.FromPostgres(err, "is seen")
}

// MarkSeen upserts the seen record; a repeat only refreshes last_seen_at
func (r *queries) MarkSeen(ctx context.Context, queryID int64, l domain.Listing) error {
	const sql = `
		INSERT INTO listings_seen (query_id, listing_id, title, price, seller_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (query_id, listing_id) DO UPDATE
		SET last_seen_at = NOW()
	`
	_, err := r.q.Exec(ctx, sql, queryID, l.ID, l.Title, l.Price, l.SellerID)
	return perr.FromPostgresf(err, "mark seen %s", l.ID)
}

// CleanupOlderThan drops seen records not refreshed within days
func (r *queries) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	const sql = `DELETE FROM listings_seen WHERE last_seen_at < NOW() - make_interval(days => $1)`
	tag, err := r.q.Exec(ctx, sql, days)
	if err != nil {
		return 0, perr.FromPostgres(err, "cleanup seen")
	}
	return tag.RowsAffected(), nil
}

// StartScan opens a running scan record
func (r *queries) StartScan(ctx context.Context, queryID int64, runID string) (int64, error) {
	const sql = `INSERT INTO scans (query_id, run_id) VALUES ($1, $2) RETURNING id`
	id, err := store.Scalar[int64](ctx, r.q, sql, queryID, runID)
	return id, perr.FromPostgresf(err, "start scan for query %d", queryID)
}

// FinishScan moves a running scan to its terminal status; a finished scan is left alone
func (r *queries) FinishScan(ctx context.Context, scanID int64, status domain.ScanStatus, c domain.ScanCounts, errMsg string) error {
	const sql = `
		UPDATE scans SET
			status = $2, found = $3, new_count = $4, notified = $5,
			error_message = $6, finished_at = NOW()
		WHERE id = $1 AND status = 'running'
	`
	err := store.ExecOne(ctx, r.q, sql, scanID, string(status), c.Found, c.New, c.Notified, errMsg)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("running scan %d not found", scanID)
	}
	return perr.FromPostgresf(err, "finish scan %d", scanID)
}

// AbandonStaleScans fails running scans older than the cutoff
func (r *queries) AbandonStaleScans(ctx context.Context, olderThan time.Duration) (int64, error) {
	const sql = `
		UPDATE scans SET status = 'failed', error_message = 'abandoned', finished_at = NOW()
		WHERE status = 'running' AND started_at < $1
	`
	tag, err := r.q.Exec(ctx, sql, time.Now().Add(-olderThan))
	if err != nil {
		return 0, perr.FromPostgres(err, "abandon stale scans")
	}
	return tag.RowsAffected(), nil
}

// RecentFailures counts failed scans started within hours
func (r *queries) RecentFailures(ctx context.Context, hours int) (int, error) {
	const sql = `
		SELECT COUNT(*) FROM scans
		WHERE status = 'failed' AND started_at > NOW() - make_interval(hours => $1)
	`
	n, err := store.Scalar[int](ctx, r.q, sql, hours)
	return n, perr.FromPostgres(err, "recent failures")
}

// CreateNotification records a pending notification
func (r *queries) CreateNotification(ctx context.Context, n domain.NewNotification) (int64, error) {
	const sql = `
		INSERT INTO notifications (query_id, listing_id, confidence, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	id, err := store.Scalar[int64](ctx, r.q, sql, n.QueryID, n.ListingID, n.Confidence, n.Reason)
	return id, perr.FromPostgresf(err, "create notification for %s", n.ListingID)
}

// MarkNotificationSent moves a pending notification to sent
func (r *queries) MarkNotificationSent(ctx context.Context, id int64) error {
	const sql = `UPDATE notifications SET status = 'sent', sent_at = NOW() WHERE id = $1 AND status = 'pending'`
	return r.settle(ctx, sql, id)
}

// MarkNotificationFailed moves a pending notification to failed
func (r *queries) MarkNotificationFailed(ctx context.Context, id int64) error {
	const sql = `UPDATE notifications SET status = 'failed' WHERE id = $1 AND status = 'pending'`
	return r.settle(ctx, sql, id)
}

func (r *queries) settle(ctx context.Context, sql string, id int64) error {
	err := store.ExecOne(ctx, r.q, sql, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("pending notification %d not found", id)
	}
	return perr.FromPostgresf(err, "settle notification %d", id)
}
