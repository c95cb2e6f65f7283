package repo

import (
	"context"

	"marketwatch/internal/modkit/repokit"
	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/store"
	"marketwatch/internal/services/watcher/domain"
)

const queryColumns = `
	id, keyword, description, include_terms, exclude_terms, min_price, max_price,
	region, new_publish_hours, free_shipping, interval_minutes,
	verify_enabled, verify_threshold, enabled, created_at, updated_at`

func scanQuery(r repokit.Row) (domain.Query, error) {
	var q domain.Query
	err := r.Scan(
		&q.ID, &q.Keyword, &q.Description, &q.IncludeTerms, &q.ExcludeTerms, &q.MinPrice, &q.MaxPrice,
		&q.Region, &q.NewPublishHours, &q.FreeShippingOnly, &q.IntervalMinutes,
		&q.VerifyEnabled, &q.VerifyThreshold, &q.Enabled, &q.CreatedAt, &q.UpdatedAt,
	)
	return q, err
}

func terms(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// Query loads one query by id
func (r *queries) Query(ctx context.Context, id int64) (domain.Query, error) {
	const sql = `SELECT` + queryColumns + ` FROM queries WHERE id = $1`
	q, err := store.One(ctx, r.q, scanQuery, sql, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return q, perr.NotFoundf("query %d not found", id)
		}
		return q, perr.FromPostgresf(err, "load query %d", id)
	}
	return q, nil
}

// ListQueries lists queries by id, optionally only enabled ones
func (r *queries) ListQueries(ctx context.Context, enabledOnly bool) ([]domain.Query, error) {
	const sql = `SELECT` + queryColumns + ` FROM queries WHERE ($1 = FALSE OR enabled) ORDER BY id`
	qs, err := store.Many(ctx, r.q, scanQuery, sql, enabledOnly)
	if err != nil {
		return nil, perr.FromPostgres(err, "list queries")
	}
	return qs, nil
}

// CreateQuery inserts q and returns the stored row
func (r *queries) CreateQuery(ctx context.Context, in domain.Query) (domain.Query, error) {
	const sql = `
		INSERT INTO queries (
			keyword, description, include_terms, exclude_terms, min_price, max_price,
			region, new_publish_hours, free_shipping, interval_minutes,
			verify_enabled, verify_threshold, enabled
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING` + queryColumns
	q, err := store.One(ctx, r.q, scanQuery, sql,
		in.Keyword, in.Description, terms(in.IncludeTerms), terms(in.ExcludeTerms), in.MinPrice, in.MaxPrice,
		in.Region, in.NewPublishHours, in.FreeShippingOnly, in.IntervalMinutes,
		in.VerifyEnabled, in.VerifyThreshold, in.Enabled,
	)
	if err != nil {
		return q, perr.FromPostgres(err, "create query")
	}
	return q, nil
}

// UpdateQuery overwrites every editable column of in.ID
func (r *queries) UpdateQuery(ctx context.Context, in domain.Query) (domain.Query, error) {
	const sql = `
		UPDATE queries SET
			keyword = $2, description = $3, include_terms = $4, exclude_terms = $5,
			min_price = $6, max_price = $7, region = $8, new_publish_hours = $9,
			free_shipping = $10, interval_minutes = $11, verify_enabled = $12,
			verify_threshold = $13, enabled = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING` + queryColumns
	q, err := store.One(ctx, r.q, scanQuery, sql,
		in.ID, in.Keyword, in.Description, terms(in.IncludeTerms), terms(in.ExcludeTerms),
		in.MinPrice, in.MaxPrice, in.Region, in.NewPublishHours,
		in.FreeShippingOnly, in.IntervalMinutes, in.VerifyEnabled,
		in.VerifyThreshold, in.Enabled,
	)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return q, perr.NotFoundf("query %d not found", in.ID)
		}
		return q, perr.FromPostgresf(err, "update query %d", in.ID)
	}
	return q, nil
}

// DeleteQuery removes a query; its scans, seen records and notifications cascade
func (r *queries) DeleteQuery(ctx context.Context, id int64) error {
	err := store.ExecOne(ctx, r.q, `DELETE FROM queries WHERE id = $1`, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("query %d not found", id)
	}
	return perr.FromPostgresf(err, "delete query %d", id)
}

// SetEnabled flips the enabled flag
func (r *queries) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	const sql = `UPDATE queries SET enabled = $2, updated_at = NOW() WHERE id = $1`
	err := store.ExecOne(ctx, r.q, sql, id, enabled)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("query %d not found", id)
	}
	return perr.FromPostgresf(err, "set enabled on query %d", id)
}
