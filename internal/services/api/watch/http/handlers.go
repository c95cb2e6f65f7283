// Package http provides the admin API transport
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"marketwatch/internal/modkit/httpkit"
	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/services/api/watch/domain"
	svc "marketwatch/internal/services/api/watch/service"
)

// Register mounts the admin endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// queries
	httpkit.Get(r, "/queries", h.listQueries)
	httpkit.PostJSON[domain.QueryInput](r, "/queries", h.createQuery)
	httpkit.Get(r, "/queries/{id}", h.getQuery)
	httpkit.PutJSON[domain.QueryInput](r, "/queries/{id}", h.replaceQuery)
	httpkit.Delete(r, "/queries/{id}", h.deleteQuery)
	httpkit.Post(r, "/queries/{id}/enable", h.enable)
	httpkit.Post(r, "/queries/{id}/disable", h.disable)
	httpkit.Post(r, "/queries/{id}/run", h.run)
	httpkit.Get(r, "/queries/{id}/stats", h.queryStats)

	// operator read side
	httpkit.Get(r, "/overview", h.overview)
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/scans", h.scans)
	httpkit.Get(r, "/logs", h.logs)

	// notification labels
	httpkit.Get(r, "/notifications/{id}", h.notification)
	httpkit.Get(r, "/notifications/{id}/labels", h.labels)
	httpkit.PostJSON[domain.LabelInput](r, "/notifications/{id}/labels", h.addLabel)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /queries Queries listQueries
// @Summary List queries
// @Tags Queries
// @Produce json
// @Success 200 {array} domain.QueryView "ok"
// @Router /queries [get]
func (h *handlers) listQueries(r *stdhttp.Request) (any, error) {
	qs, err := h.svc.ListQueries(r.Context())
	if err != nil {
		return nil, err
	}
	return httpkit.List(qs, len(qs), len(qs), len(qs)), nil
}

// swagger:route POST /queries Queries createQuery
// @Summary Create and schedule a query
// @Tags Queries
// @Accept json
// @Produce json
// @Param payload body domain.QueryInput true "Query"
// @Success 201 {object} domain.QueryView "created"
// @Router /queries [post]
func (h *handlers) createQuery(r *stdhttp.Request, in domain.QueryInput) (any, error) {
	q, err := h.svc.CreateQuery(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(q), nil
}

// @Summary Get a query
// @Tags Queries
// @Param id path int true "Query id"
// @Success 200 {object} domain.QueryView "ok"
// @Router /queries/{id} [get]
func (h *handlers) getQuery(r *stdhttp.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Query(r.Context(), id)
}

// @Summary Replace a query and reschedule it
// @Tags Queries
// @Param id path int true "Query id"
// @Param payload body domain.QueryInput true "Query"
// @Success 200 {object} domain.QueryView "ok"
// @Router /queries/{id} [put]
func (h *handlers) replaceQuery(r *stdhttp.Request, in domain.QueryInput) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ReplaceQuery(r.Context(), id, in)
}

// @Summary Delete a query and its job
// @Tags Queries
// @Param id path int true "Query id"
// @Success 204
// @Router /queries/{id} [delete]
func (h *handlers) deleteQuery(r *stdhttp.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteQuery(r.Context(), id); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary Enable a query
// @Tags Queries
// @Router /queries/{id}/enable [post]
func (h *handlers) enable(r *stdhttp.Request) (any, error) { return h.setEnabled(r, true) }

// @Summary Disable a query
// @Tags Queries
// @Router /queries/{id}/disable [post]
func (h *handlers) disable(r *stdhttp.Request) (any, error) { return h.setEnabled(r, false) }

func (h *handlers) setEnabled(r *stdhttp.Request, on bool) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.SetEnabled(r.Context(), id, on)
}

// swagger:route POST /queries/{id}/run Queries runQuery
// @Summary Scan a query now
// @Description Starts the scan in the background and answers 202; wait=true blocks for the result.
// @Tags Queries
// @Param id path int true "Query id"
// @Param wait query bool false "Wait for the scan"
// @Success 200 {object} domain.ScanResultView "finished"
// @Success 202 {object} domain.RunAccepted "started"
// @Router /queries/{id}/run [post]
func (h *handlers) run(r *stdhttp.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	wait, err := queryBool(r, "wait")
	if err != nil {
		return nil, err
	}
	if wait {
		return h.svc.RunNow(r.Context(), id)
	}
	acc, err := h.svc.RunAsync(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(acc), nil
}

// @Summary Aggregates over a query's last 100 scans
// @Tags Stats
// @Param id path int true "Query id"
// @Success 200 {object} domain.QueryStatsView "ok"
// @Router /queries/{id}/stats [get]
func (h *handlers) queryStats(r *stdhttp.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.QueryStats(r.Context(), id)
}

// @Summary Global counters
// @Tags Stats
// @Success 200 {object} domain.OverviewView "ok"
// @Router /overview [get]
func (h *handlers) overview(r *stdhttp.Request) (any, error) {
	return h.svc.Overview(r.Context())
}

// @Summary Marketplace session and failure health
// @Tags Stats
// @Success 200 {object} domain.HealthView "ok"
// @Router /health [get]
func (h *handlers) health(r *stdhttp.Request) (any, error) {
	return h.svc.Health(r.Context())
}

// @Summary Recent scan log
// @Tags Stats
// @Param query_id query int false "Only this query"
// @Param limit query int false "At most 25"
// @Success 200 {array} domain.ScanView "ok"
// @Router /scans [get]
func (h *handlers) scans(r *stdhttp.Request) (any, error) {
	qid, err := queryInt(r, "query_id")
	if err != nil {
		return nil, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return nil, err
	}
	out, err := h.svc.RecentScans(r.Context(), int64(qid), limit)
	if err != nil {
		return nil, err
	}
	return httpkit.List(out, len(out), domain.ScanLimit(limit), len(out)), nil
}

// @Summary Tail, search or filter the log file
// @Tags Ops
// @Param lines query int false "Lines to return, at most 500 (200 when filtering)"
// @Param q query string false "Case-insensitive substring"
// @Param errors query bool false "Only warn and above"
// @Success 200 {object} domain.LogTail "ok"
// @Router /logs [get]
func (h *handlers) logs(r *stdhttp.Request) (any, error) {
	n, err := queryInt(r, "lines")
	if err != nil {
		return nil, err
	}
	onlyErr, err := queryBool(r, "errors")
	if err != nil {
		return nil, err
	}
	return h.svc.Logs(r.Context(), domain.LogQuery{
		Lines:      n,
		Pattern:    strings.TrimSpace(r.URL.Query().Get("q")),
		ErrorsOnly: onlyErr,
	})
}

// @Summary Get a notification with labels
// @Tags Notifications
// @Param id path int true "Notification id"
// @Success 200 {object} domain.NotificationView "ok"
// @Router /notifications/{id} [get]
func (h *handlers) notification(r *stdhttp.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Notification(r.Context(), id)
}

// @Summary List a notification's labels
// @Tags Notifications
// @Router /notifications/{id}/labels [get]
func (h *handlers) labels(r *stdhttp.Request) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Labels(r.Context(), id)
}

// @Summary Label a notification
// @Tags Notifications
// @Param payload body domain.LabelInput true "Label"
// @Success 201 {array} string "labels"
// @Router /notifications/{id}/labels [post]
func (h *handlers) addLabel(r *stdhttp.Request, in domain.LabelInput) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	ls, err := h.svc.AddLabel(r.Context(), id, in.Label)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(ls), nil
}

func pathID(r *stdhttp.Request) (int64, error) {
	id, err := strconv.ParseInt(httpkit.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, perr.WithField(perr.InvalidArgf("id must be a positive integer"), "id")
	}
	return id, nil
}

func queryInt(r *stdhttp.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, perr.WithField(perr.InvalidArgf("%s must be a non-negative integer", key), key)
	}
	return n, nil
}

func queryBool(r *stdhttp.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, perr.WithField(perr.InvalidArgf("%s must be a boolean", key), key)
	}
	return b, nil
}
