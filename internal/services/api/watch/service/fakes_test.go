package service

import (
	"context"
	"sync"
	"time"

	perr "marketwatch/internal/platform/errors"
	wdom "marketwatch/internal/services/watcher/domain"
)

// fakeWatcher implements the admin, stats and scanner ports over maps
type fakeWatcher struct {
	mu      sync.Mutex
	queries map[int64]wdom.Query
	labels  map[int64][]string
	scans   []wdom.Scan
	next    int64

	lastLimit int
	lastQID   int64
	runs      chan int64
	runErr    error
	health    wdom.Health
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		queries: map[int64]wdom.Query{},
		labels:  map[int64][]string{},
		runs:    make(chan int64, 4),
	}
}

func (f *fakeWatcher) ListQueries(context.Context) ([]wdom.Query, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []wdom.Query
	for id := int64(1); id <= f.next; id++ {
		if q, ok := f.queries[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeWatcher) Query(_ context.Context, id int64) (wdom.Query, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queries[id]
	if !ok {
		return q, perr.NotFoundf("query %d not found", id)
	}
	return q, nil
}

func (f *fakeWatcher) CreateQuery(_ context.Context, q wdom.Query) (wdom.Query, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	q.ID = f.next
	q.CreatedAt = time.Unix(1700000000, 0)
	f.queries[q.ID] = q
	return q, nil
}

func (f *fakeWatcher) UpdateQuery(_ context.Context, q wdom.Query) (wdom.Query, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queries[q.ID]; !ok {
		return q, perr.NotFoundf("query %d not found", q.ID)
	}
	f.queries[q.ID] = q
	return q, nil
}

func (f *fakeWatcher) DeleteQuery(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queries[id]; !ok {
		return perr.NotFoundf("query %d not found", id)
	}
	delete(f.queries, id)
	return nil
}

func (f *fakeWatcher) SetEnabled(_ context.Context, id int64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queries[id]
	if !ok {
		return perr.NotFoundf("query %d not found", id)
	}
	q.Enabled = enabled
	f.queries[id] = q
	return nil
}

func (f *fakeWatcher) GlobalStats(context.Context) (wdom.GlobalStats, error) {
	return wdom.GlobalStats{QueriesTotal: 2, QueriesEnabled: 1, Scans24h: 5, Notifications24h: 3, ListingsTracked: 40}, nil
}

func (f *fakeWatcher) QueryStats(_ context.Context, id int64) (wdom.QueryStats, error) {
	if _, err := f.Query(context.Background(), id); err != nil {
		return wdom.QueryStats{}, err
	}
	return wdom.QueryStats{QueryID: id, TotalScans: 4, Successful: 3, Failed: 1}, nil
}

func (f *fakeWatcher) RecentScans(_ context.Context, queryID int64, limit int) ([]wdom.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQID, f.lastLimit = queryID, limit
	return f.scans, nil
}

func (f *fakeWatcher) Notification(_ context.Context, id int64) (wdom.Notification, error) {
	if id != 7 {
		return wdom.Notification{}, perr.NotFoundf("notification %d not found", id)
	}
	return wdom.Notification{ID: 7, QueryID: 1, ListingID: "L1", Status: wdom.NotificationSent}, nil
}

func (f *fakeWatcher) AddLabel(_ context.Context, id int64, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels[id] = append(f.labels[id], label)
	return nil
}

func (f *fakeWatcher) Labels(_ context.Context, id int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labels[id], nil
}

func (f *fakeWatcher) Health(context.Context) (wdom.Health, error) { return f.health, nil }

func (f *fakeWatcher) RunScanNow(ctx context.Context, id int64) (wdom.ScanResult, error) {
	f.runs <- id
	if f.runErr != nil {
		return wdom.ScanResult{}, f.runErr
	}
	if ctx.Err() != nil {
		return wdom.ScanResult{}, ctx.Err()
	}
	return wdom.ScanResult{ScanID: 11, RunID: "r", Status: wdom.ScanCompleted, Counts: wdom.ScanCounts{Found: 3, New: 2, Notified: 1}}, nil
}

func newSvc(f *fakeWatcher, logPath string) *Svc {
	return New(
		Ports{Admin: f, Stats: f, Scanner: f, Channels: []string{"discord", "ntfy"}},
		Config{LogPath: func() string { return logPath }},
	)
}
