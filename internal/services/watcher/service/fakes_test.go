package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/services/watcher/domain"
)

// memStore is an in-memory domain.Store that counts the calls tests assert on
type memStore struct {
	mu sync.Mutex

	queries map[int64]domain.Query
	seen    map[string]bool
	scans   map[int64]*domain.Scan
	notes   map[int64]*domain.Notification
	nextID  int64

	isSeenCalls   int
	markSeen      []string
	finishes      map[int64]int
	failures1h    int
	startErr      error
	isSeenErr     error
	cleanupDays   int
	abandonCalled bool
}

func newMemStore(qs ...domain.Query) *memStore {
	m := &memStore{
		queries:  map[int64]domain.Query{},
		seen:     map[string]bool{},
		scans:    map[int64]*domain.Scan{},
		notes:    map[int64]*domain.Notification{},
		finishes: map[int64]int{},
	}
	for _, q := range qs {
		m.queries[q.ID] = q
	}
	return m
}

func seenKey(q int64, l string) string { return fmt.Sprintf("%d/%s", q, l) }

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) Query(_ context.Context, id int64) (domain.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queries[id]
	if !ok {
		return q, perr.NotFoundf("query %d not found", id)
	}
	return q, nil
}

func (m *memStore) ListQueries(_ context.Context, enabledOnly bool) ([]domain.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Query
	for _, q := range m.queries {
		if !enabledOnly || q.Enabled {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b domain.Query) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *memStore) CreateQuery(_ context.Context, q domain.Query) (domain.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.id()
	m.queries[q.ID] = q
	return q, nil
}

func (m *memStore) UpdateQuery(_ context.Context, q domain.Query) (domain.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queries[q.ID]; !ok {
		return q, perr.NotFoundf("query %d not found", q.ID)
	}
	m.queries[q.ID] = q
	return q, nil
}

func (m *memStore) DeleteQuery(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queries[id]; !ok {
		return perr.NotFoundf("query %d not found", id)
	}
	delete(m.queries, id)
	return nil
}

func (m *memStore) SetEnabled(_ context.Context, id int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queries[id]
	if !ok {
		return perr.NotFoundf("query %d not found", id)
	}
	q.Enabled = enabled
	m.queries[id] = q
	return nil
}

func (m *memStore) IsSeen(_ context.Context, q int64, l string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isSeenCalls++
	if m.isSeenErr != nil {
		return false, m.isSeenErr
	}
	return m.seen[seenKey(q, l)], nil
}

func (m *memStore) MarkSeen(_ context.Context, q int64, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[seenKey(q, l.ID)] = true
	m.markSeen = append(m.markSeen, l.ID)
	return nil
}

func (m *memStore) StartScan(_ context.Context, q int64, runID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return 0, m.startErr
	}
	id := m.id()
	m.scans[id] = &domain.Scan{ID: id, QueryID: q, RunID: runID, Status: domain.ScanRunning}
	return id, nil
}

func (m *memStore) FinishScan(_ context.Context, id int64, st domain.ScanStatus, c domain.ScanCounts, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishes[id]++
	s, ok := m.scans[id]
	if !ok {
		return perr.NotFoundf("scan %d", id)
	}
	s.Status, s.Counts, s.Error = st, c, msg
	return nil
}

func (m *memStore) CreateNotification(_ context.Context, n domain.NewNotification) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.notes[id] = &domain.Notification{
		ID: id, QueryID: n.QueryID, ListingID: n.ListingID,
		Status: domain.NotificationPending, Confidence: n.Confidence, Reason: n.Reason,
	}
	return id, nil
}

func (m *memStore) settle(id int64, st domain.NotificationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.Status != domain.NotificationPending {
		return perr.NotFoundf("pending notification %d", id)
	}
	n.Status = st
	return nil
}

func (m *memStore) MarkNotificationSent(_ context.Context, id int64) error {
	return m.settle(id, domain.NotificationSent)
}

func (m *memStore) MarkNotificationFailed(_ context.Context, id int64) error {
	return m.settle(id, domain.NotificationFailed)
}

func (m *memStore) CleanupOlderThan(_ context.Context, days int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupDays = days
	return 7, nil
}

func (m *memStore) RecentFailures(context.Context, int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures1h, nil
}

func (m *memStore) AbandonStaleScans(context.Context, time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandonCalled = true
	return 0, nil
}

func (m *memStore) GlobalStats(context.Context) (domain.GlobalStats, error) {
	return domain.GlobalStats{}, nil
}

func (m *memStore) QueryStats(_ context.Context, id int64) (domain.QueryStats, error) {
	return domain.QueryStats{QueryID: id}, nil
}

func (m *memStore) RecentScans(context.Context, int64, int) ([]domain.Scan, error) { return nil, nil }

func (m *memStore) Notification(_ context.Context, id int64) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return domain.Notification{}, perr.NotFoundf("notification %d", id)
	}
	return *n, nil
}

func (m *memStore) AddLabel(_ context.Context, id int64, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return perr.NotFoundf("notification %d", id)
	}
	n.Labels = append(n.Labels, label)
	return nil
}

func (m *memStore) Labels(_ context.Context, id int64) ([]string, error) {
	n, err := m.Notification(context.Background(), id)
	return n.Labels, err
}

func (m *memStore) notifications() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.notes {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b domain.Notification) int { return int(a.ID - b.ID) })
	return out
}

func (m *memStore) scan(id int64) domain.Scan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.scans[id]
}

// fakeSearch serves pages from a fixed feed
type fakeSearch struct {
	mu      sync.Mutex
	feed    []domain.RawListing
	err     error
	block   chan struct{}
	pages   []int
	auth    bool
	alive   bool
	refresh int
	closed  int
}

func (f *fakeSearch) Search(ctx context.Context, _ string, page, size int) ([]domain.RawListing, error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	block, err := f.block, f.err
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	lo := (page - 1) * size
	if lo >= len(f.feed) {
		return nil, nil
	}
	return f.feed[lo:min(lo+size, len(f.feed))], nil
}

func (f *fakeSearch) CheckAuth(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeSearch) KeepAlive(context.Context) bool { return f.alive }

func (f *fakeSearch) RefreshSession(context.Context) error {
	f.mu.Lock()
	f.refresh++
	f.mu.Unlock()
	return nil
}

func (f *fakeSearch) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeSearch) setAuth(ok bool) {
	f.mu.Lock()
	f.auth = ok
	f.mu.Unlock()
}

func (f *fakeSearch) pageCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.pages)
}

// fakeVerify returns a fixed verdict
type fakeVerify struct {
	mu     sync.Mutex
	res    domain.Verification
	ok     bool
	calls  int
	closed int
}

func (f *fakeVerify) Verify(context.Context, domain.Listing, domain.Query) (domain.Verification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.res, f.ok
}

func (f *fakeVerify) Close() error { f.closed++; return nil }

// fakeNotify records deliveries and alerts
type fakeNotify struct {
	mu        sync.Mutex
	primaryOK bool
	panicOn   string
	delivered []string
	verdicts  []*domain.Verification
	alerts    []string
}

func (f *fakeNotify) Deliver(_ context.Context, l domain.Listing, _ domain.Query, v *domain.Verification) domain.Delivery {
	if f.panicOn != "" && l.ID == f.panicOn {
		panic("deliver exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, l.ID)
	f.verdicts = append(f.verdicts, v)
	return domain.Delivery{PrimarySuccess: f.primaryOK, Channels: map[string]bool{"discord": f.primaryOK, "ntfy": false}}
}

func (f *fakeNotify) Alert(_ context.Context, title, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, title)
	return true
}

func (f *fakeNotify) alertCount(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.alerts {
		if a == title {
			n++
		}
	}
	return n
}

var errSearch = errors.New("browser crashed")

// raws builds n listings with ids prefix-0..n-1 priced at price
func raws(prefix string, n int, price string) []domain.RawListing {
	out := make([]domain.RawListing, n)
	for i := range out {
		out[i] = domain.RawListing{ItemID: fmt.Sprintf("%s-%d", prefix, i), Title: "RTX 4090 " + prefix, PriceText: price}
	}
	return out
}
