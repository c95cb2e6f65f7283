package service

import (
	"context"
	"testing"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/testkit"
	"marketwatch/internal/services/watcher/domain"
)

type rig struct {
	store  *memStore
	search *fakeSearch
	verify *fakeVerify
	notify *fakeNotify
	svc    *Svc
}

func newRig(q domain.Query, cfg Config) *rig {
	r := &rig{
		store:  newMemStore(q),
		search: &fakeSearch{auth: true, alive: true},
		verify: &fakeVerify{ok: true, res: domain.Verification{Relevant: true, Confidence: 0.9, Reason: "match"}},
		notify: &fakeNotify{primaryOK: true},
	}
	r.svc = NewWithStore(r.store, Ports{Search: r.search, Verify: r.verify, Notify: r.notify}, cfg)
	r.svc.Scanner.newRunID = func() string { return "run-test" }
	return r
}

func baseQuery() domain.Query {
	return domain.Query{ID: 1, Keyword: "rtx 4090", IntervalMinutes: 60, Enabled: true}
}

func TestScan_HappyPath(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.search.feed = raws("a", 3, "¥450")

	res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Status != domain.ScanCompleted || res.Counts != (domain.ScanCounts{Found: 3, New: 3, Notified: 3}) {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RunID != "run-test" {
		t.Fatalf("run id %q", res.RunID)
	}
	sc := r.store.scan(res.ScanID)
	if sc.Status != domain.ScanCompleted || sc.Counts != res.Counts {
		t.Fatalf("stored scan %+v", sc)
	}
	for _, n := range r.store.notifications() {
		if n.Status != domain.NotificationSent {
			t.Fatalf("notification %d is %s", n.ID, n.Status)
		}
	}
	if r.verify.calls != 0 {
		t.Fatalf("verification disabled but called %d times", r.verify.calls)
	}
}

func TestScan_EmptyFeedCompletesWithZeroCounts(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.svc.Scanner.breaker.n = 2

	res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Status != domain.ScanCompleted || res.Counts != (domain.ScanCounts{}) {
		t.Fatalf("unexpected %+v", res)
	}
	if got := r.search.pageCalls(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected a single page request, got %v", got)
	}
	if r.svc.Scanner.ConsecutiveFailures() != 0 {
		t.Fatal("empty scan should reset the failure counter")
	}
}

func TestScan_PageLoop(t *testing.T) {
	t.Parallel()

	t.Run("stops at listing cap", func(t *testing.T) {
		t.Parallel()
		r := newRig(baseQuery(), Config{})
		r.search.feed = raws("p", 500, "¥1")
		if _, err := r.svc.Scanner.Scan(context.Background(), baseQuery()); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if got := r.search.pageCalls(); len(got) != 4 {
			t.Fatalf("want 4 pages for 200 listings, got %v", got)
		}
	})

	t.Run("stops on short feed", func(t *testing.T) {
		t.Parallel()
		r := newRig(baseQuery(), Config{})
		r.search.feed = raws("p", 60, "¥1")
		res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if got := r.search.pageCalls(); len(got) != 3 {
			t.Fatalf("want pages 1..3, got %v", got)
		}
		if res.Counts.Found != 60 {
			t.Fatalf("found %d", res.Counts.Found)
		}
	})
}

func TestScan_SeenStreakStopsEarly(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{SeenStreak: 30})

	fresh := raws("new", 5, "¥10")
	old := raws("old", 40, "¥10")
	for _, o := range old {
		r.store.seen[seenKey(1, o.ItemID)] = true
	}
	r.search.feed = append(fresh, old...)

	res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Counts.New != 5 || res.Counts.Notified != 5 {
		t.Fatalf("unexpected counts %+v", res.Counts)
	}
	if r.store.isSeenCalls != 35 {
		t.Fatalf("expected to stop after 5 new + 30 seen lookups, got %d", r.store.isSeenCalls)
	}
}

func TestScan_NewListingResetsStreak(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{SeenStreak: 3})

	feed := raws("x", 6, "¥10")
	// seen, seen, new, seen, seen, seen -> the new one breaks the first streak
	for _, i := range []int{0, 1, 3, 4, 5} {
		r.store.seen[seenKey(1, feed[i].ItemID)] = true
	}
	r.search.feed = append(feed, raws("tail", 2, "¥10")...)

	res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Counts.New != 1 || r.store.isSeenCalls != 6 {
		t.Fatalf("new=%d lookups=%d", res.Counts.New, r.store.isSeenCalls)
	}
}

func TestScan_FilteredListingNeverMarkedSeen(t *testing.T) {
	t.Parallel()
	q := baseQuery()
	max := 500.0
	q.MaxPrice = &max
	r := newRig(q, Config{})
	r.search.feed = []domain.RawListing{{ItemID: "pricey", Title: "RTX 4090", PriceText: "¥999"}}

	res, err := r.svc.Scanner.Scan(context.Background(), q)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Counts.Found != 0 || len(r.store.markSeen) != 0 || r.store.isSeenCalls != 0 {
		t.Fatalf("filtered listing leaked: %+v marks=%v", res.Counts, r.store.markSeen)
	}
}

func TestScan_Verification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		enabled      bool
		ok           bool
		confidence   float64
		wantCalls    int
		wantNotified int
		wantConf     bool
	}{
		{"disabled skips the port", false, true, 0.9, 0, 1, false},
		{"unavailable still notifies", true, false, 0, 1, 1, false},
		{"below threshold skips", true, true, 0.5, 1, 0, false},
		{"above threshold records confidence", true, true, 0.9, 1, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			q := baseQuery()
			q.VerifyEnabled = tc.enabled
			q.VerifyThreshold = 0.7
			r := newRig(q, Config{})
			r.verify.ok = tc.ok
			r.verify.res = domain.Verification{Relevant: true, Confidence: tc.confidence, Reason: "r"}
			r.search.feed = raws("v", 1, "¥10")

			res, err := r.svc.Scanner.Scan(context.Background(), q)
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			if r.verify.calls != tc.wantCalls {
				t.Fatalf("verify calls %d, want %d", r.verify.calls, tc.wantCalls)
			}
			if res.Counts.Notified != tc.wantNotified || res.Counts.New != 1 {
				t.Fatalf("counts %+v", res.Counts)
			}
			notes := r.store.notifications()
			if tc.wantNotified == 0 {
				if len(notes) != 0 {
					t.Fatalf("unexpected notifications %+v", notes)
				}
				return
			}
			if got := notes[0].Confidence != nil; got != tc.wantConf {
				t.Fatalf("confidence recorded=%v, want %v", got, tc.wantConf)
			}
			if got := r.notify.verdicts[0] != nil; got != tc.wantConf {
				t.Fatalf("verdict passed=%v, want %v", got, tc.wantConf)
			}
		})
	}
}

func TestScan_PrimaryFailureMarksNotificationFailed(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.notify.primaryOK = false
	r.search.feed = raws("f", 2, "¥10")

	res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("secondary failures must not fail the scan: %v", err)
	}
	if res.Counts.Notified != 0 || res.Counts.New != 2 {
		t.Fatalf("counts %+v", res.Counts)
	}
	for _, n := range r.store.notifications() {
		if n.Status != domain.NotificationFailed {
			t.Fatalf("notification %d is %s", n.ID, n.Status)
		}
	}
}

func TestScan_FinishExactlyOnce(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		setup  func(*rig)
		status domain.ScanStatus
		code   perr.ErrorCode
	}{
		{"success", func(r *rig) { r.search.feed = raws("s", 2, "¥1") }, domain.ScanCompleted, 0},
		{"empty", func(*rig) {}, domain.ScanCompleted, 0},
		{"search error", func(r *rig) { r.search.err = errSearch }, domain.ScanFailed, perr.ErrorCodeUnknown},
		{"store error", func(r *rig) {
			r.search.feed = raws("s", 2, "¥1")
			r.store.isSeenErr = perr.New(perr.ErrorCodeDB, "db down")
		}, domain.ScanFailed, perr.ErrorCodeDB},
		{"panic", func(r *rig) {
			r.search.feed = raws("s", 2, "¥1")
			r.notify.panicOn = "s-1"
		}, domain.ScanFailed, perr.ErrorCodePanic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := newRig(baseQuery(), Config{})
			tc.setup(r)

			var (
				res domain.ScanResult
				err error
			)
			testkit.MustNotPanic(t, func() { res, err = r.svc.Scanner.Scan(context.Background(), baseQuery()) })

			if res.Status != tc.status {
				t.Fatalf("status %s, want %s", res.Status, tc.status)
			}
			if tc.status == domain.ScanFailed && (err == nil || perr.CodeOf(err) != tc.code) {
				t.Fatalf("want code %d, got %v", tc.code, err)
			}
			if n := r.store.finishes[res.ScanID]; n != 1 {
				t.Fatalf("finishScan called %d times", n)
			}
			sc := r.store.scan(res.ScanID)
			if sc.Status != tc.status {
				t.Fatalf("stored status %s", sc.Status)
			}
			if tc.status == domain.ScanFailed && sc.Error == "" {
				t.Fatal("failed scan must carry an error message")
			}
		})
	}
}

func TestScan_PanicKeepsPartialCounts(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.search.feed = raws("s", 3, "¥1")
	r.notify.panicOn = "s-1"

	res, _ := r.svc.Scanner.Scan(context.Background(), baseQuery())
	sc := r.store.scan(res.ScanID)
	if sc.Counts.Found != 3 || sc.Counts.New != 2 || sc.Counts.Notified != 1 {
		t.Fatalf("partial counts lost: %+v", sc.Counts)
	}
}

func TestScan_BreakerAlertsOnceAtThreshold(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{FailureThreshold: 3})
	r.search.err = errSearch

	for i := 0; i < 5; i++ {
		_, _ = r.svc.Scanner.Scan(context.Background(), baseQuery())
	}
	if n := r.notify.alertCount(AlertConsecutive); n != 1 {
		t.Fatalf("want one alert, got %d", n)
	}
	if r.svc.Scanner.ConsecutiveFailures() != 5 {
		t.Fatalf("counter %d", r.svc.Scanner.ConsecutiveFailures())
	}

	r.search.mu.Lock()
	r.search.err = nil
	r.search.mu.Unlock()
	if _, err := r.svc.Scanner.Scan(context.Background(), baseQuery()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if r.svc.Scanner.ConsecutiveFailures() != 0 {
		t.Fatal("success should reset the counter")
	}

	r.search.mu.Lock()
	r.search.err = errSearch
	r.search.mu.Unlock()
	for i := 0; i < 3; i++ {
		_, _ = r.svc.Scanner.Scan(context.Background(), baseQuery())
	}
	if n := r.notify.alertCount(AlertConsecutive); n != 2 {
		t.Fatalf("a new streak should alert again, got %d alerts", n)
	}
}

func TestScan_StartFailureCountsAsFailure(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.store.startErr = perr.New(perr.ErrorCodeDB, "insert failed")

	res, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if err == nil || res.ScanID != 0 || res.Status != domain.ScanFailed {
		t.Fatalf("unexpected %+v %v", res, err)
	}
	if len(r.store.finishes) != 0 {
		t.Fatal("no scan row means nothing to finish")
	}
	if r.svc.Scanner.ConsecutiveFailures() != 1 {
		t.Fatal("start failure should count")
	}
}

func TestScan_SameQueryNeverOverlaps(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.search.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
		done <- err
	}()
	testkit.Eventually(t, 2*time.Second, func() bool { return len(r.search.pageCalls()) == 1 }, "first scan never searched")

	_, err := r.svc.Scanner.Scan(context.Background(), baseQuery())
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}

	close(r.search.block)
	if err := <-done; err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if r.svc.Scanner.ConsecutiveFailures() != 0 {
		t.Fatal("a rejected overlap is not a failure")
	}
}

func TestRunScanNow(t *testing.T) {
	t.Parallel()
	r := newRig(baseQuery(), Config{})
	r.search.feed = raws("n", 1, "¥1")

	res, err := r.svc.Scanner.RunScanNow(context.Background(), 1)
	if err != nil || res.Counts.New != 1 {
		t.Fatalf("run now: %+v %v", res, err)
	}
	if _, err := r.svc.Scanner.RunScanNow(context.Background(), 99); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
