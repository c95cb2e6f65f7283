package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"
	pstrings "marketwatch/internal/platform/strings"
	"marketwatch/internal/services/watcher/domain"
	"marketwatch/internal/services/watcher/filter"
)

const (
	finishTimeout = 15 * time.Second
	maxErrorText  = 1000
)

// Scanner runs one end-to-end scan for one query
type Scanner struct {
	store   domain.ScanStore
	queries domain.QueryStore
	search  domain.SearchPort
	seller  domain.SellerPort
	verify  domain.VerifyPort
	notify  domain.NotifierPort
	cfg     Config
	breaker *failureBreaker

	now      func() time.Time
	newRunID func() string

	mu       sync.Mutex
	inflight map[int64]struct{}
}

// RunScanNow loads the query and scans it synchronously, enabled or not
func (s *Scanner) RunScanNow(ctx context.Context, queryID int64) (domain.ScanResult, error) {
	q, err := s.queries.Query(ctx, queryID)
	if err != nil {
		return domain.ScanResult{}, err
	}
	return s.Scan(ctx, q)
}

// ConsecutiveFailures is the current process-wide failure streak
func (s *Scanner) ConsecutiveFailures() int { return s.breaker.Count() }

func (s *Scanner) claim(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Scanner) release(id int64) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

// Scan runs the full pipeline for q. Every started scan is finished exactly once,
// including when the pipeline panics.
func (s *Scanner) Scan(ctx context.Context, q domain.Query) (res domain.ScanResult, err error) {
	if !s.claim(q.ID) {
		return res, perr.Conflictf("query %d is already scanning", q.ID)
	}
	defer s.release(q.ID)

	ctx = logger.WithQuery(ctx, q.ID)
	res.RunID = s.newRunID()
	res.Status = domain.ScanFailed

	res.ScanID, err = s.store.StartScan(ctx, q.ID, res.RunID)
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("start scan")
		s.recordFailure(ctx, q, err)
		return res, err
	}
	ctx = logger.WithScan(ctx, res.ScanID, res.RunID)
	logger.C(ctx).Info().Str("keyword", q.Keyword).Msg("scan started")

	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("scan panicked: %v", r)
			logger.C(ctx).Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("scan panicked")
		}
		if err == nil {
			res.Status = domain.ScanCompleted
		}
		s.finish(ctx, q, res, err)
	}()

	err = s.run(ctx, q, &res.Counts)
	return res, err
}

// finish persists the terminal state and feeds the breaker
func (s *Scanner) finish(ctx context.Context, q domain.Query, res domain.ScanResult, scanErr error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	log := logger.C(ctx)
	msg := ""
	if scanErr != nil {
		msg = pstrings.Truncate(scanErr.Error(), maxErrorText)
	}
	if err := s.store.FinishScan(fctx, res.ScanID, res.Status, res.Counts, msg); err != nil {
		log.Error().Err(err).Msg("finish scan")
	}

	if scanErr != nil {
		log.Error().Err(scanErr).Int("found", res.Counts.Found).Int("new", res.Counts.New).Msg("scan failed")
		s.recordFailure(fctx, q, scanErr)
		return
	}
	s.breaker.Reset()
	log.Info().
		Int("found", res.Counts.Found).
		Int("new", res.Counts.New).
		Int("notified", res.Counts.Notified).
		Msg("scan completed")
}

func (s *Scanner) recordFailure(ctx context.Context, q domain.Query, cause error) {
	n, trip := s.breaker.Fail()
	if !trip {
		return
	}
	body := fmt.Sprintf("Query #%d failed %d times\nKeyword: %s\nLast error: %s",
		q.ID, n, q.Keyword, pstrings.Truncate(cause.Error(), 200))
	if !s.notify.Alert(ctx, AlertConsecutive, body) {
		logger.C(ctx).Warn().Int("failures", n).Msg("failure alert not delivered")
	}
}

// run is fetch through notify; c is updated in place so a failed or panicking
// scan still records how far it got
func (s *Scanner) run(ctx context.Context, q domain.Query, c *domain.ScanCounts) error {
	log := logger.C(ctx)

	raws, err := s.fetch(ctx, q.Keyword)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		log.Info().Msg("search returned no listings")
		return nil
	}

	kept := filter.Apply(NormalizeAll(raws), q, s.now())
	c.Found = len(kept)
	if len(kept) > s.cfg.MaxListings {
		kept = kept[:s.cfg.MaxListings]
	}
	log.Debug().Int("raw", len(raws)).Int("kept", len(kept)).Msg("filtered")

	streak := 0
	for _, l := range kept {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen, err := s.store.IsSeen(ctx, q.ID, l.ID)
		if err != nil {
			return err
		}
		if seen {
			streak++
			if streak >= s.cfg.SeenStreak {
				log.Info().Int("streak", streak).Msg("seen streak reached, stopping early")
				break
			}
			continue
		}
		streak = 0

		if err := s.store.MarkSeen(ctx, q.ID, l); err != nil {
			return err
		}
		c.New++

		sent, err := s.process(ctx, q, l)
		if err != nil {
			return err
		}
		if sent {
			c.Notified++
		}
	}
	return nil
}

// fetch pages through the feed until it runs dry or the listing cap is met
func (s *Scanner) fetch(ctx context.Context, keyword string) ([]domain.RawListing, error) {
	maxPages := s.cfg.MaxListings/s.cfg.PageSize + 1
	var out []domain.RawListing
	for page := 1; page <= maxPages; page++ {
		items, err := s.search.Search(ctx, keyword, page, s.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		out = append(out, items...)
		if len(out) >= s.cfg.MaxListings {
			break
		}
	}
	return out, nil
}

// process gates a new listing through verification and delivers it.
// sent reports whether the primary channel accepted it.
func (s *Scanner) process(ctx context.Context, q domain.Query, l domain.Listing) (sent bool, err error) {
	log := logger.C(ctx).With().Str("listing_id", l.ID).Logger()
	l = s.enrich(ctx, l)

	var v *domain.Verification
	if q.VerifyEnabled {
		res, ok := s.verifyListing(ctx, l, q)
		switch {
		case !ok:
			log.Warn().Msg("verification unavailable, notifying unverified")
		case res.Confidence < q.VerifyThreshold:
			log.Debug().Float64("confidence", res.Confidence).Str("reason", res.Reason).Msg("below threshold")
			return false, nil
		default:
			v = &res
		}
	}

	n := domain.NewNotification{QueryID: q.ID, ListingID: l.ID}
	if v != nil {
		conf := v.Confidence
		n.Confidence = &conf
		n.Reason = v.Reason
	}
	id, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		return false, err
	}

	d := s.notify.Deliver(ctx, l, q, v)
	for name, ok := range d.Channels {
		if !ok {
			log.Warn().Str("channel", name).Msg("channel delivery failed")
		}
	}
	if !d.PrimarySuccess {
		return false, s.store.MarkNotificationFailed(ctx, id)
	}
	if err := s.store.MarkNotificationSent(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scanner) verifyListing(ctx context.Context, l domain.Listing, q domain.Query) (domain.Verification, bool) {
	if s.verify == nil {
		return domain.Verification{}, false
	}
	return s.verify.Verify(ctx, l, q)
}

// enrich attaches seller reputation when configured; lookups are best effort
func (s *Scanner) enrich(ctx context.Context, l domain.Listing) domain.Listing {
	if !s.cfg.EnrichSeller || s.seller == nil || l.SellerID == "" {
		return l
	}
	rep, err := s.seller.SellerReputation(ctx, l.SellerID)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("seller_id", l.SellerID).Msg("reputation lookup failed")
		return l
	}
	l.Seller = rep
	return l
}
