// Package httpc is the resilient HTTP client the outbound adapters share:
// per-service rate limiting, bounded retries on transport errors, 429 and
// 502/503/504, and error classification through perr
package httpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUA        = "marketwatch"
	defaultMaxRetry  = 2
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
	maxBody          = 4 << 20
)

// Options configures a Client
type Options struct {
	// Name labels logs and errors, e.g. "telegram"
	Name      string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transient and rate limited responses; MaxRetries < 0 disables retries
	MaxRetries int
	RetryBase  time.Duration

	// RatePerSec throttles outbound calls; 0 means unlimited
	RatePerSec float64
	Burst      int

	// Transport overrides the round tripper, mostly for tests
	Transport http.RoundTripper
}

// Request is one outbound call
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read 2xx response
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client issues requests with throttling and retries
type Client struct {
	http  *http.Client
	opts  Options
	lim   *rate.Limiter
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New creates a Client with defaults filled in
func New(o Options) *Client {
	if o.Name == "" {
		o.Name = "http"
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if o.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(o.RatePerSec), max(o.Burst, 1))
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout, Transport: o.Transport},
		opts:  o,
		lim:   lim,
		log:   *logger.Named(o.Name),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do sends r, retrying transient failures, and returns the read body of a 2xx answer.
// Non-2xx answers become *StatusError carrying a perr code from the status.
func (c *Client) Do(ctx context.Context, r Request) (Response, error) {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	for attempt := 0; ; attempt++ {
		if err := c.lim.Wait(ctx); err != nil {
			return Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s throttle", c.opts.Name)
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
		if err != nil {
			return Response{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "%s new request failed", c.opts.Name)
		}
		for k, vs := range r.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.opts.UserAgent)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil || attempt >= c.opts.MaxRetries {
				return Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s request failed", c.opts.Name)
			}
			back := c.backoff(attempt)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempt).Msg("transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s request cancelled", c.opts.Name)
			}
			continue
		}

		c.log.Debug().
			Str("method", r.Method).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Msg("http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			_ = resp.Body.Close()
			if err != nil {
				return Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s read body", c.opts.Name)
			}
			return Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil

		case retryable(resp.StatusCode) && attempt < c.opts.MaxRetries:
			wait := retryAfter(resp.Header, c.now())
			if wait <= 0 {
				wait = c.backoff(attempt)
			}
			_ = drainAndClose(resp.Body)
			c.log.Warn().Int("status", resp.StatusCode).Dur("retry_in", wait).Int("attempt", attempt).Msg("transient status retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s request cancelled", c.opts.Name)
			}
			continue

		default:
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return Response{}, &StatusError{
				Status: resp.StatusCode,
				Body:   string(tail),
				Err:    perr.FromHTTPStatus(resp.StatusCode, c.opts.Name),
			}
		}
	}
}

// DoJSON posts in as JSON (nil sends no body) and decodes the answer into out (nil skips decoding)
func (c *Client) DoJSON(ctx context.Context, method, url string, header http.Header, in, out any) error {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "%s encode request", c.opts.Name)
		}
		body = b
		h.Set("Content-Type", "application/json")
	}
	h.Set("Accept", "application/json")

	resp, err := c.Do(ctx, Request{Method: method, URL: url, Header: h, Body: body})
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "%s decode response", c.opts.Name)
	}
	return nil
}

func (c *Client) backoff(attempt int) time.Duration {
	if attempt > 16 {
		return maxBackoff
	}
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
