package httpc

import (
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	perr "marketwatch/internal/platform/errors"
)

// Expect narrows success to the listed statuses; some APIs answer 2xx codes that mean nothing useful happened
func (r Response) Expect(service string, statuses ...int) error {
	if slices.Contains(statuses, r.Status) {
		return nil
	}
	return perr.Upstreamf("%s answered unexpected status %d", service, r.Status)
}

// StatusError is a non-2xx answer; Unwrap yields the classified perr error
type StatusError struct {
	Status int
	Body   string
	Err    error
}

// Error interface
func (e *StatusError) Error() string { return e.Err.Error() }

// Unwrap interface
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfter reads Retry-After as seconds or an HTTP date
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
