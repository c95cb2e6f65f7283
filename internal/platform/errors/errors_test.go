package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapAndCodes(t *testing.T) {
	t.Parallel()
	base := stderrs.New("dial tcp: refused")
	err := Wrap(base, ErrorCodeUnavailable, "search page")
	err = WithOp(err, "goofish.Search")

	if !IsCode(err, ErrorCodeUnavailable) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if Root(err) != base {
		t.Fatal("root mismatch")
	}
	if got := err.Error(); got != "goofish.Search: search page: dial tcp: refused" {
		t.Fatalf("Error() = %q", got)
	}
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatal("WrapIf(nil) should be nil")
	}
	if CodeOf(fmt.Errorf("plain")) != ErrorCodeUnknown {
		t.Fatal("foreign error should be unknown")
	}
}

func TestHTTPMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{NotFoundf("query %d", 1), http.StatusNotFound},
		{New(ErrorCodeValidation, "bad"), http.StatusBadRequest},
		{InvalidArgf("x"), http.StatusUnprocessableEntity},
		{Upstreamf("llm"), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got, _ := HTTP(c.err); got != c.want {
			t.Fatalf("HTTP(%v) = %d want %d", c.err, got, c.want)
		}
	}
	w := WireFrom(WithField(New(ErrorCodeValidation, "required"), "keyword"))
	if w.Field != "keyword" || w.Message != "required" {
		t.Fatalf("wire = %+v", w)
	}
}

func TestFromHTTPStatusAndTransient(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status    int
		code      ErrorCode
		transient bool
	}{
		{401, ErrorCodeUnauthorized, false},
		{429, ErrorCodeTooManyRequests, true},
		{503, ErrorCodeUnavailable, true},
		{400, ErrorCodeUpstream, false},
	}
	for _, c := range cases {
		err := FromHTTPStatus(c.status, "ntfy")
		if CodeOf(err) != c.code {
			t.Fatalf("status %d code = %v", c.status, CodeOf(err))
		}
		if Transient(err) != c.transient {
			t.Fatalf("status %d transient = %v", c.status, Transient(err))
		}
	}
}

func TestPostgresMapping(t *testing.T) {
	t.Parallel()
	dup := &pgconn.PgError{Code: pgErrUniqueViolation}
	err := FromPostgres(dup, "insert query")
	if !IsCode(err, ErrorCodeDuplicateKey) || !IsDuplicateKey(err) {
		t.Fatalf("dup mapping: %v", err)
	}
	if !IsCode(FromPostgres(&pgconn.PgError{Code: pgErrForeignKeyViolation}, "label"), ErrorCodeNotFound) {
		t.Fatal("fk should map to not found")
	}
	if FromPostgres(nil, "x") != nil {
		t.Fatal("nil passthrough")
	}
	if !IsRetryable(&pgconn.PgError{Code: pgErrDeadlockDetected}) {
		t.Fatal("deadlock should retry")
	}
	if IsRetryable(context.Canceled) || IsRetryable(dup) {
		t.Fatal("canceled/dup must not retry")
	}
	if !IsRetryable(fmt.Errorf("commit unexpectedly resulted in rollback")) {
		t.Fatal("commit text should retry")
	}
}
