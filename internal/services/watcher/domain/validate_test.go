package domain

import (
	"testing"

	perr "marketwatch/internal/platform/errors"
)

func fp(v float64) *float64 { return &v }

func TestQueryValidate(t *testing.T) {
	t.Parallel()

	allowed := []int{60, 180, 360}
	base := Query{Keyword: "rtx 4090", IntervalMinutes: 60, VerifyThreshold: 0.7}

	cases := []struct {
		name  string
		mut   func(*Query)
		field string
	}{
		{"valid", func(*Query) {}, ""},
		{"missing keyword", func(q *Query) { q.Keyword = "" }, "keyword"},
		{"interval not allowed", func(q *Query) { q.IntervalMinutes = 45 }, "interval_minutes"},
		{"interval zero", func(q *Query) { q.IntervalMinutes = 0 }, "interval_minutes"},
		{"threshold high", func(q *Query) { q.VerifyThreshold = 1.5 }, "verify_threshold"},
		{"threshold low", func(q *Query) { q.VerifyThreshold = -0.1 }, "verify_threshold"},
		{"min above max", func(q *Query) { q.MinPrice, q.MaxPrice = fp(600), fp(500) }, "min_price"},
		{"min equals max", func(q *Query) { q.MinPrice, q.MaxPrice = fp(500), fp(500) }, ""},
		{"negative window", func(q *Query) { q.NewPublishHours = -1 }, "new_publish_hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			q := base
			tc.mut(&q)
			err := q.Validate(allowed)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeInvalidArgument || e.Field() != tc.field {
				t.Fatalf("want invalid %s, got %v", tc.field, err)
			}
		})
	}
}

func TestQueryValidateAnyInterval(t *testing.T) {
	t.Parallel()
	q := Query{Keyword: "x", IntervalMinutes: 7}
	if err := q.Validate(nil); err != nil {
		t.Fatalf("unexpected %v", err)
	}
}

func TestQueryClean(t *testing.T) {
	t.Parallel()
	q := Query{Keyword: "  rtx ", IncludeTerms: []string{" a", "a", "", "b"}}
	q.Clean()
	if q.Keyword != "rtx" || len(q.IncludeTerms) != 2 || q.IncludeTerms[1] != "b" {
		t.Fatalf("unexpected %+v", q)
	}

	q = Query{Keyword: "rtx", ExcludeTerms: []string{"\u200b", "broken", "\u200b\u200d"}}
	q.Clean()
	if len(q.ExcludeTerms) != 1 || q.ExcludeTerms[0] != "broken" {
		t.Fatalf("invisible exclude terms kept: %q", q.ExcludeTerms)
	}
	if got := NormalizeLabel("  Good Deal "); got != "good deal" {
		t.Fatalf("label %q", got)
	}
}
