package domain

import (
	"slices"
	"strings"

	"marketwatch/internal/core/normalize"
	perr "marketwatch/internal/platform/errors"
	pstrings "marketwatch/internal/platform/strings"
)

// Clean trims text fields and dedupes term lists in place
func (q *Query) Clean() {
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.Description = strings.TrimSpace(q.Description)
	q.Region = strings.TrimSpace(q.Region)
	q.IncludeTerms = visible(pstrings.Terms(q.IncludeTerms))
	q.ExcludeTerms = visible(pstrings.Terms(q.ExcludeTerms))
}

// visible drops terms that fold to nothing, such as lone zero-width spaces
func visible(terms []string) []string {
	return slices.DeleteFunc(terms, func(t string) bool { return normalize.Fold(t) == "" })
}

// Validate checks q against the allowed scan intervals; an empty list allows any positive interval
func (q Query) Validate(allowedIntervals []int) error {
	switch {
	case q.Keyword == "":
		return perr.WithField(perr.InvalidArgf("keyword is required"), "keyword")
	case q.IntervalMinutes < 1:
		return perr.WithField(perr.InvalidArgf("interval must be at least one minute"), "interval_minutes")
	case len(allowedIntervals) > 0 && !slices.Contains(allowedIntervals, q.IntervalMinutes):
		return perr.WithField(perr.InvalidArgf("interval must be one of %v", allowedIntervals), "interval_minutes")
	case q.VerifyThreshold < 0 || q.VerifyThreshold > 1:
		return perr.WithField(perr.InvalidArgf("threshold must be between 0 and 1"), "verify_threshold")
	case q.MinPrice != nil && *q.MinPrice < 0:
		return perr.WithField(perr.InvalidArgf("min price must not be negative"), "min_price")
	case q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice:
		return perr.WithField(perr.InvalidArgf("min price exceeds max price"), "min_price")
	case q.NewPublishHours < 0:
		return perr.WithField(perr.InvalidArgf("publish window must not be negative"), "new_publish_hours")
	}
	return nil
}

// NormalizeLabel lower-cases and trims a label
func NormalizeLabel(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
