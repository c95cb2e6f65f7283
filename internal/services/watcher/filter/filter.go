// Package filter decides whether a normalized listing satisfies a query.
// Every predicate is pure; Match is their conjunction.
package filter

import (
	"time"

	"marketwatch/internal/core/normalize"
	"marketwatch/internal/services/watcher/domain"
)

// Predicate is one filter rule
type Predicate func(l domain.Listing, q domain.Query, now time.Time) bool

// All is the pipeline in evaluation order, cheapest first
var All = []Predicate{Price, FreeShipping, Published, Region, Include, Exclude}

// Price keeps listings inside the inclusive bounds
func Price(l domain.Listing, q domain.Query, _ time.Time) bool {
	if q.MinPrice != nil && l.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && l.Price > *q.MaxPrice {
		return false
	}
	return true
}

// Include needs every include term in the title
func Include(l domain.Listing, q domain.Query, _ time.Time) bool {
	if len(q.IncludeTerms) == 0 {
		return true
	}
	m := normalize.NewMatcher(l.Title)
	for _, t := range q.IncludeTerms {
		if !m.Has(t) {
			return false
		}
	}
	return true
}

// Exclude rejects a title containing any exclude term
func Exclude(l domain.Listing, q domain.Query, _ time.Time) bool {
	if len(q.ExcludeTerms) == 0 {
		return true
	}
	m := normalize.NewMatcher(l.Title)
	for _, t := range q.ExcludeTerms {
		// a term that folds to nothing would match every title
		if normalize.Fold(t) != "" && m.Has(t) {
			return false
		}
	}
	return true
}

// FreeShipping requires the free-shipping tag when the query asks for it
func FreeShipping(l domain.Listing, q domain.Query, _ time.Time) bool {
	return !q.FreeShippingOnly || l.HasTag(domain.TagFreeShipping)
}

// Published keeps listings newer than the query window; unknown publish time passes
func Published(l domain.Listing, q domain.Query, now time.Time) bool {
	if q.NewPublishHours <= 0 || l.PublishedAt == nil {
		return true
	}
	return l.PublishedAt.After(now.Add(-time.Duration(q.NewPublishHours) * time.Hour))
}

// Region matches the location substring; missing data on either side passes
func Region(l domain.Listing, q domain.Query, _ time.Time) bool {
	if q.Region == "" || l.Location == "" {
		return true
	}
	return normalize.Contains(l.Location, q.Region)
}

// Match is the conjunction of All
func Match(l domain.Listing, q domain.Query, now time.Time) bool {
	for _, p := range All {
		if !p(l, q, now) {
			return false
		}
	}
	return true
}

// Apply keeps matching listings in feed order
func Apply(ls []domain.Listing, q domain.Query, now time.Time) []domain.Listing {
	out := make([]domain.Listing, 0, len(ls))
	for _, l := range ls {
		if Match(l, q, now) {
			out = append(out, l)
		}
	}
	return out
}
