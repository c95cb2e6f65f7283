// Package domain defines the watcher's types and the ports it consumes and exposes
package domain

import (
	"slices"
	"time"
)

// Listing tags the marketplace attaches to items
const (
	TagFreeShipping = "包邮"
	TagInspected    = "验货宝"
)

// Query is one user-defined watch: what to search for and how to filter it
type Query struct {
	ID           int64
	Keyword      string
	Description  string
	IncludeTerms []string
	ExcludeTerms []string
	MinPrice     *float64
	MaxPrice     *float64

	// Region must appear in the listing location when set
	Region string
	// NewPublishHours keeps only listings published within the window; 0 disables
	NewPublishHours int
	FreeShippingOnly bool

	IntervalMinutes int
	VerifyEnabled   bool
	VerifyThreshold float64
	Enabled         bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawListing is a search result as the marketplace reports it, before normalization
type RawListing struct {
	ItemID        string
	Title         string
	PriceText     string
	OriginalPrice string
	Area          string
	SellerID      string
	SellerName    string
	PicURL        string
	TargetURL     string
	// PublishTimeMs is epoch milliseconds as text, "" when absent
	PublishTimeMs string
	WantCount     string
	Tags          []string
}

// Listing is a normalized marketplace item.
// Empty strings and zero numbers mean unknown; pointers mark optional data.
type Listing struct {
	ID            string
	Title         string
	Price         float64
	PriceText     string
	ImageURL      string
	SellerID      string
	SellerName    string
	Location      string
	URL           string
	OriginalPrice *string
	Wants         *int
	PublishedAt   *time.Time
	Tags          []string
	Seller        *Reputation
}

// HasTag reports whether the listing carries tag
func (l Listing) HasTag(tag string) bool { return slices.Contains(l.Tags, tag) }

// Reputation summarizes a seller profile
type Reputation struct {
	RegistrationDays int
	RegistrationText string
	// SellerRating is the share of positive seller-role ratings, 0..1
	SellerRating float64
	SellerTotal  int
	Transactions int
	// Score is 0..100, present only when SellerTotal > 0
	Score *float64
}

// Verification is the relevance service's verdict
type Verification struct {
	Relevant   bool
	Confidence float64
	Reason     string
}

// ScanStatus is the lifecycle state of a scan
type ScanStatus string

// Scan states; running is the only non-terminal one
const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanCounts are the per-scan tallies
type ScanCounts struct {
	// Found counts listings that survived the filter pipeline
	Found    int
	New      int
	Notified int
}

// Scan is one persisted scan record
type Scan struct {
	ID         int64
	QueryID    int64
	RunID      string
	Status     ScanStatus
	Counts     ScanCounts
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// ScanResult is what a caller of a scan gets back
type ScanResult struct {
	ScanID int64
	RunID  string
	Status ScanStatus
	Counts ScanCounts
}

// NotificationStatus moves pending -> sent or pending -> failed, never back
type NotificationStatus string

// Notification states
const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// NewNotification is what the orchestrator records before delivery
type NewNotification struct {
	QueryID    int64
	ListingID  string
	Confidence *float64
	Reason     string
}

// Notification is one persisted notification with its labels
type Notification struct {
	ID         int64
	QueryID    int64
	ListingID  string
	Status     NotificationStatus
	Confidence *float64
	Reason     string
	CreatedAt  time.Time
	SentAt     *time.Time
	Labels     []string
}

// Delivery is the fanout outcome; only PrimarySuccess drives bookkeeping
type Delivery struct {
	PrimarySuccess bool
	Channels       map[string]bool
}

// GlobalStats is the operator overview
type GlobalStats struct {
	QueriesTotal     int
	QueriesEnabled   int
	Scans24h         int
	Notifications24h int
	ListingsTracked  int
}

// QueryStats aggregates a query's most recent scans
type QueryStats struct {
	QueryID       int64
	TotalScans    int
	Successful    int
	Failed        int
	TotalFound    int
	TotalNew      int
	TotalNotified int
	LastScanAt    *time.Time
	LastError     string
}

// HealthStatus is the coarse health verdict
type HealthStatus string

// Health verdicts
const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)

// Health is the operator health snapshot
type Health struct {
	Status        HealthStatus
	Authenticated bool
	Failures1h    int
	Scheduled     int
}
