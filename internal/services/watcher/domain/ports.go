package domain

import (
	"context"
	"time"
)

// SearchPort drives the marketplace search session
type SearchPort interface {
	// Search returns one page of raw results; an empty page means the feed is exhausted
	Search(ctx context.Context, keyword string, page, pageSize int) ([]RawListing, error)
	CheckAuth(ctx context.Context) bool
	KeepAlive(ctx context.Context) bool
	RefreshSession(ctx context.Context) error
	Close() error
}

// SellerPort looks up seller reputation; optional
type SellerPort interface {
	SellerReputation(ctx context.Context, sellerID string) (*Reputation, error)
}

// VerifyPort judges listing relevance; ok=false means the service was unavailable
type VerifyPort interface {
	Verify(ctx context.Context, l Listing, q Query) (v Verification, ok bool)
	Close() error
}

// NotifierPort delivers accepted listings and operator alerts
type NotifierPort interface {
	// Deliver never fails; per-channel outcomes are in the result
	Deliver(ctx context.Context, l Listing, q Query, v *Verification) Delivery
	Alert(ctx context.Context, title, body string) bool
}

// QueryStore is query CRUD
type QueryStore interface {
	Query(ctx context.Context, id int64) (Query, error)
	ListQueries(ctx context.Context, enabledOnly bool) ([]Query, error)
	CreateQuery(ctx context.Context, q Query) (Query, error)
	UpdateQuery(ctx context.Context, q Query) (Query, error)
	DeleteQuery(ctx context.Context, id int64) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// ScanStore is the bookkeeping a scan writes
type ScanStore interface {
	IsSeen(ctx context.Context, queryID int64, listingID string) (bool, error)
	// MarkSeen upserts; a repeat call only refreshes last_seen
	MarkSeen(ctx context.Context, queryID int64, l Listing) error
	StartScan(ctx context.Context, queryID int64, runID string) (int64, error)
	FinishScan(ctx context.Context, scanID int64, status ScanStatus, c ScanCounts, errMsg string) error
	CreateNotification(ctx context.Context, n NewNotification) (int64, error)
	MarkNotificationSent(ctx context.Context, id int64) error
	MarkNotificationFailed(ctx context.Context, id int64) error
}

// MaintenanceStore backs the system jobs
type MaintenanceStore interface {
	CleanupOlderThan(ctx context.Context, days int) (int64, error)
	RecentFailures(ctx context.Context, hours int) (int, error)
	AbandonStaleScans(ctx context.Context, olderThan time.Duration) (int64, error)
}

// StatsStore is the read side for operators
type StatsStore interface {
	GlobalStats(ctx context.Context) (GlobalStats, error)
	QueryStats(ctx context.Context, queryID int64) (QueryStats, error)
	// RecentScans lists newest first; queryID 0 means all queries
	RecentScans(ctx context.Context, queryID int64, limit int) ([]Scan, error)
	Notification(ctx context.Context, id int64) (Notification, error)
	AddLabel(ctx context.Context, notificationID int64, label string) error
	Labels(ctx context.Context, notificationID int64) ([]string, error)
}

// Store is the whole persistence port
type Store interface {
	QueryStore
	ScanStore
	MaintenanceStore
	StatsStore
}

// SchedulerPort manages recurring jobs
type SchedulerPort interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ScheduleQuery(ctx context.Context, id int64) error
	UnscheduleQuery(id int64)
	// Scheduled lists query ids with a live job
	Scheduled() []int64
}

// MaintenancePort runs the system job bodies on demand
type MaintenancePort interface {
	CheckHealth(ctx context.Context)
	Cleanup(ctx context.Context) (int64, error)
	KeepAlive(ctx context.Context)
}

// ScannerPort runs one scan synchronously
type ScannerPort interface {
	RunScanNow(ctx context.Context, queryID int64) (ScanResult, error)
}

// AdminPort is query management that keeps the schedule in step
type AdminPort interface {
	ListQueries(ctx context.Context) ([]Query, error)
	Query(ctx context.Context, id int64) (Query, error)
	CreateQuery(ctx context.Context, q Query) (Query, error)
	UpdateQuery(ctx context.Context, q Query) (Query, error)
	DeleteQuery(ctx context.Context, id int64) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// StatsPort is the operator read side plus health
type StatsPort interface {
	StatsStore
	Health(ctx context.Context) (Health, error)
}
