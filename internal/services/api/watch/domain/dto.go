// Package domain holds the admin API request and response shapes
package domain

import (
	"time"

	wdom "marketwatch/internal/services/watcher/domain"
)

// Limits on list endpoints
const (
	MaxScans        = 25
	DefaultScans    = 10
	MaxLogLines     = 500
	MaxSearchLines  = 200
	DefaultLogLines = 50
)

// ScanLimit clamps a requested scan count to 1..MaxScans, DefaultScans when unset
func ScanLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultScans
	case n > MaxScans:
		return MaxScans
	}
	return n
}

// QueryInput creates or replaces a query
// swagger:model
type QueryInput struct {
	Keyword          string   `json:"keyword"            validate:"required,max=100"           example:"ricoh gr"`
	Description      string   `json:"description"        validate:"max=500"                    example:"GR III or IIIx body only"`
	IncludeTerms     []string `json:"include_terms"      validate:"max=20,dive,max=50"`
	ExcludeTerms     []string `json:"exclude_terms"      validate:"max=20,dive,max=50"         example:"壳,box"`
	MinPrice         *float64 `json:"min_price"          validate:"omitempty,gte=0"            example:"1000"`
	MaxPrice         *float64 `json:"max_price"          validate:"omitempty,gte=0"            example:"5000"`
	Region           string   `json:"region"             validate:"max=50"                     example:"上海"`
	NewPublishHours  int      `json:"new_publish_hours"  validate:"gte=0,lte=720"`
	FreeShippingOnly bool     `json:"free_shipping_only"`
	IntervalMinutes  int      `json:"interval_minutes"   validate:"required,min=1"             example:"60"`
	VerifyEnabled    *bool    `json:"verify_enabled"`
	VerifyThreshold  *float64 `json:"verify_threshold"   validate:"omitempty,gte=0,lte=1"      example:"0.7"`
	Enabled          *bool    `json:"enabled"`
}

// Defaults for omitted QueryInput switches
const (
	DefaultVerifyThreshold = 0.7
)

// ToQuery converts the input into a watcher query with id set
func (in QueryInput) ToQuery(id int64) wdom.Query {
	q := wdom.Query{
		ID:               id,
		Keyword:          in.Keyword,
		Description:      in.Description,
		IncludeTerms:     in.IncludeTerms,
		ExcludeTerms:     in.ExcludeTerms,
		MinPrice:         in.MinPrice,
		MaxPrice:         in.MaxPrice,
		Region:           in.Region,
		NewPublishHours:  in.NewPublishHours,
		FreeShippingOnly: in.FreeShippingOnly,
		IntervalMinutes:  in.IntervalMinutes,
		VerifyEnabled:    true,
		VerifyThreshold:  DefaultVerifyThreshold,
		Enabled:          true,
	}
	if in.VerifyEnabled != nil {
		q.VerifyEnabled = *in.VerifyEnabled
	}
	if in.VerifyThreshold != nil {
		q.VerifyThreshold = *in.VerifyThreshold
	}
	if in.Enabled != nil {
		q.Enabled = *in.Enabled
	}
	return q
}

// QueryView is a query as the API shows it
type QueryView struct {
	ID               int64     `json:"id"                 example:"1"`
	Keyword          string    `json:"keyword"            example:"ricoh gr"`
	Description      string    `json:"description,omitempty"`
	IncludeTerms     []string  `json:"include_terms"`
	ExcludeTerms     []string  `json:"exclude_terms"`
	MinPrice         *float64  `json:"min_price"`
	MaxPrice         *float64  `json:"max_price"`
	Region           string    `json:"region,omitempty"`
	NewPublishHours  int       `json:"new_publish_hours"`
	FreeShippingOnly bool      `json:"free_shipping_only"`
	IntervalMinutes  int       `json:"interval_minutes"   example:"60"`
	VerifyEnabled    bool      `json:"verify_enabled"`
	VerifyThreshold  float64   `json:"verify_threshold"   example:"0.7"`
	Enabled          bool      `json:"enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ViewQuery maps a watcher query to its API view; term lists are never null
func ViewQuery(q wdom.Query) QueryView {
	return QueryView{
		ID:               q.ID,
		Keyword:          q.Keyword,
		Description:      q.Description,
		IncludeTerms:     nonNil(q.IncludeTerms),
		ExcludeTerms:     nonNil(q.ExcludeTerms),
		MinPrice:         q.MinPrice,
		MaxPrice:         q.MaxPrice,
		Region:           q.Region,
		NewPublishHours:  q.NewPublishHours,
		FreeShippingOnly: q.FreeShippingOnly,
		IntervalMinutes:  q.IntervalMinutes,
		VerifyEnabled:    q.VerifyEnabled,
		VerifyThreshold:  q.VerifyThreshold,
		Enabled:          q.Enabled,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

// ScanView is one scan log row
type ScanView struct {
	ID         int64      `json:"id"`
	QueryID    int64      `json:"query_id"`
	RunID      string     `json:"run_id"`
	Status     string     `json:"status"       example:"completed"`
	Found      int        `json:"found"`
	New        int        `json:"new"`
	Notified   int        `json:"notified"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	// DurationMs is set once the scan has finished
	DurationMs *int64 `json:"duration_ms,omitempty"`
}

// ViewScan maps a scan record
func ViewScan(s wdom.Scan) ScanView {
	v := ScanView{
		ID:         s.ID,
		QueryID:    s.QueryID,
		RunID:      s.RunID,
		Status:     string(s.Status),
		Found:      s.Counts.Found,
		New:        s.Counts.New,
		Notified:   s.Counts.Notified,
		Error:      s.Error,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	if s.FinishedAt != nil {
		ms := s.FinishedAt.Sub(s.StartedAt).Milliseconds()
		v.DurationMs = &ms
	}
	return v
}

// ScanResultView is what a manual run returns
type ScanResultView struct {
	ScanID   int64  `json:"scan_id"`
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	Found    int    `json:"found"`
	New      int    `json:"new"`
	Notified int    `json:"notified"`
}

// ViewScanResult maps a scan result
func ViewScanResult(r wdom.ScanResult) ScanResultView {
	return ScanResultView{
		ScanID:   r.ScanID,
		RunID:    r.RunID,
		Status:   string(r.Status),
		Found:    r.Counts.Found,
		New:      r.Counts.New,
		Notified: r.Counts.Notified,
	}
}

// RunAccepted acknowledges a scan started in the background
type RunAccepted struct {
	QueryID int64  `json:"query_id"`
	Status  string `json:"status" example:"started"`
}

// QueryStatsView aggregates a query's recent scans
type QueryStatsView struct {
	QueryID       int64      `json:"query_id"`
	TotalScans    int        `json:"total_scans"`
	Successful    int        `json:"successful"`
	Failed        int        `json:"failed"`
	SuccessRate   float64    `json:"success_rate"   example:"0.95"`
	TotalFound    int        `json:"total_found"`
	TotalNew      int        `json:"total_new"`
	TotalNotified int        `json:"total_notified"`
	LastScanAt    *time.Time `json:"last_scan_at"`
	LastError     string     `json:"last_error,omitempty"`
}

// ViewQueryStats maps query stats and derives the success rate
func ViewQueryStats(s wdom.QueryStats) QueryStatsView {
	v := QueryStatsView{
		QueryID:       s.QueryID,
		TotalScans:    s.TotalScans,
		Successful:    s.Successful,
		Failed:        s.Failed,
		TotalFound:    s.TotalFound,
		TotalNew:      s.TotalNew,
		TotalNotified: s.TotalNotified,
		LastScanAt:    s.LastScanAt,
		LastError:     s.LastError,
	}
	if s.TotalScans > 0 {
		v.SuccessRate = float64(s.Successful) / float64(s.TotalScans)
	}
	return v
}

// OverviewView is the global counters
type OverviewView struct {
	QueriesTotal     int `json:"queries_total"`
	QueriesEnabled   int `json:"queries_enabled"`
	Scans24h         int `json:"scans_24h"`
	Notifications24h int `json:"notifications_24h"`
	ListingsTracked  int `json:"listings_tracked"`
}

// ViewOverview maps global stats
func ViewOverview(g wdom.GlobalStats) OverviewView {
	return OverviewView{
		QueriesTotal:     g.QueriesTotal,
		QueriesEnabled:   g.QueriesEnabled,
		Scans24h:         g.Scans24h,
		Notifications24h: g.Notifications24h,
		ListingsTracked:  g.ListingsTracked,
	}
}

// HealthView is the operator health snapshot
type HealthView struct {
	Status        string    `json:"status"        example:"ok"` // ok degraded down
	Authenticated bool      `json:"authenticated"`
	Failures1h    int       `json:"failures_1h"`
	Scheduled     int       `json:"scheduled"`
	Channels      []string  `json:"channels"`
	Now           time.Time `json:"now"`
}

// NotificationView is one notification with its labels
type NotificationView struct {
	ID         int64      `json:"id"`
	QueryID    int64      `json:"query_id"`
	ListingID  string     `json:"listing_id"`
	Status     string     `json:"status"     example:"sent"`
	Confidence *float64   `json:"confidence"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at"`
	Labels     []string   `json:"labels"`
}

// ViewNotification maps a notification
func ViewNotification(n wdom.Notification) NotificationView {
	return NotificationView{
		ID:         n.ID,
		QueryID:    n.QueryID,
		ListingID:  n.ListingID,
		Status:     string(n.Status),
		Confidence: n.Confidence,
		Reason:     n.Reason,
		CreatedAt:  n.CreatedAt,
		SentAt:     n.SentAt,
		Labels:     nonNil(n.Labels),
	}
}

// LabelInput attaches a label to a notification
type LabelInput struct {
	Label string `json:"label" validate:"required,max=50" example:"good"`
}

// LogQuery selects log lines
type LogQuery struct {
	Lines int
	// Pattern keeps lines containing it, case-insensitive
	Pattern string
	// ErrorsOnly keeps warn and above
	ErrorsOnly bool
}

// LogTail is the selected log lines, oldest first
type LogTail struct {
	File  string   `json:"file"`
	Lines []string `json:"lines"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
