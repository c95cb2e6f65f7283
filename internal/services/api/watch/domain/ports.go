package domain

import "context"

// ServicePort is consumed by the handlers
type ServicePort interface {
	ListQueries(ctx context.Context) ([]QueryView, error)
	Query(ctx context.Context, id int64) (QueryView, error)
	CreateQuery(ctx context.Context, in QueryInput) (QueryView, error)
	ReplaceQuery(ctx context.Context, id int64, in QueryInput) (QueryView, error)
	DeleteQuery(ctx context.Context, id int64) error
	SetEnabled(ctx context.Context, id int64, enabled bool) (QueryView, error)
	RunNow(ctx context.Context, id int64) (ScanResultView, error)
	RunAsync(ctx context.Context, id int64) (RunAccepted, error)

	QueryStats(ctx context.Context, id int64) (QueryStatsView, error)
	Overview(ctx context.Context) (OverviewView, error)
	Health(ctx context.Context) (HealthView, error)
	RecentScans(ctx context.Context, queryID int64, limit int) ([]ScanView, error)

	Notification(ctx context.Context, id int64) (NotificationView, error)
	AddLabel(ctx context.Context, id int64, label string) ([]string, error)
	Labels(ctx context.Context, id int64) ([]string, error)

	Logs(ctx context.Context, q LogQuery) (LogTail, error)
}
