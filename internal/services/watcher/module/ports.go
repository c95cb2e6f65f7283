package module

import "marketwatch/internal/services/watcher/domain"

// Ports defines watcher module ports exposed to other modules
type Ports struct {
	Scheduler domain.SchedulerPort
	Scanner   domain.ScannerPort
	Admin     domain.AdminPort
	Stats     domain.StatsPort
	Maint     domain.MaintenancePort
}
