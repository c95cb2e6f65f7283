package module

import (
	"time"

	"marketwatch/internal/platform/config"
)

// Options controls scanning and scheduling. Values may also be read from env
type Options struct {
	PageSize         int
	MaxListings      int
	SeenStreak       int
	FailureThreshold int
	JitterMinutes    int

	HealthEvery    time.Duration
	CleanupEvery   time.Duration
	KeepAliveEvery time.Duration
	RetentionDays  int
	StaleScanAfter time.Duration
	ScanTimeout    time.Duration

	EnrichSeller     bool
	AllowedIntervals []int
}

// FromConfig reads options using the WATCH_ prefix
func FromConfig(cfg config.Conf) Options {
	w := cfg.Prefix("WATCH_")
	return Options{
		PageSize:         w.MayInt("PAGE_SIZE", 50),
		MaxListings:      w.MayInt("MAX_LISTINGS", 200),
		SeenStreak:       w.MayInt("SEEN_STREAK", 30),
		FailureThreshold: w.MayInt("FAILURE_THRESHOLD", 3),
		JitterMinutes:    w.MayInt("JITTER_MINUTES", 5),
		HealthEvery:      w.MayDuration("HEALTH_EVERY", 6*time.Hour),
		CleanupEvery:     w.MayDuration("CLEANUP_EVERY", 24*time.Hour),
		KeepAliveEvery:   w.MayDuration("KEEPALIVE_EVERY", 2*time.Hour),
		RetentionDays:    w.MayInt("RETENTION_DAYS", 30),
		StaleScanAfter:   w.MayDuration("STALE_SCAN_AFTER", 2*time.Hour),
		ScanTimeout:      w.MayDuration("SCAN_TIMEOUT", 30*time.Minute),
		EnrichSeller:     w.MayBool("ENRICH_SELLER", false),
		AllowedIntervals: w.MayInts("ALLOWED_INTERVALS", []int{60, 180, 360}),
	}
}
