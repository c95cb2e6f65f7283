package goofish

import (
	"strings"
	"time"

	"marketwatch/internal/platform/config"
)

const (
	defaultBaseURL   = "https://www.goofish.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures the browser session
type Options struct {
	BaseURL     string
	CookiesPath string
	// ChromePath overrides browser discovery
	ChromePath string
	// ProfileDir keeps a persistent browser profile when set
	ProfileDir string
	Headless   bool
	UserAgent  string

	// PageSettle is how long a page may keep firing API calls after load
	PageSettle time.Duration
	NavTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.PageSettle <= 0 {
		o.PageSettle = 3 * time.Second
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = 30 * time.Second
	}
	return o
}

// FromConfig reads options using the SEARCH_ prefix
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("SEARCH_")
	return Options{
		BaseURL:     s.MayString("BASE_URL", defaultBaseURL),
		CookiesPath: s.MayString("COOKIES_PATH", "./data/cookies.json"),
		ChromePath:  s.MayString("CHROME_PATH", ""),
		ProfileDir:  s.MayString("PROFILE_DIR", ""),
		Headless:    s.MayBool("HEADLESS", true),
		UserAgent:   s.MayString("USER_AGENT", defaultUserAgent),
		PageSettle:  s.MayDuration("PAGE_SETTLE", 3*time.Second),
		NavTimeout:  s.MayDuration("NAV_TIMEOUT", 30*time.Second),
	}
}
