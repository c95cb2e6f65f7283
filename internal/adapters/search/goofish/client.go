// Package goofish drives a headless browser session against the Goofish marketplace.
// Results are read from the site's own API responses as the pages load them.
package goofish

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"
	"marketwatch/internal/services/watcher/domain"
)

// endpoints intercepted from page loads
const (
	apiSearch   = "mtop.taobao.idlemtopsearch.pc.search"
	apiRatings  = "mtop.idle.web.trade.rate.list"
	apiUserHead = "mtop.idle.web.user.page.head"
)

// driver is the browser surface the client needs
type driver interface {
	// Capture loads pageURL, waits settle, and returns bodies of responses whose URL contains any match key
	Capture(ctx context.Context, pageURL string, settle time.Duration, match ...string) (map[string][][]byte, error)
	// HTML loads pageURL and returns the document markup
	HTML(ctx context.Context, pageURL string) (string, error)
	SetCookies(ctx context.Context, cs []Cookie) error
	Cookies(ctx context.Context) ([]Cookie, error)
	Close() error
}

// Client is the marketplace search session. One page load runs at a time.
type Client struct {
	opts Options
	log  logger.Logger

	mu     sync.Mutex
	drv    driver
	newDrv func(Options) (driver, error)
	warmed bool
}

var (
	_ domain.SearchPort = (*Client)(nil)
	_ domain.SellerPort = (*Client)(nil)
)

// New creates a Client; the browser starts on first use
func New(o Options) *Client {
	o = o.withDefaults()
	return &Client{opts: o, log: *logger.Named("goofish"), newDrv: newChrome}
}

// session starts the browser, loads cookies and warms up on the homepage. Callers hold mu.
func (c *Client) session(ctx context.Context) (driver, error) {
	if c.drv != nil && c.warmed {
		return c.drv, nil
	}
	if c.drv == nil {
		d, err := c.newDrv(c.opts)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "start browser")
		}

		cs, err := LoadCookies(c.opts.CookiesPath)
		if err != nil {
			c.log.Warn().Err(err).Msg("cookies not loaded")
		}
		if len(cs) > 0 {
			if err := d.SetCookies(ctx, cs); err != nil {
				// drop the browser so the next call starts over and retries the cookies
				if cerr := d.Close(); cerr != nil {
					c.log.Warn().Err(cerr).Msg("close browser after cookie failure")
				}
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "set cookies")
			}
			c.log.Info().Int("count", len(cs)).Msg("auth cookies loaded")
		} else {
			c.log.Warn().Str("path", c.opts.CookiesPath).Msg("no cookies; searches run anonymously")
		}
		c.drv = d
	}
	if _, err := c.drv.HTML(ctx, c.opts.BaseURL); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "warm up")
	}
	c.warmed = true
	c.log.Info().Msg("browser warmed up")
	return c.drv, nil
}

// SearchURL builds the search page address; page 1 carries no page parameter
func (c *Client) SearchURL(keyword string, page int) string {
	v := url.Values{"q": {keyword}}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return c.opts.BaseURL + "/search?" + v.Encode()
}

// Search loads one result page and returns at most pageSize raw listings
func (c *Client) Search(ctx context.Context, keyword string, page, pageSize int) ([]domain.RawListing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	bodies, err := d.Capture(ctx, c.SearchURL(keyword, page), c.opts.PageSettle, apiSearch)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "search page %d", page)
	}

	var out []domain.RawListing
	for _, b := range bodies[apiSearch] {
		rs, err := ParseSearch(b)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	if len(bodies[apiSearch]) == 0 {
		c.log.Warn().Str("keyword", keyword).Int("page", page).Msg("no search response intercepted")
	}
	if pageSize > 0 && len(out) > pageSize {
		out = out[:pageSize]
	}
	c.log.Debug().Str("keyword", keyword).Int("page", page).Int("count", len(out)).Msg("search page captured")
	return out, nil
}

// SellerReputation loads a seller profile and scores it
func (c *Client) SellerReputation(ctx context.Context, sellerID string) (*domain.Reputation, error) {
	if strings.TrimSpace(sellerID) == "" {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "seller id required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	pageURL := c.opts.BaseURL + "/personal?" + url.Values{"userId": {sellerID}}.Encode()
	bodies, err := d.Capture(ctx, pageURL, c.opts.PageSettle, apiRatings, apiUserHead)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "seller page")
	}

	var r Ratings
	if bs := bodies[apiRatings]; len(bs) > 0 {
		if r, err = ParseRatings(bs[0]); err != nil {
			return nil, err
		}
	}
	days := 0
	if bs := bodies[apiUserHead]; len(bs) > 0 {
		if days, err = ParseRegDays(bs[0]); err != nil {
			return nil, err
		}
	}
	return BuildReputation(r, days), nil
}

// CheckAuth reports false when the homepage serves a punish or captcha wall
func (c *Client) CheckAuth(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.session(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("auth check failed")
		return false
	}
	html, err := d.HTML(ctx, c.opts.BaseURL)
	if err != nil {
		c.log.Error().Err(err).Msg("auth check failed")
		return false
	}
	return !Blocked(html)
}

// Blocked spots the anti-bot interstitials
func Blocked(html string) bool {
	h := strings.ToLower(html)
	return strings.Contains(h, "punish") || strings.Contains(h, "captcha")
}

// KeepAlive visits the homepage so the session cookies stay fresh
func (c *Client) KeepAlive(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.session(ctx)
	if err == nil {
		_, err = d.HTML(ctx, c.opts.BaseURL)
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("keep-alive failed")
		return false
	}
	c.log.Debug().Msg("keep-alive visited homepage")
	return true
}

// RefreshSession writes the browser's current goofish cookies back to the cookie file
func (c *Client) RefreshSession(ctx context.Context) error {
	if c.opts.CookiesPath == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.session(ctx)
	if err != nil {
		return err
	}
	cs, err := d.Cookies(ctx)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "read browser cookies")
	}
	n, err := SaveCookies(c.opts.CookiesPath, cs)
	if err != nil {
		return err
	}
	c.log.Info().Int("count", n).Msg("cookie file refreshed")
	return nil
}

// Close shuts the browser down; the next call starts a fresh one
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drv == nil {
		return nil
	}
	err := c.drv.Close()
	c.drv, c.warmed = nil, false
	return err
}
