package goofish

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// chrome is the chromedp driver: one browser with one long lived tab
type chrome struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
}

func newChrome(o Options) (driver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "zh-CN"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(o.UserAgent),
	)
	if bin := findChrome(o.ChromePath); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	if o.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.ProfileDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))

	// first Run launches the browser
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}
	return &chrome{tab: tab, cancelTab: cancelTab, cancelAlloc: cancelAlloc, navTimeout: o.NavTimeout}, nil
}

// op derives a per call context from the tab that also ends when the caller's ctx does
func (c *chrome) op(ctx context.Context, extra time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(c.tab, c.navTimeout+extra)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (c *chrome) Capture(ctx context.Context, pageURL string, settle time.Duration, match ...string) (map[string][][]byte, error) {
	opCtx, done := c.op(ctx, settle)
	defer done()

	var (
		mu       sync.Mutex
		order    []network.RequestID
		keys     = map[network.RequestID]string{}
		finished = map[network.RequestID]bool{}
	)
	chromedp.ListenTarget(opCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Response == nil {
				return
			}
			for _, m := range match {
				if strings.Contains(e.Response.URL, m) {
					mu.Lock()
					keys[e.RequestID] = m
					order = append(order, e.RequestID)
					mu.Unlock()
					return
				}
			}
		case *network.EventLoadingFinished:
			mu.Lock()
			finished[e.RequestID] = true
			mu.Unlock()
		}
	})

	if err := chromedp.Run(opCtx, chromedp.Navigate(pageURL), chromedp.Sleep(settle)); err != nil {
		return nil, err
	}

	mu.Lock()
	ids := append([]network.RequestID(nil), order...)
	mu.Unlock()

	out := make(map[string][][]byte, len(match))
	for _, id := range ids {
		mu.Lock()
		ok, key := finished[id], keys[id]
		mu.Unlock()
		if !ok {
			continue
		}
		var body []byte
		err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			b, err := network.GetResponseBody(id).Do(ctx)
			body = b
			return err
		}))
		if err != nil {
			// evicted bodies are skipped; the rest of the page may still have data
			continue
		}
		out[key] = append(out[key], body)
	}
	return out, nil
}

func (c *chrome) HTML(ctx context.Context, pageURL string) (string, error) {
	opCtx, done := c.op(ctx, 0)
	defer done()

	var html string
	err := chromedp.Run(opCtx,
		chromedp.Navigate(pageURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func (c *chrome) SetCookies(ctx context.Context, cs []Cookie) error {
	opCtx, done := c.op(ctx, 0)
	defer done()

	return chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ck := range cs {
			p := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithSecure(ck.Secure).
				WithHTTPOnly(ck.HTTPOnly).
				WithSameSite(sameSite(ck.SameSite))
			if ck.Expires > 0 {
				exp := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
				p = p.WithExpires(&exp)
			}
			if err := p.Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (c *chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	opCtx, done := c.op(ctx, 0)
	defer done()

	var out []Cookie
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cs, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, ck := range cs {
			out = append(out, Cookie{
				Name:     ck.Name,
				Value:    ck.Value,
				Domain:   ck.Domain,
				Path:     ck.Path,
				Expires:  ck.Expires,
				HTTPOnly: ck.HTTPOnly,
				Secure:   ck.Secure,
				SameSite: string(ck.SameSite),
			})
		}
		return nil
	}))
	return out, err
}

func (c *chrome) Close() error {
	err := chromedp.Cancel(c.tab)
	c.cancelTab()
	c.cancelAlloc()
	return err
}

func sameSite(s string) network.CookieSameSite {
	switch strings.ToLower(s) {
	case "strict":
		return network.CookieSameSiteStrict
	case "none", "no_restriction":
		return network.CookieSameSiteNone
	}
	return network.CookieSameSiteLax
}

// findChrome prefers an explicit path, then $CHROME_BIN, then well known names.
// Empty lets chromedp use its own lookup.
func findChrome(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}
