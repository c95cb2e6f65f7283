// Package bark pushes listings to iOS devices through a Bark server
package bark

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"marketwatch/internal/adapters/httpc"
	notifydom "marketwatch/internal/services/notify/domain"
)

// Options configures the channel; URL is the device endpoint, e.g. https://api.day.app/<key>
type Options struct {
	URL  string
	HTTP httpc.Options
}

// Client issues GET {url}/{title}/{body}
type Client struct {
	base string
	http *httpc.Client
}

// New creates a Client
func New(o Options) *Client {
	o.HTTP.Name = "bark"
	return &Client{base: strings.TrimRight(o.URL, "/"), http: httpc.New(o.HTTP)}
}

// Name returns the channel name
func (c *Client) Name() string { return "bark" }

// Enabled reports whether a device URL is configured
func (c *Client) Enabled() bool { return c.base != "" }

// Send pushes the listing
func (c *Client) Send(ctx context.Context, m notifydom.Message) error {
	resp, err := c.http.Do(ctx, httpc.Request{Method: http.MethodGet, URL: c.URL(m)})
	if err != nil {
		return err
	}
	return resp.Expect("bark", http.StatusOK)
}

// URL builds the push URL with both path segments escaped
func (c *Client) URL(m notifydom.Message) string {
	body := m.Price + "\n\n" + m.Reason + "\n\n" + m.Link
	return c.base + "/" + url.PathEscape(m.Title) + "/" + url.PathEscape(body)
}
