// Package ntfy publishes listings to an ntfy topic
package ntfy

import (
	"context"
	"mime"
	"net/http"

	"marketwatch/internal/adapters/httpc"
	notifydom "marketwatch/internal/services/notify/domain"
)

// Options configures the channel; an empty TopicURL disables it
type Options struct {
	TopicURL string
	HTTP     httpc.Options
}

// Client posts plain text messages
type Client struct {
	url  string
	http *httpc.Client
}

// New creates a Client
func New(o Options) *Client {
	o.HTTP.Name = "ntfy"
	return &Client{url: o.TopicURL, http: httpc.New(o.HTTP)}
}

// Name returns the channel name
func (c *Client) Name() string { return "ntfy" }

// Enabled reports whether a topic is configured
func (c *Client) Enabled() bool { return c.url != "" }

// Send posts "title\nreason\n\nlink" with the title also in the Title header
func (c *Client) Send(ctx context.Context, m notifydom.Message) error {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Title", mime.QEncoding.Encode("utf-8", m.Title))
	h.Set("Click", m.Link)

	resp, err := c.http.Do(ctx, httpc.Request{
		Method: http.MethodPost,
		URL:    c.url,
		Header: h,
		Body:   []byte(m.Title + "\n" + m.Reason + "\n\n" + m.Link),
	})
	if err != nil {
		return err
	}
	return resp.Expect("ntfy", http.StatusOK, http.StatusCreated)
}
