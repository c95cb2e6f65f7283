// Package webhook delivers listings to an arbitrary HTTP endpoint with a templated body
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"marketwatch/internal/adapters/httpc"
	perr "marketwatch/internal/platform/errors"
	notifydom "marketwatch/internal/services/notify/domain"
)

// Content types
const (
	ContentJSON = "JSON"
	ContentForm = "FORM"
)

// Options configures the webhook
type Options struct {
	URL    string
	Method string
	// Headers are sent with every call
	Headers map[string]string
	// Body may reference {{title}} and {{content}}; empty sends the default payload
	Body        string
	ContentType string
	HTTP        httpc.Options
}

// Client renders and sends the templated request
type Client struct {
	o    Options
	http *httpc.Client
}

// New creates a Client; method defaults to POST, content type to JSON
func New(o Options) *Client {
	o.Method = strings.ToUpper(strings.TrimSpace(o.Method))
	if o.Method != http.MethodGet {
		o.Method = http.MethodPost
	}
	o.ContentType = strings.ToUpper(strings.TrimSpace(o.ContentType))
	if o.ContentType != ContentForm {
		o.ContentType = ContentJSON
	}
	o.HTTP.Name = "webhook"
	return &Client{o: o, http: httpc.New(o.HTTP)}
}

// Name returns the channel name
func (c *Client) Name() string { return "webhook" }

// Enabled reports whether a target URL is configured
func (c *Client) Enabled() bool { return c.o.URL != "" }

// Send renders and delivers m
func (c *Client) Send(ctx context.Context, m notifydom.Message) error {
	req, err := c.Build(m)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Expect("webhook", http.StatusOK, http.StatusCreated, http.StatusAccepted)
}

// Build renders the outgoing request. JSON bodies go in the POST body or,
// for GET, flattened into query parameters; form bodies likewise.
func (c *Client) Build(m notifydom.Message) (httpc.Request, error) {
	h := http.Header{}
	for k, v := range c.o.Headers {
		h.Set(k, v)
	}

	var params url.Values
	var body []byte
	switch c.o.ContentType {
	case ContentJSON:
		h.Set("Content-Type", "application/json")
		payload, err := c.jsonPayload(m)
		if err != nil {
			return httpc.Request{}, err
		}
		if c.o.Method == http.MethodGet {
			params = flatten(payload)
		} else if body, err = json.Marshal(payload); err != nil {
			return httpc.Request{}, perr.Wrap(err, perr.ErrorCodeJSON, "webhook encode body")
		}
	default:
		h.Set("Content-Type", "application/x-www-form-urlencoded")
		form := c.render(m, url.QueryEscape)
		if c.o.tmpl() == "" {
			form = defaultFields(m).Encode()
		}
		if c.o.Method == http.MethodGet {
			v, err := url.ParseQuery(form)
			if err != nil {
				return httpc.Request{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "webhook form template")
			}
			params = v
		} else {
			body = []byte(form)
		}
	}

	target := c.o.URL
	if len(params) > 0 {
		u, err := url.Parse(target)
		if err != nil {
			return httpc.Request{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "webhook url")
		}
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}
	return httpc.Request{Method: c.o.Method, URL: target, Header: h, Body: body}, nil
}

// tmpl is the configured body template, trimmed
func (o Options) tmpl() string { return strings.TrimSpace(o.Body) }

func (c *Client) jsonPayload(m notifydom.Message) (any, error) {
	if c.o.tmpl() == "" {
		return map[string]string{"title": m.Title, "price": m.Price, "reason": m.Reason, "link": m.Link}, nil
	}
	var out any
	if err := json.Unmarshal([]byte(c.render(m, jsonEscape)), &out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "webhook body template is not valid JSON")
	}
	return out, nil
}

// render substitutes placeholders, escaping the values for the target encoding
func (c *Client) render(m notifydom.Message, esc func(string) string) string {
	content := m.Price + "\n" + m.Reason + "\n" + m.Link
	r := strings.NewReplacer("{{title}}", esc(m.Title), "{{content}}", esc(content))
	return r.Replace(c.o.tmpl())
}

func defaultFields(m notifydom.Message) url.Values {
	return url.Values{"title": {m.Title}, "price": {m.Price}, "reason": {m.Reason}, "link": {m.Link}}
}

// jsonEscape returns s encoded as a JSON string body without the quotes
func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}

// flatten turns a decoded JSON object into query parameters; nested values are re-encoded
func flatten(v any) url.Values {
	out := url.Values{}
	obj, ok := v.(map[string]any)
	if !ok {
		if s, ok := v.(map[string]string); ok {
			for k, val := range s {
				out.Set(k, val)
			}
		}
		return out
	}
	for k, val := range obj {
		switch t := val.(type) {
		case string:
			out.Set(k, t)
		case nil:
			out.Set(k, "")
		case map[string]any, []any:
			b, _ := json.Marshal(t)
			out.Set(k, string(b))
		default:
			out.Set(k, fmt.Sprint(t))
		}
	}
	return out
}
