// Package llm judges listing relevance with an OpenAI compatible chat completions API
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"marketwatch/internal/adapters/httpc"
	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"
	"marketwatch/internal/services/watcher/domain"
)

const maxImageBytes = 2 << 20

// Client calls the chat completions endpoint
type Client struct {
	o    Options
	http *httpc.Client
	img  *httpc.Client
	log  logger.Logger
}

var _ domain.VerifyPort = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New creates a Client
func New(o Options) *Client {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 200
	}
	return &Client{
		o: o,
		http: httpc.New(httpc.Options{
			Name:       "llm",
			Timeout:    o.Timeout,
			MaxRetries: o.MaxRetries,
			RatePerSec: o.RatePerSec,
			Burst:      1,
		}),
		img: httpc.New(httpc.Options{Name: "llm-image", MaxRetries: -1}),
		log: *logger.Named("verify"),
	}
}

// Verify asks the model for a verdict; ok is false when the call or its answer is unusable
func (c *Client) Verify(ctx context.Context, l domain.Listing, q domain.Query) (domain.Verification, bool) {
	req := c.request(ctx, l, q)

	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.o.APIKey)

	var resp chatResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.o.Endpoint, h, req, &resp); err != nil {
		logger.C(ctx).Error().Err(err).Str("listing_id", l.ID).Msg("verification request failed")
		return domain.Verification{}, false
	}
	if len(resp.Choices) == 0 {
		logger.C(ctx).Error().Str("listing_id", l.ID).Msg("verification answer had no choices")
		return domain.Verification{}, false
	}
	v, err := ParseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("listing_id", l.ID).Msg("verification answer unreadable")
		return domain.Verification{}, false
	}
	return v, true
}

func (c *Client) request(ctx context.Context, l domain.Listing, q domain.Query) chatRequest {
	prompt := UserPrompt(l, q)
	req := chatRequest{
		Model:       c.o.Model,
		Temperature: c.o.Temperature,
		MaxTokens:   c.o.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	if c.o.VisionModel == "" || l.ImageURL == "" {
		return req
	}
	data, err := c.imageData(ctx, l.ImageURL)
	if err != nil {
		// text only is still a usable verdict
		logger.C(ctx).Warn().Err(err).Str("listing_id", l.ID).Msg("listing image not attached")
		return req
	}
	req.Model = c.o.VisionModel
	req.Messages[1].Content = []contentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &imageURL{URL: data}},
	}
	return req
}

// imageData fetches an image as a data URL
func (c *Client) imageData(ctx context.Context, u string) (string, error) {
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	resp, err := c.img.Do(ctx, httpc.Request{URL: u})
	if err != nil {
		return "", err
	}
	if len(resp.Body) > maxImageBytes {
		return "", perr.Newf(perr.ErrorCodeInvalidArgument, "image too large (%d bytes)", len(resp.Body))
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(resp.Body), nil
}

// Close releases nothing; the HTTP clients hold no session
func (c *Client) Close() error { return nil }

// ParseVerdict reads the model's JSON answer. Code fences and text around the object
// are tolerated; confidence is clamped to 0..1.
func ParseVerdict(content string) (domain.Verification, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		lines = lines[1:]
		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
			lines = lines[:n-1]
		}
		s = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		s = s[i : j+1]
	}

	var raw struct {
		Relevant   json.RawMessage `json:"relevant"`
		Confidence json.RawMessage `json:"confidence"`
		Reason     any             `json:"reason"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return domain.Verification{}, perr.Wrap(err, perr.ErrorCodeJSON, "verdict is not JSON")
	}

	v := domain.Verification{
		Relevant:   truthy(raw.Relevant),
		Confidence: clamp01(number(raw.Confidence)),
	}
	switch r := raw.Reason.(type) {
	case string:
		v.Reason = r
	case nil:
	default:
		b, _ := json.Marshal(r)
		v.Reason = string(b)
	}
	return v, nil
}

func truthy(b json.RawMessage) bool {
	s := strings.Trim(strings.ToLower(strings.TrimSpace(string(b))), `"`)
	return s == "true" || s == "1" || s == "yes"
}

func number(b json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
