// Package telegram sends listings through a Telegram bot
package telegram

import (
	"context"
	"html"
	"net/http"
	"strings"

	"marketwatch/internal/adapters/httpc"
	perr "marketwatch/internal/platform/errors"
	notifydom "marketwatch/internal/services/notify/domain"
)

const defaultBase = "https://api.telegram.org"

// Options configures the bot; token and chat id are both required
type Options struct {
	BotToken string
	ChatID   string
	// BaseURL overrides the API host
	BaseURL string
	HTTP    httpc.Options
}

// Client calls sendMessage
type Client struct {
	o    Options
	http *httpc.Client
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// New creates a Client
func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = defaultBase
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	o.HTTP.Name = "telegram"
	return &Client{o: o, http: httpc.New(o.HTTP)}
}

// Name returns the channel name
func (c *Client) Name() string { return "telegram" }

// Enabled reports whether token and chat are configured
func (c *Client) Enabled() bool { return c.o.BotToken != "" && c.o.ChatID != "" }

// Send posts an HTML formatted message
func (c *Client) Send(ctx context.Context, m notifydom.Message) error {
	var res apiResult
	err := c.http.DoJSON(ctx, http.MethodPost, c.o.BaseURL+"/bot"+c.o.BotToken+"/sendMessage", nil, sendMessage{
		ChatID:    c.o.ChatID,
		Text:      Text(m),
		ParseMode: "HTML",
	}, &res)
	if err != nil {
		return err
	}
	if !res.OK {
		return perr.Upstreamf("telegram rejected message: %s", res.Description)
	}
	return nil
}

// Text renders the message body with user content escaped for HTML parse mode
func Text(m notifydom.Message) string {
	e := html.EscapeString
	return "📦 <b>" + e(m.Title) + "</b>\n\n💰 " + e(m.Price) + "\n\n" + e(m.Reason) + "\n\n🔗 " + e(m.Link)
}
