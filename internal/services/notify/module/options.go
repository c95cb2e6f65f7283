package module

import (
	"time"

	"marketwatch/internal/platform/config"
)

// Options holds credentials and endpoints for every channel.
// A channel with missing credentials is built disabled.
type Options struct {
	DiscordToken  string
	DiscordUserID string

	NtfyTopicURL string

	TelegramToken  string
	TelegramChatID string

	BarkURL string

	WebhookURL         string
	WebhookMethod      string
	WebhookHeaders     map[string]string
	WebhookBody        string
	WebhookContentType string

	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// FromConfig reads options using the NOTIFY_ prefix
func FromConfig(cfg config.Conf) Options {
	n := cfg.Prefix("NOTIFY_")
	return Options{
		DiscordToken:       n.MayString("DISCORD_BOT_TOKEN", ""),
		DiscordUserID:      n.MayString("DISCORD_USER_ID", ""),
		NtfyTopicURL:       n.MayString("NTFY_TOPIC_URL", ""),
		TelegramToken:      n.MayString("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     n.MayString("TELEGRAM_CHAT_ID", ""),
		BarkURL:            n.MayString("BARK_URL", ""),
		WebhookURL:         n.MayString("WEBHOOK_URL", ""),
		WebhookMethod:      n.MayEnum("WEBHOOK_METHOD", "post", "get", "post"),
		WebhookHeaders:     n.MayJSONMap("WEBHOOK_HEADERS", nil),
		WebhookBody:        n.MayString("WEBHOOK_BODY", ""),
		WebhookContentType: n.MayEnum("WEBHOOK_CONTENT_TYPE", "json", "json", "form"),
		Timeout:            n.MayDuration("TIMEOUT", 15*time.Second),
		MaxRetries:         n.MayInt("MAX_RETRIES", 2),
		RatePerSec:         n.MayFloat64("RATE_PER_SEC", 1),
	}
}
