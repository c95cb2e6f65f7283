// Package module builds the notification channels from config and exposes the fanout
package module

import (
	"marketwatch/internal/adapters/httpc"
	"marketwatch/internal/adapters/notify/bark"
	"marketwatch/internal/adapters/notify/discord"
	"marketwatch/internal/adapters/notify/ntfy"
	"marketwatch/internal/adapters/notify/telegram"
	"marketwatch/internal/adapters/notify/webhook"
	"marketwatch/internal/modkit"
	"marketwatch/internal/modkit/httpkit"

	"marketwatch/internal/services/notify/service"
)

// Module defines the notify module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the notify module; non-empty override credentials replace the env values
func New(deps modkit.Deps, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if overrides.DiscordToken != "" {
		opts.DiscordToken = overrides.DiscordToken
	}
	if overrides.DiscordUserID != "" {
		opts.DiscordUserID = overrides.DiscordUserID
	}

	primary, err := discord.New(discord.Options{
		BotToken: opts.DiscordToken,
		UserID:   opts.DiscordUserID,
		Timeout:  opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	h := httpc.Options{Timeout: opts.Timeout, MaxRetries: opts.MaxRetries, RatePerSec: opts.RatePerSec, Burst: 2}
	fan := service.New(primary,
		ntfy.New(ntfy.Options{TopicURL: opts.NtfyTopicURL, HTTP: h}),
		telegram.New(telegram.Options{BotToken: opts.TelegramToken, ChatID: opts.TelegramChatID, HTTP: h}),
		bark.New(bark.Options{URL: opts.BarkURL, HTTP: h}),
		webhook.New(webhook.Options{
			URL:         opts.WebhookURL,
			Method:      opts.WebhookMethod,
			Headers:     opts.WebhookHeaders,
			Body:        opts.WebhookBody,
			ContentType: opts.WebhookContentType,
			HTTP:        h,
		}),
	)

	chans := fan.Channels()
	if !primary.Enabled() {
		deps.Log.Warn().Msg("discord not configured; listings will be recorded as failed and alerts dropped")
	}
	deps.Log.Info().Strs("channels", chans).Msg("notification channels ready")

	return &Module{deps: deps, ports: Ports{Notifier: fan, Channels: chans}}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "notify" }

// Ports returns the module ports (Notifier, Channels)
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module config prefix
func (m *Module) Prefix() string { return "NOTIFY_" }

// MountRoutes mounts nothing
func (m *Module) MountRoutes(_ httpkit.Router) {}
