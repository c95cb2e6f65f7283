// Package domain defines notification messages and the channel contract
package domain

import (
	"context"

	wdom "marketwatch/internal/services/watcher/domain"
)

// Message is one accepted listing rendered for delivery.
// Title, Price, Reason and Link are the plain text parts every channel uses;
// the raw listing rides along for channels that render richer layouts.
type Message struct {
	Title    string
	Price    string
	Reason   string
	Link     string
	ImageURL string

	Listing      wdom.Listing
	Query        wdom.Query
	Verification *wdom.Verification
}

// Alert is an operator facing notice
type Alert struct {
	Title string
	Body  string
}

// Channel is one delivery target
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, m Message) error
}

// Alerter is implemented by channels that can reach the operator directly
type Alerter interface {
	SendAlert(ctx context.Context, a Alert) error
}
