// Package service fans accepted listings out to every enabled channel
package service

import (
	"context"
	"sync"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/platform/logger"
	notifydom "marketwatch/internal/services/notify/domain"
	wdom "marketwatch/internal/services/watcher/domain"
)

// Fanout delivers to a primary channel plus any number of best effort channels
type Fanout struct {
	primary notifydom.Channel
	others  []notifydom.Channel
}

var _ wdom.NotifierPort = (*Fanout)(nil)

// New builds a Fanout; a nil primary panics since alerts have nowhere to go
func New(primary notifydom.Channel, others ...notifydom.Channel) *Fanout {
	if primary == nil {
		panic("notify: primary channel is required")
	}
	return &Fanout{primary: primary, others: others}
}

// Channels lists the names of the enabled channels, primary first
func (f *Fanout) Channels() []string {
	var out []string
	for _, ch := range f.all() {
		if name, on := switchOf(ch); on {
			out = append(out, name)
		}
	}
	return out
}

func (f *Fanout) all() []notifydom.Channel {
	return append([]notifydom.Channel{f.primary}, f.others...)
}

// switchOf reads a channel's name and switch; a panicking channel counts as off
func switchOf(ch notifydom.Channel) (name string, on bool) {
	defer func() {
		if recover() != nil {
			on = false
		}
	}()
	return ch.Name(), ch.Enabled()
}

// outcome is one channel's part of a delivery
type outcome struct {
	name string
	on   bool
	ok   bool
}

// Deliver sends to all enabled channels concurrently and reports each outcome.
// One channel failing or panicking never affects the others.
func (f *Fanout) Deliver(ctx context.Context, l wdom.Listing, q wdom.Query, v *wdom.Verification) wdom.Delivery {
	msg := BuildMessage(l, q, v)
	chans := f.all()
	results := make([]outcome, len(chans))

	var wg sync.WaitGroup
	for i, ch := range chans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.send(ctx, ch, msg)
		}()
	}
	wg.Wait()

	out := wdom.Delivery{
		PrimarySuccess: results[0].on && results[0].ok,
		Channels:       make(map[string]bool, len(chans)),
	}
	for _, r := range results {
		if r.on && r.name != "" {
			out.Channels[r.name] = r.ok
		}
	}
	return out
}

// send reads Enabled once; a panic anywhere in the channel is a failed send
func (f *Fanout) send(ctx context.Context, ch notifydom.Channel, m notifydom.Message) (res outcome) {
	log := logger.C(ctx).With().Str("listing_id", m.Listing.ID).Logger()
	res.on = true
	defer func() {
		if r := recover(); r != nil {
			log.Error().Err(perr.PanicErrf("channel %q panicked: %v", res.name, r)).Msg("notification channel panic")
			res.ok = false
		}
	}()
	res.name = ch.Name()
	if res.on = ch.Enabled(); !res.on {
		return res
	}
	log = log.With().Str("channel", res.name).Logger()
	if err := ch.Send(ctx, m); err != nil {
		log.Warn().Err(err).Msg("notification send failed")
		return res
	}
	log.Debug().Msg("notification sent")
	res.ok = true
	return res
}

// Alert reaches the operator through the primary channel only
func (f *Fanout) Alert(ctx context.Context, title, body string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().Err(perr.PanicErrf("alert panicked: %v", r)).Msg("alert panic")
			ok = false
		}
	}()
	a, can := f.primary.(notifydom.Alerter)
	if !can || !f.primary.Enabled() {
		logger.C(ctx).Warn().Str("title", title).Msg("no alert channel configured")
		return false
	}
	if err := a.SendAlert(ctx, notifydom.Alert{Title: title, Body: body}); err != nil {
		logger.C(ctx).Error().Err(err).Str("title", title).Msg("alert send failed")
		return false
	}
	return true
}
