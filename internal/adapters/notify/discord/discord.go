// Package discord delivers listings and operator alerts as Discord direct messages
package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	perr "marketwatch/internal/platform/errors"
	notifydom "marketwatch/internal/services/notify/domain"

	"github.com/bwmarrin/discordgo"
)

// embed colours
const (
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c
)

// Options configures the DM channel
type Options struct {
	BotToken string
	UserID   string
	Timeout  time.Duration
}

// session is the slice of the discordgo REST surface the channel needs
type session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Client sends embeds to one user's DM channel
type Client struct {
	s      session
	userID string

	mu   sync.Mutex
	dmID string
}

// New creates a Client; an empty token or user id yields a disabled channel
func New(o Options) (*Client, error) {
	c := &Client{userID: o.UserID}
	if o.BotToken == "" || o.UserID == "" {
		return c, nil
	}
	s, err := discordgo.New("Bot " + o.BotToken)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "discord session")
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	s.Client = &http.Client{Timeout: o.Timeout}
	s.MaxRestRetries = 2
	c.s = s
	return c, nil
}

// Name returns the channel name
func (c *Client) Name() string { return "discord" }

// Enabled reports whether credentials are configured
func (c *Client) Enabled() bool { return c.s != nil }

// Send posts the listing embed to the user's DMs
func (c *Client) Send(ctx context.Context, m notifydom.Message) error {
	return c.send(ctx, ListingEmbed(m))
}

// SendAlert posts a red operator alert
func (c *Client) SendAlert(ctx context.Context, a notifydom.Alert) error {
	return c.send(ctx, &discordgo.MessageEmbed{Title: a.Title, Description: a.Body, Color: colorRed})
}

func (c *Client) send(ctx context.Context, e *discordgo.MessageEmbed) error {
	if !c.Enabled() {
		return perr.New(perr.ErrorCodeUnavailable, "discord not configured")
	}
	ch, err := c.channel(ctx)
	if err != nil {
		return err
	}
	if _, err := c.s.ChannelMessageSendEmbed(ch, e, discordgo.WithContext(ctx)); err != nil {
		return classify(err, "discord send dm")
	}
	return nil
}

// channel opens the DM channel once and caches its id
func (c *Client) channel(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dmID != "" {
		return c.dmID, nil
	}
	ch, err := c.s.UserChannelCreate(c.userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err, "discord open dm")
	}
	c.dmID = ch.ID
	return c.dmID, nil
}

func classify(err error, msg string) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return perr.Wrap(err, perr.CodeOf(perr.FromHTTPStatus(rest.Response.StatusCode, "discord")), msg)
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
}

// ListingEmbed renders the rich listing card
func ListingEmbed(m notifydom.Message) *discordgo.MessageEmbed {
	l, q := m.Listing, m.Query
	e := &discordgo.MessageEmbed{
		Title: truncate(m.Title, 256),
		URL:   m.Link,
		Color: colorGreen,
	}
	add := func(name, value string, inline bool) {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline})
	}

	price := m.Price
	if l.OriginalPrice != nil && *l.OriginalPrice != "" {
		price += " (原价: " + *l.OriginalPrice + ")"
	}
	add("Price", price, true)

	loc := l.Location
	if loc == "" {
		loc = "Unknown"
	}
	add("Location", loc, true)
	add("Query", "#"+itoa(q.ID)+": "+q.Keyword, true)

	if l.Wants != nil {
		add("Want Count", itoa(int64(*l.Wants))+"人想要", true)
	}
	if v := m.Verification; v != nil {
		add("AI Confidence", percent(v.Confidence), true)
		if v.Reason != "" {
			add("AI Reason", truncate(v.Reason, 100), false)
		}
	}

	if r := l.Seller; r != nil {
		if r.RegistrationDays > 0 {
			add("Seller Registration", registration(r.RegistrationDays), true)
		}
		if r.SellerRating > 0 {
			add("Seller Rating", percent(r.SellerRating), true)
		}
		if r.Score != nil && *r.Score > 0 {
			add("Reputation Score", fixed0(*r.Score), true)
		}
	}

	if len(l.Tags) > 0 {
		add("Tags", strings.Join(l.Tags[:min(len(l.Tags), 5)], ", "), false)
	}
	if m.ImageURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.ImageURL}
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Seller: " + l.SellerName}
	return e
}
