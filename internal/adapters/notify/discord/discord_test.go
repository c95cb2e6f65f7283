package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	perr "marketwatch/internal/platform/errors"
	notifydom "marketwatch/internal/services/notify/domain"
	wdom "marketwatch/internal/services/watcher/domain"

	"github.com/bwmarrin/discordgo"
)

type fakeSession struct {
	opens   int
	sent    []*discordgo.MessageEmbed
	sendErr error
	openErr error
}

func (f *fakeSession) UserChannelCreate(id string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &discordgo.Channel{ID: "dm-" + id}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(ch string, e *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, e)
	return &discordgo.Message{ChannelID: ch}, nil
}

func field(e *discordgo.MessageEmbed, name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func fullMessage() notifydom.Message {
	orig := "¥3,000"
	wants := 12
	score := 81.4
	return notifydom.Message{
		Title:    strings.Repeat("长", 300),
		Price:    "¥1,299.00",
		Link:     "https://www.goofish.com/item?id=1",
		ImageURL: "https://img/1.jpg",
		Listing: wdom.Listing{
			ID:            "1",
			OriginalPrice: &orig,
			Wants:         &wants,
			SellerName:    "alice",
			Tags:          []string{"a", "b", "c", "d", "e", "f"},
			Seller:        &wdom.Reputation{RegistrationDays: 800, SellerRating: 0.976, Score: &score},
		},
		Query:        wdom.Query{ID: 3, Keyword: "switch"},
		Verification: &wdom.Verification{Relevant: true, Confidence: 0.85, Reason: strings.Repeat("r", 150)},
	}
}

func TestListingEmbed_Full(t *testing.T) {
	t.Parallel()

	e := ListingEmbed(fullMessage())
	if n := len([]rune(e.Title)); n != 256 {
		t.Fatalf("title runes = %d", n)
	}
	if e.Color != colorGreen || e.URL == "" {
		t.Fatalf("embed header = %+v", e)
	}
	cases := map[string]string{
		"Price":               "¥1,299.00 (原价: ¥3,000)",
		"Location":            "Unknown",
		"Query":               "#3: switch",
		"Want Count":          "12人想要",
		"AI Confidence":       "85%",
		"Seller Registration": "2年",
		"Seller Rating":       "98%",
		"Reputation Score":    "81",
		"Tags":                "a, b, c, d, e",
	}
	for name, want := range cases {
		got, ok := field(e, name)
		if !ok || got != want {
			t.Fatalf("%s = %q (present %v), want %q", name, got, ok, want)
		}
	}
	if r, _ := field(e, "AI Reason"); len(r) != 100 {
		t.Fatalf("reason should be cut to 100, got %d", len(r))
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://img/1.jpg" {
		t.Fatalf("thumbnail = %+v", e.Thumbnail)
	}
	if e.Footer == nil || e.Footer.Text != "Seller: alice" {
		t.Fatalf("footer = %+v", e.Footer)
	}
}

func TestListingEmbed_Minimal(t *testing.T) {
	t.Parallel()

	e := ListingEmbed(notifydom.Message{Title: "x", Price: "¥1.00", Listing: wdom.Listing{Location: "上海"}})
	for _, absent := range []string{"Want Count", "AI Confidence", "AI Reason", "Seller Registration", "Tags"} {
		if _, ok := field(e, absent); ok {
			t.Fatalf("%s should be absent", absent)
		}
	}
	if loc, _ := field(e, "Location"); loc != "上海" {
		t.Fatalf("location = %q", loc)
	}
	if e.Thumbnail != nil {
		t.Fatalf("no image means no thumbnail")
	}
}

func TestRegistration(t *testing.T) {
	t.Parallel()
	cases := map[int]string{1: "1天", 364: "364天", 365: "1年", 1100: "3年"}
	for days, want := range cases {
		if got := registration(days); got != want {
			t.Fatalf("registration(%d) = %q want %q", days, got, want)
		}
	}
}

func TestClient_SendCachesDM(t *testing.T) {
	t.Parallel()

	fs := &fakeSession{}
	c := &Client{s: fs, userID: "99"}
	ctx := context.Background()

	if err := c.Send(ctx, fullMessage()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := c.SendAlert(ctx, notifydom.Alert{Title: "🔴 Cookie Expired", Body: "re-login"}); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if fs.opens != 1 {
		t.Fatalf("dm channel opened %d times", fs.opens)
	}
	if len(fs.sent) != 2 || fs.sent[1].Color != colorRed || fs.sent[1].Description != "re-login" {
		t.Fatalf("sent = %+v", fs.sent)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	off, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if off.Enabled() {
		t.Fatalf("no token means disabled")
	}
	if err := off.Send(ctx, notifydom.Message{}); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("disabled send err = %v", err)
	}

	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	c := &Client{s: &fakeSession{sendErr: forbidden}, userID: "1"}
	if err := c.Send(ctx, fullMessage()); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("forbidden should map from status, got %v", err)
	}

	c = &Client{s: &fakeSession{openErr: errors.New("dial")}, userID: "1"}
	if err := c.Send(ctx, fullMessage()); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("transport err = %v", err)
	}
}
