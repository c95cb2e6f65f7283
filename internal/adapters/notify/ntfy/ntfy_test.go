package ntfy

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketwatch/internal/adapters/httpc"
	notifydom "marketwatch/internal/services/notify/domain"
)

func TestSend(t *testing.T) {
	t.Parallel()

	var body, title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		title, _ = new(mime.WordDecoder).DecodeHeader(r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{TopicURL: srv.URL + "/deals"})
	err := c.Send(context.Background(), notifydom.Message{Title: "任天堂 Switch", Reason: "good", Link: "https://x/1"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if body != "任天堂 Switch\ngood\n\nhttps://x/1" {
		t.Fatalf("body = %q", body)
	}
	if title != "任天堂 Switch" {
		t.Fatalf("title header = %q", title)
	}
}

func TestSend_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Options{TopicURL: srv.URL, HTTP: httpc.Options{MaxRetries: -1}})
	if err := c.Send(context.Background(), notifydom.Message{Title: "t"}); err == nil {
		t.Fatalf("403 should fail")
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()
	if New(Options{}).Enabled() {
		t.Fatalf("no topic means disabled")
	}
}
