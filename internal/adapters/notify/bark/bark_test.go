package bark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	notifydom "marketwatch/internal/services/notify/domain"
)

func TestSend(t *testing.T) {
	t.Parallel()

	var title, body string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /key/{title}/{body}", func(w http.ResponseWriter, r *http.Request) {
		title, body = r.PathValue("title"), r.PathValue("body")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Options{URL: srv.URL + "/key/"})
	err := c.Send(context.Background(), notifydom.Message{Title: "a/b 相机", Price: "¥9.00", Reason: "ok", Link: "https://x/i?id=1"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if title != "a/b 相机" {
		t.Fatalf("title = %q", title)
	}
	if body != "¥9.00\n\nok\n\nhttps://x/i?id=1" {
		t.Fatalf("body = %q", body)
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()
	if New(Options{}).Enabled() {
		t.Fatalf("no url means disabled")
	}
}
