package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"marketwatch/internal/adapters/httpc"
	perr "marketwatch/internal/platform/errors"
	notifydom "marketwatch/internal/services/notify/domain"
)

func msg() notifydom.Message {
	return notifydom.Message{Title: `Say "hi"`, Price: "¥10.00", Reason: "fits", Link: "https://x/1"}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		o      Options
		method string
		check  func(t *testing.T, r httpc.Request)
	}{
		{
			name:   "json default payload",
			o:      Options{URL: "https://hook/x"},
			method: http.MethodPost,
			check: func(t *testing.T, r httpc.Request) {
				var got map[string]string
				if err := json.Unmarshal(r.Body, &got); err != nil {
					t.Fatalf("body: %v", err)
				}
				if got["title"] != `Say "hi"` || got["price"] != "¥10.00" || got["link"] != "https://x/1" {
					t.Fatalf("payload = %v", got)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Fatalf("content type = %s", r.Header.Get("Content-Type"))
				}
			},
		},
		{
			name:   "json template escapes values",
			o:      Options{URL: "https://hook/x", Body: `{"msgtype":"text","text":{"content":"{{title}}: {{content}}"}}`, Headers: map[string]string{"X-Key": "k"}},
			method: http.MethodPost,
			check: func(t *testing.T, r httpc.Request) {
				var got struct {
					Text struct{ Content string } `json:"text"`
				}
				if err := json.Unmarshal(r.Body, &got); err != nil {
					t.Fatalf("body: %v", err)
				}
				if got.Text.Content != "Say \"hi\": ¥10.00\nfits\nhttps://x/1" {
					t.Fatalf("content = %q", got.Text.Content)
				}
				if r.Header.Get("X-Key") != "k" {
					t.Fatalf("custom header missing")
				}
			},
		},
		{
			name:   "json get flattens to query",
			o:      Options{URL: "https://hook/x?token=1", Method: "get"},
			method: http.MethodGet,
			check: func(t *testing.T, r httpc.Request) {
				u, _ := url.Parse(r.URL)
				q := u.Query()
				if q.Get("token") != "1" || q.Get("title") != `Say "hi"` || len(r.Body) != 0 {
					t.Fatalf("url = %s", r.URL)
				}
			},
		},
		{
			name:   "form template post",
			o:      Options{URL: "https://hook/x", ContentType: "form", Body: "t={{title}}&c={{content}}"},
			method: http.MethodPost,
			check: func(t *testing.T, r httpc.Request) {
				v, err := url.ParseQuery(string(r.Body))
				if err != nil {
					t.Fatalf("form: %v", err)
				}
				if v.Get("t") != `Say "hi"` || v.Get("c") != "¥10.00\nfits\nhttps://x/1" {
					t.Fatalf("form = %v", v)
				}
			},
		},
		{
			name:   "form get default fields",
			o:      Options{URL: "https://hook/x", ContentType: "FORM", Method: "GET"},
			method: http.MethodGet,
			check: func(t *testing.T, r httpc.Request) {
				u, _ := url.Parse(r.URL)
				if u.Query().Get("reason") != "fits" {
					t.Fatalf("url = %s", r.URL)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := New(tc.o).Build(msg())
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if r.Method != tc.method {
				t.Fatalf("method = %s", r.Method)
			}
			tc.check(t, r)
		})
	}
}

func TestBuild_BadTemplate(t *testing.T) {
	t.Parallel()
	_, err := New(Options{URL: "https://hook", Body: "{not json"}).Build(msg())
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestSend_AcceptsCreatedAndAccepted(t *testing.T) {
	t.Parallel()

	status := http.StatusAccepted
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := New(Options{URL: srv.URL, HTTP: httpc.Options{MaxRetries: -1}})
	if err := c.Send(context.Background(), msg()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("body not sent")
	}
}

func TestSend_RejectsNoContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(Options{URL: srv.URL}).Send(context.Background(), msg()); err == nil {
		t.Fatalf("204 is not in the accepted set")
	}
}
