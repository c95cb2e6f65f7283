package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "marketwatch/internal/platform/errors"
	pnet "marketwatch/internal/platform/net"

	"github.com/go-chi/chi/v5"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestHandle_SuccessAndError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		resp   Response
		status int
		code   perr.ErrorCode
	}{
		{"ok", OK(map[string]int{"n": 1}), 200, 0},
		{"created", Created("x"), 201, 0},
		{"accepted", Accepted(nil), 202, 0},
		{"not found", Error(perr.NotFoundf("query 3")), 404, perr.ErrorCodeNotFound},
		{"foreign", Error(errors.New("boom")), 500, perr.ErrorCodeUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/", nil)
			r = r.WithContext(pnet.WithRequestID(r.Context(), "rid"))
			Handle(func(*stdhttp.Request) Response { return c.resp })(rec, r)

			if rec.Code != c.status {
				t.Fatalf("status = %d want %d", rec.Code, c.status)
			}
			env := decode(t, rec)
			if env.StatusCode != c.status || env.Code != c.code || env.RequestID != "rid" {
				t.Fatalf("envelope = %+v", env)
			}
		})
	}
}

func TestHandle_NoContent(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	Handle(func(*stdhttp.Request) Response { return NoContent() })(rec, httptest.NewRequest("DELETE", "/", nil))
	if rec.Code != 204 || rec.Body.Len() != 0 {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestJSONHandler_ValidationAndPassthrough(t *testing.T) {
	t.Parallel()
	type in struct {
		Label string `json:"label" validate:"required,max=32"`
	}
	h := JSONHandler(func(_ *stdhttp.Request, v in) (any, error) {
		return Created(v.Label), nil
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{"label":"good"}`)))
	if rec.Code != 201 {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{"label":""}`)))
	if env := decode(t, rec); rec.Code != 400 || env.Field != "label" {
		t.Fatalf("status = %d env = %+v", rec.Code, env)
	}
}

func TestRouterMountsThroughChi(t *testing.T) {
	t.Parallel()
	m := chi.NewRouter()
	r := AdaptChi(m)
	r.Route("/api", func(api Router) {
		api.Get("/queries/{id}", NoBodyHandler(func(req *stdhttp.Request) (any, error) {
			return URLParam(req, "id"), nil
		}))
	})

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/api/queries/42", nil))
	if env := decode(t, rec); env.Data != "42" {
		t.Fatalf("data = %v", env.Data)
	}
}

func TestMountDocs(t *testing.T) {
	t.Parallel()
	m := chi.NewRouter()
	MountDocs(AdaptChi(m), []byte(`{"openapi":"3.0.0"}`))
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/docs/doc.json", nil))
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "openapi") {
		t.Fatalf("doc.json = %d %q", rec.Code, rec.Body.String())
	}
}
