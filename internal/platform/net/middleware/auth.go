package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "marketwatch/internal/platform/errors"
	phttp "marketwatch/internal/platform/net/http"
)

// BearerToken rejects requests whose Authorization header does not carry token.
// An empty token disables the check.
func BearerToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		deny := phttp.Handle(func(*http.Request) phttp.Response {
			return phttp.Error(perr.Unauthorizedf("missing or invalid bearer token"))
		})
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
