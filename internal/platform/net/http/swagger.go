package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// MountDocs serves doc as /docs/doc.json and the swagger UI under /docs/
func MountDocs(r Router, doc []byte) {
	if len(doc) == 0 {
		return
	}
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})
	ui := httpSwagger.Handler(httpSwagger.URL("/docs/doc.json"))
	r.Get("/docs/*", ui)
}
