// Package httpkit re-exports the platform HTTP helpers modules need,
// so module code never imports internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "marketwatch/internal/platform/net/http"
)

type (
	// Response is the return-style handler result
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error maps err to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// List returns items with a page block
func List(items any, total, limit, returned int) Response {
	return phttp.List(items, total, limit, returned)
}

// URLParam returns a path parameter
func URLParam(r *http.Request, key string) string { return phttp.URLParam(r, key) }
