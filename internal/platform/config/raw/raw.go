// Package raw reads environment variables during bootstrap, before the logger exists.
// Nothing here may import the logger package.
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Env is a prefixed view over the process environment
type Env struct{ prefix string }

// New returns an Env with no prefix
func New() Env { return Env{} }

// Prefix returns a child view, e.g. New().Prefix("LOG_")
func (e Env) Prefix(p string) Env { return Env{prefix: e.prefix + p} }

func (e Env) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(e.prefix + key))
	return v, v != ""
}

// Has reports whether key is set to a non-blank value
func (e Env) Has(key string) bool {
	_, ok := e.lookup(key)
	return ok
}

// Get returns the trimmed value or def
func (e Env) Get(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

// GetBool accepts 1/true/yes/on, anything else set is false
func (e Env) GetBool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// GetInt returns a non-negative integer or def when unset or malformed
func (e Env) GetInt(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
