package goofish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	perr "marketwatch/internal/platform/errors"
)

const defaultCookieDomain = ".goofish.com"

// Cookie is the on-disk cookie shape, compatible with browser extension exports
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// LoadCookies reads a JSON cookie array. A missing file yields no cookies;
// entries without name or value are skipped and domain/path get defaults.
func LoadCookies(path string) ([]Cookie, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read cookies %s", path)
	}
	var raw []Cookie
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "parse cookies %s", path)
	}
	out := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" || c.Value == "" {
			continue
		}
		if c.Domain == "" {
			c.Domain = defaultCookieDomain
		}
		if c.Path == "" {
			c.Path = "/"
		}
		out = append(out, c)
	}
	return out, nil
}

// SaveCookies writes the goofish cookies to path through a temp file and rename.
// It returns how many cookies were written.
func SaveCookies(path string, cookies []Cookie) (int, error) {
	keep := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		if strings.Contains(c.Domain, "goofish") {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return 0, nil
	}
	b, err := json.MarshalIndent(keep, "", "  ")
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeJSON, "encode cookies")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cookies-*.json")
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "create temp cookies file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "write cookies")
	}
	if err := tmp.Close(); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "close cookies")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "replace cookies")
	}
	return len(keep), nil
}
