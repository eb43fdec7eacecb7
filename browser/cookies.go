package browser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// fileCookie is one entry of a Selenium or browser-extension cookie export.
type fileCookie struct {
	Name           string   `json:"name"`
	Value          *string  `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         bool     `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	SameSite       any      `json:"sameSite"`
	ExpirationDate *float64 `json:"expirationDate"`
}

// ReadCookieFile parses a JSON cookie export into CDP cookie params.
// The file must hold a JSON list; unusable entries are skipped.
func ReadCookieFile(path string) ([]*proto.NetworkCookieParam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []fileCookie
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid cookies file %s: expected a JSON list of cookies: %w", path, err)
	}
	return convertCookies(raw), nil
}

func convertCookies(raw []fileCookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" || c.Value == nil {
			slog.Warn("skipping cookie with missing name or value", "name", c.Name)
			continue
		}

		path := c.Path
		if path == "" {
			path = "/"
		}

		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    *c.Value,
			Domain:   strings.TrimPrefix(c.Domain, "."),
			Path:     path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSite(c),
		}
		if c.ExpirationDate != nil {
			p.Expires = proto.TimeSinceEpoch(*c.ExpirationDate)
		}
		out = append(out, p)
	}
	return out
}

// sameSite maps the export's sameSite field. Null means None for secure
// cookies and Lax otherwise; unknown values such as "no_restriction" fall
// back to Lax.
func sameSite(c fileCookie) proto.NetworkCookieSameSite {
	switch v := c.SameSite.(type) {
	case string:
		switch strings.ToLower(v) {
		case "strict":
			return proto.NetworkCookieSameSiteStrict
		case "none":
			return proto.NetworkCookieSameSiteNone
		}
	case nil:
		if c.Secure {
			return proto.NetworkCookieSameSiteNone
		}
		slog.Warn("cookie has sameSite=null and is not secure, defaulting to Lax", "name", c.Name)
	}
	return proto.NetworkCookieSameSiteLax
}
