package card

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a published card URL so that equivalent spellings
// share one directory entry. Scheme and host are lower-cased, the default
// https port, the fragment and trailing slashes are dropped. Only https URLs
// without credentials are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable url: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return "", fmt.Errorf("scheme must be https, got %q", u.Scheme)
	}
	if u.User != nil {
		return "", errors.New("url must not contain credentials")
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return "", errors.New("url must have a host")
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "443" {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}

	u.Scheme = "https"
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")

	return u.String(), nil
}
