package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInsecureScheme is returned for any URL (including redirect targets) that is not https
	ErrInsecureScheme = errors.New("only https URLs are allowed")

	// ErrBlockedHost is returned when a host name matches the deny list
	ErrBlockedHost = errors.New("host is denied")

	// ErrBlockedAddress is returned when a host resolves to a non-public address
	ErrBlockedAddress = errors.New("address is not publicly routable")

	// ErrResponseTooLarge is returned when a body exceeds the configured maximum size
	ErrResponseTooLarge = errors.New("response exceeds maximum allowed size")
)

// HTTPError is returned for a non-2xx answer. The body is discarded.
type HTTPError struct {
	StatusCode int
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url string) error {
	return &HTTPError{StatusCode: statusCode, URL: url}
}

// IsBlocked reports whether err was caused by the SSRF guard rather than the remote host
func IsBlocked(err error) bool {
	return errors.Is(err, ErrInsecureScheme) ||
		errors.Is(err, ErrBlockedHost) ||
		errors.Is(err, ErrBlockedAddress)
}
