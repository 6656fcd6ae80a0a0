package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stacklok/agent-directory/internal/httpclient"
)

// ErrorKind classifies why a fetch failed
type ErrorKind string

// Fetch error kinds
const (
	KindTimeout         ErrorKind = "timeout"
	KindDNSFailure      ErrorKind = "dns-failure"
	KindSSRFBlocked     ErrorKind = "ssrf-blocked"
	KindNon2xxStatus    ErrorKind = "non-2xx-status"
	KindMalformedBody   ErrorKind = "malformed-body"
	KindConnectionError ErrorKind = "connection-error"
)

// FetchError is returned by Fetcher when a card could not be retrieved
type FetchError struct {
	Kind       ErrorKind
	Detail     string
	StatusCode int
	Err        error
}

// Error returns the error message
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is a successfully fetched card document
type Result struct {
	Document   Document
	StatusCode int
	Latency    time.Duration
}

// Fetcher retrieves agent cards
//
//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go Fetcher
type Fetcher interface {
	// Fetch retrieves and decodes the card at url. Failures are *FetchError.
	Fetch(ctx context.Context, url string) (*Result, error)
}

type httpFetcher struct {
	client httpclient.Client
}

// NewFetcher creates a Fetcher on top of an HTTP client
func NewFetcher(client httpclient.Client) Fetcher {
	return &httpFetcher{client: client}
}

// Fetch implements Fetcher
func (f *httpFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		fetchErr := Classify(err)
		slog.DebugContext(ctx, "Card fetch failed",
			"url", url,
			"kind", fetchErr.Kind,
			"error", err)
		return nil, fetchErr
	}

	decoded, err := jsonschema.UnmarshalJSON(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &FetchError{
			Kind:       KindMalformedBody,
			Detail:     fmt.Sprintf("body is not valid JSON: %v", err),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &FetchError{
			Kind:       KindMalformedBody,
			Detail:     "body is not a JSON object",
			StatusCode: resp.StatusCode,
		}
	}

	return &Result{
		Document:   Document(obj),
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
	}, nil
}

// Classify maps a client error to a FetchError. Errors that already are
// FetchErrors are returned unchanged.
func Classify(err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	result := &FetchError{Detail: err.Error(), Err: err}

	var httpErr *httpclient.HTTPError
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case httpclient.IsBlocked(err):
		result.Kind = KindSSRFBlocked
	case errors.As(err, &httpErr):
		result.Kind = KindNon2xxStatus
		result.StatusCode = httpErr.StatusCode
		result.Detail = fmt.Sprintf("unexpected status %d", httpErr.StatusCode)
	case errors.Is(err, httpclient.ErrResponseTooLarge):
		result.Kind = KindMalformedBody
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		result.Kind = KindTimeout
	case errors.As(err, &dnsErr):
		result.Kind = KindDNSFailure
	default:
		result.Kind = KindConnectionError
	}

	return result
}
