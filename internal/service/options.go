package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/stacklok/agent-directory/internal/card"
)

const (
	// DefaultPageSize is the default number of entries per page
	DefaultPageSize = 50
	// MaxPageSize is the maximum number of entries per page
	MaxPageSize = 100
	// MaxOffset is the largest page offset the store accepts
	MaxOffset = math.MaxInt32
	// MaxProbeRecords caps the probe records returned by ListProbes
	MaxProbeRecords = 500
	// DefaultProbeHours is the default ListProbes window
	DefaultProbeHours = 24
	// MaxProbeHours is the maximum ListProbes window
	MaxProbeHours = 168
	// DefaultUptimeDays is the default GetUptime period
	DefaultUptimeDays = 30
	// MaxUptimeDays is the maximum GetUptime period
	MaxUptimeDays = 90
	// MaxFlagDetailLength bounds the free text of a flag
	MaxFlagDetailLength = 1000
)

// Option is a function that sets an option for one of the service operations
type Option[
	T RegisterOptions | CreateEntryOptions | ListEntriesOptions |
		ListProbesOptions | UptimeOptions | FlagOptions,
] func(*T) error

// RegisterOptions is the options for the Register operation
type RegisterOptions struct {
	URL    string
	Author string
}

// CreateEntryOptions is the options for the CreateEntry operation
type CreateEntryOptions struct {
	URL      string
	Author   string
	Document card.Document
}

// ListEntriesOptions is the options for the ListEntries operation
type ListEntriesOptions struct {
	Search      string
	Skill       string
	Capability  string
	Author      string
	Conformance ConformanceFilter
	Limit       int
	Offset      int
}

// ListProbesOptions is the options for the ListProbes operation
type ListProbesOptions struct {
	Hours int
}

// UptimeOptions is the options for the GetUptime operation
type UptimeOptions struct {
	PeriodDays int
}

// FlagOptions is the options for the FlagEntry operation
type FlagOptions struct {
	Reason   FlagReason
	Detail   string
	Reporter string
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// WithURL sets the published URL for the Register or CreateEntry operation
func WithURL[T RegisterOptions | CreateEntryOptions](url string) Option[T] {
	return func(o *T) error {
		if strings.TrimSpace(url) == "" {
			return invalidRequest("url is required")
		}
		switch o := any(o).(type) {
		case *RegisterOptions:
			o.URL = url
		case *CreateEntryOptions:
			o.URL = url
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
		return nil
	}
}

// WithAuthor sets the author override for Register or CreateEntry, or the
// author substring filter for ListEntries. Blank values are ignored.
func WithAuthor[T RegisterOptions | CreateEntryOptions | ListEntriesOptions](author string) Option[T] {
	return func(o *T) error {
		author = strings.TrimSpace(author)
		if author == "" {
			return nil
		}
		switch o := any(o).(type) {
		case *RegisterOptions:
			o.Author = author
		case *CreateEntryOptions:
			o.Author = author
		case *ListEntriesOptions:
			o.Author = author
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
		return nil
	}
}

// WithDocument sets the submitted card for the CreateEntry operation
func WithDocument(doc card.Document) Option[CreateEntryOptions] {
	return func(o *CreateEntryOptions) error {
		if doc == nil {
			return invalidRequest("card payload is required")
		}
		o.Document = doc
		return nil
	}
}

// WithSearch sets the free-text search for the ListEntries operation
func WithSearch(search string) Option[ListEntriesOptions] {
	return func(o *ListEntriesOptions) error {
		o.Search = strings.TrimSpace(search)
		return nil
	}
}

// WithSkill sets the skill id or tag filter for the ListEntries operation
func WithSkill(skill string) Option[ListEntriesOptions] {
	return func(o *ListEntriesOptions) error {
		o.Skill = strings.TrimSpace(skill)
		return nil
	}
}

// WithCapability sets the capability filter for the ListEntries operation
func WithCapability(capability string) Option[ListEntriesOptions] {
	return func(o *ListEntriesOptions) error {
		if capability == "" {
			return nil
		}
		if !card.IsKnownCapability(capability) {
			return invalidRequest("unknown capability %q", capability)
		}
		o.Capability = capability
		return nil
	}
}

// WithConformance sets the conformance filter for the ListEntries operation
func WithConformance(filter string) Option[ListEntriesOptions] {
	return func(o *ListEntriesOptions) error {
		parsed, err := ParseConformanceFilter(filter)
		if err != nil {
			return err
		}
		o.Conformance = parsed
		return nil
	}
}

// WithLimit sets the page size for the ListEntries operation. Values above
// MaxPageSize are capped.
func WithLimit(limit int) Option[ListEntriesOptions] {
	return func(o *ListEntriesOptions) error {
		if limit <= 0 {
			return invalidRequest("limit must be positive, got %d", limit)
		}
		o.Limit = min(limit, MaxPageSize)
		return nil
	}
}

// WithOffset sets the page offset for the ListEntries operation
func WithOffset(offset int) Option[ListEntriesOptions] {
	return func(o *ListEntriesOptions) error {
		if offset < 0 || offset > MaxOffset {
			return invalidRequest("offset must be between 0 and %d, got %d", MaxOffset, offset)
		}
		o.Offset = offset
		return nil
	}
}

// WithHours sets the window for the ListProbes operation
func WithHours(hours int) Option[ListProbesOptions] {
	return func(o *ListProbesOptions) error {
		if hours < 1 || hours > MaxProbeHours {
			return invalidRequest("hours must be between 1 and %d, got %d", MaxProbeHours, hours)
		}
		o.Hours = hours
		return nil
	}
}

// WithPeriodDays sets the period for the GetUptime operation
func WithPeriodDays(days int) Option[UptimeOptions] {
	return func(o *UptimeOptions) error {
		if days < 1 || days > MaxUptimeDays {
			return invalidRequest("period_days must be between 1 and %d, got %d", MaxUptimeDays, days)
		}
		o.PeriodDays = days
		return nil
	}
}

// WithReason sets the reason code for the FlagEntry operation
func WithReason(reason string) Option[FlagOptions] {
	return func(o *FlagOptions) error {
		r := FlagReason(reason)
		if !r.IsValid() {
			return invalidRequest("unknown flag reason %q", reason)
		}
		o.Reason = r
		return nil
	}
}

// WithDetail sets the free-text detail for the FlagEntry operation
func WithDetail(detail string) Option[FlagOptions] {
	return func(o *FlagOptions) error {
		detail = strings.TrimSpace(detail)
		if len(detail) > MaxFlagDetailLength {
			return invalidRequest("detail must be at most %d characters", MaxFlagDetailLength)
		}
		o.Detail = detail
		return nil
	}
}

// WithReporter sets the reporting client address for the FlagEntry operation
func WithReporter(reporter string) Option[FlagOptions] {
	return func(o *FlagOptions) error {
		o.Reporter = reporter
		return nil
	}
}
