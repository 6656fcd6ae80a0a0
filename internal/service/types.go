package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/health"
)

// Conformance is the tri-state verdict of the health check worker.
// It serializes as null, true or false.
type Conformance int8

// Conformance states
const (
	ConformanceUnknown Conformance = iota
	ConformanceStandard
	ConformanceNonStandard
)

// ConformanceFromPtr converts the nullable store representation
func ConformanceFromPtr(v *bool) Conformance {
	switch {
	case v == nil:
		return ConformanceUnknown
	case *v:
		return ConformanceStandard
	default:
		return ConformanceNonStandard
	}
}

// ConformanceOf returns the known state matching b
func ConformanceOf(b bool) Conformance {
	if b {
		return ConformanceStandard
	}
	return ConformanceNonStandard
}

// Ptr converts to the nullable store representation
func (c Conformance) Ptr() *bool {
	switch c {
	case ConformanceStandard:
		v := true
		return &v
	case ConformanceNonStandard:
		v := false
		return &v
	}
	return nil
}

// String returns the filter name of the state
func (c Conformance) String() string {
	switch c {
	case ConformanceStandard:
		return "standard"
	case ConformanceNonStandard:
		return "non-standard"
	}
	return "unknown"
}

// MarshalJSON implements json.Marshaler
func (c Conformance) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Ptr())
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Conformance) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = ConformanceFromPtr(v)
	return nil
}

// ConformanceFilter selects entries by conformance state
type ConformanceFilter string

// Conformance filters
const (
	FilterAll         ConformanceFilter = "all"
	FilterStandard    ConformanceFilter = "standard"
	FilterNonStandard ConformanceFilter = "non-standard"
	FilterUnknown     ConformanceFilter = "unknown"
)

// ParseConformanceFilter parses a filter name; empty means all
func ParseConformanceFilter(s string) (ConformanceFilter, error) {
	switch f := ConformanceFilter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterStandard, FilterNonStandard, FilterUnknown:
		return f, nil
	}
	return "", invalidRequest("unknown conformance filter %q", s)
}

// FlagReason is the reason code of a moderation report
type FlagReason string

// Flag reasons
const (
	FlagSpam          FlagReason = "spam"
	FlagBroken        FlagReason = "broken"
	FlagMalicious     FlagReason = "malicious"
	FlagImpersonation FlagReason = "impersonation"
	FlagInappropriate FlagReason = "inappropriate"
	FlagOther         FlagReason = "other"
)

// IsValid reports whether r is a known reason code
func (r FlagReason) IsValid() bool {
	switch r {
	case FlagSpam, FlagBroken, FlagMalicious, FlagImpersonation, FlagInappropriate, FlagOther:
		return true
	}
	return false
}

// Entry is one registered agent
type Entry struct {
	ID                   uuid.UUID         `json:"id"`
	PublishedURL         string            `json:"published_url"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Author               string            `json:"author"`
	Version              string            `json:"version"`
	ProtocolVersion      string            `json:"protocol_version"`
	DocumentationURL     string            `json:"documentation_url,omitempty"`
	IconURL              string            `json:"icon_url,omitempty"`
	ProviderOrganization string            `json:"provider_organization,omitempty"`
	ProviderURL          string            `json:"provider_url,omitempty"`
	Capabilities         card.Capabilities `json:"capabilities"`
	Skills               []card.Skill      `json:"skills"`
	DefaultInputModes    []string          `json:"default_input_modes"`
	DefaultOutputModes   []string          `json:"default_output_modes"`
	Conformance          Conformance       `json:"conformance"`
	FlagCount            int               `json:"flag_count"`
	Hidden               bool              `json:"-"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// ProbeRecord is the outcome of one health probe
type ProbeRecord struct {
	ID          int64     `json:"id"`
	AgentID     uuid.UUID `json:"agent_id"`
	ProbedAt    time.Time `json:"probed_at"`
	StatusCode  *int      `json:"status_code"`
	LatencyMs   *int      `json:"latency_ms"`
	Success     bool      `json:"success"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
}

// HealthProbe returns the aggregation input of the record
func (p *ProbeRecord) HealthProbe() health.Probe {
	return health.Probe{
		ProbedAt:  p.ProbedAt,
		Success:   p.Success,
		LatencyMs: p.LatencyMs,
	}
}

// FlagRecord is one moderation report
type FlagRecord struct {
	ID         int64      `json:"id"`
	AgentID    uuid.UUID  `json:"agent_id"`
	ReportedAt time.Time  `json:"reported_at"`
	Reason     FlagReason `json:"reason"`
	Detail     string     `json:"detail,omitempty"`
	Reporter   string     `json:"-"`
	FlagCount  int        `json:"flag_count"`
}

// EntryDetail is an entry with its recent health
type EntryDetail struct {
	Entry  *Entry         `json:"agent"`
	Health health.Summary `json:"health"`
}

// ListEntriesResult is one page of entries
type ListEntriesResult struct {
	Entries []*Entry `json:"agents"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// RegistrationResult is returned by Register, CreateEntry and RefreshEntry
type RegistrationResult struct {
	Entry    *Entry   `json:"agent"`
	Created  bool     `json:"created"`
	Warnings []string `json:"warnings"`
}

// UptimeReport is the health of one entry over a number of days
type UptimeReport struct {
	AgentID    uuid.UUID `json:"agent_id"`
	PeriodDays int       `json:"period_days"`
	health.Summary
}

// Stats are directory-wide counters
type Stats struct {
	TotalAgents         int64     `json:"total_agents"`
	ConformantAgents    int64     `json:"conformant_agents"`
	NonConformantAgents int64     `json:"non_conformant_agents"`
	UnknownAgents       int64     `json:"unknown_conformance_agents"`
	CreatedLastWeek     int64     `json:"created_last_week"`
	CreatedLastMonth    int64     `json:"created_last_month"`
	DistinctSkills      int64     `json:"distinct_skills"`
	AvgLatencyMsLast24h float64   `json:"avg_latency_ms_24h"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// String implements fmt.Stringer for log output
func (e *Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.ID, e.PublishedURL)
}
