package database

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/service"
)

// descriptor holds the columns derived from a conformant card
type descriptor struct {
	name                 string
	description          string
	author               string
	version              string
	protocolVersion      string
	capabilities         []byte
	skills               []byte
	defaultInputModes    []string
	defaultOutputModes   []string
	documentationURL     *string
	iconURL              *string
	providerOrganization *string
	providerURL          *string
}

// newDescriptor converts a card into store columns. author overrides the
// provider organization when not blank.
func newDescriptor(c *card.Card, author string) (*descriptor, error) {
	capabilities, err := json.Marshal(c.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capabilities: %w", err)
	}

	skills := c.Skills
	if skills == nil {
		skills = []card.Skill{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal skills: %w", err)
	}

	if author == "" {
		author = c.ProviderOrganization()
	}

	d := &descriptor{
		name:               c.Name,
		description:        c.Description,
		author:             author,
		version:            c.Version,
		protocolVersion:    c.ProtocolVersion,
		capabilities:       capabilities,
		skills:             skillsJSON,
		defaultInputModes:  nonNilStrings(c.DefaultInputModes),
		defaultOutputModes: nonNilStrings(c.DefaultOutputModes),
		documentationURL:   nullable(c.DocumentationURL),
		iconURL:            nullable(c.IconURL),
	}
	if c.Provider != nil {
		d.providerOrganization = nullable(c.Provider.Organization)
		d.providerURL = nullable(c.Provider.URL)
	}
	return d, nil
}

// emptyDescriptor is stored for entries whose card has not validated yet
func emptyDescriptor(author string) *descriptor {
	return &descriptor{
		author:             author,
		capabilities:       []byte(`{}`),
		skills:             []byte(`[]`),
		defaultInputModes:  []string{},
		defaultOutputModes: []string{},
	}
}

func (d *descriptor) insertParams(publishedURL string) sqlc.InsertAgentParams {
	return sqlc.InsertAgentParams{
		PublishedUrl:         publishedURL,
		Name:                 d.name,
		Description:          d.description,
		Author:               d.author,
		Version:              d.version,
		ProtocolVersion:      d.protocolVersion,
		Capabilities:         d.capabilities,
		Skills:               d.skills,
		DefaultInputModes:    d.defaultInputModes,
		DefaultOutputModes:   d.defaultOutputModes,
		DocumentationUrl:     d.documentationURL,
		IconUrl:              d.iconURL,
		ProviderOrganization: d.providerOrganization,
		ProviderUrl:          d.providerURL,
	}
}

func (d *descriptor) updateParams(agent sqlc.Agent) sqlc.UpdateAgentDescriptorParams {
	return sqlc.UpdateAgentDescriptorParams{
		ID:                   agent.ID,
		Name:                 d.name,
		Description:          d.description,
		Author:               d.author,
		Version:              d.version,
		ProtocolVersion:      d.protocolVersion,
		Capabilities:         d.capabilities,
		Skills:               d.skills,
		DefaultInputModes:    d.defaultInputModes,
		DefaultOutputModes:   d.defaultOutputModes,
		DocumentationUrl:     d.documentationURL,
		IconUrl:              d.iconURL,
		ProviderOrganization: d.providerOrganization,
		ProviderUrl:          d.providerURL,
	}
}

// agentToEntry converts a stored row into the service model
func agentToEntry(agent sqlc.Agent) *service.Entry {
	entry := &service.Entry{
		ID:                   agent.ID,
		PublishedURL:         agent.PublishedUrl,
		Name:                 agent.Name,
		Description:          agent.Description,
		Author:               agent.Author,
		Version:              agent.Version,
		ProtocolVersion:      agent.ProtocolVersion,
		DocumentationURL:     deref(agent.DocumentationUrl),
		IconURL:              deref(agent.IconUrl),
		ProviderOrganization: deref(agent.ProviderOrganization),
		ProviderURL:          deref(agent.ProviderUrl),
		Skills:               []card.Skill{},
		DefaultInputModes:    nonNilStrings(agent.DefaultInputModes),
		DefaultOutputModes:   nonNilStrings(agent.DefaultOutputModes),
		Conformance:          service.ConformanceFromPtr(agent.Conformance),
		FlagCount:            int(agent.FlagCount),
		Hidden:               agent.Hidden,
		CreatedAt:            agent.CreatedAt,
		UpdatedAt:            agent.UpdatedAt,
	}

	if len(agent.Capabilities) > 0 {
		if err := json.Unmarshal(agent.Capabilities, &entry.Capabilities); err != nil {
			slog.Warn("Stored capabilities are not valid JSON", "entry_id", agent.ID, "error", err)
		}
	}
	if len(agent.Skills) > 0 {
		if err := json.Unmarshal(agent.Skills, &entry.Skills); err != nil {
			slog.Warn("Stored skills are not valid JSON", "entry_id", agent.ID, "error", err)
			entry.Skills = []card.Skill{}
		}
	}

	return entry
}

func probeToRecord(probe sqlc.AgentProbe) *service.ProbeRecord {
	return &service.ProbeRecord{
		ID:          probe.ID,
		AgentID:     probe.AgentID,
		ProbedAt:    probe.ProbedAt,
		StatusCode:  intPtr(probe.StatusCode),
		LatencyMs:   intPtr(probe.LatencyMs),
		Success:     probe.Success,
		ErrorKind:   deref(probe.ErrorKind),
		ErrorDetail: deref(probe.ErrorDetail),
	}
}

func flagToRecord(flag sqlc.AgentFlag, flagCount int32) *service.FlagRecord {
	return &service.FlagRecord{
		ID:         flag.ID,
		AgentID:    flag.AgentID,
		ReportedAt: flag.ReportedAt,
		Reason:     service.FlagReason(flag.Reason),
		Detail:     deref(flag.Detail),
		Reporter:   flag.Reporter,
		FlagCount:  int(flagCount),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
