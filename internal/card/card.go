// Package card models A2A agent cards as published by agents and fetched by
// the directory.
package card

import "strings"

// Document is an agent card as decoded from JSON, before validation
type Document map[string]any

// Card is the typed view of a conformant Document
type Card struct {
	ProtocolVersion    string       `json:"protocolVersion"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	URL                string       `json:"url"`
	Version            string       `json:"version"`
	Provider           *Provider    `json:"provider,omitempty"`
	DocumentationURL   string       `json:"documentationUrl,omitempty"`
	IconURL            string       `json:"iconUrl,omitempty"`
	Capabilities       Capabilities `json:"capabilities"`
	DefaultInputModes  []string     `json:"defaultInputModes"`
	DefaultOutputModes []string     `json:"defaultOutputModes"`
	Skills             []Skill      `json:"skills"`
}

// Provider identifies the organization operating an agent
type Provider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

// Capabilities are the optional protocol features an agent supports
type Capabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// Has reports whether the named capability is set
func (c Capabilities) Has(name string) bool {
	switch name {
	case CapabilityStreaming:
		return c.Streaming
	case CapabilityPushNotifications:
		return c.PushNotifications
	case CapabilityStateTransitionHistory:
		return c.StateTransitionHistory
	}
	return false
}

// Capability names accepted by filters
const (
	CapabilityStreaming              = "streaming"
	CapabilityPushNotifications      = "pushNotifications"
	CapabilityStateTransitionHistory = "stateTransitionHistory"
)

// IsKnownCapability reports whether name is one of the capability flags
func IsKnownCapability(name string) bool {
	switch name {
	case CapabilityStreaming, CapabilityPushNotifications, CapabilityStateTransitionHistory:
		return true
	}
	return false
}

// Skill is one unit of functionality offered by an agent
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
}

// Older cards used snake_case keys. They are rewritten before validation.
var snakeCaseKeys = map[string]string{
	"protocol_version":         "protocolVersion",
	"default_input_modes":      "defaultInputModes",
	"default_output_modes":     "defaultOutputModes",
	"documentation_url":        "documentationUrl",
	"icon_url":                 "iconUrl",
	"push_notifications":       "pushNotifications",
	"state_transition_history": "stateTransitionHistory",
}

// Normalize returns a shallow copy of doc with legacy snake_case keys renamed
// to camelCase, including inside capabilities. A camelCase key already present
// wins over its snake_case form.
func Normalize(doc Document) Document {
	if doc == nil {
		return nil
	}

	out := renameKeys(doc)
	if caps, ok := out["capabilities"].(map[string]any); ok {
		out["capabilities"] = map[string]any(renameKeys(caps))
	}
	return out
}

func renameKeys(in map[string]any) Document {
	out := make(Document, len(in))
	for k, v := range in {
		if camel, ok := snakeCaseKeys[k]; ok {
			if _, exists := in[camel]; exists {
				continue
			}
			k = camel
		}
		out[k] = v
	}
	return out
}

// FromDocument converts a conformant document into a Card. Fields with an
// unexpected shape are left empty; callers validate first.
func FromDocument(doc Document) *Card {
	doc = Normalize(doc)

	c := &Card{
		ProtocolVersion:    str(doc["protocolVersion"]),
		Name:               strings.TrimSpace(str(doc["name"])),
		Description:        strings.TrimSpace(str(doc["description"])),
		URL:                str(doc["url"]),
		Version:            str(doc["version"]),
		DocumentationURL:   str(doc["documentationUrl"]),
		IconURL:            str(doc["iconUrl"]),
		DefaultInputModes:  strs(doc["defaultInputModes"]),
		DefaultOutputModes: strs(doc["defaultOutputModes"]),
	}

	if provider, ok := doc["provider"].(map[string]any); ok {
		c.Provider = &Provider{
			Organization: str(provider["organization"]),
			URL:          str(provider["url"]),
		}
	}

	if caps, ok := doc["capabilities"].(map[string]any); ok {
		c.Capabilities = Capabilities{
			Streaming:              caps[CapabilityStreaming] == true,
			PushNotifications:      caps[CapabilityPushNotifications] == true,
			StateTransitionHistory: caps[CapabilityStateTransitionHistory] == true,
		}
	}

	if skills, ok := doc["skills"].([]any); ok {
		c.Skills = make([]Skill, 0, len(skills))
		for _, raw := range skills {
			s, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			c.Skills = append(c.Skills, Skill{
				ID:          str(s["id"]),
				Name:        str(s["name"]),
				Description: str(s["description"]),
				Tags:        strs(s["tags"]),
				Examples:    strs(s["examples"]),
			})
		}
	}

	return c
}

// ProviderOrganization returns the provider organization or "" when absent
func (c *Card) ProviderOrganization() string {
	if c.Provider == nil {
		return ""
	}
	return c.Provider.Organization
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return typed
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
