// Package validators checks agent cards against the directory's conformance
// rules.
package validators

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stacklok/agent-directory/internal/card"
)

//go:embed schema/agent_card.schema.json
var schemaBytes []byte

const schemaURL = "agent_card.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// Result is the verdict on one card
type Result struct {
	Conformant bool
	Violations []string
}

// Validator checks card documents
//
//go:generate mockgen -destination=mocks/mock_validator.go -package=mocks -source=card.go Validator
type Validator interface {
	Validate(doc card.Document) Result
}

// CardValidator is the schema-backed Validator
type CardValidator struct{}

// Validate implements Validator
func (CardValidator) Validate(doc card.Document) Result {
	return ValidateCard(doc)
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateCard checks doc and returns the verdict. Legacy snake_case keys are
// normalized first. A nil document is non-conformant.
func ValidateCard(doc card.Document) Result {
	if doc == nil {
		return nonConformant([]string{"/: card must be a JSON object"})
	}

	schema, err := getSchema()
	if err != nil {
		slog.Error("Agent card schema unavailable", "error", err)
		return nonConformant([]string{"/: schema unavailable"})
	}

	// Round-trip through JSON so the instance only holds JSON types
	raw, err := json.Marshal(map[string]any(card.Normalize(doc)))
	if err != nil {
		return nonConformant([]string{fmt.Sprintf("/: card is not JSON serializable: %v", err)})
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nonConformant([]string{fmt.Sprintf("/: %v", err)})
	}

	var violations []string
	if err := schema.Validate(inst); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nonConformant([]string{fmt.Sprintf("/: %v", err)})
		}
		violations = collectViolations(ve, violations)
		if len(violations) == 0 {
			violations = append(violations, "/: "+ve.Error())
		}
	}

	if obj, ok := inst.(map[string]any); ok {
		violations = append(violations, duplicateSkillIDs(obj["skills"])...)
	}

	if len(violations) == 0 {
		return Result{Conformant: true, Violations: []string{}}
	}
	return nonConformant(violations)
}

func nonConformant(violations []string) Result {
	slices.Sort(violations)
	return Result{
		Conformant: false,
		Violations: slices.Compact(violations),
	}
}

// collectViolations walks the error tree and appends one entry per leaf error
func collectViolations(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			out = collectViolations(cause, out)
		}
		return out
	}

	if ve.ErrorKind == nil {
		return out
	}

	switch k := ve.ErrorKind.(type) {
	case *kind.Schema, *kind.Reference, *kind.AllOf, *kind.OneOf, *kind.AnyOf:
		return out
	case *kind.Required:
		for _, missing := range k.Missing {
			out = append(out, pointer(append(slices.Clone(ve.InstanceLocation), missing))+": is required")
		}
		return out
	}

	return append(out, pointer(ve.InstanceLocation)+": "+ve.ErrorKind.LocalizedString(printer))
}

func duplicateSkillIDs(v any) []string {
	skills, ok := v.([]any)
	if !ok {
		return nil
	}

	var violations []string
	seen := make(map[string]bool, len(skills))
	for i, raw := range skills {
		skill, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := skill["id"].(string)
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		if seen[id] {
			violations = append(violations,
				pointer([]string{"skills", strconv.Itoa(i), "id"})+": duplicate skill id "+strconv.Quote(id))
			continue
		}
		seen[id] = true
	}
	return violations
}

// pointer renders an instance location as a JSON pointer. The document root is "/".
func pointer(location []string) string {
	if len(location) == 0 {
		return "/"
	}
	escaped := make([]string, len(location))
	for i, token := range location {
		token = strings.ReplaceAll(token, "~", "~0")
		escaped[i] = strings.ReplaceAll(token, "/", "~1")
	}
	return "/" + strings.Join(escaped, "/")
}
