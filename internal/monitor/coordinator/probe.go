package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/monitor/state"
	"github.com/stacklok/agent-directory/internal/service"
)

// Probe outcomes recorded in metrics besides the fetch error kinds
const (
	outcomeSuccess       = "success"
	outcomeNonConformant = "non-conformant"
)

type probeOutcome struct {
	success bool
	changed bool
}

// probeEntry probes a single target and records the result. Errors are
// logged here; the returned error only tells the caller the write failed.
func (c *defaultCoordinator) probeEntry(ctx context.Context, target state.Target) (probeOutcome, error) {
	start := time.Now()
	probe, validated, outcome := c.probe(ctx, target)
	c.metrics.RecordProbe(ctx, outcome, time.Since(start))

	decide := decideConformance(probe.Success, validated, c.config.FailureThreshold)
	transition, err := c.record(ctx, target, probe, decide)
	if errors.Is(err, state.ErrEntryGone) {
		slog.DebugContext(ctx, "Entry deleted while probing", "entry_id", target.ID)
		return probeOutcome{success: probe.Success}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record probe",
			"entry_id", target.ID,
			"url", target.URL,
			"error", err)
		return probeOutcome{success: probe.Success}, err
	}

	reason := events.Reason("")
	if transition.Described {
		slog.DebugContext(ctx, "Agent card fields updated", "entry_id", target.ID)
		reason = events.ReasonUpdated
	}
	if transition.Changed() {
		slog.InfoContext(ctx, "Agent conformance changed",
			"entry_id", target.ID,
			"from", transition.Previous.String(),
			"to", transition.Current.String())
		reason = events.ReasonConformance
	}
	if reason != "" {
		if err := c.publisher.Publish(ctx, events.NewChange(target.ID, reason)); err != nil {
			slog.WarnContext(ctx, "Failed to publish entry change",
				"entry_id", target.ID,
				"reason", reason,
				"error", err)
		}
	}

	return probeOutcome{success: probe.Success, changed: transition.Changed()}, nil
}

// probe fetches and validates the target's card
func (c *defaultCoordinator) probe(ctx context.Context, target state.Target) (*state.Probe, bool, string) {
	probe := &state.Probe{ProbedAt: c.now().UTC()}

	result, err := c.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		fetchErr := card.Classify(err)
		probe.ErrorKind = string(fetchErr.Kind)
		probe.ErrorDetail = fetchErr.Detail
		slog.DebugContext(ctx, "Probe failed",
			"entry_id", target.ID,
			"url", target.URL,
			"kind", fetchErr.Kind,
			"detail", fetchErr.Detail)
		return probe, false, string(fetchErr.Kind)
	}

	status := result.StatusCode
	latency := int(result.Latency.Milliseconds())
	probe.Success = true
	probe.StatusCode = &status
	probe.LatencyMs = &latency

	verdict := c.validator.Validate(result.Document)
	if !verdict.Conformant {
		probe.ErrorKind = outcomeNonConformant
		probe.ErrorDetail = truncate(strings.Join(verdict.Violations, "; "), maxDetailLength)
		return probe, false, outcomeNonConformant
	}
	probe.Card = card.FromDocument(result.Document)
	return probe, true, outcomeSuccess
}

// decideConformance returns the conformance rule for a probe outcome
func decideConformance(success, validated bool, threshold int) state.DecideFunc {
	return func(current service.Conformance, recent []bool) service.Conformance {
		switch {
		case success && validated:
			return service.ConformanceStandard
		case success:
			return service.ConformanceNonStandard
		case trailingFailures(recent) >= threshold:
			return service.ConformanceNonStandard
		default:
			return current
		}
	}
}

// trailingFailures counts failed outcomes from the newest one back to the
// most recent success
func trailingFailures(recent []bool) int {
	n := 0
	for _, success := range recent {
		if success {
			break
		}
		n++
	}
	return n
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return strings.ToValidUTF8(s[:limit], "")
}
