// Package health aggregates probe records into uptime and latency summaries.
package health

import (
	"math"
	"time"
)

// DefaultWindow is the window used for the summary attached to an entry
const DefaultWindow = 24 * time.Hour

// Probe is the part of a probe record the aggregation needs
type Probe struct {
	ProbedAt  time.Time
	Success   bool
	LatencyMs *int
}

// Summary is the aggregated health of one entry over a window
type Summary struct {
	UptimePercentage float64    `json:"uptime_percentage"`
	AvgLatencyMs     float64    `json:"avg_latency_ms"`
	TotalProbes      int        `json:"total_probes"`
	SuccessfulProbes int        `json:"successful_probes"`
	FailedProbes     int        `json:"failed_probes"`
	LastProbedAt     *time.Time `json:"last_probed_at"`
	Healthy          bool       `json:"healthy"`
}

// Summarize aggregates the probes that fall within (now-window, now].
// Probes may be passed in any order.
func Summarize(probes []Probe, now time.Time, window time.Duration) Summary {
	since := now.Add(-window)

	var (
		summary     Summary
		latencySum  int
		latencyN    int
		latestProbe *Probe
	)

	for i := range probes {
		p := &probes[i]
		if !p.ProbedAt.After(since) || p.ProbedAt.After(now) {
			continue
		}

		summary.TotalProbes++
		if p.Success {
			summary.SuccessfulProbes++
			if p.LatencyMs != nil {
				latencySum += *p.LatencyMs
				latencyN++
			}
		} else {
			summary.FailedProbes++
		}

		if latestProbe == nil || p.ProbedAt.After(latestProbe.ProbedAt) {
			latestProbe = p
		}
	}

	if summary.TotalProbes > 0 {
		summary.UptimePercentage = round2(100 * float64(summary.SuccessfulProbes) / float64(summary.TotalProbes))
	}
	if latencyN > 0 {
		summary.AvgLatencyMs = round2(float64(latencySum) / float64(latencyN))
	}
	if latestProbe != nil {
		last := latestProbe.ProbedAt
		summary.LastProbedAt = &last
		summary.Healthy = latestProbe.Success
	}

	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
