package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latency(ms int) *int {
	return &ms
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(minutesAgo int) time.Time {
		return now.Add(-time.Duration(minutesAgo) * time.Minute)
	}

	tests := []struct {
		name   string
		probes []Probe
		want   Summary
	}{
		{
			name:   "no probes",
			probes: nil,
			want:   Summary{},
		},
		{
			name: "eight of ten succeeded",
			probes: func() []Probe {
				var probes []Probe
				for i := range 10 {
					p := Probe{ProbedAt: at(30 * (i + 1)), Success: i >= 2}
					if p.Success {
						p.LatencyMs = latency(100 + i)
					}
					probes = append(probes, p)
				}
				return probes
			}(),
			want: Summary{
				UptimePercentage: 80,
				AvgLatencyMs:     105.5,
				TotalProbes:      10,
				SuccessfulProbes: 8,
				FailedProbes:     2,
				LastProbedAt:     ptrTime(at(30)),
				Healthy:          false,
			},
		},
		{
			name: "rounded to two decimals",
			probes: []Probe{
				{ProbedAt: at(10), Success: true, LatencyMs: latency(100)},
				{ProbedAt: at(40), Success: false},
				{ProbedAt: at(70), Success: false},
			},
			want: Summary{
				UptimePercentage: 33.33,
				AvgLatencyMs:     100,
				TotalProbes:      3,
				SuccessfulProbes: 1,
				FailedProbes:     2,
				LastProbedAt:     ptrTime(at(10)),
				Healthy:          true,
			},
		},
		{
			name: "success without latency excluded from average",
			probes: []Probe{
				{ProbedAt: at(10), Success: true},
				{ProbedAt: at(20), Success: true, LatencyMs: latency(50)},
			},
			want: Summary{
				UptimePercentage: 100,
				AvgLatencyMs:     50,
				TotalProbes:      2,
				SuccessfulProbes: 2,
				LastProbedAt:     ptrTime(at(10)),
				Healthy:          true,
			},
		},
		{
			name: "probes outside window ignored",
			probes: []Probe{
				{ProbedAt: at(25 * 60), Success: false},
				{ProbedAt: at(24 * 60), Success: false},
				{ProbedAt: now.Add(time.Minute), Success: false},
				{ProbedAt: at(60), Success: true, LatencyMs: latency(10)},
			},
			want: Summary{
				UptimePercentage: 100,
				AvgLatencyMs:     10,
				TotalProbes:      1,
				SuccessfulProbes: 1,
				LastProbedAt:     ptrTime(at(60)),
				Healthy:          true,
			},
		},
		{
			name: "all failed",
			probes: []Probe{
				{ProbedAt: at(5), Success: false},
			},
			want: Summary{
				TotalProbes:  1,
				FailedProbes: 1,
				LastProbedAt: ptrTime(at(5)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Summarize(tt.probes, now, DefaultWindow))
		})
	}
}

func TestSummarizeUnordered(t *testing.T) {
	t.Parallel()

	now := time.Now()
	probes := []Probe{
		{ProbedAt: now.Add(-2 * time.Hour), Success: true},
		{ProbedAt: now.Add(-time.Hour), Success: false},
		{ProbedAt: now.Add(-3 * time.Hour), Success: true},
	}

	summary := Summarize(probes, now, DefaultWindow)
	require.NotNil(t, summary.LastProbedAt)
	assert.Equal(t, now.Add(-time.Hour), *summary.LastProbedAt)
	assert.False(t, summary.Healthy)
	assert.InDelta(t, 66.67, summary.UptimePercentage, 0.001)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
