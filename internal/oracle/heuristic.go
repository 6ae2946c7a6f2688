package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/signals"
)

// #region heuristic

// Heuristic is a deterministic rule-based diagnoser. It is the standing
// fallback when no LLM backend is configured and the last resort when the
// LLM oracle keeps failing.
type Heuristic struct{}

// NewHeuristic returns the rule-based diagnoser.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Diagnose applies the classic signatures: saturated utilization with
// elevated latency and loss reads as congestion, correlated recent changes
// as config regression, anything else as unknown degradation.
func (h *Heuristic) Diagnose(_ context.Context, sum signals.Summary, inc incident.Context) (Diagnosis, error) {
	if sum.DeltaLatencyMs > 25 && sum.DeltaLossPct > 1.0 && sum.UtilPeak >= 90 {
		return Diagnosis{
			Cause:      "congestion",
			Confidence: 0.8,
			Reasoning: fmt.Sprintf(
				"High latency increase (+%.1fms), elevated packet loss (+%.2f%%), and peak utilization (%.0f%%) strongly indicate network congestion.",
				sum.DeltaLatencyMs, sum.DeltaLossPct, sum.UtilPeak),
			ContributingFactors: []string{"High utilization", "Capacity exhaustion", "Traffic spike"},
			NextSteps: []string{
				"Verify traffic sources and destinations",
				"Check for DDoS or unusual traffic patterns",
				"Review capacity planning timeline",
			},
		}, nil
	}

	if sum.RecentChange {
		return Diagnosis{
			Cause:      "config_regression",
			Confidence: 0.6,
			Reasoning: fmt.Sprintf(
				"Recent configuration changes detected (%s) shortly before incident onset. Timing correlation suggests a change-induced issue.",
				summarizeChanges(inc.RecentChanges)),
			ContributingFactors: []string{"Configuration change on hot path", "Timing correlation"},
			NextSteps: []string{
				"Review change diff and validation",
				"Compare before/after metrics",
				"Consider rollback if appropriate",
			},
		}, nil
	}

	return Diagnosis{
		Cause:      "unknown_degradation",
		Confidence: 0.4,
		Reasoning: fmt.Sprintf(
			"Service degradation detected (latency +%.1fms, loss +%.2f%%) but the root cause is unclear; metrics match no common failure signature.",
			sum.DeltaLatencyMs, sum.DeltaLossPct),
		NextSteps: []string{
			"Gather additional telemetry data",
			"Check application and system logs",
			"Review historical trends for patterns",
		},
	}, nil
}

func summarizeChanges(events []incident.ChangeEvent) string {
	parts := make([]string, 0, 2)
	for _, e := range events {
		parts = append(parts, fmt.Sprintf("%s on %s", e.Type, e.Scope))
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, ", ")
}

// #endregion heuristic
