// Package oracle holds the external reasoning clients consumed by the
// workflow: a diagnosis oracle proposing a root cause and a ranking oracle
// refining candidate order. Both are interfaces so the engine can run with
// fakes, the deterministic heuristic, or an LLM backend.
package oracle

import (
	"context"

	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/signals"
)

// #region diagnosis

// Diagnosis is the root-cause hypothesis returned by a diagnosis oracle.
// The payload is opaque to the workflow engine; it is stored and surfaced
// as-is.
type Diagnosis struct {
	Cause                string   `json:"cause"`
	Confidence           float64  `json:"confidence"` // 0..1
	Reasoning            string   `json:"reasoning"`
	ContributingFactors  []string `json:"contributing_factors,omitempty"`
	ContradictingSignals []string `json:"contradicting_signals,omitempty"`
	NextSteps            []string `json:"next_steps,omitempty"`
}

// Diagnoser produces a root-cause hypothesis for an incident. Calls may
// fail or time out; callers bound them with the context.
type Diagnoser interface {
	Diagnose(ctx context.Context, sum signals.Summary, inc incident.Context) (Diagnosis, error)
}

// #endregion diagnosis
