// Package report renders the final incident report in markdown: what
// degraded, what the diagnosis was, what was approved, what ran, and what
// is left to follow up on.
package report

// #region imports
import (
	"fmt"
	"strings"
	"time"

	"github.com/kestrelops/pathtriage/internal/commands"
	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/oracle"
	"github.com/kestrelops/pathtriage/internal/ranking"
	"github.com/kestrelops/pathtriage/internal/signals"
)

// #endregion

// #region input

// Decision is one human gate decision carried into the report.
type Decision struct {
	Step     string
	Approved bool
	Approver string
	Feedback string
}

// Note is one step failure carried into the report.
type Note struct {
	Step    string
	Message string
}

// Input is everything the report needs, collected by the caller so this
// package stays a pure renderer.
type Input struct {
	IncidentID string
	Incident   incident.Context
	Signals    signals.Summary

	Diagnosis      *oracle.Diagnosis
	Recommendation *ranking.Result
	Plan           *commands.Plan

	ExecutionStatus  string
	ExecutionMessage string
	CommandsExecuted int
	VerificationOK   bool

	Approvals []Decision
	Errors    []Note

	StartedAt  time.Time
	FinishedAt time.Time
}

// #endregion input

// #region render

// Render produces the markdown incident report.
func Render(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident Report: %s\n\n", in.IncidentID)
	fmt.Fprintf(&b, "- **Path**: %s\n", in.Incident.HotPath)
	fmt.Fprintf(&b, "- **Priority**: %s\n", in.Incident.EffectivePriority())
	fmt.Fprintf(&b, "- **Opened**: %s\n", in.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Closed**: %s\n", in.FinishedAt.Format(time.RFC3339))
	if in.Incident.CreatedBy != "" {
		fmt.Fprintf(&b, "- **Reported by**: %s\n", in.Incident.CreatedBy)
	}

	b.WriteString("\n## Observed Degradation\n\n")
	fmt.Fprintf(&b, "| Metric | Baseline | Current | Delta |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| Latency (ms) | %.1f | %.1f | %+.1f (%+.0f%%) |\n",
		in.Incident.LatencyBaseline, in.Incident.LatencyCurrent,
		in.Signals.DeltaLatencyMs, in.Signals.LatencyPct)
	fmt.Fprintf(&b, "| Loss (%%) | %.2f | %.2f | %+.2f |\n",
		in.Incident.LossBaseline, in.Incident.LossCurrent, in.Signals.DeltaLossPct)
	fmt.Fprintf(&b, "\nPeak utilization %.0f%% on `%s` (congestion band: %s).\n",
		in.Signals.UtilPeak, in.Signals.PeakSegment, in.Signals.CongestionBand)
	if in.Signals.SLAViolated {
		fmt.Fprintf(&b, "Latency SLA of %.0fms violated during the incident.\n",
			in.Incident.Policy.LatencyTargetMs)
	}

	renderDiagnosis(&b, in.Diagnosis)
	renderRecommendation(&b, in.Recommendation)
	renderExecution(&b, in)
	renderApprovals(&b, in.Approvals)
	renderErrors(&b, in.Errors)

	return b.String()
}

func renderDiagnosis(b *strings.Builder, d *oracle.Diagnosis) {
	b.WriteString("\n## Diagnosis\n\n")
	if d == nil {
		b.WriteString("No diagnosis produced.\n")
		return
	}
	fmt.Fprintf(b, "**Root cause**: %s (confidence %.0f%%)\n\n", d.Cause, d.Confidence*100)
	if d.Reasoning != "" {
		fmt.Fprintf(b, "%s\n", d.Reasoning)
	}
	if len(d.ContributingFactors) > 0 {
		b.WriteString("\nContributing factors:\n")
		for _, f := range d.ContributingFactors {
			fmt.Fprintf(b, "- %s\n", f)
		}
	}
	if len(d.ContradictingSignals) > 0 {
		b.WriteString("\nContradicting signals:\n")
		for _, s := range d.ContradictingSignals {
			fmt.Fprintf(b, "- %s\n", s)
		}
	}
}

func renderRecommendation(b *strings.Builder, r *ranking.Result) {
	b.WriteString("\n## Remediation Options\n\n")
	if r == nil || len(r.Options) == 0 {
		b.WriteString("No remediation candidates were ranked.\n")
		return
	}
	fmt.Fprintf(b, "Ranking method: %s. Recommended: `%s`.\n\n", r.RankingMethod, r.Recommended)
	for _, opt := range r.Options {
		verdict := "policy OK"
		if opt.Candidate.Verdict != nil && !opt.Candidate.Verdict.OK {
			verdict = "policy violations: " + strings.Join(opt.Candidate.Verdict.Reasons, "; ")
		}
		fmt.Fprintf(b, "%d. **%s** (score %.3f, risk %s, %s) %s\n",
			opt.Rank, opt.Candidate.Name, opt.Score,
			opt.Candidate.RiskLevel, opt.Candidate.TimeToEffect, verdict)
		if opt.Reasoning != "" {
			fmt.Fprintf(b, "   %s\n", opt.Reasoning)
		}
	}
}

func renderExecution(b *strings.Builder, in Input) {
	b.WriteString("\n## Execution\n\n")
	if in.Plan == nil {
		b.WriteString("No commands were generated.\n")
		return
	}
	fmt.Fprintf(b, "Playbook `%s` (%s, risk %s).\n\n", in.Plan.PlaybookID, in.Plan.PlaybookName, in.Plan.RiskLevel)
	if len(in.Plan.Commands) > 0 {
		b.WriteString("```\n")
		for _, cmd := range in.Plan.Commands {
			fmt.Fprintf(b, "%s\n", cmd)
		}
		b.WriteString("```\n\n")
	}
	if in.ExecutionStatus == "" {
		b.WriteString("Commands were not executed.\n")
		return
	}
	fmt.Fprintf(b, "Result: **%s** (%d commands executed, verification ok: %t)\n",
		in.ExecutionStatus, in.CommandsExecuted, in.VerificationOK)
	if in.ExecutionMessage != "" {
		fmt.Fprintf(b, "\n%s\n", in.ExecutionMessage)
	}
	if len(in.Plan.Rollback) > 0 && in.ExecutionStatus != "success" {
		b.WriteString("\nRollback commands on record:\n```\n")
		for _, cmd := range in.Plan.Rollback {
			fmt.Fprintf(b, "%s\n", cmd)
		}
		b.WriteString("```\n")
	}
}

func renderApprovals(b *strings.Builder, approvals []Decision) {
	if len(approvals) == 0 {
		return
	}
	b.WriteString("\n## Approvals\n\n")
	for _, a := range approvals {
		verdict := "approved"
		if !a.Approved {
			verdict = "not approved"
		}
		who := a.Approver
		if who == "" {
			who = "operator"
		}
		fmt.Fprintf(b, "- `%s` %s by %s", a.Step, verdict, who)
		if a.Feedback != "" {
			fmt.Fprintf(b, ": %s", a.Feedback)
		}
		b.WriteString("\n")
	}
}

func renderErrors(b *strings.Builder, errs []Note) {
	if len(errs) == 0 {
		return
	}
	b.WriteString("\n## Step Failures\n\n")
	for _, e := range errs {
		fmt.Fprintf(b, "- `%s`: %s\n", e.Step, e.Message)
	}
}

// #endregion render
