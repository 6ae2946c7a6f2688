package report

import (
	"strings"
	"testing"
	"time"

	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/commands"
	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/oracle"
	"github.com/kestrelops/pathtriage/internal/ranking"
	"github.com/kestrelops/pathtriage/internal/signals"
)

func fullInput() Input {
	inc := incident.Context{
		HotPath:         "frankfurt-amsterdam",
		LatencyCurrent:  187,
		LatencyBaseline: 42,
		LossCurrent:     2.8,
		LossBaseline:    0.1,
		Utilization:     map[string]float64{"frankfurt-amsterdam": 96},
		Policy:          incident.Policy{LatencyTargetMs: 100},
	}
	return Input{
		IncidentID: "inc-2026-0314",
		Incident:   inc,
		Signals:    signals.Derive(inc),
		Diagnosis: &oracle.Diagnosis{
			Cause:               "congestion",
			Confidence:          0.85,
			Reasoning:           "Peak utilization with correlated latency and loss growth.",
			ContributingFactors: []string{"capacity exhaustion"},
		},
		Recommendation: &ranking.Result{
			RankingMethod: "rule_based",
			Recommended:   "qos_traffic_shaping",
			Options: []ranking.Option{{
				Rank:      1,
				Score:     0.87,
				Reasoning: "directly addresses congestion | low risk, safe to apply",
				Candidate: catalog.Candidate{
					ID:           "qos_traffic_shaping",
					Name:         "QoS Traffic Shaping",
					RiskLevel:    catalog.RiskLow,
					TimeToEffect: "10 minutes",
					Verdict:      &catalog.Verdict{OK: true},
				},
			}},
		},
		Plan: &commands.Plan{
			PlaybookID:   "qos_traffic_shaping",
			PlaybookName: "QoS Traffic Shaping",
			RiskLevel:    catalog.RiskLow,
			Commands:     []string{"configure terminal", "service-policy output QOS_PEAK_HOURS"},
			Rollback:     []string{"no service-policy output"},
		},
		ExecutionStatus:  "success",
		ExecutionMessage: "3 commands applied, verification passed",
		CommandsExecuted: 3,
		VerificationOK:   true,
		Approvals: []Decision{
			{Step: "review_diagnosis", Approved: true, Approver: "noc-alice"},
			{Step: "review_commands", Approved: true, Approver: "noc-alice", Feedback: "looks right"},
		},
		StartedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 14, 9, 25, 0, 0, time.UTC),
	}
}

func TestRenderFullReport(t *testing.T) {
	md := Render(fullInput())

	wantFragments := []string{
		"# Incident Report: inc-2026-0314",
		"frankfurt-amsterdam",
		"## Observed Degradation",
		"| Latency (ms) | 42.0 | 187.0 |",
		"Latency SLA of 100ms violated",
		"## Diagnosis",
		"congestion (confidence 85%)",
		"## Remediation Options",
		"QoS Traffic Shaping",
		"policy OK",
		"## Execution",
		"Result: **success**",
		"## Approvals",
		"`review_commands` approved by noc-alice: looks right",
	}
	for _, frag := range wantFragments {
		if !strings.Contains(md, frag) {
			t.Errorf("report missing %q", frag)
		}
	}
	if strings.Contains(md, "## Step Failures") {
		t.Error("no failures were supplied, section must be absent")
	}
}

func TestRenderDegradedRun(t *testing.T) {
	in := fullInput()
	in.Diagnosis = nil
	in.Recommendation = nil
	in.Plan = nil
	in.ExecutionStatus = ""
	in.Approvals = nil
	in.Errors = []Note{{Step: "diagnose", Message: "backend unavailable"}}

	md := Render(in)
	if !strings.Contains(md, "No diagnosis produced.") {
		t.Error("missing diagnosis placeholder")
	}
	if !strings.Contains(md, "No remediation candidates were ranked.") {
		t.Error("missing ranking placeholder")
	}
	if !strings.Contains(md, "No commands were generated.") {
		t.Error("missing execution placeholder")
	}
	if !strings.Contains(md, "`diagnose`: backend unavailable") {
		t.Error("missing failure entry")
	}
}

func TestRenderShowsRollbackOnPartialExecution(t *testing.T) {
	in := fullInput()
	in.ExecutionStatus = "partial"

	md := Render(in)
	if !strings.Contains(md, "Rollback commands on record:") {
		t.Error("partial execution must surface rollback commands")
	}
	if !strings.Contains(md, "no service-policy output") {
		t.Error("rollback command body missing")
	}
}
