package policy

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #region fixtures

func cleanCandidate() catalog.Candidate {
	return catalog.Candidate{
		ID:            "qos_traffic_shaping",
		Kind:          "qos_shaping",
		PredLatencyMs: 80,
		PredLossPct:   0.4,
		EtaMinutes:    10,
		RiskLevel:     catalog.RiskLow,
		Cost:          catalog.CostFree,
	}
}

func testPolicy() incident.Policy {
	return incident.Policy{
		LatencyTargetMs:      100,
		MinPathRedundancy:    1,
		MaxBurstCostPerHrEUR: 500,
	}
}

// #endregion fixtures

// #region builtin-rules

func TestCleanCandidatePasses(t *testing.T) {
	v := Check(cleanCandidate(), testPolicy(), incident.Prices{})
	if !v.OK {
		t.Fatalf("expected OK, got reasons %v", v.Reasons)
	}
	if len(v.Reasons) != 0 {
		t.Fatalf("OK verdict must carry no reasons, got %v", v.Reasons)
	}
}

func TestLatencyViolationReported(t *testing.T) {
	cand := cleanCandidate()
	cand.PredLatencyMs = 120

	v := Check(cand, testPolicy(), incident.Prices{})
	if v.OK {
		t.Fatal("expected violation")
	}
	if len(v.Reasons) != 1 {
		t.Fatalf("expected 1 reason, got %v", v.Reasons)
	}
	if !strings.Contains(v.Reasons[0], "120ms") || !strings.Contains(v.Reasons[0], "100ms") {
		t.Fatalf("reason must name both values: %s", v.Reasons[0])
	}
}

func TestBurstCostViolationOnlyAppliesToBurstKind(t *testing.T) {
	cand := cleanCandidate()
	cand.Kind = "burst_capacity"
	cand.CostRateEUR = 650

	v := Check(cand, testPolicy(), incident.Prices{})
	if v.OK {
		t.Fatal("expected burst cost violation")
	}
	if !strings.Contains(v.Reasons[0], "650.00") || !strings.Contains(v.Reasons[0], "500.00") {
		t.Fatalf("reason must name both amounts: %s", v.Reasons[0])
	}

	// The same cost on a free-capacity kind is no violation.
	cand.Kind = "qos_shaping"
	if v := Check(cand, testPolicy(), incident.Prices{}); !v.OK {
		t.Fatalf("cost rule must not apply to %s: %v", cand.Kind, v.Reasons)
	}
}

func TestAllViolationsReportedTogether(t *testing.T) {
	cand := cleanCandidate()
	cand.Kind = "burst_capacity"
	cand.PredLatencyMs = 150
	cand.CostRateEUR = 900

	v := Check(cand, testPolicy(), incident.Prices{})
	if len(v.Reasons) != 2 {
		t.Fatalf("expected both violations, got %v", v.Reasons)
	}
}

func TestCheckIsPure(t *testing.T) {
	cand := cleanCandidate()
	cand.PredLatencyMs = 150

	first := Check(cand, testPolicy(), incident.Prices{})
	second := Check(cand, testPolicy(), incident.Prices{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("identical inputs produced different verdicts:\n%s", diff)
	}
}

// #endregion builtin-rules

// #region extra-rules

func TestExtraRuleViolation(t *testing.T) {
	g, err := NewGate([]Rule{
		{Name: "no-slow-fixes", Cond: "eta_minutes > 15"},
	})
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}

	cand := cleanCandidate()
	cand.EtaMinutes = 30
	v := g.Check(cand, testPolicy(), incident.Prices{})
	if v.OK {
		t.Fatal("expected extra rule violation")
	}
	if !strings.Contains(v.Reasons[0], "no-slow-fixes") {
		t.Fatalf("reason must name the rule: %s", v.Reasons[0])
	}

	cand.EtaMinutes = 10
	if v := g.Check(cand, testPolicy(), incident.Prices{}); !v.OK {
		t.Fatalf("rule must not fire below threshold: %v", v.Reasons)
	}
}

func TestInvalidRuleRejectedAtConstruction(t *testing.T) {
	if _, err := NewGate([]Rule{{Name: "broken", Cond: "eta_minutes >"}}); err == nil {
		t.Fatal("expected compile error")
	}
	if _, err := NewGate([]Rule{{Name: "empty", Cond: "   "}}); err == nil {
		t.Fatal("expected empty condition error")
	}
}

func TestRiskLevelRule(t *testing.T) {
	g, err := NewGate([]Rule{
		{Name: "no-high-risk", Cond: `risk_level == "HIGH" || risk_level == "CRITICAL"`},
	})
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	cand := cleanCandidate()
	cand.RiskLevel = catalog.RiskHigh
	if v := g.Check(cand, testPolicy(), incident.Prices{}); v.OK {
		t.Fatal("expected high-risk rule violation")
	}
}

// #endregion extra-rules
