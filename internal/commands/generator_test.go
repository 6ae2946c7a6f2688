package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #region fixtures

func testIncident() incident.Context {
	return incident.Context{
		HotPath:         "frankfurt-amsterdam",
		LatencyCurrent:  187,
		LatencyBaseline: 42,
		LossCurrent:     2.8,
		LossBaseline:    0.1,
		Utilization: map[string]float64{
			"frankfurt-amsterdam": 96,
			"frankfurt-paris":     41,
		},
	}
}

func fixedClock(g *Generator) {
	g.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	}
}

// #endregion fixtures

// #region generate

func TestGenerateSubstitutesParameters(t *testing.T) {
	g := NewGenerator(catalog.Default())
	fixedClock(g)

	plan, err := g.Generate("qos_traffic_shaping", testIncident())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	joined := strings.Join(plan.Commands, "\n")
	if strings.Contains(joined, "{") {
		t.Fatalf("unresolved placeholder in commands:\n%s", joined)
	}
	if !strings.Contains(joined, "ssh admin@frankfurt") {
		t.Fatalf("router source not substituted:\n%s", joined)
	}
	if !strings.Contains(joined, "frankfurt-amsterdam") {
		t.Fatalf("peak interface not substituted:\n%s", joined)
	}
	if !strings.Contains(joined, "20260314-093000") {
		t.Fatalf("timestamp not substituted:\n%s", joined)
	}
	if plan.PlaybookName == "" || plan.RiskLevel == "" {
		t.Fatal("plan must carry playbook metadata")
	}
	if len(plan.Verification) == 0 || len(plan.Rollback) == 0 {
		t.Fatal("plan must carry verification and rollback steps")
	}
}

func TestGenerateUnknownPlaybook(t *testing.T) {
	g := NewGenerator(catalog.Default())
	if _, err := g.Generate("does_not_exist", testIncident()); err == nil {
		t.Fatal("expected error for unknown playbook")
	}
}

func TestGenerateReportsMissingParametersSorted(t *testing.T) {
	cat := catalog.New([]catalog.Playbook{{
		ID:               "broken",
		Name:             "Broken",
		RiskLevel:        catalog.RiskLow,
		CommandsTemplate: "apply {zeta_param} then {alpha_param} on {hot_path}",
	}})
	g := NewGenerator(cat)

	_, err := g.Generate("broken", testIncident())
	if err == nil {
		t.Fatal("expected missing parameter error")
	}
	if !strings.Contains(err.Error(), "alpha_param, zeta_param") {
		t.Fatalf("missing parameters must be sorted and joined: %v", err)
	}
}

// #endregion generate

// #region safety

func TestSafetyWarningsForHighRisk(t *testing.T) {
	g := NewGenerator(catalog.Default())

	plan, err := g.Generate("hardware_diagnostics_replace", testIncident())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	found := false
	for _, w := range plan.SafetyWarnings {
		if strings.Contains(w, "HIGH-risk") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected high-risk warning, got %v", plan.SafetyWarnings)
	}
}

func TestSafetyWarningsForDangerousPatterns(t *testing.T) {
	cat := catalog.New([]catalog.Playbook{{
		ID:               "sketchy",
		Name:             "Sketchy",
		RiskLevel:        catalog.RiskLow,
		CommandsTemplate: "cleanup: rm -rf /var/tmp/cache",
	}})
	g := NewGenerator(cat)

	plan, err := g.Generate("sketchy", testIncident())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(plan.SafetyWarnings) == 0 {
		t.Fatal("expected dangerous pattern warning")
	}
	if !strings.Contains(plan.SafetyWarnings[0], "dangerous pattern") {
		t.Fatalf("unexpected warning: %s", plan.SafetyWarnings[0])
	}
}

func TestLowRiskCleanPlanHasNoWarnings(t *testing.T) {
	g := NewGenerator(catalog.Default())
	plan, err := g.Generate("config_rollback", testIncident())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(plan.SafetyWarnings) != 0 {
		t.Fatalf("expected no warnings, got %v", plan.SafetyWarnings)
	}
}

// #endregion safety
