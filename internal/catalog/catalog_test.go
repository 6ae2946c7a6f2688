package catalog

import (
	"testing"

	"github.com/kestrelops/pathtriage/internal/incident"
)

func TestByIDUnknownPlaybook(t *testing.T) {
	cat := Default()
	if _, err := cat.ByID("does_not_exist"); err == nil {
		t.Fatal("expected error for unknown playbook")
	}
	p, err := cat.ByID("config_rollback")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if p.RiskLevel != RiskLow {
		t.Fatalf("expected LOW risk rollback, got %s", p.RiskLevel)
	}
}

func TestForCauseFallsBackToFullCatalog(t *testing.T) {
	cat := Default()

	congestion := cat.ForCause("congestion")
	if len(congestion) == 0 || len(congestion) == len(cat.All()) {
		t.Fatalf("expected a strict congestion subset, got %d of %d", len(congestion), len(cat.All()))
	}
	for _, p := range congestion {
		if !p.AddressesCause("congestion") {
			t.Fatalf("playbook %s does not address congestion", p.ID)
		}
	}

	unknown := cat.ForCause("solar_flare")
	if len(unknown) != len(cat.All()) {
		t.Fatalf("unknown cause must return the full catalog, got %d", len(unknown))
	}
}

func TestAddressesCauseIsCaseInsensitive(t *testing.T) {
	p := Playbook{RootCauses: []string{"Congestion"}}
	if !p.AddressesCause("congestion") {
		t.Fatal("cause match must ignore case")
	}
	if p.AddressesCause("hardware_failure") {
		t.Fatal("undeclared cause must not match")
	}
}

func TestInstantiatePredictionsClampAtBaseline(t *testing.T) {
	ctx := incident.Context{
		LatencyCurrent:  200,
		LatencyBaseline: 40,
		LossCurrent:     3.0,
		LossBaseline:    0.2,
	}

	p := Playbook{ID: "p", LatencyReduction: 0.5, LossReduction: 0.5}
	cand := Instantiate(p, ctx)
	if cand.PredLatencyMs != 120 {
		t.Fatalf("expected 120ms predicted, got %v", cand.PredLatencyMs)
	}
	if d := cand.PredLossPct - 1.6; d > 1e-9 || d < -1e-9 {
		t.Fatalf("expected 1.6%% predicted, got %v", cand.PredLossPct)
	}

	// Reductions above 1.0 must not predict better than the baseline.
	overshoot := Playbook{ID: "o", LatencyReduction: 1.5, LossReduction: 1.5}
	cand = Instantiate(overshoot, ctx)
	if cand.PredLatencyMs != ctx.LatencyBaseline {
		t.Fatalf("latency must clamp at baseline, got %v", cand.PredLatencyMs)
	}
	if cand.PredLossPct != ctx.LossBaseline {
		t.Fatalf("loss must clamp at baseline, got %v", cand.PredLossPct)
	}
}

func TestBuiltinCatalogShape(t *testing.T) {
	cat := Default()
	all := cat.All()
	if len(all) != 6 {
		t.Fatalf("expected 6 builtin playbooks, got %d", len(all))
	}
	seen := map[string]bool{}
	for _, p := range all {
		if seen[p.ID] {
			t.Fatalf("duplicate playbook id %s", p.ID)
		}
		seen[p.ID] = true
		if p.TypicalSuccessRate <= 0 || p.TypicalSuccessRate > 1 {
			t.Fatalf("playbook %s success rate out of range: %v", p.ID, p.TypicalSuccessRate)
		}
		if p.CommandsTemplate == "" {
			t.Fatalf("playbook %s has no command template", p.ID)
		}
	}
	burst, err := cat.ByID("emergency_capacity_upgrade")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if burst.Kind != "burst_capacity" || burst.CostRateEUR == 0 {
		t.Fatalf("burst playbook must carry a cost rate, got %+v", burst)
	}
}
