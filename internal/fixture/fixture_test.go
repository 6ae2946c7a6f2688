package fixture

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "incident.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const validFixture = `
description: congestion after a traffic shift
incident_id: inc-2026-0314
incident:
  hot_path: frankfurt-amsterdam
  latency_current: 187
  latency_baseline: 42
  loss_current: 2.8
  loss_baseline: 0.1
  utilization:
    frankfurt-amsterdam: 96
    frankfurt-paris: 41
  recent_changes:
    - ts: "2026-03-14T08:55:00Z"
      type: config_push
      scope: frankfurt-amsterdam
  priority: high
  policy:
    latency_target_ms: 100
    min_path_redundancy: 1
    max_burst_cost_per_hr_eur: 500
  prices:
    burst_capacity_per_1gbps_hr: 350
policy_rules:
  - name: no-slow-fixes
    cond: eta_minutes > 30
decisions:
  - step: review_diagnosis
    approved: true
    approver: noc-alice
  - step: review_commands
    approved: false
    feedback: modify the shaping percentage
`

func TestLoadValidFixture(t *testing.T) {
	f, err := Load(writeFixture(t, validFixture))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.IncidentID != "inc-2026-0314" {
		t.Fatalf("incident id = %s", f.IncidentID)
	}
	if f.Incident.HotPath != "frankfurt-amsterdam" || f.Incident.LatencyCurrent != 187 {
		t.Fatalf("incident not parsed: %+v", f.Incident)
	}
	if f.Incident.Utilization["frankfurt-amsterdam"] != 96 {
		t.Fatalf("utilization not parsed: %v", f.Incident.Utilization)
	}
	if len(f.Incident.RecentChanges) != 1 || f.Incident.RecentChanges[0].Type != "config_push" {
		t.Fatalf("changes not parsed: %v", f.Incident.RecentChanges)
	}
	if f.Incident.Policy.LatencyTargetMs != 100 {
		t.Fatalf("policy not parsed: %+v", f.Incident.Policy)
	}
	if len(f.PolicyRules) != 1 || f.PolicyRules[0].Name != "no-slow-fixes" {
		t.Fatalf("rules not parsed: %v", f.PolicyRules)
	}
	if len(f.Decisions) != 2 || f.Decisions[1].Feedback == "" {
		t.Fatalf("decisions not parsed: %v", f.Decisions)
	}
}

func TestLoadRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing id": `
incident:
  hot_path: a-b
  latency_current: 100
  latency_baseline: 50
`,
		"missing path": `
incident_id: inc-1
incident:
  latency_current: 100
  latency_baseline: 50
`,
		"zero baseline": `
incident_id: inc-1
incident:
  hot_path: a-b
  latency_current: 100
`,
		"decision without step": `
incident_id: inc-1
incident:
  hot_path: a-b
  latency_current: 100
  latency_baseline: 50
decisions:
  - approved: true
`,
	}
	for name, content := range cases {
		if _, err := Load(writeFixture(t, content)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadRejectsMissingFileAndBadYAML(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(writeFixture(t, ":\nnot yaml: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
