// Package fixture loads incident bundles from YAML files: the incident
// metrics, the policy limits, and optional extra policy rules, plus the
// scripted gate decisions used by demo runs.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/policy"
)

// #region fixture-types

// Decision is one scripted gate decision for a demo run.
type Decision struct {
	Step     string `yaml:"step"`
	Approved bool   `yaml:"approved"`
	Approver string `yaml:"approver"`
	Feedback string `yaml:"feedback"`
}

// Fixture is the top-level YAML structure for an incident bundle.
type Fixture struct {
	Description string           `yaml:"description"`
	IncidentID  string           `yaml:"incident_id"`
	Incident    incident.Context `yaml:"incident"`
	PolicyRules []policy.Rule    `yaml:"policy_rules"`
	Decisions   []Decision       `yaml:"decisions"`
}

// #endregion fixture-types

// #region loader

// Load reads and validates a fixture file.
func Load(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if err := validate(f); err != nil {
		return Fixture{}, fmt.Errorf("fixture %s: %w", path, err)
	}
	return f, nil
}

func validate(f Fixture) error {
	if f.IncidentID == "" {
		return fmt.Errorf("incident_id is required")
	}
	if f.Incident.HotPath == "" {
		return fmt.Errorf("incident.hot_path is required")
	}
	if f.Incident.LatencyBaseline <= 0 {
		return fmt.Errorf("incident.latency_baseline must be positive")
	}
	if f.Incident.LatencyCurrent <= 0 {
		return fmt.Errorf("incident.latency_current must be positive")
	}
	for i, d := range f.Decisions {
		if d.Step == "" {
			return fmt.Errorf("decisions[%d].step is required", i)
		}
	}
	return nil
}

// #endregion loader
