// Package catalog is the static registry of remediation playbooks and the
// per-incident Candidate instances derived from them.
package catalog

import (
	"fmt"
	"strings"

	"github.com/kestrelops/pathtriage/internal/incident"
)

// #region risk-cost-tiers
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

const (
	CostFree   = "FREE"
	CostLow    = "LOW"
	CostMedium = "MEDIUM"
	CostHigh   = "HIGH"
)

// #endregion risk-cost-tiers

// #region playbook
// Playbook is one immutable remediation procedure with the declarative
// metadata the scorer and policy gate read.
type Playbook struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Kind groups playbooks for policy purposes; "burst_capacity" is the
	// only paid-capacity kind.
	Kind         string   `yaml:"kind"`
	RootCauses   []string `yaml:"root_causes"`
	RiskLevel    string   `yaml:"risk_level"`     // LOW | MEDIUM | HIGH | CRITICAL
	TimeToEffect string   `yaml:"time_to_effect"` // e.g. "2 minutes"
	EtaMinutes   int      `yaml:"eta_minutes"`
	Cost         string   `yaml:"cost"` // FREE | LOW | MEDIUM | HIGH
	// CostRateEUR is the hourly run rate while the remediation is active.
	// Zero for everything except paid capacity.
	CostRateEUR float64 `yaml:"cost_rate_eur"`

	// Predicted fractional improvement once applied, 0..1 of the current
	// degradation above baseline.
	LatencyReduction float64 `yaml:"latency_reduction"`
	LossReduction    float64 `yaml:"loss_reduction"`

	EstimatedImpact    string   `yaml:"estimated_impact"`
	Prerequisites      []string `yaml:"prerequisites"`
	CommandsTemplate   string   `yaml:"commands_template"`
	VerificationSteps  []string `yaml:"verification_steps"`
	RollbackProcedure  string   `yaml:"rollback_procedure"`
	WhenToUse          string   `yaml:"when_to_use"`
	WhenNotToUse       string   `yaml:"when_not_to_use"`
	SuccessIndicators  []string `yaml:"success_indicators"`
	TypicalSuccessRate float64  `yaml:"typical_success_rate"` // 0..1
}

// AddressesCause reports whether the playbook declares the given root cause.
func (p Playbook) AddressesCause(rootCause string) bool {
	for _, rc := range p.RootCauses {
		if strings.EqualFold(rc, rootCause) {
			return true
		}
	}
	return false
}

// #endregion playbook

// #region verdict
// Verdict is the result of checking a candidate against operational policy.
// Reasons is empty iff OK is true.
type Verdict struct {
	OK      bool     `json:"ok"`
	Reasons []string `json:"reasons"`
}

// #endregion verdict

// #region candidate
// Candidate is one playbook's prediction for the current incident. It is
// built fresh per ranking pass and only mutated afterwards to attach the
// policy verdict.
type Candidate struct {
	ID            string   `json:"id"`
	Kind          string   `json:"kind"`
	Name          string   `json:"name"`
	PredLatencyMs float64  `json:"pred_latency_ms"`
	PredLossPct   float64  `json:"pred_loss_pct"`
	EtaMinutes    int      `json:"eta_minutes"`
	TimeToEffect  string   `json:"time_to_effect"`
	RiskLevel     string   `json:"risk_level"`
	Cost          string   `json:"cost"`
	CostRateEUR   float64  `json:"cost_rate_eur"`
	SuccessRate   float64  `json:"success_rate"`
	Verdict       *Verdict `json:"policy_verdict,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// #endregion candidate

// #region catalog
// Catalog is a read-only playbook registry. Declaration order is significant:
// the ranking engine breaks score ties by it.
type Catalog struct {
	playbooks []Playbook
}

// New builds a catalog from the given playbooks, preserving order.
func New(playbooks []Playbook) *Catalog {
	return &Catalog{playbooks: playbooks}
}

// Default returns the built-in playbook library.
func Default() *Catalog {
	return New(builtinPlaybooks())
}

// All returns every playbook in declaration order.
func (c *Catalog) All() []Playbook {
	out := make([]Playbook, len(c.playbooks))
	copy(out, c.playbooks)
	return out
}

// ByID returns the playbook with the given id.
func (c *Catalog) ByID(id string) (Playbook, error) {
	for _, p := range c.playbooks {
		if p.ID == id {
			return p, nil
		}
	}
	return Playbook{}, fmt.Errorf("playbook %q not in catalog", id)
}

// ForCause returns the playbooks declaring the given root cause, in
// declaration order. If none declares it the full catalog is returned;
// callers must treat that as a lower-confidence fallback, not an error.
func (c *Catalog) ForCause(rootCause string) []Playbook {
	var matching []Playbook
	for _, p := range c.playbooks {
		if p.AddressesCause(rootCause) {
			matching = append(matching, p)
		}
	}
	if len(matching) == 0 {
		return c.All()
	}
	return matching
}

// #endregion catalog

// #region instantiate
// Instantiate derives a fresh Candidate from a playbook and the incident
// metrics. Predicted values move from current toward baseline by the
// playbook's declared reduction fractions.
func Instantiate(p Playbook, ctx incident.Context) Candidate {
	predLatency := ctx.LatencyCurrent - (ctx.LatencyCurrent-ctx.LatencyBaseline)*p.LatencyReduction
	if predLatency < ctx.LatencyBaseline {
		predLatency = ctx.LatencyBaseline
	}
	predLoss := ctx.LossCurrent - (ctx.LossCurrent-ctx.LossBaseline)*p.LossReduction
	if predLoss < ctx.LossBaseline {
		predLoss = ctx.LossBaseline
	}

	return Candidate{
		ID:            p.ID,
		Kind:          p.Kind,
		Name:          p.Name,
		PredLatencyMs: predLatency,
		PredLossPct:   predLoss,
		EtaMinutes:    p.EtaMinutes,
		TimeToEffect:  p.TimeToEffect,
		RiskLevel:     p.RiskLevel,
		Cost:          p.Cost,
		CostRateEUR:   p.CostRateEUR,
		SuccessRate:   p.TypicalSuccessRate,
	}
}

// #endregion instantiate
