// Package policy validates remediation candidates against operational
// limits. Checks are pure: identical inputs always produce identical
// verdicts, and every violated rule is reported, not just the first.
package policy

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #region rule
// Rule is an operator-supplied policy expression evaluated against the
// candidate and policy variables. The expression must yield a bool; true
// means the rule is violated.
type Rule struct {
	Name string `yaml:"name"`
	// Cond is an expr-lang expression over: pred_latency_ms, pred_loss_pct,
	// eta_minutes, kind, risk_level, cost_rate_eur, latency_target_ms,
	// max_burst_cost_per_hr_eur.
	Cond string `yaml:"cond"`
}

// #endregion rule

// #region gate
// Gate evaluates candidates against the built-in limits plus any extra
// rules.
type Gate struct {
	rules []Rule
}

// NewGate builds a gate, validating every extra rule expression up front.
func NewGate(rules []Rule) (*Gate, error) {
	for _, r := range rules {
		if strings.TrimSpace(r.Cond) == "" {
			return nil, fmt.Errorf("policy rule %q has empty condition", r.Name)
		}
		if _, err := expr.Compile(r.Cond, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
			return nil, fmt.Errorf("policy rule %q: %w", r.Name, err)
		}
	}
	return &Gate{rules: rules}, nil
}

// Check validates a candidate's predicted outcome against the policy.
// Reasons is empty iff OK is true.
func (g *Gate) Check(cand catalog.Candidate, pol incident.Policy, prices incident.Prices) catalog.Verdict {
	var reasons []string

	if pol.LatencyTargetMs > 0 && cand.PredLatencyMs > pol.LatencyTargetMs {
		reasons = append(reasons, fmt.Sprintf(
			"predicted latency %.0fms exceeds target %.0fms",
			cand.PredLatencyMs, pol.LatencyTargetMs))
	}

	// Only paid-capacity kinds carry a cost constraint.
	if cand.Kind == "burst_capacity" && cand.CostRateEUR > pol.MaxBurstCostPerHrEUR {
		reasons = append(reasons, fmt.Sprintf(
			"burst cost %.2f EUR/hr exceeds budget %.2f EUR/hr",
			cand.CostRateEUR, pol.MaxBurstCostPerHrEUR))
	}

	vars := ruleVars(cand, pol, prices)
	for _, r := range g.rules {
		violated, err := evalRule(r.Cond, vars)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("rule %q failed to evaluate: %v", r.Name, err))
			continue
		}
		if violated {
			reasons = append(reasons, fmt.Sprintf("rule %q violated", r.Name))
		}
	}

	return catalog.Verdict{OK: len(reasons) == 0, Reasons: reasons}
}

// #endregion gate

// #region check
// Check runs the built-in policy rules with no extra rules configured.
func Check(cand catalog.Candidate, pol incident.Policy, prices incident.Prices) catalog.Verdict {
	g := &Gate{}
	return g.Check(cand, pol, prices)
}

// #endregion check

// #region eval
func evalRule(cond string, vars map[string]any) (bool, error) {
	out, err := expr.Eval(cond, vars)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition must evaluate to bool (got %T)", out)
	}
	return b, nil
}

func ruleVars(cand catalog.Candidate, pol incident.Policy, prices incident.Prices) map[string]any {
	return map[string]any{
		"pred_latency_ms":           cand.PredLatencyMs,
		"pred_loss_pct":             cand.PredLossPct,
		"eta_minutes":               cand.EtaMinutes,
		"kind":                      cand.Kind,
		"risk_level":                cand.RiskLevel,
		"cost":                      cand.Cost,
		"cost_rate_eur":             cand.CostRateEUR,
		"latency_target_ms":         pol.LatencyTargetMs,
		"min_path_redundancy":       pol.MinPathRedundancy,
		"max_burst_cost_per_hr_eur": pol.MaxBurstCostPerHrEUR,
		"burst_price_per_1gbps_hr":  prices.BurstCapacityPer1GbpsHr,
	}
}

// #endregion eval
