// Package ranking scores and orders remediation candidates for a diagnosed
// root cause. Scoring is a pure function of its inputs and the static
// catalog; the optional oracle re-ranking pass degrades silently back to the
// rule-based order.
package ranking

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/kestrelops/pathtriage/internal/catalog"
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #endregion

// #region weights

// Factor weights. Tunable constants, not load-bearing algorithmic choices;
// they sum to 1.0 so the pre-penalty score stays in [0, 1].
const (
	weightCause   = 0.40
	weightRisk    = 0.25
	weightSpeed   = 0.15
	weightCost    = 0.10
	weightSuccess = 0.10
)

// uncertaintyPenalty scales down HIGH/CRITICAL-risk candidates when the
// diagnosis confidence is below confidenceFloor.
const (
	uncertaintyPenalty = 0.7
	confidenceFloor    = 0.7
)

// maxRerank bounds how many top candidates are submitted to the oracle.
const maxRerank = 5

var riskScores = map[string]float64{
	catalog.RiskLow:      1.0,
	catalog.RiskMedium:   0.7,
	catalog.RiskHigh:     0.4,
	catalog.RiskCritical: 0.2,
}

var costScores = map[string]float64{
	catalog.CostFree:   1.0,
	catalog.CostLow:    0.9,
	catalog.CostMedium: 0.6,
	catalog.CostHigh:   0.3,
}

// #endregion

// #region types

// Option is one ranked candidate with its score breakdown.
type Option struct {
	Rank      int               `json:"rank"`
	Candidate catalog.Candidate `json:"candidate"`
	Score     float64           `json:"score"`
	RuleScore float64           `json:"rule_score"`
	// OracleScore and OracleReasoning are set only when the re-ranking pass
	// was applied.
	OracleScore     float64 `json:"oracle_score,omitempty"`
	OracleReasoning string  `json:"oracle_reasoning,omitempty"`
	Reasoning       string  `json:"reasoning"`
	SuccessRatePct  int     `json:"success_rate_pct"`
}

// Result is the ordered candidate list for one ranking pass.
type Result struct {
	RootCause       string   `json:"root_cause"`
	Confidence      float64  `json:"confidence"`
	Recommended     string   `json:"recommended,omitempty"` // id of rank 1
	Options         []Option `json:"options"`
	TotalCandidates int      `json:"total_candidates"`
	RankingMethod   string   `json:"ranking_method"` // "rule_based" | "hybrid"
	FallbackUsed    bool     `json:"fallback_used"`
}

// Reranker submits top candidates to the ranking oracle and returns a
// re-ordered subset. Implementations may fail or time out; the engine treats
// any error as "oracle unavailable" and keeps the rule-based order.
type Reranker interface {
	Rerank(ctx context.Context, options []Option, inc incident.Context, rootCause string, confidence float64) (RerankResult, error)
}

// RerankResult is the oracle's re-ordering of the submitted candidates.
type RerankResult struct {
	Rankings         []RerankEntry
	OverallReasoning string
}

// RerankEntry scores one candidate by id.
type RerankEntry struct {
	ID        string
	Score     float64
	Reasoning string
}

// SuccessRateFn overrides a candidate's catalog success-rate prior with an
// observed rate. The bool reports whether an observed rate was available.
type SuccessRateFn func(playbookID string, prior float64) (float64, bool)

// #endregion

// #region engine

// Engine ranks catalog playbooks for an incident.
type Engine struct {
	catalog     *catalog.Catalog
	reranker    Reranker
	successRate SuccessRateFn
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithReranker enables the oracle re-ranking pass.
func WithReranker(r Reranker) EngineOption {
	return func(e *Engine) { e.reranker = r }
}

// WithSuccessRates plugs in observed success rates (e.g. the history store).
func WithSuccessRates(fn SuccessRateFn) EngineOption {
	return func(e *Engine) { e.successRate = fn }
}

// NewEngine creates a ranking engine over the given catalog.
func NewEngine(cat *catalog.Catalog, opts ...EngineOption) *Engine {
	e := &Engine{catalog: cat}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// #endregion

// #region rank

// Rank scores the playbooks applicable to rootCause and returns the top
// topN, ordered by descending score. Ties preserve catalog declaration
// order. An empty candidate set yields an empty result, never an error.
func (e *Engine) Rank(ctx context.Context, rootCause string, confidence float64, inc incident.Context, topN int) Result {
	playbooks := e.catalog.ForCause(rootCause)

	options := make([]Option, 0, len(playbooks))
	for _, p := range playbooks {
		cand := catalog.Instantiate(p, inc)
		rate := p.TypicalSuccessRate
		if e.successRate != nil {
			rate, _ = e.successRate(p.ID, rate)
		}
		cand.SuccessRate = rate

		score, breakdown := scorePlaybook(p, rate, rootCause, confidence)
		options = append(options, Option{
			Candidate:      cand,
			Score:          score,
			RuleScore:      score,
			Reasoning:      breakdown,
			SuccessRatePct: int(rate * 100),
		})
	}

	// Stable sort so equal scores keep catalog order.
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Score > options[j].Score
	})

	result := Result{
		RootCause:       rootCause,
		Confidence:      confidence,
		TotalCandidates: len(playbooks),
		RankingMethod:   "rule_based",
	}

	if e.reranker != nil && len(options) > 1 {
		result = e.applyRerank(ctx, result, options, inc, rootCause, confidence)
	} else {
		result.Options = options
	}

	if topN > 0 && len(result.Options) > topN {
		result.Options = result.Options[:topN]
	}
	for i := range result.Options {
		result.Options[i].Rank = i + 1
	}
	if len(result.Options) > 0 {
		result.Recommended = result.Options[0].Candidate.ID
	}
	return result
}

// applyRerank submits the top candidates to the oracle and merges the
// returned order. Any oracle failure keeps the rule-based order and marks
// the result as fallback.
func (e *Engine) applyRerank(ctx context.Context, result Result, options []Option, inc incident.Context, rootCause string, confidence float64) Result {
	top := options
	if len(top) > maxRerank {
		top = top[:maxRerank]
	}

	reranked, err := e.reranker.Rerank(ctx, top, inc, rootCause, confidence)
	if err != nil {
		log.Printf("[RANK] oracle rerank unavailable, keeping rule-based order: %v", err)
		result.Options = options
		result.FallbackUsed = true
		return result
	}

	byID := make(map[string]Option, len(top))
	for _, o := range top {
		byID[o.Candidate.ID] = o
	}

	var merged []Option
	seen := make(map[string]bool)
	for _, entry := range reranked.Rankings {
		o, ok := byID[entry.ID]
		if !ok || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		o.OracleScore = entry.Score
		o.OracleReasoning = entry.Reasoning
		o.Score = entry.Score
		merged = append(merged, o)
	}
	if len(merged) == 0 {
		// Parsable response naming no known candidate is unusable.
		log.Printf("[RANK] oracle rerank named no known candidates, keeping rule-based order")
		result.Options = options
		result.FallbackUsed = true
		return result
	}
	// Candidates the oracle skipped keep their rule order after the merged set.
	for _, o := range options {
		if !seen[o.Candidate.ID] {
			merged = append(merged, o)
		}
	}
	result.Options = merged
	result.RankingMethod = "hybrid"
	return result
}

// #endregion

// #region score

// scorePlaybook computes the weighted score and a per-factor explanation.
func scorePlaybook(p catalog.Playbook, successRate float64, rootCause string, confidence float64) (float64, string) {
	cause := causeMatch(p, rootCause)
	risk := lookupScore(riskScores, p.RiskLevel)
	speed := speedScore(p)
	cost := lookupScore(costScores, p.Cost)

	score := cause*weightCause +
		risk*weightRisk +
		speed*weightSpeed +
		cost*weightCost +
		successRate*weightSuccess

	penalized := false
	if confidence < confidenceFloor && (p.RiskLevel == catalog.RiskHigh || p.RiskLevel == catalog.RiskCritical) {
		score *= uncertaintyPenalty
		penalized = true
	}

	return score, explain(p, rootCause, cause, speed, successRate, penalized)
}

// causeMatch returns 1.0 for a declared cause, 0.5 for the congestion/latency
// keyword overlap, 0 otherwise. The partial-credit rule is a narrow
// heuristic kept for compatibility with the historical scorer.
func causeMatch(p catalog.Playbook, rootCause string) float64 {
	if p.AddressesCause(rootCause) {
		return 1.0
	}
	joined := strings.ToLower(strings.Join(p.RootCauses, " "))
	if strings.Contains(strings.ToLower(rootCause), "congestion") && strings.Contains(joined, "latency") {
		return 0.5
	}
	return 0
}

func lookupScore(table map[string]float64, key string) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return 0.5
}

// speedScore buckets the time-to-effect; a candidate whose duration cannot
// be parsed scores neutral.
func speedScore(p catalog.Playbook) float64 {
	minutes := p.EtaMinutes
	if minutes <= 0 {
		var ok bool
		minutes, ok = parseMinutes(p.TimeToEffect)
		if !ok {
			return 0.5
		}
	}
	switch {
	case minutes <= 2:
		return 1.0
	case minutes <= 10:
		return 0.8
	case minutes <= 30:
		return 0.6
	case minutes <= 120:
		return 0.4
	default:
		return 0.2
	}
}

// parseMinutes extracts the first duration from strings like "2 minutes",
// "2-5 minutes" or "30 minutes - 4 hours". Ranges use their lower bound.
func parseMinutes(s string) (int, bool) {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '-'
	})
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		for _, unit := range fields[i+1:] {
			if strings.HasPrefix(unit, "minute") || unit == "min" {
				return n, true
			}
			if strings.HasPrefix(unit, "hour") || unit == "h" {
				return n * 60, true
			}
			if _, err := strconv.Atoi(unit); err == nil {
				continue // range upper bound, keep scanning for the unit
			}
		}
		return 0, false
	}
	return 0, false
}

// explain builds the human-readable per-factor reasoning string.
func explain(p catalog.Playbook, rootCause string, cause, speed, successRate float64, penalized bool) string {
	var reasons []string

	switch {
	case cause >= 1.0:
		reasons = append(reasons, fmt.Sprintf("directly addresses %s", rootCause))
	case cause > 0:
		reasons = append(reasons, fmt.Sprintf("partially related to %s", rootCause))
	default:
		reasons = append(reasons, fmt.Sprintf("not specific to %s", rootCause))
	}

	switch p.RiskLevel {
	case catalog.RiskLow:
		reasons = append(reasons, "low risk, safe to apply")
	case catalog.RiskMedium:
		reasons = append(reasons, "medium risk, review carefully")
	default:
		reasons = append(reasons, "high risk, requires approval")
	}

	if speed >= 0.8 {
		reasons = append(reasons, fmt.Sprintf("fast effect (%s)", p.TimeToEffect))
	} else if speed <= 0.4 {
		reasons = append(reasons, fmt.Sprintf("slow effect (%s)", p.TimeToEffect))
	}

	if p.Cost == catalog.CostFree {
		reasons = append(reasons, "no additional cost")
	} else if p.Cost == catalog.CostHigh {
		reasons = append(reasons, "high cost, budget approval needed")
	}

	if successRate >= 0.85 {
		reasons = append(reasons, fmt.Sprintf("high success rate (%d%%)", int(successRate*100)))
	} else if successRate < 0.75 {
		reasons = append(reasons, fmt.Sprintf("moderate success rate (%d%%)", int(successRate*100)))
	}

	if penalized {
		reasons = append(reasons, "score reduced: high risk under uncertain diagnosis")
	}

	return strings.Join(reasons, " | ")
}

// #endregion
