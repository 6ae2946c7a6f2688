// Package incident defines the immutable input data model for one
// degraded-path triage run: metrics, change events, and the operational
// policy the remediation must satisfy.
package incident

// #region change-event
// ChangeEvent is a configuration or deployment change observed near the
// incident window.
type ChangeEvent struct {
	TS    string `json:"ts" yaml:"ts"` // ISO 8601
	Type  string `json:"type" yaml:"type"`
	Scope string `json:"scope" yaml:"scope"`
}

// #endregion change-event

// #region policy
// Policy holds the operational limits a remediation candidate is checked
// against.
type Policy struct {
	LatencyTargetMs      float64 `json:"latency_target_ms" yaml:"latency_target_ms"`
	MinPathRedundancy    int     `json:"min_path_redundancy" yaml:"min_path_redundancy"`
	MaxBurstCostPerHrEUR float64 `json:"max_burst_cost_per_hr_eur" yaml:"max_burst_cost_per_hr_eur"`
}

// Prices holds unit prices used for cost predictions.
type Prices struct {
	BurstCapacityPer1GbpsHr float64 `json:"burst_capacity_per_1gbps_hr" yaml:"burst_capacity_per_1gbps_hr"`
}

// #endregion policy

// #region priority
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// #endregion priority

// #region context
// Context is the immutable-per-step input for one workflow instance.
// It is supplied at workflow creation and never mutated by steps.
type Context struct {
	HotPath         string             `json:"hot_path" yaml:"hot_path"` // e.g. "routerA-routerB"
	LatencyCurrent  float64            `json:"latency_current" yaml:"latency_current"`
	LatencyBaseline float64            `json:"latency_baseline" yaml:"latency_baseline"`
	LossCurrent     float64            `json:"loss_current" yaml:"loss_current"`
	LossBaseline    float64            `json:"loss_baseline" yaml:"loss_baseline"`
	Utilization     map[string]float64 `json:"utilization" yaml:"utilization"` // per segment, percent
	RecentChanges   []ChangeEvent      `json:"recent_changes" yaml:"recent_changes"`
	Priority        string             `json:"priority" yaml:"priority"`
	CreatedBy       string             `json:"created_by,omitempty" yaml:"created_by,omitempty"`

	Policy Policy `json:"policy" yaml:"policy"`
	Prices Prices `json:"prices" yaml:"prices"`
}

// EffectivePriority escalates the declared priority when current metrics
// cross hard thresholds.
func (c Context) EffectivePriority() string {
	if c.LatencyCurrent > 500 || c.LossCurrent > 10 {
		return PriorityCritical
	}
	if c.LatencyCurrent > 200 || c.LossCurrent > 5 {
		return PriorityHigh
	}
	if c.Priority == "" {
		return PriorityMedium
	}
	return c.Priority
}

// #endregion context
