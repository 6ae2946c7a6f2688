// Package signals derives the diagnostic signal bundle the diagnose step and
// the oracle prompt consume from raw incident metrics.
package signals

import (
	"github.com/kestrelops/pathtriage/internal/incident"
)

// #region summary

// Summary is the derived view of an incident's metrics.
type Summary struct {
	DeltaLatencyMs float64 `json:"delta_latency_ms"`
	LatencyPct     float64 `json:"latency_pct"` // percent change vs baseline
	DeltaLossPct   float64 `json:"delta_loss_pct"`
	LossMultiplier float64 `json:"loss_multiplier"` // current / baseline
	UtilPeak       float64 `json:"util_peak"`
	UtilAvg        float64 `json:"util_avg"`
	PeakSegment    string  `json:"peak_segment"`
	RecentChange   bool    `json:"recent_change"`
	CongestionBand string  `json:"congestion_band"` // "high" | "medium" | "moderate" | "low"
	SLAViolated    bool    `json:"sla_violated"`
}

// #endregion summary

// #region derive

// Derive computes the signal summary from an incident context.
func Derive(ctx incident.Context) Summary {
	s := Summary{
		DeltaLatencyMs: ctx.LatencyCurrent - ctx.LatencyBaseline,
		DeltaLossPct:   ctx.LossCurrent - ctx.LossBaseline,
		RecentChange:   len(ctx.RecentChanges) > 0,
		SLAViolated:    ctx.Policy.LatencyTargetMs > 0 && ctx.LatencyCurrent > ctx.Policy.LatencyTargetMs,
	}

	if ctx.LatencyBaseline > 0 {
		s.LatencyPct = s.DeltaLatencyMs / ctx.LatencyBaseline * 100
	}
	if ctx.LossBaseline > 0 {
		s.LossMultiplier = ctx.LossCurrent / ctx.LossBaseline
	}

	var sum float64
	for seg, util := range ctx.Utilization {
		sum += util
		if util > s.UtilPeak {
			s.UtilPeak = util
			s.PeakSegment = seg
		}
	}
	if len(ctx.Utilization) > 0 {
		s.UtilAvg = sum / float64(len(ctx.Utilization))
	}

	s.CongestionBand = congestionBand(s.UtilPeak)
	return s
}

// congestionBand buckets peak utilization: above 85% congestion is likely,
// below 50% it is essentially ruled out.
func congestionBand(utilPeak float64) string {
	switch {
	case utilPeak > 85:
		return "high"
	case utilPeak > 70:
		return "medium"
	case utilPeak > 50:
		return "moderate"
	default:
		return "low"
	}
}

// #endregion derive
