package signals

import (
	"testing"

	"github.com/kestrelops/pathtriage/internal/incident"
)

func TestDeriveComputesDeltas(t *testing.T) {
	ctx := incident.Context{
		LatencyCurrent:  150,
		LatencyBaseline: 50,
		LossCurrent:     2.0,
		LossBaseline:    0.5,
		Utilization: map[string]float64{
			"a-b": 90,
			"a-c": 50,
		},
		RecentChanges: []incident.ChangeEvent{{Type: "config", Scope: "a-b"}},
		Policy:        incident.Policy{LatencyTargetMs: 100},
	}

	s := Derive(ctx)
	if s.DeltaLatencyMs != 100 {
		t.Fatalf("delta latency = %v", s.DeltaLatencyMs)
	}
	if s.LatencyPct != 200 {
		t.Fatalf("latency pct = %v", s.LatencyPct)
	}
	if s.DeltaLossPct != 1.5 {
		t.Fatalf("delta loss = %v", s.DeltaLossPct)
	}
	if s.LossMultiplier != 4 {
		t.Fatalf("loss multiplier = %v", s.LossMultiplier)
	}
	if s.UtilPeak != 90 || s.PeakSegment != "a-b" {
		t.Fatalf("peak = %v on %s", s.UtilPeak, s.PeakSegment)
	}
	if s.UtilAvg != 70 {
		t.Fatalf("avg = %v", s.UtilAvg)
	}
	if !s.RecentChange {
		t.Fatal("expected recent change flag")
	}
	if !s.SLAViolated {
		t.Fatal("expected SLA violation")
	}
}

func TestDeriveHandlesZeroBaselines(t *testing.T) {
	s := Derive(incident.Context{LatencyCurrent: 100})
	if s.LatencyPct != 0 || s.LossMultiplier != 0 {
		t.Fatalf("zero baselines must not divide: pct=%v mult=%v", s.LatencyPct, s.LossMultiplier)
	}
	if s.SLAViolated {
		t.Fatal("no latency target means no SLA violation")
	}
}

func TestCongestionBands(t *testing.T) {
	cases := []struct {
		peak float64
		want string
	}{
		{95, "high"},
		{86, "high"},
		{80, "medium"},
		{60, "moderate"},
		{40, "low"},
		{0, "low"},
	}
	for _, tc := range cases {
		got := Derive(incident.Context{Utilization: map[string]float64{"seg": tc.peak}}).CongestionBand
		if got != tc.want {
			t.Errorf("band(%v) = %s, want %s", tc.peak, got, tc.want)
		}
	}
}
