package checkpoint

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/workflow"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "triage.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState(id, step string, status workflow.Status) workflow.State {
	st := workflow.NewState(id, incident.Context{
		HotPath:         "frankfurt-amsterdam",
		LatencyCurrent:  187,
		LatencyBaseline: 42,
	})
	st.CurrentStep = step
	st.Status = status
	return *st
}

func TestGetMissingIncident(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := tempStore(t)
	want := sampleState("inc-1", workflow.StepReviewDiagnosis, workflow.StatusPaused)

	if err := s.Put("inc-1", want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get("inc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("state round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPutOverwritesLatestAndKeepsLineage(t *testing.T) {
	s := tempStore(t)

	first := sampleState("inc-1", workflow.StepDiagnose, workflow.StatusRunning)
	second := sampleState("inc-1", workflow.StepReviewDiagnosis, workflow.StatusPaused)
	if err := s.Put("inc-1", first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.Put("inc-1", second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	got, err := s.Get("inc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentStep != workflow.StepReviewDiagnosis {
		t.Fatalf("expected latest snapshot, got step %s", got.CurrentStep)
	}

	snaps, err := s.Snapshots("inc-1")
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 lineage rows, got %d", len(snaps))
	}
	if snaps[0].CurrentStep != workflow.StepDiagnose || snaps[1].CurrentStep != workflow.StepReviewDiagnosis {
		t.Fatalf("lineage out of order: %s, %s", snaps[0].CurrentStep, snaps[1].CurrentStep)
	}
}

func TestListReportsAllIncidents(t *testing.T) {
	s := tempStore(t)
	if err := s.Put("inc-1", sampleState("inc-1", workflow.StepDiagnose, workflow.StatusRunning)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put("inc-2", sampleState("inc-2", workflow.StepEnd, workflow.StatusCompleted)); err != nil {
		t.Fatalf("put: %v", err)
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 incidents, got %d", len(items))
	}
	seen := map[string]string{}
	for _, it := range items {
		seen[it.IncidentID] = it.Status
	}
	if seen["inc-1"] != string(workflow.StatusRunning) || seen["inc-2"] != string(workflow.StatusCompleted) {
		t.Fatalf("unexpected listing: %v", seen)
	}
}

func TestStoreSatisfiesWorkflowStore(t *testing.T) {
	var _ workflow.Store = tempStore(t)
}
