package workflow

import (
	"errors"
	"testing"

	"github.com/kestrelops/pathtriage/internal/incident"
)

func TestMemoryStoreNotFound(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreSnapshotsAreIsolated(t *testing.T) {
	m := NewMemoryStore()
	st := *NewState("inc-1", incident.Context{HotPath: "a-b"})
	st.History = append(st.History, HistoryEntry{Step: StepDiagnose})

	if err := m.Put("inc-1", st); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutating the caller's copy after Put must not leak into the store.
	st.History[0].Step = "tampered"
	st.Status = StatusFailed

	got, err := m.Get("inc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.History[0].Step != StepDiagnose {
		t.Fatalf("stored snapshot aliased caller memory: %s", got.History[0].Step)
	}
	if got.Status != StatusRunning {
		t.Fatalf("expected running, got %s", got.Status)
	}

	// Mutating a returned snapshot must not change the stored one.
	got.CurrentStep = "tampered"
	again, err := m.Get("inc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.CurrentStep != StepDiagnose {
		t.Fatalf("returned snapshot aliased store memory: %s", again.CurrentStep)
	}
}
