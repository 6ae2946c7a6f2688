package history

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func record(t *testing.T, s *Store, playbook, status string) {
	t.Helper()
	err := s.Record(Outcome{
		IncidentID: "inc-1",
		PlaybookID: playbook,
		RootCause:  "congestion",
		Status:     status,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestSuccessRatePrefersPriorBelowMinSamples(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < minSamples-1; i++ {
		record(t, s, "qos_traffic_shaping", "success")
	}

	rate, observed := s.SuccessRate("qos_traffic_shaping", 0.85)
	if observed {
		t.Fatal("observed rate must need at least minSamples outcomes")
	}
	if rate != 0.85 {
		t.Fatalf("expected prior 0.85, got %v", rate)
	}
}

func TestSuccessRateCountsPartialAsHalf(t *testing.T) {
	s := tempStore(t)
	record(t, s, "config_rollback", "success")
	record(t, s, "config_rollback", "success")
	record(t, s, "config_rollback", "partial")
	record(t, s, "config_rollback", "failed")
	record(t, s, "config_rollback", "failed")

	rate, observed := s.SuccessRate("config_rollback", 0.92)
	if !observed {
		t.Fatal("expected observed rate at minSamples")
	}
	if rate != 0.5 {
		t.Fatalf("expected (1+1+0.5)/5 = 0.5, got %v", rate)
	}
}

func TestSuccessRateIsPerPlaybook(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < minSamples; i++ {
		record(t, s, "other_playbook", "failed")
	}

	rate, observed := s.SuccessRate("qos_traffic_shaping", 0.85)
	if observed || rate != 0.85 {
		t.Fatalf("other playbook outcomes must not count: rate=%v observed=%t", rate, observed)
	}
}

func TestRecordOutcomeMatchesEngineSignature(t *testing.T) {
	s := tempStore(t)
	if err := s.RecordOutcome("inc-9", "qos_traffic_shaping", "congestion", "success", "applied"); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	var count int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM playbook_outcomes WHERE incident_id = 'inc-9'`,
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}
