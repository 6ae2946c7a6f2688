package audit

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func tempLog(t *testing.T) *Log {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := NewLog(db)
	if err != nil {
		t.Fatalf("new log: %v", err)
	}
	return l
}

func TestEventsPreserveWriteOrder(t *testing.T) {
	l := tempLog(t)
	l.StepEvent("inc-1", "diagnose", "enter", "")
	l.StepEvent("inc-1", "diagnose", "complete", "")
	l.StepEvent("inc-1", "review_diagnosis", "paused", "awaiting approval")
	l.StepEvent("inc-2", "diagnose", "enter", "")

	events, err := l.Events("inc-1")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events for inc-1, got %d", len(events))
	}
	if events[0].Event != "enter" || events[1].Event != "complete" || events[2].Event != "paused" {
		t.Fatalf("events out of order: %+v", events)
	}
	if events[2].Detail != "awaiting approval" {
		t.Fatalf("detail lost: %q", events[2].Detail)
	}
	if events[0].Detail != "" {
		t.Fatalf("empty detail must round-trip empty, got %q", events[0].Detail)
	}
}

func TestEventsForUnknownIncidentAreEmpty(t *testing.T) {
	l := tempLog(t)
	events, err := l.Events("ghost")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}
