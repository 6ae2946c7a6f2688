// Package audit writes the step-event trail to SQLite: every node entry,
// completion, failure, fallback, and gate decision, independent of the
// state snapshot so the trail survives state overwrites.
package audit

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// #region schema
const eventsSchema = `
CREATE TABLE IF NOT EXISTS step_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	incident_id  TEXT NOT NULL,
	step         TEXT NOT NULL,
	event        TEXT NOT NULL,
	detail       TEXT,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_step_events_incident
ON step_events(incident_id, id);
`

// #endregion schema

// #region log

// Log records step events in SQLite.
type Log struct {
	db *sql.DB
}

// NewLog initializes the step_events table and returns a Log.
func NewLog(db *sql.DB) (*Log, error) {
	if _, err := db.Exec(eventsSchema); err != nil {
		return nil, fmt.Errorf("migrate step_events: %w", err)
	}
	return &Log{db: db}, nil
}

// StepEvent appends one event row. Write failures are logged, never
// surfaced; the audit trail must not be able to fail a run.
func (l *Log) StepEvent(incidentID, step, event, detail string) {
	_, err := l.db.Exec(
		`INSERT INTO step_events (incident_id, step, event, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		incidentID, step, event, nullIfEmpty(detail),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Printf("[AUDIT] write failed incident=%s step=%s event=%s: %v", incidentID, step, event, err)
	}
}

// #endregion log

// #region query

// Event is one recorded step event.
type Event struct {
	Step      string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// Events returns an incident's event trail in write order.
func (l *Log) Events(incidentID string) ([]Event, error) {
	rows, err := l.db.Query(
		`SELECT step, event, COALESCE(detail, ''), created_at
		 FROM step_events WHERE incident_id = ? ORDER BY id ASC`,
		incidentID,
	)
	if err != nil {
		return nil, fmt.Errorf("load events %s: %w", incidentID, err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var created string
		if err := rows.Scan(&ev.Step, &ev.Event, &ev.Detail, &created); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// #endregion query

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
