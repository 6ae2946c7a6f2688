// Package history records remediation execution outcomes and serves
// observed per-playbook success rates back to the ranking engine.
package history

// #region imports
import (
	"database/sql"
	"time"
)

// #endregion

// #region schema

const outcomesSchema = `
CREATE TABLE IF NOT EXISTS playbook_outcomes (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    incident_id  TEXT NOT NULL,
    playbook_id  TEXT NOT NULL,
    root_cause   TEXT NOT NULL,
    status       TEXT NOT NULL,
    message      TEXT,
    created_at   TEXT NOT NULL
);
`

const outcomesIndex = `
CREATE INDEX IF NOT EXISTS idx_playbook_outcomes_lookup
ON playbook_outcomes(playbook_id);
`

// #endregion

// #region types

// Outcome is one executed remediation's result.
type Outcome struct {
	IncidentID string
	PlaybookID string
	RootCause  string
	Status     string // "success" | "partial" | "failed"
	Message    string
	CreatedAt  time.Time
}

// #endregion

// #region store

// Store persists playbook outcomes in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the playbook_outcomes table and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(outcomesSchema); err != nil {
		return nil, err
	}
	if _, err := db.Exec(outcomesIndex); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// #endregion

// #region record

// Record persists a single outcome row.
func (s *Store) Record(o Outcome) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO playbook_outcomes
		(incident_id, playbook_id, root_cause, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.IncidentID,
		o.PlaybookID,
		o.RootCause,
		o.Status,
		o.Message,
		o.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// RecordOutcome persists an outcome from its parts. It satisfies the
// workflow engine's outcome recorder.
func (s *Store) RecordOutcome(incidentID, playbookID, rootCause, status, message string) error {
	return s.Record(Outcome{
		IncidentID: incidentID,
		PlaybookID: playbookID,
		RootCause:  rootCause,
		Status:     status,
		Message:    message,
	})
}

// #endregion

// #region success-rate

// minSamples is the observation count below which the catalog prior is
// preferred over the observed rate.
const minSamples = 5

// SuccessRate returns the observed success rate for a playbook, counting
// partial results as half a success. Returns (prior, false) when fewer than
// minSamples outcomes exist.
func (s *Store) SuccessRate(playbookID string, prior float64) (float64, bool) {
	rows, err := s.db.Query(`
		SELECT status FROM playbook_outcomes WHERE playbook_id = ?`,
		playbookID,
	)
	if err != nil {
		return prior, false
	}
	defer rows.Close()

	var total int
	var score float64
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return prior, false
		}
		total++
		switch status {
		case "success":
			score += 1.0
		case "partial":
			score += 0.5
		}
	}
	if rows.Err() != nil || total < minSamples {
		return prior, false
	}
	return score / float64(total), true
}

// #endregion
