// Package checkpoint persists workflow state snapshots in SQLite so an
// interrupted run resumes exactly where it left off. Every write also
// appends an immutable snapshot row, keeping the full checkpoint lineage
// for inspection.
package checkpoint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kestrelops/pathtriage/internal/workflow"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS workflow_states (
	incident_id   TEXT PRIMARY KEY,
	snapshot_id   TEXT NOT NULL,
	current_step  TEXT NOT NULL,
	status        TEXT NOT NULL,
	state_json    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS state_snapshots (
	snapshot_id   TEXT PRIMARY KEY,
	incident_id   TEXT NOT NULL,
	current_step  TEXT NOT NULL,
	status        TEXT NOT NULL,
	state_json    TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_state_snapshots_incident
ON state_snapshots(incident_id, created_at);
`

// #endregion schema

// #region store-struct
// Store is the SQLite-backed checkpoint store.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. audit
// and history, which share the same database file).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region get
// Get loads the latest state snapshot for an incident.
func (s *Store) Get(incidentID string) (workflow.State, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT state_json FROM workflow_states WHERE incident_id = ?`,
		incidentID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return workflow.State{}, workflow.ErrNotFound
	}
	if err != nil {
		return workflow.State{}, fmt.Errorf("load state %s: %w", incidentID, err)
	}

	var st workflow.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return workflow.State{}, fmt.Errorf("decode state %s: %w", incidentID, err)
	}
	return st, nil
}

// #endregion get

// #region put
// Put stores a state snapshot, replacing the previous one for the incident
// and appending an immutable snapshot row for the lineage.
func (s *Store) Put(incidentID string, st workflow.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", incidentID, err)
	}
	snapID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO workflow_states (incident_id, snapshot_id, current_step, status, state_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(incident_id) DO UPDATE SET
		   snapshot_id = excluded.snapshot_id,
		   current_step = excluded.current_step,
		   status = excluded.status,
		   state_json = excluded.state_json,
		   updated_at = excluded.updated_at`,
		incidentID, snapID, st.CurrentStep, string(st.Status), string(raw), now,
	)
	if err != nil {
		return fmt.Errorf("upsert state %s: %w", incidentID, err)
	}

	_, err = tx.Exec(
		`INSERT INTO state_snapshots (snapshot_id, incident_id, current_step, status, state_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snapID, incidentID, st.CurrentStep, string(st.Status), string(raw), now,
	)
	if err != nil {
		return fmt.Errorf("append snapshot %s: %w", incidentID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state %s: %w", incidentID, err)
	}
	return nil
}

// #endregion put

// #region list

// Summary is one incident's headline row for listings.
type Summary struct {
	IncidentID  string
	CurrentStep string
	Status      string
	UpdatedAt   time.Time
}

// List returns all stored incidents, most recently updated first.
func (s *Store) List() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT incident_id, current_step, status, updated_at
		 FROM workflow_states ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updated string
		if err := rows.Scan(&sum.IncidentID, &sum.CurrentStep, &sum.Status, &updated); err != nil {
			return nil, fmt.Errorf("scan state row: %w", err)
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Snapshot is one checkpoint in an incident's lineage.
type Snapshot struct {
	SnapshotID  string
	CurrentStep string
	Status      string
	CreatedAt   time.Time
}

// Snapshots returns the checkpoint lineage for an incident, oldest first.
func (s *Store) Snapshots(incidentID string) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT snapshot_id, current_step, status, created_at
		 FROM state_snapshots WHERE incident_id = ? ORDER BY created_at ASC`,
		incidentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots %s: %w", incidentID, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.SnapshotID, &snap.CurrentStep, &snap.Status, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// #endregion list
