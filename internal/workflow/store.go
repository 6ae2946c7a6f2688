package workflow

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// #endregion

// ErrNotFound is returned when no state exists for the requested incident.
var ErrNotFound = errors.New("workflow state not found")

// Store persists workflow state snapshots keyed by incident id. Put
// overwrites any previous snapshot for the same id.
type Store interface {
	Get(incidentID string) (State, error)
	Put(incidentID string, st State) error
}

// #region memory store

// MemoryStore keeps snapshots in process memory. Snapshots round-trip
// through JSON so callers never share slices or maps with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Get(incidentID string) (State, error) {
	m.mu.RLock()
	raw, ok := m.items[incidentID]
	m.mu.RUnlock()
	if !ok {
		return State{}, ErrNotFound
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode state %s: %w", incidentID, err)
	}
	return st, nil
}

func (m *MemoryStore) Put(incidentID string, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", incidentID, err)
	}
	m.mu.Lock()
	m.items[incidentID] = raw
	m.mu.Unlock()
	return nil
}

// #endregion memory store
