// Package jobstore persists job snapshots for the serving layer. The
// engine itself never touches a store; the serve command writes snapshots
// in and reads them back out for the API.
package jobstore

import (
	"sort"
	"sync"

	"github.com/sells-group/lead-engine/internal/model"
)

// Store holds job snapshots keyed by id.
type Store interface {
	// Put inserts or replaces a snapshot.
	Put(state *model.JobState) error
	// Get returns the snapshot for id.
	Get(id string) (*model.JobState, bool)
	// List returns all snapshots, newest first.
	List() []*model.JobState
	// PruneFinished removes terminal jobs beyond the newest maxKeep.
	PruneFinished(maxKeep int) error
	// Close releases store resources.
	Close() error
}

// Memory is the in-process Store used by default.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]model.JobState
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]model.JobState)}
}

func (m *Memory) Put(state *model.JobState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[state.ID] = *state
	return nil
}

func (m *Memory) Get(id string) (*model.JobState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return &state, true
}

func (m *Memory) List() []*model.JobState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.JobState, 0, len(m.jobs))
	for id := range m.jobs {
		state := m.jobs[id]
		out = append(out, &state)
	}
	sortNewestFirst(out)
	return out
}

func (m *Memory) PruneFinished(maxKeep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	finished := make([]*model.JobState, 0, len(m.jobs))
	for id := range m.jobs {
		state := m.jobs[id]
		if state.Status.Terminal() {
			finished = append(finished, &state)
		}
	}
	sortNewestFirst(finished)
	for i := maxKeep; i < len(finished); i++ {
		delete(m.jobs, finished[i].ID)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func sortNewestFirst(states []*model.JobState) {
	sort.Slice(states, func(i, j int) bool {
		if states[i].StartedAt.Equal(states[j].StartedAt) {
			return states[i].ID < states[j].ID
		}
		return states[i].StartedAt.After(states[j].StartedAt)
	})
}
