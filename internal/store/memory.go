package store

import "sync"

// Memory is an in-process Port, used when no database is configured and as
// the test fake.
type Memory struct {
	mu    sync.Mutex
	state State
	ok    bool

	// SaveErr, when set, makes every Save fail. Persistence failures must
	// degrade to logging only, which tests assert through this hook.
	SaveErr error
	// Saves counts successful Save calls.
	Saves int
}

// NewMemory returns an empty in-memory port.
func NewMemory() *Memory {
	return &Memory{}
}

// Seed pre-populates the port as if state had been persisted earlier.
func (m *Memory) Seed(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.ok = true
}

// Load implements Port.
func (m *Memory) Load() (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.ok, nil
}

// Save implements Port.
func (m *Memory) Save(state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = state
	m.ok = true
	m.Saves++
	return nil
}
