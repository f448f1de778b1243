package agent

// Store exposes agent catalog retrieval for HTTP handlers.
type Store interface {
	List() []Agent
	FindByName(name string) (Agent, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Agent
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied agents.
func NewMemoryStore(items []Agent) *MemoryStore {
	return &MemoryStore{items: append([]Agent(nil), items...)}
}

// List returns the catalog.
func (s *MemoryStore) List() []Agent {
	return append([]Agent(nil), s.items...)
}

// FindByName looks up an agent by name.
func (s *MemoryStore) FindByName(name string) (Agent, bool) {
	for _, item := range s.items {
		if item.Name == name {
			return item, true
		}
	}
	return Agent{}, false
}
