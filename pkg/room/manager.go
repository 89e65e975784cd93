package room

import (
	"sort"
	"sync"

	"github.com/coinche/core/pkg/apperr"
)

// Manager is the registry of all rooms, grounded on pkg/server/server.go's
// Server.tables map plus sync.RWMutex.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*Room)}
}

// Create registers a new Room under cfg.ID, which must be unique.
func (m *Manager) Create(cfg Config) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[cfg.ID]; exists {
		return nil, apperr.Newf(apperr.InvalidPayload, "room %s already exists", cfg.ID)
	}
	r := New(cfg)
	m.rooms[cfg.ID] = r
	return r, nil
}

// Get looks up a room by id.
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "room %s not found", id)
	}
	return r, nil
}

// Remove deletes a room from the registry, e.g. once it completes.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// ListFilter narrows List's results; zero values mean "no filter" except
// StatusSet/VisibilitySet which opt a field in.
type ListFilter struct {
	Visibility    Visibility
	VisibilitySet bool
	Status        Status
	StatusSet     bool
	Offset        int
	Limit         int // 0 means unlimited
}

// List returns rooms matching filter, sorted by id for stable pagination.
func (m *Manager) List(filter ListFilter) []*Room {
	m.mu.RLock()
	matched := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if filter.VisibilitySet && r.Visibility() != filter.Visibility {
			continue
		}
		if filter.StatusSet && r.Status() != filter.Status {
			continue
		}
		matched = append(matched, r)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })

	if filter.Offset >= len(matched) {
		return nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched
}
