package room

import (
	"fmt"
	"sync"
)

// Registry owns every live room, keyed by access code.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create registers a new room with the given code.
//
// Precondition: code must be non-empty.
// Postcondition: Returns the new Room, or an error if the code is taken.
func (reg *Registry) Create(code string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.rooms[code]; exists {
		return nil, fmt.Errorf("room %q already exists", code)
	}
	r := New(code)
	reg.rooms[code] = r
	return r, nil
}

// Get returns the room with the given code.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// GetOrCreate returns the existing room or registers a new one.
func (reg *Registry) GetOrCreate(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[code]; ok {
		return r
	}
	r := New(code)
	reg.rooms[code] = r
	return r
}

// Remove deletes the room with the given code. Part of teardown; the other
// per-room stores are purged by the caller in the same control flow.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Codes returns the codes of all live rooms.
func (reg *Registry) Codes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]string, 0, len(reg.rooms))
	for code := range reg.rooms {
		out = append(out, code)
	}
	return out
}
