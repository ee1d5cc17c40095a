package board

import "sync"

// Store holds the current gameplay board for each room.
// All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{boards: make(map[string]*Board)}
}

// Board returns the live board for the given room code.
//
// Postcondition: Returns (board, true) if found, or (nil, false) otherwise.
func (s *Store) Board(room string) (*Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[room]
	return b, ok
}

// SetBoard replaces the board for the given room code wholesale.
//
// Precondition: room must be non-empty; b must be non-nil.
func (s *Store) SetBoard(room string, b *Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[room] = b
}

// Remove deletes the board for the given room code. Part of room teardown.
func (s *Store) Remove(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, room)
}
