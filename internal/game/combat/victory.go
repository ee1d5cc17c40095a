package combat

import (
	"sync"
	"time"
)

// VictoryLedger deduplicates victory signals: the first update for a
// (room, winner) pair within the debounce window is authoritative and
// later duplicates are dropped, absorbing duplicate network events.
// All methods are safe for concurrent use.
type VictoryLedger struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time // room+"\x00"+winner → recorded-at
	now    func() time.Time
}

// NewVictoryLedger creates a ledger with the given debounce window.
//
// Precondition: window must be > 0.
func NewVictoryLedger(window time.Duration) *VictoryLedger {
	return &VictoryLedger{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Record registers a victory for winner in room.
//
// Postcondition: Returns true for the first signal within the window and
// false for duplicates; a signal after the window expires counts as fresh.
func (l *VictoryLedger) Record(room, winner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := room + "\x00" + winner
	if at, ok := l.seen[key]; ok && now.Sub(at) < l.window {
		return false
	}
	l.seen[key] = now

	// Drop expired entries so the map does not grow with game length.
	for k, at := range l.seen {
		if now.Sub(at) >= l.window {
			delete(l.seen, k)
		}
	}
	return true
}

// Purge drops every entry for room. Part of room teardown.
func (l *VictoryLedger) Purge(room string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := room + "\x00"
	for k := range l.seen {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(l.seen, k)
		}
	}
}
