package item

import (
	"sync"

	"github.com/gridfall/gridfall/internal/game/character"
)

// appliedEffect records the exact deltas one Apply call made, so Revert can
// undo them even when the gate outcome depended on stats that have since
// changed.
type appliedEffect struct {
	item                           ID
	health, speed, attack, defense int
}

// Effects tracks active item effects per holder and guarantees that apply
// and revert pair exactly once. Nothing in the game loop is trusted to pair
// the calls correctly, so double-apply and revert-without-apply are rejected
// instead of silently drifting stats.
//
// All methods are safe for concurrent use.
type Effects struct {
	mu     sync.Mutex
	active map[string][]appliedEffect // holder → stack of live effects
}

// NewEffects creates an empty effect tracker.
func NewEffects() *Effects {
	return &Effects{active: make(map[string][]appliedEffect)}
}

// Apply applies the catalog deltas of id to stats on behalf of holder.
// Gated items whose gate fails still register (with zero deltas) so the
// matching Revert succeeds and restores nothing.
//
// Precondition: stats must be non-nil.
// Postcondition: Returns false (and mutates nothing) when id is unknown or
// holder already has an unreverted effect for id.
func (e *Effects) Apply(id ID, holder string, stats *character.Stats) bool {
	def, ok := Lookup(id)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, fx := range e.active[holder] {
		if fx.item == id {
			return false
		}
	}

	fx := appliedEffect{item: id}
	if def.Gate == nil || def.Gate(stats.Health, stats.Speed) {
		fx.health = def.Health
		fx.speed = def.Speed
		fx.attack = def.Attack
		fx.defense = def.Defense
	}
	stats.Health += fx.health
	stats.Speed += fx.speed
	stats.Attack += fx.attack
	stats.Defense += fx.defense

	e.active[holder] = append(e.active[holder], fx)
	return true
}

// Revert undoes the deltas recorded by the matching Apply call.
//
// Precondition: stats must be non-nil.
// Postcondition: Returns false when holder has no active effect for id;
// otherwise stats return to their exact pre-apply values for this item.
func (e *Effects) Revert(id ID, holder string, stats *character.Stats) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	effects := e.active[holder]
	for i, fx := range effects {
		if fx.item != id {
			continue
		}
		stats.Health -= fx.health
		stats.Speed -= fx.speed
		stats.Attack -= fx.attack
		stats.Defense -= fx.defense
		e.active[holder] = append(effects[:i], effects[i+1:]...)
		if len(e.active[holder]) == 0 {
			delete(e.active, holder)
		}
		return true
	}
	return false
}

// ActiveCount returns the number of unreverted effects for holder.
func (e *Effects) ActiveCount(holder string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active[holder])
}

// Clear drops every active effect for holder without touching stats. Used
// on room teardown, where the stats are discarded anyway.
func (e *Effects) Clear(holder string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, holder)
}
