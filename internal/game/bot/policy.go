// Package bot implements the virtual-player decision engine: per-profile
// destination policies and the step machine that executes one intent per
// activation.
package bot

import (
	"github.com/gridfall/gridfall/internal/game/board"
	"github.com/gridfall/gridfall/internal/game/item"
	"github.com/gridfall/gridfall/internal/game/pathfind"
	"github.com/gridfall/gridfall/internal/game/player"
)

// aggressiveDest picks the aggressive profile's destination: the nearer of
// the nearest opponent (approached via its closest reachable adjacent tile)
// and the nearest offensive pickup. Ties favor the opponent. A flag carrier
// beelines to its own spawn.
//
// Postcondition: Returns (pos, false) with the bot's own position when there
// is nothing to pursue.
func aggressiveDest(b *board.Board, self *player.Player, selfPos board.Position, others []*player.Player) (board.Position, bool) {
	if self.HasFlag() {
		return self.Character.Spawn, true
	}

	enemyPos, _, haveEnemy := nearestOpponent(b, selfPos, self.Username, others)
	itemPos, itemDist, haveItem := nearestItem(b, selfPos, item.Flag, item.SpaceSword, item.Boots)

	// The opponent is measured by its approach tile, not its own tile: the
	// bot never stands on the opponent, only next to it.
	if haveEnemy {
		if approach, ok := closestAdjacent(b, selfPos, enemyPos); ok {
			if !haveItem || selfPos.ManhattanTo(approach) <= itemDist {
				return approach, true
			}
		}
	}
	if haveItem {
		return itemPos, true
	}
	return selfPos, false
}

// defensiveDest picks the defensive profile's destination: the nearest
// survival pickup, or a retreat position diametrically opposite the nearest
// opponent when none is on the board. A flag carrier beelines to its own
// spawn.
func defensiveDest(b *board.Board, self *player.Player, selfPos board.Position, others []*player.Player) (board.Position, bool) {
	if self.HasFlag() {
		return self.Character.Spawn, true
	}

	if itemPos, _, ok := nearestItem(b, selfPos, item.Flag, item.Shield, item.MasterKey); ok {
		return itemPos, true
	}

	enemyPos, _, ok := nearestOpponent(b, selfPos, self.Username, others)
	if !ok {
		return selfPos, false
	}
	return retreatFrom(b, selfPos, enemyPos)
}

// nearestOpponent returns the board position of the closest other avatar by
// Manhattan distance. First found wins ties.
func nearestOpponent(b *board.Board, from board.Position, self string, others []*player.Player) (board.Position, int, bool) {
	best := board.Position{}
	bestDist := -1
	for _, p := range others {
		if p.Username == self {
			continue
		}
		pos, ok := b.FindAvatar(p.Username)
		if !ok {
			continue
		}
		d := from.ManhattanTo(pos)
		if bestDist == -1 || d < bestDist {
			best, bestDist = pos, d
		}
	}
	return best, bestDist, bestDist != -1
}

// nearestItem returns the position of the closest tile holding one of the
// given items. Row-major scan order breaks ties.
func nearestItem(b *board.Board, from board.Position, ids ...item.ID) (board.Position, int, bool) {
	filter := make([]string, len(ids))
	for i, id := range ids {
		filter[i] = string(id)
	}
	best := board.Position{}
	bestDist := -1
	for _, pos := range b.ItemPositions(filter...) {
		d := from.ManhattanTo(pos)
		if bestDist == -1 || d < bestDist {
			best, bestDist = pos, d
		}
	}
	return best, bestDist, bestDist != -1
}

// closestAdjacent returns the reachable adjacent tile of target with the
// cheapest path from from. Fixed neighbor order breaks ties.
func closestAdjacent(b *board.Board, from, target board.Position) (board.Position, bool) {
	best := board.Position{}
	bestCost := -1
	for _, n := range target.Neighbors4() {
		if n == from {
			return from, true
		}
		path := pathfind.FindPath(b, from, n)
		if path == nil {
			continue
		}
		cost := pathfind.PathCost(b, path)
		if bestCost == -1 || cost < bestCost {
			best, bestCost = n, cost
		}
	}
	return best, bestCost != -1
}

// retreatFrom reflects threat through self, clamps to the board, and slides
// to the first routable tile: the reflection itself, then its neighbors in
// fixed order.
func retreatFrom(b *board.Board, self, threat board.Position) (board.Position, bool) {
	reflected := board.Position{
		Row: clamp(2*self.Row-threat.Row, 0, b.Size-1),
		Col: clamp(2*self.Col-threat.Col, 0, b.Size-1),
	}
	neigh := reflected.Neighbors4()
	candidates := append([]board.Position{reflected}, neigh[:]...)
	for _, c := range candidates {
		if c == self {
			continue
		}
		if !b.InBounds(c) {
			continue
		}
		if pathfind.FindPath(b, self, c) != nil {
			return c, true
		}
	}
	return self, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
