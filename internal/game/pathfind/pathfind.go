// Package pathfind implements the cost-aware shortest-path search used by
// both human movement validation and virtual-player routing.
package pathfind

import (
	"container/heap"

	"github.com/gridfall/gridfall/internal/game/board"
)

// node is a frontier entry. seq preserves FIFO ordering among equal costs.
type node struct {
	pos  board.Position
	cost int
	seq  int
}

type frontier []*node

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(*node)) }
func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}

// FindPath returns the cheapest path from start to dest inclusive, or nil
// when dest is unreachable. Movement is 4-directional; step costs come from
// the destination tile (water 2, ice 0, base and open doors 1). Walls,
// closed doors, and tiles occupied by an avatar are impassable; the start
// tile's own occupant is ignored.
//
// Callers must pass the live board on every call: other players mutate the
// grid between deferred bot decision steps, so a cached path may be stale.
//
// Precondition: b must be non-nil.
// Postcondition: Returns [start] when start == dest; otherwise a slice whose
// first element is start and last is dest, or nil.
func FindPath(b *board.Board, start, dest board.Position) []board.Position {
	if !b.InBounds(start) || !b.InBounds(dest) {
		return nil
	}
	if start == dest {
		return []board.Position{start}
	}
	if destTile, _ := b.At(dest); destTile.Avatar != "" || !destTile.Traversable() {
		return nil
	}

	dist := map[board.Position]int{start: 0}
	prev := map[board.Position]board.Position{}
	seq := 0

	f := &frontier{{pos: start, cost: 0, seq: seq}}
	heap.Init(f)

	for f.Len() > 0 {
		cur := heap.Pop(f).(*node)
		if cur.cost > dist[cur.pos] {
			continue // stale entry superseded by a cheaper path
		}
		if cur.pos == dest {
			return reconstruct(prev, start, dest)
		}
		for _, next := range cur.pos.Neighbors4() {
			tile, ok := b.At(next)
			if !ok || !tile.Traversable() || tile.Avatar != "" {
				continue
			}
			nextCost := cur.cost + tile.StepCost()
			if best, seen := dist[next]; seen && nextCost >= best {
				continue
			}
			dist[next] = nextCost
			prev[next] = cur.pos
			seq++
			heap.Push(f, &node{pos: next, cost: nextCost, seq: seq})
		}
	}
	return nil
}

// PathCost returns the total terrain cost of traversing path (excluding the
// start tile), or 0 for paths shorter than two tiles.
func PathCost(b *board.Board, path []board.Position) int {
	total := 0
	for _, p := range path[min(1, len(path)):] {
		if tile, ok := b.At(p); ok {
			total += tile.StepCost()
		}
	}
	return total
}

func reconstruct(prev map[board.Position]board.Position, start, dest board.Position) []board.Position {
	var rev []board.Position
	for at := dest; at != start; at = prev[at] {
		rev = append(rev, at)
	}
	rev = append(rev, start)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
