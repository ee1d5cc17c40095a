// Package board defines the tile-grid model shared by the pathfinding,
// combat, scheduler, and virtual-player components.
package board

import "fmt"

// Terrain identifies the field type of a tile.
type Terrain string

const (
	TerrainBase       Terrain = "base"
	TerrainWater      Terrain = "water"
	TerrainIce        Terrain = "ice"
	TerrainWall       Terrain = "wall"
	TerrainDoorOpen   Terrain = "door-open"
	TerrainDoorClosed Terrain = "door-closed"
)

// allowedSizes is the set of legal square board dimensions.
var allowedSizes = map[int]bool{10: true, 15: true, 20: true}

// ItemRandomMarker is the placeholder item value replaced by a randomly
// drawn catalog item at game start.
const ItemRandomMarker = "random-item"

// Position is a row/column coordinate on the board.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ManhattanTo returns the Manhattan distance between p and q.
//
// Postcondition: Returns >= 0.
func (p Position) ManhattanTo(q Position) int {
	return abs(p.Row-q.Row) + abs(p.Col-q.Col)
}

// Adjacent reports whether q is at strict Manhattan distance 1 from p.
func (p Position) Adjacent(q Position) bool {
	return p.ManhattanTo(q) == 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Neighbors4 returns the four orthogonal neighbors of p in fixed scan
// order: up, down, left, right. Out-of-bounds positions are included;
// callers filter against the board.
func (p Position) Neighbors4() [4]Position {
	return [4]Position{
		{Row: p.Row - 1, Col: p.Col},
		{Row: p.Row + 1, Col: p.Col},
		{Row: p.Row, Col: p.Col - 1},
		{Row: p.Row, Col: p.Col + 1},
	}
}

// Tile is one cell of the board. Avatar and Item are empty strings when the
// tile is unoccupied. The door/wall nature of a tile is derived from Terrain
// alone; there are no mirrored booleans to drift out of sync.
type Tile struct {
	Terrain Terrain  `json:"terrain"`
	Avatar  string   `json:"avatar,omitempty"`
	Item    string   `json:"item,omitempty"`
	Pos     Position `json:"position"`
}

// IsDoor reports whether the tile is a door in either state.
func (t *Tile) IsDoor() bool {
	return t.Terrain == TerrainDoorOpen || t.Terrain == TerrainDoorClosed
}

// IsWall reports whether the tile is a wall.
func (t *Tile) IsWall() bool { return t.Terrain == TerrainWall }

// Traversable reports whether the terrain alone permits movement onto the
// tile. Occupancy is a separate check.
func (t *Tile) Traversable() bool {
	switch t.Terrain {
	case TerrainWall, TerrainDoorClosed:
		return false
	default:
		return true
	}
}

// StepCost returns the movement cost of entering the tile.
//
// Precondition: t.Traversable() must be true.
// Postcondition: water costs 2, ice costs 0, everything else costs 1.
func (t *Tile) StepCost() int {
	switch t.Terrain {
	case TerrainWater:
		return 2
	case TerrainIce:
		return 0
	default:
		return 1
	}
}

// Board is a square grid of tiles mutated in place over the course of a game.
// Board itself is not synchronized; the owning room serializes access.
type Board struct {
	Size  int      `json:"size"`
	Tiles [][]Tile `json:"tiles"`
}

// New creates an empty board of the given size with all-base terrain.
//
// Precondition: size must be 10, 15, or 20.
func New(size int) (*Board, error) {
	if !allowedSizes[size] {
		return nil, fmt.Errorf("board: size must be 10, 15, or 20, got %d", size)
	}
	tiles := make([][]Tile, size)
	for r := range tiles {
		tiles[r] = make([]Tile, size)
		for c := range tiles[r] {
			tiles[r][c] = Tile{Terrain: TerrainBase, Pos: Position{Row: r, Col: c}}
		}
	}
	return &Board{Size: size, Tiles: tiles}, nil
}

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.Size && p.Col >= 0 && p.Col < b.Size
}

// At returns the tile at p.
//
// Postcondition: Returns (tile, true) when p is in bounds, (nil, false) otherwise.
func (b *Board) At(p Position) (*Tile, bool) {
	if !b.InBounds(p) {
		return nil, false
	}
	return &b.Tiles[p.Row][p.Col], true
}

// MoveAvatar relocates the avatar on from to the tile at to, clearing the
// source tile. This is the only write path for avatar occupancy, which keeps
// the one-tile-per-avatar invariant.
//
// Postcondition: Returns false (and mutates nothing) when either position is
// out of bounds, from holds no avatar, to is occupied, or to is not traversable.
func (b *Board) MoveAvatar(from, to Position) bool {
	src, ok := b.At(from)
	if !ok || src.Avatar == "" {
		return false
	}
	dst, ok := b.At(to)
	if !ok || dst.Avatar != "" || !dst.Traversable() {
		return false
	}
	dst.Avatar = src.Avatar
	src.Avatar = ""
	return true
}

// PlaceAvatar puts an avatar on an unoccupied traversable tile. Used at game
// start for spawn placement.
//
// Postcondition: Returns false when the tile is missing, occupied, or not traversable.
func (b *Board) PlaceAvatar(avatar string, p Position) bool {
	t, ok := b.At(p)
	if !ok || t.Avatar != "" || !t.Traversable() {
		return false
	}
	t.Avatar = avatar
	return true
}

// FindAvatar returns the position of the tile holding avatar.
//
// Postcondition: Returns (pos, true) if found, or (Position{}, false) otherwise.
func (b *Board) FindAvatar(avatar string) (Position, bool) {
	for r := range b.Tiles {
		for c := range b.Tiles[r] {
			if b.Tiles[r][c].Avatar == avatar {
				return Position{Row: r, Col: c}, true
			}
		}
	}
	return Position{}, false
}

// RemoveAvatar clears avatar from whichever tile holds it. Used when a
// player leaves mid-game.
//
// Postcondition: Returns false when avatar is not on the board.
func (b *Board) RemoveAvatar(avatar string) bool {
	pos, ok := b.FindAvatar(avatar)
	if !ok {
		return false
	}
	b.Tiles[pos.Row][pos.Col].Avatar = ""
	return true
}

// ToggleDoor flips the door at p between open and closed.
//
// Postcondition: Returns (nowOpen, true) on success, or (false, false) when
// the tile is missing or not a door.
func (b *Board) ToggleDoor(p Position) (bool, bool) {
	t, ok := b.At(p)
	if !ok || !t.IsDoor() {
		return false, false
	}
	if t.Terrain == TerrainDoorOpen {
		t.Terrain = TerrainDoorClosed
		return false, true
	}
	t.Terrain = TerrainDoorOpen
	return true, true
}

// RemoveItem clears and returns the item at p.
//
// Postcondition: Returns ("", false) when the tile is missing or empty.
func (b *Board) RemoveItem(p Position) (string, bool) {
	t, ok := b.At(p)
	if !ok || t.Item == "" {
		return "", false
	}
	item := t.Item
	t.Item = ""
	return item, true
}

// PlaceItem puts an item on the tile at p.
//
// Postcondition: Returns false when the tile is missing, already holds an
// item, or is not traversable.
func (b *Board) PlaceItem(item string, p Position) bool {
	t, ok := b.At(p)
	if !ok || t.Item != "" || !t.Traversable() {
		return false
	}
	t.Item = item
	return true
}

// ItemPositions returns the positions of every tile holding one of the given
// item IDs, in row-major scan order. With no filter, all item tiles match.
func (b *Board) ItemPositions(filter ...string) []Position {
	want := make(map[string]bool, len(filter))
	for _, f := range filter {
		want[f] = true
	}
	var out []Position
	for r := range b.Tiles {
		for c := range b.Tiles[r] {
			item := b.Tiles[r][c].Item
			if item == "" {
				continue
			}
			if len(want) == 0 || want[item] {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// Source is the randomness provider for item shuffling.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// RandomizeItems replaces every ItemRandomMarker tile with an item drawn
// from pool without replacement, in a random order. Marker tiles beyond the
// pool size are cleared.
//
// Precondition: src must be non-nil.
// Postcondition: No tile holds ItemRandomMarker.
func (b *Board) RandomizeItems(pool []string, src Source) {
	markers := b.ItemPositions(ItemRandomMarker)
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	for i, pos := range markers {
		t, _ := b.At(pos)
		if i < len(shuffled) {
			t.Item = shuffled[i]
		} else {
			t.Item = ""
		}
	}
}

// Clone returns a deep copy of the board. Planning code operates on the live
// board; Clone exists for the wholesale replacement at game start.
func (b *Board) Clone() *Board {
	tiles := make([][]Tile, len(b.Tiles))
	for r := range b.Tiles {
		tiles[r] = make([]Tile, len(b.Tiles[r]))
		copy(tiles[r], b.Tiles[r])
	}
	return &Board{Size: b.Size, Tiles: tiles}
}
