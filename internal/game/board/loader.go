package board

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a static board definition loaded from YAML. It is never
// mutated; game start clones it into a live Board.
type Template struct {
	Name   string          `yaml:"name"`
	Size   int             `yaml:"size"`
	Rows   []string        `yaml:"rows"`
	Items  []ItemPlacement `yaml:"items"`
	Spawns []Position      `yaml:"spawns"`
}

// ItemPlacement pins an item (or the random marker) to a tile.
type ItemPlacement struct {
	Item string `yaml:"item"`
	Row  int    `yaml:"row"`
	Col  int    `yaml:"col"`
}

// Terrain glyphs used in Template.Rows.
const (
	glyphBase       = '.'
	glyphWater      = 'w'
	glyphIce        = 'i'
	glyphWall       = '#'
	glyphDoorClosed = 'd'
	glyphDoorOpen   = 'D'
)

func terrainForGlyph(g rune) (Terrain, bool) {
	switch g {
	case glyphBase:
		return TerrainBase, true
	case glyphWater:
		return TerrainWater, true
	case glyphIce:
		return TerrainIce, true
	case glyphWall:
		return TerrainWall, true
	case glyphDoorClosed:
		return TerrainDoorClosed, true
	case glyphDoorOpen:
		return TerrainDoorOpen, true
	default:
		return "", false
	}
}

// Validate checks the template invariants.
//
// Postcondition: nil return guarantees a legal size, exactly Size rows of
// Size glyphs each, all glyphs known, all placements in bounds on
// traversable tiles, and at least one spawn.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("board template: name must not be empty")
	}
	if !allowedSizes[t.Size] {
		return fmt.Errorf("board template %q: size must be 10, 15, or 20, got %d", t.Name, t.Size)
	}
	if len(t.Rows) != t.Size {
		return fmt.Errorf("board template %q: expected %d rows, got %d", t.Name, t.Size, len(t.Rows))
	}
	for r, row := range t.Rows {
		if len(row) != t.Size {
			return fmt.Errorf("board template %q row %d: expected %d glyphs, got %d", t.Name, r, t.Size, len(row))
		}
		for c, g := range row {
			if _, ok := terrainForGlyph(g); !ok {
				return fmt.Errorf("board template %q row %d col %d: unknown glyph %q", t.Name, r, c, g)
			}
		}
	}
	for _, p := range t.Items {
		if err := t.checkPlacement(p.Row, p.Col); err != nil {
			return fmt.Errorf("board template %q item %q: %w", t.Name, p.Item, err)
		}
		if p.Item == "" {
			return fmt.Errorf("board template %q: item placement with empty item at (%d,%d)", t.Name, p.Row, p.Col)
		}
	}
	if len(t.Spawns) == 0 {
		return fmt.Errorf("board template %q: must define at least one spawn", t.Name)
	}
	for _, s := range t.Spawns {
		if err := t.checkPlacement(s.Row, s.Col); err != nil {
			return fmt.Errorf("board template %q spawn: %w", t.Name, err)
		}
	}
	return nil
}

func (t *Template) checkPlacement(row, col int) error {
	if row < 0 || row >= t.Size || col < 0 || col >= t.Size {
		return fmt.Errorf("position (%d,%d) out of bounds", row, col)
	}
	terrain, _ := terrainForGlyph(rune(t.Rows[row][col]))
	if terrain == TerrainWall || terrain == TerrainDoorClosed {
		return fmt.Errorf("position (%d,%d) is not traversable (%s)", row, col, terrain)
	}
	return nil
}

// Build materializes the template into a fresh live Board.
//
// Precondition: t.Validate() must have returned nil.
func (t *Template) Build() (*Board, error) {
	b, err := New(t.Size)
	if err != nil {
		return nil, err
	}
	for r, row := range t.Rows {
		for c, g := range row {
			terrain, ok := terrainForGlyph(g)
			if !ok {
				return nil, fmt.Errorf("board template %q: unknown glyph %q", t.Name, g)
			}
			b.Tiles[r][c].Terrain = terrain
		}
	}
	for _, p := range t.Items {
		b.Tiles[p.Row][p.Col].Item = p.Item
	}
	return b, nil
}

// yamlTemplateFile wraps the YAML top-level key.
type yamlTemplateFile struct {
	Board *Template `yaml:"board"`
}

// LoadTemplates reads all *.yaml and *.yml files from dir and returns the
// parsed, validated board templates keyed by name.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error if any file fails to parse or validate, or
// if two templates share a name.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("board.LoadTemplates: reading %q: %w", dir, err)
	}
	templates := make(map[string]*Template)
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("board.LoadTemplates: reading %s: %w", e.Name(), err)
		}
		var f yamlTemplateFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("board.LoadTemplates: parsing %s: %w", e.Name(), err)
		}
		if f.Board == nil {
			return nil, fmt.Errorf("board.LoadTemplates: %s missing top-level 'board' key", e.Name())
		}
		if err := f.Board.Validate(); err != nil {
			return nil, err
		}
		if _, dup := templates[f.Board.Name]; dup {
			return nil, fmt.Errorf("board.LoadTemplates: duplicate template name %q", f.Board.Name)
		}
		templates[f.Board.Name] = f.Board
	}
	return templates, nil
}
