package world

import (
	"fmt"
	"math"
)

// Terrain types for grid tiles.
type Terrain uint8

const (
	TerrainGrass  Terrain = iota // Open ground
	TerrainPath                  // Village roads and plaza
	TerrainForest                // Walkable, slow in spirit only
	TerrainWater                 // Impassable
	TerrainRock                  // Impassable
	TerrainFloor                 // House interiors
	TerrainWall                  // Impassable
	TerrainSoil                  // Farm plots
)

var terrainNames = [...]string{"grass", "path", "forest", "water", "rock", "floor", "wall", "soil"}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "unknown"
}

// Walkable reports whether agents may stand on this terrain.
func (t Terrain) Walkable() bool {
	switch t {
	case TerrainWater, TerrainRock, TerrainWall:
		return false
	}
	return true
}

// Area classifies a tile for action scoring.
type Area uint8

const (
	AreaWild   Area = iota // Outside the village
	AreaPublic             // Roads, plaza, restaurant
	AreaHome               // Inside a house
	AreaWork               // Fields, workbench, market
)

var areaNames = [...]string{"wild", "public", "home", "work"}

func (a Area) String() string {
	if int(a) < len(areaNames) {
		return areaNames[a]
	}
	return "unknown"
}

// Tile is a single grid cell.
type Tile struct {
	Terrain   Terrain `json:"terrain"`
	Area      Area    `json:"area"`
	HouseID   uint64  `json:"house_id,omitempty"`
	Solid     bool    `json:"solid,omitempty"` // Occupied by a fixture
	Elevation float64 `json:"elevation"`
}

// Oracle answers walkability and coordinate conversion questions.
type Oracle interface {
	IsWalkable(c Cell) bool
	WorldPosToCell(p Vec2) Cell
	CellToWorld(c Cell) Vec2
}

// Grid holds the complete tile map.
type Grid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	tiles  []Tile // Row-major
}

// NewGrid creates a grass-filled grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
	}
}

// InBounds returns true if the cell lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// Get returns the tile at c, or nil if out of bounds.
func (g *Grid) Get(c Cell) *Tile {
	if !g.InBounds(c) {
		return nil
	}
	return &g.tiles[c.Y*g.Width+c.X]
}

// IsWalkable reports whether an agent can stand on c.
func (g *Grid) IsWalkable(c Cell) bool {
	t := g.Get(c)
	return t != nil && !t.Solid && t.Terrain.Walkable()
}

// AreaAt returns the area of c (AreaWild when out of bounds).
func (g *Grid) AreaAt(c Cell) Area {
	if t := g.Get(c); t != nil {
		return t.Area
	}
	return AreaWild
}

// WorldPosToCell maps a continuous position to the cell containing it.
func (g *Grid) WorldPosToCell(p Vec2) Cell {
	return Cell{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// CellToWorld returns the centre of a cell.
func (g *Grid) CellToWorld(c Cell) Vec2 {
	return Vec2{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5}
}

// TileCount returns the total number of tiles.
func (g *Grid) TileCount() int {
	return len(g.tiles)
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.Width, g.Height)
}

// TerrainCounts returns the number of tiles of each terrain type.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range g.tiles {
		counts[t.Terrain]++
	}
	return counts
}
