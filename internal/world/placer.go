// Village placement carves a walkable village out of the generated terrain
// and furnishes houses and public buildings with fixtures.
package world

// House footprint. Walls on the border, door in the bottom wall.
const (
	houseW = 6
	houseH = 5
	// Horizontal spacing between house origins.
	houseStride = 7
)

// House is a furnished dwelling.
type House struct {
	ID     uint64 `json:"id"`
	Origin Cell   `json:"origin"` // Top-left wall corner
	Door   Cell   `json:"door"`
	Inside Cell   `json:"inside"` // A free interior cell
}

// Village describes the placed layout.
type Village struct {
	Origin Cell     `json:"origin"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Houses []*House `json:"houses"`
	Plaza  Cell     `json:"plaza"`
}

// HouseByID returns the house with id, or nil.
func (v *Village) HouseByID(id uint64) *House {
	for _, h := range v.Houses {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// Contains reports whether c lies inside the village rectangle.
func (v *Village) Contains(c Cell) bool {
	return c.X >= v.Origin.X && c.Y >= v.Origin.Y &&
		c.X < v.Origin.X+v.Width && c.Y < v.Origin.Y+v.Height
}

// PlaceVillage lays out the village near the grid centre. Layout, top to bottom:
//
//	row 0–4   houses (door on row 4)
//	row 5–6   main road
//	row 7     access row for public fixtures
//	row 8     restaurant seats, market stall, workbench, benches
//	row 9     plaza
//	row 10    field access row
//	row 11    fields
func PlaceVillage(g *Grid, items *Items, cfg GenConfig) *Village {
	houses := cfg.Houses
	if houses < 1 {
		houses = 1
	}
	fields := cfg.Fields
	if fields < 1 {
		fields = 1
	}

	width := houses * houseStride
	if width < 20 {
		width = 20
	}
	if width < fields*2+1 {
		width = fields*2 + 1
	}
	height := 12

	origin := Cell{
		X: (g.Width - width) / 2,
		Y: (g.Height - height) / 2,
	}
	if origin.X < 1 {
		origin.X = 1
	}
	if origin.Y < 1 {
		origin.Y = 1
	}

	v := &Village{Origin: origin, Width: width, Height: height}

	// Clear a margin around the village so it is reachable from its edges.
	for y := origin.Y - 1; y <= origin.Y+height; y++ {
		for x := origin.X - 1; x <= origin.X+width; x++ {
			if t := g.Get(Cell{X: x, Y: y}); t != nil {
				t.Terrain = TerrainGrass
				t.Area = AreaPublic
				t.Solid = false
			}
		}
	}

	// Main road.
	for x := origin.X - 1; x <= origin.X+width; x++ {
		for _, y := range []int{origin.Y + 5, origin.Y + 6} {
			if t := g.Get(Cell{X: x, Y: y}); t != nil {
				t.Terrain = TerrainPath
			}
		}
	}

	for i := 0; i < houses; i++ {
		h := placeHouse(g, items, Cell{X: origin.X + i*houseStride, Y: origin.Y}, uint64(i+1))
		v.Houses = append(v.Houses, h)
	}

	row := origin.Y + 8
	access := origin.Y + 7

	// Restaurant: four seats.
	for i := 0; i < 4; i++ {
		placePublic(g, items, FixtureSeat, Cell{X: origin.X + 1 + i, Y: row}, Cell{X: origin.X + 1 + i, Y: access})
	}
	// Shared stove for the restaurant kitchen.
	placePublic(g, items, FixtureStove, Cell{X: origin.X + 6, Y: row}, Cell{X: origin.X + 6, Y: access})

	stall := placePublic(g, items, FixtureMarketStall, Cell{X: origin.X + 9, Y: row}, Cell{X: origin.X + 9, Y: access})
	markWork(g, stall.Access)
	bench := placePublic(g, items, FixtureWorkbench, Cell{X: origin.X + 12, Y: row}, Cell{X: origin.X + 12, Y: access})
	markWork(g, bench.Access)

	placePublic(g, items, FixtureBench, Cell{X: origin.X + 15, Y: row}, Cell{X: origin.X + 15, Y: access})
	placePublic(g, items, FixtureBench, Cell{X: origin.X + 17, Y: row}, Cell{X: origin.X + 17, Y: access})

	// Plaza row stays open.
	for x := origin.X; x < origin.X+width; x++ {
		if t := g.Get(Cell{X: x, Y: origin.Y + 9}); t != nil {
			t.Terrain = TerrainPath
		}
	}
	v.Plaza = Cell{X: origin.X + width/2, Y: origin.Y + 9}

	// Fields, one cell apart so each keeps its own access cell.
	for i := 0; i < fields; i++ {
		c := Cell{X: origin.X + 1 + i*2, Y: origin.Y + 11}
		a := Cell{X: c.X, Y: origin.Y + 10}
		if t := g.Get(c); t != nil {
			t.Terrain = TerrainSoil
		}
		placePublic(g, items, FixtureField, c, a)
		markWork(g, a)
	}

	return v
}

func placeHouse(g *Grid, items *Items, o Cell, id uint64) *House {
	for dy := 0; dy < houseH; dy++ {
		for dx := 0; dx < houseW; dx++ {
			t := g.Get(Cell{X: o.X + dx, Y: o.Y + dy})
			if t == nil {
				continue
			}
			t.HouseID = id
			t.Area = AreaHome
			if dx == 0 || dy == 0 || dx == houseW-1 || dy == houseH-1 {
				t.Terrain = TerrainWall
			} else {
				t.Terrain = TerrainFloor
			}
		}
	}

	door := Cell{X: o.X + 2, Y: o.Y + houseH - 1}
	if t := g.Get(door); t != nil {
		t.Terrain = TerrainFloor
	}

	place := func(kind FixtureKind, at, access Cell) {
		if t := g.Get(at); t != nil {
			t.Solid = true
		}
		items.Add(kind, at, access, id)
	}
	place(FixtureBed, o.Add(Cell{X: 1, Y: 1}), o.Add(Cell{X: 1, Y: 2}))
	place(FixtureStove, o.Add(Cell{X: 4, Y: 1}), o.Add(Cell{X: 4, Y: 2}))
	place(FixtureToilet, o.Add(Cell{X: 1, Y: 3}), o.Add(Cell{X: 2, Y: 3}))
	place(FixtureShower, o.Add(Cell{X: 4, Y: 3}), o.Add(Cell{X: 3, Y: 3}))

	return &House{
		ID:     id,
		Origin: o,
		Door:   door,
		Inside: o.Add(Cell{X: 2, Y: 2}),
	}
}

func placePublic(g *Grid, items *Items, kind FixtureKind, at, access Cell) *Fixture {
	if t := g.Get(at); t != nil {
		t.Solid = true
	}
	return items.Add(kind, at, access, 0)
}

func markWork(g *Grid, c Cell) {
	if t := g.Get(c); t != nil {
		t.Area = AreaWork
	}
}
