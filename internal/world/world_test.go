package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	g1, items1, v1 := Generate(SmallTestConfig())
	g2, items2, v2 := Generate(SmallTestConfig())

	assert.Equal(t, TerrainCounts(g1), TerrainCounts(g2))
	assert.Equal(t, len(items1.All()), len(items2.All()))
	assert.Equal(t, v1.Plaza, v2.Plaza)
}

func TestGenerateVillageLayout(t *testing.T) {
	cfg := SmallTestConfig()
	g, items, v := Generate(cfg)

	require.Len(t, v.Houses, cfg.Houses)
	for _, h := range v.Houses {
		assert.True(t, g.IsWalkable(h.Inside), "house %d inside", h.ID)
		assert.True(t, g.IsWalkable(h.Door), "house %d door", h.ID)
		assert.Equal(t, AreaHome, g.AreaAt(h.Inside))
		for _, kind := range []FixtureKind{FixtureBed, FixtureStove, FixtureToilet, FixtureShower} {
			assert.Len(t, items.InHouse(h.ID, kind), 1, "house %d %s", h.ID, kind)
		}
	}
	assert.True(t, v.Contains(v.Plaza))
	assert.True(t, g.IsWalkable(v.Plaza))

	fields := 0
	for _, f := range items.All() {
		assert.False(t, g.IsWalkable(f.Cell), "%s cell is solid", f.Kind)
		assert.True(t, g.IsWalkable(f.Access), "%s access is open", f.Kind)
		if f.Kind == FixtureField {
			fields++
		}
	}
	assert.Equal(t, cfg.Fields, fields)
	assert.NotNil(t, items.Nearest(v.Plaza, FixtureMarketStall, nil).Stock)
}

func TestGridBounds(t *testing.T) {
	g := NewGrid(4, 3)
	assert.Equal(t, 12, g.TileCount())
	assert.Nil(t, g.Get(Cell{X: 4, Y: 0}))
	assert.Nil(t, g.Get(Cell{X: -1, Y: 0}))
	assert.False(t, g.IsWalkable(Cell{X: 0, Y: 3}))
	assert.Equal(t, AreaWild, g.AreaAt(Cell{X: 9, Y: 9}))

	g.Get(Cell{X: 1, Y: 1}).Terrain = TerrainWater
	assert.False(t, g.IsWalkable(Cell{X: 1, Y: 1}))
	g.Get(Cell{X: 2, Y: 1}).Solid = true
	assert.False(t, g.IsWalkable(Cell{X: 2, Y: 1}))
	assert.True(t, g.IsWalkable(Cell{X: 3, Y: 1}))
}

func TestCellWorldRoundTrip(t *testing.T) {
	g := NewGrid(10, 10)
	c := Cell{X: 3, Y: 7}
	p := g.CellToWorld(c)
	assert.Equal(t, Vec2{X: 3.5, Y: 7.5}, p)
	assert.Equal(t, c, g.WorldPosToCell(p))
	assert.Equal(t, Cell{X: -1, Y: 0}, g.WorldPosToCell(Vec2{X: -0.2, Y: 0.9}))
}

func TestDistances(t *testing.T) {
	a, b := Cell{X: 1, Y: 1}, Cell{X: 4, Y: -1}
	assert.Equal(t, 3, Chebyshev(a, b))
	assert.Equal(t, 5, Manhattan(a, b))
	assert.InDelta(t, 5.0, Vec2{}.Dist(Vec2{X: 3, Y: 4}), 1e-9)
}

func TestScanAroundOrdering(t *testing.T) {
	items := NewItems()
	far := items.Add(FixtureBench, Cell{X: 3, Y: 0}, Cell{X: 3, Y: 1}, 0)
	nearB := items.Add(FixtureBed, Cell{X: 0, Y: 1}, Cell{X: 0, Y: 2}, 0)
	nearA := items.Add(FixtureStove, Cell{X: 1, Y: 0}, Cell{X: 1, Y: 1}, 0)
	items.Add(FixtureToilet, Cell{X: 9, Y: 9}, Cell{X: 9, Y: 8}, 0)

	got := items.ScanAround(Cell{}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []*Fixture{nearB, nearA, far}, got, "nearest first, ties by ID")
}

func TestNearestFilters(t *testing.T) {
	items := NewItems()
	mine := items.Add(FixtureBed, Cell{X: 5, Y: 0}, Cell{X: 5, Y: 1}, 2)
	other := items.Add(FixtureBed, Cell{X: 1, Y: 0}, Cell{X: 1, Y: 1}, 1)

	assert.Same(t, other, items.Nearest(Cell{}, FixtureBed, nil))
	usable := func(f *Fixture) bool { return f.UsableBy(7, 2) }
	assert.Same(t, mine, items.Nearest(Cell{}, FixtureBed, usable))
	assert.Nil(t, items.Nearest(Cell{}, FixtureShower, nil))
}

func TestClaimAndRelease(t *testing.T) {
	items := NewItems()
	f := items.Add(FixtureBench, Cell{}, Cell{X: 0, Y: 1}, 0)

	assert.False(t, items.TryClaim(f, 0), "owner zero never claims")
	assert.False(t, items.TryClaim(nil, 1))
	require.True(t, items.TryClaim(f, 1))
	assert.True(t, items.TryClaim(f, 1), "reclaiming your own claim succeeds")
	assert.False(t, items.TryClaim(f, 2))
	assert.False(t, f.UsableBy(2, 0))

	items.Release(f, 2)
	assert.Equal(t, uint64(1), f.UsedBy, "non-owner release is ignored")
	items.Release(f, 1)
	assert.True(t, f.Free())
	items.Release(nil, 1)
}

func TestUsableByHousehold(t *testing.T) {
	private := &Fixture{HouseID: 3}
	assert.True(t, private.UsableBy(1, 3))
	assert.False(t, private.UsableBy(1, 4))

	public := &Fixture{}
	assert.True(t, public.UsableBy(1, 4))
}

func TestGrowRipens(t *testing.T) {
	items := NewItems()
	f := items.Add(FixtureField, Cell{}, Cell{X: 0, Y: 1}, 0)
	idle := items.Add(FixtureField, Cell{X: 2}, Cell{X: 2, Y: 1}, 0)
	f.Crop, f.CropItem = CropGrowing, "potato"

	items.Grow(5, 10)
	assert.Equal(t, 50.0, f.Growth)
	assert.Equal(t, CropGrowing, f.Crop)

	items.Grow(10, 10)
	assert.Equal(t, 100.0, f.Growth)
	assert.Equal(t, CropRipe, f.Crop)
	assert.Equal(t, CropEmpty, idle.Crop)
	assert.Zero(t, idle.Growth)
}

func TestRestore(t *testing.T) {
	items := NewItems()
	field := items.Add(FixtureField, Cell{}, Cell{X: 0, Y: 1}, 0)
	stall := items.Add(FixtureMarketStall, Cell{X: 2}, Cell{X: 2, Y: 1}, 0)
	stall.UsedBy = 4

	saved := []*Fixture{
		{ID: field.ID, Kind: FixtureField, Crop: CropGrowing, CropItem: "carrot", Growth: 40, UsedBy: 9},
		{ID: stall.ID, Kind: FixtureMarketStall, Stock: map[string]int{"bread": 3}},
		{ID: stall.ID, Kind: FixtureBed},
		{ID: 99, Kind: FixtureField},
	}
	assert.Equal(t, 2, items.Restore(saved))

	assert.Equal(t, CropGrowing, field.Crop)
	assert.Equal(t, "carrot", field.CropItem)
	assert.Equal(t, 40.0, field.Growth)
	assert.True(t, field.Free(), "claims are not restored")
	assert.Equal(t, 3, stall.Stock["bread"])

	saved[1].Stock["bread"] = 100
	assert.Equal(t, 3, stall.Stock["bread"], "stock is copied")
}

func TestNames(t *testing.T) {
	assert.Equal(t, "market_stall", FixtureMarketStall.String())
	assert.Equal(t, "unknown", NumFixtureKinds.String())
	assert.Equal(t, "soil", TerrainName(TerrainSoil))
	assert.Equal(t, "work", AreaWork.String())
}
