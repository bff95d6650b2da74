package world

import (
	"log/slog"
	"sort"
)

// FixtureKind enumerates interactable world objects.
type FixtureKind uint8

const (
	FixtureBed FixtureKind = iota
	FixtureStove
	FixtureToilet
	FixtureShower
	FixtureSeat        // Restaurant seating
	FixtureBench       // Plaza bench
	FixtureWorkbench   // Crafting station
	FixtureMarketStall // Sells stocked goods
	FixtureField       // Crop plot
	NumFixtureKinds
)

var fixtureNames = [...]string{"bed", "stove", "toilet", "shower", "seat", "bench", "workbench", "market_stall", "field"}

func (k FixtureKind) String() string {
	if int(k) < len(fixtureNames) {
		return fixtureNames[k]
	}
	return "unknown"
}

// CropState tracks the lifecycle of a field.
type CropState uint8

const (
	CropEmpty CropState = iota
	CropGrowing
	CropRipe
)

// Fixture is a claimable object placed on the grid. Agents stand on Access to use it.
type Fixture struct {
	ID      uint64      `json:"id"`
	Kind    FixtureKind `json:"kind"`
	Cell    Cell        `json:"cell"`
	Access  Cell        `json:"access"`
	HouseID uint64      `json:"house_id,omitempty"` // 0 = public
	UsedBy  uint64      `json:"used_by,omitempty"`  // Claiming agent ID, 0 = free

	// Fields only.
	Crop     CropState `json:"crop,omitempty"`
	CropItem string    `json:"crop_item,omitempty"`
	Growth   float64   `json:"growth,omitempty"` // 0–100

	// Market stalls only.
	Stock map[string]int `json:"stock,omitempty"`
}

// Free reports whether nobody holds the fixture.
func (f *Fixture) Free() bool {
	return f.UsedBy == 0
}

// UsableBy reports whether owner may claim f: it must be free or already
// theirs, and private fixtures only serve their own household.
func (f *Fixture) UsableBy(owner uint64, houseID uint64) bool {
	if f.UsedBy != 0 && f.UsedBy != owner {
		return false
	}
	return f.HouseID == 0 || f.HouseID == houseID
}

// Items indexes every fixture in the world.
type Items struct {
	fixtures []*Fixture
	byID     map[uint64]*Fixture
	nextID   uint64
}

// NewItems creates an empty fixture index.
func NewItems() *Items {
	return &Items{byID: make(map[uint64]*Fixture), nextID: 1}
}

// Add registers a new fixture and returns it.
func (it *Items) Add(kind FixtureKind, cell, access Cell, houseID uint64) *Fixture {
	f := &Fixture{
		ID:      it.nextID,
		Kind:    kind,
		Cell:    cell,
		Access:  access,
		HouseID: houseID,
	}
	if kind == FixtureMarketStall {
		f.Stock = make(map[string]int)
	}
	it.nextID++
	it.fixtures = append(it.fixtures, f)
	it.byID[f.ID] = f
	return f
}

// ByID returns a fixture or nil.
func (it *Items) ByID(id uint64) *Fixture {
	return it.byID[id]
}

// All returns every fixture in insertion order.
func (it *Items) All() []*Fixture {
	return it.fixtures
}

// ScanAround returns fixtures whose cell lies within radius (Chebyshev) of
// center, nearest first, ties broken by ID.
func (it *Items) ScanAround(center Cell, radius int) []*Fixture {
	var out []*Fixture
	for _, f := range it.fixtures {
		if Chebyshev(center, f.Cell) <= radius {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := Manhattan(center, out[i].Cell), Manhattan(center, out[j].Cell)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Nearest returns the closest fixture of kind accepted by usable (nil = any).
func (it *Items) Nearest(center Cell, kind FixtureKind, usable func(*Fixture) bool) *Fixture {
	var best *Fixture
	bestDist := 0
	for _, f := range it.fixtures {
		if f.Kind != kind {
			continue
		}
		if usable != nil && !usable(f) {
			continue
		}
		d := Manhattan(center, f.Cell)
		if best == nil || d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}

// InHouse returns the fixtures of kind belonging to a house.
func (it *Items) InHouse(houseID uint64, kind FixtureKind) []*Fixture {
	var out []*Fixture
	for _, f := range it.fixtures {
		if f.HouseID == houseID && f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// TryClaim checks availability and writes the claim in one step.
func (it *Items) TryClaim(f *Fixture, owner uint64) bool {
	if f == nil || owner == 0 {
		return false
	}
	if f.UsedBy != 0 && f.UsedBy != owner {
		return false
	}
	f.UsedBy = owner
	return true
}

// Release clears owner's claim on f.
func (it *Items) Release(f *Fixture, owner uint64) {
	if f == nil {
		return
	}
	if f.UsedBy != owner {
		if f.UsedBy != 0 {
			slog.Error("fixture released by non-owner", "fixture", f.ID, "kind", f.Kind.String(), "owner", f.UsedBy, "releaser", owner)
		}
		return
	}
	f.UsedBy = 0
}

// Grow advances planted fields. rate is growth points per sim-second.
func (it *Items) Grow(dt, rate float64) {
	for _, f := range it.fixtures {
		if f.Kind != FixtureField || f.Crop != CropGrowing {
			continue
		}
		f.Growth += rate * dt
		if f.Growth >= 100 {
			f.Growth = 100
			f.Crop = CropRipe
		}
	}
}

// Restore copies saved field and stall state onto the fixtures with the same
// ID and kind. Claims are not restored. It returns how many matched.
func (it *Items) Restore(saved []*Fixture) int {
	n := 0
	for _, s := range saved {
		f := it.byID[s.ID]
		if f == nil || f.Kind != s.Kind {
			continue
		}
		f.Crop, f.CropItem, f.Growth = s.Crop, s.CropItem, s.Growth
		if f.Kind == FixtureMarketStall {
			f.Stock = make(map[string]int, len(s.Stock))
			for id, q := range s.Stock {
				f.Stock[id] = q
			}
		}
		n++
	}
	return n
}
