package agents

import (
	"math/rand"

	"github.com/talgya/villagesim/internal/world"
)

// Spawner creates villagers with seeded names, needs and occupations.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates a spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next agent ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// occupationCycle assigns jobs round-robin so every village has each trade.
var occupationCycle = []Occupation{
	OccupationFarmer,
	OccupationCook,
	OccupationCrafter,
	OccupationMerchant,
	OccupationFarmer,
	OccupationNone,
}

// SpawnVillage creates perHouse villagers for every house, standing at the
// house's inside cell.
func (s *Spawner) SpawnVillage(v *world.Village, perHouse int, oracle world.Oracle) []*Agent {
	var out []*Agent
	for _, h := range v.Houses {
		for i := 0; i < perHouse; i++ {
			occ := occupationCycle[(int(s.nextID)-1)%len(occupationCycle)]
			ag := s.SpawnOne(h.ID, occ)
			ag.Place(h.Inside, oracle)
			out = append(out, ag)
		}
	}
	return out
}

// SpawnOne creates a single villager living in house homeID.
func (s *Spawner) SpawnOne(homeID uint64, occ Occupation) *Agent {
	id := s.nextID
	s.nextID++

	sex := SexMale
	if s.rng.Float32() < 0.5 {
		sex = SexFemale
	}

	// Needs start mostly met, with some spread so agents do not act in lockstep.
	var needs Needs
	for k := NeedKind(0); k < NumNeeds; k++ {
		needs.Set(k, 60+s.rng.Float64()*40)
	}
	needs.Set(NeedHealth, 90+s.rng.Float64()*10)

	return &Agent{
		ID:         id,
		Name:       s.name(sex),
		Age:        s.age(),
		Sex:        sex,
		HomeID:     homeID,
		Occupation: occ,
		Inventory:  s.startingInventory(occ),
		Coins:      s.startingCoins(occ),
		Needs:      needs,
	}
}

func (s *Spawner) age() uint16 {
	age := 32.0 + s.rng.NormFloat64()*10.0
	if age < 16 {
		age = 16
	}
	if age > 75 {
		age = 75
	}
	return uint16(age)
}

func (s *Spawner) startingCoins(occ Occupation) int {
	base := 20
	if occ == OccupationMerchant {
		base = 60
	}
	return base + s.rng.Intn(20)
}

// startingInventory stocks enough raw food for at least one cooked meal.
func (s *Spawner) startingInventory(occ Occupation) Inventory {
	inv := Inventory{}
	inv.Add("potato", 2+s.rng.Intn(2))
	inv.Add("carrot", 1+s.rng.Intn(3))
	switch occ {
	case OccupationFarmer:
		inv.Add("potato_seed", 2)
		inv.Add("carrot_seed", 2)
	case OccupationCrafter:
		inv.Add("wood", 6)
	case OccupationCook:
		inv.Add("wheat", 6)
	case OccupationMerchant:
		inv.Add("bread", 2)
	}
	return inv
}

func (s *Spawner) name(sex Sex) string {
	firsts := maleNames
	if sex == SexFemale {
		firsts = femaleNames
	}
	return firsts[s.rng.Intn(len(firsts))] + " " + familyNames[s.rng.Intn(len(familyNames))]
}

var maleNames = []string{
	"Alden", "Bastian", "Corwin", "Desmond", "Emmett", "Fenwick", "Gideon",
	"Hollis", "Ingram", "Jory", "Kellan", "Lorcan", "Merrick", "Nolan",
	"Osric", "Piers", "Rupert", "Silas", "Tobin", "Ulf", "Walden",
}

var femaleNames = []string{
	"Agnes", "Briony", "Celandine", "Dulcie", "Edda", "Fenna", "Hazel",
	"Isolde", "Jessamy", "Linnea", "Maren", "Nell", "Odette", "Posy",
	"Rosalind", "Sigrid", "Tamsin", "Wilhelmina", "Ysolde",
}

var familyNames = []string{
	"Appleby", "Barrow", "Cobb", "Dimmock", "Fairweather", "Glover",
	"Hayward", "Kettle", "Larkin", "Meadows", "Nutley", "Orchard",
	"Pennywhistle", "Quill", "Rushworth", "Tanner", "Underhill", "Wick",
}
