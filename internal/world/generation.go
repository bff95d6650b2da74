// World generation using layered simplex noise.
// Generates elevation and moisture maps, derives terrain, then carves out the village.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Seed       int64   `yaml:"seed"`        // 0 = random
	WaterLevel float64 `yaml:"water_level"` // Elevation below this is water
	RockLevel  float64 `yaml:"rock_level"`  // Elevation above this is rock
	Houses     int     `yaml:"houses"`
	Fields     int     `yaml:"fields"`
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:      64,
		Height:     48,
		Seed:       0,
		WaterLevel: 0.22,
		RockLevel:  0.80,
		Houses:     4,
		Fields:     6,
	}
}

// SmallTestConfig returns a tiny world for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:      40,
		Height:     24,
		Seed:       42,
		WaterLevel: 0.20,
		RockLevel:  0.85,
		Houses:     3,
		Fields:     3,
	}
}

// Generate creates a grid with noise terrain and a village laid out near the centre.
func Generate(cfg GenConfig) (*Grid, *Items, *Village) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	g := NewGrid(cfg.Width, cfg.Height)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)
			elev := octaveNoise(elevNoise, fx, fy, 4, 0.06, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.08, 0.5)

			t := g.Get(Cell{X: x, Y: y})
			t.Elevation = elev
			t.Terrain = deriveTerrain(elev, moist, cfg)
			t.Area = AreaWild
		}
	}

	items := NewItems()
	v := PlaceVillage(g, items, cfg)
	return g, items, v
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, moist float64, cfg GenConfig) Terrain {
	if elev < cfg.WaterLevel {
		return TerrainWater
	}
	if elev > cfg.RockLevel {
		return TerrainRock
	}
	if moist > 0.62 {
		return TerrainForest
	}
	return TerrainGrass
}

// octaveNoise sums several noise octaves into a 0–1 value.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
