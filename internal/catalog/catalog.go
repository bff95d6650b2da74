// Package catalog holds item, recipe and crop definitions.
// The catalog is JSON, validated against an embedded schema before decoding.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed data/catalog.json
var defaultCatalog []byte

//go:embed data/catalog.schema.json
var catalogSchema string

// ErrUnknownItem is returned when a recipe or crop references an undefined item.
var ErrUnknownItem = errors.New("unknown item")

// Station names used by recipes.
const (
	StationStove     = "stove"
	StationWorkbench = "workbench"
)

// Item is a tradeable, possibly edible good.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Food      bool    `json:"food,omitempty"`
	Nutrition float64 `json:"nutrition,omitempty"` // Hunger restored per portion
	Price     int     `json:"price"`
}

// Recipe converts inputs into an output at a station.
type Recipe struct {
	ID       string         `json:"id"`
	Station  string         `json:"station"`
	Inputs   map[string]int `json:"inputs"`
	Output   string         `json:"output"`
	Quantity int            `json:"quantity"`
	Speed    float64        `json:"speed"` // Progress points per sim-second
}

// Crop maps a seed to the item a ripe field yields.
type Crop struct {
	Seed  string `json:"seed"`
	Crop  string `json:"crop"`
	Yield int    `json:"yield"`
}

// Catalog is the decoded, cross-checked definition set.
type Catalog struct {
	Items   map[string]Item
	Recipes []Recipe
	Crops   []Crop

	foods []string // Edible item IDs, sorted
}

type document struct {
	Items   []Item   `json:"items"`
	Recipes []Recipe `json:"recipes"`
	Crops   []Crop   `json:"crops"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw JSON against the schema, decodes it and checks references.
func Parse(raw []byte) (*Catalog, error) {
	schema, err := jsonschema.CompileString("catalog.schema.json", catalogSchema)
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("catalog json: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		Items:   make(map[string]Item, len(doc.Items)),
		Recipes: doc.Recipes,
		Crops:   doc.Crops,
	}
	for _, it := range doc.Items {
		c.Items[it.ID] = it
		if it.Food {
			c.foods = append(c.foods, it.ID)
		}
	}
	sort.Strings(c.foods)

	for _, r := range c.Recipes {
		if _, ok := c.Items[r.Output]; !ok {
			return nil, fmt.Errorf("recipe %s output %q: %w", r.ID, r.Output, ErrUnknownItem)
		}
		for in := range r.Inputs {
			if _, ok := c.Items[in]; !ok {
				return nil, fmt.Errorf("recipe %s input %q: %w", r.ID, in, ErrUnknownItem)
			}
		}
	}
	for _, cr := range c.Crops {
		if _, ok := c.Items[cr.Seed]; !ok {
			return nil, fmt.Errorf("crop seed %q: %w", cr.Seed, ErrUnknownItem)
		}
		if _, ok := c.Items[cr.Crop]; !ok {
			return nil, fmt.Errorf("crop %q: %w", cr.Crop, ErrUnknownItem)
		}
	}

	return c, nil
}

// Stock is the read side of an inventory.
type Stock interface {
	Count(id string) int
}

// Foods returns edible item IDs in stable order.
func (c *Catalog) Foods() []string {
	return c.foods
}

// IsFood reports whether id is edible.
func (c *Catalog) IsFood(id string) bool {
	return c.Items[id].Food
}

// Nutrition returns hunger restored per portion of id.
func (c *Catalog) Nutrition(id string) float64 {
	return c.Items[id].Nutrition
}

// Price returns the coin price of id.
func (c *Catalog) Price(id string) int {
	return c.Items[id].Price
}

// CarriedFood returns the most nutritious food in s, if any.
func (c *Catalog) CarriedFood(s Stock) (string, bool) {
	best, bestN := "", -1.0
	for _, id := range c.foods {
		if s.Count(id) <= 0 {
			continue
		}
		if n := c.Items[id].Nutrition; n > bestN {
			best, bestN = id, n
		}
	}
	return best, best != ""
}

// FoodCount returns the total edible portions in s.
func (c *Catalog) FoodCount(s Stock) int {
	total := 0
	for _, id := range c.foods {
		total += s.Count(id)
	}
	return total
}

// Satisfiable returns the first recipe at station whose inputs s can cover.
func (c *Catalog) Satisfiable(station string, s Stock) (Recipe, bool) {
	for _, r := range c.Recipes {
		if r.Station != station {
			continue
		}
		if CanCover(r, s) {
			return r, true
		}
	}
	return Recipe{}, false
}

// CanCover reports whether s holds every input of r.
func CanCover(r Recipe, s Stock) bool {
	for id, n := range r.Inputs {
		if s.Count(id) < n {
			return false
		}
	}
	return true
}

// CropForSeed returns the crop grown from seed.
func (c *Catalog) CropForSeed(seed string) (Crop, bool) {
	for _, cr := range c.Crops {
		if cr.Seed == seed {
			return cr, true
		}
	}
	return Crop{}, false
}

// SeedFor returns the first seed s holds, if any.
func (c *Catalog) SeedFor(s Stock) (Crop, bool) {
	for _, cr := range c.Crops {
		if s.Count(cr.Seed) > 0 {
			return cr, true
		}
	}
	return Crop{}, false
}

// CropByItem returns the crop definition yielding item.
func (c *Catalog) CropByItem(item string) (Crop, bool) {
	for _, cr := range c.Crops {
		if cr.Crop == item {
			return cr, true
		}
	}
	return Crop{}, false
}
