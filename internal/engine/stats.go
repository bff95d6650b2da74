package engine

import (
	"github.com/talgya/villagesim/internal/agents"
	"github.com/talgya/villagesim/internal/world"
)

// SimStats tracks aggregate village statistics.
type SimStats struct {
	Population      int                `json:"population"`
	Busy            int                `json:"busy"`    // Agents with a current action
	AtWork          int                `json:"at_work"` // Agents on a shift
	TotalCoins      int                `json:"total_coins"`
	AvgNeeds        map[string]float64 `json:"avg_needs"`
	AvgSatisfaction float64            `json:"avg_satisfaction"`
	FoodStock       int                `json:"food_stock"` // Carried plus stall stock
	RipeFields      int                `json:"ripe_fields"`
	Pool            agents.PoolStats   `json:"pool"`
}

func (s *Simulation) updateStats() {
	st := SimStats{AvgNeeds: make(map[string]float64, agents.NumNeeds)}
	var sums [agents.NumNeeds]float64
	satisfaction := 0.0

	for _, ag := range s.Agents {
		st.Population++
		st.TotalCoins += ag.Coins
		st.FoodStock += s.Catalog.FoodCount(ag.Inventory)
		for k := agents.NeedKind(0); k < agents.NumNeeds; k++ {
			sums[k] += ag.Needs.Get(k)
		}
		satisfaction += ag.Needs.OverallSatisfaction()
		if cur := ag.CurrentAction(); cur != nil {
			st.Busy++
			if cur.State().Work {
				st.AtWork++
			}
		}
	}
	if st.Population > 0 {
		for k := agents.NeedKind(0); k < agents.NumNeeds; k++ {
			st.AvgNeeds[k.String()] = sums[k] / float64(st.Population)
		}
		st.AvgSatisfaction = satisfaction / float64(st.Population)
	}

	for _, f := range s.Items.All() {
		switch f.Kind {
		case world.FixtureField:
			if f.Crop == world.CropRipe {
				st.RipeFields++
			}
		case world.FixtureMarketStall:
			for id, q := range f.Stock {
				if s.Catalog.IsFood(id) {
					st.FoodStock += q
				}
			}
		}
	}
	st.Pool = s.Pool.Stats()
	s.Stats = st
}
