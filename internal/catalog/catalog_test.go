package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stock map[string]int

func (s stock) Count(id string) int { return s[id] }

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.True(t, c.IsFood("stew"))
	assert.False(t, c.IsFood("potato"))
	assert.Equal(t, []string{"apple", "bread", "salad", "stew"}, c.Foods())
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse([]byte(`{"items":[{"id":"Bad Id","name":"x","price":1}],"recipes":[],"crops":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog schema")
}

func TestParse_UnknownReference(t *testing.T) {
	_, err := Parse([]byte(`{
		"items":[{"id":"stew","name":"Stew","food":true,"nutrition":40,"price":3}],
		"recipes":[{"id":"stew","station":"stove","inputs":{"potato":2},"output":"stew","quantity":1,"speed":10}],
		"crops":[]
	}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownItem))
}

func TestSatisfiable(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	r, ok := c.Satisfiable(StationStove, stock{"potato": 2, "carrot": 1})
	require.True(t, ok)
	assert.Equal(t, "stew", r.ID)

	r, ok = c.Satisfiable(StationStove, stock{"carrot": 2})
	require.True(t, ok)
	assert.Equal(t, "salad", r.ID)

	_, ok = c.Satisfiable(StationStove, stock{"potato": 1})
	assert.False(t, ok)
}

func TestCarriedFood_PrefersNutrition(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	id, ok := c.CarriedFood(stock{"apple": 3, "bread": 1})
	require.True(t, ok)
	assert.Equal(t, "bread", id)
	assert.Equal(t, 4, c.FoodCount(stock{"apple": 3, "bread": 1, "potato": 9}))

	_, ok = c.CarriedFood(stock{"potato": 5})
	assert.False(t, ok)
}
