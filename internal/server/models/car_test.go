package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCar_MarshalJSON_ExposesBothIDs(t *testing.T) {
	c := Car{ID: "abc", Title: "1964 Ford Thunderbird", Make: "Ford"}
	c.Normalize()

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Equal(t, "abc", m["_id"])
	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, "unsold", m["status"])
	assert.Equal(t, float64(0), m["price"])
	assert.Equal(t, []any{}, m["images"])
	assert.Equal(t, []any{}, m["keyFeatures"])
	assert.NotContains(t, m, "description")
}

func TestCarPatch_Apply(t *testing.T) {
	c := Car{Title: "old", Make: "Ford", Images: []string{"/a.jpg"}, Highlights: []string{"x"}}

	title := "new"
	price := 45000.0
	hl := []string{}
	CarPatch{Title: &title, Price: &price, Highlights: &hl}.Apply(&c)

	assert.Equal(t, "new", c.Title)
	assert.Equal(t, "Ford", c.Make)
	assert.Equal(t, 45000.0, c.Price)
	assert.Equal(t, []string{"/a.jpg"}, c.Images, "images kept when patch has none")
	assert.Empty(t, c.Highlights)

	CarPatch{Images: []string{"/b.jpg", "/c.jpg"}}.Apply(&c)
	assert.Equal(t, []string{"/b.jpg", "/c.jpg"}, c.Images, "images replaced, never merged")
}

func TestCarPatch_Empty(t *testing.T) {
	assert.True(t, CarPatch{}.Empty())
	assert.True(t, CarPatch{Images: []string{}}.Empty())

	s := StatusSold
	assert.False(t, CarPatch{Status: &s}.Empty())
}
