package flags

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rollout(p float64) *float64 {
	return &p
}

func TestNewCacheIsUnloaded(t *testing.T) {
	c := NewCache()

	assert.False(t, c.Loaded())
	assert.Equal(t, 0, c.Size())

	_, ok := c.Lookup("anything")
	assert.False(t, ok)
}

func TestCacheReplace(t *testing.T) {
	c := NewCache()

	c.Replace([]Definition{
		{Key: "beta", Active: true, IsSimpleFlag: true, RolloutPercentage: rollout(50)},
		{Key: "gamma", Active: false, IsSimpleFlag: false},
	})

	assert.True(t, c.Loaded())
	assert.Equal(t, 2, c.Size())
	assert.False(t, c.LastLoadedAt().IsZero())

	def, ok := c.Lookup("beta")
	require.True(t, ok)
	assert.True(t, def.Active)
	assert.Equal(t, 50.0, *def.RolloutPercentage)
}

func TestCacheReplaceIsWholesale(t *testing.T) {
	c := NewCache()

	c.Replace([]Definition{{Key: "old", Active: true}})
	c.Replace([]Definition{{Key: "new", Active: true}})

	_, ok := c.Lookup("old")
	assert.False(t, ok)
	_, ok = c.Lookup("new")
	assert.True(t, ok)
}

func TestCacheInvalidateRetainsDefinitions(t *testing.T) {
	c := NewCache()

	c.Replace([]Definition{{Key: "beta", Active: true}})
	c.Invalidate()

	assert.False(t, c.Loaded())

	// Stale-but-available: definitions remain readable.
	_, ok := c.Lookup("beta")
	assert.True(t, ok)
}

func TestDefinitionsResponseObjectForm(t *testing.T) {
	var resp definitionsResponse
	err := json.Unmarshal([]byte(`{"count":1,"results":[{"key":"beta","active":true,"is_simple_flag":true,"rollout_percentage":25}]}`), &resp)

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "beta", resp.Results[0].Key)
	assert.Equal(t, 25.0, *resp.Results[0].RolloutPercentage)
}

func TestDefinitionsResponseArrayForm(t *testing.T) {
	var resp definitionsResponse
	err := json.Unmarshal([]byte(`[{"key":"beta","active":true,"is_simple_flag":false}]`), &resp)

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].IsSimpleFlag)
	assert.Nil(t, resp.Results[0].RolloutPercentage)
}
