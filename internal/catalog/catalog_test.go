package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorvault/internal/model"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, c.AccrualInterval())

	item, ok := c.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "Mercedes-Benz CLK GTR", item.Name)
	assert.Equal(t, 35, item.GlobalCap)
	assert.Equal(t, model.PoolDrop, item.Pool)

	assert.NotEmpty(t, c.PoolMembers(model.PoolDrop, ""))
	assert.NotEmpty(t, c.PoolMembers(model.PoolNewClient, ""))
	assert.Contains(t, c.Categories(model.PoolLuck), "hypercars")
	assert.Contains(t, c.Categories(model.PoolTuning), "Zagato")

	asset, ok := c.Asset("income_1")
	require.True(t, ok)
	assert.Equal(t, int64(120000), asset.RatePerInterval)
	assert.Equal(t, int64(500000000), asset.MinBalance)
	assert.Len(t, c.Assets("income_property"), 7)

	promo, ok := c.Promo("BetaTest")
	require.True(t, ok)
	assert.True(t, promo.DropCooldownBypass)
	promo, ok = c.Promo("test")
	require.True(t, ok)
	assert.Equal(t, int64(1200000000), promo.Reward)

	assert.True(t, c.HasColor("Bronze"))
	assert.False(t, c.HasColor("Chrome"))
}

func TestPoolMembers(t *testing.T) {
	c, err := Parse([]byte(`
items:
  - {id: 3, name: c, price: 1, cap: 1, pool: luck, category: racing}
  - {id: 1, name: a, price: 1, cap: 1, pool: luck, category: hypercars}
  - {id: 2, name: b, price: 1, cap: 1, pool: luck, category: racing}
  - {id: 9, name: z, price: 1, cap: 1, pool: drop}
`))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, c.PoolMembers(model.PoolLuck, ""))
	assert.Equal(t, []int{2, 3}, c.PoolMembers(model.PoolLuck, "racing"))
	assert.Empty(t, c.PoolMembers(model.PoolLuck, "concepts"))
	assert.Empty(t, c.PoolMembers(model.PoolShowcase, ""))

	members := c.PoolMembers(model.PoolLuck, "")
	members[0] = 100
	assert.Equal(t, []int{1, 2, 3}, c.PoolMembers(model.PoolLuck, ""))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"duplicate item", "items: [{id: 1, cap: 1, pool: drop}, {id: 1, cap: 1, pool: drop}]"},
		{"unknown pool", "items: [{id: 1, cap: 1, pool: garage}]"},
		{"zero cap", "items: [{id: 1, cap: 0, pool: drop}]"},
		{"duplicate asset", "assets: [{id: a}, {id: a}]"},
		{"empty promo", "promos: [{reward: 5}]"},
		{"negative interval", "accrual_interval: -1s"},
		{"malformed", "items: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accrual_interval: 1m\ncolors: [Red]\n"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, c.AccrualInterval())
	assert.Equal(t, []string{"Red"}, c.Colors())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Len(t, c.Colors(), 10)
}
