package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"motorvault/internal/model"
)

//go:embed default.yaml
var defaultCatalog []byte

// DefaultAccrualInterval applies when the catalog file does not set one.
const DefaultAccrualInterval = 10 * time.Second

type file struct {
	AccrualInterval time.Duration       `yaml:"accrual_interval"`
	Colors          []string            `yaml:"colors"`
	Items           []model.CatalogItem `yaml:"items"`
	Assets          []model.IncomeAsset `yaml:"assets"`
	Promos          []model.Promo       `yaml:"promos"`
}

// Catalog is the immutable reference data of the economy. It is built once
// at startup and shared read-only by every engine.
type Catalog struct {
	interval time.Duration
	items    map[int]model.CatalogItem
	pools    map[model.Pool][]int
	assets   map[string]model.IncomeAsset
	assetIDs []string
	promos   map[string]model.Promo
	colors   []string
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path selects the embedded default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return build(f)
}

func build(f file) (*Catalog, error) {
	c := &Catalog{
		interval: f.AccrualInterval,
		items:    make(map[int]model.CatalogItem, len(f.Items)),
		pools:    make(map[model.Pool][]int),
		assets:   make(map[string]model.IncomeAsset, len(f.Assets)),
		promos:   make(map[string]model.Promo, len(f.Promos)),
		colors:   slices.Clone(f.Colors),
	}
	if c.interval == 0 {
		c.interval = DefaultAccrualInterval
	}
	if c.interval < 0 {
		return nil, fmt.Errorf("accrual_interval must be positive, got %s", c.interval)
	}

	for _, it := range f.Items {
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id", it.ID)
		}
		if !it.Pool.Valid() {
			return nil, fmt.Errorf("item %d: unknown pool %q", it.ID, it.Pool)
		}
		if it.GlobalCap <= 0 {
			return nil, fmt.Errorf("item %d: cap must be positive", it.ID)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("item %d: negative price", it.ID)
		}
		c.items[it.ID] = it
		c.pools[it.Pool] = append(c.pools[it.Pool], it.ID)
	}
	for pool := range c.pools {
		slices.Sort(c.pools[pool])
	}

	for _, a := range f.Assets {
		if a.ID == "" {
			return nil, errors.New("asset with empty id")
		}
		if _, dup := c.assets[a.ID]; dup {
			return nil, fmt.Errorf("asset %s: duplicate id", a.ID)
		}
		if a.Price < 0 || a.RatePerInterval < 0 || a.MinBalance < 0 {
			return nil, fmt.Errorf("asset %s: negative amount", a.ID)
		}
		c.assets[a.ID] = a
		c.assetIDs = append(c.assetIDs, a.ID)
	}

	for _, p := range f.Promos {
		if p.Code == "" {
			return nil, errors.New("promo with empty code")
		}
		if _, dup := c.promos[p.Code]; dup {
			return nil, fmt.Errorf("promo %s: duplicate code", p.Code)
		}
		c.promos[p.Code] = p
	}
	return c, nil
}

func (c *Catalog) AccrualInterval() time.Duration {
	return c.interval
}

func (c *Catalog) Lookup(itemID int) (model.CatalogItem, bool) {
	it, ok := c.items[itemID]
	return it, ok
}

// PoolMembers returns the item ids of a pool in ascending order, restricted
// to category when it is non-empty. The result is a fresh slice.
func (c *Catalog) PoolMembers(pool model.Pool, category string) []int {
	ids := c.pools[pool]
	if category == "" {
		return slices.Clone(ids)
	}
	var out []int
	for _, id := range ids {
		if c.items[id].Category == category {
			out = append(out, id)
		}
	}
	return out
}

// Categories lists the distinct categories of a pool, sorted.
func (c *Catalog) Categories(pool model.Pool) []string {
	var out []string
	for _, id := range c.pools[pool] {
		if cat := c.items[id].Category; cat != "" && !slices.Contains(out, cat) {
			out = append(out, cat)
		}
	}
	slices.Sort(out)
	return out
}

func (c *Catalog) Asset(id string) (model.IncomeAsset, bool) {
	a, ok := c.assets[id]
	return a, ok
}

// Assets returns the assets of a category in catalog order, or every asset
// when category is empty.
func (c *Catalog) Assets(category string) []model.IncomeAsset {
	var out []model.IncomeAsset
	for _, id := range c.assetIDs {
		if a := c.assets[id]; category == "" || a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func (c *Catalog) Promo(code string) (model.Promo, bool) {
	p, ok := c.promos[code]
	return p, ok
}

func (c *Catalog) Colors() []string {
	return slices.Clone(c.colors)
}

func (c *Catalog) HasColor(color string) bool {
	return slices.Contains(c.colors, color)
}
