package service

import "motorvault/internal/model"

// Menu is the browsable part of the catalog: what can be bought, which luck
// categories exist and the paint palette.
type Menu struct {
	Showcase       []model.CatalogItem            `json:"showcase"`
	Tuning         map[string][]model.CatalogItem `json:"tuning"`
	LuckCategories []string                       `json:"luck_categories"`
	Assets         []model.IncomeAsset            `json:"assets"`
	Colors         []string                       `json:"colors"`
}

func (e *Economy) Menu() *Menu {
	m := &Menu{
		Showcase:       e.items(model.PoolShowcase, ""),
		Tuning:         make(map[string][]model.CatalogItem),
		LuckCategories: e.catalog.Categories(model.PoolLuck),
		Assets:         e.catalog.Assets(""),
		Colors:         e.catalog.Colors(),
	}
	for _, brand := range e.catalog.Categories(model.PoolTuning) {
		m.Tuning[brand] = e.items(model.PoolTuning, brand)
	}
	return m
}

func (e *Economy) items(pool model.Pool, category string) []model.CatalogItem {
	ids := e.catalog.PoolMembers(pool, category)
	out := make([]model.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := e.catalog.Lookup(id); ok {
			out = append(out, item)
		}
	}
	return out
}
