// Package item is the static Item Catalog (C6): metadata for every item id,
// read-only after initialization (spec.md §5 "Catalogs: read-only after
// initialization; no locking required"). Catalog files are schema-light
// JSON loaded with gjson rather than committing to a fixed struct tag set
// ahead of validation, since new item categories are added far more often
// than the loader itself changes.
package item

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
)

// Category classifies an item for gating and display purposes.
type Category string

const (
	CategoryWeapon      Category = "weapon"
	CategoryArmor       Category = "armor"
	CategoryTool        Category = "tool"
	CategoryResource    Category = "resource"
	CategoryConsumable  Category = "consumable"
	CategoryQuestItem   Category = "quest"
	CategoryKey         Category = "key"
	CategoryCatalyst    Category = "catalyst"
)

// Def is one item's static metadata.
type Def struct {
	ID            string
	Category      Category
	Slot          entity.EquipSlot // zero value for non-equippable items
	BaseStats     entity.Stats
	MaxDurability int
	Price         uint64
	Tier          int // used for tool-vs-node tier gating (§4.4)
}

// Catalog is the read-only, initialized-once item catalog.
type Catalog struct {
	items map[string]Def
}

// NewCatalog constructs a catalog from a pre-validated slice of defs, used
// by tests and by LoadJSON.
func NewCatalog(defs []Def) *Catalog {
	c := &Catalog{items: make(map[string]Def, len(defs))}
	for _, d := range defs {
		c.items[d.ID] = d
	}
	return c
}

// Get returns an item's definition and whether it exists.
func (c *Catalog) Get(id string) (Def, bool) {
	d, ok := c.items[id]
	return d, ok
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}

// LoadJSON parses a catalog file shaped as a top-level JSON array of item
// objects. Each entry requires at minimum "id" and "category"; all other
// fields default to their zero value.
func LoadJSON(data []byte) (*Catalog, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("item catalog: expected a top-level JSON array")
	}

	var defs []Def
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		id := value.Get("id")
		if !id.Exists() || id.String() == "" {
			parseErr = fmt.Errorf("item catalog: entry missing required field %q", "id")
			return false
		}
		category := value.Get("category")
		if !category.Exists() || category.String() == "" {
			parseErr = fmt.Errorf("item catalog: entry %q missing required field %q", id.String(), "category")
			return false
		}

		def := Def{
			ID:            id.String(),
			Category:      Category(category.String()),
			Slot:          entity.EquipSlot(value.Get("slot").String()),
			MaxDurability: int(value.Get("maxDurability").Int()),
			Price:         value.Get("price").Uint(),
			Tier:          int(value.Get("tier").Int()),
			BaseStats: entity.Stats{
				Str:   int(value.Get("baseStats.str").Int()),
				Def:   int(value.Get("baseStats.def").Int()),
				HP:    int(value.Get("baseStats.hp").Int()),
				Agi:   int(value.Get("baseStats.agi").Int()),
				Int:   int(value.Get("baseStats.int").Int()),
				MP:    int(value.Get("baseStats.mp").Int()),
				Faith: int(value.Get("baseStats.faith").Int()),
				Luck:  int(value.Get("baseStats.luck").Int()),
			},
		}
		defs = append(defs, def)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return NewCatalog(defs), nil
}
