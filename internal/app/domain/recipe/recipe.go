// Package recipe is the static Recipe & Profession Registry (C7): recipes
// map to outputs and declare the profession/station/level they require.
// Covers forging, upgrading, and enchanting per spec.md §4.6.
package recipe

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
)

// Kind distinguishes the three station-bound crafting flows of spec.md §4.6.
type Kind string

const (
	KindForge    Kind = "forge"
	KindUpgrade  Kind = "upgrade"
	KindEnchant  Kind = "enchant"
)

// ItemQty is a (tokenId, quantity) pair used for recipe inputs/outputs.
type ItemQty struct {
	TokenID  string
	Quantity uint64
}

// Def is one recipe's static metadata.
type Def struct {
	ID             string
	Kind           Kind
	Profession     string
	StationType    entity.Type
	RequiredLevel  int
	Inputs         []ItemQty
	Output         ItemQty
	CatalystTokenID string // enchant only: the consumable burned alongside the equipped item
	EnchantmentID   string // enchant only: the record appended to the item on success
}

// Registry is the read-only, initialized-once recipe registry.
type Registry struct {
	recipes map[string]Def
}

// NewRegistry constructs a registry from a pre-validated slice of defs.
func NewRegistry(defs []Def) *Registry {
	r := &Registry{recipes: make(map[string]Def, len(defs))}
	for _, d := range defs {
		r.recipes[d.ID] = d
	}
	return r
}

// Get returns a recipe's definition and whether it exists.
func (r *Registry) Get(id string) (Def, bool) {
	d, ok := r.recipes[id]
	return d, ok
}

// Len returns the number of recipes in the registry.
func (r *Registry) Len() int {
	return len(r.recipes)
}

// LoadJSON parses a recipe catalog file shaped as a top-level JSON array.
func LoadJSON(data []byte) (*Registry, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("recipe catalog: expected a top-level JSON array")
	}

	var defs []Def
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		id := value.Get("id")
		if !id.Exists() || id.String() == "" {
			parseErr = fmt.Errorf("recipe catalog: entry missing required field %q", "id")
			return false
		}

		var inputs []ItemQty
		value.Get("inputs").ForEach(func(_, in gjson.Result) bool {
			inputs = append(inputs, ItemQty{
				TokenID:  in.Get("tokenId").String(),
				Quantity: in.Get("quantity").Uint(),
			})
			return true
		})

		defs = append(defs, Def{
			ID:             id.String(),
			Kind:           Kind(value.Get("kind").String()),
			Profession:     value.Get("profession").String(),
			StationType:    entity.Type(value.Get("stationType").String()),
			RequiredLevel:  int(value.Get("requiredLevel").Int()),
			Inputs:         inputs,
			Output: ItemQty{
				TokenID:  value.Get("output.tokenId").String(),
				Quantity: value.Get("output.quantity").Uint(),
			},
			CatalystTokenID: value.Get("catalystTokenId").String(),
			EnchantmentID:   value.Get("enchantmentId").String(),
		})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return NewRegistry(defs), nil
}
