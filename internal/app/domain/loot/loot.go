// Package loot is the static Loot Tables catalog (C8): mob -> (auto-drops,
// skinning-drops, currency range) with probabilistic rolls, consumed by the
// death-handling path in the Zone Runtime (spec.md §4.3).
package loot

import (
	"fmt"
	"math/rand"

	"github.com/tidwall/gjson"
)

// Drop is one possible item drop: chance in [0,1], and a quantity range.
type Drop struct {
	TokenID string
	Chance  float64
	MinQty  uint64
	MaxQty  uint64
}

// RolledDrop is the outcome of one Drop's roll succeeding.
type RolledDrop struct {
	TokenID  string
	Quantity uint64
}

// Table is one mob template's loot definition.
type Table struct {
	MobTemplateID string
	AutoDrops     []Drop
	SkinningDrops []Drop
	CurrencyMin   uint64
	CurrencyMax   uint64
}

// RollAutoDrops rolls every auto-drop entry independently using rng,
// returning the subset that hit.
func (t Table) RollAutoDrops(rng *rand.Rand) []RolledDrop {
	return rollDrops(t.AutoDrops, rng)
}

// RollSkinningDrops rolls every skinning-drop entry independently.
func (t Table) RollSkinningDrops(rng *rand.Rand) []RolledDrop {
	return rollDrops(t.SkinningDrops, rng)
}

// RollCurrency rolls a uniform currency amount in [CurrencyMin, CurrencyMax].
func (t Table) RollCurrency(rng *rand.Rand) uint64 {
	if t.CurrencyMax <= t.CurrencyMin {
		return t.CurrencyMin
	}
	span := t.CurrencyMax - t.CurrencyMin + 1
	return t.CurrencyMin + uint64(rng.Int63n(int64(span)))
}

func rollDrops(drops []Drop, rng *rand.Rand) []RolledDrop {
	var out []RolledDrop
	for _, d := range drops {
		if rng.Float64() >= d.Chance {
			continue
		}
		qty := d.MinQty
		if d.MaxQty > d.MinQty {
			qty += uint64(rng.Int63n(int64(d.MaxQty - d.MinQty + 1)))
		}
		out = append(out, RolledDrop{TokenID: d.TokenID, Quantity: qty})
	}
	return out
}

// Registry is the read-only, initialized-once loot table registry.
type Registry struct {
	tables map[string]Table
}

// NewRegistry constructs a registry from a pre-validated slice of tables.
func NewRegistry(tables []Table) *Registry {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, tb := range tables {
		r.tables[tb.MobTemplateID] = tb
	}
	return r
}

// Get returns a mob template's loot table and whether it exists.
func (r *Registry) Get(mobTemplateID string) (Table, bool) {
	t, ok := r.tables[mobTemplateID]
	return t, ok
}

// LoadJSON parses a loot table file shaped as a top-level JSON array.
func LoadJSON(data []byte) (*Registry, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("loot catalog: expected a top-level JSON array")
	}

	var tables []Table
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		mobID := value.Get("mobTemplateId")
		if !mobID.Exists() || mobID.String() == "" {
			parseErr = fmt.Errorf("loot catalog: entry missing required field %q", "mobTemplateId")
			return false
		}

		tables = append(tables, Table{
			MobTemplateID: mobID.String(),
			AutoDrops:     parseDrops(value.Get("autoDrops")),
			SkinningDrops: parseDrops(value.Get("skinningDrops")),
			CurrencyMin:   value.Get("currencyMin").Uint(),
			CurrencyMax:   value.Get("currencyMax").Uint(),
		})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return NewRegistry(tables), nil
}

func parseDrops(arr gjson.Result) []Drop {
	var drops []Drop
	arr.ForEach(func(_, d gjson.Result) bool {
		drops = append(drops, Drop{
			TokenID: d.Get("tokenId").String(),
			Chance:  d.Get("chance").Float(),
			MinQty:  d.Get("minQty").Uint(),
			MaxQty:  d.Get("maxQty").Uint(),
		})
		return true
	})
	return drops
}
