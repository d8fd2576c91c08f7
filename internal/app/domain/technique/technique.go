// Package technique is the static Technique Catalog: named active abilities
// with an essence cost, cooldown, target type, and damage multiplier
// (spec.md §4.3 "Technique cast"; Glossary "Technique"). Runtime cooldown
// state lives on the caster's entity.CombatState; this package only holds
// read-only definitions.
package technique

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// TargetType distinguishes the three targeting modes spec.md §4.3 lists.
type TargetType string

const (
	TargetSelf   TargetType = "self"
	TargetSingle TargetType = "single"
	TargetAOE    TargetType = "aoe"
)

// Def is one technique's static metadata.
type Def struct {
	ID               string
	EssenceCost      int
	CooldownTicks    uint64
	TargetType       TargetType
	DamageMultiplier float64 // added to attacker.str*weaponCoef as spec.md's techniqueMultiplier; 0 for non-damaging techniques
}

// Registry is the read-only, initialized-once technique catalog.
type Registry struct {
	techniques map[string]Def
}

// NewRegistry constructs a registry from a pre-validated slice of defs.
func NewRegistry(defs []Def) *Registry {
	r := &Registry{techniques: make(map[string]Def, len(defs))}
	for _, d := range defs {
		r.techniques[d.ID] = d
	}
	return r
}

// Get returns a technique's definition and whether it exists.
func (r *Registry) Get(id string) (Def, bool) {
	d, ok := r.techniques[id]
	return d, ok
}

// Len returns the number of techniques in the registry.
func (r *Registry) Len() int {
	return len(r.techniques)
}

// LoadJSON parses a technique catalog file shaped as a top-level JSON array.
func LoadJSON(data []byte) (*Registry, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("technique catalog: expected a top-level JSON array")
	}

	var defs []Def
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		id := value.Get("id")
		if !id.Exists() || id.String() == "" {
			parseErr = fmt.Errorf("technique catalog: entry missing required field %q", "id")
			return false
		}

		defs = append(defs, Def{
			ID:               id.String(),
			EssenceCost:      int(value.Get("essenceCost").Int()),
			CooldownTicks:    value.Get("cooldownTicks").Uint(),
			TargetType:       TargetType(value.Get("targetType").String()),
			DamageMultiplier: value.Get("damageMultiplier").Float(),
		})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return NewRegistry(defs), nil
}
