// Package quest is the static Quest Catalog (C9): quest definitions and
// their prerequisite DAG (each quest has zero or one prerequisite, per
// spec.md's Glossary "Quest chain"). Runtime progress lives on the player
// entity (entity.QuestProgress); this package only holds read-only
// definitions.
package quest

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/nexusrealms/worldcore/internal/app/domain/recipe"
)

// Type distinguishes the two quest objective kinds spec.md defines.
type Type string

const (
	TypeKill Type = "kill"
	TypeTalk Type = "talk"
)

// Def is one quest's static metadata.
type Def struct {
	ID                  string
	Type                Type
	TargetMobName       string // kill quests
	TargetNPCName       string // talk quests
	ObjectiveCount      int
	OfferedByNPCID      string
	TurnInNPCID         string
	PrerequisiteQuestID string // empty string = no prerequisite
	RewardXP            int
	RewardCurrency      uint64
	RewardItems         []recipe.ItemQty
}

// Registry is the read-only, initialized-once quest catalog.
type Registry struct {
	quests map[string]Def
}

// NewRegistry constructs a registry from a pre-validated slice of defs.
func NewRegistry(defs []Def) *Registry {
	r := &Registry{quests: make(map[string]Def, len(defs))}
	for _, d := range defs {
		r.quests[d.ID] = d
	}
	return r
}

// Get returns a quest's definition and whether it exists.
func (r *Registry) Get(id string) (Def, bool) {
	d, ok := r.quests[id]
	return d, ok
}

// PrerequisitesSatisfied reports whether q's direct prerequisite is present
// in completed; earlier quests in the chain are not checked. A quest with no
// prerequisite is always satisfied.
func (r *Registry) PrerequisitesSatisfied(q Def, completed map[string]bool) bool {
	if q.PrerequisiteQuestID == "" {
		return true
	}
	return completed[q.PrerequisiteQuestID]
}

// LoadJSON parses a quest catalog file shaped as a top-level JSON array.
func LoadJSON(data []byte) (*Registry, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("quest catalog: expected a top-level JSON array")
	}

	var defs []Def
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		id := value.Get("id")
		if !id.Exists() || id.String() == "" {
			parseErr = fmt.Errorf("quest catalog: entry missing required field %q", "id")
			return false
		}

		var items []recipe.ItemQty
		value.Get("rewardItems").ForEach(func(_, it gjson.Result) bool {
			items = append(items, recipe.ItemQty{
				TokenID:  it.Get("tokenId").String(),
				Quantity: it.Get("quantity").Uint(),
			})
			return true
		})

		defs = append(defs, Def{
			ID:                  id.String(),
			Type:                Type(value.Get("type").String()),
			TargetMobName:       value.Get("targetMobName").String(),
			TargetNPCName:       value.Get("targetNpcName").String(),
			ObjectiveCount:      int(value.Get("objectiveCount").Int()),
			OfferedByNPCID:      value.Get("offeredByNpcId").String(),
			TurnInNPCID:         value.Get("turnInNpcId").String(),
			PrerequisiteQuestID: value.Get("prerequisiteQuestId").String(),
			RewardXP:            int(value.Get("rewardXp").Int()),
			RewardCurrency:      value.Get("rewardCurrency").Uint(),
			RewardItems:         items,
		})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return NewRegistry(defs), nil
}
