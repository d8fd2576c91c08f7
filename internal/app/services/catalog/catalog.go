// Package catalog loads the read-only game-data registries every Zone
// Runtime consults (items, recipes, loot tables, quests, dungeon rank
// scaling) from JSON files on disk at boot, bundling them into the
// zoneruntime.Catalogs value every runtime shares (spec.md §5 "Catalogs:
// read-only after initialization; no locking required").
package catalog

import (
	"fmt"
	"os"

	domaindungeon "github.com/nexusrealms/worldcore/internal/app/domain/dungeon"
	"github.com/nexusrealms/worldcore/internal/app/domain/item"
	"github.com/nexusrealms/worldcore/internal/app/domain/loot"
	"github.com/nexusrealms/worldcore/internal/app/domain/quest"
	"github.com/nexusrealms/worldcore/internal/app/domain/recipe"
	"github.com/nexusrealms/worldcore/internal/app/domain/technique"
	"github.com/nexusrealms/worldcore/internal/app/services/zoneruntime"
)

// Paths names the JSON file backing each registry. A blank path loads an
// empty registry rather than erroring, so a deployment can omit catalogs it
// doesn't use (e.g. a shard with no dungeons configured).
type Paths struct {
	Items      string
	Recipes    string
	Loot       string
	Quests     string
	Techniques string
	Ranks      string
}

// Bundle is every catalog loaded at boot: the zoneruntime.Catalogs the Zone
// Runtime consults, plus the dungeon rank registry the Dungeon Manager
// consults (not part of zoneruntime.Catalogs since it's dungeon-only).
type Bundle struct {
	Catalogs zoneruntime.Catalogs
	Ranks    *domaindungeon.RankRegistry
}

// Load reads every catalog file named in p and returns the assembled
// Bundle. It fails closed: a present path that fails to parse aborts
// startup rather than running with a partially loaded catalog.
func Load(p Paths) (Bundle, error) {
	items, err := loadItems(p.Items)
	if err != nil {
		return Bundle{}, fmt.Errorf("load item catalog: %w", err)
	}
	recipes, err := loadRecipes(p.Recipes)
	if err != nil {
		return Bundle{}, fmt.Errorf("load recipe registry: %w", err)
	}
	lootReg, err := loadLoot(p.Loot)
	if err != nil {
		return Bundle{}, fmt.Errorf("load loot registry: %w", err)
	}
	quests, err := loadQuests(p.Quests)
	if err != nil {
		return Bundle{}, fmt.Errorf("load quest registry: %w", err)
	}
	techniques, err := loadTechniques(p.Techniques)
	if err != nil {
		return Bundle{}, fmt.Errorf("load technique registry: %w", err)
	}
	ranks, err := loadRanks(p.Ranks)
	if err != nil {
		return Bundle{}, fmt.Errorf("load dungeon rank registry: %w", err)
	}

	return Bundle{
		Catalogs: zoneruntime.Catalogs{
			Items:      items,
			Recipes:    recipes,
			Loot:       lootReg,
			Quests:     quests,
			Techniques: techniques,
		},
		Ranks: ranks,
	}, nil
}

func loadItems(path string) (*item.Catalog, error) {
	if path == "" {
		return item.NewCatalog(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return item.LoadJSON(data)
}

func loadRecipes(path string) (*recipe.Registry, error) {
	if path == "" {
		return recipe.LoadJSON([]byte("[]"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return recipe.LoadJSON(data)
}

func loadLoot(path string) (*loot.Registry, error) {
	if path == "" {
		return loot.LoadJSON([]byte("[]"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return loot.LoadJSON(data)
}

func loadQuests(path string) (*quest.Registry, error) {
	if path == "" {
		return quest.LoadJSON([]byte("[]"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return quest.LoadJSON(data)
}

func loadTechniques(path string) (*technique.Registry, error) {
	if path == "" {
		return technique.LoadJSON([]byte("[]"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return technique.LoadJSON(data)
}

func loadRanks(path string) (*domaindungeon.RankRegistry, error) {
	if path == "" {
		return domaindungeon.NewRankRegistry(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domaindungeon.LoadJSON(data)
}
