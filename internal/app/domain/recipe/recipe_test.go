package recipe

import "testing"

func TestLoadJSONForgeRecipe(t *testing.T) {
	data := []byte(`[{
		"id":"iron_sword",
		"kind":"forge",
		"profession":"blacksmithing",
		"stationType":"forge",
		"requiredLevel":5,
		"inputs":[{"tokenId":"iron_ore","quantity":3},{"tokenId":"wood","quantity":1}],
		"output":{"tokenId":"iron_sword","quantity":1}
	}]`)

	reg, err := LoadJSON(data)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}

	def, ok := reg.Get("iron_sword")
	if !ok {
		t.Fatal("expected iron_sword recipe")
	}
	if def.Kind != KindForge || len(def.Inputs) != 2 || def.Output.Quantity != 1 {
		t.Errorf("unexpected recipe def: %+v", def)
	}
}

func TestLoadJSONMissingID(t *testing.T) {
	data := []byte(`[{"kind":"forge"}]`)
	if _, err := LoadJSON(data); err == nil {
		t.Fatal("LoadJSON() should error on entry missing id")
	}
}

func TestRegistryLen(t *testing.T) {
	reg := NewRegistry([]Def{{ID: "a"}, {ID: "b"}})
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}
