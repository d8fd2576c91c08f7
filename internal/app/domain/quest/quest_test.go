package quest

import "testing"

func TestLoadJSONKillQuest(t *testing.T) {
	data := []byte(`[{
		"id":"rat_extermination",
		"type":"kill",
		"targetMobName":"Giant Rat",
		"objectiveCount":3,
		"offeredByNpcId":"marcus",
		"turnInNpcId":"marcus",
		"rewardXp":50,
		"rewardCurrency":25
	}]`)

	reg, err := LoadJSON(data)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}

	def, ok := reg.Get("rat_extermination")
	if !ok {
		t.Fatal("expected rat_extermination quest")
	}
	if def.Type != TypeKill || def.ObjectiveCount != 3 || def.RewardXP != 50 {
		t.Errorf("unexpected quest def: %+v", def)
	}
}

func TestPrerequisitesSatisfiedNoPrereq(t *testing.T) {
	reg := NewRegistry(nil)
	def := Def{ID: "q1"}
	if !reg.PrerequisitesSatisfied(def, map[string]bool{}) {
		t.Error("quest with no prerequisite should always be satisfied")
	}
}

func TestPrerequisitesSatisfiedWithPrereq(t *testing.T) {
	reg := NewRegistry(nil)
	def := Def{ID: "q2", PrerequisiteQuestID: "q1"}

	if reg.PrerequisitesSatisfied(def, map[string]bool{}) {
		t.Error("quest with unmet prerequisite should not be satisfied")
	}
	if !reg.PrerequisitesSatisfied(def, map[string]bool{"q1": true}) {
		t.Error("quest with met prerequisite should be satisfied")
	}
}
