package character

import (
	"testing"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
)

func TestSnapshotThenSpawnRoundTrips(t *testing.T) {
	original := entity.New("p1", entity.TypePlayer, "z1", 150, 200)
	original.Vitals = &entity.Vitals{HP: 100, MaxHP: 100, Alive: true}
	original.Player = &entity.PlayerData{
		WalletAddress:      "wallet-1",
		Level:              12,
		XP:                 4500,
		RaceID:             "human",
		ClassID:            "warrior",
		Kills:              7,
		CompletedQuests:    []string{"rat_extermination"},
		LearnedTechniques:  []string{"slash"},
		LearnedProfessions: []string{"mining"},
	}

	rec, err := Snapshot(original, "Aria")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if rec.ZoneID != "z1" || rec.X != 150 || rec.Y != 200 {
		t.Errorf("Snapshot() position = (%s,%v,%v), want z1,150,200", rec.ZoneID, rec.X, rec.Y)
	}

	respawned := rec.Spawn("p1-new", entity.Stats{Str: 10})
	if respawned.ZoneID != "z1" || respawned.X != 150 || respawned.Y != 200 {
		t.Errorf("Spawn() position mismatch: %+v", respawned)
	}
	if respawned.Player.Level != 12 || respawned.Player.XP != 4500 {
		t.Errorf("Spawn() level/xp mismatch: %+v", respawned.Player)
	}
	if len(respawned.Player.CompletedQuests) != 1 || respawned.Player.CompletedQuests[0] != "rat_extermination" {
		t.Errorf("Spawn() completedQuests mismatch: %v", respawned.Player.CompletedQuests)
	}
}

func TestSnapshotRejectsNonPlayer(t *testing.T) {
	mob := entity.New("m1", entity.TypeMob, "z1", 0, 0)
	mob.Mob = &entity.MobData{}

	if _, err := Snapshot(mob, "mob"); err == nil {
		t.Fatal("Snapshot() should reject a non-player entity")
	}
}
