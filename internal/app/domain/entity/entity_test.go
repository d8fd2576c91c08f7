package entity

import (
	"testing"

	"github.com/nexusrealms/worldcore/internal/apperrors"
)

func TestRequirePlayerOnNonPlayer(t *testing.T) {
	e := New("mob-1", TypeMob, "z1", 0, 0)
	e.Mob = &MobData{}

	_, err := e.RequirePlayer()
	if err == nil {
		t.Fatal("RequirePlayer() on a mob should error")
	}
	ge, ok := apperrors.As(err)
	if !ok || ge.Kind != apperrors.Internal {
		t.Errorf("expected Internal GameError, got %v", err)
	}
}

func TestRequireVitalsOnCombatEntity(t *testing.T) {
	e := New("p1", TypePlayer, "z1", 0, 0)
	e.Vitals = &Vitals{HP: 100, MaxHP: 100, Alive: true}

	v, err := e.RequireVitals()
	if err != nil {
		t.Fatalf("RequireVitals() error = %v", err)
	}
	if v.HP != 100 {
		t.Errorf("HP = %d, want 100", v.HP)
	}
}

func TestIsAliveNonCombatEntity(t *testing.T) {
	e := New("node-1", TypeOreNode, "z1", 0, 0)
	if !e.IsAlive() {
		t.Error("non-combat entity should report alive=true")
	}
}

func TestIsAliveDeadCombatEntity(t *testing.T) {
	e := New("mob-1", TypeMob, "z1", 0, 0)
	e.Vitals = &Vitals{HP: 0, MaxHP: 50, Alive: false}
	if e.IsAlive() {
		t.Error("dead combat entity should report alive=false")
	}
}

func TestWithinRange(t *testing.T) {
	a := New("a", TypePlayer, "z1", 0, 0)
	b := New("b", TypeMob, "z1", 30, 40)

	if !a.WithinRange(b, 50) {
		t.Error("distance 50 should be within range 50")
	}
	if a.WithinRange(b, 49) {
		t.Error("distance 50 should not be within range 49")
	}
}

func TestDecrementDurabilityBreaksAtZero(t *testing.T) {
	item := &EquippedItem{Durability: 1, MaxDurability: 64}
	item.DecrementDurability(1)

	if item.Durability != 0 {
		t.Errorf("Durability = %d, want 0", item.Durability)
	}
	if !item.Broken {
		t.Error("item should be broken once durability reaches 0")
	}
}

func TestStatsAdd(t *testing.T) {
	base := Stats{Str: 10, Def: 5}
	bonus := Stats{Str: 2, HP: 20}

	got := base.Add(bonus)
	want := Stats{Str: 12, Def: 5, HP: 20}
	if got != want {
		t.Errorf("Add() = %+v, want %+v", got, want)
	}
}
