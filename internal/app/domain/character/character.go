// Package character defines the durable per-wallet character record (C15):
// saved on logout, loaded on login/spawn (spec.md §4.10).
package character

import (
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

// Record is the persisted snapshot of a player entity, keyed by wallet.
type Record struct {
	WalletAddress     string
	Name              string
	Level             int
	XP                int
	RaceID            string
	ClassID           string
	ZoneID            string
	X                 float64
	Y                 float64
	Kills             int
	CompletedQuests   []string
	LearnedTechniques []string
	LearnedProfessions []string
}

// Snapshot captures the fields spec.md §4.10 names from a live player
// entity, for persistence on logout.
func Snapshot(e *entity.Entity, name string) (*Record, error) {
	p, err := e.RequirePlayer()
	if err != nil {
		return nil, apperrors.InternalError("cannot snapshot a non-player entity", err)
	}

	return &Record{
		WalletAddress:      p.WalletAddress,
		Name:               name,
		Level:              p.Level,
		XP:                 p.XP,
		RaceID:             p.RaceID,
		ClassID:            p.ClassID,
		ZoneID:             e.ZoneID,
		X:                  e.X,
		Y:                  e.Y,
		Kills:              p.Kills,
		CompletedQuests:    append([]string(nil), p.CompletedQuests...),
		LearnedTechniques:  append([]string(nil), p.LearnedTechniques...),
		LearnedProfessions: append([]string(nil), p.LearnedProfessions...),
	}, nil
}

// Spawn constructs a fresh player entity from a persisted record, for
// insertion into the recorded zone at the recorded position on login.
func (r *Record) Spawn(entityID string, baseStats entity.Stats) *entity.Entity {
	e := entity.New(entityID, entity.TypePlayer, r.ZoneID, r.X, r.Y)
	e.Vitals = &entity.Vitals{Alive: true}
	e.Player = &entity.PlayerData{
		WalletAddress:      r.WalletAddress,
		Level:              r.Level,
		XP:                 r.XP,
		RaceID:             r.RaceID,
		ClassID:            r.ClassID,
		Kills:              r.Kills,
		BaseStats:          baseStats,
		EffectiveStats:     baseStats,
		Equipment:          make(map[entity.EquipSlot]*entity.EquippedItem),
		CompletedQuests:    append([]string(nil), r.CompletedQuests...),
		LearnedTechniques:  append([]string(nil), r.LearnedTechniques...),
		LearnedProfessions: append([]string(nil), r.LearnedProfessions...),
	}
	return e
}
