// Package combat implements the pure damage/leveling/XP-split math used by
// the Zone Runtime's combat resolution (spec.md §4.3, §4.5). It holds no
// state and has no side effects, so the runtime can call it synchronously
// inside a tick without ever crossing a suspension point.
package combat

import (
	"math"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
)

// MaxEffectPercent bounds the additive stacking of buff/debuff percent
// modifiers (spec.md §4.3: "bounded to ±75%").
const MaxEffectPercent = 0.75

// ClampEffectPercent bounds an additive effect-percent stack to ±75%.
func ClampEffectPercent(p float64) float64 {
	if p > MaxEffectPercent {
		return MaxEffectPercent
	}
	if p < -MaxEffectPercent {
		return -MaxEffectPercent
	}
	return p
}

// DamageInput is the full set of inputs to one attack resolution.
type DamageInput struct {
	AttackerStr          float64
	WeaponCoef           float64
	TechniqueMultiplier  float64
	DefenderDef          float64
	DefCoef              float64
	EffectPercent        float64 // additive stack of active-effect modifiers, pre-clamp
	NonDamaging          bool
}

// CalculateDamage applies spec.md §4.3's damage model:
// base = attacker.str*weaponCoef + techniqueMultiplier, reduced by
// defender.def*defCoef, modified by a clamped effect percent, and clamped
// to at least 1 unless the technique is explicitly non-damaging.
func CalculateDamage(in DamageInput) int {
	if in.NonDamaging {
		return 0
	}

	base := in.AttackerStr*in.WeaponCoef + in.TechniqueMultiplier
	reduced := base - in.DefenderDef*in.DefCoef

	pct := ClampEffectPercent(in.EffectPercent)
	modified := reduced * (1 + pct)

	dmg := int(math.Round(modified))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// XPForLevel returns the cumulative XP threshold required to reach level.
// Level 1 requires 0 XP; growth is quadratic, the simplest curve consistent
// with spec.md's "xpForLevel(level+1)" threshold check and its open
// acknowledgment that exact reward numerics are not pinned by the spec.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * (level - 1) * (level - 1)
}

// RecomputeStatsAtLevel applies spec.md §4.3's level-up stat formula:
// stat = round(base * raceModifier * (1 + growthRate*(level-1))).
func RecomputeStatsAtLevel(base entity.Stats, raceModifier, growthRate float64, level int) entity.Stats {
	factor := raceModifier * (1 + growthRate*float64(level-1))
	scale := func(v int) int {
		return int(math.Round(float64(v) * factor))
	}
	return entity.Stats{
		Str:   scale(base.Str),
		Def:   scale(base.Def),
		HP:    scale(base.HP),
		Agi:   scale(base.Agi),
		Int:   scale(base.Int),
		MP:    scale(base.MP),
		Faith: scale(base.Faith),
		Luck:  scale(base.Luck),
	}
}

// TryLevelUp applies XP gain and, per spec.md §4.3, repeatedly levels up
// while xp >= xpForLevel(level+1) and level < maxLevel. Stats are
// recomputed at each new level and the entity is healed to full (policy
// decision recorded in DESIGN.md for the "does level-up restore HP" open
// question). Returns the number of levels gained.
func TryLevelUp(p *entity.PlayerData, v *entity.Vitals, maxLevel int, raceModifier, growthRate float64) int {
	levelsGained := 0
	for p.Level < maxLevel && p.XP >= XPForLevel(p.Level+1) {
		p.Level++
		levelsGained++

		p.EffectiveStats = RecomputeStatsAtLevel(p.BaseStats, raceModifier, growthRate, p.Level)

		if v != nil {
			v.MaxHP = p.EffectiveStats.HP
			v.MaxEssence = p.EffectiveStats.MP
			v.HP = v.MaxHP
			v.Essence = v.MaxEssence
		}
	}
	return levelsGained
}

// PartyXPShare identifies one zone-present party member's liveness at the
// moment a kill is credited.
type PartyXPShare struct {
	AgentID string
	Alive   bool
}

// ComputePartyXP splits baseXP across present party members per spec.md
// §4.3/§9: alive members get a full share, dead members get a half share,
// and a per-extra-member party bonus multiplier (+10% per member beyond the
// first) applies to every share before the alive/dead split.
func ComputePartyXP(baseXP int, members []PartyXPShare) map[string]int {
	out := make(map[string]int, len(members))
	if len(members) == 0 {
		return out
	}

	bonusMultiplier := 1 + 0.10*float64(len(members)-1)

	for _, m := range members {
		share := 1.0
		if !m.Alive {
			share = 0.5
		}
		out[m.AgentID] = int(math.Round(float64(baseXP) * bonusMultiplier * share))
	}
	return out
}
