package zoneruntime

import "github.com/nexusrealms/worldcore/internal/app/domain/entity"

// expireTimers runs deferred timer expiry (spec.md §4.1 step 2): active
// effects past their ExpiresAtTick are dropped from every combat entity in
// the zone.
func (r *Runtime) expireTimers(tick uint64) {
	for _, e := range r.Zone.All() {
		switch {
		case e.Player != nil:
			e.Player.ActiveEffects = dropExpired(e.Player.ActiveEffects, tick)
		case e.Mob != nil:
			e.Mob.ActiveEffects = dropExpired(e.Mob.ActiveEffects, tick)
		}
	}
}

func dropExpired(effects []entity.ActiveEffect, tick uint64) []entity.ActiveEffect {
	if len(effects) == 0 {
		return effects
	}
	out := effects[:0]
	for _, eff := range effects {
		if eff.ExpiresAtTick > tick {
			out = append(out, eff)
		}
	}
	return out
}

// effectPercent sums the percent-modifier payload ("pct") across a set of
// active effects, the additive stack CalculateDamage clamps to ±75%.
func effectPercent(effects []entity.ActiveEffect) float64 {
	var total float64
	for _, eff := range effects {
		if v, ok := eff.Payload["pct"]; ok {
			if f, ok := v.(float64); ok {
				total += f
			}
		}
	}
	return total
}
