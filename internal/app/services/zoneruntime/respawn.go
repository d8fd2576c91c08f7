package zoneruntime

import (
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
)

// pendingMobRespawn tracks a dead mob removed from the zone's entity map
// until its respawn tick is reached (spec.md §4.1 step 7, §4.3 point 4).
type pendingMobRespawn struct {
	template *entity.Entity
	atTick   uint64
}

// respawnResourceNodes restores depleted nodes once respawnTicks have
// elapsed (spec.md §4.1 step 6).
func (r *Runtime) respawnResourceNodes(tick uint64) {
	for _, e := range r.Zone.All() {
		if e.ResourceNode == nil || e.ResourceNode.DepletedAtTick == nil {
			continue
		}
		node := e.ResourceNode
		if tick-*node.DepletedAtTick >= node.RespawnTicks {
			node.Charges = node.MaxCharges
			node.DepletedAtTick = nil
		}
	}
}

// scheduleMobRespawn removes a dead mob from the zone's entity map and
// queues it as the template from which a fresh copy is inserted at
// tick+mob.RespawnTicks.
func (r *Runtime) scheduleMobRespawn(dead *entity.Entity, tick uint64) {
	r.Zone.Remove(dead.ID)

	respawnAt := tick + dead.Mob.RespawnTicks
	r.pendingMobRespawns = append(r.pendingMobRespawns, pendingMobRespawn{
		template: dead,
		atTick:   respawnAt,
	})
}

// respawnMobs re-inserts mobs whose respawn tick has been reached, freshly
// spawned at full vitals at their original spawn position (spec.md §4.1
// step 7).
func (r *Runtime) respawnMobs(tick uint64) {
	if len(r.pendingMobRespawns) == 0 {
		return
	}

	remaining := r.pendingMobRespawns[:0]
	for _, pending := range r.pendingMobRespawns {
		if tick < pending.atTick {
			remaining = append(remaining, pending)
			continue
		}

		fresh := entity.New(pending.template.ID, pending.template.Type, r.Zone.ID, pending.template.Mob.SpawnX, pending.template.Mob.SpawnY)
		fresh.Vitals = &entity.Vitals{
			HP: pending.template.Vitals.MaxHP, MaxHP: pending.template.Vitals.MaxHP,
			Essence: pending.template.Vitals.MaxEssence, MaxEssence: pending.template.Vitals.MaxEssence,
			Alive: true,
		}
		fresh.Combat = &entity.CombatState{
			AttackCooldownTicks: pending.template.Combat.AttackCooldownTicks,
			WeaponCoef:          pending.template.Combat.WeaponCoef,
			DefCoef:             pending.template.Combat.DefCoef,
		}
		mobCopy := *pending.template.Mob
		mobCopy.Aggro = entity.AggroIdle
		mobCopy.ActiveEffects = nil
		fresh.Mob = &mobCopy

		_ = r.Zone.Insert(fresh)
	}
	r.pendingMobRespawns = remaining
}
