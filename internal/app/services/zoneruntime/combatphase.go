package zoneruntime

import (
	"context"

	"github.com/nexusrealms/worldcore/internal/app/domain/combat"
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/app/domain/loot"
	"github.com/nexusrealms/worldcore/internal/app/domain/quest"
)

// resolveCombat runs spec.md §4.1 step 5: auto-attacks for every engaged
// pair whose cooldown is ready, then applies death handling for anyone
// whose HP reached 0 this tick.
func (r *Runtime) resolveCombat(ctx context.Context, tick uint64) {
	var deaths []*entity.Entity

	for _, attacker := range r.Zone.All() {
		if attacker.Combat == nil || !attacker.IsAlive() {
			continue
		}
		if attacker.Combat.TargetID == "" || tick < attacker.Combat.NextAutoAttackAtTick {
			continue
		}

		defender, ok := r.Zone.Get(attacker.Combat.TargetID)
		if !ok || !defender.IsAlive() {
			attacker.Combat.TargetID = ""
			continue
		}
		if !attacker.WithinRange(defender, attackRange(attacker)) {
			continue
		}

		r.autoAttack(tick, attacker, defender)
		if defender.Vitals.HP <= 0 {
			deaths = append(deaths, defender)
		}
	}

	for _, victim := range deaths {
		r.handleDeath(ctx, tick, victim)
	}
}

func attackRange(e *entity.Entity) float64 {
	if e.Mob != nil {
		return e.Mob.StrikeRadius
	}
	return 5.0
}

// autoAttack resolves one attack and returns the damage dealt.
func (r *Runtime) autoAttack(tick uint64, attacker, defender *entity.Entity) int {
	var effects []entity.ActiveEffect
	switch {
	case attacker.Player != nil:
		effects = attacker.Player.ActiveEffects
	case attacker.Mob != nil:
		effects = attacker.Mob.ActiveEffects
	}

	dmg := combat.CalculateDamage(combat.DamageInput{
		AttackerStr:   attackerStr(attacker),
		WeaponCoef:    attacker.Combat.WeaponCoef,
		DefenderDef:   defenderDef(defender),
		DefCoef:       attacker.Combat.DefCoef,
		EffectPercent: effectPercent(effects),
	})

	defender.Vitals.HP -= dmg
	if defender.Vitals.HP < 0 {
		defender.Vitals.HP = 0
	}
	attacker.Combat.NextAutoAttackAtTick = tick + attacker.Combat.AttackCooldownTicks

	r.log.CombatResolved(tick, attacker.ID, defender.ID, dmg, defender.Vitals.HP <= 0)
	return dmg
}

func attackerStr(e *entity.Entity) float64 {
	if e.Player != nil {
		return float64(e.Player.EffectiveStats.Str)
	}
	return float64(e.Mob.Level) * 2
}

func defenderDef(e *entity.Entity) float64 {
	if e.Player != nil {
		return float64(e.Player.EffectiveStats.Def)
	}
	return float64(e.Mob.Level)
}

// handleDeath applies spec.md §4.3 "Death" for one victim whose HP reached 0
// this tick.
func (r *Runtime) handleDeath(ctx context.Context, tick uint64, victim *entity.Entity) {
	victim.Vitals.Alive = false

	switch {
	case victim.Mob != nil:
		r.handleMobDeath(ctx, tick, victim)
	case victim.Player != nil:
		r.handlePlayerDeath(tick, victim)
	}
}

func (r *Runtime) handleMobDeath(ctx context.Context, tick uint64, mob *entity.Entity) {
	killer := r.findAttackerOf(mob.ID)

	if killer != nil && killer.Player != nil {
		if table, ok := r.catalogs.Loot.Get(mob.Mob.TemplateID); ok {
			r.rollAndMintLoot(ctx, tick, killer, table)
		}
		r.awardKillXP(tick, killer, mobXPValue(mob))
		r.progressKillQuests(killer, mob.Mob.TemplateID)
	}

	killerID := ""
	if killer != nil {
		killerID = killer.ID
	}
	r.Zone.LogEvent("mob_killed", map[string]any{"mobId": mob.ID, "killerId": killerID})
	if mob.Mob.NoRespawn {
		r.Zone.Remove(mob.ID)
		return
	}
	r.scheduleMobRespawn(mob, tick)
}

// findAttackerOf scans for the entity currently targeting targetID, used to
// identify a mob's killer (the runtime does not track per-attack history).
func (r *Runtime) findAttackerOf(targetID string) *entity.Entity {
	for _, e := range r.Zone.All() {
		if e.Combat != nil && e.Combat.TargetID == targetID && e.IsAlive() {
			return e
		}
	}
	return nil
}

// mobXPValue is a simple level-scaled XP award; spec.md leaves the exact
// numerics open (see domain/combat.XPForLevel's documented assumption).
// Danger-gate dungeon spawns carry a non-zero XPMultiplier (spec.md §4.8
// "danger-gate multipliers for HP and XP").
func mobXPValue(mob *entity.Entity) int {
	base := mob.Mob.Level * 20
	if mob.Mob.XPMultiplier <= 0 {
		return base
	}
	return int(float64(base) * mob.Mob.XPMultiplier)
}

// rollAndMintLoot rolls auto-drops and mints them to the killer's wallet.
// spec.md §4.3 point 2: "asynchronously; failures are logged and not
// retried — drops are best-effort", so each mint runs in its own goroutine
// and never blocks the tick that killed the mob.
func (r *Runtime) rollAndMintLoot(ctx context.Context, tick uint64, killer *entity.Entity, table loot.Table) {
	wallet := killer.Player.WalletAddress
	drops := table.RollAutoDrops(r.rng)
	currency := table.RollCurrency(r.rng)

	for _, d := range drops {
		d := d
		go func() {
			callCtx, cancel := context.WithTimeout(context.Background(), r.cfg.Ledger.LedgerCallTimeout())
			defer cancel()
			handle, err := r.ledger.MintItem(callCtx, wallet, d.TokenID, d.Quantity)
			r.recordLedgerCall(tick, ledger.OpMintItem, wallet, d.TokenID, d.Quantity, handle, err)
			if err != nil {
				r.log.LedgerInconsistency(tick, "mintItem:loot", wallet, err)
			}
		}()
	}

	if currency > 0 {
		go func() {
			callCtx, cancel := context.WithTimeout(context.Background(), r.cfg.Ledger.LedgerCallTimeout())
			defer cancel()
			handle, err := r.ledger.MintCurrency(callCtx, wallet, currency)
			r.recordLedgerCall(tick, ledger.OpMintCurrency, wallet, "", currency, handle, err)
			if err != nil {
				r.log.LedgerInconsistency(tick, "mintCurrency:loot", wallet, err)
			}
		}()
	}
}

func (r *Runtime) progressKillQuests(killer *entity.Entity, mobTemplateID string) {
	for i := range killer.Player.ActiveQuests {
		qp := &killer.Player.ActiveQuests[i]
		def, ok := r.catalogs.Quests.Get(qp.QuestID)
		if !ok || def.Type != quest.TypeKill || def.TargetMobName != mobTemplateID {
			continue
		}
		if qp.Progress < def.ObjectiveCount {
			qp.Progress++
		}
	}
}

// handlePlayerDeath clears the player's active effects and combat target and
// logs player_died; the inventory is left untouched. Neither this runtime nor
// the dispatcher moves a dead player to a respawn point, restores its HP, or
// applies a respawn delay: the entity stays in this zone as it is.
func (r *Runtime) handlePlayerDeath(tick uint64, player *entity.Entity) {
	player.Player.ActiveEffects = nil
	player.Combat.TargetID = ""
	r.Zone.LogEvent("player_died", map[string]any{"entityId": player.ID})
}

func (r *Runtime) awardKillXP(tick uint64, killer *entity.Entity, baseXP int) {
	members := []combat.PartyXPShare{{AgentID: killer.ID, Alive: true}}
	if r.party != nil {
		for _, id := range r.party.PartyMembersInZone(killer.ID, r.Zone.ID) {
			if id == killer.ID {
				continue
			}
			if e, ok := r.Zone.Get(id); ok && e.Player != nil {
				members = append(members, combat.PartyXPShare{AgentID: id, Alive: e.IsAlive()})
			}
		}
	}

	shares := combat.ComputePartyXP(baseXP, members)
	for id, xp := range shares {
		e, ok := r.Zone.Get(id)
		if !ok || e.Player == nil {
			continue
		}
		e.Player.XP += xp
		gained := combat.TryLevelUp(e.Player, e.Vitals, r.cfg.Tick.MaxLevel, 1.0, r.cfg.Tick.XPGrowthRate)
		if gained > 0 {
			r.Zone.LogEvent("level_up", map[string]any{"entityId": id, "newLevel": e.Player.Level})
		}
	}
}
