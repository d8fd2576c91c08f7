package zoneruntime

import (
	"math"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
)

// mobMoveSpeed is the fixed per-tick straight-line step a chasing mob takes,
// in tile units. spec.md §4.1 step 4 explicitly rules out path-planning
// beyond this.
const mobMoveSpeed = 2.0

// runMobAI advances every mob's simple aggro state machine one tick
// (spec.md §4.1 step 4): idle -> aggro if a player enters detection radius
// -> melee once within strike radius.
func (r *Runtime) runMobAI(tick uint64) {
	for _, e := range r.Zone.All() {
		if e.Mob == nil || !e.IsAlive() {
			continue
		}
		r.advanceMobAI(e)
	}
}

func (r *Runtime) advanceMobAI(mob *entity.Entity) {
	target := r.nearestAlivePlayer(mob, mob.Mob.DetectionRadius)
	if target == nil {
		mob.Mob.Aggro = entity.AggroIdle
		mob.Combat.TargetID = ""
		return
	}

	mob.Combat.TargetID = target.ID

	if mob.WithinRange(target, mob.Mob.StrikeRadius) {
		mob.Mob.Aggro = entity.AggroMelee
		return
	}

	mob.Mob.Aggro = entity.AggroChasing
	r.stepToward(mob, target)
}

// nearestAlivePlayer finds the closest living player within radius of e
// using the zone's spatial index, falling back to nil if none qualify.
func (r *Runtime) nearestAlivePlayer(e *entity.Entity, radius float64) *entity.Entity {
	candidates := r.Zone.Spatial.QueryRadius(e.X, e.Y, radius)
	var best *entity.Entity
	var bestDist float64
	for _, id := range candidates {
		other, ok := r.Zone.Get(id)
		if !ok || other.Player == nil || !other.IsAlive() {
			continue
		}
		d := e.DistanceSquared(other)
		if best == nil || d < bestDist {
			best, bestDist = other, d
		}
	}
	return best
}

// stepToward moves e a fixed distance toward target along a straight line,
// skipping the move entirely if the destination tile is not walkable.
func (r *Runtime) stepToward(e, target *entity.Entity) {
	dx := target.X - e.X
	dy := target.Y - e.Y
	dist := math.Hypot(dx, dy)
	if dist <= mobMoveSpeed || dist == 0 {
		return
	}

	nx := e.X + dx/dist*mobMoveSpeed
	ny := e.Y + dy/dist*mobMoveSpeed

	if r.Zone.Terrain != nil && !r.Zone.Terrain.Walkable(int(nx), int(ny)) {
		return
	}
	e.X, e.Y = nx, ny
}
