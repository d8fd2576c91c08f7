// Package dungeon defines the DungeonInstance value type and rank-scaling
// table (C13): an ephemeral zone spawned to isolate one party's encounter.
package dungeon

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Rank is a dungeon gate's difficulty tier.
type Rank string

const (
	RankE Rank = "E"
	RankD Rank = "D"
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

// Position is a 2D tile coordinate.
type Position struct {
	X float64
	Y float64
}

// Instance is a derived zone spawned on gate open and torn down on clear,
// timeout, or full depopulation (spec.md §3 "DungeonInstance").
type Instance struct {
	InstanceID     string
	GateRank       Rank
	IsDangerGate   bool
	SourceZoneID   string
	SourcePosition Position
	PartyID        string
	MemberIDs      []string
	DungeonZoneID  string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	Cleared        bool
	TotalMobs      int
	RemainingMobs  int
}

// ClearReason identifies why an instance should be cleaned up.
type ClearReason string

const (
	ClearReasonNone         ClearReason = ""
	ClearReasonCleared      ClearReason = "cleared"
	ClearReasonTimeout      ClearReason = "timeout"
	ClearReasonDepopulated  ClearReason = "depopulated"
)

// EvaluateCleanup reports whether the instance should be torn down at `now`
// and why, per spec.md §4.8: cleared when RemainingMobs==0, timed out at
// now >= ExpiresAt (B4: not before), depopulated when no members remain.
func (i *Instance) EvaluateCleanup(now time.Time) ClearReason {
	if i.RemainingMobs <= 0 {
		return ClearReasonCleared
	}
	if len(i.MemberIDs) == 0 {
		return ClearReasonDepopulated
	}
	if !now.Before(i.ExpiresAt) {
		return ClearReasonTimeout
	}
	return ClearReasonNone
}

// RemoveMember removes agentID from the instance's tracked member list,
// e.g. when a player disconnects or explicitly leaves the dungeon.
func (i *Instance) RemoveMember(agentID string) {
	for idx, m := range i.MemberIDs {
		if m == agentID {
			i.MemberIDs = append(i.MemberIDs[:idx], i.MemberIDs[idx+1:]...)
			return
		}
	}
}

// RankScaling describes how a gate rank scales mob counts, stats, and time
// limits. Danger gates apply HPMultiplier/XPMultiplier on top of these base
// values (spec.md §4.8 "danger-gate multipliers for HP and XP").
type RankScaling struct {
	Rank          Rank
	RequiredLevel int
	KeyTokenID    string
	MinMobs       int
	MaxMobs       int
	MobHP         int
	MobLevel      int
	BossCount     int
	TimeLimit     time.Duration
	DangerHPMultiplier float64
	DangerXPMultiplier float64
}

// EffectiveMobHP applies the danger-gate HP multiplier when isDanger is true.
func (s RankScaling) EffectiveMobHP(isDanger bool) int {
	if !isDanger || s.DangerHPMultiplier <= 0 {
		return s.MobHP
	}
	return int(float64(s.MobHP) * s.DangerHPMultiplier)
}

// EffectiveXPMultiplier returns the XP multiplier applied to kills within
// the instance: 1.0 for a normal gate, DangerXPMultiplier for a danger gate.
func (s RankScaling) EffectiveXPMultiplier(isDanger bool) float64 {
	if !isDanger || s.DangerXPMultiplier <= 0 {
		return 1.0
	}
	return s.DangerXPMultiplier
}

// RankRegistry is the read-only, initialized-once table of per-rank scaling
// data (min/max mobs, HP, level, boss count, time limit, danger multipliers)
// the Dungeon Manager consults on gate open, mirroring the item/recipe/loot/
// quest catalogs' load-once-then-read-only discipline (spec.md §5).
type RankRegistry struct {
	ranks map[Rank]RankScaling
}

// NewRankRegistry constructs a registry from a pre-validated slice.
func NewRankRegistry(scalings []RankScaling) *RankRegistry {
	r := &RankRegistry{ranks: make(map[Rank]RankScaling, len(scalings))}
	for _, s := range scalings {
		r.ranks[s.Rank] = s
	}
	return r
}

// Get returns a rank's scaling data and whether it exists.
func (r *RankRegistry) Get(rank Rank) (RankScaling, bool) {
	s, ok := r.ranks[rank]
	return s, ok
}

// Len returns the number of ranks in the registry.
func (r *RankRegistry) Len() int {
	return len(r.ranks)
}

// LoadJSON parses a rank-scaling table shaped as a top-level JSON array of
// rank objects. Each entry requires at minimum "rank" and "keyTokenId".
func LoadJSON(data []byte) (*RankRegistry, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("dungeon rank table: expected a top-level JSON array")
	}

	var scalings []RankScaling
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		rank := value.Get("rank")
		if !rank.Exists() || rank.String() == "" {
			parseErr = fmt.Errorf("dungeon rank table: entry missing required field %q", "rank")
			return false
		}
		keyTokenID := value.Get("keyTokenId")
		if !keyTokenID.Exists() || keyTokenID.String() == "" {
			parseErr = fmt.Errorf("dungeon rank table: entry %q missing required field %q", rank.String(), "keyTokenId")
			return false
		}

		scalings = append(scalings, RankScaling{
			Rank:               Rank(rank.String()),
			RequiredLevel:      int(value.Get("requiredLevel").Int()),
			KeyTokenID:         keyTokenID.String(),
			MinMobs:            int(value.Get("minMobs").Int()),
			MaxMobs:            int(value.Get("maxMobs").Int()),
			MobHP:              int(value.Get("mobHp").Int()),
			MobLevel:           int(value.Get("mobLevel").Int()),
			BossCount:          int(value.Get("bossCount").Int()),
			TimeLimit:          time.Duration(value.Get("timeLimitMs").Int()) * time.Millisecond,
			DangerHPMultiplier: value.Get("dangerHpMultiplier").Float(),
			DangerXPMultiplier: value.Get("dangerXpMultiplier").Float(),
		})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return NewRankRegistry(scalings), nil
}
