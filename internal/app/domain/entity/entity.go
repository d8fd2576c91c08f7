// Package entity defines the sole in-zone simulation subject: a single
// role-tagged struct with a common header plus per-role variant data.
// Dispatcher and runtime code narrow on Type and use the Require* accessors
// below rather than duck-typing on which optional fields are set.
package entity

import (
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

// Type discriminates the role a given Entity plays in a zone.
type Type string

const (
	TypePlayer             Type = "player"
	TypeMob                Type = "mob"
	TypeBoss               Type = "boss"
	TypeMerchant           Type = "merchant"
	TypeTrainer            Type = "trainer"
	TypeProfessionTrainer  Type = "profession-trainer"
	TypeQuestGiver         Type = "quest-giver"
	TypeAuctioneer         Type = "auctioneer"
	TypeOreNode            Type = "ore-node"
	TypeFlowerNode         Type = "flower-node"
	TypeForge              Type = "forge"
	TypeAlchemyLab         Type = "alchemy-lab"
	TypeEnchantingAltar    Type = "enchanting-altar"
	TypeDungeonGate        Type = "dungeon-gate"
	TypePortalMarker       Type = "portal-marker"
)

// Combat reports whether entities of this type carry HP/essence vitals and
// take part in combat resolution.
func (t Type) Combat() bool {
	switch t {
	case TypePlayer, TypeMob, TypeBoss:
		return true
	default:
		return false
	}
}

// EquipSlot names an equipment slot on a player entity.
type EquipSlot string

const (
	SlotWeapon    EquipSlot = "weapon"
	SlotChest     EquipSlot = "chest"
	SlotLegs      EquipSlot = "legs"
	SlotBoots     EquipSlot = "boots"
	SlotHelm      EquipSlot = "helm"
	SlotShoulders EquipSlot = "shoulders"
	SlotGloves    EquipSlot = "gloves"
	SlotBelt      EquipSlot = "belt"
	SlotRing      EquipSlot = "ring"
	SlotAmulet    EquipSlot = "amulet"
)

// Stats is the base/effective stat block derived from race x class x level.
type Stats struct {
	Str   int
	Def   int
	HP    int
	Agi   int
	Int   int
	MP    int
	Faith int
	Luck  int
}

// Add returns the element-wise sum of s and other, used to layer equipment
// bonuses and active-effect deltas onto a base stat block.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Str:   s.Str + other.Str,
		Def:   s.Def + other.Def,
		HP:    s.HP + other.HP,
		Agi:   s.Agi + other.Agi,
		Int:   s.Int + other.Int,
		MP:    s.MP + other.MP,
		Faith: s.Faith + other.Faith,
		Luck:  s.Luck + other.Luck,
	}
}

// Enchantment is an in-memory modifier attached to an equipped item.
type Enchantment struct {
	ID      string
	Stats   Stats
	AppliedAtTick uint64
}

// EquippedItem is the equipment record for one occupied slot.
type EquippedItem struct {
	TokenID       string
	Durability    int
	MaxDurability int
	Broken        bool
	Quality       string
	RolledStats   *Stats
	Enchantments  []Enchantment
}

// DecrementDurability reduces durability by n (floored at 0) and flips
// Broken once it reaches zero. It never auto-unequips (spec.md §9 open
// question, resolved: tool stays equipped but flagged broken).
func (ei *EquippedItem) DecrementDurability(n int) {
	ei.Durability -= n
	if ei.Durability <= 0 {
		ei.Durability = 0
		ei.Broken = true
	}
}

// ActiveEffect is a timed buff/debuff/DoT/regen applied to a combat entity.
type ActiveEffect struct {
	Type      string
	ExpiresAtTick uint64
	Payload   map[string]any
}

// QuestProgress tracks one active quest on a player.
type QuestProgress struct {
	QuestID   string
	Progress  int
	StartedAtTick uint64
}

// Vitals holds the HP/essence pool for combat entities.
type Vitals struct {
	HP         int
	MaxHP      int
	Essence    int
	MaxEssence int
	Alive      bool
}

// AggroState is a mob's coarse per-tick AI state (spec.md §4.1 step 4: idle
// -> aggro if a player enters detection radius -> melee within strike range).
type AggroState string

const (
	AggroIdle    AggroState = "idle"
	AggroChasing AggroState = "aggro"
	AggroMelee   AggroState = "melee"
)

// CombatState is the auto-attack timing and damage-formula input shared by
// every combat-capable entity (spec.md §4.3). It is kept separate from
// PlayerData/MobData since both variants need identical bookkeeping.
type CombatState struct {
	TargetID             string
	NextAutoAttackAtTick uint64
	AttackCooldownTicks  uint64
	WeaponCoef           float64
	DefCoef              float64

	// TechniqueCooldowns maps a learned technique's id to the tick at or
	// after which it can be cast again.
	TechniqueCooldowns map[string]uint64
}

// PlayerData holds fields present only on player entities.
type PlayerData struct {
	WalletAddress     string
	Level             int
	XP                int
	RaceID            string
	ClassID           string
	Kills             int
	BaseStats         Stats
	EffectiveStats    Stats
	Equipment         map[EquipSlot]*EquippedItem
	ActiveQuests      []QuestProgress
	CompletedQuests   []string
	LearnedTechniques []string
	LearnedProfessions []string
	ActiveEffects     []ActiveEffect
}

// MobData holds fields present only on mob/boss entities.
type MobData struct {
	TemplateID      string
	Level           int
	RespawnTicks    uint64
	RespawnAtTick   uint64
	SpawnX          float64
	SpawnY          float64
	DetectionRadius float64
	StrikeRadius    float64
	Aggro           AggroState
	ActiveEffects   []ActiveEffect
	XPMultiplier    float64 // 0 treated as 1.0; set above 1.0 for danger-gate dungeon spawns
	NoRespawn       bool    // dungeon spawns: a cleared mob must stay dead for the instance to clear
}

// ResourceNodeData holds fields present only on ore-node/flower-node entities.
type ResourceNodeData struct {
	ResourceType   string
	Tier           int
	Charges        int
	MaxCharges     int
	DepletedAtTick *uint64
	RespawnTicks   uint64
}

// DungeonGateData holds fields present only on dungeon-gate entities.
type DungeonGateData struct {
	GateRank      string
	IsDangerGate  bool
	GateOpened    bool
	GateExpiresAt *uint64
	KeyTokenID    string
	RequiredLevel int
}

// PortalData holds fields present only on portal-marker entities.
type PortalData struct {
	DestinationZone string
	DestinationPoi  string
	MinLevel        int
}

// Entity is the sole in-zone simulation subject. The common header
// (ID/Type/ZoneID/X/Y) is always populated; role-specific data lives in the
// pointer fields below and only the one matching Type is non-nil.
type Entity struct {
	ID     string
	Type   Type
	ZoneID string
	X      float64
	Y      float64

	Vitals *Vitals
	Combat *CombatState

	Player       *PlayerData
	Mob          *MobData
	ResourceNode *ResourceNodeData
	DungeonGate  *DungeonGateData
	Portal       *PortalData
}

// New constructs a bare entity header. Callers attach the role-specific
// variant data appropriate to typ before inserting it into a zone.
func New(id string, typ Type, zoneID string, x, y float64) *Entity {
	return &Entity{ID: id, Type: typ, ZoneID: zoneID, X: x, Y: y}
}

// RequireVitals narrows to the vitals block, erroring for non-combat types.
func (e *Entity) RequireVitals() (*Vitals, error) {
	if e.Vitals == nil {
		return nil, apperrors.InternalError("entity has no vitals", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.Vitals, nil
}

// RequirePlayer narrows to the player-only data block.
func (e *Entity) RequirePlayer() (*PlayerData, error) {
	if e.Player == nil {
		return nil, apperrors.InternalError("entity is not a player", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.Player, nil
}

// RequireMob narrows to the mob-only data block.
func (e *Entity) RequireMob() (*MobData, error) {
	if e.Mob == nil {
		return nil, apperrors.InternalError("entity is not a mob", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.Mob, nil
}

// RequireResourceNode narrows to the resource-node-only data block.
func (e *Entity) RequireResourceNode() (*ResourceNodeData, error) {
	if e.ResourceNode == nil {
		return nil, apperrors.InternalError("entity is not a resource node", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.ResourceNode, nil
}

// RequireDungeonGate narrows to the dungeon-gate-only data block.
func (e *Entity) RequireDungeonGate() (*DungeonGateData, error) {
	if e.DungeonGate == nil {
		return nil, apperrors.InternalError("entity is not a dungeon gate", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.DungeonGate, nil
}

// RequirePortal narrows to the portal-only data block.
func (e *Entity) RequirePortal() (*PortalData, error) {
	if e.Portal == nil {
		return nil, apperrors.InternalError("entity is not a portal", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.Portal, nil
}

// RequireCombatState narrows to the auto-attack timing block.
func (e *Entity) RequireCombatState() (*CombatState, error) {
	if e.Combat == nil {
		return nil, apperrors.InternalError("entity has no combat state", nil).
			WithDetails("entityId", e.ID).WithDetails("type", string(e.Type))
	}
	return e.Combat, nil
}

// IsAlive reports whether a combat entity's vitals mark it alive. Non-combat
// entities are always considered "alive" for proximity/targeting purposes.
func (e *Entity) IsAlive() bool {
	if e.Vitals == nil {
		return true
	}
	return e.Vitals.Alive
}

// DistanceSquared returns the squared Euclidean distance to another entity,
// avoiding a sqrt on the hot proximity-check path.
func (e *Entity) DistanceSquared(other *Entity) float64 {
	dx := e.X - other.X
	dy := e.Y - other.Y
	return dx*dx + dy*dy
}

// WithinRange reports whether other is within r units of e.
func (e *Entity) WithinRange(other *Entity, r float64) bool {
	return e.DistanceSquared(other) <= r*r
}
