// Package dispatcher implements the Action Dispatcher (C11): the single
// entry point client connections call into. It rate-limits per wallet,
// resolves the caller's current zone, shapes a request into the owning
// Zone Runtime's ActionRequest or routes it to the Party/Dungeon/Transition
// Manager, and returns the result (spec.md §6 "Dispatcher surface").
package dispatcher

import (
	"context"

	domaindungeon "github.com/nexusrealms/worldcore/internal/app/domain/dungeon"
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/app/domain/party"
	"github.com/nexusrealms/worldcore/internal/app/services/zoneruntime"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
)

// Verb is the full set of actions the dispatcher accepts, a superset of
// zoneruntime.Verb that also includes the cross-zone and zone-independent
// verbs owned by their own managers.
type Verb string

const (
	VerbMove          Verb = Verb(zoneruntime.VerbMove)
	VerbAttack        Verb = Verb(zoneruntime.VerbAttack)
	VerbCastTechnique Verb = Verb(zoneruntime.VerbCastTechnique)
	VerbGatherOre     Verb = Verb(zoneruntime.VerbGatherOre)
	VerbGatherFlower  Verb = Verb(zoneruntime.VerbGatherFlower)
	VerbCraft         Verb = Verb(zoneruntime.VerbCraft)
	VerbUpgrade       Verb = Verb(zoneruntime.VerbUpgrade)
	VerbApplyEnchant  Verb = Verb(zoneruntime.VerbApplyEnchant)
	VerbEquip         Verb = Verb(zoneruntime.VerbEquip)
	VerbUnequip       Verb = Verb(zoneruntime.VerbUnequip)
	VerbAcceptQuest   Verb = Verb(zoneruntime.VerbAcceptQuest)
	VerbTurnInQuest   Verb = Verb(zoneruntime.VerbTurnInQuest)
	VerbTalkQuest     Verb = Verb(zoneruntime.VerbTalkQuest)

	VerbPartyCreate    Verb = "partyCreate"
	VerbPartyInvite    Verb = "partyInvite"
	VerbPartyJoin      Verb = "partyJoin"
	VerbPartyLeave     Verb = "partyLeave"
	VerbPartyKick      Verb = "partyKick"
	VerbDungeonOpen    Verb = "dungeonOpenGate"
	VerbTransitionPort Verb = "transitionPortal"
)

// zoneVerbs is the set of Verb values that forward into a Zone Runtime's
// action queue rather than being handled by a manager directly.
var zoneVerbs = map[Verb]struct{}{
	VerbMove: {}, VerbAttack: {}, VerbCastTechnique: {}, VerbGatherOre: {},
	VerbGatherFlower: {}, VerbCraft: {}, VerbUpgrade: {}, VerbApplyEnchant: {},
	VerbEquip: {}, VerbUnequip: {}, VerbAcceptQuest: {}, VerbTurnInQuest: {}, VerbTalkQuest: {},
}

// Request is one client-issued action awaiting dispatch. ZoneID is
// optional for zone verbs; when blank the dispatcher resolves it via the
// wallet routing cache.
type Request struct {
	Verb          Verb
	WalletAddress string
	EntityID      string
	ZoneID        string

	X, Y            float64
	TargetID        string
	TechniqueID     string
	StationID       string
	RecipeID        string
	CatalystTokenID string
	Slot            entity.EquipSlot
	TokenID         string
	NPCID           string
	QuestID         string

	// party / dungeon / transition
	TargetAgentID string
	GateEntityID  string
	PortalID      string
}

// ZoneRouter resolves a Zone Runtime by id and lets the dispatcher resolve
// a wallet's current zone without the caller naming it explicitly.
// Implemented by the World Manager.
type ZoneRouter interface {
	Runtime(zoneID string) (*zoneruntime.Runtime, bool)
}

// WalletRouter resolves and records a wallet's current zone. Implemented by
// worldmanager.RoutingCache; kept separate from ZoneRouter because a
// dispatcher test can stub one without the other.
type WalletRouter interface {
	WalletZone(ctx context.Context, wallet string) (zoneID string, ok bool)
}

// PartyService is the subset of the Party Manager the dispatcher routes
// partyXxx verbs to.
type PartyService interface {
	Create(agentID string) (*party.Party, error)
	Invite(inviterID, targetAgentID string) error
	Join(partyID, agentID string) (*party.Party, error)
	Leave(agentID string) error
	Kick(requesterID, targetAgentID string) error
}

// DungeonService is the subset of the Dungeon Manager the dispatcher routes
// dungeonOpenGate to.
type DungeonService interface {
	OpenGate(ctx context.Context, requesterID, sourceZoneID, gateEntityID string) (*domaindungeon.Instance, error)
}

// TransitionService is the subset of the Transition Manager the dispatcher
// routes transitionPortal to.
type TransitionService interface {
	TransitionPortal(sourceZoneID, entityID, portalID string) error
}

// Metrics is the subset of worldmanager.Metrics the dispatcher reports
// against, kept as an interface so this package doesn't import worldmanager.
type Metrics interface {
	CountAction(verb string, success bool)
}

// Dispatcher wires the above seams together (spec.md §6).
type Dispatcher struct {
	cfg        *config.Config
	zones      ZoneRouter
	wallets    WalletRouter
	party      PartyService
	dungeon    DungeonService
	transition TransitionService
	metrics    Metrics
	limiters   *limiterSet
}

// New constructs a Dispatcher. metrics may be nil to disable reporting.
func New(cfg *config.Config, zones ZoneRouter, wallets WalletRouter, partySvc PartyService, dungeonSvc DungeonService, transitionSvc TransitionService, metrics Metrics) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		zones:      zones,
		wallets:    wallets,
		party:      partySvc,
		dungeon:    dungeonSvc,
		transition: transitionSvc,
		metrics:    metrics,
		limiters:   newLimiterSet(defaultWalletRateConfig()),
	}
}

// Dispatch routes req to its owning handler and returns the outcome. Every
// path is rate limited per wallet ahead of the per-tick queue (SPEC_FULL.md
// S3), independent of any per-action cooldown enforced downstream.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*zoneruntime.ActionResult, error) {
	if req.WalletAddress == "" {
		return nil, apperrors.ValidationError("walletAddress is required")
	}
	if !d.limiters.allow(req.WalletAddress) {
		d.report(req.Verb, false)
		return nil, apperrors.PreconditionError("rate limit exceeded for wallet").WithDetails("wallet", req.WalletAddress)
	}

	var res *zoneruntime.ActionResult
	var err error
	switch {
	case req.Verb == VerbPartyCreate, req.Verb == VerbPartyInvite, req.Verb == VerbPartyJoin, req.Verb == VerbPartyLeave, req.Verb == VerbPartyKick:
		res, err = d.dispatchParty(req)
	case req.Verb == VerbDungeonOpen:
		res, err = d.dispatchDungeon(ctx, req)
	case req.Verb == VerbTransitionPort:
		res, err = d.dispatchTransition(ctx, req)
	case isZoneVerb(req.Verb):
		res, err = d.dispatchZoneAction(ctx, req)
	default:
		err = apperrors.ValidationError("unknown verb").WithDetails("verb", string(req.Verb))
	}

	d.report(req.Verb, err == nil)
	return res, err
}

func isZoneVerb(v Verb) bool {
	_, ok := zoneVerbs[v]
	return ok
}

func (d *Dispatcher) report(verb Verb, success bool) {
	if d.metrics != nil {
		d.metrics.CountAction(string(verb), success)
	}
}

func (d *Dispatcher) resolveZoneID(ctx context.Context, req Request) (string, error) {
	if req.ZoneID != "" {
		return req.ZoneID, nil
	}
	if d.wallets == nil {
		return "", apperrors.ValidationError("zoneId is required")
	}
	zoneID, ok := d.wallets.WalletZone(ctx, req.WalletAddress)
	if !ok {
		return "", apperrors.ValidationError("could not resolve wallet's current zone").WithDetails("wallet", req.WalletAddress)
	}
	return zoneID, nil
}

func (d *Dispatcher) dispatchZoneAction(ctx context.Context, req Request) (*zoneruntime.ActionResult, error) {
	zoneID, err := d.resolveZoneID(ctx, req)
	if err != nil {
		return nil, err
	}
	rt, ok := d.zones.Runtime(zoneID)
	if !ok {
		return nil, apperrors.ValidationError("no such zone").WithDetails("zoneId", zoneID)
	}

	actionReq := &zoneruntime.ActionRequest{
		Verb:            zoneruntime.Verb(req.Verb),
		WalletAddress:   req.WalletAddress,
		EntityID:        req.EntityID,
		X:               req.X,
		Y:               req.Y,
		TargetID:        req.TargetID,
		TechniqueID:     req.TechniqueID,
		StationID:       req.StationID,
		RecipeID:        req.RecipeID,
		CatalystTokenID: req.CatalystTokenID,
		Slot:            req.Slot,
		TokenID:         req.TokenID,
		NPCID:           req.NPCID,
		QuestID:         req.QuestID,
	}
	return rt.Enqueue(ctx, actionReq)
}

func (d *Dispatcher) dispatchParty(req Request) (*zoneruntime.ActionResult, error) {
	switch req.Verb {
	case VerbPartyCreate:
		p, err := d.party.Create(req.EntityID)
		if err != nil {
			return nil, err
		}
		return &zoneruntime.ActionResult{Data: map[string]any{"partyId": p.ID}}, nil
	case VerbPartyInvite:
		if err := d.party.Invite(req.EntityID, req.TargetAgentID); err != nil {
			return nil, err
		}
		return &zoneruntime.ActionResult{}, nil
	case VerbPartyJoin:
		p, err := d.party.Join(req.TargetAgentID, req.EntityID)
		if err != nil {
			return nil, err
		}
		return &zoneruntime.ActionResult{Data: map[string]any{"partyId": p.ID}}, nil
	case VerbPartyLeave:
		if err := d.party.Leave(req.EntityID); err != nil {
			return nil, err
		}
		return &zoneruntime.ActionResult{}, nil
	case VerbPartyKick:
		if err := d.party.Kick(req.EntityID, req.TargetAgentID); err != nil {
			return nil, err
		}
		return &zoneruntime.ActionResult{}, nil
	default:
		return nil, apperrors.ValidationError("unknown party verb").WithDetails("verb", string(req.Verb))
	}
}

func (d *Dispatcher) dispatchDungeon(ctx context.Context, req Request) (*zoneruntime.ActionResult, error) {
	zoneID, err := d.resolveZoneID(ctx, req)
	if err != nil {
		return nil, err
	}
	instance, err := d.dungeon.OpenGate(ctx, req.EntityID, zoneID, req.GateEntityID)
	if err != nil {
		return nil, err
	}
	return &zoneruntime.ActionResult{Data: map[string]any{"dungeonZoneId": instance.DungeonZoneID, "instanceId": instance.InstanceID}}, nil
}

func (d *Dispatcher) dispatchTransition(ctx context.Context, req Request) (*zoneruntime.ActionResult, error) {
	zoneID, err := d.resolveZoneID(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := d.transition.TransitionPortal(zoneID, req.EntityID, req.PortalID); err != nil {
		return nil, err
	}
	return &zoneruntime.ActionResult{}, nil
}

// defaultWalletRateConfig caps a single wallet well above any legitimate
// per-tick action rate (one 500ms tick admits at most a handful of actions
// per player) while still bounding a misbehaving client.
func defaultWalletRateConfig() walletRateConfig {
	return walletRateConfig{RequestsPerSecond: 20, Burst: 40}
}
