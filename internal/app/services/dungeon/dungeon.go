// Package dungeon implements the Dungeon Manager (C13): gate-open
// validation, instance (ephemeral zone) lifecycle, and the cleanup ticker
// that monitors every active instance for clear/timeout/depopulation
// (spec.md §4.8).
package dungeon

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	core "github.com/nexusrealms/worldcore/internal/app/core/service"
	domaindungeon "github.com/nexusrealms/worldcore/internal/app/domain/dungeon"
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/app/domain/party"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
	"github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/app/services/zoneruntime"
	"github.com/nexusrealms/worldcore/internal/app/system"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
	"github.com/nexusrealms/worldcore/internal/zonelog"
	"github.com/nexusrealms/worldcore/pkg/logger"
)

var _ system.Service = (*Manager)(nil)

// cleanupInterval is the dedicated ticker's period monitoring every active
// instance (spec.md §4.8 "a dedicated ticker monitors each active instance").
const cleanupInterval = 1 * time.Second

// exitJitter bounds the random offset applied to a surviving player's
// teleport-out position so a full party does not stack on one tile.
const exitJitter = 1.5

// dungeonBoundsExtent is the half-width of a spawned dungeon zone's square
// bounds; dungeons are small, self-contained arenas, not open world zones.
const dungeonBoundsExtent = 100

// PartyLookup is the subset of the Party Manager the Dungeon Manager needs:
// resolving a requester's party for gate-open validation, and supplying the
// spawned Zone Runtime's PartyXPProvider.
type PartyLookup interface {
	Get(agentID string) (*party.Party, bool)
	PartyMembersInZone(entityID, zoneID string) []string
}

// ZoneRegistry is implemented by the World Manager (C16): the seam through
// which the Dungeon Manager finds a party's source zone and registers/tears
// down the ephemeral dungeon zone it spins up on gate open.
type ZoneRegistry interface {
	Zone(zoneID string) (*zone.Zone, bool)
	RegisterRuntime(ctx context.Context, rt *zoneruntime.Runtime) error
	Unregister(zoneID string)
}

type instanceState struct {
	instance *domaindungeon.Instance
	zone     *zone.Zone
	runtime  *zoneruntime.Runtime
}

// Manager owns every active dungeon instance behind a single mutex
// (spec.md §4.11 "each owned by its manager behind a single mutex;
// operations are short" — the mutex here only guards bookkeeping maps, not
// the gate-open/cleanup critical sections, which hold individual zone locks).
type Manager struct {
	cfg      *config.Config
	ledger   ledger.Adapter
	ranks    *domaindungeon.RankRegistry
	zones    ZoneRegistry
	parties  PartyLookup
	catalogs zoneruntime.Catalogs
	logCfg   zonelog.Config
	log      *logger.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu        sync.Mutex
	instances map[string]*instanceState // keyed by DungeonZoneID
	byParty   map[string]string         // partyID -> DungeonZoneID

	stopCh chan struct{}
	doneWg sync.WaitGroup
}

// NewManager constructs a Manager.
func NewManager(cfg *config.Config, adapter ledger.Adapter, ranks *domaindungeon.RankRegistry, zones ZoneRegistry, parties PartyLookup, catalogs zoneruntime.Catalogs, logCfg zonelog.Config) *Manager {
	return &Manager{
		cfg:       cfg,
		ledger:    adapter,
		ranks:     ranks,
		zones:     zones,
		parties:   parties,
		catalogs:  catalogs,
		logCfg:    logCfg,
		log:       logger.NewDefault("dungeon-manager"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		instances: make(map[string]*instanceState),
		byParty:   make(map[string]string),
		stopCh:    make(chan struct{}),
	}
}

// Name identifies this Manager as a system.Service.
func (m *Manager) Name() string { return "dungeon-manager" }

// Descriptor advertises this service's placement for orchestration tooling.
func (m *Manager) Descriptor() core.Descriptor {
	return core.Descriptor{Name: m.Name(), Domain: "dungeon", Layer: core.LayerEngine}
}

// Start runs the cleanup ticker until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.doneWg.Add(1)
	go func() {
		defer m.doneWg.Done()

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.runCleanupPass(ctx)
			}
		}
	}()
	return nil
}

// Stop signals the cleanup ticker to exit and waits for it to finish.
func (m *Manager) Stop(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() {
		m.doneWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// partyMember bundles a resolved player entity with the position it held in
// the source zone, so a partial-teleport failure can restore it exactly.
type partyMember struct {
	entity *entity.Entity
	origX  float64
	origY  float64
}

// OpenGate validates and executes spec.md §4.8's gate-open sequence:
// party/proximity/level/key-item checks, key burn, instance creation, and
// atomic party teleport. On any failure before the key burn, the gate stays
// closed and nothing is mutated; on any failure during teleport, already
// moved members are moved back and the fresh instance is torn down.
func (m *Manager) OpenGate(ctx context.Context, requesterID, sourceZoneID, gateEntityID string) (*domaindungeon.Instance, error) {
	p, ok := m.parties.Get(requesterID)
	if !ok {
		return nil, apperrors.PreconditionError("requester is not in a party").WithDetails("agentId", requesterID)
	}

	sourceZone, ok := m.zones.Zone(sourceZoneID)
	if !ok {
		return nil, apperrors.ValidationError("no such zone").WithDetails("zoneId", sourceZoneID)
	}

	gateData, gateX, gateY, scaling, err := m.validateGate(sourceZone, gateEntityID)
	if err != nil {
		return nil, err
	}

	members, wallet, err := m.validateParty(sourceZone, p, gateX, gateY, scaling)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.Ledger.LedgerCallTimeout())
	_, burnErr := m.ledger.BurnItem(callCtx, wallet, scaling.KeyTokenID, 1)
	cancel()
	if burnErr != nil {
		return nil, apperrors.Wrap(apperrors.LedgerTransient, "gate key burn failed; gate remains closed", burnErr).
			WithDetails("wallet", wallet).WithDetails("tokenId", scaling.KeyTokenID)
	}

	st, err := m.spawnInstance(ctx, p, scaling, gateData.IsDangerGate, sourceZoneID, domaindungeon.Position{X: gateX, Y: gateY})
	if err != nil {
		return nil, err
	}

	if err := m.teleportPartyIn(st.zone, sourceZone, members); err != nil {
		m.teardown(ctx, st)
		return nil, err
	}

	sourceZone.Lock()
	gateData.GateOpened = true
	sourceZone.Unlock()

	m.mu.Lock()
	m.instances[st.instance.DungeonZoneID] = st
	m.byParty[p.ID] = st.instance.DungeonZoneID
	m.mu.Unlock()

	return st.instance, nil
}

func (m *Manager) validateGate(sourceZone *zone.Zone, gateEntityID string) (*entity.DungeonGateData, float64, float64, domaindungeon.RankScaling, error) {
	sourceZone.Lock()
	defer sourceZone.Unlock()

	gate, ok := sourceZone.Get(gateEntityID)
	if !ok {
		return nil, 0, 0, domaindungeon.RankScaling{}, apperrors.ValidationError("no such gate").WithDetails("entityId", gateEntityID)
	}
	gateData, err := gate.RequireDungeonGate()
	if err != nil {
		return nil, 0, 0, domaindungeon.RankScaling{}, apperrors.Wrap(apperrors.Validation, "entity is not a dungeon gate", err).
			WithDetails("entityId", gateEntityID)
	}
	if gateData.GateOpened {
		return nil, 0, 0, domaindungeon.RankScaling{}, apperrors.ConflictError("gate is already open").WithDetails("entityId", gateEntityID)
	}
	scaling, ok := m.ranks.Get(domaindungeon.Rank(gateData.GateRank))
	if !ok {
		return nil, 0, 0, domaindungeon.RankScaling{}, apperrors.InternalError("no rank scaling registered for gate", nil).
			WithDetails("rank", gateData.GateRank)
	}
	return gateData, gate.X, gate.Y, scaling, nil
}

func (m *Manager) validateParty(sourceZone *zone.Zone, p *party.Party, gateX, gateY float64, scaling domaindungeon.RankScaling) ([]partyMember, string, error) {
	sourceZone.Lock()
	defer sourceZone.Unlock()

	members := make([]partyMember, 0, len(p.MemberIDs))
	for _, agentID := range p.MemberIDs {
		e, ok := sourceZone.Get(agentID)
		if !ok || e.Player == nil {
			return nil, "", apperrors.PreconditionError("party member is not present in this zone").WithDetails("agentId", agentID)
		}
		dx, dy := e.X-gateX, e.Y-gateY
		gateProximity := m.cfg.Proximity.GateProximity
		if dx*dx+dy*dy > gateProximity*gateProximity {
			return nil, "", apperrors.PreconditionError("party member is out of gate range").WithDetails("agentId", agentID)
		}
		if e.Player.Level < scaling.RequiredLevel {
			return nil, "", apperrors.PreconditionError("party member does not meet the gate's level requirement").
				WithDetails("agentId", agentID).WithDetails("requiredLevel", scaling.RequiredLevel)
		}
		members = append(members, partyMember{entity: e, origX: e.X, origY: e.Y})
	}
	if len(members) == 0 {
		return nil, "", apperrors.InternalError("party has no members", nil).WithDetails("partyId", p.ID)
	}
	return members, members[0].entity.Player.WalletAddress, nil
}

func (m *Manager) spawnInstance(ctx context.Context, p *party.Party, scaling domaindungeon.RankScaling, isDanger bool, sourceZoneID string, sourcePos domaindungeon.Position) (*instanceState, error) {
	dungeonZoneID := "dungeon-" + uuid.NewString()

	bounds := zone.Bounds{MinX: -dungeonBoundsExtent, MinY: -dungeonBoundsExtent, MaxX: dungeonBoundsExtent, MaxY: dungeonBoundsExtent}
	z := zone.New(dungeonZoneID, bounds, terrain.NewGrid(dungeonZoneID, terrain.FlatWalkableGenerator))

	mobCount := scaling.MinMobs
	if scaling.MaxMobs > scaling.MinMobs {
		mobCount += m.randIntn(scaling.MaxMobs - scaling.MinMobs + 1)
	}

	z.Lock()
	for i := 0; i < mobCount; i++ {
		x, y := m.randSpawnPoint()
		_ = z.Insert(m.newMobEntity(dungeonZoneID, scaling, isDanger, false, x, y))
	}
	for i := 0; i < scaling.BossCount; i++ {
		x, y := m.randSpawnPoint()
		_ = z.Insert(m.newMobEntity(dungeonZoneID, scaling, isDanger, true, x, y))
	}
	z.Unlock()

	now := time.Now()
	expires := now.Add(scaling.TimeLimit)
	if scaling.TimeLimit <= 0 {
		expires = now.Add(m.cfg.Party.DungeonMaxTime(string(scaling.Rank)))
	}

	instance := &domaindungeon.Instance{
		InstanceID:     uuid.NewString(),
		GateRank:       scaling.Rank,
		IsDangerGate:   isDanger,
		SourceZoneID:   sourceZoneID,
		SourcePosition: sourcePos,
		PartyID:        p.ID,
		MemberIDs:      append([]string(nil), p.MemberIDs...),
		DungeonZoneID:  dungeonZoneID,
		CreatedAt:      now,
		ExpiresAt:      expires,
		TotalMobs:      mobCount + scaling.BossCount,
		RemainingMobs:  mobCount + scaling.BossCount,
	}

	rt := zoneruntime.New(z, m.cfg, m.ledger, m.catalogs, m.parties, m.logCfg)
	if err := m.zones.RegisterRuntime(ctx, rt); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "failed to register dungeon zone runtime", err).
			WithDetails("zoneId", dungeonZoneID)
	}

	return &instanceState{instance: instance, zone: z, runtime: rt}, nil
}

func (m *Manager) newMobEntity(dungeonZoneID string, scaling domaindungeon.RankScaling, isDanger, isBoss bool, x, y float64) *entity.Entity {
	typ := entity.TypeMob
	templateID := string(scaling.Rank) + "-dungeon-mob"
	hp := scaling.EffectiveMobHP(isDanger)
	level := scaling.MobLevel
	if isBoss {
		typ = entity.TypeBoss
		templateID = string(scaling.Rank) + "-dungeon-boss"
		hp *= 3
		level += 5
	}

	e := entity.New("mob-"+uuid.NewString(), typ, dungeonZoneID, x, y)
	e.Vitals = &entity.Vitals{HP: hp, MaxHP: hp, Alive: true}
	e.Combat = &entity.CombatState{AttackCooldownTicks: 2, WeaponCoef: 1.0, DefCoef: 1.0}
	e.Mob = &entity.MobData{
		TemplateID:      templateID,
		Level:           level,
		SpawnX:          x,
		SpawnY:          y,
		DetectionRadius: 15,
		StrikeRadius:    3,
		Aggro:           entity.AggroIdle,
		XPMultiplier:    scaling.EffectiveXPMultiplier(isDanger),
		NoRespawn:       true,
	}
	return e
}

func (m *Manager) randSpawnPoint() (float64, float64) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Float64()*40 - 20, m.rng.Float64()*40 - 20
}

func (m *Manager) randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Intn(n)
}

func (m *Manager) randJitter() (float64, float64) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return (m.rng.Float64()*2 - 1) * exitJitter, (m.rng.Float64()*2 - 1) * exitJitter
}

// teleportPartyIn moves every member into the dungeon zone in order,
// compensating by moving already-moved members back on any failure
// (spec.md §4.8 "Failure model").
func (m *Manager) teleportPartyIn(dungeonZone, sourceZone *zone.Zone, members []partyMember) error {
	moved := make([]partyMember, 0, len(members))
	for _, mem := range members {
		if err := moveEntityBetweenZones(sourceZone, dungeonZone, mem.entity, 0, 0); err != nil {
			for i := len(moved) - 1; i >= 0; i-- {
				_ = moveEntityBetweenZones(dungeonZone, sourceZone, moved[i].entity, moved[i].origX, moved[i].origY)
			}
			return apperrors.Wrap(apperrors.Internal, "mid-batch dungeon teleport failed; party restored", err)
		}
		moved = append(moved, mem)
	}
	return nil
}

// moveEntityBetweenZones removes e from src and inserts it into dst at
// (x, y), holding both zones' locks in a fixed global order (lexicographic
// zone id, spec.md §4.9) so the move is atomic to concurrent readers.
func moveEntityBetweenZones(src, dst *zone.Zone, e *entity.Entity, x, y float64) error {
	first, second := src, dst
	if dst.ID < src.ID {
		first, second = dst, src
	}
	first.Lock()
	defer first.Unlock()
	if second != first {
		second.Lock()
		defer second.Unlock()
	}

	if _, ok := src.Remove(e.ID); !ok {
		return apperrors.InternalError("entity not present in source zone", nil).WithDetails("entityId", e.ID)
	}
	e.X, e.Y = x, y
	if err := dst.Insert(e); err != nil {
		_ = src.Insert(e)
		return err
	}
	return nil
}

// teardown stops a just-spawned instance's runtime and unregisters its zone
// without touching the bookkeeping maps, used when party teleport-in fails
// before the instance is ever published.
func (m *Manager) teardown(ctx context.Context, st *instanceState) {
	_ = st.runtime.Stop(ctx)
	m.zones.Unregister(st.instance.DungeonZoneID)
}

func (m *Manager) runCleanupPass(ctx context.Context) {
	m.mu.Lock()
	states := make([]*instanceState, 0, len(m.instances))
	for _, st := range m.instances {
		states = append(states, st)
	}
	m.mu.Unlock()

	for _, st := range states {
		m.evaluateInstance(ctx, st)
	}
}

func (m *Manager) evaluateInstance(ctx context.Context, st *instanceState) {
	st.zone.Lock()
	remaining := 0
	var playerIDs []string
	for _, e := range st.zone.All() {
		if e.Mob != nil && e.IsAlive() {
			remaining++
		}
		if e.Player != nil {
			playerIDs = append(playerIDs, e.ID)
		}
	}
	st.instance.RemainingMobs = remaining
	st.instance.MemberIDs = playerIDs
	reason := st.instance.EvaluateCleanup(time.Now())
	st.zone.Unlock()

	if reason == domaindungeon.ClearReasonNone {
		return
	}

	st.instance.Cleared = reason == domaindungeon.ClearReasonCleared
	m.log.WithFields(map[string]interface{}{
		"dungeonZoneId": st.instance.DungeonZoneID,
		"reason":        string(reason),
	}).Info("dungeon instance cleanup")
	m.cleanupInstance(ctx, st, reason)
}

// cleanupInstance executes spec.md §4.8 "Cleanup": surviving players are
// teleported back to sourceZoneId near sourcePosition (± jitter), the
// dungeon zone is deleted, and the instance record is removed.
func (m *Manager) cleanupInstance(ctx context.Context, st *instanceState, reason domaindungeon.ClearReason) {
	if sourceZone, ok := m.zones.Zone(st.instance.SourceZoneID); ok {
		st.zone.Lock()
		var survivors []*entity.Entity
		for _, id := range st.instance.MemberIDs {
			if e, ok := st.zone.Get(id); ok {
				survivors = append(survivors, e)
			}
		}
		st.zone.Unlock()

		for _, e := range survivors {
			jx, jy := m.randJitter()
			_ = moveEntityBetweenZones(st.zone, sourceZone, e, st.instance.SourcePosition.X+jx, st.instance.SourcePosition.Y+jy)
		}
	}

	_ = st.runtime.Stop(ctx)
	m.zones.Unregister(st.instance.DungeonZoneID)

	m.mu.Lock()
	delete(m.instances, st.instance.DungeonZoneID)
	delete(m.byParty, st.instance.PartyID)
	m.mu.Unlock()
}

// Get returns the active instance spawned for partyID, if any.
func (m *Manager) Get(partyID string) (*domaindungeon.Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dungeonZoneID, ok := m.byParty[partyID]
	if !ok {
		return nil, false
	}
	st, ok := m.instances[dungeonZoneID]
	if !ok {
		return nil, false
	}
	return st.instance, true
}
