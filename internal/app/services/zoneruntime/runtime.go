// Package zoneruntime implements the Zone Runtime (C1, C10): the
// single-writer per-zone tick loop, action processing, mob AI, combat
// resolution, gathering, crafting, and quest progression.
package zoneruntime

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/nexusrealms/worldcore/internal/app/domain/eventlog"
	"github.com/nexusrealms/worldcore/internal/app/domain/item"
	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/app/domain/loot"
	"github.com/nexusrealms/worldcore/internal/app/domain/quest"
	"github.com/nexusrealms/worldcore/internal/app/domain/recipe"
	"github.com/nexusrealms/worldcore/internal/app/domain/technique"
	"github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/app/system"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
	"github.com/nexusrealms/worldcore/internal/zonelog"
)

var _ system.Service = (*Runtime)(nil)

// Catalogs bundles the read-only game-data registries every action handler
// consults (spec.md §5: "Catalogs: read-only after initialization; no
// locking required").
type Catalogs struct {
	Items      *item.Catalog
	Recipes    *recipe.Registry
	Loot       *loot.Registry
	Quests     *quest.Registry
	Techniques *technique.Registry
}

// PartyXPProvider resolves the party members of an entity (the entity
// itself included) at the moment a kill is credited; awardKillXP skips the
// killer and keeps only members present in this zone. Used to split XP per spec.md
// §4.3/§4.5. Implemented by the party manager service; kept as an
// interface here so zoneruntime never imports the party manager directly.
type PartyXPProvider interface {
	PartyMembersInZone(entityID, zoneID string) []string
}

// queueCapacity bounds how many actions can be pending between ticks before
// Enqueue blocks; FIFO order within a zone is still guaranteed (spec.md
// §4.1 "Ordering guarantees"), this only bounds memory.
const queueCapacity = 1024

// auditLogCapacity bounds the per-zone ledger audit trail (SPEC_FULL.md S4),
// reusing the same ring buffer architecture as the zone's tick event log.
const auditLogCapacity = 512

// Runtime drives one Zone's tick loop. Different zones are parallel actors
// (spec.md §4.1 "Scheduling model"); a Runtime never reaches into another
// zone's state directly — cross-zone moves go through the Transition and
// Dungeon Managers.
type Runtime struct {
	Zone     *zone.Zone
	cfg      *config.Config
	ledger   ledger.Adapter
	catalogs Catalogs
	party    PartyXPProvider
	log      *zonelog.Logger
	rng      *rand.Rand
	auditLog *eventlog.RingBuffer[ledger.AuditEntry]

	queue  chan *ActionRequest
	stopCh chan struct{}
	doneWg sync.WaitGroup

	pendingMobRespawns []pendingMobRespawn
}

// New constructs a Runtime. party may be nil until the party manager wires
// itself in (solo players still function; XP simply isn't split).
func New(z *zone.Zone, cfg *config.Config, adapter ledger.Adapter, catalogs Catalogs, party PartyXPProvider, logCfg zonelog.Config) *Runtime {
	return &Runtime{
		Zone:     z,
		cfg:      cfg,
		ledger:   adapter,
		catalogs: catalogs,
		party:    party,
		log:      zonelog.New(z.ID, logCfg),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		auditLog: eventlog.NewRingBuffer[ledger.AuditEntry](auditLogCapacity),
		queue:    make(chan *ActionRequest, queueCapacity),
		stopCh:   make(chan struct{}),
	}
}

// RecentLedgerActivity returns the zone's retained ledger audit trail,
// oldest first — every mint/burn/balance call this runtime made, success or
// failure, for operator visibility without re-querying the chain.
func (r *Runtime) RecentLedgerActivity() []ledger.AuditEntry {
	return r.auditLog.Recent()
}

func (r *Runtime) recordLedgerCall(tick uint64, op ledger.Operation, wallet, tokenID string, qty uint64, handle ledger.TxHandle, err error) {
	r.auditLog.Append(ledger.AuditEntry{
		Tick: tick, Operation: op, Wallet: wallet, TokenID: tokenID,
		Quantity: qty, TxHandle: handle, Err: err,
	})
}

// Name identifies this Runtime as a system.Service.
func (r *Runtime) Name() string {
	return "zoneruntime:" + r.Zone.ID
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
// Matches the teacher's ticker/select shape used for long-poll waits, here
// driving a periodic clock instead of polling a single outcome.
func (r *Runtime) Start(ctx context.Context) error {
	interval := r.cfg.Tick.TickInterval()
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	r.doneWg.Add(1)
	go func() {
		defer r.doneWg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.runTick(ctx)
			}
		}
	}()

	return nil
}

// Stop signals the tick loop to exit and waits for it to finish.
func (r *Runtime) Stop(ctx context.Context) error {
	close(r.stopCh)
	done := make(chan struct{})
	go func() {
		r.doneWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runTick executes the eight phases of spec.md §4.1 in order, holding the
// zone lock for the duration (the runtime is the zone's single writer in
// the common case; the lock exists so a cross-zone transition or dungeon
// teleport can safely interleave with it, see domain/zone.Lock).
func (r *Runtime) runTick(ctx context.Context) {
	start := time.Now()

	r.Zone.Lock()
	defer r.Zone.Unlock()

	tick := r.Zone.AdvanceTick()

	r.expireTimers(tick)
	r.drainQueue(ctx, tick)
	r.runMobAI(tick)
	r.resolveCombat(ctx, tick)
	r.respawnResourceNodes(tick)
	r.respawnMobs(tick)
	r.Zone.RebuildSpatialIndex()

	r.log.TickSummary(tick, r.Zone.Count(), time.Since(start))
}

func (r *Runtime) internalErr(where string, err error) *apperrors.GameError {
	return apperrors.InternalError("zoneruntime: "+where, err)
}
