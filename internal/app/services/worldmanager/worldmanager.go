// Package worldmanager implements the World Manager (C16): the owner of
// every live Zone Runtime, the wallet→zoneId routing cache, the process's
// Prometheus metrics registry, and the cron-driven world-maintenance
// scheduler distinct from each zone's own 500ms tick (spec.md §4.1,
// SPEC_FULL.md S1/S2).
package worldmanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	core "github.com/nexusrealms/worldcore/internal/app/core/service"
	"github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/app/services/dungeon"
	"github.com/nexusrealms/worldcore/internal/app/services/transition"
	"github.com/nexusrealms/worldcore/internal/app/services/zoneruntime"
	"github.com/nexusrealms/worldcore/internal/app/system"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
	"github.com/nexusrealms/worldcore/pkg/logger"
)

var (
	_ system.Service       = (*Manager)(nil)
	_ dungeon.ZoneRegistry  = (*Manager)(nil)
	_ transition.ZoneLookup = (*Manager)(nil)
)

// MaintenanceFunc is one world-maintenance sweep invoked by the cron
// scheduler: a character autosave flush or a dungeon-expiry fallback check.
// Registered by whichever service owns that concern (persistence, dungeon)
// so this package never imports them directly.
type MaintenanceFunc func(ctx context.Context) error

// Manager owns every registered Zone Runtime behind a single read-write
// mutex (spec.md §4.11's "each owned by its manager behind a single mutex"
// pattern, generalized here to a map keyed by zone id rather than a single
// resource).
type Manager struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *Metrics
	routing *RoutingCache

	mu    sync.RWMutex
	zones map[string]*zoneruntime.Runtime

	cronMu       sync.Mutex
	cronRunner   *cron.Cron
	autosave     MaintenanceFunc
	dungeonSweep MaintenanceFunc
}

// NewManager constructs a Manager. routing and metrics may be nil in tests
// that don't exercise the routing cache or collectors.
func NewManager(cfg *config.Config, metrics *Metrics, routing *RoutingCache) *Manager {
	return &Manager{
		cfg:     cfg,
		log:     logger.NewDefault("world-manager"),
		metrics: metrics,
		routing: routing,
		zones:   make(map[string]*zoneruntime.Runtime),
	}
}

// Name identifies this Manager as a system.Service.
func (m *Manager) Name() string { return "world-manager" }

// Descriptor advertises this service's placement for orchestration tooling.
func (m *Manager) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         m.Name(),
		Domain:       "world",
		Layer:        core.LayerEngine,
		Capabilities: []string{"zone-registry", "wallet-routing", "maintenance-scheduler"},
	}
}

// WithAutosave registers the sweep invoked on the configured autosave
// schedule (SPEC_FULL.md S2).
func (m *Manager) WithAutosave(fn MaintenanceFunc) { m.autosave = fn }

// WithDungeonSweep registers the sweep invoked on the configured
// dungeon-expiry fallback schedule (SPEC_FULL.md S2).
func (m *Manager) WithDungeonSweep(fn MaintenanceFunc) { m.dungeonSweep = fn }

// Zone implements both dungeon.ZoneRegistry and transition.ZoneLookup's
// Zone method: resolving a zone id to its live Zone.
func (m *Manager) Zone(zoneID string) (*zone.Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.zones[zoneID]
	if !ok {
		return nil, false
	}
	return rt.Zone, true
}

// Runtime returns the registered Zone Runtime itself, used by the
// dispatcher to Enqueue actions.
func (m *Manager) Runtime(zoneID string) (*zoneruntime.Runtime, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.zones[zoneID]
	return rt, ok
}

// Zones returns every currently registered zone id, used by maintenance
// sweeps that must visit every zone (e.g. dungeon-expiry fallback).
func (m *Manager) Zones() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.zones))
	for id := range m.zones {
		ids = append(ids, id)
	}
	return ids
}

// RegisterRuntime adds rt to the registry and starts its tick loop,
// implementing dungeon.ZoneRegistry.RegisterRuntime. Registering a zone id
// that already exists is a conflict: a dungeon zone id is a freshly minted
// uuid, and the only other source of zone ids is boot-time world zone
// configuration, so a collision means a caller reused an id by mistake.
func (m *Manager) RegisterRuntime(ctx context.Context, rt *zoneruntime.Runtime) error {
	m.mu.Lock()
	if _, exists := m.zones[rt.Zone.ID]; exists {
		m.mu.Unlock()
		return apperrors.ConflictError("zone is already registered").WithDetails("zoneId", rt.Zone.ID)
	}
	m.zones[rt.Zone.ID] = rt
	m.mu.Unlock()

	if err := rt.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.zones, rt.Zone.ID)
		m.mu.Unlock()
		return fmt.Errorf("start zone runtime %s: %w", rt.Zone.ID, err)
	}
	return nil
}

// Unregister removes zoneID from the registry without stopping its
// runtime; callers that spin a runtime down are expected to Stop it
// themselves before or after calling Unregister (the Dungeon Manager stops
// first, then unregisters, to guarantee no tick races the teardown).
func (m *Manager) Unregister(zoneID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zones, zoneID)
}

// RoutingCache exposes the wallet→zoneId cache for the dispatcher.
func (m *Manager) RoutingCache() *RoutingCache { return m.routing }

// Metrics exposes the Prometheus collector set for the dispatcher and zone
// runtimes to record against.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// Start launches the cron-driven maintenance scheduler (SPEC_FULL.md S2).
// It does not start any zone runtime itself — those are started
// individually as they're registered via RegisterRuntime, mirroring how
// the teacher's automation.Scheduler only polls for work rather than
// owning the jobs it dispatches.
func (m *Manager) Start(ctx context.Context) error {
	m.cronMu.Lock()
	defer m.cronMu.Unlock()
	if m.cronRunner != nil {
		return nil
	}

	runner := cron.New()
	if m.autosave != nil {
		spec := m.cfg.Maintenance.AutosaveCron
		if _, err := runner.AddFunc(spec, func() { m.runSweep(ctx, "autosave", m.autosave) }); err != nil {
			return fmt.Errorf("schedule autosave sweep %q: %w", spec, err)
		}
	}
	if m.dungeonSweep != nil {
		spec := m.cfg.Maintenance.DungeonSweepCron
		if _, err := runner.AddFunc(spec, func() { m.runSweep(ctx, "dungeon-sweep", m.dungeonSweep) }); err != nil {
			return fmt.Errorf("schedule dungeon sweep %q: %w", spec, err)
		}
	}

	runner.Start()
	m.cronRunner = runner
	m.log.Info("world manager maintenance scheduler started")
	return nil
}

// Stop halts the maintenance scheduler and every registered zone runtime.
func (m *Manager) Stop(ctx context.Context) error {
	m.cronMu.Lock()
	runner := m.cronRunner
	m.cronRunner = nil
	m.cronMu.Unlock()

	if runner != nil {
		stopped := runner.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	runtimes := make([]*zoneruntime.Runtime, 0, len(m.zones))
	for _, rt := range m.zones {
		runtimes = append(runtimes, rt)
	}
	m.mu.Unlock()

	for _, rt := range runtimes {
		if err := rt.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("zoneId", rt.Zone.ID).Warn("zone runtime stop failed")
		}
	}

	m.log.Info("world manager stopped")
	return nil
}

func (m *Manager) runSweep(ctx context.Context, name string, fn MaintenanceFunc) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	err := fn(sweepCtx)
	if err != nil {
		m.log.WithError(err).WithField("sweep", name).Warn("maintenance sweep failed")
		return
	}
	m.log.WithField("sweep", name).WithField("elapsed", time.Since(start)).Debug("maintenance sweep complete")
}
