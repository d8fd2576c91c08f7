// Package transition implements the Transition Manager (C14): cross-zone
// portal movement with proximity and level gating, executed atomically
// against concurrent zone readers via a fixed lock-acquisition order
// (spec.md §4.9).
package transition

import (
	"context"

	core "github.com/nexusrealms/worldcore/internal/app/core/service"
	"github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/app/system"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
)

var _ system.Service = (*Manager)(nil)

// ZoneLookup is the subset of the World Manager the Transition Manager
// needs: resolving a zone id to its live Zone. Kept as an interface so this
// package never imports the concrete World Manager type.
type ZoneLookup interface {
	Zone(zoneID string) (*zone.Zone, bool)
}

// Manager executes portal transitions. It holds no mutable state of its
// own beyond configuration; every operation acquires only the zone locks it
// needs for the duration of the move.
type Manager struct {
	cfg   *config.Config
	zones ZoneLookup
}

// NewManager constructs a Manager.
func NewManager(cfg *config.Config, zones ZoneLookup) *Manager {
	return &Manager{cfg: cfg, zones: zones}
}

// Name identifies this Manager as a system.Service.
func (m *Manager) Name() string { return "transition-manager" }

// Descriptor advertises this service's placement for orchestration tooling.
func (m *Manager) Descriptor() core.Descriptor {
	return core.Descriptor{Name: m.Name(), Domain: "transition", Layer: core.LayerEngine}
}

// Start satisfies system.Service; the Transition Manager holds no
// background resources of its own to start.
func (m *Manager) Start(ctx context.Context) error { return nil }

// Stop satisfies system.Service; the Transition Manager holds no
// background resources of its own to stop.
func (m *Manager) Stop(ctx context.Context) error { return nil }

// TransitionPortal executes spec.md §4.9's portal-transition sequence for
// entityID, currently in sourceZoneID, using the portal identified by
// portalID. On success the entity is removed from the source zone's entity
// map and inserted into the destination zone's, positioned at the
// destination portal's location; on any precondition failure the entity is
// untouched.
func (m *Manager) TransitionPortal(sourceZoneID, entityID, portalID string) error {
	sourceZone, ok := m.zones.Zone(sourceZoneID)
	if !ok {
		return apperrors.ValidationError("no such zone").WithDetails("zoneId", sourceZoneID)
	}

	sourceZone.Lock()
	traveler, ok := sourceZone.Get(entityID)
	if !ok {
		sourceZone.Unlock()
		return apperrors.ValidationError("no such entity in this zone").WithDetails("entityId", entityID)
	}
	portal, ok := sourceZone.Get(portalID)
	if !ok {
		sourceZone.Unlock()
		return apperrors.ValidationError("no such portal in this zone").WithDetails("entityId", portalID)
	}
	portalData, err := portal.RequirePortal()
	if err != nil {
		sourceZone.Unlock()
		return err
	}
	if !traveler.WithinRange(portal, m.cfg.Proximity.PortalProximity) {
		sourceZone.Unlock()
		return apperrors.PreconditionError("entity is out of portal range").WithDetails("entityId", entityID)
	}
	player, err := traveler.RequirePlayer()
	if err != nil {
		sourceZone.Unlock()
		return err
	}
	if player.Level < portalData.MinLevel {
		sourceZone.Unlock()
		return apperrors.PreconditionError("entity does not meet the destination zone's level requirement").
			WithDetails("entityId", entityID).WithDetails("requiredLevel", portalData.MinLevel)
	}
	destinationZoneID := portalData.DestinationZone
	destinationPoiID := portalData.DestinationPoi
	sourceZone.Unlock()

	destinationZone, ok := m.zones.Zone(destinationZoneID)
	if !ok {
		return apperrors.ValidationError("destination zone does not exist").WithDetails("zoneId", destinationZoneID)
	}

	return movePlayerThroughPortal(sourceZone, destinationZone, entityID, destinationPoiID)
}

// movePlayerThroughPortal performs steps 1-3 of spec.md §4.9 atomically to
// concurrent readers of either zone, holding both zone locks in a fixed
// global order (lexicographic zone id) for the duration.
func movePlayerThroughPortal(sourceZone, destinationZone *zone.Zone, entityID, destinationPoiID string) error {
	first, second := sourceZone, destinationZone
	if destinationZone.ID < sourceZone.ID {
		first, second = destinationZone, sourceZone
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	destinationPortal, ok := destinationZone.Get(destinationPoiID)
	if !ok {
		return apperrors.ValidationError("destination portal does not exist").WithDetails("entityId", destinationPoiID)
	}

	traveler, ok := sourceZone.Remove(entityID)
	if !ok {
		return apperrors.ValidationError("entity left the source zone before transition completed").WithDetails("entityId", entityID)
	}

	traveler.X, traveler.Y = destinationPortal.X, destinationPortal.Y
	if err := destinationZone.Insert(traveler); err != nil {
		_ = sourceZone.Insert(traveler)
		return err
	}
	return nil
}
