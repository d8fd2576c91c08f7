// Package zone defines the Zone value type (C10's owned state) and its
// spatial index: the entity set, tick counter, terrain reference, and event
// log a Zone Runtime service (internal/app/services/zoneruntime, built
// elsewhere) drives every ~500ms.
package zone

import (
	"sync"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/app/domain/eventlog"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

// Bounds is a zone's rectangular tile-coordinate extent.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains reports whether (x, y) lies within the bounds, inclusive.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Event is one entry in a zone's tick event log ring buffer — combat
// resolutions, compensations, respawns — kept for operator visibility
// without needing a full ledger re-query (the same ring buffer structure
// backs the Asset Ledger Adapter's audit log, see domain/ledger).
type Event struct {
	Tick    uint64
	Kind    string
	Details map[string]any
}

// eventLogCapacity bounds how many recent tick events a zone retains.
const eventLogCapacity = 512

// Zone owns one bounded simulation unit's entity set and tick counter
// (spec.md §3 "Zone"). Invariant Z1 (an entity belongs to exactly one zone
// at any instant) is enforced by the Transition and Dungeon Managers
// performing a remove-then-insert across two Zones' Lock/Unlock pairs (§4.9);
// invariant Z2 (monotonic tick, +1 per clock event) is enforced here by
// AdvanceTick.
type Zone struct {
	ID string

	mu       sync.Mutex
	tick     uint64
	bounds   Bounds
	entities map[string]*entity.Entity

	Spatial  *SpatialIndex
	Terrain  *terrain.Grid
	eventLog *eventlog.RingBuffer[Event]
}

// New constructs an empty zone with its own spatial index and event log.
func New(id string, bounds Bounds, terrainGrid *terrain.Grid) *Zone {
	return &Zone{
		ID:       id,
		bounds:   bounds,
		entities: make(map[string]*entity.Entity),
		Spatial:  NewSpatialIndex(32),
		Terrain:  terrainGrid,
		eventLog: eventlog.NewRingBuffer[Event](eventLogCapacity),
	}
}

// Lock acquires the zone's mutex. Cross-zone operations (dungeon teleport,
// portal transition) must acquire the Locks of every zone they touch in a
// fixed global order (lexicographic zone id, per spec.md §4.9/§5) to avoid
// deadlock; a zone's own tick loop also holds this lock for the duration of
// each mutating phase since it is the single writer in the common case.
func (z *Zone) Lock() { z.mu.Lock() }

// Unlock releases the zone's mutex.
func (z *Zone) Unlock() { z.mu.Unlock() }

// Bounds returns the zone's rectangular extent.
func (z *Zone) Bounds() Bounds { return z.bounds }

// Tick returns the current tick counter. Callers needing a consistent
// read-modify-write should hold Lock/Unlock around the call.
func (z *Zone) Tick() uint64 {
	return z.tick
}

// AdvanceTick increments the tick counter by exactly 1 (invariant Z2) and
// returns the new value. Must be called with the zone locked.
func (z *Zone) AdvanceTick() uint64 {
	z.tick++
	return z.tick
}

// Insert adds e to the zone's entity set. Must be called with the zone
// locked. Returns a Conflict error if an entity with the same id is already
// present in this zone.
func (z *Zone) Insert(e *entity.Entity) error {
	if _, exists := z.entities[e.ID]; exists {
		return apperrors.ConflictError("entity already present in zone").
			WithDetails("entityId", e.ID).WithDetails("zoneId", z.ID)
	}
	e.ZoneID = z.ID
	z.entities[e.ID] = e
	z.Spatial.Upsert(e.ID, e.X, e.Y)
	return nil
}

// Remove detaches an entity from the zone's entity set and spatial index,
// returning it so the caller can re-insert it elsewhere (e.g. the Transition
// Manager performing a cross-zone transition). Must be called with the
// zone locked.
func (z *Zone) Remove(id string) (*entity.Entity, bool) {
	e, ok := z.entities[id]
	if !ok {
		return nil, false
	}
	delete(z.entities, id)
	z.Spatial.Remove(id)
	return e, true
}

// Get looks up an entity by id. Must be called with the zone locked for a
// consistent read during concurrent mutation, though reads from the zone's
// own tick loop goroutine need no additional synchronization.
func (z *Zone) Get(id string) (*entity.Entity, bool) {
	e, ok := z.entities[id]
	return e, ok
}

// All returns every entity currently in the zone. The returned slice is a
// snapshot of the map at call time; further Insert/Remove calls do not
// retroactively affect it.
func (z *Zone) All() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(z.entities))
	for _, e := range z.entities {
		out = append(out, e)
	}
	return out
}

// Count returns the number of entities currently in the zone.
func (z *Zone) Count() int {
	return len(z.entities)
}

// RebuildSpatialIndex rebuilds the spatial index from current entity
// positions (spec.md §4.1 step 8, run once per tick after mutations settle).
func (z *Zone) RebuildSpatialIndex() {
	positions := make(map[string][2]float64, len(z.entities))
	for id, e := range z.entities {
		positions[id] = [2]float64{e.X, e.Y}
	}
	z.Spatial.Rebuild(positions)
}

// LogEvent appends an entry to the zone's tick event log ring buffer.
func (z *Zone) LogEvent(kind string, details map[string]any) {
	z.eventLog.Append(Event{Tick: z.tick, Kind: kind, Details: details})
}

// RecentEvents returns the zone's retained event log, oldest first.
func (z *Zone) RecentEvents() []Event {
	return z.eventLog.Recent()
}
