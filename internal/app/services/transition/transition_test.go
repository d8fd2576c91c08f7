package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
	"github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
)

type fakeZones struct {
	zones map[string]*zone.Zone
}

func newFakeZones(zs ...*zone.Zone) *fakeZones {
	f := &fakeZones{zones: make(map[string]*zone.Zone, len(zs))}
	for _, z := range zs {
		f.zones[z.ID] = z
	}
	return f
}

func (f *fakeZones) Zone(zoneID string) (*zone.Zone, bool) {
	z, ok := f.zones[zoneID]
	return z, ok
}

func newZone(id string) *zone.Zone {
	grid := terrain.NewGrid(id, terrain.FlatWalkableGenerator)
	return zone.New(id, zone.Bounds{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000}, grid)
}

func newPlayer(id string, level int, x, y float64) *entity.Entity {
	e := entity.New(id, entity.TypePlayer, "", x, y)
	e.Vitals = &entity.Vitals{HP: 100, MaxHP: 100, Alive: true}
	e.Player = &entity.PlayerData{Level: level, Equipment: map[entity.EquipSlot]*entity.EquippedItem{}}
	return e
}

func newPortal(id, destZone, destPoi string, minLevel int, x, y float64) *entity.Entity {
	e := entity.New(id, entity.TypePortalMarker, "", x, y)
	e.Portal = &entity.PortalData{DestinationZone: destZone, DestinationPoi: destPoi, MinLevel: minLevel}
	return e
}

func TestTransitionPortalMovesEntityAcrossZones(t *testing.T) {
	town := newZone("town")
	wild := newZone("wild-meadow")

	player := newPlayer("p1", 5, 10, 10)
	require.NoError(t, town.Insert(player))
	srcPortal := newPortal("portal-out", "wild-meadow", "portal-in", 5, 11, 10)
	require.NoError(t, town.Insert(srcPortal))
	dstPortal := newPortal("portal-in", "town", "portal-out", 0, 50, 60)
	require.NoError(t, wild.Insert(dstPortal))

	m := NewManager(config.New(), newFakeZones(town, wild))

	require.NoError(t, m.TransitionPortal("town", "p1", "portal-out"))

	_, stillInTown := town.Get("p1")
	assert.False(t, stillInTown)

	moved, ok := wild.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 50.0, moved.X)
	assert.Equal(t, 60.0, moved.Y)
	assert.Equal(t, "wild-meadow", moved.ZoneID)
}

func TestTransitionPortalRejectsOutOfRange(t *testing.T) {
	town := newZone("town")
	wild := newZone("wild-meadow")

	player := newPlayer("p1", 5, 500, 500)
	require.NoError(t, town.Insert(player))
	srcPortal := newPortal("portal-out", "wild-meadow", "portal-in", 5, 11, 10)
	require.NoError(t, town.Insert(srcPortal))

	m := NewManager(config.New(), newFakeZones(town, wild))

	err := m.TransitionPortal("town", "p1", "portal-out")
	ge, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.Precondition, ge.Kind)

	_, stillInTown := town.Get("p1")
	assert.True(t, stillInTown)
}

func TestTransitionPortalRejectsInsufficientLevel(t *testing.T) {
	town := newZone("town")
	wild := newZone("wild-meadow")

	player := newPlayer("p1", 4, 10, 10)
	require.NoError(t, town.Insert(player))
	srcPortal := newPortal("portal-out", "wild-meadow", "portal-in", 5, 11, 10)
	require.NoError(t, town.Insert(srcPortal))
	dstPortal := newPortal("portal-in", "town", "portal-out", 0, 50, 60)
	require.NoError(t, wild.Insert(dstPortal))

	m := NewManager(config.New(), newFakeZones(town, wild))

	err := m.TransitionPortal("town", "p1", "portal-out")
	ge, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.Precondition, ge.Kind)

	_, stillInTown := town.Get("p1")
	assert.True(t, stillInTown)

	player.Player.Level = 5
	require.NoError(t, m.TransitionPortal("town", "p1", "portal-out"))
	_, ok = wild.Get("p1")
	assert.True(t, ok)
}

func TestTransitionPortalRejectsMissingDestinationPortal(t *testing.T) {
	town := newZone("town")
	wild := newZone("wild-meadow")

	player := newPlayer("p1", 5, 10, 10)
	require.NoError(t, town.Insert(player))
	srcPortal := newPortal("portal-out", "wild-meadow", "portal-in", 5, 11, 10)
	require.NoError(t, town.Insert(srcPortal))
	// no dstPortal inserted into wild-meadow

	m := NewManager(config.New(), newFakeZones(town, wild))

	err := m.TransitionPortal("town", "p1", "portal-out")
	ge, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.Validation, ge.Kind)

	_, stillInTown := town.Get("p1")
	assert.True(t, stillInTown)
}
