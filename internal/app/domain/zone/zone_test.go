package zone

import (
	"testing"

	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

func testBounds() Bounds {
	return Bounds{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
}

func TestInsertThenGet(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	e := entity.New("e1", entity.TypePlayer, "", 5, 5)

	z.Lock()
	defer z.Unlock()

	if err := z.Insert(e); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if e.ZoneID != "zone-1" {
		t.Errorf("Insert() did not stamp ZoneID, got %q", e.ZoneID)
	}

	got, ok := z.Get("e1")
	if !ok || got != e {
		t.Errorf("Get() = %v, %v, want inserted entity", got, ok)
	}
}

func TestInsertDuplicateIsConflict(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	e1 := entity.New("dup", entity.TypePlayer, "", 0, 0)
	e2 := entity.New("dup", entity.TypePlayer, "", 1, 1)

	z.Lock()
	defer z.Unlock()

	if err := z.Insert(e1); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	err := z.Insert(e2)
	if !apperrors.Is(err, apperrors.Conflict) {
		t.Errorf("Insert() duplicate error = %v, want Conflict", err)
	}
}

func TestRemoveDetachesFromEntityMapAndSpatialIndex(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	e := entity.New("e1", entity.TypePlayer, "", 5, 5)

	z.Lock()
	_ = z.Insert(e)
	removed, ok := z.Remove("e1")
	z.Unlock()

	if !ok || removed != e {
		t.Fatalf("Remove() = %v, %v, want the inserted entity", removed, ok)
	}
	if _, ok := z.Get("e1"); ok {
		t.Error("entity still present in zone after Remove()")
	}
	if got := z.Spatial.QueryRadius(5, 5, 1); len(got) != 0 {
		t.Errorf("spatial index still has entity after Remove(): %v", got)
	}
}

func TestAdvanceTickIncrementsByExactlyOne(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	z.Lock()
	defer z.Unlock()

	for want := uint64(1); want <= 5; want++ {
		got := z.AdvanceTick()
		if got != want {
			t.Fatalf("AdvanceTick() = %d, want %d", got, want)
		}
	}
	if z.Tick() != 5 {
		t.Errorf("Tick() = %d, want 5", z.Tick())
	}
}

func TestRebuildSpatialIndexReflectsCurrentPositions(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	e := entity.New("e1", entity.TypePlayer, "", 0, 0)

	z.Lock()
	_ = z.Insert(e)
	e.X, e.Y = 200, 200
	z.RebuildSpatialIndex()
	z.Unlock()

	if got := z.Spatial.QueryRadius(0, 0, 5); len(got) != 0 {
		t.Errorf("stale position still indexed: %v", got)
	}
	if got := z.Spatial.QueryRadius(200, 200, 5); len(got) != 1 || got[0] != "e1" {
		t.Errorf("QueryRadius() at new position = %v, want [e1]", got)
	}
}

func TestLogEventAndRecentEvents(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	z.Lock()
	z.AdvanceTick()
	z.LogEvent("mob_killed", map[string]any{"mobId": "m1"})
	z.Unlock()

	events := z.RecentEvents()
	if len(events) != 1 {
		t.Fatalf("RecentEvents() len = %d, want 1", len(events))
	}
	if events[0].Tick != 1 || events[0].Kind != "mob_killed" {
		t.Errorf("RecentEvents()[0] = %+v, want tick=1 kind=mob_killed", events[0])
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	z := New("zone-1", testBounds(), nil)
	z.Lock()
	_ = z.Insert(entity.New("e1", entity.TypePlayer, "", 0, 0))
	_ = z.Insert(entity.New("e2", entity.TypeMob, "", 1, 1))
	all := z.All()
	z.Unlock()

	if len(all) != 2 {
		t.Errorf("All() len = %d, want 2", len(all))
	}
	if z.Count() != 2 {
		t.Errorf("Count() = %d, want 2", z.Count())
	}
}
