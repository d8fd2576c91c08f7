package zone

import (
	"sort"
	"testing"
)

func TestQueryRadiusFindsNearby(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Upsert("a", 0, 0)
	idx.Upsert("b", 10, 0)
	idx.Upsert("c", 1000, 1000)

	got := idx.QueryRadius(0, 0, 15)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("QueryRadius() = %v, want [a b]", got)
	}
}

func TestUpsertMovesEntity(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Upsert("a", 0, 0)
	idx.Upsert("a", 500, 500)

	if got := idx.QueryRadius(0, 0, 10); len(got) != 0 {
		t.Errorf("QueryRadius() near origin = %v, want empty after move", got)
	}
	if got := idx.QueryRadius(500, 500, 10); len(got) != 1 || got[0] != "a" {
		t.Errorf("QueryRadius() near new position = %v, want [a]", got)
	}
}

func TestRemove(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Upsert("a", 0, 0)
	idx.Remove("a")

	if got := idx.QueryRadius(0, 0, 10); len(got) != 0 {
		t.Errorf("QueryRadius() after Remove = %v, want empty", got)
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
}

func TestRebuildReplacesAllEntities(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Upsert("stale", 0, 0)

	idx.Rebuild(map[string][2]float64{"fresh": {5, 5}})

	if got := idx.QueryRadius(0, 0, 10); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("QueryRadius() after Rebuild = %v, want [fresh] (stale entity dropped)", got)
	}
}

func TestQueryRadiusNegativeReturnsNil(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Upsert("a", 0, 0)
	if got := idx.QueryRadius(0, 0, -1); got != nil {
		t.Errorf("QueryRadius() with negative radius = %v, want nil", got)
	}
}
