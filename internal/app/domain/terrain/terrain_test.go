package terrain

import "testing"

func TestTileAtDefaultsToGenerator(t *testing.T) {
	g := NewGrid("z1", nil)
	tile := g.TileAt(100, -40)
	if !tile.Walkable || tile.MovementCost != 1.0 {
		t.Errorf("TileAt() = %+v, want flat walkable default", tile)
	}
}

func TestSetTileOverridesGenerator(t *testing.T) {
	g := NewGrid("z1", nil)
	g.SetTile(5, 5, Tile{Walkable: false, MovementCost: 0})

	if g.Walkable(5, 5) {
		t.Error("tile at (5,5) should be unwalkable after SetTile")
	}
	if g.Walkable(6, 5) == false {
		t.Error("unrelated tile at (6,5) should remain walkable")
	}
}

func TestModifiedChunksOnlyIncludesEditedChunks(t *testing.T) {
	g := NewGrid("z1", nil)
	if len(g.ModifiedChunks()) != 0 {
		t.Fatal("fresh grid should have no modified chunks")
	}

	g.SetTile(0, 0, Tile{Walkable: false})
	g.SetTile(1, 1, Tile{Walkable: false})
	g.SetTile(20, 20, Tile{Walkable: false}) // different chunk

	chunks := g.ModifiedChunks()
	if len(chunks) != 2 {
		t.Fatalf("ModifiedChunks() len = %d, want 2", len(chunks))
	}
}

func TestLoadDiffsRoundTrips(t *testing.T) {
	g := NewGrid("z1", nil)
	g.SetTile(3, 3, Tile{Walkable: false, MovementCost: 0})
	g.SetObjectState(3, 3, "nodeDepleted", true)

	saved := g.ModifiedChunks()

	g2 := NewGrid("z1", nil)
	g2.LoadDiffs(saved)

	if g2.Walkable(3, 3) {
		t.Error("reloaded grid should preserve the unwalkable diff")
	}

	chunks := g2.ModifiedChunks()
	if len(chunks) != 1 || chunks[0].ObjectStates["nodeDepleted"] != true {
		t.Errorf("reloaded grid should preserve object state, got %+v", chunks)
	}
}

func TestChunkOfNegativeCoordinates(t *testing.T) {
	pos, lx, ly := chunkOf(-1, -1)
	if pos.CX != -1 || pos.CZ != -1 {
		t.Errorf("chunkOf(-1,-1) pos = %+v, want {-1,-1}", pos)
	}
	if lx != ChunkSize-1 || ly != ChunkSize-1 {
		t.Errorf("chunkOf(-1,-1) local = (%d,%d), want (%d,%d)", lx, ly, ChunkSize-1, ChunkSize-1)
	}
}
