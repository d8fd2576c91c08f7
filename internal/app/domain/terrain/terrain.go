// Package terrain implements the chunked tile grid (C3): a walkability +
// movement-cost lookup over a zone's tiles, generated procedurally on
// demand and overlaid with a sparse diff store so unmodified chunks consume
// no persisted bytes.
package terrain

// ChunkSize is the edge length of a terrain chunk in tiles.
const ChunkSize = 16

// Tile is a single grid cell's walkability and movement-cost data.
type Tile struct {
	Walkable     bool
	MovementCost float64
}

// ChunkPos addresses a chunk by its integer chunk coordinates (not tile coordinates).
type ChunkPos struct {
	CX int
	CZ int
}

// TileDiff records one tile edit within a chunk, relative to the chunk's origin.
type TileDiff struct {
	LocalX int
	LocalY int
	Tile   Tile
}

// ChunkDiff is everything persisted for one modified chunk.
type ChunkDiff struct {
	CX           int                    `json:"cx"`
	CZ           int                    `json:"cz"`
	TileDiffs    []TileDiff             `json:"tileDiffs"`
	ObjectStates map[string]any         `json:"objectStates"`
}

// Generator produces the base (un-diffed) tile at a given absolute position.
// The default generator is a flat walkable plain; zones that need varied
// terrain supply their own.
type Generator func(x, y int) Tile

// FlatWalkableGenerator is the default Generator: every tile is walkable
// with unit movement cost.
func FlatWalkableGenerator(_, _ int) Tile {
	return Tile{Walkable: true, MovementCost: 1.0}
}

// Grid is a zone's terrain: a procedural base layer overlaid with a sparse
// set of modified chunks. It is read concurrently by the spatial index and
// mutated only by the owning Zone Runtime's single-writer loop.
type Grid struct {
	zoneID    string
	generate  Generator
	diffs     map[ChunkPos]*ChunkDiff
	tileDiffs map[ChunkPos]map[[2]int]Tile
}

// NewGrid constructs a terrain grid for a zone. A nil generator defaults to
// FlatWalkableGenerator.
func NewGrid(zoneID string, generate Generator) *Grid {
	if generate == nil {
		generate = FlatWalkableGenerator
	}
	return &Grid{
		zoneID:    zoneID,
		generate:  generate,
		diffs:     make(map[ChunkPos]*ChunkDiff),
		tileDiffs: make(map[ChunkPos]map[[2]int]Tile),
	}
}

func chunkOf(x, y int) (ChunkPos, int, int) {
	cx := floorDiv(x, ChunkSize)
	cz := floorDiv(y, ChunkSize)
	lx := x - cx*ChunkSize
	ly := y - cz*ChunkSize
	return ChunkPos{CX: cx, CZ: cz}, lx, ly
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TileAt returns the effective tile at an absolute (x, y) position: the
// diff-store override if present, otherwise the procedurally generated base.
func (g *Grid) TileAt(x, y int) Tile {
	pos, lx, ly := chunkOf(x, y)
	if local, ok := g.tileDiffs[pos]; ok {
		if t, ok := local[[2]int{lx, ly}]; ok {
			return t
		}
	}
	return g.generate(x, y)
}

// Walkable reports whether the tile at (x, y) can be entered.
func (g *Grid) Walkable(x, y int) bool {
	return g.TileAt(x, y).Walkable
}

// SetTile records a tile edit, materializing a ChunkDiff entry for its chunk
// if this is the chunk's first modification.
func (g *Grid) SetTile(x, y int, tile Tile) {
	pos, lx, ly := chunkOf(x, y)

	diff, ok := g.diffs[pos]
	if !ok {
		diff = &ChunkDiff{CX: pos.CX, CZ: pos.CZ, ObjectStates: map[string]any{}}
		g.diffs[pos] = diff
		g.tileDiffs[pos] = map[[2]int]Tile{}
	}

	g.tileDiffs[pos][[2]int{lx, ly}] = tile

	replaced := false
	for i := range diff.TileDiffs {
		if diff.TileDiffs[i].LocalX == lx && diff.TileDiffs[i].LocalY == ly {
			diff.TileDiffs[i].Tile = tile
			replaced = true
			break
		}
	}
	if !replaced {
		diff.TileDiffs = append(diff.TileDiffs, TileDiff{LocalX: lx, LocalY: ly, Tile: tile})
	}
}

// SetObjectState records a placed-object's state against the chunk
// containing (x, y) — e.g. a harvested node's depletion marker that should
// persist across server restarts even though the node entity itself is
// re-spawned from the catalog.
func (g *Grid) SetObjectState(x, y int, key string, value any) {
	pos, _, _ := chunkOf(x, y)

	diff, ok := g.diffs[pos]
	if !ok {
		diff = &ChunkDiff{CX: pos.CX, CZ: pos.CZ, ObjectStates: map[string]any{}}
		g.diffs[pos] = diff
		g.tileDiffs[pos] = map[[2]int]Tile{}
	}
	diff.ObjectStates[key] = value
}

// ModifiedChunks returns every chunk that has at least one diff, for
// serialization into the per-zone chunk-state file.
func (g *Grid) ModifiedChunks() []ChunkDiff {
	out := make([]ChunkDiff, 0, len(g.diffs))
	for _, d := range g.diffs {
		out = append(out, *d)
	}
	return out
}

// LoadDiffs replaces the grid's diff overlay with previously persisted
// chunk diffs, used when a zone loads its chunk-state file at boot.
func (g *Grid) LoadDiffs(diffs []ChunkDiff) {
	g.diffs = make(map[ChunkPos]*ChunkDiff, len(diffs))
	g.tileDiffs = make(map[ChunkPos]map[[2]int]Tile, len(diffs))

	for i := range diffs {
		d := diffs[i]
		pos := ChunkPos{CX: d.CX, CZ: d.CZ}
		stored := d
		g.diffs[pos] = &stored

		local := make(map[[2]int]Tile, len(d.TileDiffs))
		for _, td := range d.TileDiffs {
			local[[2]int{td.LocalX, td.LocalY}] = td.Tile
		}
		g.tileDiffs[pos] = local
	}
}

// ZoneFile is the persisted shape of a per-zone chunk-state file
// (spec.md §6 "Persisted state").
type ZoneFile struct {
	ZoneID    string      `json:"zoneId"`
	UpdatedAt string      `json:"updatedAt"`
	States    []ChunkDiff `json:"states"`
}
