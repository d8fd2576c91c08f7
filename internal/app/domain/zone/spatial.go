package zone

// SpatialIndex is a bucketed 2D grid over entity positions (C2): radius
// queries examine only the cells that could possibly contain a hit, giving
// O(k) queries over k candidate entities rather than scanning every entity
// in the zone.
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey][]string
	entities map[string]point
}

type cellKey struct {
	cx int
	cy int
}

type point struct {
	x float64
	y float64
}

// NewSpatialIndex constructs an index with the given bucket size in tile
// units. A larger cellSize trades fewer buckets for more per-bucket
// candidates to filter.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 32
	}
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]string),
		entities: make(map[string]point),
	}
}

func (s *SpatialIndex) keyFor(x, y float64) cellKey {
	return cellKey{cx: int(x / s.cellSize), cy: int(y / s.cellSize)}
}

// Upsert inserts id at (x, y), or moves it there if already indexed.
func (s *SpatialIndex) Upsert(id string, x, y float64) {
	if old, ok := s.entities[id]; ok {
		oldKey := s.keyFor(old.x, old.y)
		newKey := s.keyFor(x, y)
		if oldKey == newKey {
			s.entities[id] = point{x, y}
			return
		}
		s.removeFromCell(oldKey, id)
	}

	key := s.keyFor(x, y)
	s.cells[key] = append(s.cells[key], id)
	s.entities[id] = point{x, y}
}

// Remove drops id from the index entirely.
func (s *SpatialIndex) Remove(id string) {
	pos, ok := s.entities[id]
	if !ok {
		return
	}
	s.removeFromCell(s.keyFor(pos.x, pos.y), id)
	delete(s.entities, id)
}

func (s *SpatialIndex) removeFromCell(key cellKey, id string) {
	bucket := s.cells[key]
	for i, existing := range bucket {
		if existing == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.cells, key)
	} else {
		s.cells[key] = bucket
	}
}

// QueryRadius returns every indexed entity id within radius r of (x, y).
func (s *SpatialIndex) QueryRadius(x, y, r float64) []string {
	if r < 0 {
		return nil
	}

	minCX := int((x - r) / s.cellSize)
	maxCX := int((x + r) / s.cellSize)
	minCY := int((y - r) / s.cellSize)
	maxCY := int((y + r) / s.cellSize)

	rSq := r * r
	var out []string
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, id := range s.cells[cellKey{cx: cx, cy: cy}] {
				p := s.entities[id]
				dx := p.x - x
				dy := p.y - y
				if dx*dx+dy*dy <= rSq {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// Rebuild clears and reinserts every entity from a fresh position snapshot,
// used at the end of each tick (spec.md §4.1 step 8).
func (s *SpatialIndex) Rebuild(positions map[string][2]float64) {
	s.cells = make(map[cellKey][]string)
	s.entities = make(map[string]point, len(positions))
	for id, pos := range positions {
		s.Upsert(id, pos[0], pos[1])
	}
}

// Len returns the number of indexed entities.
func (s *SpatialIndex) Len() int {
	return len(s.entities)
}
