package fluid

// SpatialHash provides neighbor lookups for particles using a uniform
// cell grid. Cells hold particle indices.
type SpatialHash struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32
}

// NewSpatialHash creates a hash covering [0, width] x [0, height].
func NewSpatialHash(width, height, cellSize float32) *SpatialHash {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 4)
	}

	return &SpatialHash{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear empties every cell, keeping capacity.
func (h *SpatialHash) Clear() {
	for i := range h.cells {
		h.cells[i] = h.cells[i][:0]
	}
}

// Insert files particle k under the cell containing (x, y).
func (h *SpatialHash) Insert(k int, x, y float32) {
	idx := h.cellIndex(x, y)
	h.cells[idx] = append(h.cells[idx], int32(k))
}

// Build clears the hash and inserts every particle.
func (h *SpatialHash) Build(p *Particles) {
	h.Clear()
	for k := range p.X {
		h.Insert(k, p.X[k], p.Y[k])
	}
}

// MaxQueryResults caps the neighbors returned by one query so a dense clump
// cannot blow up the work of a single particle.
const MaxQueryResults = 64

// QueryRadiusInto appends to dst the indices greater than after of particles
// within radius of (x, y), up to MaxQueryResults. Pass -1 to get every index.
// Reuse dst across calls.
func (h *SpatialHash) QueryRadiusInto(dst []int32, p *Particles, x, y, radius float32, after int) []int32 {
	cellRadius := int(radius/h.cellSize) + 1
	centerCol := clampInt(int(x/h.cellSize), 0, h.cols-1)
	centerRow := clampInt(int(y/h.cellSize), 0, h.rows-1)
	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= h.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= h.cols {
				continue
			}
			for _, k := range h.cells[row*h.cols+col] {
				if int(k) <= after {
					continue
				}
				dx := p.X[k] - x
				dy := p.Y[k] - y
				if dx*dx+dy*dy <= radiusSq {
					dst = append(dst, k)
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}
	return dst
}

// cellIndex returns the flat index for a world position, clamped.
func (h *SpatialHash) cellIndex(x, y float32) int {
	col := clampInt(int(x/h.cellSize), 0, h.cols-1)
	row := clampInt(int(y/h.cellSize), 0, h.rows-1)
	return row*h.cols + col
}
