package fluid

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// CellType classifies a grid cell for the current step.
type CellType uint8

const (
	CellSolid CellType = iota // impenetrable
	CellAir                   // open but empty, pressure held at zero
	CellFluid                 // open and holding at least one particle
)

// Grid is a MAC-style staggered grid.
//
// Cell (i, j) spans [i*H, (i+1)*H] x [j*H, (j+1)*H] and has index i + j*NumX.
// U[c] is the horizontal velocity on the left face of cell c, V[c] the
// vertical velocity on its bottom face. The right face of c is U[c+1] and the
// top face is V[c+NumX]. Pressure, divergence, density and the solid mask
// live at cell centers. The outermost ring of cells is always solid, so faces
// past the last column or row are never addressed.
//
// Every slice is NumX*NumY long.
type Grid struct {
	NumX, NumY int
	H          float32

	U, V         []float32
	PrevU, PrevV []float32 // pre-solve snapshot
	P            []float32
	Div          []float32
	Density      []float32
	S            []float32 // 1 open, 0 solid
	Cell         []CellType

	WeightU, WeightV []float32
}

// NewGrid allocates a zeroed grid whose border ring is solid.
func NewGrid(numX, numY int, h float32) (*Grid, error) {
	if err := validateDims(numX, numY, h); err != nil {
		return nil, err
	}
	g := &Grid{}
	g.alloc(numX, numY, h)
	return g, nil
}

func (g *Grid) alloc(numX, numY int, h float32) {
	n := numX * numY
	*g = Grid{
		NumX:    numX,
		NumY:    numY,
		H:       h,
		U:       make([]float32, n),
		V:       make([]float32, n),
		PrevU:   make([]float32, n),
		PrevV:   make([]float32, n),
		P:       make([]float32, n),
		Div:     make([]float32, n),
		Density: make([]float32, n),
		S:       make([]float32, n),
		Cell:    make([]CellType, n),
		WeightU: make([]float32, n),
		WeightV: make([]float32, n),
	}
	g.markBorder()
}

// Resize reallocates every field for the new geometry. On error the grid is
// left untouched; on success all previously returned slices are stale.
func (g *Grid) Resize(numX, numY int, h float32) error {
	if err := validateDims(numX, numY, h); err != nil {
		return err
	}
	var next Grid
	next.alloc(numX, numY, h)
	*g = next
	return nil
}

// Index maps a cell coordinate to its slice index.
func (g *Grid) Index(i, j int) int {
	return i + j*g.NumX
}

// Len is the number of cells.
func (g *Grid) Len() int { return g.NumX * g.NumY }

// Width and Height are the world extent covered by the grid.
func (g *Grid) Width() float32  { return float32(g.NumX) * g.H }
func (g *Grid) Height() float32 { return float32(g.NumY) * g.H }

// IsBorder reports whether (i, j) is on the always-solid outer ring.
func (g *Grid) IsBorder(i, j int) bool {
	return i == 0 || j == 0 || i == g.NumX-1 || j == g.NumY-1
}

// CellCenter returns the world position of the center of cell (i, j).
func (g *Grid) CellCenter(i, j int) (x, y float32) {
	return (float32(i) + 0.5) * g.H, (float32(j) + 0.5) * g.H
}

// CellAt returns the cell containing a world position, clamped to the grid.
func (g *Grid) CellAt(x, y float32) (i, j int) {
	i = clampInt(int(math.Floor(float64(x/g.H))), 0, g.NumX-1)
	j = clampInt(int(math.Floor(float64(y/g.H))), 0, g.NumY-1)
	return i, j
}

func (g *Grid) markBorder() {
	for j := 0; j < g.NumY; j++ {
		for i := 0; i < g.NumX; i++ {
			c := g.Index(i, j)
			if g.IsBorder(i, j) {
				g.S[c] = 0
				g.Cell[c] = CellSolid
			} else {
				g.S[c] = 1
				g.Cell[c] = CellAir
			}
		}
	}
}

// enforceSolidFaces zeroes every face shared with a solid cell.
// No flow may cross into or out of a solid.
func (g *Grid) enforceSolidFaces() {
	n := g.NumX
	for j := 0; j < g.NumY; j++ {
		for i := 0; i < n; i++ {
			c := i + j*n
			if g.S[c] != 0 {
				continue
			}
			g.U[c] = 0
			if i+1 < n {
				g.U[c+1] = 0
			}
			g.V[c] = 0
			if j+1 < g.NumY {
				g.V[c+n] = 0
			}
		}
	}
}

// snapshot stores the pre-solve velocities used by the FLIP delta.
func (g *Grid) snapshot() {
	n := g.Len()
	blas32.Copy(vec(g.U[:n]), vec(g.PrevU[:n]))
	blas32.Copy(vec(g.V[:n]), vec(g.PrevV[:n]))
}

// MaxAbsDivergence returns the largest |Div| over the grid.
// Call ComputeDivergence first.
func (g *Grid) MaxAbsDivergence() float32 {
	if len(g.Div) == 0 {
		return 0
	}
	k := blas32.Iamax(vec(g.Div))
	return float32(math.Abs(float64(g.Div[k])))
}

// MaxFluidDivergence is MaxAbsDivergence restricted to fluid cells. Air cells
// next to the surface are not solved and would otherwise dominate.
func (g *Grid) MaxFluidDivergence() float32 {
	var best float32
	for c, ct := range g.Cell {
		if ct != CellFluid {
			continue
		}
		if d := float32(math.Abs(float64(g.Div[c]))); d > best {
			best = d
		}
	}
	return best
}

// CountCells returns how many cells currently have the given type.
func (g *Grid) CountCells(t CellType) int {
	count := 0
	for _, ct := range g.Cell {
		if ct == t {
			count++
		}
	}
	return count
}

// ensureConsistent guards the co-sized allocation invariant. A mismatch is a
// programming error: fatal in debug builds, repaired with a fresh zeroed
// allocation otherwise. It reports whether the grid was reallocated.
func (g *Grid) ensureConsistent(logger *slog.Logger) bool {
	n := g.NumX * g.NumY
	ok := len(g.U) == n && len(g.V) == n && len(g.PrevU) == n && len(g.PrevV) == n &&
		len(g.P) == n && len(g.Div) == n && len(g.Density) == n && len(g.S) == n &&
		len(g.Cell) == n && len(g.WeightU) == n && len(g.WeightV) == n
	if ok {
		return false
	}
	if debugChecks {
		panic("fluid: grid buffers out of sync with dimensions")
	}
	logger.Warn("grid buffers out of sync, reallocating",
		"num_x", g.NumX, "num_y", g.NumY, "len_u", len(g.U), "len_p", len(g.P))
	g.alloc(g.NumX, g.NumY, g.H)
	return true
}

func vec(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
