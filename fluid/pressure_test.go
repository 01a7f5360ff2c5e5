package fluid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// floodedGrid returns a grid whose interior is entirely fluid with random
// face velocities in [-amp, amp]. Faces touching a solid are zeroed.
func floodedGrid(t testing.TB, n int, seed int64, amp float32) *Grid {
	t.Helper()
	g, err := NewGrid(n, n, 1)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for c := range g.U {
		g.U[c] = (rng.Float32()*2 - 1) * amp
		g.V[c] = (rng.Float32()*2 - 1) * amp
		if g.S[c] != 0 {
			g.Cell[c] = CellFluid
		}
	}
	g.enforceSolidFaces()
	return g
}

func divergenceCopy(g *Grid) []float32 {
	g.ComputeDivergence()
	return append([]float32(nil), g.Div...)
}

func l2(values []float32) float64 {
	var sum float64
	for _, v := range values {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestComputeDivergence(t *testing.T) {
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	c := g.Index(2, 2)
	g.U[c], g.U[c+1] = 1, 3
	g.V[c], g.V[c+5] = 0.5, -1

	g.ComputeDivergence()

	assert.InDelta(t, 3-1-1-0.5, g.Div[c], 1e-6)
	assert.Equal(t, float32(0), g.Div[g.Index(0, 2)], "solid cells read zero")
}

func TestSolveReducesDivergence(t *testing.T) {
	for _, iters := range []int{1, 2, 5, 20, 100} {
		g := floodedGrid(t, 32, 7, 0.5)
		before := l2(divergenceCopy(g))

		g.SolveIncompressibility(1.0/60, iters, 1.9, 1000, Drift{})
		after := l2(divergenceCopy(g))

		assert.Less(t, after, before, "iters=%d", iters)
	}
}

func TestSolveConvergesAfterManySweeps(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		g := floodedGrid(t, 32, seed, 0.5)
		before := divergenceCopy(g)

		g.SolveIncompressibility(1.0/60, 100, 1.9, 1000, Drift{})
		after := divergenceCopy(g)

		assert.Less(t, g.MaxFluidDivergence(), float32(1e-3), "seed=%d", seed)
		for c := range after {
			if g.Cell[c] != CellFluid {
				continue
			}
			b := float32(math.Abs(float64(before[c])))
			a := float32(math.Abs(float64(after[c])))
			if b < 1e-3 {
				// already inside the convergence tolerance
				assert.Less(t, a, float32(1e-3))
				continue
			}
			assert.Less(t, a, b, "seed=%d cell=%d", seed, c)
		}
	}
}

func TestSolveLeavesSolidFacesUntouched(t *testing.T) {
	g := floodedGrid(t, 16, 11, 1)
	n := g.NumX
	// a solid block in the middle, with non-zero face velocities on purpose
	rng := rand.New(rand.NewSource(5))
	for j := 6; j <= 9; j++ {
		for i := 6; i <= 9; i++ {
			c := g.Index(i, j)
			g.S[c] = 0
			g.Cell[c] = CellSolid
			g.U[c], g.U[c+1] = rng.Float32(), rng.Float32()
			g.V[c], g.V[c+n] = rng.Float32(), rng.Float32()
		}
	}

	type face struct {
		u   bool
		idx int
	}
	snapshot := map[face]float32{}
	for c, s := range g.S {
		if s != 0 {
			continue
		}
		i, j := c%n, c/n
		snapshot[face{true, c}] = g.U[c]
		snapshot[face{false, c}] = g.V[c]
		if i+1 < n {
			snapshot[face{true, c + 1}] = g.U[c+1]
		}
		if j+1 < g.NumY {
			snapshot[face{false, c + n}] = g.V[c+n]
		}
	}

	g.SolveIncompressibility(1.0/60, 60, 1.9, 1000, Drift{})

	for f, want := range snapshot {
		got := g.V[f.idx]
		if f.u {
			got = g.U[f.idx]
		}
		if got != want {
			t.Errorf("solid face u=%v idx=%d changed: %v -> %v", f.u, f.idx, want, got)
		}
	}
}

func TestSolveSkipsNonFluidCells(t *testing.T) {
	g, err := NewGrid(6, 6, 1)
	require.NoError(t, err)
	c := g.Index(2, 2)
	g.U[c+1] = 1 // divergent, but the cell is air

	g.SolveIncompressibility(1.0/60, 10, 1.9, 1000, Drift{})

	assert.Equal(t, float32(1), g.U[c+1])
	assert.Equal(t, float32(0), g.P[c])
}

func TestSolveAccumulatesPressure(t *testing.T) {
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	c := g.Index(2, 2)
	g.Cell[c] = CellFluid
	// inflow from both sides: positive pressure
	g.U[c] = 1
	g.U[c+1] = -1

	g.SolveIncompressibility(0.5, 1, 1, 2, Drift{})

	// d = -2, s = 4, pc = 0.5, cp = 2*1/0.5
	assert.InDelta(t, 2, g.P[c], 1e-6)
	assert.InDelta(t, 0.5, g.U[c], 1e-6)
	assert.InDelta(t, -0.5, g.U[c+1], 1e-6)
	assert.InDelta(t, -0.5, g.V[c], 1e-6)
	assert.InDelta(t, 0.5, g.V[c+5], 1e-6)
}

func TestSolveDriftPushesOutOfDenseCells(t *testing.T) {
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	c := g.Index(2, 2)
	g.Cell[c] = CellFluid
	g.Density[c] = 3

	g.SolveIncompressibility(1.0/60, 1, 1, 1000, Drift{Stiffness: 1, Rest: 1})

	// zero velocity but twice the rest density: the cell gains outflow
	assert.Greater(t, g.U[c+1], float32(0))
	assert.Less(t, g.U[c], float32(0))
	assert.Greater(t, g.V[c+5], float32(0))
	assert.Less(t, g.V[c], float32(0))
}

func BenchmarkSolveIncompressibility(b *testing.B) {
	g := floodedGrid(b, 64, 1, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.SolveIncompressibility(1.0/60, 50, 1.9, 1000, Drift{})
	}
}
