package fluid

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndex(t *testing.T) {
	g, err := NewGrid(7, 5, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Index(0, 0))
	assert.Equal(t, 6, g.Index(6, 0))
	assert.Equal(t, 7, g.Index(0, 1))
	assert.Equal(t, 3+4*7, g.Index(3, 4))
	assert.Equal(t, 35, g.Len())
}

func TestNewGridBorderIsSolid(t *testing.T) {
	g, err := NewGrid(6, 4, 0.5)
	require.NoError(t, err)

	for j := 0; j < g.NumY; j++ {
		for i := 0; i < g.NumX; i++ {
			c := g.Index(i, j)
			if g.IsBorder(i, j) {
				assert.Equal(t, float32(0), g.S[c], "border (%d,%d)", i, j)
				assert.Equal(t, CellSolid, g.Cell[c])
			} else {
				assert.Equal(t, float32(1), g.S[c], "interior (%d,%d)", i, j)
				assert.Equal(t, CellAir, g.Cell[c])
			}
		}
	}
	assert.Equal(t, float32(3), g.Width())
	assert.Equal(t, float32(2), g.Height())
}

func TestGridResizeIsAtomic(t *testing.T) {
	g, err := NewGrid(10, 10, 1)
	require.NoError(t, err)
	g.U[15] = 3
	oldU := g.U

	require.Error(t, g.Resize(0, 10, 1))
	require.Error(t, g.Resize(12, 12, 0))
	assert.Equal(t, 10, g.NumX)
	assert.Equal(t, float32(1), g.H)
	assert.Equal(t, float32(3), g.U[15])

	require.NoError(t, g.Resize(12, 8, 0.5))
	assert.Equal(t, 12, g.NumX)
	assert.Equal(t, 8, g.NumY)
	assert.Equal(t, float32(0.5), g.H)
	for _, field := range [][]float32{g.U, g.V, g.PrevU, g.PrevV, g.P, g.Div, g.Density, g.S, g.WeightU, g.WeightV} {
		assert.Len(t, field, 96)
	}
	assert.Len(t, g.Cell, 96)
	assert.Equal(t, float32(0), g.U[15])
	assert.Equal(t, float32(3), oldU[15], "old buffers are left to the caller")
}

func TestCellAtClamps(t *testing.T) {
	g, err := NewGrid(10, 8, 0.5)
	require.NoError(t, err)

	i, j := g.CellAt(1.26, 0.9)
	assert.Equal(t, 2, i)
	assert.Equal(t, 1, j)

	i, j = g.CellAt(-3, 100)
	assert.Equal(t, 0, i)
	assert.Equal(t, 7, j)
}

func TestEnforceSolidFaces(t *testing.T) {
	g, err := NewGrid(6, 6, 1)
	require.NoError(t, err)
	for c := range g.U {
		g.U[c] = 1
		g.V[c] = 1
	}
	inner := g.Index(3, 3)
	g.S[inner] = 0

	g.enforceSolidFaces()

	assert.Equal(t, float32(0), g.U[inner])
	assert.Equal(t, float32(0), g.U[inner+1])
	assert.Equal(t, float32(0), g.V[inner])
	assert.Equal(t, float32(0), g.V[inner+g.NumX])
	// left face of (1, 2) borders the solid wall column
	assert.Equal(t, float32(0), g.U[g.Index(1, 2)])
	// face between two open cells is untouched
	assert.Equal(t, float32(1), g.U[g.Index(2, 2)])
	assert.Equal(t, float32(1), g.V[g.Index(2, 2)])
}

func TestSnapshotCopiesVelocities(t *testing.T) {
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	g.U[7], g.V[8] = 1.5, -2

	g.snapshot()
	g.U[7] = 0

	assert.Equal(t, float32(1.5), g.PrevU[7])
	assert.Equal(t, float32(-2), g.PrevV[8])
}

func TestMaxDivergence(t *testing.T) {
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	g.Div[g.Index(1, 1)] = -4
	g.Div[g.Index(2, 2)] = 0.5
	g.Cell[g.Index(2, 2)] = CellFluid

	assert.Equal(t, float32(4), g.MaxAbsDivergence())
	assert.Equal(t, float32(0.5), g.MaxFluidDivergence())
}

func TestEnsureConsistentReallocates(t *testing.T) {
	if debugChecks {
		t.Skip("mismatch panics in debug builds")
	}
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	g.P = g.P[:3]

	assert.True(t, g.ensureConsistent(slog.New(slog.DiscardHandler)))
	assert.Len(t, g.P, 25)
	assert.False(t, g.ensureConsistent(slog.New(slog.DiscardHandler)))
}

func TestEnsureConsistentPanicsInDebug(t *testing.T) {
	if !debugChecks {
		t.Skip("only debug builds panic")
	}
	g, err := NewGrid(5, 5, 1)
	require.NoError(t, err)
	g.U = nil
	assert.Panics(t, func() { g.ensureConsistent(slog.Default()) })
}
