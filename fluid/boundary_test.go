package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerShapeString(t *testing.T) {
	assert.Equal(t, "box", ContainerBox.String())
	assert.Equal(t, "circle", ContainerCircle.String())
	assert.Equal(t, "ContainerShape(9)", ContainerShape(9).String())
}

func TestMarkSolidCircle(t *testing.T) {
	g, err := NewGrid(20, 20, 1)
	require.NoError(t, err)

	g.MarkSolid(CircleContainer(10, 10, 5), nil)

	assert.Equal(t, float32(1), g.S[g.Index(10, 10)])
	assert.Equal(t, float32(1), g.S[g.Index(13, 10)])
	assert.Equal(t, float32(0), g.S[g.Index(16, 10)])
	assert.Equal(t, CellSolid, g.Cell[g.Index(3, 3)])
}

func TestMarkSolidObstacleThenRelease(t *testing.T) {
	g, err := NewGrid(20, 20, 1)
	require.NoError(t, err)
	c := g.Index(8, 8)

	g.MarkSolid(BoxContainer(), []Obstacle{{X: 8.5, Y: 8.5, Radius: 1.2}})
	assert.Equal(t, CellSolid, g.Cell[c])
	assert.Equal(t, CellSolid, g.Cell[g.Index(9, 8)])
	assert.Equal(t, CellAir, g.Cell[g.Index(11, 8)])

	g.MarkSolid(BoxContainer(), nil)
	assert.Equal(t, CellAir, g.Cell[c])
	assert.Equal(t, float32(1), g.S[c])
	assert.Equal(t, CellSolid, g.Cell[g.Index(0, 8)], "border stays solid")
}

func TestImposeObstacleVelocity(t *testing.T) {
	g, err := NewGrid(12, 12, 1)
	require.NoError(t, err)
	obs := []Obstacle{{X: 6.5, Y: 6.5, Radius: 0.6, VX: 2, VY: -1}}
	g.MarkSolid(BoxContainer(), obs)

	g.imposeObstacleVelocity(obs)

	c := g.Index(6, 6)
	assert.Equal(t, float32(2), g.U[c])
	assert.Equal(t, float32(2), g.U[c+1])
	assert.Equal(t, float32(-1), g.V[c])
	assert.Equal(t, float32(-1), g.V[c+g.NumX])
	assert.Equal(t, float32(0), g.U[g.Index(3, 3)])
}

func TestReflect(t *testing.T) {
	// moving into a floor with normal +y
	vx, vy := reflect(2, -4, 0, 1, 0.5, 0.25)
	assert.InDelta(t, 1.5, vx, 1e-6)
	assert.InDelta(t, 2, vy, 1e-6)

	// moving away keeps the normal part
	vx, vy = reflect(2, 4, 0, 1, 0.5, 0)
	assert.InDelta(t, 2, vx, 1e-6)
	assert.InDelta(t, 4, vy, 1e-6)
}

func TestCollideBoundariesBox(t *testing.T) {
	g, err := NewGrid(10, 10, 1)
	require.NoError(t, err)
	p := NewParticles(2, 0.25)
	p.X[0], p.Y[0], p.VX[0], p.VY[0] = 0.5, 5, -3, 0
	p.X[1], p.Y[1], p.VX[1], p.VY[1] = 5, 9.5, 0, 3

	collideBoundaries(p, g, BoxContainer(), nil, 0, 0)

	assert.Equal(t, float32(1.25), p.X[0])
	assert.Equal(t, float32(0), p.VX[0])
	assert.Equal(t, float32(8.75), p.Y[1])
	assert.Equal(t, float32(0), p.VY[1])
}

func TestCollideBoundariesCircleAndObstacle(t *testing.T) {
	g, err := NewGrid(20, 20, 1)
	require.NoError(t, err)
	p := NewParticles(2, 0.5)
	p.X[0], p.Y[0], p.VX[0] = 17, 10, 4
	p.X[1], p.Y[1], p.VX[1] = 9.2, 10, 0
	obs := []Obstacle{{X: 9, Y: 10, Radius: 1, VX: 1}}

	collideBoundaries(p, g, CircleContainer(10, 10, 5), obs, 0, 0)

	assert.InDelta(t, 14.5, p.X[0], 1e-5)
	assert.InDelta(t, 0, p.VX[0], 1e-6)
	assert.InDelta(t, 10.5, p.X[1], 1e-5)
	assert.InDelta(t, 10, p.Y[1], 1e-5)
	assert.InDelta(t, 1, p.VX[1], 1e-6, "takes the obstacle's normal speed")
}
