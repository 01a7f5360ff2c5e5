package scene

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/flip/fluid"
)

var testBounds = Bounds{MinX: 0.1, MinY: 0.1, MaxX: 2.9, MaxY: 1.9}

func TestSpawnAndObstacles(t *testing.T) {
	s := New(testBounds)
	s.Spawn(1, 1, 0.5, -0.5, 0.2)
	s.Spawn(2, 1.5, 0, 0, 0.1)

	obs := s.Obstacles(nil)
	require.Len(t, obs, 2)
	assert.Equal(t, 2, s.Count())
	assert.Contains(t, obs, fluid.Obstacle{X: 1, Y: 1, Radius: 0.2, VX: 0.5, VY: -0.5})
}

func TestMotionBouncesOffBounds(t *testing.T) {
	s := New(testBounds)
	s.Spawn(2.6, 1, 1, 0, 0.2)

	s.Update(0.5)

	obs := s.Obstacles(nil)
	require.Len(t, obs, 1)
	assert.InDelta(t, 2.7, obs[0].X, 1e-6, "clamped to max - radius")
	assert.Equal(t, float32(-1), obs[0].VX)

	for range 100 {
		s.Update(0.1)
	}
	obs = s.Obstacles(obs[:0])
	assert.GreaterOrEqual(t, obs[0].X, testBounds.MinX+0.2)
	assert.LessOrEqual(t, obs[0].X, testBounds.MaxX-0.2)
}

func TestSpawnRandomStaysInside(t *testing.T) {
	s := New(testBounds)
	s.SpawnRandom(20, testBounds, 0.1, 0.5, rand.New(rand.NewSource(3)))

	obs := s.Obstacles(nil)
	require.Len(t, obs, 20)
	for _, o := range obs {
		assert.GreaterOrEqual(t, o.X, testBounds.MinX+0.1)
		assert.LessOrEqual(t, o.X, testBounds.MaxX-0.1)
		assert.GreaterOrEqual(t, o.Y, testBounds.MinY+0.1)
		assert.LessOrEqual(t, o.Y, testBounds.MaxY-0.1)
		assert.InDelta(t, 0.25, o.VX*o.VX+o.VY*o.VY, 1e-5)
	}
}

func TestHoldTracksPointer(t *testing.T) {
	s := New(testBounds)
	s.Hold(1, 1, 0.15, 0.1)
	assert.True(t, s.Holding())

	s.Hold(1.2, 0.9, 0.15, 0.1)
	s.Update(0.1)

	obs := s.Obstacles(nil)
	require.Len(t, obs, 1)
	assert.InDelta(t, 1.2, obs[0].X, 1e-6, "held obstacles ignore the motion system")
	assert.InDelta(t, 2, obs[0].VX, 1e-5)
	assert.InDelta(t, -1, obs[0].VY, 1e-5)

	s.Release()
	assert.False(t, s.Holding())
	assert.Equal(t, 0, s.Count())
}

func TestClear(t *testing.T) {
	s := New(testBounds)
	s.SpawnRandom(5, testBounds, 0.1, 0.5, rand.New(rand.NewSource(1)))
	s.Hold(1, 1, 0.1, 0.1)

	s.Clear()

	assert.Equal(t, 0, s.Count())
	assert.False(t, s.Holding())
	s.Hold(1, 1, 0.1, 0.1)
	assert.Equal(t, 1, s.Count())
}
