// Package scene keeps the moving solids that stir the fluid. Obstacles are
// ECS entities; each step the scene hands their current shapes to the solver.
package scene

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
	"github.com/pthm-cable/flip/fluid"
)

// Scene owns the obstacle world.
type Scene struct {
	world  *ecs.World
	mapper *ecs.Map4[components.Position, components.Velocity, components.Body, components.Obstacle]
	filter ecs.Filter4[components.Position, components.Velocity, components.Body, components.Obstacle]
	posMap *ecs.Map1[components.Position]
	velMap *ecs.Map1[components.Velocity]

	motion *MotionSystem

	nextID  uint32
	held    ecs.Entity
	hasHeld bool
}

// New creates an empty scene whose obstacles stay inside bounds.
func New(bounds Bounds) *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:  world,
		mapper: ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Obstacle](world),
		filter: *ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Obstacle](world),
		posMap: ecs.NewMap1[components.Position](world),
		velMap: ecs.NewMap1[components.Velocity](world),
		motion: NewMotionSystem(world, bounds),
	}
}

// Spawn adds a drifting obstacle.
func (s *Scene) Spawn(x, y, vx, vy, radius float32) ecs.Entity {
	return s.spawn(x, y, vx, vy, radius, components.ObstacleDrifting)
}

func (s *Scene) spawn(x, y, vx, vy, radius float32, kind components.ObstacleKind) ecs.Entity {
	s.nextID++
	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{X: vx, Y: vy}
	body := components.Body{Radius: radius}
	obs := components.Obstacle{ID: s.nextID, Kind: kind}
	return s.mapper.NewEntity(&pos, &vel, &body, &obs)
}

// SpawnRandom adds n drifting obstacles at random positions inside bounds,
// each heading in a random direction at the given speed.
func (s *Scene) SpawnRandom(n int, bounds Bounds, radius, speed float32, rng *rand.Rand) {
	w := bounds.MaxX - bounds.MinX - 2*radius
	h := bounds.MaxY - bounds.MinY - 2*radius
	for range n {
		x := bounds.MinX + radius + rng.Float32()*max(w, 0)
		y := bounds.MinY + radius + rng.Float32()*max(h, 0)
		angle := rng.Float64() * 2 * math.Pi
		vx := speed * float32(math.Cos(angle))
		vy := speed * float32(math.Sin(angle))
		s.Spawn(x, y, vx, vy, radius)
	}
}

// Hold moves the held obstacle to (x, y), creating it on first use. Its
// velocity is the displacement over dt so the fluid is pushed along.
func (s *Scene) Hold(x, y, radius, dt float32) {
	if !s.hasHeld || !s.world.Alive(s.held) {
		s.held = s.spawn(x, y, 0, 0, radius, components.ObstacleHeld)
		s.hasHeld = true
		return
	}
	pos := s.posMap.Get(s.held)
	vel := s.velMap.Get(s.held)
	if dt > 0 {
		vel.X = (x - pos.X) / dt
		vel.Y = (y - pos.Y) / dt
	}
	pos.X, pos.Y = x, y
}

// Release drops the held obstacle, if any.
func (s *Scene) Release() {
	if s.hasHeld && s.world.Alive(s.held) {
		s.world.RemoveEntity(s.held)
	}
	s.hasHeld = false
}

// Holding reports whether an obstacle is currently held.
func (s *Scene) Holding() bool { return s.hasHeld }

// SetBounds changes the rectangle drifting obstacles bounce inside.
func (s *Scene) SetBounds(b Bounds) { s.motion.SetBounds(b) }

// Update advances drifting obstacles by dt.
func (s *Scene) Update(dt float32) {
	s.motion.Update(dt)
}

// Clear removes every obstacle.
func (s *Scene) Clear() {
	var dead []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		dead = append(dead, query.Entity())
	}
	for _, e := range dead {
		s.world.RemoveEntity(e)
	}
	s.hasHeld = false
}

// Count returns the number of obstacles.
func (s *Scene) Count() int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Obstacles appends the solver view of every obstacle to dst.
func (s *Scene) Obstacles(dst []fluid.Obstacle) []fluid.Obstacle {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body, _ := query.Get()
		dst = append(dst, fluid.Obstacle{X: pos.X, Y: pos.Y, Radius: body.Radius, VX: vel.X, VY: vel.Y})
	}
	return dst
}
