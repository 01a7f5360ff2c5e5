package scene

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
)

// Bounds is the rectangle obstacles are kept inside.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float32
}

// MotionSystem moves drifting obstacles and bounces them off the bounds.
type MotionSystem struct {
	filter ecs.Filter4[components.Position, components.Velocity, components.Body, components.Obstacle]
	bounds Bounds
}

// NewMotionSystem creates a motion system over w.
func NewMotionSystem(w *ecs.World, bounds Bounds) *MotionSystem {
	return &MotionSystem{
		filter: *ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Obstacle](w),
		bounds: bounds,
	}
}

// SetBounds changes the rectangle used from the next update on.
func (s *MotionSystem) SetBounds(b Bounds) { s.bounds = b }

// Update advances every drifting obstacle by dt. Held obstacles are moved by
// whoever holds them.
func (s *MotionSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body, obs := query.Get()
		if obs.Kind != components.ObstacleDrifting {
			continue
		}

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt

		minX, maxX := s.bounds.MinX+body.Radius, s.bounds.MaxX-body.Radius
		minY, maxY := s.bounds.MinY+body.Radius, s.bounds.MaxY-body.Radius
		if pos.X < minX {
			pos.X = minX
			vel.X = -vel.X
		}
		if pos.X > maxX {
			pos.X = maxX
			vel.X = -vel.X
		}
		if pos.Y < minY {
			pos.Y = minY
			vel.Y = -vel.Y
		}
		if pos.Y > maxY {
			pos.Y = maxY
			vel.Y = -vel.Y
		}
	}
}
