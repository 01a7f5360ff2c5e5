// Package components defines ECS components for scene entities.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity in world units per second.
type Velocity struct {
	X, Y float32
}

// Body holds the collision shape of an entity.
type Body struct {
	Radius float32
}

// ObstacleKind tells scripted obstacles from ones the user is holding.
type ObstacleKind uint8

const (
	ObstacleDrifting ObstacleKind = iota // moves on its own, bouncing off the walls
	ObstacleHeld                         // follows the pointer
)

// Obstacle marks an entity as a solid disk inside the fluid.
type Obstacle struct {
	ID   uint32
	Kind ObstacleKind
}
