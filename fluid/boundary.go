package fluid

import (
	"fmt"
	"math"
)

// ContainerShape selects the outer boundary of the fluid domain.
type ContainerShape uint8

const (
	ContainerBox    ContainerShape = iota // the grid's solid border ring only
	ContainerCircle                       // cells whose center lies outside the circle are solid
)

func (s ContainerShape) String() string {
	switch s {
	case ContainerBox:
		return "box"
	case ContainerCircle:
		return "circle"
	default:
		return fmt.Sprintf("ContainerShape(%d)", uint8(s))
	}
}

// Container is the static boundary geometry.
type Container struct {
	Shape            ContainerShape
	CenterX, CenterY float32
	Radius           float32
}

// BoxContainer bounds the fluid by the grid's border ring.
func BoxContainer() Container {
	return Container{Shape: ContainerBox}
}

// CircleContainer bounds the fluid by a circle.
func CircleContainer(cx, cy, radius float32) Container {
	return Container{Shape: ContainerCircle, CenterX: cx, CenterY: cy, Radius: radius}
}

// validate checks c against the grid extent and the particle radius.
func (c Container) validate(width, height, particleRadius float32) error {
	switch c.Shape {
	case ContainerBox:
		return nil
	case ContainerCircle:
		if !finite(c.Radius) || c.Radius <= 0 {
			return invalid("container.radius", c.Radius, "must be positive")
		}
		if c.Radius <= particleRadius {
			return invalid("container.radius", c.Radius, fmt.Sprintf("must exceed the particle radius %g", particleRadius))
		}
		if !finite(c.CenterX) || !finite(c.CenterY) ||
			c.CenterX <= 0 || c.CenterY <= 0 || c.CenterX >= width || c.CenterY >= height {
			return invalid("container.center", fmt.Sprintf("(%g,%g)", c.CenterX, c.CenterY), "must lie inside the grid")
		}
		return nil
	default:
		return invalid("container.shape", c.Shape, "unknown shape")
	}
}

// blocks reports whether a point lies outside the container.
func (c Container) blocks(x, y float32) bool {
	if c.Shape != ContainerCircle {
		return false
	}
	dx, dy := x-c.CenterX, y-c.CenterY
	return dx*dx+dy*dy > c.Radius*c.Radius
}

// Obstacle is a moving solid disk. Cells whose center it covers become solid
// and the faces around them take its velocity.
type Obstacle struct {
	X, Y   float32
	Radius float32
	VX, VY float32
}

func (o Obstacle) covers(x, y float32) bool {
	dx, dy := x-o.X, y-o.Y
	return dx*dx+dy*dy <= o.Radius*o.Radius
}

// MarkSolid rebuilds the solid mask from the border ring, the container and
// the obstacles.
func (g *Grid) MarkSolid(container Container, obstacles []Obstacle) {
	for j := 0; j < g.NumY; j++ {
		for i := 0; i < g.NumX; i++ {
			c := g.Index(i, j)
			x, y := g.CellCenter(i, j)
			solid := g.IsBorder(i, j) || container.blocks(x, y)
			for k := 0; k < len(obstacles) && !solid; k++ {
				solid = obstacles[k].covers(x, y)
			}
			if solid {
				g.S[c] = 0
				g.Cell[c] = CellSolid
			} else {
				g.S[c] = 1
				if g.Cell[c] == CellSolid {
					g.Cell[c] = CellAir
				}
			}
		}
	}
}

// imposeObstacleVelocity writes each obstacle's velocity onto the faces of
// the cells it covers, so fluid next to a moving obstacle is dragged along.
func (g *Grid) imposeObstacleVelocity(obstacles []Obstacle) {
	n := g.NumX
	for _, o := range obstacles {
		i0, j0 := g.CellAt(o.X-o.Radius, o.Y-o.Radius)
		i1, j1 := g.CellAt(o.X+o.Radius, o.Y+o.Radius)
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				x, y := g.CellCenter(i, j)
				if g.IsBorder(i, j) || !o.covers(x, y) {
					continue
				}
				c := i + j*n
				g.U[c] = o.VX
				g.U[c+1] = o.VX
				g.V[c] = o.VY
				g.V[c+n] = o.VY
			}
		}
	}
}

// reflect removes the velocity component moving against the contact normal
// (nx, ny), bouncing it back scaled by restitution, and damps the tangential
// component by friction.
func reflect(vx, vy, nx, ny, restitution, friction float32) (float32, float32) {
	vn := vx*nx + vy*ny
	tx, ty := vx-vn*nx, vy-vn*ny
	if vn < 0 {
		vn = -vn * restitution
	}
	keep := 1 - friction
	return vn*nx + tx*keep, vn*ny + ty*keep
}

// collideBoundaries keeps every particle inside the box walls, the
// container and outside the obstacles.
func collideBoundaries(p *Particles, g *Grid, container Container, obstacles []Obstacle, restitution, friction float32) {
	r := p.Radius
	minX, maxX := g.H+r, float32(g.NumX-1)*g.H-r
	minY, maxY := g.H+r, float32(g.NumY-1)*g.H-r

	for k := range p.X {
		x, y := p.X[k], p.Y[k]
		vx, vy := p.VX[k], p.VY[k]

		if x < minX {
			x = minX
			vx, vy = reflect(vx, vy, 1, 0, restitution, friction)
		}
		if x > maxX {
			x = maxX
			vx, vy = reflect(vx, vy, -1, 0, restitution, friction)
		}
		if y < minY {
			y = minY
			vx, vy = reflect(vx, vy, 0, 1, restitution, friction)
		}
		if y > maxY {
			y = maxY
			vx, vy = reflect(vx, vy, 0, -1, restitution, friction)
		}

		if container.Shape == ContainerCircle {
			dx, dy := x-container.CenterX, y-container.CenterY
			limit := container.Radius - r
			if d2 := dx*dx + dy*dy; d2 > limit*limit && d2 > 0 {
				d := float32(math.Sqrt(float64(d2)))
				nx, ny := -dx/d, -dy/d
				x = container.CenterX - nx*limit
				y = container.CenterY - ny*limit
				vx, vy = reflect(vx, vy, nx, ny, restitution, friction)
			}
		}

		for _, o := range obstacles {
			dx, dy := x-o.X, y-o.Y
			reach := o.Radius + r
			d2 := dx*dx + dy*dy
			if d2 >= reach*reach {
				continue
			}
			nx, ny := float32(0), float32(1)
			if d2 > 0 {
				d := float32(math.Sqrt(float64(d2)))
				nx, ny = dx/d, dy/d
			}
			x = o.X + nx*reach
			y = o.Y + ny*reach
			rvx, rvy := reflect(vx-o.VX, vy-o.VY, nx, ny, restitution, friction)
			vx, vy = rvx+o.VX, rvy+o.VY
		}

		p.X[k], p.Y[k] = x, y
		p.VX[k], p.VY[k] = vx, vy
	}
}
