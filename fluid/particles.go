package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Particles is a fixed pool of fluid particles stored as parallel arrays.
type Particles struct {
	X, Y   []float32
	VX, VY []float32
	Radius float32
}

// NewParticles allocates a pool of n particles at the origin, at rest.
func NewParticles(n int, radius float32) *Particles {
	return &Particles{
		X:      make([]float32, n),
		Y:      make([]float32, n),
		VX:     make([]float32, n),
		VY:     make([]float32, n),
		Radius: radius,
	}
}

// Len returns the particle count.
func (p *Particles) Len() int { return len(p.X) }

// Speed returns |v| of particle k.
func (p *Particles) Speed(k int) float32 {
	return float32(math.Hypot(float64(p.VX[k]), float64(p.VY[k])))
}

// MaxSpeed returns the largest particle speed.
func (p *Particles) MaxSpeed() float32 {
	var best float32
	for k := range p.X {
		if s := p.Speed(k); s > best {
			best = s
		}
	}
	return best
}

// KineticEnergy returns 0.5 * sum |v|^2 for unit-mass particles.
func (p *Particles) KineticEnergy() float32 {
	if p.Len() == 0 {
		return 0
	}
	vx, vy := vec(p.VX), vec(p.VY)
	return 0.5 * (blas32.Dot(vx, vx) + blas32.Dot(vy, vy))
}

// lattice emits hexagonally packed points with the given spacing inside the
// box [x0, x1] x [y0, y1], keeping half a spacing clear of every edge.
func lattice(x0, y0, x1, y1, spacing float32, keep func(x, y float32) bool) (xs, ys []float32) {
	dy := spacing * float32(math.Sqrt(3)) / 2
	row := 0
	for y := y0 + spacing/2; y <= y1-spacing/2; y += dy {
		offset := float32(0)
		if row%2 == 1 {
			offset = spacing / 2
		}
		for x := x0 + spacing/2 + offset; x <= x1-spacing/2; x += spacing {
			if keep == nil || keep(x, y) {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		row++
	}
	return xs, ys
}

// blockLayout fills an axis-aligned rectangle.
func blockLayout(x0, y0, x1, y1, spacing float32) (xs, ys []float32, err error) {
	if !finite(spacing) || spacing <= 0 {
		return nil, nil, invalid("spacing", spacing, "must be positive")
	}
	if !(x1 > x0) || !(y1 > y0) {
		return nil, nil, invalid("block", fmt.Sprintf("[%g,%g]x[%g,%g]", x0, x1, y0, y1), "region is empty")
	}
	xs, ys = lattice(x0, y0, x1, y1, spacing, nil)
	if len(xs) == 0 {
		return nil, nil, invalid("block", fmt.Sprintf("[%g,%g]x[%g,%g]", x0, x1, y0, y1), "region holds no particles at this spacing")
	}
	return xs, ys, nil
}

// ringLayout fills the annulus inner <= r <= outer around (cx, cy).
func ringLayout(cx, cy, inner, outer, spacing float32) (xs, ys []float32, err error) {
	if !finite(spacing) || spacing <= 0 {
		return nil, nil, invalid("spacing", spacing, "must be positive")
	}
	if inner < 0 || !(outer > inner) {
		return nil, nil, invalid("ring", fmt.Sprintf("[%g,%g]", inner, outer), "needs 0 <= inner < outer")
	}
	in2, out2 := inner*inner, outer*outer
	xs, ys = lattice(cx-outer, cy-outer, cx+outer, cy+outer, spacing, func(x, y float32) bool {
		dx, dy := x-cx, y-cy
		d2 := dx*dx + dy*dy
		return d2 >= in2 && d2 <= out2
	})
	if len(xs) == 0 {
		return nil, nil, invalid("ring", fmt.Sprintf("[%g,%g]", inner, outer), "annulus holds no particles at this spacing")
	}
	return xs, ys, nil
}
