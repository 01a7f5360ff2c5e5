package fluid

import "math"

// coords locates (x, y) on a lattice shifted by (offX, offY) and returns the
// lower-left node index plus fractional offsets. The node is clamped to
// [0, NumX-2] x [0, NumY-2] so the +1 neighbors are always in range.
func (g *Grid) coords(x, y, offX, offY float32) (c int, fx, fy float32) {
	gx := (x - offX) / g.H
	gy := (y - offY) / g.H
	i := clampInt(int(math.Floor(float64(gx))), 0, g.NumX-2)
	j := clampInt(int(math.Floor(float64(gy))), 0, g.NumY-2)
	fx = clamp32(gx-float32(i), 0, 1)
	fy = clamp32(gy-float32(j), 0, 1)
	return i + j*g.NumX, fx, fy
}

func lerp4(field []float32, c, n int, fx, fy float32) float32 {
	return (1-fx)*(1-fy)*field[c] +
		fx*(1-fy)*field[c+1] +
		(1-fx)*fy*field[c+n] +
		fx*fy*field[c+n+1]
}

// Sample bilinearly interpolates field, whose nodes sit at
// (i*H + offX, j*H + offY), at world position (x, y).
func (g *Grid) Sample(field []float32, x, y, offX, offY float32) float32 {
	c, fx, fy := g.coords(x, y, offX, offY)
	return lerp4(field, c, g.NumX, fx, fy)
}

// SampleVelocity returns the grid velocity at (x, y).
func (g *Grid) SampleVelocity(x, y float32) (vx, vy float32) {
	half := g.H / 2
	return g.Sample(g.U, x, y, 0, half), g.Sample(g.V, x, y, half, 0)
}

// splat distributes value to the four nodes around (x, y) with bilinear
// weights. A nil weight slice accumulates the weights themselves into field.
func (g *Grid) splat(field, weight []float32, x, y, offX, offY, value float32) {
	c, fx, fy := g.coords(x, y, offX, offY)
	n := g.NumX
	w00 := (1 - fx) * (1 - fy)
	w10 := fx * (1 - fy)
	w01 := (1 - fx) * fy
	w11 := fx * fy

	field[c] += w00 * value
	field[c+1] += w10 * value
	field[c+n] += w01 * value
	field[c+n+1] += w11 * value

	if weight == nil {
		return
	}
	weight[c] += w00
	weight[c+1] += w10
	weight[c+n] += w01
	weight[c+n+1] += w11
}

func normalize(field, weight []float32) {
	for i, w := range weight {
		if w > 0 {
			field[i] /= w
		}
	}
}

// Scatter transfers particle velocities onto the faces and classifies open
// cells as fluid or air by occupancy. Faces no particle touched stay zero.
func (g *Grid) Scatter(p *Particles) {
	clear(g.U)
	clear(g.V)
	clear(g.WeightU)
	clear(g.WeightV)

	for c, s := range g.S {
		if s == 0 {
			g.Cell[c] = CellSolid
		} else {
			g.Cell[c] = CellAir
		}
	}

	half := g.H / 2
	for k := range p.X {
		x, y := p.X[k], p.Y[k]

		i, j := g.CellAt(x, y)
		c := g.Index(i, j)
		if g.Cell[c] == CellAir {
			g.Cell[c] = CellFluid
		}

		g.splat(g.U, g.WeightU, x, y, 0, half, p.VX[k])
		g.splat(g.V, g.WeightV, x, y, half, 0, p.VY[k])
	}

	normalize(g.U, g.WeightU)
	normalize(g.V, g.WeightV)
}

// ScatterDensity accumulates the bilinear particle count at cell centers.
func (g *Grid) ScatterDensity(p *Particles) {
	clear(g.Density)
	half := g.H / 2
	for k := range p.X {
		g.splat(g.Density, nil, p.X[k], p.Y[k], half, half, 1)
	}
}

// MeanFluidDensity averages Density over fluid cells.
func (g *Grid) MeanFluidDensity() float32 {
	var sum float32
	count := 0
	for c, ct := range g.Cell {
		if ct == CellFluid {
			sum += g.Density[c]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}

// Gather writes grid velocities back to the particles. The FLIP part adds the
// change the solve made to the grid (U - PrevU) to the particle's own
// velocity; the PIC part takes the grid velocity outright.
func (g *Grid) Gather(p *Particles, flipRatio, damping, maxVelocity float32) {
	half := g.H / 2
	n := g.NumX
	pic := 1 - flipRatio
	for k := range p.X {
		x, y := p.X[k], p.Y[k]

		c, fx, fy := g.coords(x, y, 0, half)
		u := lerp4(g.U, c, n, fx, fy)
		du := u - lerp4(g.PrevU, c, n, fx, fy)

		c, fx, fy = g.coords(x, y, half, 0)
		v := lerp4(g.V, c, n, fx, fy)
		dv := v - lerp4(g.PrevV, c, n, fx, fy)

		vx := flipRatio*(p.VX[k]+du) + pic*u
		vy := flipRatio*(p.VY[k]+dv) + pic*v

		p.VX[k] = clamp32(vx*damping, -maxVelocity, maxVelocity)
		p.VY[k] = clamp32(vy*damping, -maxVelocity, maxVelocity)
	}
}
