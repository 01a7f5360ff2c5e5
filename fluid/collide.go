package fluid

import "math"

// separateParticles pushes overlapping particle pairs apart and removes
// their approaching normal velocity, keeping restitution of it.
// It returns the query buffer so the caller can keep reusing it.
func separateParticles(p *Particles, hash *SpatialHash, buf []int32, iters int, restitution float32) []int32 {
	minDist := 2 * p.Radius
	minDist2 := minDist * minDist

	for range iters {
		hash.Build(p)
		for i := range p.X {
			// only j > i, so each pair is resolved once
			buf = hash.QueryRadiusInto(buf[:0], p, p.X[i], p.Y[i], minDist, i)
			for _, jj := range buf {
				j := int(jj)
				dx := p.X[j] - p.X[i]
				dy := p.Y[j] - p.Y[i]
				d2 := dx*dx + dy*dy
				if d2 >= minDist2 {
					continue
				}
				var d, nx, ny float32
				if d2 > 0 {
					d = float32(math.Sqrt(float64(d2)))
					nx, ny = dx/d, dy/d
				} else {
					nx, ny = coincidentNormal(i, j)
				}

				push := 0.5 * (minDist - d)
				p.X[i] -= nx * push
				p.Y[i] -= ny * push
				p.X[j] += nx * push
				p.Y[j] += ny * push

				vn := (p.VX[j]-p.VX[i])*nx + (p.VY[j]-p.VY[i])*ny
				if vn < 0 {
					imp := 0.5 * (1 + restitution) * vn
					p.VX[i] += imp * nx
					p.VY[i] += imp * ny
					p.VX[j] -= imp * nx
					p.VY[j] -= imp * ny
				}
			}
		}
	}
	return buf
}

// goldenAngle spreads fallback normals so stacked pairs do not all split
// along one axis.
const goldenAngle = 2.399963229728653

// coincidentNormal picks a unit normal for a pair at the same position.
func coincidentNormal(i, j int) (nx, ny float32) {
	a := float64(i+j) * goldenAngle
	return float32(math.Cos(a)), float32(math.Sin(a))
}
