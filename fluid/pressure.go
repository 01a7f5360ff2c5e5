package fluid

// ComputeDivergence fills Div with the net outflow of every open interior
// cell. Solid and border cells read zero.
func (g *Grid) ComputeDivergence() {
	n := g.NumX
	clear(g.Div)
	for j := 1; j < g.NumY-1; j++ {
		for i := 1; i < n-1; i++ {
			c := i + j*n
			if g.S[c] == 0 {
				continue
			}
			g.Div[c] = g.U[c+1] - g.U[c] + g.V[c+n] - g.V[c]
		}
	}
}

// Drift holds the density correction applied inside the pressure solve.
// Cells denser than Rest get extra outflow proportional to the excess, which
// pushes clumped particles apart over time. A zero Stiffness or Rest disables
// it.
type Drift struct {
	Stiffness float32
	Rest      float32
}

// SolveIncompressibility projects the face velocities towards a
// divergence-free field over fluid cells using exactly iters Gauss-Seidel
// sweeps with over-relaxation omega.
//
// Each visit computes the local divergence d and the pressure increment
// pc = -omega*d/s, where s counts the open neighbors. The increment is
// subtracted from the velocities right away (pressure-gradient correction
// folded into the sweep), so the correction itself is unscaled; the
// density*h/dt factor only converts the accumulated increments into the
// pressure reported in P. Faces shared with a solid neighbor are scaled by
// S = 0 and never change. Air neighbors keep zero pressure.
func (g *Grid) SolveIncompressibility(dt float32, iters int, omega, density float32, drift Drift) {
	clear(g.P)
	n := g.NumX
	cp := density * g.H / dt
	compensate := drift.Stiffness > 0 && drift.Rest > 0

	for range iters {
		for j := 1; j < g.NumY-1; j++ {
			for i := 1; i < n-1; i++ {
				c := i + j*n
				if g.Cell[c] != CellFluid {
					continue
				}

				sx0 := g.S[c-1]
				sx1 := g.S[c+1]
				sy0 := g.S[c-n]
				sy1 := g.S[c+n]
				s := sx0 + sx1 + sy0 + sy1
				if s == 0 {
					continue
				}

				d := g.U[c+1] - g.U[c] + g.V[c+n] - g.V[c]
				if compensate {
					if excess := g.Density[c] - drift.Rest; excess > 0 {
						d -= drift.Stiffness * excess
					}
				}

				pc := -d / s * omega
				g.P[c] += cp * pc

				g.U[c] -= sx0 * pc
				g.U[c+1] += sx1 * pc
				g.V[c] -= sy0 * pc
				g.V[c+n] += sy1 * pc
			}
		}
	}
}
