// Package fluid implements a 2D PIC/FLIP fluid solver: particles carry the
// fluid, a staggered grid enforces incompressibility each step and the grid's
// correction is blended back into the particles.
package fluid

import (
	"fmt"
	"log/slog"
	"math"
)

// Phase names reported to a PhaseRecorder, in step order.
const (
	PhaseForces     = "forces"
	PhaseScatter    = "scatter"
	PhasePressure   = "pressure"
	PhaseGather     = "gather"
	PhaseCollisions = "collisions"
	PhaseIntegrate  = "integrate"
)

// Phases lists every phase in step order.
var Phases = []string{PhaseForces, PhaseScatter, PhasePressure, PhaseGather, PhaseCollisions, PhaseIntegrate}

// PhaseRecorder receives a call at the start of each step phase.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Config describes a solver at construction time.
type Config struct {
	NumX, NumY int
	H          float32
	// TotalCells, when non-zero, must equal NumX*NumY.
	TotalCells int

	Params    Params
	Container Container
	// ParticleRadius defaults to 0.3*H when zero.
	ParticleRadius float32
}

// Option customizes a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for configuration changes and repairs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPhaseRecorder reports step phases to r.
func WithPhaseRecorder(r PhaseRecorder) Option {
	return func(s *Solver) { s.phases = r }
}

// StepStats describes the most recent step.
type StepStats struct {
	Step             uint64
	Particles        int
	FluidCells       int
	DivergenceBefore float32 // max |div| over fluid cells before the solve
	DivergenceAfter  float32 // and after it
	MaxSpeed         float32
	KineticEnergy    float32
	RestDensity      float32
}

type force struct {
	x, y, fx, fy, radius float32
}

// Solver owns the particles and grid and advances them one step at a time.
// It is not safe for concurrent use; callers read its outputs between steps.
type Solver struct {
	grid      *Grid
	particles *Particles
	params    Params

	container  Container
	obstacles  []Obstacle
	solidDirty bool

	restDensity float32
	pending     []force

	hash     *SpatialHash
	queryBuf []int32

	step   uint64
	stats  StepStats
	logger *slog.Logger
	phases PhaseRecorder
}

// Validate reports the first problem with cfg without allocating anything.
func (cfg Config) Validate() error {
	if err := validateDims(cfg.NumX, cfg.NumY, cfg.H); err != nil {
		return err
	}
	if cfg.TotalCells != 0 && cfg.TotalCells != cfg.NumX*cfg.NumY {
		return invalid("total_cells", cfg.TotalCells, fmt.Sprintf("does not match %dx%d", cfg.NumX, cfg.NumY))
	}
	if err := cfg.Params.Validate(); err != nil {
		return err
	}
	if err := validateRadius(cfg.radius(), cfg.H); err != nil {
		return err
	}
	return cfg.Container.validate(float32(cfg.NumX)*cfg.H, float32(cfg.NumY)*cfg.H, cfg.radius())
}

func (cfg Config) radius() float32 {
	if cfg.ParticleRadius == 0 {
		return 0.3 * cfg.H
	}
	return cfg.ParticleRadius
}

func validateRadius(r, h float32) error {
	if !finite(r) || r <= 0 || r > h {
		return invalid("particle_radius", r, "must be in (0, h]")
	}
	return nil
}

// New validates cfg and builds a solver with an empty particle pool.
func New(cfg Config, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(cfg.NumX, cfg.NumY, cfg.H)
	if err != nil {
		return nil, err
	}
	radius := cfg.radius()

	s := &Solver{
		grid:      grid,
		particles: NewParticles(0, radius),
		params:    cfg.Params,
		container: cfg.Container,
		hash:      NewSpatialHash(grid.Width(), grid.Height(), 2.2*radius),
		queryBuf:  make([]int32, 0, MaxQueryResults),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.grid.MarkSolid(s.container, s.obstacles)
	return s, nil
}

// Grid exposes the grid for read-only use between steps.
func (s *Solver) Grid() *Grid { return s.grid }

// Particles exposes the particle pool for read-only use between steps.
func (s *Solver) Particles() *Particles { return s.particles }

// Stats returns diagnostics of the last step.
func (s *Solver) Stats() StepStats { return s.stats }

// Step returns how many steps have been simulated.
func (s *Solver) Step() uint64 { return s.step }

// Params returns the current tunables.
func (s *Solver) Params() Params { return s.params }

// SetParams replaces all tunables at once. An invalid set is rejected and the
// previous one stays in effect.
func (s *Solver) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		s.logger.Debug("rejected params", "error", err)
		return err
	}
	s.params = p
	return nil
}

// Container returns the current container.
func (s *Solver) Container() Container { return s.container }

// SetContainer swaps the container geometry and rebuilds the solid mask.
func (s *Solver) SetContainer(c Container) error {
	if err := c.validate(s.grid.Width(), s.grid.Height(), s.particles.Radius); err != nil {
		return err
	}
	s.container = c
	s.grid.MarkSolid(s.container, s.obstacles)
	s.solidDirty = false
	return nil
}

// Obstacles returns the obstacles used by the next step.
func (s *Solver) Obstacles() []Obstacle { return s.obstacles }

// SetObstacles replaces the obstacle set; the solid mask is rebuilt before
// the next scatter.
func (s *Solver) SetObstacles(obs []Obstacle) {
	s.obstacles = append(s.obstacles[:0], obs...)
	s.solidDirty = true
}

// Reconfigure reallocates the grid for new dimensions. Either every buffer is
// replaced or, on error, nothing changes. Particles are kept and pushed back
// inside the new bounds.
func (s *Solver) Reconfigure(numX, numY int, h float32) error {
	if err := validateRadius(s.particles.Radius, h); err != nil {
		return err
	}
	next, err := NewGrid(numX, numY, h)
	if err != nil {
		return err
	}
	if err := s.container.validate(next.Width(), next.Height(), s.particles.Radius); err != nil {
		return err
	}

	s.grid = next
	s.hash = NewSpatialHash(next.Width(), next.Height(), 2.2*s.particles.Radius)
	s.restDensity = 0
	s.grid.MarkSolid(s.container, s.obstacles)
	s.solidDirty = false
	collideBoundaries(s.particles, s.grid, s.container, s.obstacles, s.params.WallRestitution, s.params.WallFriction)

	s.logger.Info("grid reconfigured", "num_x", numX, "num_y", numY, "h", h)
	return nil
}

// SeedBlock replaces the particle pool with a hexagonal block filling
// [x0, x1] x [y0, y1] and returns the particle count.
func (s *Solver) SeedBlock(x0, y0, x1, y1, spacing float32) (int, error) {
	xs, ys, err := blockLayout(x0, y0, x1, y1, spacing)
	if err != nil {
		return 0, err
	}
	return s.seed(xs, ys), nil
}

// SeedRing replaces the particle pool with an annulus around (cx, cy).
func (s *Solver) SeedRing(cx, cy, inner, outer, spacing float32) (int, error) {
	xs, ys, err := ringLayout(cx, cy, inner, outer, spacing)
	if err != nil {
		return 0, err
	}
	return s.seed(xs, ys), nil
}

// SetParticles replaces the particle pool with the given state, as restored
// from a snapshot. All four slices must have the same length and hold finite
// values.
func (s *Solver) SetParticles(x, y, vx, vy []float32) error {
	n := len(x)
	if len(y) != n || len(vx) != n || len(vy) != n {
		return invalid("particles", fmt.Sprintf("%d/%d/%d/%d", len(x), len(y), len(vx), len(vy)), "slice lengths differ")
	}
	for k := range n {
		if !finite(x[k]) || !finite(y[k]) || !finite(vx[k]) || !finite(vy[k]) {
			return invalid("particles", k, "must be finite")
		}
	}
	s.seed(x, y)
	copy(s.particles.VX, vx)
	copy(s.particles.VY, vy)
	return nil
}

func (s *Solver) seed(xs, ys []float32) int {
	p := NewParticles(len(xs), s.particles.Radius)
	copy(p.X, xs)
	copy(p.Y, ys)
	s.particles = p
	s.restDensity = 0
	s.pending = s.pending[:0]
	collideBoundaries(p, s.grid, s.container, s.obstacles, s.params.WallRestitution, s.params.WallFriction)
	return p.Len()
}

// ApplyForce registers an interaction force for the next step. Particles
// within radius of (x, y) gain (fx, fy)*dt scaled by a linear falloff.
// Registering the same force twice before a step has no further effect.
func (s *Solver) ApplyForce(x, y, fx, fy, radius float32) error {
	if !finite(x) || !finite(y) || !finite(fx) || !finite(fy) {
		return invalid("force", fmt.Sprintf("(%g,%g)->(%g,%g)", x, y, fx, fy), "must be finite")
	}
	if !finite(radius) || radius <= 0 {
		return invalid("force.radius", radius, "must be positive")
	}
	f := force{x: x, y: y, fx: fx, fy: fy, radius: radius}
	for _, existing := range s.pending {
		if existing == f {
			return nil
		}
	}
	s.pending = append(s.pending, f)
	return nil
}

// Simulate advances the simulation by dt. A non-positive or non-finite dt
// does nothing.
func (s *Solver) Simulate(dt float32) {
	if !finite(dt) || dt <= 0 {
		return
	}
	if s.grid.ensureConsistent(s.logger) {
		s.solidDirty = true
	}
	g, p, prm := s.grid, s.particles, s.params

	s.phase(PhaseForces)
	s.applyForces(dt)

	s.phase(PhaseScatter)
	if s.solidDirty {
		g.MarkSolid(s.container, s.obstacles)
		s.solidDirty = false
	}
	g.Scatter(p)
	g.enforceSolidFaces()
	g.imposeObstacleVelocity(s.obstacles)
	g.ScatterDensity(p)
	if s.restDensity == 0 {
		s.restDensity = g.MeanFluidDensity()
	}
	g.snapshot()

	s.phase(PhasePressure)
	g.ComputeDivergence()
	before := g.MaxFluidDivergence()
	var drift Drift
	if prm.DriftCompensation {
		drift = Drift{Stiffness: prm.DriftStiffness, Rest: s.restDensity}
	}
	g.SolveIncompressibility(dt, prm.NumPressureIters, prm.OverRelaxation, prm.Density, drift)
	g.ComputeDivergence()
	after := g.MaxFluidDivergence()

	s.phase(PhaseGather)
	g.Gather(p, prm.FlipRatio, prm.VelocityDamping, prm.MaxVelocity)

	s.phase(PhaseCollisions)
	if prm.NumParticleIters > 0 && p.Len() > 1 {
		s.queryBuf = separateParticles(p, s.hash, s.queryBuf, prm.NumParticleIters, prm.CollisionRestitution)
	}

	s.phase(PhaseIntegrate)
	s.integrate(dt)
	collideBoundaries(p, g, s.container, s.obstacles, prm.WallRestitution, prm.WallFriction)

	s.step++
	s.stats = StepStats{
		Step:             s.step,
		Particles:        p.Len(),
		FluidCells:       g.CountCells(CellFluid),
		DivergenceBefore: before,
		DivergenceAfter:  after,
		MaxSpeed:         p.MaxSpeed(),
		KineticEnergy:    p.KineticEnergy(),
		RestDensity:      s.restDensity,
	}
}

func (s *Solver) phase(name string) {
	if s.phases != nil {
		s.phases.StartPhase(name)
	}
}

// applyForces adds gravity and the pending interaction forces, then clamps.
func (s *Solver) applyForces(dt float32) {
	p := s.particles
	gdv := s.params.Gravity * s.params.GravityScale * dt
	maxV := s.params.MaxVelocity

	for k := range p.X {
		vx, vy := p.VX[k], p.VY[k]+gdv
		for _, f := range s.pending {
			dx, dy := p.X[k]-f.x, p.Y[k]-f.y
			d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if d >= f.radius {
				continue
			}
			w := 1 - d/f.radius
			vx += f.fx * w * dt
			vy += f.fy * w * dt
		}
		p.VX[k] = clamp32(vx, -maxV, maxV)
		p.VY[k] = clamp32(vy, -maxV, maxV)
	}
	s.pending = s.pending[:0]
}

// integrate moves particles by v*dt, first bringing near-still ones to rest.
func (s *Solver) integrate(dt float32) {
	p := s.particles
	thr2 := s.params.VelocityThreshold * s.params.VelocityThreshold
	for k := range p.X {
		vx, vy := p.VX[k], p.VY[k]
		if vx*vx+vy*vy < thr2 {
			p.VX[k], p.VY[k] = 0, 0
			continue
		}
		p.X[k] += vx * dt
		p.Y[k] += vy * dt
	}
}
