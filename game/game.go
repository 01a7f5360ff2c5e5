// Package game wires the fluid solver, the obstacle scene and telemetry into
// a tick loop, and draws the result with raylib when a window is open.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/fluid"
	"github.com/pthm-cable/flip/scene"
	"github.com/pthm-cable/flip/telemetry"
)

// Options configures a game instance.
type Options struct {
	LogStats       bool    // log window stats and bookmarks via slog
	StatsWindowSec float64 // 0 = use config
	SnapshotDir    string  // save a snapshot on every bookmark
	OutputDir      string  // CSV logs and config copy
	RestorePath    string  // start from a saved snapshot
	Headless       bool
	StepsPerUpdate int

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	solver *fluid.Solver
	scene  *scene.Scene
	rng    *rand.Rand

	obstacleBuf []fluid.Obstacle

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	snapshotDir      string
	speeds           []float64

	// State
	tick           int32
	paused         bool
	headless       bool
	stepsPerUpdate int

	// Graphics-only state
	view         view
	showPressure bool
	showVelocity bool
	showCells    bool
	showPanel    bool
	dragging     bool
	lastMouseX   float32
	lastMouseY   float32
}

// NewGameWithOptions builds a game from the global config.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	solver, err := fluid.New(cfg.FluidConfig(), fluid.WithPhaseRecorder(perf))
	if err != nil {
		return nil, fmt.Errorf("create solver: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	stepsPerUpdate := opts.StepsPerUpdate
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	g := &Game{
		cfg:              cfg,
		solver:           solver,
		scene:            scene.New(sceneBounds(solver)),
		rng:              rand.New(rand.NewSource(cfg.Obstacles.Seed)),
		perfCollector:    perf,
		collector:        telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		headless:         opts.Headless,
		stepsPerUpdate:   stepsPerUpdate,
		showPanel:        true,
	}

	if !opts.Headless {
		g.view = newView(solver.Grid(), cfg.Derived.ScreenW32, cfg.Derived.ScreenH32)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("write config: %w", err)
	}

	if opts.RestorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			om.Close()
			return nil, err
		}
		if err := snap.Restore(solver); err != nil {
			om.Close()
			return nil, fmt.Errorf("restore %s: %w", opts.RestorePath, err)
		}
		g.tick = snap.Tick
		g.scene.SetBounds(sceneBounds(solver))
		slog.Info("snapshot restored", "path", opts.RestorePath, "tick", snap.Tick, "particles", solver.Particles().Len())
	} else if err := g.seedParticles(); err != nil {
		om.Close()
		return nil, err
	}

	g.scene.SpawnRandom(cfg.Obstacles.Count, sceneBounds(solver),
		float32(cfg.Obstacles.Radius), float32(cfg.Obstacles.Speed), g.rng)

	return g, nil
}

// sceneBounds is the interior of the grid, inside the solid border ring.
func sceneBounds(s *fluid.Solver) scene.Bounds {
	grid := s.Grid()
	return scene.Bounds{
		MinX: grid.H,
		MinY: grid.H,
		MaxX: grid.Width() - grid.H,
		MaxY: grid.Height() - grid.H,
	}
}

// seedParticles fills the tank using the configured layout.
func (g *Game) seedParticles() error {
	p := g.cfg.Particles
	spacing := g.cfg.Derived.Spacing32
	x0, y0, x1, y1 := g.fluidRegion()

	var n int
	var err error
	switch p.Layout {
	case "ring":
		cx, cy := (x0+x1)/2, (y0+y1)/2
		r := min(x1-x0, y1-y0) / 2
		if c := g.solver.Container(); c.Shape == fluid.ContainerCircle {
			cx, cy, r = c.CenterX, c.CenterY, c.Radius
		}
		n, err = g.solver.SeedRing(cx, cy, float32(p.RingInner)*r, float32(p.RingOuter)*r, spacing)
	default:
		n, err = g.solver.SeedBlock(x0, y0,
			x0+float32(p.BlockWidth)*(x1-x0),
			y0+float32(p.BlockHeight)*(y1-y0), spacing)
	}
	if err != nil {
		return fmt.Errorf("seed particles: %w", err)
	}
	slog.Info("particles seeded", "layout", p.Layout, "count", n, "container", g.solver.Container().Shape.String())
	return nil
}

// fluidRegion returns the open box particles can be seeded in: the grid
// interior, or the square inscribed in a circular container.
func (g *Game) fluidRegion() (x0, y0, x1, y1 float32) {
	grid := g.solver.Grid()
	if c := g.solver.Container(); c.Shape == fluid.ContainerCircle {
		half := c.Radius * math.Sqrt2 / 2
		return c.CenterX - half, c.CenterY - half, c.CenterX + half, c.CenterY + half
	}
	return grid.H, grid.H, grid.Width() - grid.H, grid.Height() - grid.H
}

// Reset reseeds the particles and clears every velocity.
func (g *Game) Reset() error {
	if err := g.seedParticles(); err != nil {
		return err
	}
	g.collector.RecordReseed()
	return nil
}

// ToggleContainer switches between the box and the configured circle (or a
// default circle when the config uses a box), then reseeds.
func (g *Game) ToggleContainer() error {
	next := fluid.BoxContainer()
	if g.solver.Container().Shape == fluid.ContainerBox {
		next = g.cfg.Derived.Container
		if next.Shape != fluid.ContainerCircle {
			grid := g.solver.Grid()
			r := 0.45 * min(grid.Width(), grid.Height())
			next = fluid.CircleContainer(grid.Width()/2, grid.Height()/2, r)
		}
	}
	if err := g.solver.SetContainer(next); err != nil {
		return err
	}
	return g.Reset()
}

// SetParams applies new solver tunables and mirrors them into the config.
func (g *Game) SetParams(p fluid.Params) error {
	if err := g.solver.SetParams(p); err != nil {
		return err
	}
	g.cfg.SetParams(p)
	return nil
}

// Stir pushes the fluid at (x, y) in world units along (dx, dy), a drag
// distance covered in one tick.
func (g *Game) Stir(x, y, dx, dy float32) error {
	strength := float32(g.cfg.Interaction.ForceStrength)
	err := g.solver.ApplyForce(x, y, dx*strength, dy*strength, float32(g.cfg.Interaction.ForceRadius))
	if err != nil {
		return err
	}
	g.collector.RecordForce()
	return nil
}

// Solver returns the fluid solver.
func (g *Game) Solver() *fluid.Solver { return g.solver }

// Scene returns the obstacle scene.
func (g *Game) Scene() *scene.Scene { return g.scene }

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 { return g.tick }

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool { return g.paused }

// SetPaused pauses or resumes the simulation.
func (g *Game) SetPaused(p bool) { g.paused = p }

// Unload releases resources and closes output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
