package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/fluid"
)

// Scenario names.
const (
	scenarioPressure = "pressure"
	scenarioDamBreak = "dambreak"
)

// FitnessEvaluator scores parameter vectors on a fixed scenario. Lower is
// better.
type FitnessEvaluator struct {
	params   *ParamVector
	scenario string
	seeds    []int64
	base     *config.Config

	// Pressure scenario
	gridSize int
	iters    int

	// Dam break scenario
	ticks int

	mu       sync.Mutex
	lastMean float64 // mean residual from the most recent Evaluate call
}

// NewFitnessEvaluator creates an evaluator for scenario on top of base.
func NewFitnessEvaluator(params *ParamVector, scenario string, seeds []int64, base *config.Config) (*FitnessEvaluator, error) {
	switch scenario {
	case scenarioPressure, scenarioDamBreak:
	default:
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}
	return &FitnessEvaluator{
		params:   params,
		scenario: scenario,
		seeds:    seeds,
		base:     base,
		gridSize: 48,
		iters:    base.Physics.PressureIters,
		ticks:    180,
	}, nil
}

// LastResidual returns the mean residual from the most recent evaluation.
func (fe *FitnessEvaluator) LastResidual() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMean
}

// Evaluate computes fitness for raw parameter values, one run per seed in
// parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	params := fe.base.Params()
	fe.params.Apply(&params, x)

	results := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fe.scenario == scenarioDamBreak {
				results[i] = fe.runDamBreak(params, seed)
			} else {
				results[i] = fe.runPressure(params, seed)
			}
		}()
	}
	wg.Wait()

	var total float64
	for _, r := range results {
		total += r
	}
	mean := total / float64(len(results))

	fe.mu.Lock()
	fe.lastMean = mean
	fe.mu.Unlock()
	return mean
}

// runPressure solves a fully flooded box with random face velocities and
// returns log10 of the residual ratio max|div| after / before.
func (fe *FitnessEvaluator) runPressure(p fluid.Params, seed int64) float64 {
	g, err := floodedGrid(fe.gridSize, seed)
	if err != nil {
		slog.Error("pressure scenario", "error", err)
		return math.Inf(1)
	}
	g.ComputeDivergence()
	before := g.MaxAbsDivergence()

	g.SolveIncompressibility(fe.base.Derived.DT32, fe.iters, p.OverRelaxation, p.Density, fluid.Drift{})

	g.ComputeDivergence()
	after := g.MaxAbsDivergence()
	if before == 0 {
		return 0
	}
	ratio := float64(after / before)
	if math.IsNaN(ratio) {
		return math.Inf(1)
	}
	return math.Log10(max(ratio, 1e-12))
}

// floodedGrid builds an n x n grid whose interior is all fluid, with face
// velocities in [-0.5, 0.5]. Faces touching the solid border stay zero.
func floodedGrid(n int, seed int64) (*fluid.Grid, error) {
	g, err := fluid.NewGrid(n, n, 1)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	for j := range n {
		for i := range n {
			c := g.Index(i, j)
			if g.S[c] == 0 {
				continue
			}
			g.Cell[c] = fluid.CellFluid
			if g.S[c-1] != 0 {
				g.U[c] = rng.Float32() - 0.5
			}
			if g.S[c-n] != 0 {
				g.V[c] = rng.Float32() - 0.5
			}
		}
	}
	return g, nil
}

// runDamBreak drops a block of fluid and scores the mean residual divergence
// per step plus the volume lost to compression.
func (fe *FitnessEvaluator) runDamBreak(p fluid.Params, seed int64) float64 {
	cfg := fe.base.FluidConfig()
	cfg.Params = p
	s, err := fluid.New(cfg, fluid.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return math.Inf(1)
	}

	// The seed jitters the block width so runs differ.
	rng := rand.New(rand.NewSource(seed))
	grid := s.Grid()
	width := float32(0.3 + 0.2*rng.Float64())
	x1 := grid.H + width*(grid.Width()-2*grid.H)
	y1 := grid.H + 0.7*(grid.Height()-2*grid.H)
	if _, err := s.SeedBlock(grid.H, grid.H, x1, y1, fe.base.Derived.Spacing32); err != nil {
		return math.Inf(1)
	}

	dt := fe.base.Derived.DT32
	var divSum, densitySum float64
	var densityN int
	for range fe.ticks {
		s.Simulate(dt)
		st := s.Stats()
		divSum += float64(st.DivergenceAfter)
		if st.RestDensity > 0 {
			densitySum += float64(s.Grid().MeanFluidDensity() / st.RestDensity)
			densityN++
		}
	}

	fitness := divSum / float64(fe.ticks)
	if densityN > 0 {
		fitness += math.Abs(1 - densitySum/float64(densityN))
	}
	return fitness
}
