package telemetry

import (
	"math"

	"github.com/pthm-cable/flip/fluid"
)

// Collector accumulates solver steps and events within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	forces  int
	reseeds int

	// Per-step accumulators for current window
	steps        int
	divBeforeMax float64
	divAfterMax  float64
	divAfterSum  float64
	reductionSum float64
	reductionN   int
	densitySum   float64
	densityN     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
// The window length is rounded to the nearest whole tick.
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordForce records a user force applied to the fluid.
func (c *Collector) RecordForce() {
	c.forces++
}

// RecordReseed records the particle set being replaced.
func (c *Collector) RecordReseed() {
	c.reseeds++
}

// RecordStep folds one solver step into the current window.
func (c *Collector) RecordStep(st fluid.StepStats, meanDensity float32) {
	c.steps++
	before := float64(st.DivergenceBefore)
	after := float64(st.DivergenceAfter)
	c.divBeforeMax = max(c.divBeforeMax, before)
	c.divAfterMax = max(c.divAfterMax, after)
	c.divAfterSum += after
	if before > 0 {
		c.reductionSum += after / before
		c.reductionN++
	}
	if st.RestDensity > 0 {
		c.densitySum += float64(meanDensity / st.RestDensity)
		c.densityN++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the state at window end:
// - last: the most recent solver step
// - speeds: particle speeds for the distribution (sorted in place)
// - obstacles: number of obstacles in the scene
func (c *Collector) Flush(currentTick int32, last fluid.StepStats, speeds []float64, obstacles int) WindowStats {
	var divMean, reduction, density float64
	if c.steps > 0 {
		divMean = c.divAfterSum / float64(c.steps)
	}
	if c.reductionN > 0 {
		reduction = c.reductionSum / float64(c.reductionN)
	}
	if c.densityN > 0 {
		density = c.densitySum / float64(c.densityN)
	}

	mean, std, p10, p50, p90, top := ComputeSpeedStats(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Particles:  last.Particles,
		FluidCells: last.FluidCells,
		Obstacles:  obstacles,

		Forces:  c.forces,
		Reseeds: c.reseeds,

		DivBeforeMax:  c.divBeforeMax,
		DivAfterMean:  divMean,
		DivAfterMax:   c.divAfterMax,
		DivReduction:  reduction,
		DensityRatio:  density,
		KineticEnergy: float64(last.KineticEnergy),

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,
		SpeedMax:  top,
	}

	c.reset(currentTick)
	return stats
}

func (c *Collector) reset(tick int32) {
	*c = Collector{
		windowDurationSec:   c.windowDurationSec,
		windowDurationTicks: c.windowDurationTicks,
		dt:                  c.dt,
		windowStartTick:     tick,
	}
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
