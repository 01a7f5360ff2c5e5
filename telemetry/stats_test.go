package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/flip/fluid"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p85", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.85, 9.0},
		{"clamped above", []float64{1, 2, 3}, 1.5, 3.0},
		{"clamped below", []float64{1, 2, 3}, -1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeSpeedStats(t *testing.T) {
	values := []float64{10, 3, 7, 1, 5, 9, 2, 8, 4, 6}
	mean, std, p10, p50, p90, top := ComputeSpeedStats(values)

	assert.InDelta(t, 5.5, mean, 1e-9)
	assert.InDelta(t, math.Sqrt(8.25), std, 1e-9)
	assert.Equal(t, 1.0, p10)
	assert.Equal(t, 5.0, p50)
	assert.Equal(t, 9.0, p90)
	assert.Equal(t, 10.0, top)
	assert.Equal(t, 1.0, values[0], "values are sorted in place")
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90, top := ComputeSpeedStats(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 || top != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 0.25)
	assert.Equal(t, int32(4), c.WindowDurationTicks())

	c.RecordForce()
	c.RecordForce()
	c.RecordReseed()
	c.RecordStep(fluid.StepStats{DivergenceBefore: 2, DivergenceAfter: 0.2, RestDensity: 4}, 4)
	c.RecordStep(fluid.StepStats{DivergenceBefore: 1, DivergenceAfter: 0.3, RestDensity: 4}, 3)

	assert.False(t, c.ShouldFlush(3))
	assert.True(t, c.ShouldFlush(4))

	last := fluid.StepStats{Particles: 3, FluidCells: 2, KineticEnergy: 1.5}
	stats := c.Flush(4, last, []float64{0.3, 0.1, 0.2}, 1)

	assert.Equal(t, int32(0), stats.WindowStartTick)
	assert.Equal(t, int32(4), stats.WindowEndTick)
	assert.InDelta(t, 1.0, stats.SimTimeSec, 1e-9)
	assert.Equal(t, 3, stats.Particles)
	assert.Equal(t, 2, stats.FluidCells)
	assert.Equal(t, 1, stats.Obstacles)
	assert.Equal(t, 2, stats.Forces)
	assert.Equal(t, 1, stats.Reseeds)
	assert.InDelta(t, 2, stats.DivBeforeMax, 1e-6)
	assert.InDelta(t, 0.3, stats.DivAfterMax, 1e-6)
	assert.InDelta(t, 0.25, stats.DivAfterMean, 1e-6)
	assert.InDelta(t, 0.2, stats.DivReduction, 1e-6)
	assert.InDelta(t, 0.875, stats.DensityRatio, 1e-6)
	assert.InDelta(t, 1.5, stats.KineticEnergy, 1e-6)
	assert.InDelta(t, 0.3, stats.SpeedMax, 1e-9)

	next := c.Flush(8, last, nil, 0)
	assert.Equal(t, int32(4), next.WindowStartTick)
	assert.Zero(t, next.Forces)
	assert.Zero(t, next.DivAfterMax)
	assert.Zero(t, next.DensityRatio)
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0.001, 1.0/60)
	assert.Equal(t, int32(1), c.WindowDurationTicks())
}
