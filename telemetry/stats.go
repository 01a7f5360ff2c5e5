package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Counts at window end
	Particles  int `csv:"particles"`
	FluidCells int `csv:"fluid_cells"`
	Obstacles  int `csv:"obstacles"`

	// Events during window
	Forces  int `csv:"forces"`
	Reseeds int `csv:"reseeds"`

	// Solver quality over the window
	DivBeforeMax  float64 `csv:"div_before_max"`
	DivAfterMean  float64 `csv:"div_after_mean"`
	DivAfterMax   float64 `csv:"div_after_max"`
	DivReduction  float64 `csv:"div_reduction"` // mean of after/before per step
	DensityRatio  float64 `csv:"density_ratio"` // mean fluid density over rest density
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Particle speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`
}

// Percentile returns the p-th empirical quantile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpeedStats calculates mean, std, percentiles and max of speeds.
// values is sorted in place.
func ComputeSpeedStats(values []float64) (mean, std, p10, p50, p90, top float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0, 0
	}
	sort.Float64s(values)
	mean, std = stat.PopMeanStdDev(values, nil)

	p10 = Percentile(values, 0.10)
	p50 = Percentile(values, 0.50)
	p90 = Percentile(values, 0.90)
	return mean, std, p10, p50, p90, values[n-1]
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("fluid_cells", s.FluidCells),
		slog.Int("obstacles", s.Obstacles),
		slog.Int("forces", s.Forces),
		slog.Int("reseeds", s.Reseeds),
		slog.Float64("div_before_max", s.DivBeforeMax),
		slog.Float64("div_after_mean", s.DivAfterMean),
		slog.Float64("div_after_max", s.DivAfterMax),
		slog.Float64("div_reduction", s.DivReduction),
		slog.Float64("density_ratio", s.DensityRatio),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"fluid_cells", s.FluidCells,
		"obstacles", s.Obstacles,
		"forces", s.Forces,
		"div_after_max", s.DivAfterMax,
		"div_reduction", s.DivReduction,
		"density_ratio", s.DensityRatio,
		"kinetic_energy", s.KineticEnergy,
		"speed_p50", s.SpeedP50,
		"speed_max", s.SpeedMax,
	)
}
