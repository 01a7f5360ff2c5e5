package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/pthm-cable/flip/fluid"
)

// Phase names for the simulation step. The solver reports its own phases
// through fluid.PhaseRecorder; the rest are timed by the game loop.
const (
	PhaseScene      = "scene"
	PhaseForces     = fluid.PhaseForces
	PhaseScatter    = fluid.PhaseScatter
	PhasePressure   = fluid.PhasePressure
	PhaseGather     = fluid.PhaseGather
	PhaseCollisions = fluid.PhaseCollisions
	PhaseIntegrate  = fluid.PhaseIntegrate
	PhaseTelemetry  = "telemetry"
)

// AllPhases lists every phase in tick order.
var AllPhases = []string{
	PhaseScene, PhaseForces, PhaseScatter, PhasePressure,
	PhaseGather, PhaseCollisions, PhaseIntegrate, PhaseTelemetry,
}

const numPhases = 8

// phaseSlot maps a phase name to its position in AllPhases, or -1.
func phaseSlot(phase string) int {
	switch phase {
	case PhaseScene:
		return 0
	case PhaseForces:
		return 1
	case PhaseScatter:
		return 2
	case PhasePressure:
		return 3
	case PhaseGather:
		return 4
	case PhaseCollisions:
		return 5
	case PhaseIntegrate:
		return 6
	case PhaseTelemetry:
		return 7
	}
	return -1
}

// tickTiming is one tick split by phase.
type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

var _ fluid.PhaseRecorder = (*PerfCollector)(nil)

// PerfCollector times ticks phase by phase and averages the last windowSize
// ticks. It implements fluid.PhaseRecorder so the solver can mark its own
// phases inside a tick.
type PerfCollector struct {
	ticks []tickTiming
	next  int
	count int

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	slot       int

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (60 when windowSize < 1).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ticks: make([]tickTiming, windowSize), slot: -1}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.cur = tickTiming{}
	p.tickStart = time.Now()
	p.slot = -1
}

// StartPhase closes the running phase and opens phase. Unknown phase names
// count toward the tick total only.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.slot = phaseSlot(phase)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.slot >= 0 {
		p.cur.phases[p.slot] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the tick and stores it in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.slot = -1
	p.cur.total = now.Sub(p.tickStart)

	p.ticks[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ticks)
	p.count = min(p.count+1, len(p.ticks))
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats is the window average of tick timings.
type PerfStats struct {
	AvgTickDuration time.Duration

	// Keyed by phase name; phases never entered are absent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// SlowestPhase is the phase with the largest share, empty with no ticks.
	SlowestPhase string

	FrameDuration time.Duration
	FPS           float64
}

// Stats averages the ticks in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	var sum tickTiming
	for _, t := range p.ticks[:p.count] {
		sum.total += t.total
		for i, d := range t.phases {
			sum.phases[i] += d
		}
	}
	n := time.Duration(p.count)
	s.AvgTickDuration = sum.total / n

	var slowest time.Duration
	for i, d := range sum.phases {
		if d == 0 {
			continue
		}
		name := AllPhases[i]
		avg := d / n
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
		if avg > slowest {
			slowest, s.SlowestPhase = avg, name
		}
	}
	return s
}

func (s PerfStats) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.String("slowest_phase", s.SlowestPhase),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range AllPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return attrs
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.attrs()...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs()...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	FPS           float64 `csv:"fps"`
	SlowestPhase  string  `csv:"slowest_phase"`
	ScenePct      float64 `csv:"scene_pct"`
	ForcesPct     float64 `csv:"forces_pct"`
	ScatterPct    float64 `csv:"scatter_pct"`
	PressurePct   float64 `csv:"pressure_pct"`
	GatherPct     float64 `csv:"gather_pct"`
	CollisionsPct float64 `csv:"collisions_pct"`
	IntegratePct  float64 `csv:"integrate_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		FPS:           s.FPS,
		SlowestPhase:  s.SlowestPhase,
		ScenePct:      s.PhasePct[PhaseScene],
		ForcesPct:     s.PhasePct[PhaseForces],
		ScatterPct:    s.PhasePct[PhaseScatter],
		PressurePct:   s.PhasePct[PhasePressure],
		GatherPct:     s.PhasePct[PhaseGather],
		CollisionsPct: s.PhasePct[PhaseCollisions],
		IntegratePct:  s.PhasePct[PhaseIntegrate],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
