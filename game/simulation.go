package game

import "github.com/pthm-cable/flip/telemetry"

// Update handles input and runs the configured number of ticks.
func (g *Game) Update() {
	g.handleInput()

	if g.paused {
		return
	}
	for range g.stepsPerUpdate {
		g.simulationStep()
	}
}

// UpdateHeadless runs ticks without touching raylib.
func (g *Game) UpdateHeadless() {
	if g.paused {
		return
	}
	for range g.stepsPerUpdate {
		g.simulationStep()
	}
}

// simulationStep advances obstacles, then the fluid, then telemetry by one
// tick of Physics.DT split into substeps.
func (g *Game) simulationStep() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseScene)
	dt := g.cfg.Derived.DT32
	g.scene.Update(dt)
	g.obstacleBuf = g.scene.Obstacles(g.obstacleBuf[:0])
	g.solver.SetObstacles(g.obstacleBuf)

	subDT := g.cfg.Derived.SubDT32
	for range g.cfg.Physics.Substeps {
		g.solver.Simulate(subDT)
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordStep(g.solver.Stats(), g.solver.Grid().MeanFluidDensity())
	g.tick++
	g.flushTelemetry()

	g.perfCollector.EndTick()
}
