package game

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flip/fluid"
)

var (
	solidColor    = rl.Color{R: 70, G: 70, B: 80, A: 255}
	fluidTint     = rl.Color{R: 30, G: 60, B: 120, A: 90}
	obstacleColor = rl.Color{R: 230, G: 160, B: 60, A: 255}
)

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 12, B: 18, A: 255})

	grid := g.solver.Grid()
	g.drawCells(grid)
	if g.showPressure {
		g.drawPressure(grid)
	}
	g.drawParticles()
	if g.showVelocity {
		g.drawVelocity(grid)
	}
	g.drawObstacles()

	g.drawHUD()
	if g.showPanel {
		g.drawPanel()
	}

	rl.EndDrawing()
}

// drawCells fills solid cells, and tints fluid cells when the cell overlay is on.
func (g *Game) drawCells(grid *fluid.Grid) {
	size := int32(math.Ceil(float64(g.view.length(grid.H))))
	for j := range grid.NumY {
		for i := range grid.NumX {
			var color rl.Color
			switch grid.Cell[grid.Index(i, j)] {
			case fluid.CellSolid:
				color = solidColor
			case fluid.CellFluid:
				if !g.showCells {
					continue
				}
				color = fluidTint
			default:
				continue
			}
			sx, sy := g.view.toScreen(float32(i)*grid.H, float32(j+1)*grid.H)
			rl.DrawRectangle(int32(sx), int32(sy), size, size, color)
		}
	}
}

// drawPressure colors fluid cells by pressure, blue low to red high.
func (g *Game) drawPressure(grid *fluid.Grid) {
	var lo, hi float32 = math.MaxFloat32, -math.MaxFloat32
	for c, ct := range grid.Cell {
		if ct == fluid.CellFluid {
			lo = min(lo, grid.P[c])
			hi = max(hi, grid.P[c])
		}
	}
	if hi <= lo {
		return
	}
	size := int32(math.Ceil(float64(g.view.length(grid.H))))
	for j := range grid.NumY {
		for i := range grid.NumX {
			c := grid.Index(i, j)
			if grid.Cell[c] != fluid.CellFluid {
				continue
			}
			t := (grid.P[c] - lo) / (hi - lo)
			sx, sy := g.view.toScreen(float32(i)*grid.H, float32(j+1)*grid.H)
			rl.DrawRectangle(int32(sx), int32(sy), size, size, rampColor(t, 160))
		}
	}
}

// drawParticles draws each particle colored by speed.
func (g *Game) drawParticles() {
	p := g.solver.Particles()
	r := max(g.view.length(p.Radius), 1)
	maxSpeed := max(p.MaxSpeed(), 1e-3)
	for k := range p.Len() {
		sx, sy := g.view.toScreen(p.X[k], p.Y[k])
		t := p.Speed(k) / maxSpeed
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, rampColor(0.2+0.8*t, 255))
	}
}

// drawVelocity draws one arrow per fluid cell, sampled at its center.
func (g *Game) drawVelocity(grid *fluid.Grid) {
	scale := g.view.length(grid.H) * 0.5
	for j := 1; j < grid.NumY-1; j++ {
		for i := 1; i < grid.NumX-1; i++ {
			if grid.Cell[grid.Index(i, j)] != fluid.CellFluid {
				continue
			}
			x, y := grid.CellCenter(i, j)
			vx, vy := grid.SampleVelocity(x, y)
			sx, sy := g.view.toScreen(x, y)
			rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: sx + vx*scale, Y: sy - vy*scale}, rl.RayWhite)
		}
	}
}

func (g *Game) drawObstacles() {
	for _, o := range g.solver.Obstacles() {
		sx, sy := g.view.toScreen(o.X, o.Y)
		rl.DrawCircleLines(int32(sx), int32(sy), g.view.length(o.Radius), obstacleColor)
	}
}

func (g *Game) drawHUD() {
	stats := g.solver.Stats()
	perf := g.perfCollector.Stats()
	rl.DrawText(fmt.Sprintf("Tick: %d  Particles: %d  Fluid cells: %d", g.tick, stats.Particles, stats.FluidCells), 10, 10, 20, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("Div: %.4f -> %.4f  Max speed: %.2f", stats.DivergenceBefore, stats.DivergenceAfter, stats.MaxSpeed), 10, 35, 16, rl.LightGray)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]  Tick: %v  FPS: %.0f", g.stepsPerUpdate, perf.AvgTickDuration, perf.FPS), 10, 55, 16, rl.LightGray)
	if g.paused {
		rl.DrawText("PAUSED", 10, 75, 20, rl.Yellow)
	}
}

// rampColor maps t in [0, 1] to a blue, cyan, yellow, red ramp.
func rampColor(t float32, alpha uint8) rl.Color {
	t = min(max(t, 0), 1)
	var r, g, b float32
	switch {
	case t < 1.0/3:
		s := t * 3
		r, g, b = 0, s, 1
	case t < 2.0/3:
		s := (t - 1.0/3) * 3
		r, g, b = s, 1, 1-s
	default:
		s := (t - 2.0/3) * 3
		r, g, b = 1, 1-s, 0
	}
	return rl.Color{R: channel(r), G: channel(g), B: channel(b), A: alpha}
}

func channel(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
