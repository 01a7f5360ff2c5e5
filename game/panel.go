package game

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flip/fluid"
)

// slider binds one float tunable to a raygui slider.
type slider struct {
	label    string
	min, max float32
	format   string
	get      func(*fluid.Params) float32
	set      func(*fluid.Params, float32)
}

var sliders = []slider{
	{"FLIP ratio (0 = PIC)", 0, 1, "%.2f",
		func(p *fluid.Params) float32 { return p.FlipRatio },
		func(p *fluid.Params, v float32) { p.FlipRatio = v }},
	{"Over-relaxation", 1, 1.99, "%.2f",
		func(p *fluid.Params) float32 { return p.OverRelaxation },
		func(p *fluid.Params, v float32) { p.OverRelaxation = v }},
	{"Pressure iterations", 1, 200, "%.0f",
		func(p *fluid.Params) float32 { return float32(p.NumPressureIters) },
		func(p *fluid.Params, v float32) { p.NumPressureIters = int(v + 0.5) }},
	{"Separation passes", 0, 10, "%.0f",
		func(p *fluid.Params) float32 { return float32(p.NumParticleIters) },
		func(p *fluid.Params, v float32) { p.NumParticleIters = int(v + 0.5) }},
	{"Gravity scale", -2, 3, "%.2f",
		func(p *fluid.Params) float32 { return p.GravityScale },
		func(p *fluid.Params, v float32) { p.GravityScale = v }},
	{"Velocity damping", 0.9, 1, "%.3f",
		func(p *fluid.Params) float32 { return p.VelocityDamping },
		func(p *fluid.Params, v float32) { p.VelocityDamping = v }},
	{"Wall restitution", 0, 1, "%.2f",
		func(p *fluid.Params) float32 { return p.WallRestitution },
		func(p *fluid.Params, v float32) { p.WallRestitution = v }},
	{"Drift stiffness", 0, 5, "%.2f",
		func(p *fluid.Params) float32 { return p.DriftStiffness },
		func(p *fluid.Params, v float32) { p.DriftStiffness = v }},
}

// drawPanel renders the control panel and applies any edits to the solver.
func (g *Game) drawPanel() {
	screenW := float32(rl.GetScreenWidth())
	panelX := screenW - panelWidth + 10
	panelY := float32(10)
	width := float32(panelWidth - 20)

	rl.DrawRectangle(int32(screenW-panelWidth), 0, panelWidth, int32(rl.GetScreenHeight()), rl.Color{R: 20, G: 20, B: 28, A: 230})
	rl.DrawText("Solver [Tab to hide]", int32(panelX), int32(panelY), 18, rl.RayWhite)
	panelY += 30

	params := g.solver.Params()
	changed := false
	for _, s := range sliders {
		cur := s.get(&params)
		rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.LightGray)
		rl.DrawText(fmt.Sprintf(s.format, cur), int32(panelX+width-50), int32(panelY), 14, rl.RayWhite)
		panelY += 16
		next := gui.SliderBar(rl.Rectangle{X: panelX, Y: panelY, Width: width, Height: 16}, "", "", cur, s.min, s.max)
		if next != cur {
			s.set(&params, next)
			changed = true
		}
		panelY += 26
	}

	drift := gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 16, Height: 16}, "Drift compensation", params.DriftCompensation)
	if drift != params.DriftCompensation {
		params.DriftCompensation = drift
		changed = true
	}
	panelY += 30

	if changed {
		if err := g.SetParams(params); err != nil {
			slog.Debug("params rejected", "error", err)
		}
	}

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 115, Height: 28}, "Reset [R]") {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if gui.Button(rl.Rectangle{X: panelX + 125, Y: panelY, Width: 115, Height: 28}, "Container [C]") {
		if err := g.ToggleContainer(); err != nil {
			slog.Error("container toggle failed", "error", err)
		}
	}
	panelY += 38
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 115, Height: 28}, "Defaults") {
		if err := g.SetParams(fluid.DefaultParams()); err != nil {
			slog.Error("params rejected", "error", err)
		}
	}
	if gui.Button(rl.Rectangle{X: panelX + 125, Y: panelY, Width: 115, Height: 28}, toggleText(g.paused, "Resume", "Pause")) {
		g.paused = !g.paused
	}
	panelY += 45

	rl.DrawText("[P] pressure  [V] velocity  [G] cells", int32(panelX), int32(panelY), 12, rl.Gray)
	rl.DrawText("LMB stir  RMB obstacle  [S] snapshot", int32(panelX), int32(panelY+16), 12, rl.Gray)
}

func toggleText(on bool, ifOn, ifOff string) string {
	if on {
		return ifOn
	}
	return ifOff
}
