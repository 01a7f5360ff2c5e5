package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyR) {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyC) {
		if err := g.ToggleContainer(); err != nil {
			slog.Error("container toggle failed", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyS) {
		if path, err := g.SaveSnapshot(); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "tick", g.tick)
		}
	}

	// Overlays
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPressure = !g.showPressure
	}
	if rl.IsKeyPressed(rl.KeyV) {
		g.showVelocity = !g.showVelocity
	}
	if rl.IsKeyPressed(rl.KeyG) {
		g.showCells = !g.showCells
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.showPanel = !g.showPanel
	}

	g.handleMouse()
}

// handleMouse stirs the fluid with a left drag and carries an obstacle with
// the right button.
func (g *Game) handleMouse() {
	mouse := rl.GetMousePosition()
	x, y := g.view.toWorld(mouse.X, mouse.Y)
	overPanel := g.showPanel && mouse.X > float32(rl.GetScreenWidth())-panelWidth

	switch {
	case rl.IsMouseButtonDown(rl.MouseButtonLeft) && !overPanel:
		if g.dragging {
			dx, dy := x-g.lastMouseX, y-g.lastMouseY
			if dx != 0 || dy != 0 {
				if err := g.Stir(x, y, dx, dy); err != nil {
					slog.Debug("force rejected", "error", err)
				}
			}
		}
		g.dragging = true
	default:
		g.dragging = false
	}
	g.lastMouseX, g.lastMouseY = x, y

	if rl.IsMouseButtonDown(rl.MouseButtonRight) && !overPanel {
		g.scene.Hold(x, y, float32(g.cfg.Interaction.ObstacleRadius), g.cfg.Derived.DT32*float32(g.stepsPerUpdate))
	} else if g.scene.Holding() {
		g.scene.Release()
	}
}

// handleResize refits the view when the window size changes.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	g.view = newView(g.solver.Grid(), w, h)
}
