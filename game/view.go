package game

import "github.com/pthm-cable/flip/fluid"

// panelWidth is the screen width reserved for the control panel.
const panelWidth = 260

// view maps world coordinates (y up) to screen pixels (y down), fitting the
// whole grid left of the control panel.
type view struct {
	scale            float32 // pixels per world unit
	offsetX, offsetY float32
	worldH           float32
}

func newView(grid *fluid.Grid, screenW, screenH float32) view {
	availW := max(screenW-panelWidth, 1)
	scale := min(availW/grid.Width(), screenH/grid.Height())
	return view{
		scale:   scale,
		offsetX: (availW - grid.Width()*scale) / 2,
		offsetY: (screenH - grid.Height()*scale) / 2,
		worldH:  grid.Height(),
	}
}

func (v view) toScreen(x, y float32) (sx, sy float32) {
	return v.offsetX + x*v.scale, v.offsetY + (v.worldH-y)*v.scale
}

func (v view) toWorld(sx, sy float32) (x, y float32) {
	return (sx - v.offsetX) / v.scale, v.worldH - (sy-v.offsetY)/v.scale
}

// length converts a world distance to pixels.
func (v view) length(d float32) float32 { return d * v.scale }
