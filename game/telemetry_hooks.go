package game

import (
	"log/slog"

	"github.com/pthm-cable/flip/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.solver.Stats(), g.sampleSpeeds(), g.scene.Count())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// sampleSpeeds collects particle speeds into a reused buffer.
func (g *Game) sampleSpeeds() []float64 {
	p := g.solver.Particles()
	g.speeds = g.speeds[:0]
	for k := range p.Len() {
		g.speeds = append(g.speeds, float64(p.Speed(k)))
	}
	return g.speeds
}

// saveSnapshot captures the solver and writes it to the snapshot directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := telemetry.CaptureSnapshot(g.solver, g.tick)
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// SaveSnapshot writes the current state, without a bookmark, to the snapshot
// directory or, failing that, the output directory. Returns the file path.
func (g *Game) SaveSnapshot() (string, error) {
	snapshot := telemetry.CaptureSnapshot(g.solver, g.tick)
	if g.snapshotDir != "" {
		return telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	}
	if g.outputManager != nil {
		return g.outputManager.WriteSnapshot(snapshot)
	}
	return telemetry.SaveSnapshot(snapshot, "snapshots")
}
