package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restore := flag.String("snapshot", "", "Start from a saved snapshot file")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := game.Options{
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		RestorePath:    *restore,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			slog.Error("failed to start simulation", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"grid", [2]int{cfg.Grid.NumX, cfg.Grid.NumY},
			"particles", g.Solver().Particles().Len(),
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)

		for {
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "FLIP Fluid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}
