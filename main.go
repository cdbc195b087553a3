package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sonofluid/config"
	"github.com/pthm-cable/sonofluid/game"
	"github.com/pthm-cable/sonofluid/gpu/opengl"
	"github.com/pthm-cable/sonofluid/gpu/soft"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run on the software device without a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and captures")
	captureBookmarks := flag.Bool("capture-bookmarks", false, "Capture a frame for every bookmark (needs -output-dir)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Software device worker count (0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Use config stats window if not overridden by CLI
	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	opts := game.Options{
		Seed:             rngSeed,
		LogStats:         *logStats,
		StatsWindowSec:   statsWindowSec,
		OutputDir:        *outputDir,
		CaptureBookmarks: *captureBookmarks,
		Headless:         *headless,
	}

	// The software device has no window to present to
	if *headless || cfg.GPU.Backend == config.BackendSoftware {
		opts.Headless = true
		runHeadless(cfg, opts, *workers, *maxTicks)
		return
	}
	runWindowed(cfg, opts, *maxTicks)
}

// runHeadless drives the software device at a fixed step.
func runHeadless(cfg *config.Config, opts game.Options, workers, maxTicks int) {
	dev := soft.New(cfg.Screen.Width, cfg.Screen.Height,
		soft.WithWorkers(workers),
		soft.WithLogger(slog.Default().With("component", "soft")),
	)
	defer dev.Close()
	opts.Backend = config.BackendSoftware

	g, err := game.NewGameWithOptions(dev, cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"stats_window", opts.StatsWindowSec,
		"max_ticks", maxTicks,
	)

	for {
		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}

// runWindowed opens a raylib window and draws the fluid into it through
// the window's GL context.
func runWindowed(cfg *config.Config, opts game.Options, maxTicks int) {
	if cfg.Screen.Resizable {
		rl.SetConfigFlags(rl.FlagWindowResizable)
	}
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	surface := func() (int, int) {
		return rl.GetRenderWidth(), rl.GetRenderHeight()
	}

	dev, err := opengl.New(surface, slog.Default().With("component", "opengl"))
	if err != nil {
		slog.Error("failed to initialize opengl", "error", err)
		os.Exit(1)
	}
	defer dev.Close()
	opts.Restore = dev.Restore
	opts.Backend = config.BackendOpenGL

	g, err := game.NewGameWithOptions(dev, cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
}
