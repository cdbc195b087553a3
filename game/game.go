// Package game is the host driver. It owns the fluid engine, the audio
// source and the telemetry pipeline, and in graphical mode the raylib UI.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/config"
	"github.com/pthm-cable/sonofluid/fluid"
	"github.com/pthm-cable/sonofluid/gpu"
	"github.com/pthm-cable/sonofluid/telemetry"
)

// Options configures the game.
type Options struct {
	Seed             int64
	LogStats         bool    // Output stats via slog
	StatsWindowSec   float64 // Stats window size in seconds
	OutputDir        string  // Output directory for CSV logs, config and captures
	CaptureBookmarks bool    // Capture a frame for every bookmark
	Headless         bool    // Run without the raylib UI
	Backend          string  // Device name shown in the HUD

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)

	// Restore hands the GL context back to the UI after the engine draws.
	// Nil when the device does not share a context with raylib.
	Restore func()
}

// Game holds the complete host state.
type Game struct {
	cfg    *config.Config
	dev    gpu.Device
	engine *fluid.Engine
	log    *slog.Logger

	source    audio.Source
	gain      float64
	lastFrame audio.Frame
	dt        float64 // fixed headless step

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	lastStats        telemetry.WindowStats
	logStats         bool
	captureBookmarks bool

	opts   Options
	ui     *hostUI // nil when headless
	tick   int32
	splats int // engine splat count at the previous tick
	width  int
	height int
}

// NewGameWithOptions builds the engine on dev and wires telemetry.
func NewGameWithOptions(dev gpu.Device, cfg *config.Config, opts Options) (*Game, error) {
	source, err := audio.FromConfig(cfg.Audio)
	if err != nil {
		return nil, fmt.Errorf("audio source: %w", err)
	}

	log := slog.Default()
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	settings := fluid.SettingsFromConfig(cfg)
	settings.Seed = opts.Seed
	engine, err := fluid.New(dev, settings,
		fluid.WithLogger(log.With("component", "fluid")),
		fluid.WithPhaseRecorder(perf),
	)
	if err != nil {
		return nil, fmt.Errorf("fluid engine: %w", err)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		engine.Dispose()
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		log.Error("failed to write config", "error", err)
	}

	dt := 1.0 / float64(max(cfg.Screen.TargetFPS, 1))
	w, h := dev.SurfaceSize()
	g := &Game{
		cfg:              cfg,
		dev:              dev,
		engine:           engine,
		log:              log,
		source:           source,
		gain:             cfg.Audio.Gain,
		dt:               dt,
		perfCollector:    perf,
		collector:        telemetry.NewCollector(opts.StatsWindowSec, float32(dt), cfg.Emitter.ActivationThreshold),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		outputManager:    om,
		logStats:         opts.LogStats,
		captureBookmarks: opts.CaptureBookmarks,
		opts:             opts,
		splats:           engine.Splats(),
		width:            w,
		height:           h,
	}

	if !opts.Headless {
		g.ui = newHostUI(g)
	}
	return g, nil
}

// Engine returns the fluid engine.
func (g *Game) Engine() *fluid.Engine { return g.engine }

// Tick returns the number of host ticks run.
func (g *Game) Tick() int32 { return g.tick }

// step runs one host tick: pull audio, advance the engine, record telemetry.
func (g *Game) step(dt float64) {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseAudio)
	frame := g.source.Next(dt)
	g.lastFrame = frame

	g.engine.Tick(dt, frame, g.gain)
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordFrame(frame, g.gain)
	if n := g.engine.Splats(); n != g.splats {
		g.collector.RecordSplats(n - g.splats)
		g.splats = n
	}
	if w, h := g.dev.SurfaceSize(); w != g.width || h != g.height {
		g.collector.RecordResize()
		g.width, g.height = w, h
	}
	g.flushTelemetry()
}

// UpdateHeadless runs one fixed-step tick without any UI.
func (g *Game) UpdateHeadless() {
	g.step(g.dt)
	g.perfCollector.EndTick()
}

// Unload releases the engine and closes output files.
func (g *Game) Unload() {
	g.engine.Dispose()
	if err := g.outputManager.Close(); err != nil {
		g.log.Error("failed to close output", "error", err)
	}
}
