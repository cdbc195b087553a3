package game

import (
	"github.com/pthm-cable/sonofluid/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	fields, err := telemetry.SampleFields(g.engine)
	if err != nil {
		g.log.Error("failed to sample fields", "error", err)
	}

	stats := g.collector.Flush(g.tick, fields)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.log.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.log.Error("failed to write perf", "error", err)
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.log.Error("failed to write bookmark", "error", err)
		}
		if g.captureBookmarks {
			g.captureFrame(&bm)
		}
	}
}

// captureFrame renders the current frame off-screen and writes it with a
// JSON sidecar. bookmark may be nil for manual captures.
func (g *Game) captureFrame(bookmark *telemetry.Bookmark) {
	if g.outputManager == nil {
		g.log.Warn("capture skipped, no output directory")
		return
	}

	res := g.cfg.GPU.CaptureResolution
	img, err := g.engine.Capture(res)
	if err != nil {
		g.log.Error("failed to capture frame", "error", err)
		return
	}
	if g.opts.Restore != nil {
		g.opts.Restore()
	}

	meta := telemetry.CaptureMeta{
		Seed:          g.opts.Seed,
		Tick:          g.tick,
		Splats:        g.engine.Splats(),
		SurfaceWidth:  g.width,
		SurfaceHeight: g.height,
		Resolution:    res,
		Capabilities:  telemetry.CapabilitiesToJSON(g.engine.Capabilities()),
		Emitter:       telemetry.EmitterToJSON(g.engine.Emitter()),
		Bookmark:      bookmark,
	}
	path, err := g.outputManager.WriteCapture(img, meta)
	if err != nil {
		g.log.Error("failed to write capture", "error", err)
		return
	}
	g.log.Info("capture saved", "path", path, "tick", g.tick)
}
