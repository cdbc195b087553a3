package telemetry

import (
	"fmt"
	"math"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/emitter"
	"github.com/pthm-cable/sonofluid/fluid"
)

// Collector accumulates per-tick audio and splat events within time windows
// and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32
	threshold           float64

	// Current window tracking
	windowStartTick int32

	levels      []float64
	chromaCount [12]int
	activeTicks int
	splats      int
	resizes     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in seconds
// dt: nominal seconds per tick (used for tick-to-time conversion)
// threshold: the emitter activation threshold on volume*gain
func NewCollector(windowDurationSec float64, dt float32, threshold float64) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		threshold:           threshold,
	}
}

// RecordFrame records the audio frame fed to one tick.
func (c *Collector) RecordFrame(f audio.Frame, gain float64) {
	level := f.Level(gain)
	c.levels = append(c.levels, level)
	if level > c.threshold {
		c.activeTicks++
		c.chromaCount[emitter.Chroma(f.Frequency)]++
	}
}

// RecordSplats records splats injected since the previous call.
func (c *Collector) RecordSplats(n int) {
	c.splats += n
}

// RecordResize records a surface resize.
func (c *Collector) RecordResize() {
	c.resizes++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FieldSummary holds field statistics sampled at window end.
type FieldSummary struct {
	DyeEnergy      float64
	DyeMean        float64 // average of the red, green and blue channel means
	DyeStd         float64
	VelocityEnergy float64
	VelocityMax    float64
	DivergenceMax  float64
}

// SampleFields reads back the dye, velocity and divergence fields. It costs
// three GPU read-backs and must be called between ticks.
func SampleFields(e *fluid.Engine) (FieldSummary, error) {
	var fs FieldSummary

	dye, err := e.Snapshot(fluid.FieldDye)
	if err != nil {
		return fs, fmt.Errorf("sampling dye: %w", err)
	}
	fs.DyeEnergy = dye.Energy()
	for ch := 0; ch < 3; ch++ {
		mean, std := dye.Stats(ch)
		fs.DyeMean += mean / 3
		fs.DyeStd += std / 3
	}

	vel, err := e.Snapshot(fluid.FieldVelocity)
	if err != nil {
		return fs, fmt.Errorf("sampling velocity: %w", err)
	}
	fs.VelocityEnergy = vel.Energy()
	fs.VelocityMax = float64(max(vel.MaxAbs(0), vel.MaxAbs(1)))

	div, err := e.Snapshot(fluid.FieldDivergence)
	if err != nil {
		return fs, fmt.Errorf("sampling divergence: %w", err)
	}
	fs.DivergenceMax = float64(div.MaxAbs(0))

	return fs, nil
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, fields FieldSummary) WindowStats {
	mean, p10, p50, p90, peak := ComputeLevelStats(c.levels)

	dominant := -1
	best := 0
	for chroma, n := range c.chromaCount {
		if n > best {
			dominant, best = chroma, n
		}
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		ActiveTicks:    c.activeTicks,
		Splats:         c.splats,
		LevelMean:      mean,
		LevelP10:       p10,
		LevelP50:       p50,
		LevelP90:       p90,
		LevelMax:       peak,
		DominantChroma: dominant,

		DyeEnergy:      fields.DyeEnergy,
		DyeMean:        fields.DyeMean,
		DyeStd:         fields.DyeStd,
		VelocityEnergy: fields.VelocityEnergy,
		VelocityMax:    fields.VelocityMax,
		DivergenceMax:  fields.DivergenceMax,

		Resizes: c.resizes,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.levels = c.levels[:0]
	c.chromaCount = [12]int{}
	c.activeTicks = 0
	c.splats = 0
	c.resizes = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
