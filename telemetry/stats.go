package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Audio during the window
	ActiveTicks    int     `csv:"active_ticks"` // ticks above the activation threshold
	Splats         int     `csv:"splats"`
	LevelMean      float64 `csv:"level_mean"`
	LevelP10       float64 `csv:"level_p10"`
	LevelP50       float64 `csv:"level_p50"`
	LevelP90       float64 `csv:"level_p90"`
	LevelMax       float64 `csv:"level_max"`
	DominantChroma int     `csv:"dominant_chroma"` // -1 when the window was silent

	// Fields, sampled at window end
	DyeEnergy      float64 `csv:"dye_energy"`
	DyeMean        float64 `csv:"dye_mean"`
	DyeStd         float64 `csv:"dye_std"`
	VelocityEnergy float64 `csv:"velocity_energy"`
	VelocityMax    float64 `csv:"velocity_max"`
	DivergenceMax  float64 `csv:"divergence_max"`

	Resizes int `csv:"resizes"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeLevelStats calculates mean, max and percentiles from audio levels.
func ComputeLevelStats(values []float64) (mean, p10, p50, p90, peak float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	peak = floats.Max(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90, peak
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("active_ticks", s.ActiveTicks),
		slog.Int("splats", s.Splats),
		slog.Float64("level_mean", s.LevelMean),
		slog.Float64("level_p50", s.LevelP50),
		slog.Float64("level_max", s.LevelMax),
		slog.Int("dominant_chroma", s.DominantChroma),
		slog.Float64("dye_energy", s.DyeEnergy),
		slog.Float64("velocity_energy", s.VelocityEnergy),
		slog.Float64("velocity_max", s.VelocityMax),
		slog.Float64("divergence_max", s.DivergenceMax),
		slog.Int("resizes", s.Resizes),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"active_ticks", s.ActiveTicks,
		"splats", s.Splats,
		"level_mean", s.LevelMean,
		"level_p10", s.LevelP10,
		"level_p50", s.LevelP50,
		"level_p90", s.LevelP90,
		"level_max", s.LevelMax,
		"dominant_chroma", s.DominantChroma,
		"dye_energy", s.DyeEnergy,
		"dye_mean", s.DyeMean,
		"dye_std", s.DyeStd,
		"velocity_energy", s.VelocityEnergy,
		"velocity_max", s.VelocityMax,
		"divergence_max", s.DivergenceMax,
		"resizes", s.Resizes,
	)
}
