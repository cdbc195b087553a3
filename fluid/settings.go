package fluid

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/config"
	"github.com/pthm-cable/sonofluid/emitter"
)

// Settings is the engine's parameter bag. It is read at the start of a tick
// and never changes mid-pipeline; SetSettings swaps it between ticks.
type Settings struct {
	SimResolution       int // velocity and pressure grid, shorter side
	DyeResolution       int // dye grid, shorter side
	DensityDissipation  float32
	VelocityDissipation float32
	Pressure            float32 // per-tick carry-over of the previous pressure field
	PressureIterations  int
	Curl                float32
	SplatRadius         float32 // percent of the shorter side
	SplatForce          float32
	MaxDT               float32
	InitialSplats       int
	Paused              bool

	Shading     bool
	Colorful    bool
	Transparent bool
	BackColor   mgl32.Vec3 // [0,1] per channel

	Bloom   BloomSettings
	Sunrays SunraysSettings
	Emitter emitter.Params

	LowDyeResolution     int // dye cap when linear filtering is unavailable
	ForceManualFiltering bool
	DitherSize           int
	Seed                 int64
}

// BloomSettings tunes the bloom pipeline.
type BloomSettings struct {
	Enabled    bool
	Iterations int
	Resolution int
	Intensity  float32
	Threshold  float32
	SoftKnee   float32
}

// SunraysSettings tunes the light shaft pipeline.
type SunraysSettings struct {
	Enabled        bool
	Resolution     int
	Weight         float32
	BlurIterations int
}

// SettingsFromConfig converts a loaded config.
func SettingsFromConfig(c *config.Config) Settings {
	return Settings{
		SimResolution:       c.Sim.SimResolution,
		DyeResolution:       c.Sim.DyeResolution,
		DensityDissipation:  float32(c.Sim.DensityDissipation),
		VelocityDissipation: float32(c.Sim.VelocityDissipation),
		Pressure:            float32(c.Sim.Pressure),
		PressureIterations:  c.Sim.PressureIterations,
		Curl:                float32(c.Sim.Curl),
		SplatRadius:         float32(c.Sim.SplatRadius),
		SplatForce:          float32(c.Sim.SplatForce),
		MaxDT:               c.Derived.MaxDT32,
		InitialSplats:       c.Sim.InitialSplats,
		Paused:              c.Sim.Paused,

		Shading:     c.Display.Shading,
		Colorful:    c.Display.Colorful,
		Transparent: c.Display.Transparent,
		BackColor:   mgl32.Vec3(c.Derived.BackColor),

		Bloom: BloomSettings{
			Enabled:    c.Bloom.Enabled,
			Iterations: c.Bloom.Iterations,
			Resolution: c.Bloom.Resolution,
			Intensity:  float32(c.Bloom.Intensity),
			Threshold:  float32(c.Bloom.Threshold),
			SoftKnee:   float32(c.Bloom.SoftKnee),
		},
		Sunrays: SunraysSettings{
			Enabled:        c.Sunrays.Enabled,
			Resolution:     c.Sunrays.Resolution,
			Weight:         float32(c.Sunrays.Weight),
			BlurIterations: c.Sunrays.BlurIterations,
		},
		Emitter: emitter.ParamsFromConfig(c),

		LowDyeResolution:     c.GPU.LowDyeResolution,
		ForceManualFiltering: c.GPU.ForceManualFiltering,
		DitherSize:           c.GPU.DitherSize,
		Seed:                 1,
	}
}

// DefaultSettings are the embedded config defaults.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

// layout is the subset of Settings that decides framebuffer shapes.
type layout struct {
	sim, dye, bloom, sunrays int
	bloomIterations          int
}

func (s Settings) layout() layout {
	return layout{
		sim:             s.SimResolution,
		dye:             s.DyeResolution,
		bloom:           s.Bloom.Resolution,
		sunrays:         s.Sunrays.Resolution,
		bloomIterations: s.Bloom.Iterations,
	}
}
