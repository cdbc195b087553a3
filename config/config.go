// Package config provides configuration loading and access for the fluid engine and its host.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Backend names accepted by GPUConfig.Backend.
const (
	BackendOpenGL   = "opengl"
	BackendSoftware = "software"
)

// Audio source names accepted by AudioConfig.Source.
const (
	SourceSilence = "silence"
	SourceTone    = "tone"
	SourceCSV     = "csv"
)

// MaxStep is the largest tick step the solver accepts, in seconds.
const MaxStep = 1.0 / 60

// Config holds all engine and host configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Sim       SimConfig       `yaml:"sim"`
	Display   DisplayConfig   `yaml:"display"`
	Bloom     BloomConfig     `yaml:"bloom"`
	Sunrays   SunraysConfig   `yaml:"sunrays"`
	Emitter   EmitterConfig   `yaml:"emitter"`
	Audio     AudioConfig     `yaml:"audio"`
	GPU       GPUConfig       `yaml:"gpu"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display window settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
	Resizable bool   `yaml:"resizable"`
}

// SimConfig holds the solver parameters.
type SimConfig struct {
	SimResolution       int     `yaml:"sim_resolution"`       // Velocity/pressure grid, shorter screen side
	DyeResolution       int     `yaml:"dye_resolution"`       // Dye grid, shorter screen side
	DensityDissipation  float64 `yaml:"density_dissipation"`  // Dye decay rate
	VelocityDissipation float64 `yaml:"velocity_dissipation"` // Velocity decay rate
	Pressure            float64 `yaml:"pressure"`             // Cross-frame pressure carry-over factor
	PressureIterations  int     `yaml:"pressure_iterations"`  // Jacobi iterations per tick
	Curl                float64 `yaml:"curl"`                 // Vorticity confinement strength
	SplatRadius         float64 `yaml:"splat_radius"`         // Percent of the shorter side
	SplatForce          float64 `yaml:"splat_force"`
	MaxDT               float64 `yaml:"max_dt"`         // Upper bound on the tick step
	InitialSplats       int     `yaml:"initial_splats"` // Random splats injected at init
	Paused              bool    `yaml:"paused"`
}

// DisplayConfig holds compositor toggles.
type DisplayConfig struct {
	Shading     bool       `yaml:"shading"`
	Colorful    bool       `yaml:"colorful"`
	Transparent bool       `yaml:"transparent"`
	BackColor   [3]float64 `yaml:"back_color"` // 0-255 per channel
}

// BloomConfig holds bloom post-processing parameters.
type BloomConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Iterations int     `yaml:"iterations"`
	Resolution int     `yaml:"resolution"`
	Intensity  float64 `yaml:"intensity"`
	Threshold  float64 `yaml:"threshold"`
	SoftKnee   float64 `yaml:"soft_knee"`
}

// SunraysConfig holds light-shaft post-processing parameters.
type SunraysConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Resolution     int     `yaml:"resolution"`
	Weight         float64 `yaml:"weight"`
	BlurIterations int     `yaml:"blur_iterations"`
}

// EmitterConfig holds the audio-driven splat emitter parameters.
type EmitterConfig struct {
	ActivationThreshold float64 `yaml:"activation_threshold"` // volume*gain must exceed this to splat
	ColorSmoothing      float64 `yaml:"color_smoothing"`      // Per-frame exponential smoothing factor
	PathAmplitude       float64 `yaml:"path_amplitude"`       // Lissajous amplitude around the centre
	PathSpeedX          float64 `yaml:"path_speed_x"`         // rad/s
	PathSpeedY          float64 `yaml:"path_speed_y"`         // rad/s
	PathPhase           float64 `yaml:"path_phase"`           // rad, applied to the y sinusoid
}

// AudioConfig selects and parameterizes the audio feature source.
type AudioConfig struct {
	Source        string  `yaml:"source"`
	Gain          float64 `yaml:"gain"`
	CSVPath       string  `yaml:"csv_path"`
	ToneFrequency float64 `yaml:"tone_frequency"`
	ToneVolume    float64 `yaml:"tone_volume"`
	TonePeriod    float64 `yaml:"tone_period"` // seconds per on/off cycle
	ToneDuty      float64 `yaml:"tone_duty"`   // fraction of the period the tone sounds
	Loop          bool    `yaml:"loop"`
}

// GPUConfig holds device selection and capability overrides.
type GPUConfig struct {
	Backend              string `yaml:"backend"`
	LowDyeResolution     int    `yaml:"low_dye_resolution"`     // Dye cap without linear filtering
	ForceManualFiltering bool   `yaml:"force_manual_filtering"` // In-shader bilinear advection even with hardware filtering
	DitherSize           int    `yaml:"dither_size"`
	CaptureResolution    int    `yaml:"capture_resolution"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BackColor   [3]float32 // BackColor normalized to [0, 1]
	MaxDT32     float32
	AspectRatio float32 // Screen.Width / Screen.Height
}

// Default returns the embedded defaults. Panics if the embedded file is corrupt.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every out-of-range field at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Screen.Width > 0 && c.Screen.Height > 0, "screen: size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	check(c.Sim.SimResolution > 0, "sim.sim_resolution must be positive, got %d", c.Sim.SimResolution)
	check(c.Sim.DyeResolution > 0, "sim.dye_resolution must be positive, got %d", c.Sim.DyeResolution)
	check(c.Sim.DensityDissipation >= 0, "sim.density_dissipation must be >= 0, got %g", c.Sim.DensityDissipation)
	check(c.Sim.VelocityDissipation >= 0, "sim.velocity_dissipation must be >= 0, got %g", c.Sim.VelocityDissipation)
	check(c.Sim.Pressure >= 0 && c.Sim.Pressure <= 1, "sim.pressure must be in [0, 1], got %g", c.Sim.Pressure)
	check(c.Sim.PressureIterations >= 1, "sim.pressure_iterations must be >= 1, got %d", c.Sim.PressureIterations)
	check(c.Sim.SplatRadius > 0, "sim.splat_radius must be positive, got %g", c.Sim.SplatRadius)
	// defaults.yaml spells 1/60 as 0.016666667
	check(c.Sim.MaxDT > 0 && c.Sim.MaxDT <= MaxStep+1e-8, "sim.max_dt must be in (0, 1/60], got %g", c.Sim.MaxDT)
	check(c.Sim.InitialSplats >= 0, "sim.initial_splats must be >= 0, got %d", c.Sim.InitialSplats)
	check(c.Bloom.Iterations >= 1, "bloom.iterations must be >= 1, got %d", c.Bloom.Iterations)
	check(c.Bloom.Resolution > 0, "bloom.resolution must be positive, got %d", c.Bloom.Resolution)
	check(c.Sunrays.Resolution > 0, "sunrays.resolution must be positive, got %d", c.Sunrays.Resolution)
	check(c.Sunrays.BlurIterations >= 0, "sunrays.blur_iterations must be >= 0, got %d", c.Sunrays.BlurIterations)
	check(c.Emitter.ColorSmoothing >= 0 && c.Emitter.ColorSmoothing <= 1, "emitter.color_smoothing must be in [0, 1], got %g", c.Emitter.ColorSmoothing)
	check(c.Audio.Gain > 0, "audio.gain must be positive, got %g", c.Audio.Gain)
	check(c.GPU.LowDyeResolution > 0, "gpu.low_dye_resolution must be positive, got %d", c.GPU.LowDyeResolution)
	check(c.GPU.DitherSize > 0, "gpu.dither_size must be positive, got %d", c.GPU.DitherSize)

	switch c.GPU.Backend {
	case BackendOpenGL, BackendSoftware:
	default:
		errs = append(errs, fmt.Errorf("gpu.backend: unknown backend %q", c.GPU.Backend))
	}
	switch c.Audio.Source {
	case SourceSilence, SourceTone:
	case SourceCSV:
		check(c.Audio.CSVPath != "", "audio.csv_path is required for the csv source")
	default:
		errs = append(errs, fmt.Errorf("audio.source: unknown source %q", c.Audio.Source))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	for i, v := range c.Display.BackColor {
		c.Derived.BackColor[i] = float32(v / 255)
	}
	c.Derived.MaxDT32 = float32(min(c.Sim.MaxDT, MaxStep))
	c.Derived.AspectRatio = float32(c.Screen.Width) / float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
