// Package emitter maps audio frames to fluid impulses. The emitter travels a
// fixed Lissajous path regardless of input; when the gain-scaled volume
// clears the activation threshold it emits one impulse per tick, coloured by
// the pitch class of the dominant frequency.
package emitter

import (
	"math"

	"github.com/crazy3lf/colorconv"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/config"
)

// Params holds emitter tuning.
type Params struct {
	ActivationThreshold float64 // Level must exceed this to emit
	ColorSmoothing      float64 // Fraction of the way to the target colour per tick
	PathAmplitude       float64 // Half-extent of the path around the centre
	PathSpeedX          float64 // rad/s
	PathSpeedY          float64 // rad/s
	PathPhase           float64 // rad, applied to the y sinusoid
	Colorful            bool    // false emits grey at the same brightness
}

// ParamsFromConfig converts the config sections the emitter reads.
func ParamsFromConfig(c *config.Config) Params {
	return Params{
		ActivationThreshold: c.Emitter.ActivationThreshold,
		ColorSmoothing:      c.Emitter.ColorSmoothing,
		PathAmplitude:       c.Emitter.PathAmplitude,
		PathSpeedX:          c.Emitter.PathSpeedX,
		PathSpeedY:          c.Emitter.PathSpeedY,
		PathPhase:           c.Emitter.PathPhase,
		Colorful:            c.Display.Colorful,
	}
}

// DefaultParams are the embedded config defaults.
func DefaultParams() Params {
	return ParamsFromConfig(config.Default())
}

// State is the emitter's per-tick state.
type State struct {
	Position mgl32.Vec2 // normalized [0,1]^2, origin bottom-left
	Heading  float32    // radians, direction of travel
	Color    mgl32.Vec3 // smoothed colour, before brightness scaling
	Time     float64    // seconds travelled along the path
}

// Impulse is one splat request.
type Impulse struct {
	Point mgl32.Vec2
	// Force is the path displacement this tick scaled by the level. The
	// engine multiplies it by the splat force.
	Force mgl32.Vec2
	Color mgl32.Vec3 // smoothed colour times (1 + level)
	Hue   float64    // target hue in [0, 1)
	Level float64
}

// Emitter owns the State and advances it once per tick.
type Emitter struct {
	params Params
	state  State
}

// New creates an emitter at the start of its path with a black colour.
func New(p Params) *Emitter {
	e := &Emitter{params: p}
	e.state.Position, e.state.Heading = e.pathAt(0)
	return e
}

// State returns a copy of the current state.
func (e *Emitter) State() State { return e.state }

// Params returns the current tuning.
func (e *Emitter) Params() Params { return e.params }

// SetParams replaces the tuning; the state carries over.
func (e *Emitter) SetParams(p Params) { e.params = p }

// Advance moves the emitter dt seconds along its path and returns an
// impulse when the frame is loud enough.
func (e *Emitter) Advance(dt float64, f audio.Frame, gain float64) (Impulse, bool) {
	prev := e.state.Position
	e.state.Time += dt
	e.state.Position, e.state.Heading = e.pathAt(e.state.Time)

	level := f.Level(gain)
	if level <= e.params.ActivationThreshold {
		return Impulse{}, false
	}

	hue := Hue(f.Frequency)
	saturation := 1.0
	if !e.params.Colorful {
		saturation = 0
	}
	target := HueToRGB(hue, saturation)
	k := float32(e.params.ColorSmoothing)
	e.state.Color = e.state.Color.Add(target.Sub(e.state.Color).Mul(k))

	return Impulse{
		Point: e.state.Position,
		Force: e.state.Position.Sub(prev).Mul(float32(level)),
		Color: e.state.Color.Mul(float32(1 + level)),
		Hue:   hue,
		Level: level,
	}, true
}

func (e *Emitter) pathAt(t float64) (mgl32.Vec2, float32) {
	return e.params.PathAt(t)
}

// PathAt returns the Lissajous position and heading at time t.
func (p Params) PathAt(t float64) (mgl32.Vec2, float32) {
	x := 0.5 + p.PathAmplitude*math.Sin(p.PathSpeedX*t)
	y := 0.5 + p.PathAmplitude*math.Sin(p.PathSpeedY*t+p.PathPhase)
	dx := p.PathAmplitude * p.PathSpeedX * math.Cos(p.PathSpeedX*t)
	dy := p.PathAmplitude * p.PathSpeedY * math.Cos(p.PathSpeedY*t+p.PathPhase)
	return mgl32.Vec2{float32(x), float32(y)}, float32(math.Atan2(dy, dx))
}

// Chroma returns the pitch class (0-11) of freq: the MIDI note number
// rounded to the nearest semitone, modulo 12. Frequencies at or below 20 Hz
// map to 0.
func Chroma(freq float64) int {
	if freq <= 20 {
		return 0
	}
	note := math.Round(12*math.Log2(freq/440) + 69)
	c := int(math.Mod(note, 12))
	if c < 0 {
		c += 12
	}
	return c
}

// Hue maps freq to chroma/12.
func Hue(freq float64) float64 {
	return float64(Chroma(freq)) / 12
}

// HueToRGB converts a hue in [0, 1) at lightness 0.5 to linear RGB in [0, 1].
func HueToRGB(hue, saturation float64) mgl32.Vec3 {
	r, g, b, err := colorconv.HSLToRGB(math.Mod(hue, 1)*360, saturation, 0.5)
	if err != nil {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

// HueOf returns the hue in [0, 1) of an RGB colour. Black has hue 0.
func HueOf(c mgl32.Vec3) float64 {
	m := max(c[0], c[1], c[2])
	if m <= 0 {
		return 0
	}
	scale := 255 / m
	h, _, _ := colorconv.RGBToHSL(uint8(c[0]*scale), uint8(c[1]*scale), uint8(c[2]*scale))
	return h / 360
}
