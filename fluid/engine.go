// Package fluid is an audio-reactive stable-fluids engine. It advects a
// velocity field and a dye field on a gpu.Device, injects splats driven by
// audio frames, and composites the dye with bloom and light shafts.
//
// The engine is single-threaded: the host calls Tick once per displayed
// frame from the thread that owns the device.
package fluid

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/emitter"
	"github.com/pthm-cable/sonofluid/gpu"
)

// Phase names reported to a PhaseRecorder, in tick order.
const (
	PhaseResize   = "resize"
	PhaseSimulate = "simulate"
	PhaseInject   = "inject"
	PhaseBloom    = "bloom"
	PhaseSunrays  = "sunrays"
	PhaseDisplay  = "display"
)

// PhaseRecorder receives the start of each tick phase.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPhaseRecorder reports tick phases to r.
func WithPhaseRecorder(r PhaseRecorder) Option {
	return func(e *Engine) { e.phases = r }
}

// Engine owns every field, program and render target of one simulation.
type Engine struct {
	dev    gpu.Device
	log    *slog.Logger
	phases PhaseRecorder

	caps     gpu.Capabilities
	noFloat  bool // no float format renders; running on unorm8 targets
	settings Settings
	layout   layout // shapes the framebuffers were built for

	progs         *programs
	fb            framebuffers
	dither        gpu.Texture
	displayKeys   gpu.KeywordSet
	advectionKeys gpu.KeywordSet

	emitter *emitter.Emitter
	rng     *rand.Rand

	width, height int // last known surface size
	splats        int
	ticks         int
	disposed      bool
}

// New negotiates capabilities, allocates every framebuffer for the device's
// surface and injects the configured initial splats. Programs compile on
// first use.
func New(dev gpu.Device, s Settings, opts ...Option) (*Engine, error) {
	e := &Engine{dev: dev}
	for _, opt := range opts {
		opt(e)
	}
	e.log = gpu.Logger(e.log)

	e.caps = gpu.Negotiate(dev)
	if !e.caps.Supported() {
		e.noFloat = true
		e.caps = gpu.Unorm8Fallback(dev.SupportsLinearFilter(gpu.PrecisionUnorm8))
		e.log.Warn("no renderable float format, using 8-bit targets; bloom and sunrays disabled")
	}
	if !e.caps.LinearFilter {
		e.log.Warn("linear filtering unavailable, reduced quality",
			"dye_resolution_cap", s.LowDyeResolution,
		)
	}
	e.log.Info("gpu capabilities", "caps", e.caps)

	e.settings = e.constrain(s)
	e.progs = newPrograms(dev, e.log)

	dither, err := newDitherTexture(dev, s.DitherSize, s.Seed)
	if err != nil {
		return nil, fmt.Errorf("creating dither texture: %w", err)
	}
	e.dither = dither

	e.width, e.height = dev.SurfaceSize()
	if err := e.initFramebuffers(e.width, e.height); err != nil {
		e.Dispose()
		return nil, fmt.Errorf("allocating framebuffers: %w", err)
	}
	e.updateKeywords()

	e.emitter = emitter.New(e.settings.Emitter)
	e.rng = rand.New(rand.NewSource(s.Seed))
	e.multipleSplats(e.settings.InitialSplats)
	return e, nil
}

// constrain applies the degraded-mode overrides the capabilities force.
func (e *Engine) constrain(s Settings) Settings {
	if !e.caps.LinearFilter {
		s.DyeResolution = min(s.DyeResolution, s.LowDyeResolution)
		s.Shading = false
		s.Bloom.Enabled = false
		s.Sunrays.Enabled = false
	}
	if e.noFloat {
		s.Bloom.Enabled = false
		s.Sunrays.Enabled = false
	}
	s.Emitter.Colorful = s.Colorful
	return s
}

func (e *Engine) updateKeywords() {
	s := e.settings
	e.displayKeys = gpu.Keywords().
		With(KeywordShading, s.Shading).
		With(KeywordBloom, s.Bloom.Enabled).
		With(KeywordSunrays, s.Sunrays.Enabled)
	e.advectionKeys = gpu.Keywords().
		With(KeywordManualFiltering, !e.caps.LinearFilter || s.ForceManualFiltering)
}

// Settings returns the effective settings, degraded-mode overrides applied.
func (e *Engine) Settings() Settings { return e.settings }

// SetSettings replaces the settings between ticks. Changes to resolutions or
// bloom iterations take effect through the resize path at the next tick.
func (e *Engine) SetSettings(s Settings) {
	e.settings = e.constrain(s)
	e.emitter.SetParams(e.settings.Emitter)
	e.updateKeywords()
}

// Capabilities returns the negotiated device capabilities.
func (e *Engine) Capabilities() gpu.Capabilities { return e.caps }

// Emitter returns a copy of the emitter state.
func (e *Engine) Emitter() emitter.State { return e.emitter.State() }

// Splats is the number of splats injected so far, initial splats included.
func (e *Engine) Splats() int { return e.splats }

// Ticks is the number of completed ticks.
func (e *Engine) Ticks() int { return e.ticks }

func (e *Engine) phase(name string) {
	if e.phases != nil {
		e.phases.StartPhase(name)
	}
}

// Tick advances one frame: resize check, dt clamp, simulation, audio
// injection, post-processing, display. dt is in seconds; gain scales the
// frame's volume.
func (e *Engine) Tick(dt float64, frame audio.Frame, gain float64) {
	if e.disposed {
		return
	}
	s := &e.settings

	e.phase(PhaseResize)
	if w, h := e.dev.SurfaceSize(); w != e.width || h != e.height || e.layout != s.layout() {
		if err := e.Resize(w, h); err != nil {
			e.log.Error("resize failed", "width", w, "height", h, "error", err)
		}
	}
	if !e.fb.complete() {
		return
	}

	dt = min(dt, float64(s.MaxDT))
	if !s.Paused {
		e.phase(PhaseSimulate)
		e.step(float32(dt))

		e.phase(PhaseInject)
		if imp, ok := e.emitter.Advance(dt, frame, gain); ok {
			e.Splat(imp.Point, imp.Force.Mul(s.SplatForce), imp.Color)
		}
	}

	if s.Bloom.Enabled {
		e.phase(PhaseBloom)
		e.applyBloom(e.fb.dye.Read(), e.fb.bloom)
	}
	if s.Sunrays.Enabled {
		e.phase(PhaseSunrays)
		e.applySunrays(e.fb.dye.Read(), e.fb.dye.Write(), e.fb.sunrays)
		e.blur(e.fb.sunrays, e.fb.sunraysTemp, s.Sunrays.BlurIterations)
	}

	e.phase(PhaseDisplay)
	e.render(nil)
	e.ticks++
}

// Resize rebuilds the framebuffers for a w by h surface. Simulation fields
// keep their contents; a repeated size is a no-op for them.
func (e *Engine) Resize(w, h int) error {
	if e.disposed {
		return ErrDisposed
	}
	if w < 1 || h < 1 {
		return fmt.Errorf("fluid: surface size %dx%d", w, h)
	}
	e.log.Info("resize", "width", w, "height", h)
	e.width, e.height = w, h
	return e.initFramebuffers(w, h)
}

// aspectRatio is the surface width over height.
func (e *Engine) aspectRatio() float32 {
	return float32(e.width) / float32(e.height)
}

// Splat adds a Gaussian impulse at point (normalized, origin bottom-left):
// force to velocity and color to dye.
func (e *Engine) Splat(point, force mgl32.Vec2, color mgl32.Vec3) {
	if e.disposed || !e.fb.complete() {
		return
	}
	u := e.progs.splat.Bind(gpu.KeywordSet{})
	if u == nil {
		return
	}
	d := e.dev
	fb := &e.fb
	d.SetBlend(gpu.BlendNone)

	d.SetVec2(u.TexelSize, fb.velocity.TexelSize())
	fb.velocity.Read().Attach(d, u.Target, 0)
	d.SetFloat(u.AspectRatio, e.aspectRatio())
	d.SetVec2(u.Point, point)
	d.SetVec3(u.Color, force.Vec3(0))
	d.SetFloat(u.Radius, e.splatRadius())
	d.Draw(fb.velocity.Write().Texture)
	fb.velocity.Swap()

	d.SetVec2(u.TexelSize, fb.dye.TexelSize())
	fb.dye.Read().Attach(d, u.Target, 0)
	d.SetVec3(u.Color, color)
	d.Draw(fb.dye.Write().Texture)
	fb.dye.Swap()
	e.splats++
}

// splatRadius converts the configured percentage to the shader's Gaussian
// width, stretched along the longer axis of a landscape surface.
func (e *Engine) splatRadius() float32 {
	r := e.settings.SplatRadius / 100
	if a := e.aspectRatio(); a > 1 {
		r *= a
	}
	return r
}

// RandomSplats injects n random splats, the same kind New starts with.
func (e *Engine) RandomSplats(n int) {
	if e.disposed {
		return
	}
	e.multipleSplats(n)
}

// multipleSplats injects n splats with random positions, directions and
// saturated colours.
func (e *Engine) multipleSplats(n int) {
	for i := 0; i < n; i++ {
		color := emitter.HueToRGB(e.rng.Float64(), 1).Mul(0.15 * 10)
		point := mgl32.Vec2{e.rng.Float32(), e.rng.Float32()}
		force := mgl32.Vec2{1000 * (e.rng.Float32() - 0.5), 1000 * (e.rng.Float32() - 0.5)}
		e.Splat(point, force, color)
	}
}

// Dispose releases every target, texture and program. Later calls on the
// engine are no-ops.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.fb.release(e.dev)
	if e.dither != nil {
		e.dev.Release(e.dither)
		e.dither = nil
	}
	if e.progs != nil {
		e.progs.release()
	}
}

// ErrDisposed is returned by read-back calls on a disposed engine.
var ErrDisposed = errors.New("fluid: engine disposed")
