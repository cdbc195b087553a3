// Package soft is a CPU implementation of gpu.Device. Each draw runs the
// program's reference kernel over every texel of the target, row bands in
// parallel. It backs headless runs and every engine test.
package soft

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// Stats counts device work since creation.
type Stats struct {
	Compiles     int
	Draws        int
	LiveTextures int
}

// Option configures a Device.
type Option func(*Device)

// WithoutLinearFilter makes float textures report no linear filtering, the
// way some mobile GPUs do for half floats.
func WithoutLinearFilter() Option {
	return func(d *Device) { d.linear = false }
}

// WithRenderFormats restricts which formats can be rendered to.
func WithRenderFormats(ok func(gpu.PixelFormat) bool) Option {
	return func(d *Device) { d.renderable = ok }
}

// WithCompileHook runs before every compile; a non-nil error fails it.
func WithCompileHook(hook func(src gpu.ShaderSource, keys gpu.KeywordSet) error) Option {
	return func(d *Device) { d.compileHook = hook }
}

// WithWorkers sets the rasterizer worker count. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Device) { d.pool = newPool(n) }
}

// WithLogger sets the device logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// Device is a software gpu.Device. It is not safe for concurrent use; the
// internal worker pool is only active inside Draw.
type Device struct {
	surface     *texture
	current     *program
	blend       gpu.BlendMode
	linear      bool
	renderable  func(gpu.PixelFormat) bool
	compileHook func(gpu.ShaderSource, gpu.KeywordSet) error
	pool        *pool
	log         *slog.Logger
	stats       Stats
}

// New creates a device whose visible surface is w by h 8-bit RGBA pixels.
func New(w, h int, opts ...Option) *Device {
	d := &Device{
		linear:     true,
		renderable: func(gpu.PixelFormat) bool { return true },
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.pool == nil {
		d.pool = newPool(0)
	}
	d.log = gpu.Logger(d.log)
	d.SetSurfaceSize(w, h)
	return d
}

// SetSurfaceSize resizes the visible surface, discarding its contents.
func (d *Device) SetSurfaceSize(w, h int) {
	d.surface = newTexture(max(w, 1), max(h, 1), gpu.RGBA(gpu.PrecisionUnorm8), gpu.FilterNearest, gpu.WrapClamp)
}

// Close stops the worker pool.
func (d *Device) Close() {
	d.pool.stop()
}

// Stats returns work counters.
func (d *Device) Stats() Stats {
	return d.stats
}

func (d *Device) SupportsRenderFormat(f gpu.PixelFormat) bool {
	switch f.Channels {
	case 1, 2, 4:
	default:
		return false
	}
	return d.renderable(f)
}

func (d *Device) SupportsLinearFilter(p gpu.Precision) bool {
	return d.linear || p == gpu.PrecisionUnorm8
}

func (d *Device) NewTarget(w, h int, f gpu.PixelFormat, filter gpu.Filter) (gpu.Texture, error) {
	if !d.SupportsRenderFormat(f) {
		return nil, fmt.Errorf("%w: %s", gpu.ErrUnsupportedFormat, f)
	}
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("soft: texture size %dx%d", w, h)
	}
	d.stats.LiveTextures++
	return newTexture(w, h, f, filter, gpu.WrapClamp), nil
}

func (d *Device) NewTexture(img *image.RGBA, filter gpu.Filter, wrap gpu.Wrap) (gpu.Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("soft: empty image")
	}
	t := newTexture(b.Dx(), b.Dy(), gpu.RGBA(gpu.PrecisionUnorm8), filter, wrap)
	for y := 0; y < t.h; y++ {
		for x := 0; x < t.w; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			t.set(x, y, mgl32.Vec4{
				float32(c.R) / 255,
				float32(c.G) / 255,
				float32(c.B) / 255,
				float32(c.A) / 255,
			})
		}
	}
	d.stats.LiveTextures++
	return t, nil
}

func (d *Device) Release(t gpu.Texture) {
	tex, ok := t.(*texture)
	if !ok || tex.released {
		return
	}
	tex.released = true
	tex.pix = nil
	d.stats.LiveTextures--
}

func (d *Device) Compile(src gpu.ShaderSource, keys gpu.KeywordSet) (gpu.Program, error) {
	if d.compileHook != nil {
		if err := d.compileHook(src, keys); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", gpu.ErrCompile, src.Name, keys, err)
		}
	}
	if src.Reference == nil {
		return nil, fmt.Errorf("%w: %s has no reference kernel", gpu.ErrCompile, src.Name)
	}
	d.stats.Compiles++
	return &program{
		label:  src.Name + keys.String(),
		kernel: src.Reference,
		keys:   keys,
		index:  make(map[string]gpu.Uniform),
	}, nil
}

func (d *Device) ReleaseProgram(p gpu.Program) {
	prog, ok := p.(*program)
	if !ok {
		return
	}
	prog.released = true
	if d.current == prog {
		d.current = nil
	}
}

func (d *Device) UseProgram(p gpu.Program) {
	prog, _ := p.(*program)
	if prog != nil && prog.released {
		prog = nil
	}
	d.current = prog
}

func (d *Device) UniformLocation(p gpu.Program, name string) gpu.Uniform {
	prog, ok := p.(*program)
	if !ok {
		return gpu.NoUniform
	}
	return prog.locate(name)
}

func (d *Device) setSlot(u gpu.Uniform, v mgl32.Vec4) {
	if d.current == nil {
		return
	}
	if s := d.current.slot(u); s != nil {
		s.v = v
	}
}

func (d *Device) SetFloat(u gpu.Uniform, v float32)   { d.setSlot(u, mgl32.Vec4{v, 0, 0, 0}) }
func (d *Device) SetVec2(u gpu.Uniform, v mgl32.Vec2) { d.setSlot(u, v.Vec4(0, 0)) }
func (d *Device) SetVec3(u gpu.Uniform, v mgl32.Vec3) { d.setSlot(u, v.Vec4(0)) }
func (d *Device) SetVec4(u gpu.Uniform, v mgl32.Vec4) { d.setSlot(u, v) }

func (d *Device) SetTexture(u gpu.Uniform, _ int, t gpu.Texture) {
	if d.current == nil {
		return
	}
	if s := d.current.slot(u); s != nil {
		s.tex, _ = t.(*texture)
	}
}

func (d *Device) SetBlend(mode gpu.BlendMode) {
	d.blend = mode
}

func (d *Device) target(t gpu.Texture) *texture {
	if t == nil {
		return d.surface
	}
	tex, ok := t.(*texture)
	if !ok || tex.released {
		return nil
	}
	return tex
}

// Draw shades every texel of target into a fresh buffer, so kernels that
// sample the target itself see its contents from before the draw.
func (d *Device) Draw(target gpu.Texture) {
	dst := d.target(target)
	if dst == nil || d.current == nil {
		return
	}
	d.stats.Draws++

	frag := d.current.kernel(uniformView{p: d.current})
	out := make([]mgl32.Vec4, len(dst.pix))
	w, h := dst.w, dst.h
	mode := d.blend

	d.pool.run(h, w, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := (float32(y) + 0.5) / float32(h)
			for x := 0; x < w; x++ {
				uv := mgl32.Vec2{(float32(x) + 0.5) / float32(w), v}
				i := y*w + x
				out[i] = dst.encode(blend(mode, frag(uv), dst.pix[i]))
			}
		}
	})
	dst.pix = out
}

func blend(mode gpu.BlendMode, src, dst mgl32.Vec4) mgl32.Vec4 {
	switch mode {
	case gpu.BlendAdditive:
		return src.Add(dst)
	case gpu.BlendPremultiplied:
		return src.Add(dst.Mul(1 - src[3]))
	}
	return src
}

func (d *Device) Clear(target gpu.Texture) {
	if dst := d.target(target); dst != nil {
		dst.clear()
	}
}

func (d *Device) SurfaceSize() (int, int) {
	return d.surface.w, d.surface.h
}

func (d *Device) ReadPixels(target gpu.Texture) ([]float32, error) {
	src := d.target(target)
	if src == nil {
		return nil, gpu.ErrReleased
	}
	out := make([]float32, 0, len(src.pix)*4)
	for _, c := range src.pix {
		out = append(out, c[0], c[1], c[2], c[3])
	}
	return out, nil
}

var _ gpu.Device = (*Device)(nil)
