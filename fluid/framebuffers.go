package fluid

import (
	"fmt"
	"math"

	"github.com/pthm-cable/sonofluid/gpu"
)

// Resolution returns target dimensions for a configured resolution on a
// w by h surface. The configured value applies to the shorter side; the
// longer side scales by the aspect ratio, rounded.
func Resolution(resolution, w, h int) (int, int) {
	aspect := float64(w) / float64(h)
	if aspect < 1 {
		aspect = 1 / aspect
	}
	short := resolution
	long := int(math.Round(float64(resolution) * aspect))
	if w > h {
		return long, short
	}
	return short, long
}

// framebuffers owns every render target of the engine.
type framebuffers struct {
	dye      *gpu.DoubleRenderTarget
	velocity *gpu.DoubleRenderTarget
	pressure *gpu.DoubleRenderTarget

	divergence *gpu.RenderTarget
	curl       *gpu.RenderTarget

	bloom     *gpu.RenderTarget
	bloomMips []*gpu.RenderTarget

	sunrays     *gpu.RenderTarget
	sunraysTemp *gpu.RenderTarget
}

// formats picks the target formats and filter from the negotiated caps.
type formats struct {
	rgba, rg, r gpu.PixelFormat
	filter      gpu.Filter
}

func formatsFor(c gpu.Capabilities) formats {
	f := formats{rgba: *c.RGBA, rg: *c.RG, r: *c.R, filter: gpu.FilterNearest}
	if c.LinearFilter {
		f.filter = gpu.FilterLinear
	}
	return f
}

// initFramebuffers allocates or resizes every target for a w by h surface.
// Simulation fields keep their contents through the copy program; scratch
// targets are recreated empty.
func (e *Engine) initFramebuffers(w, h int) error {
	fb := &e.fb
	f := formatsFor(e.caps)
	lay := e.settings.layout()
	simW, simH := Resolution(lay.sim, w, h)
	dyeW, dyeH := Resolution(lay.dye, w, h)

	var err error
	fb.dye, err = e.double(fb.dye, dyeW, dyeH, f.rgba, f.filter)
	if err != nil {
		return fmt.Errorf("dye: %w", err)
	}
	fb.velocity, err = e.double(fb.velocity, simW, simH, f.rg, f.filter)
	if err != nil {
		return fmt.Errorf("velocity: %w", err)
	}
	fb.pressure, err = e.double(fb.pressure, simW, simH, f.r, gpu.FilterNearest)
	if err != nil {
		return fmt.Errorf("pressure: %w", err)
	}

	fb.divergence, err = e.recreate(fb.divergence, simW, simH, f.r, gpu.FilterNearest)
	if err != nil {
		return fmt.Errorf("divergence: %w", err)
	}
	fb.curl, err = e.recreate(fb.curl, simW, simH, f.r, gpu.FilterNearest)
	if err != nil {
		return fmt.Errorf("curl: %w", err)
	}

	if err := e.initBloomFramebuffers(w, h, f); err != nil {
		return err
	}
	if err := e.initSunraysFramebuffers(w, h, f); err != nil {
		return err
	}

	e.layout = lay
	e.log.Debug("framebuffers allocated",
		"surface", fmt.Sprintf("%dx%d", w, h),
		"sim", fmt.Sprintf("%dx%d", simW, simH),
		"dye", fmt.Sprintf("%dx%d", dyeW, dyeH),
		"bloom_mips", len(fb.bloomMips),
	)
	return nil
}

func (e *Engine) initBloomFramebuffers(w, h int, f formats) error {
	fb := &e.fb
	lay := e.settings.layout()
	bw, bh := Resolution(lay.bloom, w, h)

	var err error
	fb.bloom, err = e.recreate(fb.bloom, bw, bh, f.rgba, f.filter)
	if err != nil {
		return fmt.Errorf("bloom: %w", err)
	}

	for _, m := range fb.bloomMips {
		m.Release(e.dev)
	}
	fb.bloomMips = fb.bloomMips[:0]
	for _, size := range BloomMipSizes(bw, bh, lay.bloomIterations) {
		m, err := gpu.NewRenderTarget(e.dev, size[0], size[1], f.rgba, f.filter)
		if err != nil {
			return fmt.Errorf("bloom mip %d: %w", len(fb.bloomMips), err)
		}
		fb.bloomMips = append(fb.bloomMips, m)
	}
	return nil
}

// BloomMipSizes lists the blur pyramid levels below a w by h bloom target:
// level i is (w>>(i+1), h>>(i+1)). The chain stops before a level narrower
// than 2 texels and never exceeds iterations levels.
func BloomMipSizes(w, h, iterations int) [][2]int {
	var sizes [][2]int
	for i := 0; i < iterations; i++ {
		mw, mh := w>>(i+1), h>>(i+1)
		if mw < 2 || mh < 2 {
			break
		}
		sizes = append(sizes, [2]int{mw, mh})
	}
	return sizes
}

func (e *Engine) initSunraysFramebuffers(w, h int, f formats) error {
	fb := &e.fb
	sw, sh := Resolution(e.settings.layout().sunrays, w, h)

	var err error
	fb.sunrays, err = e.recreate(fb.sunrays, sw, sh, f.r, f.filter)
	if err != nil {
		return fmt.Errorf("sunrays: %w", err)
	}
	fb.sunraysTemp, err = e.recreate(fb.sunraysTemp, sw, sh, f.r, f.filter)
	if err != nil {
		return fmt.Errorf("sunrays temp: %w", err)
	}
	return nil
}

// double allocates t, or resizes it keeping its contents.
func (e *Engine) double(t *gpu.DoubleRenderTarget, w, h int, f gpu.PixelFormat, filter gpu.Filter) (*gpu.DoubleRenderTarget, error) {
	if t == nil {
		return gpu.NewDoubleRenderTarget(e.dev, w, h, f, filter)
	}
	resized, err := gpu.ResizeDouble(e.dev, t, w, h, e)
	if err != nil {
		return t, err
	}
	return resized, nil
}

// recreate replaces a scratch target unless its size already matches.
func (e *Engine) recreate(t *gpu.RenderTarget, w, h int, f gpu.PixelFormat, filter gpu.Filter) (*gpu.RenderTarget, error) {
	if t != nil && t.Width == w && t.Height == h && t.Format == f {
		return t, nil
	}
	t.Release(e.dev)
	return gpu.NewRenderTarget(e.dev, w, h, f, filter)
}

// Copy blits src into dst through the copy program. It implements
// gpu.Copier for content-preserving resizes.
func (e *Engine) Copy(src, dst *gpu.RenderTarget) {
	u := e.progs.copy.Bind(gpu.KeywordSet{})
	if u == nil {
		return
	}
	e.dev.SetBlend(gpu.BlendNone)
	e.dev.SetVec2(u.TexelSize, dst.TexelSize())
	src.Attach(e.dev, u.Texture, 0)
	e.dev.Draw(dst.Texture)
}

// complete reports whether every target is allocated.
func (fb *framebuffers) complete() bool {
	return fb.dye != nil && fb.velocity != nil && fb.pressure != nil &&
		fb.divergence != nil && fb.curl != nil && fb.bloom != nil &&
		fb.sunrays != nil && fb.sunraysTemp != nil
}

func (fb *framebuffers) release(d gpu.Device) {
	fb.dye.Release(d)
	fb.velocity.Release(d)
	fb.pressure.Release(d)
	fb.divergence.Release(d)
	fb.curl.Release(d)
	fb.bloom.Release(d)
	for _, m := range fb.bloomMips {
		m.Release(d)
	}
	fb.sunrays.Release(d)
	fb.sunraysTemp.Release(d)
	*fb = framebuffers{}
}
