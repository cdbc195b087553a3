package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// texture is a CPU texel grid. Texels are stored as they would read back
// from the GPU: missing channels are 0 and missing alpha is 1.
type texture struct {
	w, h     int
	format   gpu.PixelFormat
	filter   gpu.Filter
	wrap     gpu.Wrap
	pix      []mgl32.Vec4
	released bool
}

func newTexture(w, h int, f gpu.PixelFormat, filter gpu.Filter, wrap gpu.Wrap) *texture {
	t := &texture{
		w:      w,
		h:      h,
		format: f,
		filter: filter,
		wrap:   wrap,
		pix:    make([]mgl32.Vec4, w*h),
	}
	t.clear()
	return t
}

func (t *texture) Size() (int, int)        { return t.w, t.h }
func (t *texture) Format() gpu.PixelFormat { return t.format }
func (t *texture) index(x, y int) int      { return y*t.w + x }

func (t *texture) at(x, y int) mgl32.Vec4 {
	return t.pix[t.index(t.address(x, t.w), t.address(y, t.h))]
}

func (t *texture) set(x, y int, c mgl32.Vec4) { t.pix[t.index(x, y)] = t.encode(c) }

// clear fills with transparent black as stored by this format.
func (t *texture) clear() {
	zero := t.encode(mgl32.Vec4{})
	for i := range t.pix {
		t.pix[i] = zero
	}
}

func (t *texture) address(i, n int) int {
	if t.wrap == gpu.WrapRepeat {
		return ((i % n) + n) % n
	}
	return min(max(i, 0), n-1)
}

// encode converts a shader output into the stored texel.
func (t *texture) encode(c mgl32.Vec4) mgl32.Vec4 {
	switch t.format.Channels {
	case 1:
		c = mgl32.Vec4{c[0], 0, 0, 1}
	case 2:
		c = mgl32.Vec4{c[0], c[1], 0, 1}
	}
	if t.format.Precision == gpu.PrecisionUnorm8 {
		for i := range c {
			v := math.Min(math.Max(float64(c[i]), 0), 1)
			c[i] = float32(math.Round(v*255) / 255)
		}
	}
	return c
}

// Sample implements gpu.Sampler.
func (t *texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	if t.filter == gpu.FilterNearest {
		x := int(math.Floor(float64(uv[0]) * float64(t.w)))
		y := int(math.Floor(float64(uv[1]) * float64(t.h)))
		return t.at(x, y)
	}

	sx := float64(uv[0])*float64(t.w) - 0.5
	sy := float64(uv[1])*float64(t.h) - 0.5
	fx, fy := math.Floor(sx), math.Floor(sy)
	x0, y0 := int(fx), int(fy)
	tx, ty := float32(sx-fx), float32(sy-fy)

	a := t.at(x0, y0)
	b := t.at(x0+1, y0)
	c := t.at(x0, y0+1)
	d := t.at(x0+1, y0+1)
	return gpu.Mix(gpu.Mix(a, b, tx), gpu.Mix(c, d, tx), ty)
}

// blank is sampled when a kernel reads an unbound sampler.
type blank struct{}

func (blank) Sample(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4{0, 0, 0, 1} }
func (blank) Size() (int, int)             { return 1, 1 }
