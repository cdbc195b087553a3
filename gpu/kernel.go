package gpu

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sampler is a bound texture as seen by a reference kernel. Sample follows
// the texture's filter and wrap mode with texel centres at (i+0.5)/size.
type Sampler interface {
	Sample(uv mgl32.Vec2) mgl32.Vec4
	Size() (w, h int)
}

// Uniforms gives a reference kernel the values set on its program for the
// current draw. Unset uniforms read as zero.
type Uniforms interface {
	Float(name string) float32
	Vec2(name string) mgl32.Vec2
	Vec3(name string) mgl32.Vec3
	Vec4(name string) mgl32.Vec4
	Sampler(name string) Sampler
	// Defined reports whether keyword was enabled when the program was compiled.
	Defined(keyword string) bool
}

// FragmentFunc shades one texel given its normalized centre.
type FragmentFunc func(uv mgl32.Vec2) mgl32.Vec4

// Kernel resolves uniforms once per draw and returns the per-texel shader.
type Kernel func(u Uniforms) FragmentFunc

// Neighbors returns the four texel-offset coordinates the base vertex stage
// hands to fragment programs: left, right, top, bottom.
func Neighbors(uv, texel mgl32.Vec2) (l, r, t, b mgl32.Vec2) {
	l = mgl32.Vec2{uv[0] - texel[0], uv[1]}
	r = mgl32.Vec2{uv[0] + texel[0], uv[1]}
	t = mgl32.Vec2{uv[0], uv[1] + texel[1]}
	b = mgl32.Vec2{uv[0], uv[1] - texel[1]}
	return l, r, t, b
}

// Mix is GLSL mix for vec4.
func Mix(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Clamp is GLSL clamp for scalars.
func Clamp(x, lo, hi float32) float32 {
	return float32(math.Min(math.Max(float64(x), float64(lo)), float64(hi)))
}
