package gpu_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
	"github.com/pthm-cable/sonofluid/gpu/soft"
)

func TestKeywordSet_CanonicalIdentity(t *testing.T) {
	a := gpu.Keywords("SHADING", "BLOOM", "SUNRAYS")
	b := gpu.Keywords("SUNRAYS", "SHADING", "BLOOM", "BLOOM")
	if a != b {
		t.Errorf("%v != %v", a, b)
	}
	if a.Len() != 3 {
		t.Errorf("Len = %d, want 3", a.Len())
	}
	if !a.Has("BLOOM") || a.Has("BLOO") {
		t.Error("Has matched wrong names")
	}
	if (gpu.KeywordSet{}) != gpu.Keywords() {
		t.Error("zero value should equal the empty set")
	}
	if got := gpu.Keywords().With("A", false).With("B", true); got != gpu.Keywords("B") {
		t.Errorf("With = %v", got)
	}

	m := map[gpu.KeywordSet]int{a: 1}
	if m[b] != 1 {
		t.Error("equal sets should share a map entry")
	}
}

func TestKeywordSet_SplitsWhitespace(t *testing.T) {
	k := gpu.Keywords("BLOOM SHADING", " SUNRAYS\t")
	if got := k.Names(); len(got) != 3 || got[0] != "BLOOM" || got[1] != "SHADING" || got[2] != "SUNRAYS" {
		t.Errorf("Names = %q, want [BLOOM SHADING SUNRAYS]", got)
	}
	if k.Has("BLOOM SHADING") {
		t.Error("a name with a space should never be a member")
	}
	if k != gpu.Keywords("SUNRAYS", "SHADING", "BLOOM") {
		t.Errorf("%v should equal the set of its split names", k)
	}
	if gpu.Keywords("  ", "") != gpu.Keywords() {
		t.Error("blank names should be ignored")
	}
}

func TestNegotiate_PrefersFloat(t *testing.T) {
	d := soft.New(1, 1)
	caps := gpu.Negotiate(d)
	if caps.Precision != gpu.PrecisionFloat {
		t.Errorf("precision = %v, want float", caps.Precision)
	}
	if !caps.Supported() || !caps.LinearFilter {
		t.Errorf("caps = %+v", caps)
	}
	if *caps.R != gpu.R(gpu.PrecisionFloat) {
		t.Errorf("R = %v", *caps.R)
	}
}

func TestNegotiate_FallsBackToWiderLayouts(t *testing.T) {
	// Only half-precision RGBA renders.
	d := soft.New(1, 1, soft.WithRenderFormats(func(f gpu.PixelFormat) bool {
		return f == gpu.RGBA(gpu.PrecisionHalf)
	}))
	caps := gpu.Negotiate(d)
	if caps.Precision != gpu.PrecisionHalf {
		t.Fatalf("precision = %v, want half", caps.Precision)
	}
	want := gpu.RGBA(gpu.PrecisionHalf)
	for name, f := range map[string]*gpu.PixelFormat{"rgba": caps.RGBA, "rg": caps.RG, "r": caps.R} {
		if f == nil || *f != want {
			t.Errorf("%s = %v, want %v", name, f, want)
		}
	}

	// RG renders, R does not.
	d = soft.New(1, 1, soft.WithRenderFormats(func(f gpu.PixelFormat) bool {
		return f.Channels != 1
	}))
	caps = gpu.Negotiate(d)
	if *caps.R != gpu.RG(gpu.PrecisionFloat) {
		t.Errorf("R fell back to %v, want rg/float", *caps.R)
	}
}

func TestNegotiate_NothingRenders(t *testing.T) {
	d := soft.New(1, 1, soft.WithRenderFormats(func(f gpu.PixelFormat) bool {
		return f.Precision == gpu.PrecisionUnorm8
	}))
	caps := gpu.Negotiate(d)
	if caps.RGBA != nil || caps.Supported() {
		t.Fatalf("expected unresolved caps, got %+v", caps)
	}
	fb := gpu.Unorm8Fallback(caps.LinearFilter)
	if !fb.Supported() || fb.Precision != gpu.PrecisionUnorm8 {
		t.Errorf("fallback = %+v", fb)
	}
}

func TestNegotiate_NoLinearFilter(t *testing.T) {
	caps := gpu.Negotiate(soft.New(1, 1, soft.WithoutLinearFilter()))
	if caps.LinearFilter {
		t.Error("linear filter should be unsupported")
	}
}

func TestDoubleRenderTarget_Swap(t *testing.T) {
	d := soft.New(1, 1)
	dt, err := gpu.NewDoubleRenderTarget(d, 4, 3, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterLinear)
	if err != nil {
		t.Fatal(err)
	}
	r, w := dt.Read(), dt.Write()
	if r == w {
		t.Fatal("halves must be distinct")
	}
	dt.Swap()
	if dt.Read() != w || dt.Write() != r {
		t.Error("Swap did not exchange halves")
	}
	dt.Swap()
	if dt.Read() != r {
		t.Error("double Swap should restore roles")
	}
	if got := dt.TexelSize(); got != (mgl32.Vec2{0.25, 1.0 / 3}) {
		t.Errorf("TexelSize = %v", got)
	}
}

func TestNewRenderTarget_RejectsEmpty(t *testing.T) {
	d := soft.New(1, 1)
	if _, err := gpu.NewRenderTarget(d, 0, 4, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterLinear); err == nil {
		t.Error("expected error for zero width")
	}
}

// blitter copies with a nearest/linear passthrough kernel.
type blitter struct {
	d    *soft.Device
	prog gpu.Program
	src  gpu.Uniform
}

func newBlitter(t *testing.T, d *soft.Device) *blitter {
	t.Helper()
	p, err := d.Compile(gpu.ShaderSource{
		Name: "copy",
		Reference: func(u gpu.Uniforms) gpu.FragmentFunc {
			s := u.Sampler("uTexture")
			return func(uv mgl32.Vec2) mgl32.Vec4 { return s.Sample(uv) }
		},
	}, gpu.KeywordSet{})
	if err != nil {
		t.Fatal(err)
	}
	return &blitter{d: d, prog: p, src: d.UniformLocation(p, "uTexture")}
}

func (b *blitter) Copy(src, dst *gpu.RenderTarget) {
	b.d.UseProgram(b.prog)
	src.Attach(b.d, b.src, 0)
	b.d.SetBlend(gpu.BlendNone)
	b.d.Draw(dst.Texture)
}

func fill(t *testing.T, d *soft.Device, dst *gpu.RenderTarget, c mgl32.Vec4) {
	t.Helper()
	p, err := d.Compile(gpu.ShaderSource{
		Name: "fill",
		Reference: func(gpu.Uniforms) gpu.FragmentFunc {
			return func(mgl32.Vec2) mgl32.Vec4 { return c }
		},
	}, gpu.KeywordSet{})
	if err != nil {
		t.Fatal(err)
	}
	d.UseProgram(p)
	d.Draw(dst.Texture)
}

func TestResizeDouble_SameSizeIsNoOp(t *testing.T) {
	d := soft.New(1, 1)
	dt, _ := gpu.NewDoubleRenderTarget(d, 8, 8, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterLinear)
	r, w := dt.Read(), dt.Write()
	before := d.Stats().LiveTextures

	got, err := gpu.ResizeDouble(d, dt, 8, 8, newBlitter(t, d))
	if err != nil {
		t.Fatal(err)
	}
	if got != dt || dt.Read() != r || dt.Write() != w {
		t.Error("same-size resize must return the untouched pair")
	}
	if d.Stats().LiveTextures != before {
		t.Error("same-size resize allocated textures")
	}
}

func TestResizeDouble_PreservesContent(t *testing.T) {
	d := soft.New(1, 1)
	dt, _ := gpu.NewDoubleRenderTarget(d, 8, 8, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterLinear)
	fill(t, d, dt.Read(), mgl32.Vec4{0.3, 0.6, 0.9, 1})
	fill(t, d, dt.Write(), mgl32.Vec4{1, 1, 1, 1})
	before := d.Stats().LiveTextures

	got, err := gpu.ResizeDouble(d, dt, 16, 4, newBlitter(t, d))
	if err != nil {
		t.Fatal(err)
	}
	if got.Width() != 16 || got.Height() != 4 {
		t.Fatalf("size = %dx%d, want 16x4", got.Width(), got.Height())
	}
	if d.Stats().LiveTextures != before {
		t.Errorf("live textures %d -> %d, old halves not released", before, d.Stats().LiveTextures)
	}

	px, _ := d.ReadPixels(got.Read().Texture)
	for i := 0; i < len(px); i += 4 {
		if !near(px[i], 0.3) || !near(px[i+1], 0.6) || !near(px[i+2], 0.9) {
			t.Fatalf("read texel %d = %v, want resampled fill", i/4, px[i:i+4])
		}
	}
	px, _ = d.ReadPixels(got.Write().Texture)
	for _, v := range px {
		if v != 0 {
			t.Fatal("write half should be freshly cleared")
		}
	}
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

type copyTable struct {
	Source gpu.Uniform
}

func (c *copyTable) Locate(lookup func(string) gpu.Uniform) {
	c.Source = lookup("uTexture")
}

func TestMaterial_CompilesOncePerKeywordSet(t *testing.T) {
	d := soft.New(1, 1)
	src := gpu.ShaderSource{
		Name: "display",
		Reference: func(gpu.Uniforms) gpu.FragmentFunc {
			return func(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4{} }
		},
	}
	m := gpu.NewMaterial[copyTable](d, src, nil)

	for i := 0; i < 3; i++ {
		if u := m.Bind(gpu.Keywords("SHADING", "BLOOM")); u == nil || u.Source == gpu.NoUniform {
			t.Fatalf("Bind returned %v", u)
		}
		m.Bind(gpu.Keywords("BLOOM", "SHADING"))
		m.Bind(gpu.Keywords())
	}
	if got := d.Stats().Compiles; got != 2 {
		t.Errorf("compiles = %d, want 2", got)
	}
	if m.Variants() != 2 {
		t.Errorf("variants = %d, want 2", m.Variants())
	}
	if m.Keys() != gpu.Keywords() {
		t.Errorf("Keys = %v, want last bound set", m.Keys())
	}
}

func TestMaterial_FailedVariantIsCached(t *testing.T) {
	attempts := 0
	d := soft.New(1, 1, soft.WithCompileHook(func(_ gpu.ShaderSource, keys gpu.KeywordSet) error {
		attempts++
		if keys.Has("BROKEN") {
			return errors.New("syntax error")
		}
		return nil
	}))
	src := gpu.ShaderSource{
		Name: "display",
		Reference: func(gpu.Uniforms) gpu.FragmentFunc {
			return func(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4{} }
		},
	}
	m := gpu.NewMaterial[copyTable](d, src, nil)

	for i := 0; i < 5; i++ {
		if m.Bind(gpu.Keywords("BROKEN")) != nil {
			t.Fatal("failed variant must bind as nil")
		}
	}
	if attempts != 1 {
		t.Errorf("compile attempts = %d, want 1", attempts)
	}
	if m.Bind(gpu.Keywords()) == nil {
		t.Error("healthy variant should still bind")
	}
	m.Release()
	if m.Variants() != 0 {
		t.Error("Release should drop every variant")
	}
}
