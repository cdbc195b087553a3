package soft

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

func constant(c mgl32.Vec4) gpu.ShaderSource {
	return gpu.ShaderSource{
		Name: "constant",
		Reference: func(gpu.Uniforms) gpu.FragmentFunc {
			return func(mgl32.Vec2) mgl32.Vec4 { return c }
		},
	}
}

func sampleUV() gpu.ShaderSource {
	return gpu.ShaderSource{
		Name: "uv",
		Reference: func(u gpu.Uniforms) gpu.FragmentFunc {
			scale := u.Float("scale")
			return func(uv mgl32.Vec2) mgl32.Vec4 {
				return mgl32.Vec4{uv[0] * scale, uv[1] * scale, 0, 1}
			}
		},
	}
}

func mustTarget(t *testing.T, d *Device, w, h int, f gpu.PixelFormat, filter gpu.Filter) gpu.Texture {
	t.Helper()
	tex, err := d.NewTarget(w, h, f, filter)
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	return tex
}

func mustCompile(t *testing.T, d *Device, src gpu.ShaderSource) gpu.Program {
	t.Helper()
	p, err := d.Compile(src, gpu.KeywordSet{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestDraw_UniformsAndTexelCentres(t *testing.T) {
	d := New(4, 4, WithWorkers(1))
	tex := mustTarget(t, d, 4, 2, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterNearest)
	p := mustCompile(t, d, sampleUV())

	d.UseProgram(p)
	d.SetFloat(d.UniformLocation(p, "scale"), 2)
	d.Draw(tex)

	px, err := d.ReadPixels(tex)
	if err != nil {
		t.Fatal(err)
	}
	// First texel (bottom-left) centre is (0.125, 0.25).
	if !near(px[0], 0.25) || !near(px[1], 0.5) {
		t.Errorf("texel (0,0) = (%v, %v), want (0.25, 0.5)", px[0], px[1])
	}
	// Last texel (top-right) centre is (0.875, 0.75).
	last := len(px) - 4
	if !near(px[last], 1.75) || !near(px[last+1], 1.5) {
		t.Errorf("texel (3,1) = (%v, %v), want (1.75, 1.5)", px[last], px[last+1])
	}
}

func TestDraw_ChannelLayouts(t *testing.T) {
	d := New(1, 1)
	p := mustCompile(t, d, constant(mgl32.Vec4{0.5, 0.25, 0.75, 0.2}))
	d.UseProgram(p)

	r := mustTarget(t, d, 1, 1, gpu.R(gpu.PrecisionHalf), gpu.FilterNearest)
	rg := mustTarget(t, d, 1, 1, gpu.RG(gpu.PrecisionHalf), gpu.FilterNearest)
	d.Draw(r)
	d.Draw(rg)

	got, _ := d.ReadPixels(r)
	if want := []float32{0.5, 0, 0, 1}; !equal(got, want) {
		t.Errorf("R texel = %v, want %v", got, want)
	}
	got, _ = d.ReadPixels(rg)
	if want := []float32{0.5, 0.25, 0, 1}; !equal(got, want) {
		t.Errorf("RG texel = %v, want %v", got, want)
	}
}

func TestDraw_Unorm8ClampsAndQuantizes(t *testing.T) {
	d := New(1, 1)
	p := mustCompile(t, d, constant(mgl32.Vec4{2, -1, 0.5, 1}))
	d.UseProgram(p)
	tex := mustTarget(t, d, 1, 1, gpu.RGBA(gpu.PrecisionUnorm8), gpu.FilterNearest)
	d.Draw(tex)

	got, _ := d.ReadPixels(tex)
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("unorm8 should clamp, got %v", got)
	}
	if want := float32(128) / 255; !near(got[2], want) {
		t.Errorf("unorm8 0.5 = %v, want %v", got[2], want)
	}
}

func TestDraw_BlendModes(t *testing.T) {
	d := New(1, 1)
	tex := mustTarget(t, d, 1, 1, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterNearest)

	d.UseProgram(mustCompile(t, d, constant(mgl32.Vec4{0.2, 0.2, 0.2, 0.5})))
	d.Draw(tex)
	d.SetBlend(gpu.BlendAdditive)
	d.Draw(tex)

	got, _ := d.ReadPixels(tex)
	if !near(got[0], 0.4) || !near(got[3], 1) {
		t.Errorf("additive = %v, want r 0.4 a 1", got)
	}

	d.SetBlend(gpu.BlendPremultiplied)
	d.Draw(tex)
	got, _ = d.ReadPixels(tex)
	// 0.2 + 0.4*(1-0.5)
	if !near(got[0], 0.4) {
		t.Errorf("premultiplied r = %v, want 0.4", got[0])
	}
}

func TestSample_BilinearAndClamp(t *testing.T) {
	tex := newTexture(2, 1, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterLinear, gpu.WrapClamp)
	tex.set(0, 0, mgl32.Vec4{0, 0, 0, 1})
	tex.set(1, 0, mgl32.Vec4{1, 0, 0, 1})

	tests := []struct {
		u    float32
		want float32
	}{
		{0.25, 0},  // centre of first texel
		{0.5, 0.5}, // midway
		{0.75, 1},  // centre of second texel
		{-3, 0},    // clamped left
		{5, 1},     // clamped right
	}
	for _, tt := range tests {
		got := tex.Sample(mgl32.Vec2{tt.u, 0.5})
		if !near(got[0], tt.want) {
			t.Errorf("Sample(%v) = %v, want %v", tt.u, got[0], tt.want)
		}
	}
}

func TestSample_RepeatWrap(t *testing.T) {
	tex := newTexture(4, 1, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterNearest, gpu.WrapRepeat)
	for x := 0; x < 4; x++ {
		tex.set(x, 0, mgl32.Vec4{float32(x), 0, 0, 1})
	}
	if got := tex.Sample(mgl32.Vec2{1.125, 0.5}); got[0] != 0 {
		t.Errorf("wrapped sample = %v, want 0", got[0])
	}
	if got := tex.Sample(mgl32.Vec2{-0.125, 0.5}); got[0] != 3 {
		t.Errorf("negative wrapped sample = %v, want 3", got[0])
	}
}

func TestDraw_ReadsTargetBeforeWrite(t *testing.T) {
	d := New(1, 1)
	tex := mustTarget(t, d, 2, 2, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterNearest)

	inc := gpu.ShaderSource{
		Name: "inc",
		Reference: func(u gpu.Uniforms) gpu.FragmentFunc {
			s := u.Sampler("uSource")
			return func(uv mgl32.Vec2) mgl32.Vec4 {
				return s.Sample(uv).Add(mgl32.Vec4{1, 0, 0, 0})
			}
		},
	}
	p := mustCompile(t, d, inc)
	d.UseProgram(p)
	d.SetTexture(d.UniformLocation(p, "uSource"), 0, tex)
	d.Draw(tex)
	d.Draw(tex)

	got, _ := d.ReadPixels(tex)
	for i := 0; i < len(got); i += 4 {
		if got[i] != 2 {
			t.Fatalf("texel %d = %v, want 2", i/4, got[i])
		}
	}
}

func TestParallelDrawMatchesSerial(t *testing.T) {
	serial := New(1, 1, WithWorkers(1))
	parallel := New(1, 1, WithWorkers(4))
	defer parallel.Close()

	var results [2][]float32
	for i, d := range []*Device{serial, parallel} {
		tex := mustTarget(t, d, 128, 96, gpu.RGBA(gpu.PrecisionFloat), gpu.FilterNearest)
		p := mustCompile(t, d, sampleUV())
		d.UseProgram(p)
		d.SetFloat(d.UniformLocation(p, "scale"), 1)
		d.Draw(tex)
		results[i], _ = d.ReadPixels(tex)
	}
	if !equal(results[0], results[1]) {
		t.Error("parallel draw differs from serial draw")
	}
}

func TestRenderFormatsAndErrors(t *testing.T) {
	d := New(1, 1, WithRenderFormats(func(f gpu.PixelFormat) bool {
		return f.Channels == 4
	}))
	if d.SupportsRenderFormat(gpu.R(gpu.PrecisionHalf)) {
		t.Error("R should be rejected")
	}
	_, err := d.NewTarget(1, 1, gpu.RG(gpu.PrecisionHalf), gpu.FilterLinear)
	if !errors.Is(err, gpu.ErrUnsupportedFormat) {
		t.Errorf("NewTarget error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := d.Compile(gpu.ShaderSource{Name: "empty"}, gpu.KeywordSet{}); !errors.Is(err, gpu.ErrCompile) {
		t.Errorf("Compile without kernel = %v, want ErrCompile", err)
	}

	tex := mustTarget(t, d, 1, 1, gpu.RGBA(gpu.PrecisionHalf), gpu.FilterLinear)
	d.Release(tex)
	if _, err := d.ReadPixels(tex); !errors.Is(err, gpu.ErrReleased) {
		t.Errorf("ReadPixels after release = %v, want ErrReleased", err)
	}
	if d.Stats().LiveTextures != 0 {
		t.Errorf("live textures = %d, want 0", d.Stats().LiveTextures)
	}
}

func TestNewTexture_Upload(t *testing.T) {
	d := New(1, 1)
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(1, 0, color.RGBA{R: 255, A: 255})

	tex, err := d.NewTexture(img, gpu.FilterNearest, gpu.WrapRepeat)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := d.ReadPixels(tex)
	if got[4] != 1 || got[0] != 0 {
		t.Errorf("uploaded texels = %v", got)
	}
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !near(a[i], b[i]) {
			return false
		}
	}
	return true
}
