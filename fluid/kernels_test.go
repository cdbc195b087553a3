package fluid

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// testUniforms feeds a kernel fixed uniform values.
type testUniforms struct {
	floats   map[string]float32
	vec2s    map[string]mgl32.Vec2
	samplers map[string]gpu.Sampler
	keywords gpu.KeywordSet
}

func (u testUniforms) Float(name string) float32       { return u.floats[name] }
func (u testUniforms) Vec2(name string) mgl32.Vec2     { return u.vec2s[name] }
func (u testUniforms) Vec3(string) mgl32.Vec3          { return mgl32.Vec3{} }
func (u testUniforms) Vec4(string) mgl32.Vec4          { return mgl32.Vec4{} }
func (u testUniforms) Defined(keyword string) bool     { return u.keywords.Has(keyword) }
func (u testUniforms) Sampler(name string) gpu.Sampler { return u.samplers[name] }

// constSampler returns the same value everywhere, including outside [0,1].
type constSampler mgl32.Vec4

func (s constSampler) Sample(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4(s) }
func (s constSampler) Size() (int, int)             { return 1, 1 }

// gridSampler is a nearest-filtered, edge-clamped texel grid, row 0 at the
// bottom.
type gridSampler struct {
	w, h int
	pix  []mgl32.Vec4
}

func newGrid(w, h int) *gridSampler {
	return &gridSampler{w: w, h: h, pix: make([]mgl32.Vec4, w*h)}
}

func (g *gridSampler) set(x, y int, v mgl32.Vec4) { g.pix[y*g.w+x] = v }
func (g *gridSampler) Size() (int, int)           { return g.w, g.h }

func (g *gridSampler) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	x := min(max(int(math.Floor(float64(uv[0])*float64(g.w))), 0), g.w-1)
	y := min(max(int(math.Floor(float64(uv[1])*float64(g.h))), 0), g.h-1)
	return g.pix[y*g.w+x]
}

// centre returns the normalized centre of texel (x, y) in a w by h grid.
func centre(x, y, w, h int) mgl32.Vec2 {
	return mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
}

func nearly(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestClearKernelScalesInsteadOfZeroing(t *testing.T) {
	frag := clearKernel(testUniforms{
		floats:   map[string]float32{"value": 0.8},
		samplers: map[string]gpu.Sampler{"uTexture": constSampler{2.5, 0, 0, 1}},
	})
	if got := frag(mgl32.Vec2{0.5, 0.5})[0]; !nearly(got, 2.0) {
		t.Errorf("cleared pressure = %v, want 2.5*0.8 = 2", got)
	}
}

func TestPressureKernelJacobiUpdate(t *testing.T) {
	p := newGrid(3, 3)
	p.set(0, 1, mgl32.Vec4{1}) // left
	p.set(2, 1, mgl32.Vec4{2}) // right
	p.set(1, 2, mgl32.Vec4{3}) // top
	p.set(1, 0, mgl32.Vec4{4}) // bottom
	p.set(1, 1, mgl32.Vec4{100})

	frag := pressureKernel(testUniforms{
		vec2s: map[string]mgl32.Vec2{"texelSize": {1.0 / 3, 1.0 / 3}},
		samplers: map[string]gpu.Sampler{
			"uPressure":   p,
			"uDivergence": constSampler{2},
		},
	})
	// (pL + pR + pT + pB - divergence) / 4, the centre value plays no part
	if got := frag(centre(1, 1, 3, 3))[0]; !nearly(got, 2) {
		t.Errorf("Jacobi step = %v, want (1+2+3+4-2)/4 = 2", got)
	}
}

func TestGradientSubtractKernel(t *testing.T) {
	p := newGrid(3, 3)
	p.set(0, 1, mgl32.Vec4{1})
	p.set(2, 1, mgl32.Vec4{3})
	p.set(1, 2, mgl32.Vec4{5})
	p.set(1, 0, mgl32.Vec4{2})

	frag := gradientSubtractKernel(testUniforms{
		vec2s: map[string]mgl32.Vec2{"texelSize": {1.0 / 3, 1.0 / 3}},
		samplers: map[string]gpu.Sampler{
			"uPressure": p,
			"uVelocity": constSampler{10, 10, 0, 1},
		},
	})
	got := frag(centre(1, 1, 3, 3))
	if !nearly(got[0], 8) || !nearly(got[1], 7) {
		t.Errorf("velocity = (%v, %v), want (10-(3-1), 10-(5-2)) = (8, 7)", got[0], got[1])
	}
}

func TestDivergenceKernelFreeSlipEdges(t *testing.T) {
	const n = 4
	// A uniform flow to the right has no divergence inside the domain, but
	// the walls reflect it: flow leaves the left wall and piles into the
	// right one.
	frag := divergenceKernel(testUniforms{
		vec2s:    map[string]mgl32.Vec2{"texelSize": {1.0 / n, 1.0 / n}},
		samplers: map[string]gpu.Sampler{"uVelocity": constSampler{1, 0, 0, 1}},
	})

	tests := []struct {
		x    int
		want float32
	}{
		{0, 1},  // l mirrored to -1
		{1, 0},  // interior
		{2, 0},  // interior
		{3, -1}, // r mirrored to -1
	}
	for _, tt := range tests {
		if got := frag(centre(tt.x, 1, n, n))[0]; !nearly(got, tt.want) {
			t.Errorf("divergence at x=%d = %v, want %v", tt.x, got, tt.want)
		}
	}

	// Same at the top and bottom walls for vertical flow.
	frag = divergenceKernel(testUniforms{
		vec2s:    map[string]mgl32.Vec2{"texelSize": {1.0 / n, 1.0 / n}},
		samplers: map[string]gpu.Sampler{"uVelocity": constSampler{0, 1, 0, 1}},
	})
	if got := frag(centre(1, 0, n, n))[0]; !nearly(got, 1) {
		t.Errorf("divergence at bottom wall = %v, want 1", got)
	}
	if got := frag(centre(1, n-1, n, n))[0]; !nearly(got, -1) {
		t.Errorf("divergence at top wall = %v, want -1", got)
	}
}

func TestVorticityKernelClampsVelocity(t *testing.T) {
	tests := []struct {
		name     string
		curl     func(uv mgl32.Vec2) float32
		velocity mgl32.Vec4
		want     mgl32.Vec2
	}{
		{
			// |curl| grows upward: the force points along +x
			name:     "x",
			curl:     func(uv mgl32.Vec2) float32 { return 1e6 * uv[1] },
			velocity: mgl32.Vec4{999, 0, 0, 1},
			want:     mgl32.Vec2{maxVelocity, 0},
		},
		{
			// |curl| grows to the right: the force points along -y
			name:     "y",
			curl:     func(uv mgl32.Vec2) float32 { return 1e6 * uv[0] },
			velocity: mgl32.Vec4{0, -999, 0, 1},
			want:     mgl32.Vec2{0, -maxVelocity},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curl := newGrid(3, 3)
			for y := 0; y < 3; y++ {
				for x := 0; x < 3; x++ {
					curl.set(x, y, mgl32.Vec4{tt.curl(centre(x, y, 3, 3))})
				}
			}
			frag := vorticityKernel(testUniforms{
				floats: map[string]float32{"curl": 30, "dt": 1.0 / 60},
				vec2s:  map[string]mgl32.Vec2{"texelSize": {1.0 / 3, 1.0 / 3}},
				samplers: map[string]gpu.Sampler{
					"uVelocity": constSampler(tt.velocity),
					"uCurl":     curl,
				},
			})
			got := frag(centre(1, 1, 3, 3))
			if !nearly(got[0], tt.want[0]) || !nearly(got[1], tt.want[1]) {
				t.Errorf("velocity = (%v, %v), want (%v, %v)", got[0], got[1], tt.want[0], tt.want[1])
			}
		})
	}
}

func TestAdvectionKernelDissipation(t *testing.T) {
	for _, keys := range []gpu.KeywordSet{gpu.Keywords(), gpu.Keywords(KeywordManualFiltering)} {
		frag := advectionKernel(testUniforms{
			floats: map[string]float32{"dt": 0.5, "dissipation": 3},
			vec2s: map[string]mgl32.Vec2{
				"texelSize":    {0.25, 0.25},
				"dyeTexelSize": {0.25, 0.25},
			},
			samplers: map[string]gpu.Sampler{
				"uVelocity": constSampler{0, 0, 0, 1},
				"uSource":   constSampler{2, 1, 0.5, 1},
			},
			keywords: keys,
		})
		// value / (1 + dissipation*dt) = value / 2.5
		got := frag(mgl32.Vec2{0.5, 0.5})
		if !nearly(got[0], 0.8) || !nearly(got[1], 0.4) || !nearly(got[2], 0.2) {
			t.Errorf("%v: advected = %v, want (0.8, 0.4, 0.2)", keys, got)
		}
	}
}

func TestAdvectionKernelBacktraces(t *testing.T) {
	src := newGrid(4, 1)
	for x := 0; x < 4; x++ {
		src.set(x, 0, mgl32.Vec4{float32(x)})
	}
	// One texel per second to the right for one second: each texel takes
	// the value of its left neighbour.
	frag := advectionKernel(testUniforms{
		floats: map[string]float32{"dt": 1},
		vec2s: map[string]mgl32.Vec2{
			"texelSize":    {0.25, 1},
			"dyeTexelSize": {0.25, 1},
		},
		samplers: map[string]gpu.Sampler{
			"uVelocity": constSampler{1, 0, 0, 1},
			"uSource":   src,
		},
	})
	if got := frag(centre(2, 0, 4, 1))[0]; !nearly(got, 1) {
		t.Errorf("advected value at x=2 = %v, want 1", got)
	}
}
