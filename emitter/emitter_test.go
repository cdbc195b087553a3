package emitter

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/audio"
)

func TestChroma(t *testing.T) {
	tests := []struct {
		freq float64
		want int
	}{
		{440, 9},     // A4
		{880, 9},     // A5
		{220, 9},     // A3
		{261.63, 0},  // C4
		{277.18, 1},  // C#4
		{493.88, 11}, // B4
		{450, 9},     // rounds to A
		{20, 0},      // too low
		{0, 0},       // silent
		{25.96, 8},   // G#0
	}
	for _, tt := range tests {
		if got := Chroma(tt.freq); got != tt.want {
			t.Errorf("Chroma(%v) = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestHue_A440(t *testing.T) {
	if got := Hue(440); got != 0.75 {
		t.Errorf("Hue(440) = %v, want 0.75", got)
	}
}

func TestHueToRGB(t *testing.T) {
	c := HueToRGB(0.75, 1)
	// Violet: red half on, green off, blue full.
	if c[1] != 0 || c[2] != 1 || c[0] < 0.49 || c[0] > 0.51 {
		t.Errorf("HueToRGB(0.75) = %v", c)
	}
	if got := HueOf(c); math.Abs(got-0.75) > 0.01 {
		t.Errorf("HueOf round trip = %v, want 0.75", got)
	}
	grey := HueToRGB(0.75, 0)
	if grey[0] != grey[1] || grey[1] != grey[2] {
		t.Errorf("zero saturation should be grey, got %v", grey)
	}
}

func TestAdvance_BelowThreshold(t *testing.T) {
	e := New(DefaultParams())
	start := e.State().Position

	for _, f := range []audio.Frame{
		{},
		{Volume: 0.01, Frequency: 440},
		{Volume: 0.02, Frequency: 440}, // 0.02 * 0.5 gain = 0.01
	} {
		if _, ok := e.Advance(1.0/60, f, 0.5); ok {
			t.Errorf("frame %+v at gain 0.5 should not emit", f)
		}
	}
	if e.State().Position == start {
		t.Error("emitter should move along its path even when silent")
	}
	if e.State().Color != (mgl32.Vec3{}) {
		t.Error("colour should not change without emission")
	}
}

func TestAdvance_Emits(t *testing.T) {
	e := New(DefaultParams())
	imp, ok := e.Advance(1.0/60, audio.Frame{Volume: 1, Frequency: 440}, 1)
	if !ok {
		t.Fatal("expected an impulse")
	}
	if imp.Hue != 0.75 {
		t.Errorf("hue = %v, want 0.75", imp.Hue)
	}
	// One smoothing step from black toward violet (0.5, 0, 1), doubled.
	want := mgl32.Vec3{0.1, 0, 0.2}
	if !imp.Color.ApproxEqualThreshold(want, 0.005) {
		t.Errorf("colour = %v, want ~%v", imp.Color, want)
	}
	if imp.Point != e.State().Position {
		t.Error("impulse should be at the emitter position")
	}
	if imp.Force.Len() == 0 {
		t.Error("force should follow the path tangent")
	}
}

func TestAdvance_ColorConverges(t *testing.T) {
	e := New(DefaultParams())
	for i := 0; i < 200; i++ {
		e.Advance(1.0/60, audio.Frame{Volume: 0.5, Frequency: 440}, 1)
	}
	target := HueToRGB(0.75, 1)
	if !e.State().Color.ApproxEqualThreshold(target, 0.001) {
		t.Errorf("smoothed colour = %v, want %v", e.State().Color, target)
	}
}

func TestAdvance_Desaturated(t *testing.T) {
	p := DefaultParams()
	p.Colorful = false
	e := New(p)
	imp, _ := e.Advance(1.0/60, audio.Frame{Volume: 1, Frequency: 440}, 1)
	if imp.Color[0] != imp.Color[1] || imp.Color[1] != imp.Color[2] {
		t.Errorf("colour = %v, want grey", imp.Color)
	}
}

func TestPath_StaysInBounds(t *testing.T) {
	e := New(DefaultParams())
	for i := 0; i < 10000; i++ {
		e.Advance(1.0/60, audio.Frame{}, 1)
		p := e.State().Position
		if p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
			t.Fatalf("tick %d: position %v outside the unit square", i, p)
		}
	}
}

func TestPath_HeadingMatchesMotion(t *testing.T) {
	e := New(DefaultParams())
	e.Advance(0.5, audio.Frame{}, 1)
	before := e.State()
	e.Advance(0.001, audio.Frame{}, 1)
	d := e.State().Position.Sub(before.Position)
	got := float32(math.Atan2(float64(d[1]), float64(d[0])))
	if math.Abs(float64(got-before.Heading)) > 0.05 {
		t.Errorf("heading %v, motion direction %v", before.Heading, got)
	}
}
