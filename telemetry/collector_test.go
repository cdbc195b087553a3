package telemetry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/fluid"
	"github.com/pthm-cable/sonofluid/gpu/soft"
)

func TestCollector_WindowTicks(t *testing.T) {
	c := NewCollector(5, 1.0/60, 0.01)
	if got := c.WindowDurationTicks(); got != 300 {
		t.Errorf("WindowDurationTicks = %d, want 300", got)
	}
	if c.ShouldFlush(299) {
		t.Error("flushed one tick early")
	}
	if !c.ShouldFlush(300) {
		t.Error("did not flush at window end")
	}

	// float32(1/60) is slightly above 1/60; the window must still be 300 ticks
	if got := NewCollector(5, float32(1.0/60), 0.01).WindowDurationTicks(); got != 300 {
		t.Errorf("float32 dt: WindowDurationTicks = %d, want 300", got)
	}
	if got := NewCollector(2, float32(1.0/30), 0.01).WindowDurationTicks(); got != 60 {
		t.Errorf("30 fps: WindowDurationTicks = %d, want 60", got)
	}

	if got := NewCollector(0, 1.0/60, 0.01).WindowDurationTicks(); got != 1 {
		t.Errorf("zero-length window = %d ticks, want 1", got)
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(1, 0.1, 0.01)

	c.RecordFrame(audio.Frame{Volume: 0.5, Frequency: 440}, 1) // A
	c.RecordFrame(audio.Frame{Volume: 0.5, Frequency: 440}, 1)
	c.RecordFrame(audio.Frame{Volume: 0.5, Frequency: 262}, 1) // C
	c.RecordFrame(audio.Frame{Volume: 0.005, Frequency: 262}, 1)
	c.RecordSplats(3)
	c.RecordResize()

	stats := c.Flush(10, FieldSummary{DyeEnergy: 2.5})

	if stats.ActiveTicks != 3 {
		t.Errorf("ActiveTicks = %d, want 3", stats.ActiveTicks)
	}
	if stats.Splats != 3 || stats.Resizes != 1 {
		t.Errorf("Splats %d Resizes %d, want 3 and 1", stats.Splats, stats.Resizes)
	}
	if stats.DominantChroma != 9 {
		t.Errorf("DominantChroma = %d, want 9 (A)", stats.DominantChroma)
	}
	if stats.LevelMax != 0.5 {
		t.Errorf("LevelMax = %v, want 0.5", stats.LevelMax)
	}
	if math.Abs(stats.SimTimeSec-1.0) > 1e-6 {
		t.Errorf("SimTimeSec = %v, want 1.0", stats.SimTimeSec)
	}
	if stats.DyeEnergy != 2.5 {
		t.Errorf("DyeEnergy = %v, want 2.5", stats.DyeEnergy)
	}

	// Next window starts clean
	next := c.Flush(20, FieldSummary{})
	if next.WindowStartTick != 10 || next.ActiveTicks != 0 || next.Splats != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.DominantChroma != -1 {
		t.Errorf("silent window DominantChroma = %d, want -1", next.DominantChroma)
	}
}

func TestSampleFields(t *testing.T) {
	dev := soft.New(32, 32)
	defer dev.Close()

	s := fluid.DefaultSettings()
	s.SimResolution = 8
	s.DyeResolution = 16
	s.PressureIterations = 2
	s.Bloom.Enabled = false
	s.Sunrays.Enabled = false
	s.InitialSplats = 0
	s.DitherSize = 4
	e, err := fluid.New(dev, s)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	empty, err := SampleFields(e)
	if err != nil {
		t.Fatal(err)
	}
	if empty.DyeEnergy != 0 || empty.VelocityMax != 0 {
		t.Errorf("fresh engine fields not empty: %+v", empty)
	}

	e.Splat(mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{100, 0}, mgl32.Vec3{1, 1, 1})
	fs, err := SampleFields(e)
	if err != nil {
		t.Fatal(err)
	}
	if fs.DyeEnergy <= 0 || fs.DyeMean <= 0 {
		t.Errorf("dye not sampled: %+v", fs)
	}
	if fs.VelocityMax <= 0 {
		t.Errorf("velocity not sampled: %+v", fs)
	}
}
