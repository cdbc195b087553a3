package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsMatchReferenceValues(t *testing.T) {
	cfg := Default()

	if cfg.Sim.SimResolution != 128 || cfg.Sim.DyeResolution != 1024 {
		t.Errorf("resolutions = %d/%d, want 128/1024", cfg.Sim.SimResolution, cfg.Sim.DyeResolution)
	}
	if cfg.Sim.PressureIterations != 20 {
		t.Errorf("pressure_iterations = %d, want 20", cfg.Sim.PressureIterations)
	}
	if cfg.Sim.Pressure != 0.8 || cfg.Sim.Curl != 30 {
		t.Errorf("pressure/curl = %g/%g, want 0.8/30", cfg.Sim.Pressure, cfg.Sim.Curl)
	}
	if cfg.Sim.SplatRadius != 0.25 || cfg.Sim.SplatForce != 6000 {
		t.Errorf("splat = %g/%g, want 0.25/6000", cfg.Sim.SplatRadius, cfg.Sim.SplatForce)
	}
	if !cfg.Bloom.Enabled || cfg.Bloom.Iterations != 8 || cfg.Bloom.Resolution != 256 {
		t.Errorf("bloom = %+v", cfg.Bloom)
	}
	if !cfg.Sunrays.Enabled || cfg.Sunrays.Resolution != 196 || cfg.Sunrays.Weight != 1.0 {
		t.Errorf("sunrays = %+v", cfg.Sunrays)
	}
	if cfg.Emitter.ActivationThreshold != 0.01 || cfg.Emitter.ColorSmoothing != 0.1 {
		t.Errorf("emitter = %+v", cfg.Emitter)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := "sim:\n  curl: 12\nbloom:\n  enabled: false\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sim.Curl != 12 {
		t.Errorf("curl = %g, want 12", cfg.Sim.Curl)
	}
	if cfg.Bloom.Enabled {
		t.Error("expected bloom disabled by override")
	}
	if cfg.Sim.PressureIterations != 20 {
		t.Errorf("untouched pressure_iterations = %d, want default 20", cfg.Sim.PressureIterations)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Sim.PressureIterations = 0
	cfg.Sim.Pressure = 2
	cfg.GPU.Backend = "vulkan"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"pressure_iterations", "sim.pressure", "vulkan"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestMaxDTIsBoundedBySolverStep(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if cfg.Derived.MaxDT32 > float32(MaxStep) {
		t.Errorf("derived max dt = %v, want <= %v", cfg.Derived.MaxDT32, float32(MaxStep))
	}

	cfg.Sim.MaxDT = 0.05
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "sim.max_dt") {
		t.Errorf("max_dt 0.05 accepted, err = %v", err)
	}
	cfg.computeDerived()
	if cfg.Derived.MaxDT32 != float32(MaxStep) {
		t.Errorf("derived max dt = %v, want capped at %v", cfg.Derived.MaxDT32, float32(MaxStep))
	}
}

func TestDerivedBackColor(t *testing.T) {
	cfg := Default()
	cfg.Display.BackColor = [3]float64{255, 0, 51}
	cfg.computeDerived()

	if cfg.Derived.BackColor[0] != 1 || cfg.Derived.BackColor[1] != 0 {
		t.Errorf("back color = %v", cfg.Derived.BackColor)
	}
	if got := cfg.Derived.BackColor[2]; got < 0.19 || got > 0.21 {
		t.Errorf("blue = %g, want 0.2", got)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Sim.Curl = 7

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Sim.Curl != 7 {
		t.Errorf("curl = %g after round trip, want 7", loaded.Sim.Curl)
	}
}
