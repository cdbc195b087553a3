package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/sonofluid/config"
)

func TestParamDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.FromConfig(config.Default())
	if len(got) != pv.Dim() {
		t.Fatalf("FromConfig returned %d values, want %d", len(got), pv.Dim())
	}
	for i, spec := range pv.Specs {
		if math.Abs(got[i]-spec.Default) > 1e-9 {
			t.Errorf("%s: config default %g, spec default %g", spec.Name, got[i], spec.Default)
		}
	}
}

func TestApplyToConfigFollowsSpecOrder(t *testing.T) {
	pv := NewParamVector()
	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Min + 0.25*(spec.Max-spec.Min)
	}

	cfg := config.Default()
	pv.ApplyToConfig(cfg, values)
	got := pv.FromConfig(cfg)
	for i, spec := range pv.Specs {
		if math.Abs(got[i]-values[i]) > 1e-9 {
			t.Errorf("%s = %g, want %g", spec.Name, got[i], values[i])
		}
	}
}

func TestNormalizeRoundTripAndClamp(t *testing.T) {
	pv := NewParamVector()
	raw := pv.FromConfig(config.Default())
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: round trip %g, want %g", pv.Specs[i].Name, back[i], raw[i])
		}
	}

	out := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		out[i] = spec.Max + 1
	}
	for i, v := range pv.Clamp(out) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s clamped to %g, want %g", pv.Specs[i].Name, v, pv.Specs[i].Max)
		}
	}
}
