// Package main provides CMA-ES optimization for fluid parameters.
package main

import (
	"github.com/pthm-cable/sonofluid/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Solver
			{Name: "density_dissipation", Path: "sim.density_dissipation", Min: 0.1, Max: 4.0, Default: 1.0},
			{Name: "velocity_dissipation", Path: "sim.velocity_dissipation", Min: 0.0, Max: 4.0, Default: 0.2},
			{Name: "pressure", Path: "sim.pressure", Min: 0.0, Max: 1.0, Default: 0.8},
			{Name: "curl", Path: "sim.curl", Min: 0, Max: 50, Default: 30},
			// Splats
			{Name: "splat_radius", Path: "sim.splat_radius", Min: 0.05, Max: 1.0, Default: 0.25},
			{Name: "splat_force", Path: "sim.splat_force", Min: 500, Max: 12000, Default: 6000},
			// Emitter
			{Name: "color_smoothing", Path: "emitter.color_smoothing", Min: 0.01, Max: 1.0, Default: 0.1},
			{Name: "activation_threshold", Path: "emitter.activation_threshold", Min: 0.001, Max: 0.2, Default: 0.01},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// FromConfig reads the current parameter values out of cfg.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Sim.DensityDissipation,
		cfg.Sim.VelocityDissipation,
		cfg.Sim.Pressure,
		cfg.Sim.Curl,
		cfg.Sim.SplatRadius,
		cfg.Sim.SplatForce,
		cfg.Emitter.ColorSmoothing,
		cfg.Emitter.ActivationThreshold,
	}
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Sim.DensityDissipation = c[0]
	cfg.Sim.VelocityDissipation = c[1]
	cfg.Sim.Pressure = c[2]
	cfg.Sim.Curl = c[3]
	cfg.Sim.SplatRadius = c[4]
	cfg.Sim.SplatForce = c[5]
	cfg.Emitter.ColorSmoothing = c[6]
	cfg.Emitter.ActivationThreshold = c[7]
}
