package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sonofluid/config"
	"github.com/pthm-cable/sonofluid/game"
	"github.com/pthm-cable/sonofluid/gpu/soft"
	"github.com/pthm-cable/sonofluid/telemetry"
)

// Fitness weights. Lower fitness is better.
const (
	energyWeight     = 1.0 // squared log distance from the target dye energy
	stabilityWeight  = 2.0 // coefficient of variation of dye energy
	divergenceWeight = 4.0 // mean residual divergence after projection
	silentPenalty    = 10.0
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params       *ParamVector
	ticks        int32
	seeds        []int64
	baseConfig   *config.Config
	targetEnergy float64
	statsWindow  float64
	width        int
	height       int

	mu        sync.Mutex
	lastStats runSummary // most recent Evaluate, averaged over seeds
}

// runSummary is the aggregate of one run's stats windows.
type runSummary struct {
	energy     float64
	cv         float64
	divergence float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int32, seeds []int64, baseCfg *config.Config, targetEnergy float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:       params,
		ticks:        ticks,
		seeds:        seeds,
		baseConfig:   baseCfg,
		targetEnergy: targetEnergy,
		statsWindow:  2.0,
		width:        160,
		height:       90,
	}
}

// LastSummary returns energy, energy CV and divergence from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastSummary() (energy, cv, divergence float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats.energy, fe.lastStats.cv, fe.lastStats.divergence
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel, each on its own device
	results := make([]runSummary, len(fe.seeds))
	fitness := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows := fe.runSimulation(x, s)
			results[idx] = summarize(windows)
			fitness[idx] = fe.computeFitness(results[idx], len(windows))
		}(i, seed)
	}
	wg.Wait()

	var avg runSummary
	for _, r := range results {
		avg.energy += r.energy
		avg.cv += r.cv
		avg.divergence += r.divergence
	}
	n := float64(len(results))
	avg.energy /= n
	avg.cv /= n
	avg.divergence /= n

	fe.mu.Lock()
	fe.lastStats = avg
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSimulation executes a single headless simulation run and returns its
// stats windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) []telemetry.WindowStats {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Sim.SimResolution = 32
	cfg.Sim.DyeResolution = 64
	cfg.Bloom.Enabled = false
	cfg.Sunrays.Enabled = false

	dev := soft.New(fe.width, fe.height, soft.WithWorkers(1))
	defer dev.Close()

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(dev, cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil
	}
	defer g.Unload()

	for g.Tick() < fe.ticks {
		g.UpdateHeadless()
	}
	return windows
}

// summarize averages the second half of a run, after the field has had
// time to fill.
func summarize(windows []telemetry.WindowStats) runSummary {
	if len(windows) == 0 {
		return runSummary{}
	}
	tail := windows[len(windows)/2:]
	energy := make([]float64, len(tail))
	divergence := make([]float64, len(tail))
	for i, w := range tail {
		energy[i] = w.DyeEnergy
		divergence[i] = w.DivergenceMax
	}

	mean, std := stat.MeanStdDev(energy, nil)
	if len(tail) < 2 {
		std = 0
	}
	var cv float64
	if mean > 0 {
		cv = std / mean
	}
	return runSummary{
		energy:     mean,
		cv:         cv,
		divergence: stat.Mean(divergence, nil),
	}
}

// computeFitness scores one run. A run that never held any dye gets a flat
// penalty so the search moves away from it.
func (fe *FitnessEvaluator) computeFitness(r runSummary, windows int) float64 {
	if windows == 0 || r.energy <= 0 {
		return silentPenalty
	}
	d := math.Log(r.energy / fe.targetEnergy)
	return energyWeight*d*d + stabilityWeight*r.cv + divergenceWeight*r.divergence
}

// copyConfig returns a deep enough copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	c := *fe.baseConfig
	return &c
}
