package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sonofluid/gpu"
	"github.com/pthm-cable/sonofluid/telemetry"
	"github.com/pthm-cable/sonofluid/ui"
)

const controlsLegend = "[Space] pause  [H/B/R/T/C] features  [Tab] tuning  [I] inspector  [F3] perf  [Enter] splats  [S] capture  [F11] fullscreen"

// hostUI bundles the raylib panels.
type hostUI struct {
	hud        *ui.HUD
	inspector  *ui.Inspector
	perfPanel  *ui.PerfPanel
	controls   *ui.ControlsPanel
	tuning     *ui.TuningPanel
	quickStats *ui.QuickStatsPanel
	toggles    *ui.ToggleRegistry

	pending ui.TuningActions // buttons pressed during the last Draw
}

func newHostUI(g *Game) *hostUI {
	h := &hostUI{
		hud:        ui.NewHUD(),
		inspector:  ui.NewInspector(0, 10, 260),
		perfPanel:  ui.NewPerfPanel(10, 110),
		controls:   ui.NewControlsPanel(10, 110, 220),
		tuning:     ui.NewTuningPanel(0, 10, 280),
		quickStats: ui.NewQuickStatsPanel(0, 0, 200),
		toggles:    ui.NewToggleRegistry(),
	}
	h.toggles.Sync(g.engine.Settings())
	return h
}

// layout positions the right-anchored panels for the current screen.
func (h *hostUI) layout(w, height int32) {
	h.inspector.SetPosition(w-270, 10)
	h.tuning.SetPosition(w-290, 10)
	h.quickStats.SetPosition(w-210, height-130)
}

// Draw runs one graphical frame: the engine tick draws the fluid to the
// window, then the UI draws on top.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.DrawRenderBatchActive()

	g.step(float64(rl.GetFrameTime()))
	if g.opts.Restore != nil {
		g.opts.Restore()
	}

	g.perfCollector.StartPhase(telemetry.PhaseHUD)
	g.drawUI()

	rl.EndDrawing()
	g.perfCollector.EndTick()
	g.perfCollector.RecordFrame()
}

func (g *Game) drawUI() {
	h := g.ui
	w, height := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	h.layout(w, height)

	caps := g.engine.Capabilities()
	s := g.engine.Settings()
	h.hud.Draw(ui.HUDData{
		Title:        g.cfg.Screen.Title,
		Tick:         g.engine.Ticks(),
		Splats:       g.engine.Splats(),
		FPS:          rl.GetFPS(),
		Paused:       s.Paused,
		Backend:      g.opts.Backend,
		Caps:         caps,
		Degraded:     !caps.LinearFilter || caps.Precision == gpu.PrecisionUnorm8,
		ScreenWidth:  w,
		ScreenHeight: height,
	})

	if h.toggles.IsEnabled(ui.TogglePerf) {
		stats := g.perfCollector.Stats()
		h.perfPanel.Draw(ui.PerfPanelData{
			PhaseTimes: stats.PhaseAvg,
			Total:      stats.AvgTickDuration,
			Order:      telemetry.PhaseOrder(),
		})
	} else {
		h.controls.SetVisible(true)
		h.controls.Draw(h.toggles)
	}

	switch {
	case h.toggles.IsEnabled(ui.ToggleTuning):
		state := ui.TuningState{Settings: s, Gain: g.gain}
		act := h.tuning.Draw(&state)
		if act.Changed {
			g.engine.SetSettings(state.Settings)
			g.gain = state.Gain
		}
		h.pending = act
	case h.toggles.IsEnabled(ui.ToggleInspector):
		h.inspector.Draw(&ui.InspectorData{
			Frame:   g.lastFrame,
			Gain:    g.gain,
			Emitter: g.engine.Emitter(),
			Params:  s.Emitter,
			Caps:    caps,
		})
	default:
		h.quickStats.Draw(ui.QuickStatsData{
			DyeEnergy:     g.lastStats.DyeEnergy,
			VelocityMax:   g.lastStats.VelocityMax,
			DivergenceMax: g.lastStats.DivergenceMax,
			LevelMean:     g.lastStats.LevelMean,
		})
	}

	h.hud.DrawControls(w, height, controlsLegend)
}
