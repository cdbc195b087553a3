package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sonofluid/fluid"
)

// TuningState is what the tuning panel edits in place.
type TuningState struct {
	Settings fluid.Settings
	Gain     float64
}

// TuningActions reports what the user did this frame.
type TuningActions struct {
	Changed      bool // a slider moved; push Settings to the engine
	TogglePause  bool
	RandomSplats bool
	Capture      bool
}

// slider binds one float parameter to a raygui slider.
type slider struct {
	Label    string
	Min, Max float32
	Format   string
	Get      func(*TuningState) float32
	Set      func(*TuningState, float32)
}

func tuningSliders() []slider {
	return []slider{
		{
			Label: "Curl", Min: 0, Max: 50, Format: "%.0f",
			Get: func(t *TuningState) float32 { return t.Settings.Curl },
			Set: func(t *TuningState, v float32) { t.Settings.Curl = v },
		},
		{
			Label: "Splat radius", Min: 0.01, Max: 1, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.SplatRadius },
			Set: func(t *TuningState, v float32) { t.Settings.SplatRadius = v },
		},
		{
			Label: "Density diffusion", Min: 0, Max: 4, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.DensityDissipation },
			Set: func(t *TuningState, v float32) { t.Settings.DensityDissipation = v },
		},
		{
			Label: "Velocity diffusion", Min: 0, Max: 4, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.VelocityDissipation },
			Set: func(t *TuningState, v float32) { t.Settings.VelocityDissipation = v },
		},
		{
			Label: "Pressure", Min: 0, Max: 1, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.Pressure },
			Set: func(t *TuningState, v float32) { t.Settings.Pressure = v },
		},
		{
			Label: "Bloom intensity", Min: 0.1, Max: 2, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.Bloom.Intensity },
			Set: func(t *TuningState, v float32) { t.Settings.Bloom.Intensity = v },
		},
		{
			Label: "Bloom threshold", Min: 0, Max: 1, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.Bloom.Threshold },
			Set: func(t *TuningState, v float32) { t.Settings.Bloom.Threshold = v },
		},
		{
			Label: "Sunrays weight", Min: 0.3, Max: 1, Format: "%.2f",
			Get: func(t *TuningState) float32 { return t.Settings.Sunrays.Weight },
			Set: func(t *TuningState, v float32) { t.Settings.Sunrays.Weight = v },
		},
		{
			Label: "Audio gain", Min: 0, Max: 10, Format: "%.1f",
			Get: func(t *TuningState) float32 { return float32(t.Gain) },
			Set: func(t *TuningState, v float32) { t.Gain = float64(v) },
		},
	}
}

// TuningPanel draws raygui sliders and buttons for live parameters.
type TuningPanel struct {
	renderer *Renderer
	sliders  []slider
	x, y     int32
	width    int32
}

// NewTuningPanel creates a new tuning panel.
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		sliders:  tuningSliders(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *TuningPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel, applies slider changes to state and returns the
// buttons pressed.
func (p *TuningPanel) Draw(state *TuningState) TuningActions {
	var act TuningActions
	r := p.renderer
	padding := r.Theme.Padding
	sliderWidth := float32(p.width - padding*2 - 50)

	height := padding*2 + 24 + int32(len(p.sliders))*38 + 70
	r.DrawPanel(p.x, p.y, p.width, height)

	panelX := float32(p.x + padding)
	panelY := float32(p.y + padding)

	rl.DrawText("Tuning", int32(panelX), int32(panelY), 16, rl.White)
	panelY += 24

	for _, s := range p.sliders {
		cur := s.Get(state)
		rl.DrawText(s.Label, int32(panelX), int32(panelY), r.Theme.FontSize, r.Theme.LabelColor)
		panelY += 16
		v := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: sliderWidth, Height: 16},
			"", "",
			cur, s.Min, s.Max,
		)
		rl.DrawText(fmt.Sprintf(s.Format, cur), int32(panelX+sliderWidth+6), int32(panelY+2), r.Theme.FontSize, r.Theme.ValueColor)
		if v != cur {
			s.Set(state, v)
			act.Changed = true
		}
		panelY += 22
	}

	panelY += 4
	buttonWidth := (float32(p.width) - float32(padding)*2 - 10) / 2
	pauseText := "Pause"
	if state.Settings.Paused {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: buttonWidth, Height: 26}, pauseText) {
		act.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: panelX + buttonWidth + 10, Y: panelY, Width: buttonWidth, Height: 26}, "Random splats") {
		act.RandomSplats = true
	}
	panelY += 32
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: buttonWidth*2 + 10, Height: 26}, "Capture") {
		act.Capture = true
	}

	return act
}
