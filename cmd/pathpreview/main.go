// Emitter path preview tool - interactive visualization of the splat path
// and colour response with sliders.
//
// Usage: go run ./cmd/pathpreview
package main

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/config"
	"github.com/pthm-cable/sonofluid/emitter"
	"github.com/pthm-cable/sonofluid/ui"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	trailLength  = 240
)

// trailPoint is one emitted impulse.
type trailPoint struct {
	x, y  float32
	color rl.Color
	level float32
}

// slider draws a labelled raygui slider and returns the new value.
func slider(x, y float32, label string, value, lo, hi float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: y + 18, Width: float32(panelWidth - 80), Height: 20},
		"", "",
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+float32(panelWidth-70)), int32(y+20), 16, rl.DarkGray)
	return v
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Emitter Path Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	defaults := config.Default()
	cfg := defaults.Emitter
	freq, volume := float32(defaults.Audio.ToneFrequency), float32(defaults.Audio.ToneVolume)

	newEmitter := func() *emitter.Emitter {
		return emitter.New(emitter.Params{
			ActivationThreshold: cfg.ActivationThreshold,
			ColorSmoothing:      cfg.ColorSmoothing,
			PathAmplitude:       cfg.PathAmplitude,
			PathSpeedX:          cfg.PathSpeedX,
			PathSpeedY:          cfg.PathSpeedY,
			PathPhase:           cfg.PathPhase,
			Colorful:            true,
		})
	}
	em := newEmitter()
	var trail []trailPoint
	running := true

	for !rl.WindowShouldClose() {
		if running {
			frame := audio.Frame{Volume: float64(volume), Frequency: float64(freq)}
			if imp, ok := em.Advance(float64(rl.GetFrameTime()), frame, 1); ok {
				c := imp.Color.Mul(1 / float32(1+imp.Level))
				trail = append(trail, trailPoint{
					x:     imp.Point[0],
					y:     imp.Point[1],
					color: rl.ColorFromNormalized(rl.Vector4{X: c[0], Y: c[1], Z: c[2], W: 1}),
					level: float32(imp.Level),
				})
				if len(trail) > trailLength {
					trail = trail[1:]
				}
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Preview, origin bottom-left
		rl.DrawRectangle(10, 10, previewSize, previewSize, rl.Black)
		for i, p := range trail {
			alpha := float32(i+1) / float32(len(trail))
			rl.DrawCircle(
				10+int32(p.x*previewSize), 10+previewSize-int32(p.y*previewSize),
				2+6*p.level, rl.Fade(p.color, alpha),
			)
		}
		st := em.State()
		rl.DrawCircleLines(10+int32(st.Position[0]*previewSize), 10+previewSize-int32(st.Position[1]*previewSize), 8, rl.White)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Note: %s  Chroma: %d  Level: %.3f", ui.NoteName(float64(freq)), emitter.Chroma(float64(freq)), volume), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.1f  Splats: %d", st.Time, len(trail)), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Emitter Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		before := cfg
		cfg.PathAmplitude = float64(slider(panelX, panelY, "Path amplitude", float32(cfg.PathAmplitude), 0, 0.5, "%.2f"))
		panelY += 45
		cfg.PathSpeedX = float64(slider(panelX, panelY, "Speed X (rad/s)", float32(cfg.PathSpeedX), 0, 3, "%.2f"))
		panelY += 45
		cfg.PathSpeedY = float64(slider(panelX, panelY, "Speed Y (rad/s)", float32(cfg.PathSpeedY), 0, 3, "%.2f"))
		panelY += 45
		cfg.PathPhase = float64(slider(panelX, panelY, "Phase (rad)", float32(cfg.PathPhase), 0, 6.283, "%.2f"))
		panelY += 45
		cfg.ColorSmoothing = float64(slider(panelX, panelY, "Colour smoothing", float32(cfg.ColorSmoothing), 0.01, 1, "%.2f"))
		panelY += 45
		cfg.ActivationThreshold = float64(slider(panelX, panelY, "Activation threshold", float32(cfg.ActivationThreshold), 0, 0.2, "%.3f"))
		panelY += 45
		freq = slider(panelX, panelY, "Tone frequency (Hz)", freq, 20, 2000, "%.0f")
		panelY += 45
		volume = slider(panelX, panelY, "Tone volume", volume, 0, 1, "%.2f")
		panelY += 50

		if cfg != before {
			em.SetParams(emitter.Params{
				ActivationThreshold: cfg.ActivationThreshold,
				ColorSmoothing:      cfg.ColorSmoothing,
				PathAmplitude:       cfg.PathAmplitude,
				PathSpeedX:          cfg.PathSpeedX,
				PathSpeedY:          cfg.PathSpeedY,
				PathPhase:           cfg.PathPhase,
				Colorful:            true,
			})
		}

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(running, "Stop", "Run")) {
			running = !running
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			cfg = defaults.Emitter
			em = newEmitter()
			trail = trail[:0]
		}
		panelY += 45

		// Output YAML
		out, err := yaml.Marshal(map[string]config.EmitterConfig{"emitter": cfg})
		if err == nil {
			rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
			rl.DrawText(string(out), int32(panelX), int32(panelY+22), 14, rl.Gray)
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) && err == nil {
			rl.SetClipboardText(string(out))
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
