package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sonofluid/ui"
)

// randomSplatsMin and randomSplatsMax bound a burst of random splats.
const (
	randomSplatsMin = 5
	randomSplatsMax = 25
)

// Update processes input and pending panel actions. Call once per frame
// before Draw.
func (g *Game) Update() {
	h := g.ui
	if h == nil {
		return
	}

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Settings may have changed from the tuning panel
	s := g.engine.Settings()
	h.toggles.Sync(s)

	for _, desc := range h.toggles.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			h.toggles.Toggle(desc.ID)
		}
	}

	act := h.pending
	h.pending = ui.TuningActions{}

	if act.TogglePause {
		h.toggles.Toggle(ui.TogglePaused)
	}
	if h.toggles.Apply(&s) {
		g.engine.SetSettings(s)
	}

	if act.RandomSplats || rl.IsKeyPressed(rl.KeyEnter) {
		n := randomSplatsMin + int(rl.GetRandomValue(0, randomSplatsMax-randomSplatsMin))
		g.engine.RandomSplats(n)
	}
	if act.Capture || rl.IsKeyPressed(rl.KeyS) {
		g.captureFrame(nil)
	}
}
