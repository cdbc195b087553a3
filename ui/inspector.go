package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sonofluid/audio"
	"github.com/pthm-cable/sonofluid/emitter"
	"github.com/pthm-cable/sonofluid/gpu"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Frame   audio.Frame
	Gain    float64
	Emitter emitter.State
	Params  emitter.Params
	Caps    gpu.Capabilities
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the pitch class name of freq, or "-" below 20 Hz.
func NoteName(freq float64) string {
	if freq <= 20 {
		return "-"
	}
	return noteNames[emitter.Chroma(freq)]
}

func inspectorData(data any) *InspectorData {
	d, _ := data.(*InspectorData)
	if d == nil {
		return &InspectorData{}
	}
	return d
}

func vec3Color(c [3]float32) rl.Color {
	clamp := func(v float32) uint8 {
		return uint8(math.Round(float64(min(max(v, 0), 1)) * 255))
	}
	return rl.Color{R: clamp(c[0]), G: clamp(c[1]), B: clamp(c[2]), A: 255}
}

// inspectorSections declares the inspector layout.
func inspectorSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID:    "audio",
			Title: "Audio",
			Fields: []FieldDescriptor{
				{
					ID: "level", Label: "Level", Widget: WidgetMeter, Range: DefaultRange(),
					Getter: func(d any) float32 { f := inspectorData(d); return float32(f.Frame.Level(f.Gain)) },
					Marker: func(d any) float32 { return float32(inspectorData(d).Params.ActivationThreshold) },
				},
				{ID: "bass", Label: "Bass", Widget: WidgetBar, Getter: func(d any) float32 { return float32(inspectorData(d).Frame.Bass) }},
				{ID: "mid", Label: "Mid", Widget: WidgetBar, Getter: func(d any) float32 { return float32(inspectorData(d).Frame.Mid) }},
				{ID: "treble", Label: "Treble", Widget: WidgetBar, Getter: func(d any) float32 { return float32(inspectorData(d).Frame.Treble) }},
				{
					ID: "pitch", Label: "Pitch", Widget: WidgetText,
					TextGetter: func(d any) string {
						f := inspectorData(d).Frame.Frequency
						return fmt.Sprintf("%.1f Hz %s", f, NoteName(f))
					},
				},
			},
		},
		{
			ID:    "emitter",
			Title: "Emitter",
			Fields: []FieldDescriptor{
				{
					ID: "color", Label: "Color", Widget: WidgetColorSwatch,
					ColorGetter: func(d any) rl.Color { return vec3Color(inspectorData(d).Emitter.Color) },
				},
				{
					ID: "position", Label: "Position", Widget: WidgetText,
					TextGetter: func(d any) string {
						p := inspectorData(d).Emitter.Position
						return fmt.Sprintf("%.2f, %.2f", p[0], p[1])
					},
				},
				{
					ID: "heading", Label: "Heading", Widget: WidgetCenteredBar, Range: FieldRange{Min: -math.Pi, Max: math.Pi},
					Getter: func(d any) float32 { return inspectorData(d).Emitter.Heading },
				},
			},
		},
		{
			ID:    "gpu",
			Title: "GPU",
			Fields: []FieldDescriptor{
				{ID: "precision", Label: "Precision", Widget: WidgetText, TextGetter: func(d any) string { return inspectorData(d).Caps.Precision.String() }},
				{
					ID: "filter", Label: "Filtering", Widget: WidgetText,
					TextGetter: func(d any) string {
						if inspectorData(d).Caps.LinearFilter {
							return "linear"
						}
						return "manual"
					},
				},
				{
					ID: "rgba", Label: "Dye", Widget: WidgetText,
					TextGetter: func(d any) string {
						if f := inspectorData(d).Caps.RGBA; f != nil {
							return f.String()
						}
						return "none"
					},
				},
			},
		},
	}
}

// Inspector renders the audio and emitter panel.
type Inspector struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		sections: inspectorSections(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel and returns the y below it.
func (ins *Inspector) Draw(data *InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2
	previewHeight := int32(100)

	height := padding*2 + previewHeight + 8
	for _, sd := range ins.sections {
		height += r.sectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	y = ins.drawPathPreview(ins.x+padding, y, contentWidth, previewHeight, data)
	y = r.DrawSpacer(y, 8)

	for _, sd := range ins.sections {
		y = r.DrawSection(ins.x+padding, y, sd, data, contentWidth)
	}
	return ins.y + height
}

// drawPathPreview traces the recent emitter path with the current position
// on top.
func (ins *Inspector) drawPathPreview(x, y, width, height int32, data *InspectorData) int32 {
	rl.DrawRectangle(x, y, width, height, rl.Color{R: 25, G: 30, B: 35, A: 255})
	rl.DrawRectangleLinesEx(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(height)}, 1, rl.Color{R: 50, G: 60, B: 70, A: 255})

	// Normalized coordinates have their origin at the bottom-left
	toScreen := func(p [2]float32) (int32, int32) {
		return x + int32(p[0]*float32(width)), y + height - int32(p[1]*float32(height))
	}

	p := data.Params
	speed := max(math.Abs(p.PathSpeedX), math.Abs(p.PathSpeedY))
	if speed > 0 {
		const steps = 128
		span := 4 * math.Pi / speed
		t0 := data.Emitter.Time - span
		at := func(t float64) [2]float32 {
			pos, _ := p.PathAt(t)
			return pos
		}
		prevX, prevY := toScreen(at(t0))
		for i := 1; i <= steps; i++ {
			t := t0 + span*float64(i)/steps
			px, py := toScreen(at(t))
			alpha := uint8(40 + 180*i/steps)
			rl.DrawLine(prevX, prevY, px, py, rl.Color{R: 120, G: 140, B: 160, A: alpha})
			prevX, prevY = px, py
		}
	}

	cx, cy := toScreen(data.Emitter.Position)
	rl.DrawCircle(cx, cy, 4, vec3Color(data.Emitter.Color))
	rl.DrawCircleLines(cx, cy, 4, rl.White)
	return y + height
}
