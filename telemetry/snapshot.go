package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pthm-cable/sonofluid/emitter"
	"github.com/pthm-cable/sonofluid/gpu"
)

// CaptureVersion is incremented when the sidecar format changes.
const CaptureVersion = 1

// CaptureMeta describes the moment a frame capture was taken.
type CaptureMeta struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Tick    int32 `json:"tick"`
	Splats  int   `json:"splats"`

	SurfaceWidth  int `json:"surface_width"`
	SurfaceHeight int `json:"surface_height"`
	Resolution    int `json:"resolution"`

	Capabilities CapabilitiesJSON `json:"capabilities"`
	Emitter      EmitterJSON      `json:"emitter"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// CapabilitiesJSON is the JSON form of gpu.Capabilities.
type CapabilitiesJSON struct {
	Precision    string `json:"precision"`
	LinearFilter bool   `json:"linear_filter"`
	RGBA         string `json:"rgba"`
	RG           string `json:"rg"`
	R            string `json:"r"`
}

// EmitterJSON is the JSON form of emitter.State.
type EmitterJSON struct {
	X       float32    `json:"x"`
	Y       float32    `json:"y"`
	Heading float32    `json:"heading"`
	Color   [3]float32 `json:"color"`
	Time    float64    `json:"time"`
}

// CapabilitiesToJSON converts negotiated capabilities.
func CapabilitiesToJSON(c gpu.Capabilities) CapabilitiesJSON {
	name := func(f *gpu.PixelFormat) string {
		if f == nil {
			return ""
		}
		return f.String()
	}
	return CapabilitiesJSON{
		Precision:    c.Precision.String(),
		LinearFilter: c.LinearFilter,
		RGBA:         name(c.RGBA),
		RG:           name(c.RG),
		R:            name(c.R),
	}
}

// EmitterToJSON converts an emitter state.
func EmitterToJSON(s emitter.State) EmitterJSON {
	return EmitterJSON{
		X:       s.Position[0],
		Y:       s.Position[1],
		Heading: s.Heading,
		Color:   [3]float32(s.Color),
		Time:    s.Time,
	}
}

// fileBase is the capture file name without extension.
func (m CaptureMeta) fileBase() string {
	name := fmt.Sprintf("capture_%08d", m.Tick)
	if m.Bookmark != nil {
		name += "_" + strings.ReplaceAll(string(m.Bookmark.Type), " ", "_")
	}
	return name
}

// Save writes the sidecar as indented JSON.
func (m CaptureMeta) Save(path string) error {
	m.Version = CaptureVersion
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal capture meta: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write capture meta: %w", err)
	}
	return nil
}

// LoadCaptureMeta reads a sidecar from disk.
func LoadCaptureMeta(path string) (*CaptureMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture meta: %w", err)
	}

	var m CaptureMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal capture meta: %w", err)
	}
	if m.Version != CaptureVersion {
		return nil, fmt.Errorf("capture meta version %d, want %d", m.Version, CaptureVersion)
	}
	return &m, nil
}
