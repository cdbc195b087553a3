package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sonofluid/fluid"
)

// ToggleID uniquely identifies a feature toggle.
type ToggleID string

// Standard toggle IDs.
const (
	ToggleShading     ToggleID = "shading"
	ToggleBloom       ToggleID = "bloom"
	ToggleSunrays     ToggleID = "sunrays"
	ToggleColorful    ToggleID = "colorful"
	ToggleTransparent ToggleID = "transparent"
	TogglePaused      ToggleID = "paused"
	ToggleInspector   ToggleID = "inspector"
	TogglePerf        ToggleID = "perf"
	ToggleTuning      ToggleID = "tuning"
)

// ToggleDescriptor defines a boolean feature that can be switched.
type ToggleDescriptor struct {
	ID          ToggleID
	Name        string
	Description string
	Key         int32  // 0 = no key
	KeyLabel    string // e.g. "B"
	Category    string // "display", "sim" or "panels"
	Exclusive   []ToggleID

	// Get and Set bind the toggle to engine settings; nil for host-only
	// toggles such as panels.
	Get func(s *fluid.Settings) bool
	Set func(s *fluid.Settings, on bool)
}

// ToggleRegistry manages toggle state and metadata.
type ToggleRegistry struct {
	descriptors []ToggleDescriptor
	byID        map[ToggleID]ToggleDescriptor
	enabled     map[ToggleID]bool
	order       []ToggleID
}

// NewToggleRegistry creates a registry with the default toggles, all off.
// Call Sync to load engine-backed state.
func NewToggleRegistry() *ToggleRegistry {
	reg := &ToggleRegistry{
		byID:    make(map[ToggleID]ToggleDescriptor),
		enabled: make(map[ToggleID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *ToggleRegistry) registerDefaults() {
	r.Register(ToggleDescriptor{
		ID:          ToggleShading,
		Name:        "Shading",
		Description: "Light the dye by its gradient",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "display",
		Get:         func(s *fluid.Settings) bool { return s.Shading },
		Set:         func(s *fluid.Settings, on bool) { s.Shading = on },
	})

	r.Register(ToggleDescriptor{
		ID:          ToggleBloom,
		Name:        "Bloom",
		Description: "Glow around bright dye",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "display",
		Get:         func(s *fluid.Settings) bool { return s.Bloom.Enabled },
		Set:         func(s *fluid.Settings, on bool) { s.Bloom.Enabled = on },
	})

	r.Register(ToggleDescriptor{
		ID:          ToggleSunrays,
		Name:        "Sunrays",
		Description: "Light shafts from the centre",
		Key:         rl.KeyR,
		KeyLabel:    "R",
		Category:    "display",
		Get:         func(s *fluid.Settings) bool { return s.Sunrays.Enabled },
		Set:         func(s *fluid.Settings, on bool) { s.Sunrays.Enabled = on },
	})

	r.Register(ToggleDescriptor{
		ID:          ToggleTransparent,
		Name:        "Transparent",
		Description: "Show the checkerboard behind the dye",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "display",
		Get:         func(s *fluid.Settings) bool { return s.Transparent },
		Set:         func(s *fluid.Settings, on bool) { s.Transparent = on },
	})

	r.Register(ToggleDescriptor{
		ID:          ToggleColorful,
		Name:        "Colorful",
		Description: "Hue from pitch; off emits grey",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "sim",
		Get:         func(s *fluid.Settings) bool { return s.Emitter.Colorful },
		Set: func(s *fluid.Settings, on bool) {
			s.Colorful = on
			s.Emitter.Colorful = on
		},
	})

	r.Register(ToggleDescriptor{
		ID:          TogglePaused,
		Name:        "Paused",
		Description: "Freeze the simulation, keep compositing",
		Key:         rl.KeySpace,
		KeyLabel:    "Space",
		Category:    "sim",
		Get:         func(s *fluid.Settings) bool { return s.Paused },
		Set:         func(s *fluid.Settings, on bool) { s.Paused = on },
	})

	r.Register(ToggleDescriptor{
		ID:          ToggleInspector,
		Name:        "Inspector",
		Description: "Audio and emitter panel",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "panels",
	})

	r.Register(ToggleDescriptor{
		ID:          TogglePerf,
		Name:        "Perf",
		Description: "Tick phase timings",
		Key:         rl.KeyF3,
		KeyLabel:    "F3",
		Category:    "panels",
	})

	r.Register(ToggleDescriptor{
		ID:          ToggleTuning,
		Name:        "Tuning",
		Description: "Parameter sliders",
		Key:         rl.KeyTab,
		KeyLabel:    "Tab",
		Category:    "panels",
		Exclusive:   []ToggleID{ToggleInspector},
	})
}

// Register adds a toggle to the registry.
func (r *ToggleRegistry) Register(desc ToggleDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = false
}

// Toggle switches a toggle on/off and handles exclusivity.
func (r *ToggleRegistry) Toggle(id ToggleID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets a toggle's state.
func (r *ToggleRegistry) SetEnabled(id ToggleID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive toggles
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether a toggle is on.
func (r *ToggleRegistry) IsEnabled(id ToggleID) bool {
	return r.enabled[id]
}

// Get returns a toggle descriptor by ID.
func (r *ToggleRegistry) Get(id ToggleID) (ToggleDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// All returns all registered toggles in registration order.
func (r *ToggleRegistry) All() []ToggleDescriptor {
	return r.descriptors
}

// ByCategory returns toggles filtered by category.
func (r *ToggleRegistry) ByCategory(category string) []ToggleDescriptor {
	var result []ToggleDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *ToggleRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to a toggle.
// Returns the toggle ID and new state if a toggle occurred.
func (r *ToggleRegistry) HandleKeyPress(key int32) (ToggleID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// Sync loads engine-backed toggle state from s.
func (r *ToggleRegistry) Sync(s fluid.Settings) {
	for _, desc := range r.descriptors {
		if desc.Get != nil {
			r.enabled[desc.ID] = desc.Get(&s)
		}
	}
}

// Apply writes engine-backed toggle state into s and reports whether
// anything changed.
func (r *ToggleRegistry) Apply(s *fluid.Settings) bool {
	changed := false
	for _, desc := range r.descriptors {
		if desc.Get == nil || desc.Set == nil {
			continue
		}
		if on := r.enabled[desc.ID]; desc.Get(s) != on {
			desc.Set(s, on)
			changed = true
		}
	}
	return changed
}

// EnabledToggles returns the IDs of toggles that are on.
func (r *ToggleRegistry) EnabledToggles() []ToggleID {
	var result []ToggleID
	for _, id := range r.order {
		if r.enabled[id] {
			result = append(result, id)
		}
	}
	return result
}
