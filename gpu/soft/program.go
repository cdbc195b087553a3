package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// slot holds one uniform value. Scalars and vectors share v; samplers use tex.
type slot struct {
	v   mgl32.Vec4
	tex *texture
}

// program is a compiled reference kernel with its uniform storage.
type program struct {
	label    string
	kernel   gpu.Kernel
	keys     gpu.KeywordSet
	index    map[string]gpu.Uniform
	slots    []slot
	released bool
}

func (p *program) Label() string { return p.label }

// locate returns the slot for name, allocating one on first use. Any name is
// accepted because kernels declare uniforms implicitly by reading them.
func (p *program) locate(name string) gpu.Uniform {
	if u, ok := p.index[name]; ok {
		return u
	}
	u := gpu.Uniform(len(p.slots))
	p.index[name] = u
	p.slots = append(p.slots, slot{})
	return u
}

func (p *program) slot(u gpu.Uniform) *slot {
	if u < 0 || int(u) >= len(p.slots) {
		return nil
	}
	return &p.slots[u]
}

// uniformView is the gpu.Uniforms a kernel sees for one draw.
type uniformView struct{ p *program }

func (v uniformView) value(name string) mgl32.Vec4 {
	if u, ok := v.p.index[name]; ok {
		return v.p.slots[u].v
	}
	return mgl32.Vec4{}
}

func (v uniformView) Float(name string) float32   { return v.value(name)[0] }
func (v uniformView) Vec2(name string) mgl32.Vec2 { return v.value(name).Vec2() }
func (v uniformView) Vec3(name string) mgl32.Vec3 { return v.value(name).Vec3() }
func (v uniformView) Vec4(name string) mgl32.Vec4 { return v.value(name) }
func (v uniformView) Defined(keyword string) bool { return v.p.keys.Has(keyword) }
func (v uniformView) Sampler(name string) gpu.Sampler {
	u, ok := v.p.index[name]
	if !ok || v.p.slots[u].tex == nil || v.p.slots[u].tex.released {
		return blank{}
	}
	return v.p.slots[u].tex
}
