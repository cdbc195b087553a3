package gpu

import (
	"log/slog"
)

// UniformTable is a struct of uniform locations for one program. Locate is
// called once per compiled variant; per-frame code then reads the fields.
type UniformTable interface {
	Locate(lookup func(name string) Uniform)
}

// variant is one compiled keyword combination of a material.
type variant[T any] struct {
	program  Program // nil when compilation failed
	uniforms T
}

// Material compiles a ShaderSource lazily per keyword set and caches the
// result. For a given set at most one program is ever compiled, failed
// compilations included.
type Material[T any, PT interface {
	*T
	UniformTable
}] struct {
	dev      Device
	src      ShaderSource
	log      *slog.Logger
	variants map[KeywordSet]*variant[T]
	active   *variant[T]
	keys     KeywordSet
}

// NewMaterial creates a material; nothing is compiled until Bind.
func NewMaterial[T any, PT interface {
	*T
	UniformTable
}](d Device, src ShaderSource, log *slog.Logger) *Material[T, PT] {
	return &Material[T, PT]{
		dev:      d,
		src:      src,
		log:      Logger(log),
		variants: make(map[KeywordSet]*variant[T]),
	}
}

// Bind makes the variant for keys current and returns its uniform table.
// It returns nil when that variant failed to compile; the caller must skip
// the pass.
func (m *Material[T, PT]) Bind(keys KeywordSet) *T {
	if m.active == nil || keys != m.keys {
		m.active = m.variant(keys)
		m.keys = keys
	}
	if m.active.program == nil {
		return nil
	}
	m.dev.UseProgram(m.active.program)
	return &m.active.uniforms
}

// Keys is the keyword set of the most recent Bind.
func (m *Material[T, PT]) Keys() KeywordSet {
	return m.keys
}

// Variants is the number of cached keyword sets, failed ones included.
func (m *Material[T, PT]) Variants() int {
	return len(m.variants)
}

func (m *Material[T, PT]) variant(keys KeywordSet) *variant[T] {
	if v, ok := m.variants[keys]; ok {
		return v
	}
	v := &variant[T]{}
	m.variants[keys] = v

	p, err := m.dev.Compile(m.src, keys)
	if err != nil {
		m.log.Error("shader compile failed",
			"program", m.src.Name,
			"keywords", keys.String(),
			"error", err,
		)
		return v
	}
	v.program = p
	PT(&v.uniforms).Locate(func(name string) Uniform {
		return m.dev.UniformLocation(p, name)
	})
	m.log.Debug("shader compiled", "program", m.src.Name, "keywords", keys.String())
	return v
}

// Release frees every compiled variant.
func (m *Material[T, PT]) Release() {
	for k, v := range m.variants {
		if v.program != nil {
			m.dev.ReleaseProgram(v.program)
		}
		delete(m.variants, k)
	}
	m.active = nil
}
