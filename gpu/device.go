// Package gpu is the narrow graphics layer the fluid engine is written against.
//
// A Device exposes render-to-texture targets, fullscreen-quad draws, program
// compilation and uniform upload. Two devices implement it: gpu/opengl drives
// an OpenGL 3.3 core context, gpu/soft runs each program's CPU reference kernel.
// Everything above the device (capability negotiation, render targets, the
// program cache) is shared between them.
package gpu

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnsupportedFormat is returned when a device cannot render to a format.
	ErrUnsupportedFormat = errors.New("gpu: unsupported render format")
	// ErrCompile is wrapped by program compile and link failures.
	ErrCompile = errors.New("gpu: program compilation failed")
	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpu: resource released")
)

// Texture is a device texture. Textures created with NewTarget can be drawn to.
type Texture interface {
	Size() (w, h int)
	Format() PixelFormat
}

// Program is a compiled and linked shader program.
type Program interface {
	Label() string
}

// Uniform is a uniform location within the currently used program.
type Uniform int32

// NoUniform marks a uniform the program does not declare (or optimized away).
// Setting it is a no-op.
const NoUniform Uniform = -1

// ShaderSource is one program: GLSL for hardware devices plus the CPU
// reference kernel the software device runs instead.
type ShaderSource struct {
	Name      string
	Vertex    string // GLSL body without #version
	Fragment  string // GLSL body without #version or #define lines
	Reference Kernel
}

// Device is a graphics context. All methods must be called from the thread
// that owns the context.
type Device interface {
	// SupportsRenderFormat allocates a tiny target of format f, checks it is
	// renderable and discards it.
	SupportsRenderFormat(f PixelFormat) bool
	// SupportsLinearFilter reports whether textures of precision p can be
	// sampled with FilterLinear.
	SupportsLinearFilter(p Precision) bool

	// NewTarget allocates a renderable texture cleared to transparent black.
	NewTarget(w, h int, f PixelFormat, filter Filter) (Texture, error)
	// NewTexture uploads an 8-bit RGBA image as a sampled-only texture.
	NewTexture(img *image.RGBA, filter Filter, wrap Wrap) (Texture, error)
	Release(t Texture)

	// Compile builds src with every keyword in keys defined.
	Compile(src ShaderSource, keys KeywordSet) (Program, error)
	ReleaseProgram(p Program)
	// UseProgram makes p current; repeated calls with the current program
	// are free.
	UseProgram(p Program)
	UniformLocation(p Program, name string) Uniform

	SetFloat(u Uniform, v float32)
	SetVec2(u Uniform, v mgl32.Vec2)
	SetVec3(u Uniform, v mgl32.Vec3)
	SetVec4(u Uniform, v mgl32.Vec4)
	// SetTexture binds t to texture unit and points sampler u at it.
	SetTexture(u Uniform, unit int, t Texture)

	SetBlend(mode BlendMode)
	// Draw runs the current program over every texel of target. A nil
	// target draws to the visible surface.
	Draw(target Texture)
	// Clear fills target (nil = surface) with transparent black.
	Clear(target Texture)

	// SurfaceSize is the drawable size of the visible surface in pixels.
	SurfaceSize() (w, h int)
	// ReadPixels returns RGBA float texels of target (nil = surface),
	// bottom row first. Never called during a tick.
	ReadPixels(target Texture) ([]float32, error)
}
