package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderTarget owns one renderable texture.
type RenderTarget struct {
	Texture    Texture
	Width      int
	Height     int
	TexelSizeX float32
	TexelSizeY float32
	Format     PixelFormat
	Filter     Filter
}

// NewRenderTarget allocates a target cleared to transparent black.
func NewRenderTarget(d Device, w, h int, f PixelFormat, filter Filter) (*RenderTarget, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("gpu: render target size %dx%d", w, h)
	}
	tex, err := d.NewTarget(w, h, f, filter)
	if err != nil {
		return nil, fmt.Errorf("creating %dx%d %s target: %w", w, h, f, err)
	}
	return &RenderTarget{
		Texture:    tex,
		Width:      w,
		Height:     h,
		TexelSizeX: 1 / float32(w),
		TexelSizeY: 1 / float32(h),
		Format:     f,
		Filter:     filter,
	}, nil
}

// TexelSize returns (1/width, 1/height).
func (t *RenderTarget) TexelSize() mgl32.Vec2 {
	return mgl32.Vec2{t.TexelSizeX, t.TexelSizeY}
}

// Attach binds the target's texture to unit and points sampler u at it.
func (t *RenderTarget) Attach(d Device, u Uniform, unit int) {
	d.SetTexture(u, unit, t.Texture)
}

// Release frees the texture. Safe on nil.
func (t *RenderTarget) Release(d Device) {
	if t == nil || t.Texture == nil {
		return
	}
	d.Release(t.Texture)
	t.Texture = nil
}

// DoubleRenderTarget is a read/write pair of identically shaped targets.
// Passes read from Read and draw into Write, then Swap.
type DoubleRenderTarget struct {
	read  *RenderTarget
	write *RenderTarget
}

// NewDoubleRenderTarget allocates both halves.
func NewDoubleRenderTarget(d Device, w, h int, f PixelFormat, filter Filter) (*DoubleRenderTarget, error) {
	read, err := NewRenderTarget(d, w, h, f, filter)
	if err != nil {
		return nil, err
	}
	write, err := NewRenderTarget(d, w, h, f, filter)
	if err != nil {
		read.Release(d)
		return nil, err
	}
	return &DoubleRenderTarget{read: read, write: write}, nil
}

func (t *DoubleRenderTarget) Read() *RenderTarget  { return t.read }
func (t *DoubleRenderTarget) Write() *RenderTarget { return t.write }

// Swap exchanges the roles of the two halves.
func (t *DoubleRenderTarget) Swap() {
	t.read, t.write = t.write, t.read
}

func (t *DoubleRenderTarget) Width() int            { return t.read.Width }
func (t *DoubleRenderTarget) Height() int           { return t.read.Height }
func (t *DoubleRenderTarget) TexelSize() mgl32.Vec2 { return t.read.TexelSize() }

// Release frees both halves. Safe on nil.
func (t *DoubleRenderTarget) Release(d Device) {
	if t == nil {
		return
	}
	t.read.Release(d)
	t.write.Release(d)
}

// Copier blits src into dst through a copy program.
type Copier interface {
	Copy(src, dst *RenderTarget)
}

// ResizeDouble returns t unchanged when the size already matches. Otherwise
// the read half is replaced by a new target holding a resampled copy of the
// old read contents, and the write half by a fresh empty target. The
// returned pair is t itself, updated in place.
func ResizeDouble(d Device, t *DoubleRenderTarget, w, h int, c Copier) (*DoubleRenderTarget, error) {
	if t.Width() == w && t.Height() == h {
		return t, nil
	}
	old := t.read
	read, err := NewRenderTarget(d, w, h, old.Format, old.Filter)
	if err != nil {
		return nil, err
	}
	c.Copy(old, read)

	write, err := NewRenderTarget(d, w, h, old.Format, old.Filter)
	if err != nil {
		read.Release(d)
		return nil, err
	}
	t.read.Release(d)
	t.write.Release(d)
	t.read, t.write = read, write
	return t, nil
}
