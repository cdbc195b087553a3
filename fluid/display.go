package fluid

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// render composites the dye onto target, or onto the surface when target is
// nil. Opaque output gets the background colour first; a transparent
// surface gets a checkerboard so the alpha stays visible.
func (e *Engine) render(target *gpu.RenderTarget) {
	d := e.dev
	s := &e.settings

	var tex gpu.Texture
	w, h := d.SurfaceSize()
	if target != nil {
		tex, w, h = target.Texture, target.Width, target.Height
	}
	if w < 1 || h < 1 {
		return
	}

	if target == nil || !s.Transparent {
		d.SetBlend(gpu.BlendPremultiplied)
	} else {
		d.SetBlend(gpu.BlendNone)
	}

	none := gpu.KeywordSet{}
	outTexel := mgl32.Vec2{1 / float32(w), 1 / float32(h)}
	if !s.Transparent {
		if u := e.progs.color.Bind(none); u != nil {
			d.SetVec2(u.TexelSize, outTexel)
			d.SetVec4(u.Color, s.BackColor.Vec4(1))
			d.Draw(tex)
		}
	}
	if target == nil && s.Transparent {
		if u := e.progs.checkerboard.Bind(none); u != nil {
			d.SetVec2(u.TexelSize, outTexel)
			d.SetFloat(u.AspectRatio, float32(w)/float32(h))
			d.Draw(nil)
		}
	}

	u := e.progs.display.Bind(e.displayKeys)
	if u == nil {
		return
	}
	d.SetVec2(u.TexelSize, outTexel)
	e.fb.dye.Read().Attach(d, u.Texture, 0)
	if s.Bloom.Enabled {
		e.fb.bloom.Attach(d, u.Bloom, 1)
		d.SetTexture(u.Dithering, 2, e.dither)
		dw, dh := e.dither.Size()
		d.SetVec2(u.DitherScale, mgl32.Vec2{float32(w) / float32(dw), float32(h) / float32(dh)})
	}
	if s.Sunrays.Enabled {
		e.fb.sunrays.Attach(d, u.Sunrays, 3)
	}
	d.Draw(tex)
}
