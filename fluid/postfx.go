package fluid

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// BloomCurve returns the soft-knee prefilter curve for a threshold:
// (threshold - knee, 2*knee, 0.25/knee) with knee = threshold*softKnee + 1e-4.
func BloomCurve(threshold, softKnee float32) mgl32.Vec3 {
	knee := threshold*softKnee + 0.0001
	return mgl32.Vec3{threshold - knee, knee * 2, 0.25 / knee}
}

// applyBloom thresholds source, blurs it down the mip chain, adds it back
// up, and writes the result scaled by intensity into dest. With fewer than
// two mip levels there is nothing to blur and dest is left as is.
func (e *Engine) applyBloom(source, dest *gpu.RenderTarget) {
	mips := e.fb.bloomMips
	if len(mips) < 2 {
		return
	}
	d := e.dev
	b := e.settings.Bloom
	none := gpu.KeywordSet{}
	last := dest

	d.SetBlend(gpu.BlendNone)
	if u := e.progs.prefilter.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, last.TexelSize())
		d.SetVec3(u.Curve, BloomCurve(b.Threshold, b.SoftKnee))
		d.SetFloat(u.Threshold, b.Threshold)
		source.Attach(d, u.Texture, 0)
		d.Draw(last.Texture)
	}

	u := e.progs.bloomBlur.Bind(none)
	if u == nil {
		return
	}
	for _, m := range mips {
		d.SetVec2(u.TexelSize, last.TexelSize())
		last.Attach(d, u.Texture, 0)
		d.Draw(m.Texture)
		last = m
	}

	d.SetBlend(gpu.BlendAdditive)
	for i := len(mips) - 2; i >= 0; i-- {
		base := mips[i]
		d.SetVec2(u.TexelSize, last.TexelSize())
		last.Attach(d, u.Texture, 0)
		d.Draw(base.Texture)
		last = base
	}

	d.SetBlend(gpu.BlendNone)
	if f := e.progs.bloomFinal.Bind(none); f != nil {
		d.SetVec2(f.TexelSize, last.TexelSize())
		d.SetFloat(f.Intensity, b.Intensity)
		last.Attach(d, f.Texture, 0)
		d.Draw(dest.Texture)
	}
}

// applySunrays masks bright regions of source into mask's alpha, then
// marches toward the centre writing the shaft intensity into dest.
func (e *Engine) applySunrays(source, mask, dest *gpu.RenderTarget) {
	d := e.dev
	none := gpu.KeywordSet{}
	d.SetBlend(gpu.BlendNone)

	if u := e.progs.sunraysMask.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, mask.TexelSize())
		source.Attach(d, u.Texture, 0)
		d.Draw(mask.Texture)
	}
	if u := e.progs.sunrays.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, dest.TexelSize())
		d.SetFloat(u.Weight, e.settings.Sunrays.Weight)
		mask.Attach(d, u.Texture, 0)
		d.Draw(dest.Texture)
	}
}

// blur runs iterations of the separable blur on target: horizontal into
// temp, then vertical back into target.
func (e *Engine) blur(target, temp *gpu.RenderTarget, iterations int) {
	u := e.progs.blur.Bind(gpu.KeywordSet{})
	if u == nil {
		return
	}
	d := e.dev
	d.SetBlend(gpu.BlendNone)
	for i := 0; i < iterations; i++ {
		d.SetVec2(u.TexelSize, mgl32.Vec2{target.TexelSizeX, 0})
		target.Attach(d, u.Texture, 0)
		d.Draw(temp.Texture)

		d.SetVec2(u.TexelSize, mgl32.Vec2{0, target.TexelSizeY})
		temp.Attach(d, u.Texture, 0)
		d.Draw(target.Texture)
	}
}
