package fluid

import (
	"github.com/pthm-cable/sonofluid/gpu"
)

// step runs the solver passes once. A pass whose program failed to compile
// is skipped, and its target is not swapped.
func (e *Engine) step(dt float32) {
	d := e.dev
	fb := &e.fb
	s := &e.settings
	none := gpu.KeywordSet{}
	texel := fb.velocity.TexelSize()

	d.SetBlend(gpu.BlendNone)

	if u := e.progs.curl.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, texel)
		fb.velocity.Read().Attach(d, u.Velocity, 0)
		d.Draw(fb.curl.Texture)
	}

	if u := e.progs.vorticity.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, texel)
		fb.velocity.Read().Attach(d, u.Velocity, 0)
		fb.curl.Attach(d, u.Curl, 1)
		d.SetFloat(u.Strength, s.Curl)
		d.SetFloat(u.DT, dt)
		d.Draw(fb.velocity.Write().Texture)
		fb.velocity.Swap()
	}

	if u := e.progs.divergence.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, texel)
		fb.velocity.Read().Attach(d, u.Velocity, 0)
		d.Draw(fb.divergence.Texture)
	}

	// Pressure is scaled, not zeroed, so the previous solution seeds the
	// relaxation. This carries pressure across ticks and is not physical.
	if u := e.progs.clear.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, texel)
		fb.pressure.Read().Attach(d, u.Texture, 0)
		d.SetFloat(u.Value, s.Pressure)
		d.Draw(fb.pressure.Write().Texture)
		fb.pressure.Swap()
	}

	if u := e.progs.pressure.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, texel)
		fb.divergence.Attach(d, u.Divergence, 0)
		for i := 0; i < s.PressureIterations; i++ {
			fb.pressure.Read().Attach(d, u.Pressure, 1)
			d.Draw(fb.pressure.Write().Texture)
			fb.pressure.Swap()
		}
	}

	if u := e.progs.gradient.Bind(none); u != nil {
		d.SetVec2(u.TexelSize, texel)
		fb.pressure.Read().Attach(d, u.Pressure, 0)
		fb.velocity.Read().Attach(d, u.Velocity, 1)
		d.Draw(fb.velocity.Write().Texture)
		fb.velocity.Swap()
	}

	if u := e.progs.advection.Bind(e.advectionKeys); u != nil {
		d.SetVec2(u.TexelSize, texel)
		d.SetVec2(u.DyeTexelSize, texel)
		vel := fb.velocity.Read()
		vel.Attach(d, u.Velocity, 0)
		vel.Attach(d, u.Source, 0)
		d.SetFloat(u.DT, dt)
		d.SetFloat(u.Dissipation, s.VelocityDissipation)
		d.Draw(fb.velocity.Write().Texture)
		fb.velocity.Swap()

		d.SetVec2(u.DyeTexelSize, fb.dye.TexelSize())
		fb.velocity.Read().Attach(d, u.Velocity, 0)
		fb.dye.Read().Attach(d, u.Source, 1)
		d.SetFloat(u.Dissipation, s.DensityDissipation)
		d.Draw(fb.dye.Write().Texture)
		fb.dye.Swap()
	}
}
