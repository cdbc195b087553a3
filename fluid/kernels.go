package fluid

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

// CPU reference kernels. Each mirrors the fragment shader of the same name
// in shaders/, reading the same uniform names, so the software device
// produces what the GPU would.

func copyKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	return src.Sample
}

func clearKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	value := u.Float("value")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		return src.Sample(uv).Mul(value)
	}
}

func colorKernel(u gpu.Uniforms) gpu.FragmentFunc {
	c := u.Vec4("color")
	return func(mgl32.Vec2) mgl32.Vec4 { return c }
}

func checkerboardKernel(u gpu.Uniforms) gpu.FragmentFunc {
	aspect := u.Float("aspectRatio")
	const scale = 25
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		x := math.Floor(float64(uv[0] * scale * aspect))
		y := math.Floor(float64(uv[1] * scale))
		v := float32(math.Mod(x+y, 2))
		v = v*0.1 + 0.8
		return mgl32.Vec4{v, v, v, 1}
	}
}

func splatKernel(u gpu.Uniforms) gpu.FragmentFunc {
	target := u.Sampler("uTarget")
	aspect := u.Float("aspectRatio")
	color := u.Vec3("color")
	point := u.Vec2("point")
	radius := u.Float("radius")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		p := uv.Sub(point)
		p[0] *= aspect
		splat := color.Mul(float32(math.Exp(float64(-p.Dot(p) / radius))))
		base := target.Sample(uv).Vec3()
		return base.Add(splat).Vec4(1)
	}
}

// bilerp is the in-shader bilinear filter used when hardware filtering is
// unavailable; it samples texel centres only.
func bilerp(s gpu.Sampler, uv, tsize mgl32.Vec2) mgl32.Vec4 {
	st := mgl32.Vec2{uv[0]/tsize[0] - 0.5, uv[1]/tsize[1] - 0.5}
	ix, iy := float32(math.Floor(float64(st[0]))), float32(math.Floor(float64(st[1])))
	fx, fy := st[0]-ix, st[1]-iy

	at := func(ox, oy float32) mgl32.Vec4 {
		return s.Sample(mgl32.Vec2{(ix + ox) * tsize[0], (iy + oy) * tsize[1]})
	}
	a := at(0.5, 0.5)
	b := at(1.5, 0.5)
	c := at(0.5, 1.5)
	d := at(1.5, 1.5)
	return gpu.Mix(gpu.Mix(a, b, fx), gpu.Mix(c, d, fx), fy)
}

func advectionKernel(u gpu.Uniforms) gpu.FragmentFunc {
	velocity := u.Sampler("uVelocity")
	source := u.Sampler("uSource")
	texel := u.Vec2("texelSize")
	dyeTexel := u.Vec2("dyeTexelSize")
	dt := u.Float("dt")
	decay := 1 + u.Float("dissipation")*dt
	manual := u.Defined(KeywordManualFiltering)

	return func(uv mgl32.Vec2) mgl32.Vec4 {
		var result mgl32.Vec4
		if manual {
			v := bilerp(velocity, uv, texel).Vec2()
			coord := uv.Sub(mgl32.Vec2{v[0] * texel[0], v[1] * texel[1]}.Mul(dt))
			result = bilerp(source, coord, dyeTexel)
		} else {
			v := velocity.Sample(uv).Vec2()
			coord := uv.Sub(mgl32.Vec2{v[0] * texel[0], v[1] * texel[1]}.Mul(dt))
			result = source.Sample(coord)
		}
		return result.Mul(1 / decay)
	}
}

func divergenceKernel(u gpu.Uniforms) gpu.FragmentFunc {
	velocity := u.Sampler("uVelocity")
	texel := u.Vec2("texelSize")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		vL, vR, vT, vB := gpu.Neighbors(uv, texel)
		l := velocity.Sample(vL)[0]
		r := velocity.Sample(vR)[0]
		t := velocity.Sample(vT)[1]
		b := velocity.Sample(vB)[1]

		c := velocity.Sample(uv)
		if vL[0] < 0 {
			l = -c[0]
		}
		if vR[0] > 1 {
			r = -c[0]
		}
		if vT[1] > 1 {
			t = -c[1]
		}
		if vB[1] < 0 {
			b = -c[1]
		}
		return mgl32.Vec4{0.5 * (r - l + t - b), 0, 0, 1}
	}
}

func curlKernel(u gpu.Uniforms) gpu.FragmentFunc {
	velocity := u.Sampler("uVelocity")
	texel := u.Vec2("texelSize")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		vL, vR, vT, vB := gpu.Neighbors(uv, texel)
		l := velocity.Sample(vL)[1]
		r := velocity.Sample(vR)[1]
		t := velocity.Sample(vT)[0]
		b := velocity.Sample(vB)[0]
		return mgl32.Vec4{0.5 * (r - l - t + b), 0, 0, 1}
	}
}

// maxVelocity bounds each velocity component after vorticity confinement.
const maxVelocity = 1000

func vorticityKernel(u gpu.Uniforms) gpu.FragmentFunc {
	velocity := u.Sampler("uVelocity")
	curlField := u.Sampler("uCurl")
	texel := u.Vec2("texelSize")
	strength := u.Float("curl")
	dt := u.Float("dt")
	abs := func(x float32) float32 { return float32(math.Abs(float64(x))) }

	return func(uv mgl32.Vec2) mgl32.Vec4 {
		vL, vR, vT, vB := gpu.Neighbors(uv, texel)
		l := curlField.Sample(vL)[0]
		r := curlField.Sample(vR)[0]
		t := curlField.Sample(vT)[0]
		b := curlField.Sample(vB)[0]
		c := curlField.Sample(uv)[0]

		force := mgl32.Vec2{abs(t) - abs(b), abs(r) - abs(l)}.Mul(0.5)
		force = force.Mul(1 / (force.Len() + 0.0001))
		force = force.Mul(strength * c)
		force[1] = -force[1]

		v := velocity.Sample(uv).Vec2().Add(force.Mul(dt))
		v[0] = gpu.Clamp(v[0], -maxVelocity, maxVelocity)
		v[1] = gpu.Clamp(v[1], -maxVelocity, maxVelocity)
		return mgl32.Vec4{v[0], v[1], 0, 1}
	}
}

func pressureKernel(u gpu.Uniforms) gpu.FragmentFunc {
	pressure := u.Sampler("uPressure")
	divergence := u.Sampler("uDivergence")
	texel := u.Vec2("texelSize")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		vL, vR, vT, vB := gpu.Neighbors(uv, texel)
		l := pressure.Sample(vL)[0]
		r := pressure.Sample(vR)[0]
		t := pressure.Sample(vT)[0]
		b := pressure.Sample(vB)[0]
		div := divergence.Sample(uv)[0]
		return mgl32.Vec4{(l + r + b + t - div) * 0.25, 0, 0, 1}
	}
}

func gradientSubtractKernel(u gpu.Uniforms) gpu.FragmentFunc {
	pressure := u.Sampler("uPressure")
	velocity := u.Sampler("uVelocity")
	texel := u.Vec2("texelSize")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		vL, vR, vT, vB := gpu.Neighbors(uv, texel)
		l := pressure.Sample(vL)[0]
		r := pressure.Sample(vR)[0]
		t := pressure.Sample(vT)[0]
		b := pressure.Sample(vB)[0]
		v := velocity.Sample(uv).Vec2().Sub(mgl32.Vec2{r - l, t - b})
		return mgl32.Vec4{v[0], v[1], 0, 1}
	}
}

func brightness(c mgl32.Vec3) float32 {
	return max(c[0], c[1], c[2])
}

func bloomPrefilterKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	curve := u.Vec3("curve")
	threshold := u.Float("threshold")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		c := src.Sample(uv).Vec3()
		br := brightness(c)
		rq := gpu.Clamp(br-curve[0], 0, curve[1])
		rq = curve[2] * rq * rq
		c = c.Mul(max(rq, br-threshold) / max(br, 0.0001))
		return c.Vec4(0)
	}
}

// fourTap averages the four neighbour samples.
func fourTap(src gpu.Sampler, uv, texel mgl32.Vec2) mgl32.Vec4 {
	vL, vR, vT, vB := gpu.Neighbors(uv, texel)
	sum := src.Sample(vL).Add(src.Sample(vR)).Add(src.Sample(vT)).Add(src.Sample(vB))
	return sum.Mul(0.25)
}

func bloomBlurKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	texel := u.Vec2("texelSize")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		return fourTap(src, uv, texel)
	}
}

func bloomFinalKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	texel := u.Vec2("texelSize")
	intensity := u.Float("intensity")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		return fourTap(src, uv, texel).Mul(intensity)
	}
}

func sunraysMaskKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		c := src.Sample(uv)
		br := brightness(c.Vec3())
		c[3] = 1 - min(max(br*20, 0), 0.8)
		return c
	}
}

// Light shaft march constants.
const (
	sunraysIterations = 16
	sunraysDensity    = 0.3
	sunraysDecay      = 0.95
	sunraysExposure   = 0.7
)

func sunraysKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	weight := u.Float("weight")
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		coord := uv
		dir := uv.Sub(mgl32.Vec2{0.5, 0.5}).Mul(1.0 / sunraysIterations * sunraysDensity)
		decay := float32(1)
		color := src.Sample(uv)[3]
		for i := 0; i < sunraysIterations; i++ {
			coord = coord.Sub(dir)
			color += src.Sample(coord)[3] * decay * weight
			decay *= sunraysDecay
		}
		return mgl32.Vec4{color * sunraysExposure, 0, 0, 1}
	}
}

// Separable blur taps: a 5-tap Gaussian folded into 3 linear samples.
const (
	blurCentreWeight = 0.29411764
	blurSideWeight   = 0.35294117
	blurOffset       = 1.33333333
)

func blurKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	step := u.Vec2("texelSize").Mul(blurOffset)
	return func(uv mgl32.Vec2) mgl32.Vec4 {
		sum := src.Sample(uv).Mul(blurCentreWeight)
		sum = sum.Add(src.Sample(uv.Sub(step)).Mul(blurSideWeight))
		sum = sum.Add(src.Sample(uv.Add(step)).Mul(blurSideWeight))
		return sum
	}
}

func linearToGamma(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		v := math.Max(float64(c[i]), 0)
		c[i] = float32(math.Max(1.055*math.Pow(v, 0.416666667)-0.055, 0))
	}
	return c
}

func displayKernel(u gpu.Uniforms) gpu.FragmentFunc {
	src := u.Sampler("uTexture")
	bloomTex := u.Sampler("uBloom")
	sunraysTex := u.Sampler("uSunrays")
	dither := u.Sampler("uDithering")
	ditherScale := u.Vec2("ditherScale")
	texel := u.Vec2("texelSize")
	shading := u.Defined(KeywordShading)
	bloom := u.Defined(KeywordBloom)
	sunrays := u.Defined(KeywordSunrays)

	return func(uv mgl32.Vec2) mgl32.Vec4 {
		c := src.Sample(uv).Vec3()

		if shading {
			vL, vR, vT, vB := gpu.Neighbors(uv, texel)
			dx := src.Sample(vR).Vec3().Len() - src.Sample(vL).Vec3().Len()
			dy := src.Sample(vT).Vec3().Len() - src.Sample(vB).Vec3().Len()
			n := mgl32.Vec3{dx, dy, texel.Len()}.Normalize()
			diffuse := gpu.Clamp(n[2]+0.7, 0.7, 1.0)
			c = c.Mul(diffuse)
		}

		var b mgl32.Vec3
		if bloom {
			b = bloomTex.Sample(uv).Vec3()
		}
		if sunrays {
			s := sunraysTex.Sample(uv)[0]
			c = c.Mul(s)
			b = b.Mul(s)
		}
		if bloom {
			noise := dither.Sample(mgl32.Vec2{uv[0] * ditherScale[0], uv[1] * ditherScale[1]})[0]
			noise = noise*2 - 1
			b = b.Add(mgl32.Vec3{1, 1, 1}.Mul(noise / 255))
			c = c.Add(linearToGamma(b))
		}

		return c.Vec4(brightness(c))
	}
}
