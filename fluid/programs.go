package fluid

import (
	"embed"
	"log/slog"

	"github.com/pthm-cable/sonofluid/gpu"
)

//go:embed shaders/*.vert shaders/*.frag
var shaderFS embed.FS

// Preprocessor keywords.
const (
	KeywordManualFiltering = "MANUAL_FILTERING"
	KeywordShading         = "SHADING"
	KeywordBloom           = "BLOOM"
	KeywordSunrays         = "SUNRAYS"
)

func shaderText(name string) string {
	b, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		panic("fluid: missing embedded shader " + name)
	}
	return string(b)
}

func source(name, vertex, fragment string, k gpu.Kernel) gpu.ShaderSource {
	return gpu.ShaderSource{
		Name:      name,
		Vertex:    shaderText(vertex),
		Fragment:  shaderText(fragment),
		Reference: k,
	}
}

// Uniform tables, one per program. Locate runs once per compiled variant.

type copyUniforms struct {
	TexelSize, Texture gpu.Uniform
}

func (u *copyUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Texture = at("texelSize"), at("uTexture")
}

type clearUniforms struct {
	TexelSize, Texture, Value gpu.Uniform
}

func (u *clearUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Texture, u.Value = at("texelSize"), at("uTexture"), at("value")
}

type colorUniforms struct {
	TexelSize, Color gpu.Uniform
}

func (u *colorUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Color = at("texelSize"), at("color")
}

type checkerboardUniforms struct {
	TexelSize, AspectRatio gpu.Uniform
}

func (u *checkerboardUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.AspectRatio = at("texelSize"), at("aspectRatio")
}

type splatUniforms struct {
	TexelSize, Target, AspectRatio, Color, Point, Radius gpu.Uniform
}

func (u *splatUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize = at("texelSize")
	u.Target = at("uTarget")
	u.AspectRatio = at("aspectRatio")
	u.Color = at("color")
	u.Point = at("point")
	u.Radius = at("radius")
}

type advectionUniforms struct {
	TexelSize, DyeTexelSize, Velocity, Source, DT, Dissipation gpu.Uniform
}

func (u *advectionUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize = at("texelSize")
	u.DyeTexelSize = at("dyeTexelSize")
	u.Velocity = at("uVelocity")
	u.Source = at("uSource")
	u.DT = at("dt")
	u.Dissipation = at("dissipation")
}

type velocityUniforms struct {
	TexelSize, Velocity gpu.Uniform
}

func (u *velocityUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Velocity = at("texelSize"), at("uVelocity")
}

type vorticityUniforms struct {
	TexelSize, Velocity, Curl, Strength, DT gpu.Uniform
}

func (u *vorticityUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize = at("texelSize")
	u.Velocity = at("uVelocity")
	u.Curl = at("uCurl")
	u.Strength = at("curl")
	u.DT = at("dt")
}

type pressureUniforms struct {
	TexelSize, Pressure, Divergence gpu.Uniform
}

func (u *pressureUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Pressure, u.Divergence = at("texelSize"), at("uPressure"), at("uDivergence")
}

type gradientUniforms struct {
	TexelSize, Pressure, Velocity gpu.Uniform
}

func (u *gradientUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Pressure, u.Velocity = at("texelSize"), at("uPressure"), at("uVelocity")
}

type prefilterUniforms struct {
	TexelSize, Texture, Curve, Threshold gpu.Uniform
}

func (u *prefilterUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize = at("texelSize")
	u.Texture = at("uTexture")
	u.Curve = at("curve")
	u.Threshold = at("threshold")
}

type bloomFinalUniforms struct {
	TexelSize, Texture, Intensity gpu.Uniform
}

func (u *bloomFinalUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Texture, u.Intensity = at("texelSize"), at("uTexture"), at("intensity")
}

type sunraysUniforms struct {
	TexelSize, Texture, Weight gpu.Uniform
}

func (u *sunraysUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize, u.Texture, u.Weight = at("texelSize"), at("uTexture"), at("weight")
}

type displayUniforms struct {
	TexelSize, Texture, Bloom, Sunrays, Dithering, DitherScale gpu.Uniform
}

func (u *displayUniforms) Locate(at func(string) gpu.Uniform) {
	u.TexelSize = at("texelSize")
	u.Texture = at("uTexture")
	u.Bloom = at("uBloom")
	u.Sunrays = at("uSunrays")
	u.Dithering = at("uDithering")
	u.DitherScale = at("ditherScale")
}

// programs holds one Material per shader. Variants compile on first Bind.
type programs struct {
	copy         *gpu.Material[copyUniforms, *copyUniforms]
	clear        *gpu.Material[clearUniforms, *clearUniforms]
	color        *gpu.Material[colorUniforms, *colorUniforms]
	checkerboard *gpu.Material[checkerboardUniforms, *checkerboardUniforms]
	splat        *gpu.Material[splatUniforms, *splatUniforms]
	advection    *gpu.Material[advectionUniforms, *advectionUniforms]
	divergence   *gpu.Material[velocityUniforms, *velocityUniforms]
	curl         *gpu.Material[velocityUniforms, *velocityUniforms]
	vorticity    *gpu.Material[vorticityUniforms, *vorticityUniforms]
	pressure     *gpu.Material[pressureUniforms, *pressureUniforms]
	gradient     *gpu.Material[gradientUniforms, *gradientUniforms]
	prefilter    *gpu.Material[prefilterUniforms, *prefilterUniforms]
	bloomBlur    *gpu.Material[copyUniforms, *copyUniforms]
	bloomFinal   *gpu.Material[bloomFinalUniforms, *bloomFinalUniforms]
	sunraysMask  *gpu.Material[copyUniforms, *copyUniforms]
	sunrays      *gpu.Material[sunraysUniforms, *sunraysUniforms]
	blur         *gpu.Material[copyUniforms, *copyUniforms]
	display      *gpu.Material[displayUniforms, *displayUniforms]
}

const (
	baseVert = "base.vert"
	blurVert = "blur.vert"
)

func newPrograms(d gpu.Device, log *slog.Logger) *programs {
	return &programs{
		copy:         gpu.NewMaterial[copyUniforms](d, source("copy", baseVert, "copy.frag", copyKernel), log),
		clear:        gpu.NewMaterial[clearUniforms](d, source("clear", baseVert, "clear.frag", clearKernel), log),
		color:        gpu.NewMaterial[colorUniforms](d, source("color", baseVert, "color.frag", colorKernel), log),
		checkerboard: gpu.NewMaterial[checkerboardUniforms](d, source("checkerboard", baseVert, "checkerboard.frag", checkerboardKernel), log),
		splat:        gpu.NewMaterial[splatUniforms](d, source("splat", baseVert, "splat.frag", splatKernel), log),
		advection:    gpu.NewMaterial[advectionUniforms](d, source("advection", baseVert, "advection.frag", advectionKernel), log),
		divergence:   gpu.NewMaterial[velocityUniforms](d, source("divergence", baseVert, "divergence.frag", divergenceKernel), log),
		curl:         gpu.NewMaterial[velocityUniforms](d, source("curl", baseVert, "curl.frag", curlKernel), log),
		vorticity:    gpu.NewMaterial[vorticityUniforms](d, source("vorticity", baseVert, "vorticity.frag", vorticityKernel), log),
		pressure:     gpu.NewMaterial[pressureUniforms](d, source("pressure", baseVert, "pressure.frag", pressureKernel), log),
		gradient:     gpu.NewMaterial[gradientUniforms](d, source("gradientSubtract", baseVert, "gradient_subtract.frag", gradientSubtractKernel), log),
		prefilter:    gpu.NewMaterial[prefilterUniforms](d, source("bloomPrefilter", baseVert, "bloom_prefilter.frag", bloomPrefilterKernel), log),
		bloomBlur:    gpu.NewMaterial[copyUniforms](d, source("bloomBlur", baseVert, "bloom_blur.frag", bloomBlurKernel), log),
		bloomFinal:   gpu.NewMaterial[bloomFinalUniforms](d, source("bloomFinal", baseVert, "bloom_final.frag", bloomFinalKernel), log),
		sunraysMask:  gpu.NewMaterial[copyUniforms](d, source("sunraysMask", baseVert, "sunrays_mask.frag", sunraysMaskKernel), log),
		sunrays:      gpu.NewMaterial[sunraysUniforms](d, source("sunrays", baseVert, "sunrays.frag", sunraysKernel), log),
		blur:         gpu.NewMaterial[copyUniforms](d, source("blur", blurVert, "blur.frag", blurKernel), log),
		display:      gpu.NewMaterial[displayUniforms](d, source("display", baseVert, "display.frag", displayKernel), log),
	}
}

// release frees every compiled variant.
func (p *programs) release() {
	p.copy.Release()
	p.clear.Release()
	p.color.Release()
	p.checkerboard.Release()
	p.splat.Release()
	p.advection.Release()
	p.divergence.Release()
	p.curl.Release()
	p.vorticity.Release()
	p.pressure.Release()
	p.gradient.Release()
	p.prefilter.Release()
	p.bloomBlur.Release()
	p.bloomFinal.Release()
	p.sunraysMask.Release()
	p.sunrays.Release()
	p.blur.Release()
	p.display.Release()
}
