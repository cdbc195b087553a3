// Package opengl implements gpu.Device on an OpenGL 3.3 core context. The
// context is owned by the host window (raylib); this package only issues GL
// calls into it and restores the state the host expects after each frame.
package opengl

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sonofluid/gpu"
)

type texture struct {
	id       uint32
	fbo      uint32 // 0 for sampled-only textures
	w, h     int
	format   gpu.PixelFormat
	released bool
}

func (t *texture) Size() (int, int)        { return t.w, t.h }
func (t *texture) Format() gpu.PixelFormat { return t.format }

type program struct {
	id    uint32
	label string
}

func (p *program) Label() string { return p.label }

// SurfaceFunc reports the drawable size of the default framebuffer.
type SurfaceFunc func() (w, h int)

// Device drives the current GL context.
type Device struct {
	surface SurfaceFunc
	log     *slog.Logger

	vao, vbo, ebo uint32
	current       *program
	bound         *texture // framebuffer currently bound, nil = default
}

// New loads GL entry points from the current context and builds the
// fullscreen quad. It must be called after the window is created.
func New(surface SurfaceFunc, log *slog.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing gl: %w", err)
	}
	d := &Device{
		surface: surface,
		log:     gpu.Logger(log),
	}
	d.log.Info("opengl device",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)
	d.initQuad()
	return d, nil
}

func (d *Device) initQuad() {
	vertices := []float32{-1, -1, -1, 1, 1, 1, 1, -1}
	indices := []uint16{0, 1, 2, 0, 2, 3}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &d.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindVertexArray(0)
}

// Close frees the quad buffers.
func (d *Device) Close() {
	gl.DeleteBuffers(1, &d.vbo)
	gl.DeleteBuffers(1, &d.ebo)
	gl.DeleteVertexArrays(1, &d.vao)
}

// Restore hands the context back to the host renderer: default framebuffer,
// full viewport, straight-alpha blending, no program.
func (d *Device) Restore() {
	w, h := d.surface()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.bound = nil
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(0)
	d.current = nil
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
}

// glFormat maps a pixel format to internal format, format and type.
func glFormat(f gpu.PixelFormat) (internal int32, format, xtype uint32, err error) {
	var formats [3]int32
	switch f.Precision {
	case gpu.PrecisionFloat:
		formats, xtype = [3]int32{gl.R32F, gl.RG32F, gl.RGBA32F}, gl.FLOAT
	case gpu.PrecisionHalf:
		formats, xtype = [3]int32{gl.R16F, gl.RG16F, gl.RGBA16F}, gl.HALF_FLOAT
	case gpu.PrecisionUnorm8:
		formats, xtype = [3]int32{gl.R8, gl.RG8, gl.RGBA8}, gl.UNSIGNED_BYTE
	default:
		return 0, 0, 0, fmt.Errorf("%w: %s", gpu.ErrUnsupportedFormat, f)
	}
	switch f.Channels {
	case 1:
		return formats[0], gl.RED, xtype, nil
	case 2:
		return formats[1], gl.RG, xtype, nil
	case 4:
		return formats[2], gl.RGBA, xtype, nil
	}
	return 0, 0, 0, fmt.Errorf("%w: %s", gpu.ErrUnsupportedFormat, f)
}

func glFilter(f gpu.Filter) int32 {
	if f == gpu.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func glWrap(w gpu.Wrap) int32 {
	if w == gpu.WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *Device) SupportsRenderFormat(f gpu.PixelFormat) bool {
	t, err := d.NewTarget(4, 4, f, gpu.FilterNearest)
	if err != nil {
		d.log.Debug("render format unsupported", "format", f.String(), "error", err)
		return false
	}
	d.Release(t)
	return true
}

// SupportsLinearFilter is true for every precision on desktop GL 3.3, where
// float texture filtering is core.
func (d *Device) SupportsLinearFilter(gpu.Precision) bool {
	return true
}

func (d *Device) NewTarget(w, h int, f gpu.PixelFormat, filter gpu.Filter) (gpu.Texture, error) {
	internal, format, xtype, err := glFormat(f)
	if err != nil {
		return nil, err
	}
	t := &texture{w: w, h: h, format: f}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(w), int32(h), 0, format, xtype, nil)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.id, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	d.bound = t
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.Release(t)
		return nil, fmt.Errorf("%w: %s framebuffer status 0x%x", gpu.ErrUnsupportedFormat, f, status)
	}

	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return t, nil
}

func (d *Device) NewTexture(img *image.RGBA, filter gpu.Filter, wrap gpu.Wrap) (gpu.Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("opengl: empty image")
	}
	t := &texture{w: b.Dx(), h: b.Dy(), format: gpu.RGBA(gpu.PrecisionUnorm8)}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(wrap))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(t.w), int32(t.h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	return t, nil
}

func (d *Device) Release(t gpu.Texture) {
	tex, ok := t.(*texture)
	if !ok || tex.released {
		return
	}
	if tex.fbo != 0 {
		if d.bound == tex {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			d.bound = nil
		}
		gl.DeleteFramebuffers(1, &tex.fbo)
	}
	gl.DeleteTextures(1, &tex.id)
	tex.released = true
}

// preamble prefixes a stage body with the version line and one #define per
// keyword.
func preamble(keys gpu.KeywordSet, body string) string {
	var sb strings.Builder
	sb.WriteString("#version 330 core\n")
	for _, k := range keys.Names() {
		sb.WriteString("#define " + k + "\n")
	}
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *Device) Compile(src gpu.ShaderSource, keys gpu.KeywordSet) (gpu.Program, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, preamble(keys, src.Vertex))
	if err != nil {
		return nil, fmt.Errorf("%w: %s vertex %s: %w", gpu.ErrCompile, src.Name, keys, err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(gl.FRAGMENT_SHADER, preamble(keys, src.Fragment))
	if err != nil {
		return nil, fmt.Errorf("%w: %s fragment %s: %w", gpu.ErrCompile, src.Name, keys, err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.BindAttribLocation(id, 0, gl.Str("aPosition\x00"))
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("%w: %s link %s: %s", gpu.ErrCompile, src.Name, keys, strings.TrimRight(log, "\x00"))
	}
	return &program{id: id, label: src.Name + keys.String()}, nil
}

func (d *Device) ReleaseProgram(p gpu.Program) {
	prog, ok := p.(*program)
	if !ok || prog.id == 0 {
		return
	}
	if d.current == prog {
		gl.UseProgram(0)
		d.current = nil
	}
	gl.DeleteProgram(prog.id)
	prog.id = 0
}

func (d *Device) UseProgram(p gpu.Program) {
	prog, _ := p.(*program)
	if prog == d.current {
		return
	}
	d.current = prog
	if prog == nil {
		gl.UseProgram(0)
		return
	}
	gl.UseProgram(prog.id)
}

func (d *Device) UniformLocation(p gpu.Program, name string) gpu.Uniform {
	prog, ok := p.(*program)
	if !ok {
		return gpu.NoUniform
	}
	return gpu.Uniform(gl.GetUniformLocation(prog.id, gl.Str(name+"\x00")))
}

func (d *Device) SetFloat(u gpu.Uniform, v float32) {
	if u != gpu.NoUniform {
		gl.Uniform1f(int32(u), v)
	}
}

func (d *Device) SetVec2(u gpu.Uniform, v mgl32.Vec2) {
	if u != gpu.NoUniform {
		gl.Uniform2f(int32(u), v[0], v[1])
	}
}

func (d *Device) SetVec3(u gpu.Uniform, v mgl32.Vec3) {
	if u != gpu.NoUniform {
		gl.Uniform3f(int32(u), v[0], v[1], v[2])
	}
}

func (d *Device) SetVec4(u gpu.Uniform, v mgl32.Vec4) {
	if u != gpu.NoUniform {
		gl.Uniform4f(int32(u), v[0], v[1], v[2], v[3])
	}
}

func (d *Device) SetTexture(u gpu.Uniform, unit int, t gpu.Texture) {
	tex, ok := t.(*texture)
	if !ok || tex.released {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	if u != gpu.NoUniform {
		gl.Uniform1i(int32(u), int32(unit))
	}
}

func (d *Device) SetBlend(mode gpu.BlendMode) {
	switch mode {
	case gpu.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	case gpu.BlendPremultiplied:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.Disable(gl.BLEND)
	}
}

// bind makes target the draw framebuffer with a matching viewport.
func (d *Device) bind(target gpu.Texture) bool {
	if target == nil {
		w, h := d.surface()
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(w), int32(h))
		d.bound = nil
		return true
	}
	tex, ok := target.(*texture)
	if !ok || tex.released || tex.fbo == 0 {
		return false
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, tex.fbo)
	gl.Viewport(0, 0, int32(tex.w), int32(tex.h))
	d.bound = tex
	return true
}

func (d *Device) Draw(target gpu.Texture) {
	if !d.bind(target) {
		return
	}
	gl.BindVertexArray(d.vao)
	gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

func (d *Device) Clear(target gpu.Texture) {
	if !d.bind(target) {
		return
	}
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) SurfaceSize() (int, int) {
	return d.surface()
}

func (d *Device) ReadPixels(target gpu.Texture) ([]float32, error) {
	if !d.bind(target) {
		return nil, gpu.ErrReleased
	}
	w, h := d.surface()
	if tex, ok := target.(*texture); ok {
		w, h = tex.w, tex.h
	}
	out := make([]float32, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.FLOAT, gl.Ptr(out))
	return out, nil
}

var _ gpu.Device = (*Device)(nil)
