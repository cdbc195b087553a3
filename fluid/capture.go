package fluid

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pthm-cable/sonofluid/gpu"
)

// Capture renders the current frame off-screen with the shorter side at res
// texels and returns it top row first. The visible surface is untouched.
func (e *Engine) Capture(res int) (*image.RGBA, error) {
	if e.disposed {
		return nil, ErrDisposed
	}
	if !e.fb.complete() {
		return nil, fmt.Errorf("fluid: capture before framebuffers are allocated")
	}
	w, h := Resolution(res, e.width, e.height)
	target, err := gpu.NewRenderTarget(e.dev, w, h, *e.caps.RGBA, gpu.FilterNearest)
	if err != nil {
		return nil, fmt.Errorf("capture target: %w", err)
	}
	defer target.Release(e.dev)

	e.render(target)
	pix, err := e.dev.ReadPixels(target.Texture)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := pix[y*w*4:]
		for x := 0; x < w; x++ {
			p := row[x*4:]
			img.SetRGBA(x, h-1-y, color.RGBA{
				R: toByte(p[0]),
				G: toByte(p[1]),
				B: toByte(p[2]),
				A: toByte(p[3]),
			})
		}
	}
	return img, nil
}

func toByte(v float32) uint8 {
	return uint8(gpu.Clamp(v, 0, 1)*255 + 0.5)
}
