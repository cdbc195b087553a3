package fluid

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/pthm-cable/sonofluid/gpu"
)

const defaultDitherSize = 64

// newDitherTexture builds a size by size tile of seeded grey noise, sampled
// with repeat wrap to break up banding in the bloom layer.
func newDitherTexture(d gpu.Device, size int, seed int64) (gpu.Texture, error) {
	if size < 1 {
		size = defaultDitherSize
	}
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(rng.Intn(256))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return d.NewTexture(img, gpu.FilterLinear, gpu.WrapRepeat)
}
