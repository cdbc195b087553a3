package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sonofluid/gpu"
)

// Field names a simulation field that can be read back.
type Field int

const (
	FieldDye Field = iota
	FieldVelocity
	FieldPressure
	FieldCurl
	FieldDivergence
)

var fieldNames = [...]string{"dye", "velocity", "pressure", "curl", "divergence"}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// FieldSnapshot is a CPU copy of one field, RGBA per texel, bottom row first.
type FieldSnapshot struct {
	Field  Field
	Width  int
	Height int
	Pix    []float32
}

// Snapshot reads back the current contents of a field. It must not be called
// during a tick.
func (e *Engine) Snapshot(f Field) (*FieldSnapshot, error) {
	if e.disposed {
		return nil, ErrDisposed
	}
	if !e.fb.complete() {
		return nil, fmt.Errorf("fluid: snapshot before framebuffers are allocated")
	}
	var t *gpu.RenderTarget
	switch f {
	case FieldDye:
		t = e.fb.dye.Read()
	case FieldVelocity:
		t = e.fb.velocity.Read()
	case FieldPressure:
		t = e.fb.pressure.Read()
	case FieldCurl:
		t = e.fb.curl
	case FieldDivergence:
		t = e.fb.divergence
	default:
		return nil, fmt.Errorf("fluid: unknown field %v", f)
	}
	pix, err := e.dev.ReadPixels(t.Texture)
	if err != nil {
		return nil, fmt.Errorf("reading %v: %w", f, err)
	}
	return &FieldSnapshot{Field: f, Width: t.Width, Height: t.Height, Pix: pix}, nil
}

// At returns the texel at column x, row y (row 0 at the bottom).
func (s *FieldSnapshot) At(x, y int) [4]float32 {
	i := (y*s.Width + x) * 4
	return [4]float32{s.Pix[i], s.Pix[i+1], s.Pix[i+2], s.Pix[i+3]}
}

// channel views one component of every texel as a strided vector.
func (s *FieldSnapshot) channel(c int) blas32.Vector {
	return blas32.Vector{N: s.Width * s.Height, Inc: 4, Data: s.Pix[c:]}
}

// Energy is the sum of squared R, G and B components over all texels.
// For velocity that is twice the kinetic energy; for dye, total intensity
// squared.
func (s *FieldSnapshot) Energy() float64 {
	var sum float64
	for c := 0; c < 3; c++ {
		v := s.channel(c)
		sum += float64(blas32.Dot(v, v))
	}
	return sum
}

// MaxAbs is the largest absolute value in channel c.
func (s *FieldSnapshot) MaxAbs(c int) float32 {
	v := s.channel(c)
	i := blas32.Iamax(v)
	if i < 0 {
		return 0
	}
	return float32(math.Abs(float64(v.Data[i*v.Inc])))
}

// Stats returns the mean and standard deviation of channel c.
func (s *FieldSnapshot) Stats(c int) (mean, std float64) {
	vals := make([]float64, 0, s.Width*s.Height)
	for i := c; i < len(s.Pix); i += 4 {
		vals = append(vals, float64(s.Pix[i]))
	}
	if len(vals) < 2 {
		if len(vals) == 1 {
			return vals[0], 0
		}
		return 0, 0
	}
	return stat.MeanStdDev(vals, nil)
}

// Centroid is the intensity-weighted centre of channel c in normalized
// coordinates, or (0.5, 0.5) when the channel is empty.
func (s *FieldSnapshot) Centroid(c int) (x, y float64) {
	var sum, sx, sy float64
	for j := 0; j < s.Height; j++ {
		for i := 0; i < s.Width; i++ {
			v := math.Abs(float64(s.Pix[(j*s.Width+i)*4+c]))
			sum += v
			sx += v * (float64(i) + 0.5) / float64(s.Width)
			sy += v * (float64(j) + 0.5) / float64(s.Height)
		}
	}
	if sum == 0 {
		return 0.5, 0.5
	}
	return sx / sum, sy / sum
}
