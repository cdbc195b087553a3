package gpu

import "fmt"

// Precision is the per-channel storage type of a texture.
type Precision int

const (
	PrecisionUnorm8 Precision = iota // 8-bit normalized integer, clamped to [0, 1]
	PrecisionHalf                    // 16-bit float
	PrecisionFloat                   // 32-bit float
)

func (p Precision) String() string {
	switch p {
	case PrecisionUnorm8:
		return "unorm8"
	case PrecisionHalf:
		return "half"
	case PrecisionFloat:
		return "float"
	}
	return fmt.Sprintf("precision(%d)", int(p))
}

// PixelFormat describes a renderable texture layout.
type PixelFormat struct {
	Channels  int // 1, 2 or 4
	Precision Precision
}

// Common layouts at a given precision.
func RGBA(p Precision) PixelFormat { return PixelFormat{Channels: 4, Precision: p} }
func RG(p Precision) PixelFormat   { return PixelFormat{Channels: 2, Precision: p} }
func R(p Precision) PixelFormat    { return PixelFormat{Channels: 1, Precision: p} }

func (f PixelFormat) String() string {
	names := map[int]string{1: "r", 2: "rg", 4: "rgba"}
	name, ok := names[f.Channels]
	if !ok {
		name = fmt.Sprintf("c%d", f.Channels)
	}
	return name + "/" + f.Precision.String()
}

// Filter is the texture sampling filter.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

func (f Filter) String() string {
	if f == FilterLinear {
		return "linear"
	}
	return "nearest"
}

// Wrap is the texture addressing mode outside [0, 1].
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// BlendMode selects how a draw combines with the target contents.
type BlendMode int

const (
	BlendNone          BlendMode = iota // overwrite
	BlendAdditive                       // ONE, ONE
	BlendPremultiplied                  // ONE, ONE_MINUS_SRC_ALPHA
)
