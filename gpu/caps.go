package gpu

import "log/slog"

// Capabilities is the one-time result of probing a device. It is immutable
// after Negotiate returns.
type Capabilities struct {
	Precision    Precision // storage precision of the float formats below
	LinearFilter bool      // float textures can be sampled with FilterLinear

	// Best renderable formats for 4-, 2- and 1-channel fields. A nil entry
	// means no float format could be rendered to, even as RGBA.
	RGBA *PixelFormat
	RG   *PixelFormat
	R    *PixelFormat
}

// Supported reports whether every float layout resolved.
func (c Capabilities) Supported() bool {
	return c.RGBA != nil && c.RG != nil && c.R != nil
}

// LogValue implements slog.LogValuer.
func (c Capabilities) LogValue() slog.Value {
	name := func(f *PixelFormat) string {
		if f == nil {
			return "none"
		}
		return f.String()
	}
	return slog.GroupValue(
		slog.String("precision", c.Precision.String()),
		slog.Bool("linear_filter", c.LinearFilter),
		slog.String("rgba", name(c.RGBA)),
		slog.String("rg", name(c.RG)),
		slog.String("r", name(c.R)),
	)
}

// floatPrecisions lists storage precisions from highest to lowest.
var floatPrecisions = []Precision{PrecisionFloat, PrecisionHalf}

// Negotiate queries d once. It tries the highest float precision first and,
// for each layout, falls back through wider layouts (R -> RG -> RGBA) until
// one renders. If no precision renders RGBA the float formats stay nil.
func Negotiate(d Device) Capabilities {
	for _, p := range floatPrecisions {
		rgba := supportedFormat(d, RGBA(p))
		if rgba == nil {
			continue
		}
		return Capabilities{
			Precision:    p,
			LinearFilter: d.SupportsLinearFilter(p),
			RGBA:         rgba,
			RG:           supportedFormat(d, RG(p)),
			R:            supportedFormat(d, R(p)),
		}
	}
	return Capabilities{
		Precision:    PrecisionHalf,
		LinearFilter: d.SupportsLinearFilter(PrecisionHalf),
	}
}

// supportedFormat returns f if renderable, otherwise the next wider layout
// of the same precision, or nil when even RGBA fails.
func supportedFormat(d Device, f PixelFormat) *PixelFormat {
	if d.SupportsRenderFormat(f) {
		return &f
	}
	switch f.Channels {
	case 1:
		return supportedFormat(d, RG(f.Precision))
	case 2:
		return supportedFormat(d, RGBA(f.Precision))
	}
	return nil
}

// Unorm8Fallback is the fixed-point capability set used when Negotiate
// found no renderable float format.
func Unorm8Fallback(linear bool) Capabilities {
	rgba, rg, r := RGBA(PrecisionUnorm8), RG(PrecisionUnorm8), R(PrecisionUnorm8)
	return Capabilities{
		Precision:    PrecisionUnorm8,
		LinearFilter: linear,
		RGBA:         &rgba,
		RG:           &rg,
		R:            &r,
	}
}
