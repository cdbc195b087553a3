// Package audio provides the per-tick audio feature frames that drive the
// emitter. Capture and spectral analysis happen elsewhere; sources here
// produce frames from silence, a synthetic tone, a scripted sequence or a
// recorded CSV.
package audio

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/sonofluid/config"
)

// Frame is one audio feature sample. All values are non-negative; Frequency
// is the dominant tone in Hz, 0 when silent or indeterminate.
type Frame struct {
	Time      float64 `csv:"time"` // seconds since the start of a recording
	Bass      float64 `csv:"bass"`
	Mid       float64 `csv:"mid"`
	Treble    float64 `csv:"treble"`
	Volume    float64 `csv:"volume"`
	Frequency float64 `csv:"frequency"`
}

// Level is the gain-scaled volume the emitter gates on.
func (f Frame) Level(gain float64) float64 {
	return f.Volume * gain
}

// LogValue implements slog.LogValuer.
func (f Frame) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("volume", f.Volume),
		slog.Float64("frequency", f.Frequency),
		slog.Float64("bass", f.Bass),
		slog.Float64("mid", f.Mid),
		slog.Float64("treble", f.Treble),
	)
}

// Source yields one frame per tick.
type Source interface {
	Next(dt float64) Frame
}

// Silence always returns the zero frame.
type Silence struct{}

func (Silence) Next(float64) Frame { return Frame{} }

// Tone is a synthetic pure tone gated on and off: it sounds for Duty of
// every Period seconds.
type Tone struct {
	Frequency float64
	Volume    float64
	Period    float64
	Duty      float64

	elapsed float64
}

func (t *Tone) Next(dt float64) Frame {
	t.elapsed += dt
	f := Frame{Time: t.elapsed}
	if t.Period > 0 && math.Mod(t.elapsed, t.Period) >= t.Duty*t.Period {
		return f
	}
	f.Volume = t.Volume
	f.Frequency = t.Frequency
	f.Bass, f.Mid, f.Treble = bands(t.Frequency, t.Volume)
	return f
}

// bands puts all of a pure tone's energy in the band holding its frequency.
func bands(freq, volume float64) (bass, mid, treble float64) {
	switch {
	case freq <= 0:
		return 0, 0, 0
	case freq < 250:
		return volume, 0, 0
	case freq < 2000:
		return 0, volume, 0
	}
	return 0, 0, volume
}

// Sequence replays frames one per tick, ignoring their timestamps. After the
// last frame it loops or returns silence.
type Sequence struct {
	Frames []Frame
	Loop   bool

	pos int
}

func (s *Sequence) Next(float64) Frame {
	if len(s.Frames) == 0 {
		return Frame{}
	}
	if s.pos >= len(s.Frames) {
		if !s.Loop {
			return Frame{}
		}
		s.pos = 0
	}
	f := s.Frames[s.pos]
	s.pos++
	return f
}

// FromConfig builds the source selected by cfg.
func FromConfig(cfg config.AudioConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceSilence:
		return Silence{}, nil
	case config.SourceTone:
		return &Tone{
			Frequency: cfg.ToneFrequency,
			Volume:    cfg.ToneVolume,
			Period:    cfg.TonePeriod,
			Duty:      cfg.ToneDuty,
		}, nil
	case config.SourceCSV:
		frames, err := LoadCSV(cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		return NewReplay(frames, cfg.Loop), nil
	}
	return nil, fmt.Errorf("audio: unknown source %q", cfg.Source)
}
