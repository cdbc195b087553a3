package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/gocarina/gocsv"
)

// LoadCSV reads frames from a CSV file with a header row naming the Frame
// columns (time, bass, mid, treble, volume, frequency). Rows are sorted by
// time.
func LoadCSV(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV is LoadCSV over a reader.
func ReadCSV(r io.Reader) ([]Frame, error) {
	var frames []Frame
	if err := gocsv.Unmarshal(r, &frames); err != nil {
		return nil, fmt.Errorf("parsing audio csv: %w", err)
	}
	for i, fr := range frames {
		if fr.Volume < 0 || fr.Frequency < 0 || fr.Time < 0 {
			return nil, fmt.Errorf("audio csv row %d: negative value", i+1)
		}
	}
	slices.SortStableFunc(frames, func(a, b Frame) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return frames, nil
}

// WriteCSV writes frames in the format ReadCSV accepts.
func WriteCSV(w io.Writer, frames []Frame) error {
	return gocsv.Marshal(frames, w)
}

// Replay plays recorded frames against elapsed time: each tick returns the
// latest frame whose timestamp has passed.
type Replay struct {
	frames  []Frame
	loop    bool
	elapsed float64
}

// NewReplay plays frames, which must be sorted by time.
func NewReplay(frames []Frame, loop bool) *Replay {
	return &Replay{frames: frames, loop: loop}
}

// Duration is the timestamp of the last frame.
func (r *Replay) Duration() float64 {
	if len(r.frames) == 0 {
		return 0
	}
	return r.frames[len(r.frames)-1].Time
}

func (r *Replay) Next(dt float64) Frame {
	if len(r.frames) == 0 {
		return Frame{}
	}
	r.elapsed += dt
	t := r.elapsed
	if d := r.Duration(); t > d {
		if !r.loop || d <= 0 {
			return Frame{Time: t}
		}
		t = math.Mod(t, d)
	}
	i, _ := slices.BinarySearchFunc(r.frames, t, func(f Frame, t float64) int {
		switch {
		case f.Time < t:
			return -1
		case f.Time > t:
			return 1
		}
		return 0
	})
	// i is the first frame at or after t; step back unless it is exact.
	if i == len(r.frames) || r.frames[i].Time > t {
		i--
	}
	if i < 0 {
		return Frame{Time: t}
	}
	return r.frames[i]
}
