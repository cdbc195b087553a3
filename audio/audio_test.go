package audio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pthm-cable/sonofluid/config"
)

func TestTone_Gating(t *testing.T) {
	tone := &Tone{Frequency: 440, Volume: 0.6, Period: 2, Duty: 0.4}

	if f := tone.Next(0.5); f.Volume != 0.6 || f.Frequency != 440 {
		t.Errorf("at 0.5s expected the tone, got %+v", f)
	}
	if f := tone.Next(0.5); f.Volume != 0 || f.Frequency != 0 {
		t.Errorf("at 1.0s expected silence, got %+v", f)
	}
	if f := tone.Next(1.1); f.Volume != 0.6 {
		t.Errorf("at 2.1s expected the tone again, got %+v", f)
	}
}

func TestTone_Bands(t *testing.T) {
	tests := []struct {
		freq              float64
		bass, mid, treble float64
	}{
		{100, 1, 0, 0},
		{440, 0, 1, 0},
		{4000, 0, 0, 1},
	}
	for _, tt := range tests {
		f := (&Tone{Frequency: tt.freq, Volume: 1}).Next(0.01)
		if f.Bass != tt.bass || f.Mid != tt.mid || f.Treble != tt.treble {
			t.Errorf("%v Hz bands = (%v, %v, %v)", tt.freq, f.Bass, f.Mid, f.Treble)
		}
	}
}

func TestSequence(t *testing.T) {
	s := &Sequence{Frames: []Frame{{Volume: 1}, {Volume: 2}}}
	got := []float64{s.Next(0).Volume, s.Next(0).Volume, s.Next(0).Volume}
	if got[0] != 1 || got[1] != 2 || got[2] != 0 {
		t.Errorf("sequence volumes = %v, want [1 2 0]", got)
	}

	s = &Sequence{Frames: []Frame{{Volume: 1}, {Volume: 2}}, Loop: true}
	s.Next(0)
	s.Next(0)
	if v := s.Next(0).Volume; v != 1 {
		t.Errorf("looped volume = %v, want 1", v)
	}
}

const recording = `time,bass,mid,treble,volume,frequency
1.0,0,0.5,0,0.5,440
0.0,0,0,0,0,0
2.0,0.2,0,0,0.2,110
`

func TestReadCSV_SortsByTime(t *testing.T) {
	frames, err := ReadCSV(strings.NewReader(recording))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Time < frames[i-1].Time {
			t.Fatalf("frames not sorted: %+v", frames)
		}
	}
}

func TestReadCSV_RejectsNegative(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("time,volume,frequency\n0,-1,0\n"))
	if err == nil {
		t.Error("expected error for negative volume")
	}
}

func TestReplay_FollowsTimestamps(t *testing.T) {
	frames, _ := ReadCSV(strings.NewReader(recording))
	r := NewReplay(frames, false)

	if f := r.Next(0.5); f.Volume != 0 {
		t.Errorf("at 0.5s volume = %v, want 0", f.Volume)
	}
	if f := r.Next(0.7); f.Frequency != 440 {
		t.Errorf("at 1.2s frequency = %v, want 440", f.Frequency)
	}
	if f := r.Next(0.8); f.Frequency != 110 {
		t.Errorf("at 2.0s frequency = %v, want 110", f.Frequency)
	}
	if f := r.Next(1); f.Volume != 0 {
		t.Errorf("past the end without loop volume = %v, want 0", f.Volume)
	}
}

func TestReplay_Loops(t *testing.T) {
	frames, _ := ReadCSV(strings.NewReader(recording))
	r := NewReplay(frames, true)
	if f := r.Next(3.5); f.Frequency != 440 {
		t.Errorf("looped to 1.5s, frequency = %v, want 440", f.Frequency)
	}
}

func TestWriteCSV_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	in := []Frame{{Time: 0.25, Volume: 0.3, Frequency: 220}}
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("read back %+v, want %+v", out, in)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Audio

	cfg.Source = config.SourceSilence
	if src, err := FromConfig(cfg); err != nil {
		t.Fatal(err)
	} else if _, ok := src.(Silence); !ok {
		t.Errorf("silence source = %T", src)
	}

	cfg.Source = config.SourceTone
	src, err := FromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if tone, ok := src.(*Tone); !ok || tone.Frequency != cfg.ToneFrequency {
		t.Errorf("tone source = %#v", src)
	}

	cfg.Source = config.SourceCSV
	cfg.CSVPath = "does-not-exist.csv"
	if _, err := FromConfig(cfg); err == nil {
		t.Error("expected error for missing csv")
	}
}
