package telemetry

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sonofluid/config"
	"github.com/pthm-cable/sonofluid/gpu"
)

func TestNilOutputManagerIsNoop(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if path, err := om.WriteCapture(image.NewRGBA(image.Rect(0, 0, 1, 1)), CaptureMeta{}); path != "" || err != nil {
		t.Errorf("WriteCapture on nil manager = %q, %v", path, err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_TelemetryCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 300), Splats: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var rows []WindowStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (header written once)", len(rows))
	}
	if rows[2].WindowEndTick != 900 || rows[2].Splats != 3 {
		t.Errorf("last row = %+v", rows[2])
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestOutputManager_Capture(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 200, A: 255})

	meta := CaptureMeta{
		Tick:         42,
		Seed:         7,
		Capabilities: CapabilitiesToJSON(gpu.Unorm8Fallback(true)),
		Bookmark:     &Bookmark{Type: BookmarkOnset, Tick: 42},
	}
	path, err := om.WriteCapture(img, meta)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "capture_00000042_onset.png") {
		t.Errorf("capture path = %s", path)
	}

	loaded, err := LoadCaptureMeta(strings.TrimSuffix(path, ".png") + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Tick != 42 || loaded.Seed != 7 || loaded.Bookmark == nil {
		t.Errorf("loaded meta = %+v", loaded)
	}
	if loaded.Capabilities.Precision != gpu.PrecisionUnorm8.String() {
		t.Errorf("precision = %q", loaded.Capabilities.Precision)
	}
}
