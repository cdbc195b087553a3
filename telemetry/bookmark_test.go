package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Onset(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Quiet history
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 300), LevelMean: 0.02})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1500, LevelMean: 0.4, Splats: 200})
	if !hasBookmark(bookmarks, BookmarkOnset) {
		t.Error("expected onset bookmark")
	}
}

func TestBookmarkDetector_OnsetIgnoresQuietWindows(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 300), LevelMean: 0.001})
	}

	// 10x the average but still below the minimum level
	bookmarks := bd.Check(WindowStats{WindowEndTick: 1500, LevelMean: 0.01})
	if hasBookmark(bookmarks, BookmarkOnset) {
		t.Error("unexpected onset for a near-silent window")
	}
}

func TestBookmarkDetector_Silence(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 300, Splats: 50})

	bookmarks := bd.Check(WindowStats{WindowStartTick: 300, WindowEndTick: 600})
	if !hasBookmark(bookmarks, BookmarkSilence) {
		t.Error("expected silence bookmark after activity stopped")
	}

	// Still silent: no repeat
	bookmarks = bd.Check(WindowStats{WindowStartTick: 600, WindowEndTick: 900})
	if hasBookmark(bookmarks, BookmarkSilence) {
		t.Error("silence bookmark should fire once")
	}
}

func TestBookmarkDetector_EnergyPeak(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 300), DyeEnergy: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1200, DyeEnergy: 35})
	if !hasBookmark(bookmarks, BookmarkEnergyPeak) {
		t.Error("expected energy_peak bookmark")
	}
}

func TestBookmarkDetector_SteadyState(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var fired int
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 300),
			DyeEnergy:     100 + float64(i%2), // ~0.5% variation
		})
		if hasBookmark(bookmarks, BookmarkSteadyState) {
			fired++
		}
	}

	if fired != 1 {
		t.Errorf("steady_state fired %d times, want once", fired)
	}
}

func TestBookmarkDetector_SteadyStateNeedsDye(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 10; i++ {
		if hasBookmark(bd.Check(WindowStats{WindowEndTick: int32(i * 300)}), BookmarkSteadyState) {
			t.Fatal("empty field should never be steady")
		}
	}
}

func TestBookmarkDetector_Unstable(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if !hasBookmark(bd.Check(WindowStats{WindowEndTick: 300, DivergenceMax: 5}), BookmarkUnstable) {
		t.Fatal("expected unstable bookmark")
	}
	if hasBookmark(bd.Check(WindowStats{WindowEndTick: 600, DivergenceMax: 5}), BookmarkUnstable) {
		t.Error("unstable should not repeat until it clears")
	}
	bd.Check(WindowStats{WindowEndTick: 900, DivergenceMax: 0.1})
	if !hasBookmark(bd.Check(WindowStats{WindowEndTick: 1200, DivergenceMax: 5}), BookmarkUnstable) {
		t.Error("unstable should fire again after clearing")
	}
}

func TestBookmarkDetector_HistoryOrder(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 1; i <= 7; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i)})
	}

	history := bd.getHistory()
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	for i, h := range history {
		if want := int32(i + 3); h.WindowEndTick != want {
			t.Errorf("history[%d] = tick %d, want %d", i, h.WindowEndTick, want)
		}
	}
}
