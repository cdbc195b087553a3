package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkOnset       BookmarkType = "onset"        // loud window after quiet ones
	BookmarkSilence     BookmarkType = "silence"      // activity stopped
	BookmarkEnergyPeak  BookmarkType = "energy_peak"  // dye energy well above its recent average
	BookmarkSteadyState BookmarkType = "steady_state" // dye energy flat across several windows
	BookmarkUnstable    BookmarkType = "unstable"     // divergence left after projection is large
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Detection thresholds.
const (
	onsetRatio         = 3.0  // window mean level over rolling mean
	onsetMinLevel      = 0.05 // ignore onsets quieter than this
	energyPeakRatio    = 2.0
	steadyCV           = 0.05 // coefficient of variation of dye energy
	steadyWindows      = 5
	unstableDivergence = 1.0
)

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	steadyCount int  // consecutive windows with flat dye energy
	wasActive   bool // previous window had splats
	unstable    bool // an unstable bookmark fired and has not cleared
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady-state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		for _, check := range []func(WindowStats) *Bookmark{
			bd.checkOnset,
			bd.checkSilence,
			bd.checkEnergyPeak,
			bd.checkSteadyState,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}
	if b := bd.checkUnstable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.wasActive = stats.Splats > 0

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func historyValues(history []WindowStats, f func(WindowStats) float64) []float64 {
	vals := make([]float64, len(history))
	for i, h := range history {
		vals[i] = f(h)
	}
	return vals
}

func (bd *BookmarkDetector) checkOnset(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.LevelMean < onsetMinLevel {
		return nil
	}

	avg := stat.Mean(historyValues(history, func(h WindowStats) float64 { return h.LevelMean }), nil)
	if stats.LevelMean > avg*onsetRatio {
		return &Bookmark{
			Type:        BookmarkOnset,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Mean level %.3f is %.1fx rolling average (%.3f)", stats.LevelMean, stats.LevelMean/max(avg, 1e-9), avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSilence(stats WindowStats) *Bookmark {
	if !bd.wasActive || stats.Splats > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSilence,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No splats since tick %d", stats.WindowStartTick),
	}
}

func (bd *BookmarkDetector) checkEnergyPeak(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	avg := stat.Mean(historyValues(history, func(h WindowStats) float64 { return h.DyeEnergy }), nil)
	if avg == 0 {
		return nil
	}

	if stats.DyeEnergy > avg*energyPeakRatio {
		return &Bookmark{
			Type:        BookmarkEnergyPeak,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Dye energy %.2f is %.1fx rolling average (%.2f)", stats.DyeEnergy, stats.DyeEnergy/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.DyeEnergy == 0 {
		bd.steadyCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < steadyWindows-1 {
		return nil
	}

	recent := historyValues(history[len(history)-(steadyWindows-1):], func(h WindowStats) float64 { return h.DyeEnergy })
	recent = append(recent, stats.DyeEnergy)
	mean, std := stat.MeanStdDev(recent, nil)

	if mean > 0 && std/mean < steadyCV {
		bd.steadyCount++
	} else {
		bd.steadyCount = 0
	}

	if bd.steadyCount == 1 { // trigger once per steady stretch
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Dye energy steady at %.2f over %d windows", mean, steadyWindows),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkUnstable(stats WindowStats) *Bookmark {
	if stats.DivergenceMax <= unstableDivergence {
		bd.unstable = false
		return nil
	}
	if bd.unstable {
		return nil
	}
	bd.unstable = true
	return &Bookmark{
		Type:        BookmarkUnstable,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Residual divergence %.2f exceeds %.2f", stats.DivergenceMax, unstableDivergence),
	}
}
