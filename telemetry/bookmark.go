package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSplash          BookmarkType = "splash"
	BookmarkSettled         BookmarkType = "settled"
	BookmarkDivergenceSpike BookmarkType = "divergence_spike"
	BookmarkVolumeLoss      BookmarkType = "volume_loss"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Detector thresholds.
const (
	splashFactor       = 2.0  // kinetic energy over rolling average
	splashMinEnergy    = 0.5  // ignore splashes in a nearly empty tank
	settledSpeed       = 0.05 // p90 particle speed, m/s
	settledWindows     = 3
	divergenceFactor   = 3.0
	divergenceFloor    = 0.05
	volumeLossRatio    = 0.7
	minHistoryForTrend = 3
)

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	settledCount int  // consecutive windows below settledSpeed
	compressed   bool // volume loss already reported
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < minHistoryForTrend {
		historySize = minHistoryForTrend
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkSplash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkDivergenceSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkVolumeLoss(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSplash(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < minHistoryForTrend {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.KineticEnergy
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.KineticEnergy > avg*splashFactor && stats.KineticEnergy > splashMinEnergy {
		return &Bookmark{
			Type:        BookmarkSplash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Kinetic energy %.2f is %.1fx average (%.2f)", stats.KineticEnergy, stats.KineticEnergy/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkDivergenceSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < minHistoryForTrend {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.DivAfterMean
	}
	avg := total / float64(len(history))

	if stats.DivAfterMax > divergenceFloor && stats.DivAfterMax > avg*divergenceFactor {
		return &Bookmark{
			Type:        BookmarkDivergenceSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Residual divergence %.3f against average %.3f", stats.DivAfterMax, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.Particles == 0 || stats.SpeedP90 >= settledSpeed {
		bd.settledCount = 0
		return nil
	}

	bd.settledCount++
	if bd.settledCount == settledWindows { // trigger exactly once per rest
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fluid at rest for %d windows (p90 speed %.3f)", settledWindows, stats.SpeedP90),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkVolumeLoss(stats WindowStats) *Bookmark {
	if stats.DensityRatio == 0 {
		return nil
	}
	if stats.DensityRatio >= volumeLossRatio {
		bd.compressed = false
		return nil
	}
	if bd.compressed {
		return nil
	}
	bd.compressed = true
	return &Bookmark{
		Type:        BookmarkVolumeLoss,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Mean fluid density fell to %.0f%% of rest", stats.DensityRatio*100),
	}
}
