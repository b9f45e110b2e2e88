package canopy

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger returns a text logger writing to w. Debug enables per-frame
// stats and Debug-level records.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// debugStats holds per-frame timing and draw metrics. Only populated when
// the experience runs in debug mode.
type debugStats struct {
	updateTime   time.Duration
	emitTime     time.Duration
	sortTime     time.Duration
	submitTime   time.Duration
	commandCount int
	batchCount   int
}

// debugLogEvery is the number of frames between stats records.
const debugLogEvery = 120

// debugLog writes the frame stats every debugLogEvery frames.
func debugLog(log *slog.Logger, frame uint64, stats debugStats) {
	if frame%debugLogEvery != 0 {
		return
	}
	total := stats.updateTime + stats.emitTime + stats.sortTime + stats.submitTime
	log.Debug("frame stats",
		"frame", frame,
		"update", stats.updateTime,
		"emit", stats.emitTime,
		"sort", stats.sortTime,
		"submit", stats.submitTime,
		"total", total,
		"commands", stats.commandCount,
		"batches", stats.batchCount,
	)
}

// countBatches counts contiguous groups of point commands sharing a blend
// mode, plus one per line. This matches the draw calls DrawList.Draw issues.
func countBatches(commands []DrawCommand) int {
	count := 0
	inBatch := false
	var blend BlendMode
	for i := range commands {
		cmd := &commands[i]
		if cmd.Type == CommandLine {
			count++
			inBatch = false
			continue
		}
		if !inBatch || cmd.Blend != blend {
			count++
			inBatch = true
			blend = cmd.Blend
		}
	}
	return count
}
