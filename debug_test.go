package canopy

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, false)
	log.Debug("hidden")
	log.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("info logger output = %q", out)
	}

	buf.Reset()
	NewLogger(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug logger output = %q", buf.String())
	}
}

func TestDebugLogEvery(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, true)
	stats := debugStats{
		updateTime:   100 * time.Microsecond,
		emitTime:     50 * time.Microsecond,
		commandCount: 1000,
		batchCount:   10,
	}

	debugLog(log, 1, stats)
	if buf.Len() != 0 {
		t.Errorf("frame 1 should not log, got %q", buf.String())
	}
	debugLog(log, debugLogEvery, stats)
	out := buf.String()
	if !strings.Contains(out, "frame stats") || !strings.Contains(out, "commands=1000") {
		t.Errorf("stats record = %q", out)
	}
	if !strings.Contains(out, "total=") {
		t.Errorf("expected a total in %q", out)
	}
}

func TestCountBatches(t *testing.T) {
	cmds := []DrawCommand{
		{Type: CommandPoint, Blend: BlendNormal},
		{Type: CommandPoint, Blend: BlendNormal},
		{Type: CommandPoint, Blend: BlendAdd},
		{Type: CommandLine},
		{Type: CommandPoint, Blend: BlendAdd},
		{Type: CommandLine},
		{Type: CommandLine},
	}
	// normal run, add run, line, add run, line, line
	if got := countBatches(cmds); got != 6 {
		t.Errorf("countBatches = %d, want 6", got)
	}
}

func TestCountBatches_Empty(t *testing.T) {
	if got := countBatches(nil); got != 0 {
		t.Errorf("countBatches(nil) = %d, want 0", got)
	}
}
