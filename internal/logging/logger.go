// Package logging provides leveled logging and frame tracing for sliptrace.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A FrameLogger for per-step JSONL records (.sliptrace/frames.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/sliptrace/internal/constants"
)

// LevelTrace is a custom slog level below Debug.
// At this level every simulation step is also logged to stderr.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FrameRecord is one simulation step as written to the frame log.
type FrameRecord struct {
	Run      string  `json:"run"`
	Step     int     `json:"step"`
	Z        float64 `json:"z"`
	Friction float64 `json:"friction"`
	Pixel    int     `json:"pixel"`
	Token    string  `json:"token,omitempty"`
	Time     string  `json:"time"`
}

// FrameLogger appends FrameRecords to a JSONL file.
// It is safe for concurrent use. A nil FrameLogger is safe to use;
// all methods are no-ops on nil receiver.
type FrameLogger struct {
	mu   sync.Mutex
	file *os.File
	run  string
}

// NewFrameLogger creates a frame logger writing to dir/frames.jsonl.
// At "info" level (the default), returns nil and no file is created.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewFrameLogger(dir string, level string) *FrameLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, constants.FrameLogFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &FrameLogger{
		file: f,
		run:  time.Now().UTC().Format("20060102T150405.000000000Z"),
	}
}

// Run returns the label stamped on every record from this logger.
func (fl *FrameLogger) Run() string {
	if fl == nil {
		return ""
	}
	return fl.run
}

// Record writes one frame as a single JSONL line. Run and Time are filled in.
// Safe to call on nil receiver.
func (fl *FrameLogger) Record(rec FrameRecord) {
	if fl == nil {
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return
	}

	rec.Run = fl.run
	rec.Time = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = fl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (fl *FrameLogger) Close() {
	if fl == nil {
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return
	}
	fl.file.Close()
	fl.file = nil
}
