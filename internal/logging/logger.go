// Package logging provides leveled logging and attempt auditing for dimsim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An AuditLogger for structured JSONL attempt records (.dimsim/audit.jsonl)
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
)

// LevelTrace is a custom slog level below Debug. At this level, full event
// payloads and per-axis deduction detail are included.
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
			// Label the custom trace level
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

// AuditLogger appends attempt records (generations, evaluations, submitted
// schema hashes) to a JSONL file. It is safe for concurrent use. A nil
// AuditLogger is safe to use; all methods are no-ops on nil receiver.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger creates an audit logger writing to dir/audit.jsonl.
// At "info" level (the default), returns nil and no file is created.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewAuditLogger(dir string, level string) *AuditLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "audit.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &AuditLogger{file: f}
}

// Log writes an attempt record as a single JSONL line. A "time" field is
// added automatically. The caller's map is not mutated. Safe to call on a
// nil receiver.
func (al *AuditLogger) Log(event map[string]any) {
	if al == nil || al.file == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	al.mu.Lock()
	defer al.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = al.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (al *AuditLogger) Close() {
	if al == nil || al.file == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.file.Close()
	al.file = nil
}
