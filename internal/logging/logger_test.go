package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"unknown defaults to info", "bogus", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", &buf)
	logger.Debug("drawing config", "seed", int64(42))
	if !bytes.Contains(buf.Bytes(), []byte("drawing config")) {
		t.Errorf("debug output missing message: %s", buf.String())
	}

	buf.Reset()
	logger = NewLogger("info", &buf)
	logger.Debug("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info logger emitted debug output: %s", buf.String())
	}
}

func TestNewLoggerTraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(nil, LevelTrace, "full payload")
	if !bytes.Contains(buf.Bytes(), []byte("TRACE")) {
		t.Errorf("trace output not labeled: %s", buf.String())
	}
}

func TestAuditLoggerInfoLevelDisabled(t *testing.T) {
	dir := t.TempDir()
	if al := NewAuditLogger(dir, "info"); al != nil {
		t.Fatal("audit logger created at info level")
	}
	if _, err := os.Stat(filepath.Join(dir, "audit.jsonl")); !os.IsNotExist(err) {
		t.Error("audit file created at info level")
	}
}

func TestAuditLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	al := NewAuditLogger(dir, "debug")
	if al == nil {
		t.Fatal("NewAuditLogger returned nil at debug level")
	}
	al.Log(map[string]any{"action": "evaluate", "seed": 42})
	al.Log(map[string]any{"action": "explain", "seed": 42})
	al.Close()

	f, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		if entry["time"] == nil {
			t.Errorf("line %d missing time field", lines+1)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("audit file has %d lines, want 2", lines)
	}
}

func TestAuditLoggerNilSafe(t *testing.T) {
	var al *AuditLogger
	al.Log(map[string]any{"action": "noop"})
	al.Close()
}
