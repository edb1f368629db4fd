package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
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
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"warn filters info", "warn", false, false},
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, "text", &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "json", &buf)
	logger.Info("portal evolved", "portal", "xuvemark")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output not parseable: %v (buf: %q)", err, buf.String())
	}
	if entry["portal"] != "xuvemark" {
		t.Errorf("portal = %v, want xuvemark", entry["portal"])
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", "text", &buf)
	logger.Log(context.Background(), LevelTrace, "prompt body")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("trace output = %q, want level=TRACE", buf.String())
	}
}

func TestOpenJournal_EmptyDir(t *testing.T) {
	j := OpenJournal("")
	if j != nil {
		t.Fatal("expected nil Journal for empty dir")
	}

	// Nil journal should still be safe to use
	j.Record("tier_changed", map[string]any{"portal": "xuvemark"})
	j.Close()
}

func TestJournal_Record(t *testing.T) {
	dir := t.TempDir()
	j := OpenJournal(dir)
	if j == nil {
		t.Fatal("OpenJournal returned nil")
	}
	defer j.Close()

	fields := map[string]any{"portal": "xuvemark", "score": 41.2}
	j.Record("tier_changed", fields)
	j.Record("snapshot_saved", nil)

	if _, ok := fields["event"]; ok {
		t.Error("Record mutated caller's map")
	}

	f, err := os.Open(filepath.Join(dir, JournalFile))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer f.Close()

	var events []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line not JSON: %v", err)
		}
		events = append(events, e)
	}

	if len(events) != 2 {
		t.Fatalf("journal lines = %d, want 2", len(events))
	}
	if events[0]["event"] != "tier_changed" || events[0]["portal"] != "xuvemark" {
		t.Errorf("first event = %v", events[0])
	}
	if _, ok := events[1]["time"]; !ok {
		t.Error("event missing time field")
	}
}

func TestJournal_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	j := OpenJournal(dir)
	defer j.Close()

	j.Record("perm_test", nil)

	info, err := os.Stat(filepath.Join(dir, JournalFile))
	if err != nil {
		t.Fatalf("failed to stat journal: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestJournal_RecordAfterClose(t *testing.T) {
	j := OpenJournal(t.TempDir())
	j.Close()
	j.Record("ignored", nil)
	j.Close()
}
