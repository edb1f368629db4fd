// Package logging provides leveled logging and an event journal.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A Journal for structured JSONL evolution events (tier changes,
//     recommendations, saves)
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

// LevelTrace is a custom slog level below Debug for full content logging.
// At this level, AI prompts/responses and generated activity text are included.
const LevelTrace = slog.LevelDebug - 4

// JournalFile is the journal's file name inside its directory.
const JournalFile = "events.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w. format selects the
// handler: "json" for JSON lines, anything else for logfmt-style text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
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
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Journal appends structured evolution events to a JSONL file.
// It is safe for concurrent use. A nil Journal is safe to use;
// all methods are no-ops on nil receiver.
type Journal struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJournal opens dir/events.jsonl for append. It returns nil when dir is
// empty or the file cannot be opened. All methods are nil-safe.
func OpenJournal(dir string) *Journal {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, JournalFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &Journal{file: f}
}

// Record writes one event as a single JSONL line. The "event" and "time"
// fields are added; the caller's map is not mutated.
// Safe to call on nil receiver.
func (j *Journal) Record(event string, fields map[string]any) {
	if j == nil || j.file == nil {
		return
	}

	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = event
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return
	}
	_, _ = j.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (j *Journal) Close() {
	if j == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		j.file.Close()
		j.file = nil
	}
}
