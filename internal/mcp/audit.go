package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditFile is the audit log's name inside the data directory.
const AuditFile = "audit.jsonl"

// AuditEntry records one MCP tool invocation. It captures metadata about the
// call without its free-text content.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"` // sanitized metadata only
}

// AuditLogger appends audit entries to a JSONL file. It is safe for
// concurrent use. A nil AuditLogger is safe to use; all methods are no-ops
// on nil receiver.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for append. It returns nil when dir
// is empty, and prints a warning and returns nil when the file cannot be
// opened.
func NewAuditLogger(dir string) *AuditLogger {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create audit log directory %s: %v\n", dir, err)
		return nil
	}

	path := filepath.Join(dir, AuditFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open audit log %s: %v\n", path, err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as one JSON line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	_, _ = a.file.Write(append(data, '\n'))
}

// Close closes the log file. Later calls to Log are dropped.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Parameters whose values are safe to log. Portal names, ids and types are
// identifiers, never user content.
var safeValueParams = map[string]bool{
	"name":              true,
	"source_portal":     true,
	"target_portal":     true,
	"type":              true,
	"recommendation_id": true,
	"limit":             true,
}

// Parameters logged as "(set)": free text and filesystem paths.
var presenceOnlyParams = map[string]bool{
	"activity":    true,
	"details":     true,
	"output_path": true,
}

// sanitizeToolParams keeps the values of safe params, marks presence-only
// params as "(set)" when non-empty, and drops everything else. A
// "_param_count" key is always included.
func sanitizeToolParams(params map[string]interface{}) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string)
	for key, val := range params {
		switch {
		case safeValueParams[key]:
			result[key] = fmt.Sprintf("%v", val)
		case presenceOnlyParams[key]:
			if s, ok := val.(string); ok && s == "" {
				continue
			}
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", len(params))
	return result
}

// auditTool logs a tool invocation.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]string) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}

	s.auditLogger.Log(AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     status,
		Error:      errMsg,
		Params:     params,
	})
}
