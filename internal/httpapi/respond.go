package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type object map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOK merges "status":"ok" into body.
func writeOK(w http.ResponseWriter, body object) {
	if body == nil {
		body = object{}
	}
	body["status"] = "ok"
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, object{"error": msg})
}

// writeFailure is the structured failure shape: "status":"error" plus error.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, object{"status": "error", "error": msg})
}

// decodeBody reads a JSON object into dst. An empty body leaves dst zeroed.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
