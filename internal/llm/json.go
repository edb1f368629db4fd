package llm

import (
	"encoding/json"
	"fmt"
)

// schemaInstruction renders schema as a system-prompt suffix.
func schemaInstruction(schema map[string]any) (string, error) {
	if len(schema) == 0 {
		return "", nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshaling schema: %w", err)
	}
	return " Use this schema: " + string(data), nil
}

// decodeObject parses a model response into a JSON object.
func decodeObject(response string) (map[string]any, error) {
	raw := ExtractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parsing JSON response: %w", err)
	}
	return out, nil
}
