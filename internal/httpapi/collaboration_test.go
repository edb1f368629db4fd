package httpapi

import (
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/collaboration"
)

func newCollaborationEnv(t *testing.T) *testEnv {
	t.Helper()
	ws, err := collaboration.NewStore(filepath.Join(t.TempDir(), "collaboration"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return newTestEnv(t, WithCollaboration(ws))
}

func TestWorkspaceLifecycle(t *testing.T) {
	env := newCollaborationEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/collaboration/workspaces", nil)
	if all, _ := body["workspaces"].([]any); rec.Code != http.StatusOK || all == nil || len(all) != 0 {
		t.Fatalf("empty list: %d %v", rec.Code, body)
	}

	rec, body = env.do(t, http.MethodPost, "/api/collaboration/workspace", map[string]any{
		"name":    "Launch",
		"members": []string{"xuvemark", "xuvecast"},
	})
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("create: %d %v", rec.Code, body)
	}
	created, _ := body["workspace"].(map[string]any)
	id, _ := created["id"].(string)
	if !strings.HasPrefix(id, "ws-") {
		t.Fatalf("created id = %q, want ws- prefix", id)
	}
	if members, _ := created["members"].([]any); len(members) != 2 {
		t.Errorf("members = %v", created["members"])
	}
	if resources, _ := created["resources"].([]any); resources == nil || len(resources) != 0 {
		t.Errorf("resources = %v, want []", created["resources"])
	}

	rec, body = env.do(t, http.MethodPut, "/api/collaboration/workspace/"+id, map[string]any{"name": "Launch v2"})
	updated, _ := body["workspace"].(map[string]any)
	if rec.Code != http.StatusOK || updated["name"] != "Launch v2" {
		t.Fatalf("update: %d %v", rec.Code, body)
	}
	if members, _ := updated["members"].([]any); len(members) != 2 {
		t.Errorf("members after name-only update = %v, want kept", updated["members"])
	}

	rec, body = env.do(t, http.MethodPost, "/api/collaboration/workspace/"+id+"/resource", map[string]string{
		"name": "Press kit",
		"type": "document",
		"url":  "https://example.com/kit",
	})
	resource, _ := body["resource"].(map[string]any)
	if resID, _ := resource["id"].(string); rec.Code != http.StatusOK || !strings.HasPrefix(resID, "res-") {
		t.Fatalf("add resource: %d %v", rec.Code, body)
	}

	rec, body = env.do(t, http.MethodGet, "/api/collaboration/workspace/"+id, nil)
	got, _ := body["workspace"].(map[string]any)
	if resources, _ := got["resources"].([]any); rec.Code != http.StatusOK || len(resources) != 1 {
		t.Errorf("get: %d %v", rec.Code, body)
	}

	rec, body = env.do(t, http.MethodGet, "/api/collaboration/workspaces", nil)
	if all, _ := body["workspaces"].([]any); rec.Code != http.StatusOK || len(all) != 1 {
		t.Errorf("list: %d %v", rec.Code, body)
	}
}

func TestWorkspaceErrors(t *testing.T) {
	env := newCollaborationEnv(t)
	_, body := env.do(t, http.MethodPost, "/api/collaboration/workspace", map[string]string{"name": "Ops"})
	id := body["workspace"].(map[string]any)["id"].(string)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"create without name", http.MethodPost, "/api/collaboration/workspace", map[string]string{}, http.StatusBadRequest, "Missing workspace name"},
		{"create malformed", http.MethodPost, "/api/collaboration/workspace", "{", http.StatusBadRequest, ""},
		{"get unknown", http.MethodGet, "/api/collaboration/workspace/ws-20200101000000", nil, http.StatusNotFound, "Workspace not found"},
		{"update unknown", http.MethodPut, "/api/collaboration/workspace/ws-20200101000000", map[string]string{"name": "x"}, http.StatusNotFound, "Workspace not found"},
		{"resource unknown workspace", http.MethodPost, "/api/collaboration/workspace/ws-20200101000000/resource", map[string]string{"name": "x", "type": "y"}, http.StatusNotFound, "Workspace not found"},
		{"resource missing type", http.MethodPost, "/api/collaboration/workspace/" + id + "/resource", map[string]string{"name": "x"}, http.StatusBadRequest, "Missing resource name or type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := env.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", rec.Code, tt.wantStatus, body)
			}
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
		})
	}
}

func TestWorkspaceRoutes_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/api/collaboration/workspaces", nil)
	if rec.Code != http.StatusServiceUnavailable || body["error"] != "Collaboration is not enabled" {
		t.Errorf("%d %v", rec.Code, body)
	}
}
