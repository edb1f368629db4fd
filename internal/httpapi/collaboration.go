package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/collaboration"
)

// Workspaces is the collaboration surface the API exposes.
// *collaboration.Store implements it.
type Workspaces interface {
	List(ctx context.Context) ([]collaboration.Workspace, error)
	Get(ctx context.Context, id string) (collaboration.Workspace, error)
	Create(ctx context.Context, name string, members []string) (collaboration.Workspace, error)
	Update(ctx context.Context, id string, u collaboration.Update) (collaboration.Workspace, error)
	AddResource(ctx context.Context, id, name, typ, url string) (collaboration.Resource, error)
}

// WithCollaboration enables the workspace routes. Without a store they answer 503.
func WithCollaboration(w Workspaces) Option {
	return func(s *Server) { s.workspaces = w }
}

// writeWorkspaceError maps store errors to the API's payloads.
func (s *Server) writeWorkspaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collaboration.ErrWorkspaceNotFound):
		writeError(w, http.StatusNotFound, "Workspace not found")
	case errors.Is(err, collaboration.ErrMissingName):
		writeError(w, http.StatusBadRequest, "Missing workspace name")
	case errors.Is(err, collaboration.ErrMissingResourceField):
		writeError(w, http.StatusBadRequest, "Missing resource name or type")
	default:
		s.logger.Error("workspace operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Workspace storage failed")
	}
}

func (s *Server) collaborationEnabled(w http.ResponseWriter) bool {
	if s.workspaces == nil {
		writeError(w, http.StatusServiceUnavailable, "Collaboration is not enabled")
		return false
	}
	return true
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	if !s.collaborationEnabled(w) {
		return
	}
	all, err := s.workspaces.List(r.Context())
	if err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	writeOK(w, object{"workspaces": all})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	if !s.collaborationEnabled(w) {
		return
	}
	ws, err := s.workspaces.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	writeOK(w, object{"workspace": ws})
}

type createWorkspaceRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	if !s.collaborationEnabled(w) {
		return
	}
	var req createWorkspaceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ws, err := s.workspaces.Create(r.Context(), req.Name, req.Members)
	if err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	writeOK(w, object{"workspace": ws})
}

func (s *Server) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	if !s.collaborationEnabled(w) {
		return
	}
	var req collaboration.Update
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ws, err := s.workspaces.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	writeOK(w, object{"workspace": ws})
}

type addResourceRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (s *Server) handleAddResource(w http.ResponseWriter, r *http.Request) {
	if !s.collaborationEnabled(w) {
		return
	}
	var req addResourceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.workspaces.AddResource(r.Context(), mux.Vars(r)["id"], req.Name, req.Type, req.URL)
	if err != nil {
		s.writeWorkspaceError(w, err)
		return
	}
	writeOK(w, object{"resource": res})
}
