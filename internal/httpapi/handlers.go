package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/llm"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/sanitize"
)

const (
	defaultActivityLimit = 20
	defaultAITokens      = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, nil)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	providers := map[string]bool{}
	if s.ai != nil {
		providers = s.ai.Availability()
	}
	writeOK(w, object{
		"version":       s.version,
		"portal_system": s.engine != nil,
		"ai_providers":  providers,
	})
}

func (s *Server) handleAllPortals(w http.ResponseWriter, r *http.Request) {
	writeOK(w, object{"portals": s.engine.AllStatuses()})
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.PortalStatus(sanitize.PortalName(mux.Vars(r)["name"]))
	if err != nil {
		writeError(w, http.StatusNotFound, "Portal not found")
		return
	}
	writeOK(w, object{"portal": status})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	name := sanitize.PortalName(mux.Vars(r)["name"])

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	status, err := s.engine.PortalStatus(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "Portal not found")
		return
	}
	activities, err := s.engine.RecentActivities(name, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, "Portal not found")
		return
	}
	writeOK(w, object{
		"portal_name":      name,
		"activities":       activities,
		"activities_count": status.ActivityCount,
	})
}

func (s *Server) handleRecommendationsFor(w http.ResponseWriter, r *http.Request) {
	name := sanitize.PortalName(mux.Vars(r)["name"])
	writeOK(w, object{
		"portal_name":     name,
		"recommendations": s.engine.RecommendationsFor(name),
	})
}

type createRecommendationRequest struct {
	SourcePortal string `json:"source_portal"`
	TargetPortal string `json:"target_portal"`
	Type         string `json:"type"`
	Details      string `json:"details"`
}

func (s *Server) handleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req createRecommendationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := sanitize.PortalName(req.SourcePortal)
	target := sanitize.PortalName(req.TargetPortal)
	if err := evolution.ValidateRecommendation(source, target, req.Type, s.engine.HasPortal); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.engine.CreateRecommendation(r.Context(), source, target,
		models.RecommendationType(strings.TrimSpace(req.Type)),
		sanitize.Details(req.Details))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOK(w, object{"recommendation": rec})
}

type implementRequest struct {
	RecommendationID string `json:"recommendation_id"`
}

func (s *Server) handleImplement(w http.ResponseWriter, r *http.Request) {
	var req implementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RecommendationID) == "" {
		writeError(w, http.StatusBadRequest, "Missing recommendation_id")
		return
	}

	result, err := s.engine.ImplementRecommendation(r.Context(), strings.TrimSpace(req.RecommendationID))
	if err != nil {
		msg := err.Error()
		if errors.Is(err, evolution.ErrRecommendationNotFound) {
			msg = evolution.ErrRecommendationNotFound.Error()
		}
		writeFailure(w, http.StatusBadRequest, msg)
		return
	}
	writeOK(w, object{"result": result})
}

type recordActivityRequest struct {
	PortalName string `json:"portal_name"`
	Activity   string `json:"activity"`
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req recordActivityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := sanitize.PortalName(req.PortalName)
	activity := sanitize.ActivityDescription(req.Activity)
	if name == "" || activity == "" {
		writeError(w, http.StatusBadRequest, "Missing portal_name or activity")
		return
	}

	a, err := s.engine.RecordPortalActivity(r.Context(), name, activity)
	if err != nil {
		s.logger.Debug("record activity failed", "portal", req.PortalName, "error", err)
		writeFailure(w, http.StatusBadRequest, "Failed to record activity")
		return
	}
	writeOK(w, object{"activity": a})
}

type reportRequest struct {
	ReportType string `json:"report_type"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Reports are not enabled")
		return
	}
	var req reportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Generate(r.Context(), sanitize.PortalName(mux.Vars(r)["name"]), req.ReportType)
	if err != nil {
		if errors.Is(err, evolution.ErrPortalNotFound) {
			writeError(w, http.StatusNotFound, "Portal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, object{"report": rep})
}

type generateRequest struct {
	Prompt    string         `json:"prompt"`
	Provider  string         `json:"provider"`
	UseCase   string         `json:"use_case"`
	MaxTokens int            `json:"max_tokens"`
	Schema    map[string]any `json:"schema"`
}

// parseGenerate decodes and validates an AI request, writing the error
// response itself. ok is false when the handler should return.
func (s *Server) parseGenerate(w http.ResponseWriter, r *http.Request) (llm.Request, bool) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return llm.Request{}, false
	}
	prompt := sanitize.Prompt(req.Prompt)
	if strings.TrimSpace(prompt) == "" {
		writeError(w, http.StatusBadRequest, "Missing prompt")
		return llm.Request{}, false
	}
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "No AI service available")
		return llm.Request{}, false
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultAITokens
	}
	return llm.Request{
		Prompt:    prompt,
		Provider:  req.Provider,
		UseCase:   req.UseCase,
		MaxTokens: req.MaxTokens,
		Schema:    req.Schema,
	}, true
}

func (s *Server) aiError(w http.ResponseWriter, err error) {
	if errors.Is(err, llm.ErrNoProvider) {
		writeError(w, http.StatusServiceUnavailable, "No AI service available")
		return
	}
	s.logger.Error("AI request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseGenerate(w, r)
	if !ok {
		return
	}
	res, err := s.ai.GenerateText(r.Context(), req)
	if err != nil {
		s.aiError(w, err)
		return
	}
	writeOK(w, object{"text": res.Text, "provider": res.Provider, "degraded": res.Degraded})
}

func (s *Server) handleGenerateJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseGenerate(w, r)
	if !ok {
		return
	}
	res, err := s.ai.GenerateJSON(r.Context(), req)
	if err != nil {
		s.aiError(w, err)
		return
	}
	writeOK(w, object{"result": res.Result, "provider": res.Provider, "degraded": res.Degraded})
}
