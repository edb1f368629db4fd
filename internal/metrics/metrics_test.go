package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	c.ActivityRecorded("xuvemark")
	c.ScoreChanged("xuvemark", 1, models.TierBasic, models.TierAdvanced)
	c.RecommendationCreated(models.RecommendationCollaboration)
	c.RecommendationImplemented(models.RecommendationCollaboration, 1)
	c.SnapshotSaved(time.Millisecond, nil)
	c.GeneratorIteration("activity", "ok")
	c.AIRequest("openai", nil)
	c.BackupCompleted(nil)
	c.HTTPStarted()("GET", "/api/status", 200)

	if c.Registry() != nil {
		t.Error("nil Collector Registry() should be nil")
	}
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil Collector Handler() status = %d, want 404", rec.Code)
	}
}

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.ActivityRecorded("xuvemark")
	c.ActivityRecorded("xuvemark")
	if got := testutil.ToFloat64(c.activities.WithLabelValues("xuvemark")); got != 2 {
		t.Errorf("activities_total = %v, want 2", got)
	}

	c.ScoreChanged("xuvemark", 12.5, models.TierBasic, models.TierBasic)
	c.ScoreChanged("xuvemark", 45, models.TierBasic, models.TierAdvanced)
	if got := testutil.ToFloat64(c.portalScore.WithLabelValues("xuvemark")); got != 45 {
		t.Errorf("evolution_score = %v, want 45", got)
	}
	if got := testutil.ToFloat64(c.tierChanges.WithLabelValues("xuvemark", "Advanced")); got != 1 {
		t.Errorf("tier_changes_total = %v, want 1", got)
	}

	c.SnapshotSaved(time.Millisecond, nil)
	c.SnapshotSaved(time.Millisecond, errors.New("disk full"))
	if got := testutil.ToFloat64(c.saves.WithLabelValues("false")); got != 1 {
		t.Errorf("failed saves = %v, want 1", got)
	}

	c.AIRequest("gemini", errors.New("quota"))
	if got := testutil.ToFloat64(c.aiRequests.WithLabelValues("gemini", "error")); got != 1 {
		t.Errorf("ai errors = %v, want 1", got)
	}
}

func TestCollector_HTTP(t *testing.T) {
	c := New()

	done := c.HTTPStarted()
	if got := testutil.ToFloat64(c.httpInFlight); got != 1 {
		t.Errorf("inflight = %v, want 1", got)
	}
	done("get", "/api/portal-evolution/portal/{name}", 404)
	if got := testutil.ToFloat64(c.httpInFlight); got != 0 {
		t.Errorf("inflight after done = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/portal-evolution/portal/{name}", "404")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `lumaura_http_requests_total{method="GET",route="/api/portal-evolution/portal/{name}",status="404"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics output missing %s:\n%s", want, rec.Body.String())
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.RecommendationCreated(models.RecommendationSystemUpgrade)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `lumaura_recommendations_created_total{type="System Upgrade"} 1`) {
		t.Errorf("metrics output missing recommendation counter:\n%s", rec.Body.String())
	}
}
