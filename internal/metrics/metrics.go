// Package metrics exposes Prometheus collectors for the evolution service.
// Every Collector method is safe to call on a nil receiver, so callers can
// run without metrics by passing nil.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

const namespace = "lumaura"

// Collector owns a private registry and the service's collectors.
type Collector struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	activities      *prometheus.CounterVec
	portalScore     *prometheus.GaugeVec
	tierChanges     *prometheus.CounterVec
	recsCreated     *prometheus.CounterVec
	recsImplemented *prometheus.CounterVec
	boosts          prometheus.Histogram

	saves        *prometheus.CounterVec
	saveDuration prometheus.Histogram

	generatorIterations *prometheus.CounterVec
	aiRequests          *prometheus.CounterVec
	backups             *prometheus.CounterVec
}

// New creates a Collector with its own registry, including process and Go
// runtime collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),

		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "activities_total",
			Help:      "Activities recorded per portal.",
		}, []string{"portal"}),
		portalScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "evolution_score",
			Help:      "Current evolution score per portal.",
		}, []string{"portal"}),
		tierChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "tier_changes_total",
			Help:      "Tier transitions per portal and destination tier.",
		}, []string{"portal", "tier"}),
		recsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "created_total",
			Help:      "Recommendations created, by type.",
		}, []string{"type"}),
		recsImplemented: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "implemented_total",
			Help:      "Recommendations implemented, by type.",
		}, []string{"type"}),
		boosts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "boost",
			Help:      "Score boost applied when a recommendation is implemented.",
			Buckets:   prometheus.LinearBuckets(0.5, 0.25, 7),
		}),

		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Snapshot saves, by outcome.",
		}, []string{"success"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "save_duration_seconds",
			Help:      "Duration of snapshot saves.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),

		generatorIterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "iterations_total",
			Help:      "Background generator iterations, by loop and outcome.",
		}, []string{"loop", "outcome"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI provider requests, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "runs_total",
			Help:      "Backup runs, by outcome.",
		}, []string{"success"}),
	}

	c.registry.MustRegister(
		c.httpInFlight,
		c.httpRequests,
		c.httpDuration,
		c.activities,
		c.portalScore,
		c.tierChanges,
		c.recsCreated,
		c.recsImplemented,
		c.boosts,
		c.saves,
		c.saveDuration,
		c.generatorIterations,
		c.aiRequests,
		c.backups,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ActivityRecorded counts one activity for portal.
func (c *Collector) ActivityRecorded(portal string) {
	if c == nil {
		return
	}
	c.activities.WithLabelValues(portal).Inc()
}

// ScoreChanged records a portal's new score, and the tier move if any.
func (c *Collector) ScoreChanged(portal string, score float64, from, to models.Tier) {
	if c == nil {
		return
	}
	c.portalScore.WithLabelValues(portal).Set(score)
	if from != to {
		c.tierChanges.WithLabelValues(portal, string(to)).Inc()
	}
}

// RecommendationCreated counts a new recommendation.
func (c *Collector) RecommendationCreated(typ models.RecommendationType) {
	if c == nil {
		return
	}
	c.recsCreated.WithLabelValues(string(typ)).Inc()
}

// RecommendationImplemented counts an implementation and its boost.
func (c *Collector) RecommendationImplemented(typ models.RecommendationType, boost float64) {
	if c == nil {
		return
	}
	c.recsImplemented.WithLabelValues(string(typ)).Inc()
	c.boosts.Observe(boost)
}

// SnapshotSaved records a save attempt.
func (c *Collector) SnapshotSaved(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.saves.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	c.saveDuration.Observe(d.Seconds())
}

// GeneratorIteration counts a background loop iteration. outcome is one of
// "ok", "error" or "skipped".
func (c *Collector) GeneratorIteration(loop, outcome string) {
	if c == nil {
		return
	}
	c.generatorIterations.WithLabelValues(loop, outcome).Inc()
}

// AIRequest counts a provider call.
func (c *Collector) AIRequest(provider string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.aiRequests.WithLabelValues(provider, outcome).Inc()
}

// BackupCompleted counts a backup run.
func (c *Collector) BackupCompleted(err error) {
	if c == nil {
		return
	}
	c.backups.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
}

// HTTPStarted marks a request in flight and returns the func that completes
// it. route is the matched route template, not the raw path.
func (c *Collector) HTTPStarted() func(method, route string, status int) {
	if c == nil {
		return func(string, string, int) {}
	}
	start := time.Now()
	c.httpInFlight.Inc()
	return func(method, route string, status int) {
		c.httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		method = strings.ToUpper(method)
		c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
