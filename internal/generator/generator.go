// Package generator runs the background loops that keep the portal
// ecosystem moving: a fast loop recording synthetic activities and a slow
// loop proposing recommendations between portals.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// Loop names used in logs and metrics.
const (
	LoopActivity       = "activity"
	LoopRecommendation = "recommendation"
)

// Target is the part of the coordinator the generator drives.
type Target interface {
	PortalNames() []string
	RecordPortalActivity(ctx context.Context, name, description string) (models.Activity, error)
	CreateRecommendation(ctx context.Context, source, target string, typ models.RecommendationType, details string) (models.Recommendation, error)
}

// Observer counts loop iterations. *metrics.Collector implements it.
type Observer interface {
	GeneratorIteration(loop, outcome string)
}

// Sleeper pauses between iterations. Sleep returns early with ctx's error
// when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper sleeps on a real timer.
type TimerSleeper struct{}

// Sleep waits for d or until ctx is done.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config holds loop timing. Zero values are replaced by defaults.
type Config struct {
	ActivityMinInterval        time.Duration
	ActivityMaxInterval        time.Duration
	ActivityIdleBackoff        time.Duration
	ActivityErrorBackoff       time.Duration
	RecommendationMinInterval  time.Duration
	RecommendationMaxInterval  time.Duration
	RecommendationErrorBackoff time.Duration
	RecommendationProbability  float64

	// MaxIterations bounds each loop; 0 runs until cancelled.
	MaxIterations int
}

// DefaultConfig returns the standard loop timing.
func DefaultConfig() Config {
	return Config{
		ActivityMinInterval:        constants.ActivityMinInterval,
		ActivityMaxInterval:        constants.ActivityMaxInterval,
		ActivityIdleBackoff:        constants.ActivityIdleBackoff,
		ActivityErrorBackoff:       constants.ActivityErrorBackoff,
		RecommendationMinInterval:  constants.RecommendationMinInterval,
		RecommendationMaxInterval:  constants.RecommendationMaxInterval,
		RecommendationErrorBackoff: constants.RecommendationErrorBackoff,
		RecommendationProbability:  constants.RecommendationProbability,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ActivityMinInterval <= 0 {
		c.ActivityMinInterval = d.ActivityMinInterval
	}
	if c.ActivityMaxInterval < c.ActivityMinInterval {
		c.ActivityMaxInterval = max(d.ActivityMaxInterval, c.ActivityMinInterval)
	}
	if c.ActivityIdleBackoff <= 0 {
		c.ActivityIdleBackoff = d.ActivityIdleBackoff
	}
	if c.ActivityErrorBackoff <= 0 {
		c.ActivityErrorBackoff = d.ActivityErrorBackoff
	}
	if c.RecommendationMinInterval <= 0 {
		c.RecommendationMinInterval = d.RecommendationMinInterval
	}
	if c.RecommendationMaxInterval < c.RecommendationMinInterval {
		c.RecommendationMaxInterval = max(d.RecommendationMaxInterval, c.RecommendationMinInterval)
	}
	if c.RecommendationErrorBackoff <= 0 {
		c.RecommendationErrorBackoff = d.RecommendationErrorBackoff
	}
	if c.RecommendationProbability <= 0 || c.RecommendationProbability > 1 {
		c.RecommendationProbability = d.RecommendationProbability
	}
	return c
}

// Generator owns the two background loops.
type Generator struct {
	target   Target
	rng      evolution.Rand
	sleeper  Sleeper
	cfg      Config
	logger   *slog.Logger
	observer Observer
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source.
func WithRand(r evolution.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithSleeper sets how loops wait between iterations.
func WithSleeper(s Sleeper) Option {
	return func(g *Generator) {
		if s != nil {
			g.sleeper = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver sets the iteration observer.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

type nopObserver struct{}

func (nopObserver) GeneratorIteration(string, string) {}

// New creates a generator driving target.
func New(target Target, cfg Config, opts ...Option) *Generator {
	g := &Generator{
		target:   target,
		sleeper:  TimerSleeper{},
		cfg:      cfg.withDefaults(),
		logger:   logging.Discard(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = evolution.NewLockedRand(nil)
	}
	return g
}

// Tasks returns both loops for evolution.Coordinator.Initialize.
func (g *Generator) Tasks() []evolution.Task {
	return []evolution.Task{g.ActivityLoop, g.RecommendationLoop}
}

// ActivityLoop records a synthetic activity on a random portal every
// 1-5 seconds until ctx is cancelled.
func (g *Generator) ActivityLoop(ctx context.Context) error {
	g.logger.Info("activity generation started")
	return g.run(ctx, LoopActivity, g.activityStep, g.cfg.ActivityErrorBackoff)
}

// RecommendationLoop occasionally proposes a recommendation between two
// distinct portals until ctx is cancelled.
func (g *Generator) RecommendationLoop(ctx context.Context) error {
	g.logger.Info("recommendation generation started")
	return g.run(ctx, LoopRecommendation, g.recommendationStep, g.cfg.RecommendationErrorBackoff)
}

// step performs one iteration and returns how long to wait before the next.
type step func(ctx context.Context) (time.Duration, string, error)

func (g *Generator) run(ctx context.Context, loop string, fn step, backoff time.Duration) error {
	for i := 0; g.cfg.MaxIterations <= 0 || i < g.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, outcome, err := g.safeStep(ctx, fn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Error("generator iteration failed", "loop", loop, "error", err)
			wait, outcome = backoff, "error"
		}
		g.observer.GeneratorIteration(loop, outcome)

		if err := g.sleeper.Sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// safeStep runs fn, turning a panic into an error so the loop survives.
func (g *Generator) safeStep(ctx context.Context, fn step) (wait time.Duration, outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (g *Generator) activityStep(ctx context.Context) (time.Duration, string, error) {
	names := g.target.PortalNames()
	if len(names) == 0 {
		return g.cfg.ActivityIdleBackoff, "skipped", nil
	}

	name := names[g.rng.IntN(len(names))]
	desc := Describe(g.rng)
	if _, err := g.target.RecordPortalActivity(ctx, name, desc); err != nil {
		return 0, "", fmt.Errorf("recording activity for %s: %w", name, err)
	}
	g.logger.Log(ctx, logging.LevelTrace, "synthetic activity", "portal", name, "description", desc)

	return g.between(g.cfg.ActivityMinInterval, g.cfg.ActivityMaxInterval), "ok", nil
}

func (g *Generator) recommendationStep(ctx context.Context) (time.Duration, string, error) {
	wait := g.between(g.cfg.RecommendationMinInterval, g.cfg.RecommendationMaxInterval)
	if g.rng.Float64() >= g.cfg.RecommendationProbability {
		return wait, "skipped", nil
	}

	names := g.target.PortalNames()
	if len(names) < 2 {
		return g.cfg.RecommendationErrorBackoff, "skipped", nil
	}

	si := g.rng.IntN(len(names))
	source := names[si]
	ti := g.rng.IntN(len(names) - 1)
	if ti >= si {
		ti++
	}
	target := names[ti]
	typ := models.RecommendationTypes[g.rng.IntN(len(models.RecommendationTypes))]

	details := fmt.Sprintf("Consider %s for portal %s", typ, target)
	if _, err := g.target.CreateRecommendation(ctx, source, target, typ, details); err != nil {
		return 0, "", fmt.Errorf("creating recommendation %s -> %s: %w", source, target, err)
	}
	return wait, "ok", nil
}

func (g *Generator) between(lo, hi time.Duration) time.Duration {
	return time.Duration(evolution.Uniform(g.rng, float64(lo), float64(hi)))
}
