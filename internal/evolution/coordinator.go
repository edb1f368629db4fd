// Package evolution coordinates the portal ecosystem: it owns every portal,
// the recommendation ledger and the background tasks, and decides when
// state is persisted.
package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/portal"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/store"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/tiering"
)

// Task is a background job started by Initialize. It must return when ctx
// is cancelled.
type Task func(ctx context.Context) error

// Observer receives coordinator events. *metrics.Collector implements it.
type Observer interface {
	ActivityRecorded(portal string)
	ScoreChanged(portal string, score float64, from, to models.Tier)
	RecommendationCreated(typ models.RecommendationType)
	RecommendationImplemented(typ models.RecommendationType, boost float64)
	SnapshotSaved(d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ActivityRecorded(string) {}
func (nopObserver) ScoreChanged(string, float64, models.Tier, models.Tier) {}
func (nopObserver) RecommendationCreated(models.RecommendationType) {}
func (nopObserver) RecommendationImplemented(models.RecommendationType, float64) {}
func (nopObserver) SnapshotSaved(time.Duration, error) {}

// ImplementResult is returned by ImplementRecommendation.
type ImplementResult struct {
	Success  bool        `json:"success"`
	Portal   string      `json:"portal"`
	NewStage models.Tier `json:"new_stage"`
	Boost    float64     `json:"boost"`
}

// Coordinator owns the portal registry and recommendation ledger.
// It is safe for concurrent use.
type Coordinator struct {
	mu          sync.RWMutex
	portals     map[string]*portal.Portal
	order       []string
	initialized bool

	ledger ledger
	saveMu sync.Mutex

	store      store.SnapshotStore
	identities []portal.Identity
	resolver   *tiering.Resolver
	historyCap int
	saveProb   float64

	rng      Rand
	now      func() time.Time
	logger   *slog.Logger
	journal  *logging.Journal
	observer Observer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithJournal sets the event journal. A nil journal disables it.
func WithJournal(j *logging.Journal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithRand sets the random source. It is wrapped for concurrent use.
func WithRand(r Rand) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.rng = NewLockedRand(r)
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSaveProbability sets the chance that a recorded activity persists a
// snapshot. Values are clamped to [0, 1].
func WithSaveProbability(p float64) Option {
	return func(c *Coordinator) {
		c.saveProb = min(max(p, 0), 1)
	}
}

// WithIdentities replaces the default 22-portal registry.
func WithIdentities(ids []portal.Identity) Option {
	return func(c *Coordinator) {
		c.identities = append([]portal.Identity(nil), ids...)
	}
}

// WithResolver sets the tier thresholds every portal uses.
func WithResolver(r *tiering.Resolver) Option {
	return func(c *Coordinator) { c.resolver = r }
}

// WithHistoryCapacity sets how many activities each portal retains.
func WithHistoryCapacity(n int) Option {
	return func(c *Coordinator) { c.historyCap = n }
}

// New creates a coordinator persisting through st. A nil store disables
// persistence. Portals are not built until Initialize.
func New(st store.SnapshotStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		portals:    make(map[string]*portal.Portal),
		store:      st,
		identities: portal.DefaultIdentities(),
		resolver:   tiering.Default(),
		historyCap: constants.DefaultActivityCapacity,
		saveProb:   constants.DefaultSaveProbability,
		now:        time.Now,
		logger:     logging.Discard(),
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = NewLockedRand(nil)
	}
	return c
}

// Initialize builds the portals, restores persisted scores and starts tasks.
// Calling it again is a no-op.
func (c *Coordinator) Initialize(ctx context.Context, tasks ...Task) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		c.logger.Info("evolution coordinator already initialized")
		return nil
	}

	for _, id := range c.identities {
		if _, dup := c.portals[id.Name]; dup {
			c.mu.Unlock()
			return fmt.Errorf("duplicate portal identity %q", id.Name)
		}
		c.portals[id.Name] = portal.New(id,
			portal.WithResolver(c.resolver),
			portal.WithClock(c.now),
			portal.WithHistoryCapacity(c.historyCap),
		)
		c.order = append(c.order, id.Name)
	}

	restored := c.restoreLocked(ctx)
	c.initialized = true

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info("evolution coordinator initialized",
		"portals", len(c.identities), "restored", restored, "tasks", len(tasks))

	for _, task := range tasks {
		c.wg.Add(1)
		go func(task Task) {
			defer c.wg.Done()
			if err := task(runCtx); err != nil && runCtx.Err() == nil {
				c.logger.Error("background task exited", "error", err)
			}
		}(task)
	}
	return nil
}

// restoreLocked loads the persisted snapshot. A missing snapshot leaves every
// portal at 0; a failed load is logged and ignored.
func (c *Coordinator) restoreLocked(ctx context.Context) int {
	if c.store == nil {
		return 0
	}
	snap, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Error("failed to load evolution snapshot, starting fresh", "error", err)
		return 0
	}
	if snap == nil {
		return 0
	}

	n := 0
	for name, ps := range snap.Portals {
		p, ok := c.portals[name]
		if !ok {
			c.logger.Debug("ignoring snapshot entry for unknown portal", "portal", name)
			continue
		}
		t := p.Restore(ps.Score)
		c.observer.ScoreChanged(name, t.NewScore, t.From, t.To)
		n++
	}
	return n
}

// Stop cancels background tasks, waits for them and saves a final snapshot.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
		}
	}

	return c.Save(ctx)
}

// Initialized reports whether Initialize has run.
func (c *Coordinator) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

func (c *Coordinator) lookup(name string) (*portal.Portal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.portals[name]
	return p, ok
}

// HasPortal reports whether name is registered.
func (c *Coordinator) HasPortal(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// PortalNames returns portal names in registration order.
func (c *Coordinator) PortalNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// RecordPortalActivity records an activity on the named portal and, with
// the configured probability, persists a snapshot.
func (c *Coordinator) RecordPortalActivity(ctx context.Context, name, description string) (models.Activity, error) {
	p, ok := c.lookup(name)
	if !ok {
		c.logger.Warn("activity for unknown portal", "portal", name)
		return models.Activity{}, fmt.Errorf("%s: %w", name, ErrPortalNotFound)
	}

	a, t := p.RecordActivity(description)
	c.observer.ActivityRecorded(name)
	c.noteTransition(name, t, "activity")
	c.logger.Log(ctx, logging.LevelTrace, "activity recorded", "portal", name, "description", description, "score", t.NewScore)

	if c.rng.Float64() < c.saveProb {
		if err := c.Save(ctx); err != nil {
			c.logger.Error("failed to save evolution snapshot", "error", err)
		}
	}
	return a, nil
}

// CreateRecommendation appends a pending recommendation. It does not
// validate its input; use ValidateRecommendation at the boundary.
func (c *Coordinator) CreateRecommendation(ctx context.Context, source, target string, typ models.RecommendationType, details string) (models.Recommendation, error) {
	rec := c.ledger.add(source, target, typ, details, c.now())
	c.observer.RecommendationCreated(typ)
	c.logger.Debug("recommendation created", "id", rec.ID, "source", source, "target", target, "type", typ)
	return rec, nil
}

// ImplementRecommendation marks a pending recommendation implemented and
// boosts its target portal. A recommendation whose target is not registered
// stays pending.
func (c *Coordinator) ImplementRecommendation(ctx context.Context, id string) (ImplementResult, error) {
	rec, ok := c.ledger.pending(id)
	if !ok {
		return ImplementResult{}, fmt.Errorf("%s: %w", id, ErrRecommendationNotFound)
	}

	p, ok := c.lookup(rec.TargetPortal)
	if !ok {
		c.logger.Warn("recommendation targets unknown portal", "id", id, "portal", rec.TargetPortal)
		return ImplementResult{}, fmt.Errorf("%s: %w", rec.TargetPortal, ErrPortalNotFound)
	}

	// A concurrent call may have won the flip since the lookup.
	rec, ok = c.ledger.markImplemented(id, c.now())
	if !ok {
		return ImplementResult{}, fmt.Errorf("%s: %w", id, ErrRecommendationNotFound)
	}

	boost := Uniform(c.rng, constants.MinImplementationBoost, constants.MaxImplementationBoost)
	t := p.Apply(boost)
	p.AppendActivity(fmt.Sprintf("Implemented recommendation '%s' from %s", rec.Type, rec.SourcePortal))

	c.observer.RecommendationImplemented(rec.Type, boost)
	c.noteTransition(rec.TargetPortal, t, "recommendation")
	c.journal.Record("recommendation_implemented", map[string]any{
		"id":     rec.ID,
		"portal": rec.TargetPortal,
		"source": rec.SourcePortal,
		"type":   string(rec.Type),
		"boost":  boost,
		"score":  t.NewScore,
	})
	c.logger.Info("recommendation implemented", "id", id, "portal", rec.TargetPortal, "boost", boost, "stage", t.To)

	if err := c.Save(ctx); err != nil {
		c.logger.Error("failed to save evolution snapshot", "error", err)
	}

	return ImplementResult{
		Success:  true,
		Portal:   rec.TargetPortal,
		NewStage: t.To,
		Boost:    boost,
	}, nil
}

func (c *Coordinator) noteTransition(name string, t portal.Transition, cause string) {
	c.observer.ScoreChanged(name, t.NewScore, t.From, t.To)
	if !t.Changed() {
		return
	}
	c.logger.Info("portal tier changed", "portal", name, "from", t.From, "to", t.To, "score", t.NewScore)
	c.journal.Record("tier_changed", map[string]any{
		"portal": name,
		"from":   string(t.From),
		"to":     string(t.To),
		"score":  t.NewScore,
		"cause":  cause,
	})
}

// PortalStatus returns the named portal's projection.
func (c *Coordinator) PortalStatus(name string) (models.PortalStatus, error) {
	p, ok := c.lookup(name)
	if !ok {
		return models.PortalStatus{}, fmt.Errorf("%s: %w", name, ErrPortalNotFound)
	}
	return p.Status(), nil
}

// RecentActivities returns up to limit retained activities for a portal,
// oldest first.
func (c *Coordinator) RecentActivities(name string, limit int) ([]models.Activity, error) {
	p, ok := c.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrPortalNotFound)
	}
	return p.RecentActivities(limit), nil
}

// AllStatuses returns every portal's projection keyed by name.
func (c *Coordinator) AllStatuses() map[string]models.PortalStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]models.PortalStatus, len(c.portals))
	for name, p := range c.portals {
		out[name] = p.Status()
	}
	return out
}

// RecommendationsFor returns recommendations targeting name, in ledger order.
func (c *Coordinator) RecommendationsFor(name string) []models.Recommendation {
	return c.ledger.forTarget(name)
}

// Recommendations returns the whole ledger.
func (c *Coordinator) Recommendations() []models.Recommendation {
	return c.ledger.all()
}

// RecommendationCounts returns the ledger size and how many are pending.
func (c *Coordinator) RecommendationCounts() (total, pending int) {
	return c.ledger.counts()
}

// Snapshot captures every portal's score and tier.
func (c *Coordinator) Snapshot() *store.Snapshot {
	now := c.now()
	snap := store.NewSnapshot(now)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, p := range c.portals {
		s := p.Status()
		snap.Portals[name] = store.PortalSnapshot{
			Score:       s.Score,
			Tier:        s.Tier,
			LastUpdated: now,
		}
	}
	return snap
}

// Save persists a snapshot now.
func (c *Coordinator) Save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if !c.Initialized() {
		return ErrNotInitialized
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	start := time.Now()
	err := c.store.Save(ctx, c.Snapshot())
	c.observer.SnapshotSaved(time.Since(start), err)
	if err != nil {
		c.journal.Record("snapshot_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("saving snapshot: %w", err)
	}
	c.logger.Debug("evolution snapshot saved")
	return nil
}

// Restore replaces portal scores from snap and, when recs is non-nil, the
// recommendation ledger. Portals missing from snap keep their score.
func (c *Coordinator) Restore(ctx context.Context, snap *store.Snapshot, recs []models.Recommendation) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	if snap != nil {
		c.mu.RLock()
		for name, ps := range snap.Portals {
			if p, ok := c.portals[name]; ok {
				t := p.Restore(ps.Score)
				c.observer.ScoreChanged(name, t.NewScore, t.From, t.To)
			}
		}
		c.mu.RUnlock()
	}
	if recs != nil {
		c.ledger.restore(recs)
	}
	c.logger.Info("evolution state restored", "recommendations", len(recs))
	return c.Save(ctx)
}
