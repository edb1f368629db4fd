// Package portal implements the portal entity: an evolution score with its
// derived tier and capabilities, plus a bounded activity history.
package portal

import (
	"math"
	"sync"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/tiering"
)

// Transition describes the effect of a single score change.
type Transition struct {
	OldScore float64
	NewScore float64
	From     models.Tier
	To       models.Tier
}

// Changed reports whether the tier moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Portal is a single evolving portal. All methods are safe for concurrent use;
// score, tier and capabilities are always updated together under one lock.
type Portal struct {
	mu sync.RWMutex

	identity     Identity
	score        float64
	tier         models.Tier
	capabilities map[models.Capability]bool
	history      *history
	lastActivity *models.Activity
	createdAt    time.Time

	resolver *tiering.Resolver
	now      func() time.Time
}

// Option configures a Portal at construction.
type Option func(*Portal)

// WithResolver overrides the score-to-tier resolver.
func WithResolver(r *tiering.Resolver) Option {
	return func(p *Portal) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithClock injects the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Portal) {
		if now != nil {
			p.now = now
		}
	}
}

// WithHistoryCapacity sets how many recent activities are retained.
func WithHistoryCapacity(n int) Option {
	return func(p *Portal) {
		p.history = newHistory(n)
	}
}

// New creates a portal at score 0.
func New(id Identity, opts ...Option) *Portal {
	p := &Portal{
		identity: id,
		resolver: tiering.Default(),
		now:      time.Now,
		history:  newHistory(constants.DefaultActivityCapacity),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.createdAt = p.now()
	p.tier = p.resolver.Resolve(p.score)
	p.capabilities = tiering.CapabilityFlags(id.Archetype, p.tier)
	return p
}

// Name returns the portal's stable identifier.
func (p *Portal) Name() string {
	return p.identity.Name
}

// Identity returns the portal's identity.
func (p *Portal) Identity() Identity {
	return p.identity
}

// Score returns the current evolution score.
func (p *Portal) Score() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.score
}

// Tier returns the current tier.
func (p *Portal) Tier() models.Tier {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tier
}

// UpdateScore adds delta to the score, clamps it to the score domain and
// re-resolves the tier. It returns the resulting tier.
func (p *Portal) UpdateScore(delta float64) models.Tier {
	return p.Apply(delta).To
}

// Apply is UpdateScore that also reports what changed.
func (p *Portal) Apply(delta float64) Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setScoreLocked(p.score + delta)
}

// Restore sets the score directly, e.g. from a persisted snapshot.
func (p *Portal) Restore(score float64) Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setScoreLocked(score)
}

func (p *Portal) setScoreLocked(score float64) Transition {
	t := Transition{OldScore: p.score, From: p.tier}

	if math.IsNaN(score) {
		score = p.score
	}
	p.score = clamp(score)
	newTier := p.resolver.Resolve(p.score)
	if newTier != p.tier {
		p.tier = newTier
		p.capabilities = tiering.CapabilityFlags(p.identity.Archetype, newTier)
	}

	t.NewScore = p.score
	t.To = p.tier
	return t
}

// RecordActivity appends an activity and nudges the score by
// constants.ActivityScoreIncrement.
func (p *Portal) RecordActivity(description string) (models.Activity, Transition) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a := p.appendLocked(description)
	t := p.setScoreLocked(p.score + constants.ActivityScoreIncrement)
	return a, t
}

// AppendActivity appends an activity without touching the score.
func (p *Portal) AppendActivity(description string) models.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appendLocked(description)
}

func (p *Portal) appendLocked(description string) models.Activity {
	a := models.Activity{Description: description, Timestamp: p.now()}
	p.history.append(a)
	last := a
	p.lastActivity = &last
	return a
}

// ActivityCount returns the total number of activities ever recorded.
func (p *Portal) ActivityCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history.total
}

// RecentActivities returns up to limit of the newest retained activities,
// oldest first. A limit <= 0 returns all retained activities.
func (p *Portal) RecentActivities(limit int) []models.Activity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history.recent(limit)
}

// Status returns a point-in-time projection of the portal.
func (p *Portal) Status() models.PortalStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	caps := make(map[models.Capability]bool, len(p.capabilities))
	for k, v := range p.capabilities {
		caps[k] = v
	}

	var last *models.Activity
	if p.lastActivity != nil {
		a := *p.lastActivity
		last = &a
	}

	return models.PortalStatus{
		Name:          p.identity.Name,
		DisplayName:   p.identity.DisplayName,
		Score:         p.score,
		Tier:          p.tier,
		Capabilities:  caps,
		LastActivity:  last,
		CreatedAt:     p.createdAt,
		ActivityCount: p.history.total,
	}
}

func clamp(score float64) float64 {
	if score < constants.MinScore {
		return constants.MinScore
	}
	if score > constants.MaxScore {
		return constants.MaxScore
	}
	return score
}
