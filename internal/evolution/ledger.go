package evolution

import (
	"strconv"
	"sync"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// ledger is the append-only list of recommendations. Id assignment and the
// pending -> implemented flip both happen under mu.
type ledger struct {
	mu   sync.Mutex
	recs []models.Recommendation
}

func (l *ledger) add(source, target string, typ models.RecommendationType, details string, now time.Time) models.Recommendation {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := models.Recommendation{
		ID:           constants.RecommendationIDPrefix + strconv.Itoa(len(l.recs)+1),
		SourcePortal: source,
		TargetPortal: target,
		Type:         typ,
		Details:      details,
		Status:       models.RecommendationPending,
		CreatedAt:    now,
	}
	l.recs = append(l.recs, rec)
	return rec
}

// pending returns a copy of the pending recommendation with id.
func (l *ledger) pending(id string) (models.Recommendation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.recs {
		if r.ID == id && r.Pending() {
			return copyRec(r), true
		}
	}
	return models.Recommendation{}, false
}

// markImplemented flips the first pending recommendation with id and
// returns a copy of it.
func (l *ledger) markImplemented(id string, now time.Time) (models.Recommendation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.recs {
		if l.recs[i].ID != id || !l.recs[i].Pending() {
			continue
		}
		at := now
		l.recs[i].Status = models.RecommendationImplemented
		l.recs[i].ImplementedAt = &at
		return copyRec(l.recs[i]), true
	}
	return models.Recommendation{}, false
}

func (l *ledger) forTarget(name string) []models.Recommendation {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Recommendation, 0)
	for _, r := range l.recs {
		if r.TargetPortal == name {
			out = append(out, copyRec(r))
		}
	}
	return out
}

func (l *ledger) all() []models.Recommendation {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Recommendation, len(l.recs))
	for i, r := range l.recs {
		out[i] = copyRec(r)
	}
	return out
}

// restore replaces the ledger, e.g. from a backup.
func (l *ledger) restore(recs []models.Recommendation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recs = make([]models.Recommendation, len(recs))
	for i, r := range recs {
		l.recs[i] = copyRec(r)
	}
}

func (l *ledger) counts() (total, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.recs {
		if r.Pending() {
			pending++
		}
	}
	return len(l.recs), pending
}

func copyRec(r models.Recommendation) models.Recommendation {
	if r.ImplementedAt != nil {
		at := *r.ImplementedAt
		r.ImplementedAt = &at
	}
	return r
}
