package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/portal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedRand replays fixed draws; an exhausted script yields zero.
type scriptedRand struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

// recordingSleeper records requested waits without sleeping. When cancelAt
// is positive it cancels after that many sleeps.
type recordingSleeper struct {
	mu       sync.Mutex
	waits    []time.Duration
	cancelAt int
	cancel   context.CancelFunc
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	n := len(s.waits)
	s.mu.Unlock()

	if s.cancelAt > 0 && n >= s.cancelAt && s.cancel != nil {
		s.cancel()
	}
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

type activityCall struct{ name, desc string }

type recCall struct {
	source, target string
	typ            models.RecommendationType
	details        string
}

// fakeTarget records calls. failActivity makes every activity fail;
// panicOnce panics on the first activity.
type fakeTarget struct {
	mu           sync.Mutex
	names        []string
	activities   []activityCall
	recs         []recCall
	failActivity bool
	panicOnce    bool
}

func (f *fakeTarget) PortalNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func (f *fakeTarget) RecordPortalActivity(ctx context.Context, name, desc string) (models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnce {
		f.panicOnce = false
		panic("portal exploded")
	}
	if f.failActivity {
		return models.Activity{}, errors.New("store offline")
	}
	f.activities = append(f.activities, activityCall{name, desc})
	return models.Activity{Description: desc}, nil
}

func (f *fakeTarget) CreateRecommendation(ctx context.Context, source, target string, typ models.RecommendationType, details string) (models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, recCall{source, target, typ, details})
	return models.Recommendation{}, nil
}

func TestDescribe(t *testing.T) {
	r := &scriptedRand{ints: []int{0, 0, 0}}
	if got := Describe(r); got != "Analyzing metrics for API services" {
		t.Errorf("Describe() = %q", got)
	}

	r = &scriptedRand{ints: []int{19, len(targets) - 1, 19}}
	if got := Describe(r); got != "Creating ROI projections for data analytics" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestVocabularySizes(t *testing.T) {
	if len(actions) != 20 || len(contexts) != 20 {
		t.Errorf("actions=%d contexts=%d, want 20 each", len(actions), len(contexts))
	}
	if len(targets) != 59 {
		t.Errorf("targets=%d, want 59", len(targets))
	}
}

func TestActivityLoop_BoundedIterations(t *testing.T) {
	target := &fakeTarget{names: []string{"xuvemark", "xuvebanker", "xuvecode"}}
	// Per iteration: portal, action, target, context.
	rng := &scriptedRand{
		ints:   []int{1, 0, 0, 0, 2, 1, 1, 1, 0, 2, 2, 2},
		floats: []float64{0, 0.5, 1},
	}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 3}, WithRand(rng), WithSleeper(sleeper))
	if err := g.ActivityLoop(context.Background()); err != nil {
		t.Fatalf("ActivityLoop() error = %v", err)
	}

	if len(target.activities) != 3 {
		t.Fatalf("activities = %d, want 3", len(target.activities))
	}
	wantNames := []string{"xuvebanker", "xuvecode", "xuvemark"}
	for i, call := range target.activities {
		if call.name != wantNames[i] {
			t.Errorf("activity %d portal = %s, want %s", i, call.name, wantNames[i])
		}
		if len(strings.Fields(call.desc)) < 3 {
			t.Errorf("activity %d description = %q", i, call.desc)
		}
	}
	if target.activities[0].desc != "Analyzing metrics for API services" {
		t.Errorf("first description = %q", target.activities[0].desc)
	}

	want := []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}
	got := sleeper.recorded()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestActivityLoop_NoPortalsIdles(t *testing.T) {
	target := &fakeTarget{}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 2}, WithRand(&scriptedRand{}), WithSleeper(sleeper))
	g.ActivityLoop(context.Background())

	for _, w := range sleeper.recorded() {
		if w != 10*time.Second {
			t.Errorf("idle wait = %v, want 10s", w)
		}
	}
}

func TestActivityLoop_ErrorsDoNotStopLoop(t *testing.T) {
	target := &fakeTarget{names: []string{"xuvemark"}, failActivity: true}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 4}, WithRand(&scriptedRand{}), WithSleeper(sleeper))
	if err := g.ActivityLoop(context.Background()); err != nil {
		t.Fatalf("ActivityLoop() error = %v", err)
	}

	got := sleeper.recorded()
	if len(got) != 4 {
		t.Fatalf("iterations = %d, want 4", len(got))
	}
	for _, w := range got {
		if w != 10*time.Second {
			t.Errorf("backoff = %v, want 10s", w)
		}
	}
}

func TestActivityLoop_RecoversPanic(t *testing.T) {
	target := &fakeTarget{names: []string{"xuvemark"}, panicOnce: true}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 2}, WithRand(&scriptedRand{}), WithSleeper(sleeper))
	if err := g.ActivityLoop(context.Background()); err != nil {
		t.Fatalf("ActivityLoop() error = %v", err)
	}

	got := sleeper.recorded()
	if len(got) != 2 || got[0] != 10*time.Second {
		t.Errorf("waits = %v, want 10s backoff after panic", got)
	}
	if len(target.activities) != 1 {
		t.Errorf("activities = %d, want 1 after recovery", len(target.activities))
	}
}

func TestActivityLoop_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := &fakeTarget{names: []string{"xuvemark"}}
	sleeper := &recordingSleeper{cancelAt: 3, cancel: cancel}

	g := New(target, Config{}, WithRand(&scriptedRand{}), WithSleeper(sleeper))
	err := g.ActivityLoop(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ActivityLoop() error = %v, want context.Canceled", err)
	}
	if len(target.activities) != 3 {
		t.Errorf("activities = %d, want 3", len(target.activities))
	}
}

func TestRecommendationLoop_Creates(t *testing.T) {
	target := &fakeTarget{names: []string{"xuvemark", "xuvebanker", "xuvecode"}}
	// Floats: wait draw, probability draw. Ints: source, target among the rest, type.
	rng := &scriptedRand{
		floats: []float64{0, 0.05},
		ints:   []int{1, 1, 3},
	}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 1}, WithRand(rng), WithSleeper(sleeper))
	if err := g.RecommendationLoop(context.Background()); err != nil {
		t.Fatalf("RecommendationLoop() error = %v", err)
	}

	if len(target.recs) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(target.recs))
	}
	rec := target.recs[0]
	if rec.source != "xuvebanker" || rec.target != "xuvecode" {
		t.Errorf("recommendation %s -> %s, want xuvebanker -> xuvecode", rec.source, rec.target)
	}
	if rec.typ != models.RecommendationResourceAllocation {
		t.Errorf("type = %s, want Resource Allocation", rec.typ)
	}
	if rec.details != "Consider Resource Allocation for portal xuvecode" {
		t.Errorf("details = %q", rec.details)
	}
	if got := sleeper.recorded(); got[0] != 30*time.Second {
		t.Errorf("wait = %v, want 30s", got[0])
	}
}

func TestRecommendationLoop_NeverSelfTargets(t *testing.T) {
	target := &fakeTarget{names: []string{"a", "b", "c", "d"}}
	g := New(target, Config{MaxIterations: 200, RecommendationProbability: 1},
		WithRand(evolution.NewSeededRand(7)), WithSleeper(&recordingSleeper{}))
	g.RecommendationLoop(context.Background())

	if len(target.recs) != 200 {
		t.Fatalf("recommendations = %d, want 200", len(target.recs))
	}
	for _, r := range target.recs {
		if r.source == r.target {
			t.Fatalf("self-targeted recommendation %+v", r)
		}
	}
}

func TestRecommendationLoop_SkipsMostIterations(t *testing.T) {
	target := &fakeTarget{names: []string{"a", "b"}}
	rng := &scriptedRand{floats: []float64{1, 0.5, 1, 0.99}}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 2}, WithRand(rng), WithSleeper(sleeper))
	g.RecommendationLoop(context.Background())

	if len(target.recs) != 0 {
		t.Errorf("recommendations = %d, want 0", len(target.recs))
	}
	for _, w := range sleeper.recorded() {
		if w != 120*time.Second {
			t.Errorf("wait = %v, want 120s", w)
		}
	}
}

func TestRecommendationLoop_FewerThanTwoPortals(t *testing.T) {
	target := &fakeTarget{names: []string{"solo"}}
	sleeper := &recordingSleeper{}

	g := New(target, Config{MaxIterations: 1, RecommendationProbability: 1},
		WithRand(&scriptedRand{}), WithSleeper(sleeper))
	g.RecommendationLoop(context.Background())

	if len(target.recs) != 0 {
		t.Errorf("recommendations = %d, want 0", len(target.recs))
	}
	if got := sleeper.recorded(); got[0] != 30*time.Second {
		t.Errorf("wait = %v, want 30s", got[0])
	}
}

func TestTimerSleeper(t *testing.T) {
	var s TimerSleeper
	if err := s.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := s.Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() on cancelled ctx error = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() did not return promptly on cancel")
	}
}

func TestTasks_DriveCoordinator(t *testing.T) {
	ctx := context.Background()
	c := evolution.New(nil,
		evolution.WithIdentities([]portal.Identity{
			portal.IdentityFor(models.ArchetypeMark),
			portal.IdentityFor(models.ArchetypeBanker),
		}),
		evolution.WithSaveProbability(0),
	)

	g := New(c, Config{MaxIterations: 5, RecommendationProbability: 1},
		WithRand(evolution.NewSeededRand(1)), WithSleeper(&recordingSleeper{}))

	if err := c.Initialize(ctx, g.Tasks()...); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		total, _ := c.RecommendationCounts()
		count := 0
		for _, s := range c.AllStatuses() {
			count += s.ActivityCount
		}
		if total == 5 && count == 5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("loops did not finish: recs=%d activities=%d", total, count)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
