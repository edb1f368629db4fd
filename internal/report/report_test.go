package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/llm"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/portal"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newCoordinator(t *testing.T) *evolution.Coordinator {
	t.Helper()
	c := evolution.New(nil, evolution.WithIdentities([]portal.Identity{
		portal.IdentityFor(models.ArchetypeBanker),
		portal.IdentityFor(models.ArchetypeMark),
		portal.IdentityFor(models.ArchetypeWell),
	}))
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { c.Stop(ctx) })
	return c
}

func TestUseCaseFor(t *testing.T) {
	tests := []struct {
		archetype models.Archetype
		want      string
	}{
		{models.ArchetypeBanker, llm.UseCaseFinancialAnalysis},
		{models.ArchetypeMark, llm.UseCaseMarketing},
		{models.ArchetypeSponsorship, llm.UseCaseMarketing},
		{models.ArchetypeCast, llm.UseCaseMarketing},
		{models.ArchetypeCode, llm.UseCaseCodeGeneration},
		{models.ArchetypeOps, llm.UseCaseCodeGeneration},
		{models.ArchetypeWell, llm.UseCaseContentCreation},
		{models.ArchetypeLegal, llm.UseCaseContentCreation},
	}
	for _, tt := range tests {
		t.Run(string(tt.archetype), func(t *testing.T) {
			if got := UseCaseFor(tt.archetype); got != tt.want {
				t.Errorf("UseCaseFor(%s) = %s, want %s", tt.archetype, got, tt.want)
			}
		})
	}
}

func TestGenerate_UsesProvider(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()
	c.RecordPortalActivity(ctx, "xuvebanker", "Reconciled ledger")

	mock := llm.NewMockProvider(llm.ProviderOpenAI).WithText("Quarterly outlook is strong.")
	g := New(c, llm.NewRouter([]llm.Provider{mock}), WithClock(func() time.Time { return fixedNow }))

	rep, err := g.Generate(ctx, "xuvebanker", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if rep.Synthetic || rep.Summary != "Quarterly outlook is strong." || rep.Provider != llm.ProviderOpenAI {
		t.Errorf("Generate() = %+v", rep)
	}
	if rep.ReportType != DefaultType || rep.DataPoints != 1 || !rep.GeneratedAt.Equal(fixedNow) {
		t.Errorf("Generate() metadata = %+v", rep)
	}
	if len(mock.Prompts) != 1 || !strings.Contains(mock.Prompts[0], "Reconciled ledger") {
		t.Errorf("prompt = %v, want recent activity included", mock.Prompts)
	}
}

func TestGenerate_SyntheticWithoutProvider(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ai   TextGenerator
	}{
		{"nil generator", nil},
		{"no available provider", llm.NewRouter(nil)},
		{"provider failure", llm.NewRouter([]llm.Provider{llm.NewMockProvider(llm.ProviderAnthropic).WithError(errors.New("boom"))})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := New(c, tt.ai).Generate(ctx, "xuvewell", "wellness")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if !rep.Synthetic || rep.Provider != "" {
				t.Errorf("Generate() = %+v, want synthetic", rep)
			}
			if rep.ReportType != "wellness" || rep.Stage != models.TierBasic {
				t.Errorf("Generate() = %+v", rep)
			}
			if !strings.Contains(rep.Summary, "Xuvewell wellness report") {
				t.Errorf("Summary = %q", rep.Summary)
			}
		})
	}
}

func TestGenerate_UnknownPortal(t *testing.T) {
	c := newCoordinator(t)
	_, err := New(c, nil).Generate(context.Background(), "xuvenope", "")
	if !errors.Is(err, evolution.ErrPortalNotFound) {
		t.Errorf("Generate() error = %v, want ErrPortalNotFound", err)
	}
}
