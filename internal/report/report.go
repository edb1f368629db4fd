// Package report builds AI-written portal reports, falling back to a
// synthetic summary when no provider can answer.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/llm"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/sanitize"
)

// DefaultType is used when no report type is requested.
const DefaultType = "summary"

const (
	reportMaxTokens    = 500
	promptActivityCap  = 10
	syntheticSummaryFm = "%s %s report generated from %d recorded activities"
)

// Source provides the portal state a report is built from.
type Source interface {
	PortalStatus(name string) (models.PortalStatus, error)
	RecentActivities(name string, limit int) ([]models.Activity, error)
}

// TextGenerator is satisfied by *llm.Router.
type TextGenerator interface {
	GenerateText(ctx context.Context, req llm.Request) (llm.TextResult, error)
}

// Report is a generated portal report.
type Report struct {
	Portal      string      `json:"portal"`
	ReportType  string      `json:"report_type"`
	GeneratedAt time.Time   `json:"generated_at"`
	DataPoints  int         `json:"data_points"`
	Summary     string      `json:"summary"`
	Stage       models.Tier `json:"evolution_stage"`
	Provider    string      `json:"provider,omitempty"`
	Synthetic   bool        `json:"synthetic"`
}

// UseCaseFor maps an archetype to the AI use case its reports need.
func UseCaseFor(a models.Archetype) string {
	switch a {
	case models.ArchetypeBanker:
		return llm.UseCaseFinancialAnalysis
	case models.ArchetypeMark, models.ArchetypeSponsorship, models.ArchetypeCast:
		return llm.UseCaseMarketing
	case models.ArchetypeCode, models.ArchetypeOps:
		return llm.UseCaseCodeGeneration
	default:
		return llm.UseCaseContentCreation
	}
}

// Generator produces reports. A nil TextGenerator always yields synthetic
// reports.
type Generator struct {
	source Source
	ai     TextGenerator
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator.
func New(source Source, ai TextGenerator, opts ...Option) *Generator {
	g := &Generator{
		source: source,
		ai:     ai,
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a report for the named portal. Only an unknown portal is
// an error; provider problems produce a synthetic report.
func (g *Generator) Generate(ctx context.Context, name, reportType string) (Report, error) {
	status, err := g.source.PortalStatus(name)
	if err != nil {
		return Report{}, err
	}
	activities, err := g.source.RecentActivities(name, promptActivityCap)
	if err != nil {
		return Report{}, err
	}

	reportType = strings.TrimSpace(reportType)
	if reportType == "" {
		reportType = DefaultType
	}

	rep := Report{
		Portal:      status.Name,
		ReportType:  reportType,
		GeneratedAt: g.now(),
		DataPoints:  status.ActivityCount,
		Stage:       status.Tier,
	}

	if g.ai != nil {
		res, err := g.ai.GenerateText(ctx, llm.Request{
			Prompt:    buildPrompt(status, activities, reportType),
			UseCase:   UseCaseFor(models.Archetype(status.Name)),
			MaxTokens: reportMaxTokens,
		})
		switch {
		case err == nil && !res.Degraded:
			rep.Summary = res.Text
			rep.Provider = res.Provider
			return rep, nil
		case err != nil && !errors.Is(err, llm.ErrNoProvider):
			g.logger.Warn("report generation failed", "portal", name, "error", err)
		}
	}

	rep.Synthetic = true
	rep.Summary = fmt.Sprintf(syntheticSummaryFm, status.DisplayName, reportType, status.ActivityCount)
	return rep, nil
}

func buildPrompt(status models.PortalStatus, activities []models.Activity, reportType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s report for the %s portal.\n", reportType, status.DisplayName)
	fmt.Fprintf(&b, "Evolution stage: %s (score %.1f of 100).\n", status.Tier, status.Score)
	fmt.Fprintf(&b, "Total recorded activities: %d.\n", status.ActivityCount)

	unlocked := 0
	for _, on := range status.Capabilities {
		if on {
			unlocked++
		}
	}
	fmt.Fprintf(&b, "Unlocked capabilities: %d.\n", unlocked)

	if len(activities) > 0 {
		b.WriteString("Recent activities:\n")
		for _, a := range activities {
			fmt.Fprintf(&b, "- %s: %s\n", a.Timestamp.Format(time.RFC3339), a.Description)
		}
	}
	return sanitize.Prompt(b.String())
}
