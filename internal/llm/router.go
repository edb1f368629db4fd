package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
)

// Observer receives one callback per provider call.
type Observer interface {
	AIRequest(provider string, err error)
}

type nopObserver struct{}

func (nopObserver) AIRequest(string, error) {}

// preferredOrder maps use cases to provider preference. Unlisted use cases
// get defaultOrder.
var preferredOrder = map[string][]string{
	UseCaseCodeGeneration:    {ProviderOpenAI, ProviderAnthropic, ProviderGemini},
	UseCaseImageAnalysis:     {ProviderOpenAI, ProviderAnthropic, ProviderGemini},
	UseCaseFinancialAnalysis: {ProviderOpenAI, ProviderAnthropic, ProviderGemini},
	UseCaseContentCreation:   {ProviderAnthropic, ProviderOpenAI, ProviderGemini},
	UseCaseMarketing:         {ProviderAnthropic, ProviderOpenAI, ProviderGemini},
}

var defaultOrder = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// PreferredOrder returns the provider preference for useCase.
func PreferredOrder(useCase string) []string {
	if order, ok := preferredOrder[strings.ToLower(useCase)]; ok {
		return order
	}
	return defaultOrder
}

// Request describes one generation call routed through a Router.
type Request struct {
	Prompt    string
	Provider  string
	UseCase   string
	MaxTokens int
	Schema    map[string]any
}

// TextResult is the outcome of Router.GenerateText.
type TextResult struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Degraded bool   `json:"degraded,omitempty"`
}

// JSONResult is the outcome of Router.GenerateJSON.
type JSONResult struct {
	Result   map[string]any `json:"result"`
	Provider string         `json:"provider"`
	Degraded bool           `json:"degraded,omitempty"`
}

// Router selects a provider per request and degrades to the fallback when
// the chosen provider fails.
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	fallback        Provider
	logger          *slog.Logger
	observer        Observer
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDefaultProvider names the provider used when a request names none.
func WithDefaultProvider(name string) RouterOption {
	return func(r *Router) { r.defaultProvider = strings.ToLower(name) }
}

// WithRouterLogger sets the logger for provider failures.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRouterObserver receives per-call outcomes.
func WithRouterObserver(o Observer) RouterOption {
	return func(r *Router) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithFallback replaces the degraded response provider.
func WithFallback(p Provider) RouterOption {
	return func(r *Router) {
		if p != nil {
			r.fallback = p
		}
	}
}

// NewRouter creates a Router over providers, keyed by Name.
func NewRouter(providers []Provider, opts ...RouterOption) *Router {
	r := &Router{
		providers: make(map[string]Provider, len(providers)),
		fallback:  NewFallbackProvider(),
		logger:    logging.Discard(),
		observer:  nopObserver{},
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Select returns the provider for an explicit name or use case. A known,
// available explicit provider wins; otherwise the use-case order applies.
func (r *Router) Select(name, useCase string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.defaultProvider
	}
	if p, ok := r.providers[name]; ok && p.Available() {
		return p, nil
	}

	for _, candidate := range PreferredOrder(useCase) {
		if p, ok := r.providers[candidate]; ok && p.Available() {
			return p, nil
		}
	}
	return nil, ErrNoProvider
}

// Availability reports each registered provider's readiness.
func (r *Router) Availability() map[string]bool {
	out := make(map[string]bool, len(r.providers))
	for name, p := range r.providers {
		out[name] = p.Available()
	}
	return out
}

// Any reports whether at least one provider is available.
func (r *Router) Any() bool {
	for _, p := range r.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// GenerateText routes req to a provider. It returns ErrNoProvider when none
// is available; provider failures yield a degraded fallback result instead
// of an error.
func (r *Router) GenerateText(ctx context.Context, req Request) (TextResult, error) {
	p, err := r.Select(req.Provider, req.UseCase)
	if err != nil {
		return TextResult{}, err
	}

	text, err := p.GenerateText(ctx, req.Prompt, req.MaxTokens)
	r.observer.AIRequest(p.Name(), err)
	if err == nil {
		return TextResult{Text: text, Provider: p.Name()}, nil
	}

	r.logger.Warn("AI text generation failed, using fallback",
		"provider", p.Name(), "use_case", req.UseCase, "error", err)
	text, ferr := r.fallback.GenerateText(ctx, req.Prompt, req.MaxTokens)
	if ferr != nil {
		return TextResult{}, fmt.Errorf("fallback text generation: %w", ferr)
	}
	return TextResult{Text: text, Provider: r.fallback.Name(), Degraded: true}, nil
}

// GenerateJSON is the JSON counterpart of GenerateText.
func (r *Router) GenerateJSON(ctx context.Context, req Request) (JSONResult, error) {
	p, err := r.Select(req.Provider, req.UseCase)
	if err != nil {
		return JSONResult{}, err
	}

	obj, err := p.GenerateJSON(ctx, req.Prompt, req.Schema)
	r.observer.AIRequest(p.Name(), err)
	if err == nil {
		return JSONResult{Result: obj, Provider: p.Name()}, nil
	}

	r.logger.Warn("AI JSON generation failed, using fallback",
		"provider", p.Name(), "use_case", req.UseCase, "error", err)
	obj, ferr := r.fallback.GenerateJSON(ctx, req.Prompt, req.Schema)
	if ferr != nil {
		return JSONResult{}, fmt.Errorf("fallback JSON generation: %w", ferr)
	}
	return JSONResult{Result: obj, Provider: r.fallback.Name(), Degraded: true}, nil
}
