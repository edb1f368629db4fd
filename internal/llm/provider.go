// Package llm talks to hosted language models on behalf of the portals.
// It supports OpenAI, Anthropic and Gemini backends, a degraded synthetic
// fallback, and a Router that picks a backend per use case.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderFallback  = "fallback"
)

// Use cases that influence provider preference.
const (
	UseCaseCodeGeneration    = "code_generation"
	UseCaseContentCreation   = "content_creation"
	UseCaseImageAnalysis     = "image_analysis"
	UseCaseFinancialAnalysis = "financial_analysis"
	UseCaseMarketing         = "marketing"
)

// DefaultMaxTokens is used when a caller does not bound the response.
const DefaultMaxTokens = 1000

// ErrNoProvider is returned when no configured provider is available.
var ErrNoProvider = errors.New("no AI service available")

// Provider generates text or JSON from a prompt.
type Provider interface {
	// Name returns the provider identifier, e.g. "openai".
	Name() string

	// Available reports whether the provider has the credentials it needs.
	Available() bool

	// GenerateText returns a free-form completion of at most maxTokens.
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)

	// GenerateJSON returns a JSON object, optionally shaped by schema.
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error)
}

// Config configures a hosted provider.
type Config struct {
	// APIKey authenticates requests. An empty key makes the provider unavailable.
	APIKey string

	// Model overrides the provider's default model.
	Model string

	// BaseURL overrides the API endpoint, mainly for tests and proxies.
	BaseURL string

	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

const jsonSystemPrompt = "You are a helpful AI assistant. Respond with valid JSON."

var (
	jsonBlockRe    = regexp.MustCompile("(?s)```json\\s*\\n?(.*?)\\s*```")
	genericBlockRe = regexp.MustCompile("(?s)```\\s*\\n?(.*?)\\s*```")
)

// ExtractJSON pulls a JSON document out of a model response, unwrapping
// markdown code fences. It returns "" when nothing looks like JSON.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if m := jsonBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := genericBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	return ""
}
