package llm

import (
	"context"
	"strings"
)

// FallbackProvider returns degraded synthetic responses without calling
// any model. The Router uses it when a real provider fails.
type FallbackProvider struct{}

// NewFallbackProvider creates a FallbackProvider.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

// Name returns "fallback".
func (f *FallbackProvider) Name() string { return ProviderFallback }

// Available returns false; the fallback is never selected as a real provider.
func (f *FallbackProvider) Available() bool { return false }

// GenerateText returns a fixed notice echoing the start of the prompt.
func (f *FallbackProvider) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return "AI generation is temporarily unavailable. Request noted: " + preview(prompt, 80), nil
}

// GenerateJSON returns a degraded status object.
func (f *FallbackProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	return map[string]any{
		"status":  "degraded",
		"message": "AI generation is temporarily unavailable",
		"prompt":  preview(prompt, 80),
	}, nil
}

// preview returns the first n runes of s on a single line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
