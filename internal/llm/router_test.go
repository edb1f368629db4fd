package llm

import (
	"context"
	"errors"
	"testing"
)

type countingObserver struct {
	calls  map[string]int
	errors int
}

func (o *countingObserver) AIRequest(provider string, err error) {
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	o.calls[provider]++
	if err != nil {
		o.errors++
	}
}

func TestPreferredOrder(t *testing.T) {
	tests := []struct {
		useCase string
		first   string
	}{
		{UseCaseCodeGeneration, ProviderOpenAI},
		{UseCaseFinancialAnalysis, ProviderOpenAI},
		{UseCaseImageAnalysis, ProviderOpenAI},
		{UseCaseContentCreation, ProviderAnthropic},
		{UseCaseMarketing, ProviderAnthropic},
		{"MARKETING", ProviderAnthropic},
		{"", ProviderOpenAI},
		{"unknown", ProviderOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.useCase, func(t *testing.T) {
			order := PreferredOrder(tt.useCase)
			if order[0] != tt.first || order[len(order)-1] != ProviderGemini {
				t.Errorf("PreferredOrder(%q) = %v", tt.useCase, order)
			}
		})
	}
}

func TestRouter_Select(t *testing.T) {
	openai := NewMockProvider(ProviderOpenAI)
	anthropic := NewMockProvider(ProviderAnthropic)
	gemini := NewMockProvider(ProviderGemini)
	r := NewRouter([]Provider{openai, anthropic, gemini})

	tests := []struct {
		name     string
		provider string
		useCase  string
		want     string
	}{
		{"explicit wins", ProviderGemini, UseCaseMarketing, ProviderGemini},
		{"explicit is case-insensitive", "Anthropic", "", ProviderAnthropic},
		{"unknown explicit uses order", "llama", UseCaseMarketing, ProviderAnthropic},
		{"use case order", "", UseCaseContentCreation, ProviderAnthropic},
		{"default order", "", "", ProviderOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Select(tt.provider, tt.useCase)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Select(%q, %q) = %s, want %s", tt.provider, tt.useCase, p.Name(), tt.want)
			}
		})
	}
}

func TestRouter_SelectSkipsUnavailable(t *testing.T) {
	r := NewRouter([]Provider{
		NewMockProvider(ProviderAnthropic).WithAvailable(false),
		NewMockProvider(ProviderOpenAI).WithAvailable(false),
		NewMockProvider(ProviderGemini),
	})

	p, err := r.Select(ProviderAnthropic, UseCaseMarketing)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if p.Name() != ProviderGemini {
		t.Errorf("Select() = %s, want gemini", p.Name())
	}
}

func TestRouter_NoProvider(t *testing.T) {
	r := NewRouter([]Provider{NewMockProvider(ProviderOpenAI).WithAvailable(false)})

	if _, err := r.Select("", ""); !errors.Is(err, ErrNoProvider) {
		t.Errorf("Select() error = %v, want ErrNoProvider", err)
	}
	if _, err := r.GenerateText(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("GenerateText() error = %v, want ErrNoProvider", err)
	}
	if r.Any() {
		t.Error("Any() = true with no available provider")
	}
	if avail := r.Availability(); avail[ProviderOpenAI] {
		t.Errorf("Availability() = %v", avail)
	}
}

func TestRouter_DefaultProvider(t *testing.T) {
	r := NewRouter([]Provider{
		NewMockProvider(ProviderOpenAI).WithText("from openai"),
		NewMockProvider(ProviderGemini).WithText("from gemini"),
	}, WithDefaultProvider("gemini"))

	res, err := r.GenerateText(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if res.Text != "from gemini" || res.Provider != ProviderGemini || res.Degraded {
		t.Errorf("GenerateText() = %+v", res)
	}
}

func TestRouter_DegradesOnFailure(t *testing.T) {
	obs := &countingObserver{}
	failing := NewMockProvider(ProviderOpenAI).WithError(errors.New("upstream 500"))
	r := NewRouter([]Provider{failing}, WithRouterObserver(obs))

	text, err := r.GenerateText(context.Background(), Request{Prompt: "summarize xuvebanker"})
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if !text.Degraded || text.Provider != ProviderFallback || text.Text == "" {
		t.Errorf("GenerateText() = %+v, want degraded fallback", text)
	}

	obj, err := r.GenerateJSON(context.Background(), Request{Prompt: "{}"})
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if !obj.Degraded || obj.Result["status"] != "degraded" {
		t.Errorf("GenerateJSON() = %+v, want degraded fallback", obj)
	}

	if failing.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", failing.CallCount())
	}
	if obs.calls[ProviderOpenAI] != 2 || obs.errors != 2 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestRouter_GenerateJSONPassesSchema(t *testing.T) {
	mock := NewMockProvider(ProviderAnthropic).WithJSON(map[string]any{"summary": "ok"})
	r := NewRouter([]Provider{mock})

	res, err := r.GenerateJSON(context.Background(), Request{Prompt: "report", UseCase: UseCaseMarketing})
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if res.Result["summary"] != "ok" || res.Provider != ProviderAnthropic {
		t.Errorf("GenerateJSON() = %+v", res)
	}
	if len(mock.Prompts) != 1 || mock.Prompts[0] != "report" {
		t.Errorf("Prompts = %v", mock.Prompts)
	}
}

func TestFallbackProvider_Preview(t *testing.T) {
	f := NewFallbackProvider()
	long := ""
	for i := 0; i < 50; i++ {
		long += "word "
	}
	text, _ := f.GenerateText(context.Background(), long, 0)
	if len([]rune(text)) > 200 {
		t.Errorf("fallback text too long: %d runes", len([]rune(text)))
	}
}
