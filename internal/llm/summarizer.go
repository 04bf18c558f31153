package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Summarizer adds an optional narrative to a routed report. It runs after
// routing and its output is never read back by the pipeline.
type Summarizer struct {
	provider Provider
	config   Config

	mu        sync.Mutex
	checked   time.Time
	available bool
	now       func() time.Time
}

// unavailableRetry is how long a failed availability check is trusted
const unavailableRetry = 30 * time.Second

// availabilityCheckTimeout bounds a check when the config sets no timeout
const availabilityCheckTimeout = 10 * time.Second

// NewSummarizer creates a summarizer; an empty provider yields a disabled one
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config, now: time.Now}, nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(provider Provider, config Config) *Summarizer {
	return &Summarizer{provider: provider, config: config, now: time.Now}
}

// isAvailable checks the provider detached from any request, so a cancelled
// caller cannot mark it down. A positive answer is kept for the life of the
// summarizer; a negative one is retried after unavailableRetry.
func (s *Summarizer) isAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available || (!s.checked.IsZero() && s.now().Sub(s.checked) < unavailableRetry) {
		return s.available
	}

	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = availabilityCheckTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.available = s.provider.IsAvailable(ctx)
	s.checked = s.now()
	return s.available
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary returns nil when disabled. Provider failures and summaries
// that name a different route come back as warnings, never as errors.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	if !s.isAvailable() {
		return &model.LLMSummary{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("LLM provider %s is not available", s.provider.Name())},
		}, nil
	}

	summary := &model.LLMSummary{
		Enabled:  true,
		Provider: s.provider.Name(),
		Model:    s.config.Model,
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    report,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}
	if resp.Model != "" {
		summary.Model = resp.Model
	}

	if leaked := otherRoutes(resp.Summary, report.RecommendedRoute); len(leaked) > 0 {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("ROUTE LEAK: summary named %s; discarded", strings.Join(leaked, ", ")))
		return summary, nil
	}

	summary.Summary = resp.Summary
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	return summary, nil
}

// otherRoutes lists route names mentioned in text other than the decided one
func otherRoutes(text string, decided model.Route) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, r := range model.Routes {
		if r == decided {
			continue
		}
		if strings.Contains(lower, strings.ToLower(string(r))) {
			found = append(found, string(r))
		}
	}
	return found
}

// RenderSeparateMarkdown renders the summary as a standalone markdown note
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> GENERATED CONTENT. The route was determined independently by fixed rules.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", summary.Model)
	}
	b.WriteString("\n")

	if summary.Summary == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.Summary)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
