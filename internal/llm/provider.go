package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a short adjuster-facing explanation of a routed claim
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the finished, already-routed report
	Report model.Report

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	Timeout   time.Duration
	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		MaxTokens: 400,
	}
}

// BuildPrompt constructs the default prompt. The route is stated as final; the
// model only explains it.
func BuildPrompt(report model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are explaining an insurance claim routing decision to a claims adjuster.
The decision below was made by fixed business rules and is FINAL.

RULES:
1. Do not recommend, suggest or name any queue other than %q.
2. Do not invent facts that are not in the fields below.
3. If a field is missing, say it is missing.
4. Answer in 2-4 plain sentences.

Decision:
- Route: %s
- Reason: %s

Extracted fields:
`, report.RecommendedRoute, report.RecommendedRoute, report.Reasoning)

	f := report.ExtractedFields
	for _, name := range []string{
		model.FieldPolicyNumber, model.FieldPolicyholderName, model.FieldClaimType,
		model.FieldIncidentDate, model.FieldLocation, model.FieldDescription,
	} {
		v, ok := f.Text(name)
		if !ok {
			v = "(missing)"
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, clip(v, 600))
	}
	if f.EstimatedDamage != nil {
		fmt.Fprintf(&b, "- %s: %d\n", model.FieldEstimatedDamage, *f.EstimatedDamage)
	} else {
		fmt.Fprintf(&b, "- %s: (missing)\n", model.FieldEstimatedDamage)
	}

	v := report.Validation
	fmt.Fprintf(&b, "\nValidation:\n- missing: %s\n- inconsistencies: %s\n- investigation flag: %t\n",
		orNone(v.MissingFields), orNone(v.Inconsistencies), v.InvestigationFlag)

	return b.String()
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
