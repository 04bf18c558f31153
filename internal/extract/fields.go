package extract

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/fnolroute/internal/model"
)

const (
	defaultMaxInputBytes = 2_000_000
	defaultSnippetLines  = 30
	fallbackDescLines    = 3
)

// FieldExtractor pulls claim fields out of raw document text.
// It holds no mutable state and is safe for concurrent use.
type FieldExtractor struct {
	rules         []Rule
	maxInputBytes int
	snippetLines  int
	now           func() time.Time
}

// Option configures a FieldExtractor
type Option func(*FieldExtractor)

// WithMaxInputBytes truncates longer input before any pattern runs.
func WithMaxInputBytes(n int) Option {
	return func(e *FieldExtractor) {
		if n > 0 {
			e.maxInputBytes = n
		}
	}
}

// WithSnippetLines sets how many corpus lines go into raw_text_snippet.
func WithSnippetLines(n int) Option {
	return func(e *FieldExtractor) {
		if n > 0 {
			e.snippetLines = n
		}
	}
}

// WithClock sets the reference time that supplies the year for dates written
// without one ("March 15", "03/15").
func WithClock(now func() time.Time) Option {
	return func(e *FieldExtractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRules replaces the rule table
func WithRules(rules []Rule) Option {
	return func(e *FieldExtractor) {
		e.rules = rules
	}
}

// NewFieldExtractor creates an extractor using DefaultRules
func NewFieldExtractor(opts ...Option) *FieldExtractor {
	e := &FieldExtractor{
		rules:         DefaultRules,
		maxInputBytes: defaultMaxInputBytes,
		snippetLines:  defaultSnippetLines,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match is the winning rule for one field
type Match struct {
	Field string
	Rule  string
	Raw   string
}

// Extract turns raw text into normalized fields. It never fails: anything it
// cannot determine is left nil.
func (e *FieldExtractor) Extract(raw string) model.ExtractedFields {
	lines := splitLines(truncate(raw, e.maxInputBytes))
	corpus := strings.Join(lines, "\n")

	matches := e.MatchAll(corpus)
	var f model.ExtractedFields

	if m, ok := matches[model.FieldPolicyNumber]; ok {
		f.PolicyNumber = model.StringPtr(strings.ToUpper(strings.TrimSpace(m.Raw)))
	}
	if m, ok := matches[model.FieldPolicyholderName]; ok {
		f.PolicyholderName = model.StringPtr(m.Raw)
	}
	if m, ok := matches[model.FieldClaimType]; ok {
		f.ClaimType = model.StringPtr(m.Raw)
	}
	if m, ok := matches[model.FieldIncidentDate]; ok {
		if d, ok := ParseIncidentDateAt(m.Raw, e.now()); ok {
			f.IncidentDate = model.StringPtr(d)
		}
	}
	if m, ok := matches[model.FieldContactPhone]; ok {
		f.ContactPhone = model.StringPtr(m.Raw)
	}
	if m, ok := matches[model.FieldEstimatedDamage]; ok {
		if n, ok := NormalizeAmount(m.Raw); ok {
			f.EstimatedDamage = model.Int64Ptr(n)
		}
	}
	if m, ok := matches[model.FieldLocation]; ok {
		f.Location = model.StringPtr(m.Raw)
	}

	if m, ok := matches[model.FieldDescription]; ok {
		f.Description = model.StringPtr(m.Raw)
	} else {
		f.Description = model.StringPtr(labelledDescription(lines))
	}

	if f.ClaimType == nil && f.Description != nil {
		if c, ok := InferClaimType(*f.Description); ok {
			f.ClaimType = model.StringPtr(string(c))
		}
	}

	if f.PolicyNumber == nil {
		f.PolicyNumber = model.StringPtr(policyFallback.FindString(corpus))
	}

	trimAll(&f)

	n := min(e.snippetLines, len(lines))
	f.RawTextSnippet = strings.Join(lines[:n], "\n")
	return f
}

// MatchAll applies the rule table to a normalized corpus and returns the first
// matching rule per field, in table order.
func (e *FieldExtractor) MatchAll(corpus string) map[string]Match {
	out := make(map[string]Match)
	for _, r := range e.rules {
		if _, done := out[r.Field]; done {
			continue
		}
		sub := r.Pattern.FindStringSubmatch(corpus)
		if len(sub) < 2 {
			continue
		}
		out[r.Field] = Match{Field: r.Field, Rule: r.Name, Raw: strings.TrimSpace(sub[1])}
	}
	return out
}

// InferClaimType guesses a category from narrative keywords, in vocabulary order.
func InferClaimType(description string) (model.Category, bool) {
	lower := strings.ToLower(description)
	for _, ck := range model.ClaimVocabulary {
		if ck.Mentions(lower) {
			return ck.Category, true
		}
	}
	return "", false
}

// labelledDescription finds the first line carrying a narrative label and joins
// it with up to three following lines.
func labelledDescription(lines []string) string {
	for i, line := range lines {
		if descriptionLabels.MatchString(line) {
			end := min(i+1+fallbackDescLines, len(lines))
			return strings.Join(lines[i:end], " ")
		}
	}
	return ""
}

// splitLines returns the trimmed, non-blank lines of text in order
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func trimAll(f *model.ExtractedFields) {
	for _, p := range []**string{
		&f.PolicyNumber, &f.PolicyholderName, &f.ClaimType, &f.IncidentDate,
		&f.ContactPhone, &f.Location, &f.Description,
	} {
		if *p != nil {
			*p = model.StringPtr(strings.TrimSpace(**p))
		}
	}
}
