package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fnolroute/internal/cache"
	"github.com/ppiankov/fnolroute/internal/llm"
	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/source"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

// textSource serves canned text per path and counts reads
type textSource struct {
	mu    sync.Mutex
	texts map[string]string
	reads int
	panic bool
}

func (s *textSource) Read(ctx context.Context, path string) source.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.panic {
		panic("loader exploded")
	}
	return source.Result{Text: s.texts[path], Method: "text"}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func TestPipeline_ProcessSamples(t *testing.T) {
	p := NewPipeline(testConfig(), WithClock(fixedClock))

	tests := []struct {
		path  string
		route model.Route
		rule  string
	}{
		{"../../samples/fnol-auto.txt", model.RouteFastTrack, "Estimated damage 4850 < 25000 and no critical inconsistencies."},
		{"../../samples/fnol-property.txt", model.RouteManualReview, "Estimated damage 185000 >= 25000; manual review required."},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			report, err := p.Process(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.route, report.RecommendedRoute)
			assert.Equal(t, tt.rule, report.Reasoning)
			assert.Empty(t, report.Validation.MissingFields)
			require.NotNil(t, report.Source)
			assert.Equal(t, tt.path, report.Source.Path)
			assert.Positive(t, report.Source.TextBytes)
			assert.False(t, report.Source.Cached)
			assert.Nil(t, report.LLM)
		})
	}
}

func TestPipeline_ProcessTextEmpty(t *testing.T) {
	p := NewPipeline(testConfig(), WithClock(fixedClock))

	report := p.ProcessText("")
	assert.Equal(t, model.RouteManualReview, report.RecommendedRoute)
	assert.Equal(t, model.MandatoryFields, report.Validation.MissingFields)
	assert.Equal(t, "Missing mandatory fields: policy_number, policyholder_name, incident_date, claim_type", report.Reasoning)
}

func TestPipeline_SpaceGroupedAmountsAreNotTruncated(t *testing.T) {
	p := NewPipeline(testConfig(), WithClock(fixedClock))
	header := "Policy Number: PA-1\nName of Insured: Jo Park\nDate of Loss: 15-Mar-2024\nClaim Type: Auto\n"

	tests := []struct {
		amount string
		want   int64
		route  model.Route
	}{
		{"30 000", 30000, model.RouteManualReview},
		{"₹ 45, 000", 45000, model.RouteManualReview},
		{"$120 000.00", 120000, model.RouteManualReview},
		{"24 999", 24999, model.RouteFastTrack},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			report := p.ProcessText(header + "Estimated Loss: " + tt.amount + "\nDescription: rear collision")
			require.NotNil(t, report.ExtractedFields.EstimatedDamage)
			assert.Equal(t, tt.want, *report.ExtractedFields.EstimatedDamage)
			require.NotNil(t, report.ExtractedFields.IncidentDate)
			assert.Equal(t, "2024-03-15", *report.ExtractedFields.IncidentDate)
			assert.Equal(t, tt.route, report.RecommendedRoute)
		})
	}
}

func TestPipeline_ProcessTextIsDeterministic(t *testing.T) {
	raw, err := os.ReadFile("../../samples/fnol-property.txt")
	require.NoError(t, err)
	p := NewPipeline(testConfig(), WithClock(fixedClock))

	first, err := json.Marshal(p.ProcessText(string(raw)))
	require.NoError(t, err)
	second, err := json.Marshal(p.ProcessText(string(raw)))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestPipeline_ThresholdFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Routing.FastTrackThreshold = 1000
	p := NewPipeline(cfg, WithClock(fixedClock))

	assert.Equal(t, int64(1000), p.Threshold())
	report, err := p.Process(context.Background(), "../../samples/fnol-auto.txt")
	require.NoError(t, err)
	assert.Equal(t, model.RouteManualReview, report.RecommendedRoute)
}

func TestPipeline_UnreadableDocumentRoutesToManualReview(t *testing.T) {
	p := NewPipeline(testConfig(), WithClock(fixedClock))

	report, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.Equal(t, model.RouteManualReview, report.RecommendedRoute)
	assert.Len(t, report.Validation.MissingFields, len(model.MandatoryFields))
	assert.Zero(t, report.Source.TextBytes)
}

func TestPipeline_PanicIsContained(t *testing.T) {
	src := &textSource{panic: true}
	p := NewPipeline(testConfig(), WithSource(src))

	report, err := p.Process(context.Background(), "boom.txt")
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPipelineFault))
	assert.Contains(t, err.Error(), "loader exploded")

	// The pipeline stays usable
	src.panic = false
	report, err = p.Process(context.Background(), "fine.txt")
	require.NoError(t, err)
	assert.Equal(t, model.RouteManualReview, report.RecommendedRoute)
}

func TestPipeline_CacheServesRepeatedText(t *testing.T) {
	raw, err := os.ReadFile("../../samples/fnol-auto.txt")
	require.NoError(t, err)
	src := &textSource{texts: map[string]string{"a.txt": string(raw), "b.txt": string(raw)}}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	p := NewPipeline(testConfig(), WithSource(src), WithCache(mem), WithClock(fixedClock))

	first, err := p.Process(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.False(t, first.Source.Cached)
	assert.Equal(t, 1, mem.Len())

	second, err := p.Process(context.Background(), "b.txt")
	require.NoError(t, err)
	assert.True(t, second.Source.Cached)
	assert.Equal(t, "b.txt", second.Source.Path)
	assert.Equal(t, first.RecommendedRoute, second.RecommendedRoute)
	assert.Equal(t, first.ExtractedFields, second.ExtractedFields)
}

func TestPipeline_CacheKeyedByThreshold(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	src := &textSource{texts: map[string]string{"a.txt": "Policy Number: X1"}}

	low := testConfig()
	low.Routing.FastTrackThreshold = 10
	_, err := NewPipeline(low, WithSource(src), WithCache(mem)).Process(context.Background(), "a.txt")
	require.NoError(t, err)
	_, err = NewPipeline(testConfig(), WithSource(src), WithCache(mem)).Process(context.Background(), "a.txt")
	require.NoError(t, err)

	assert.Equal(t, 2, mem.Len())
}

func TestPipeline_CachedFutureDateExpiresAtMidnight(t *testing.T) {
	mem := cache.NewMemoryCache(time.Hour, time.Hour)
	src := &textSource{texts: map[string]string{"a.txt": "Policy Number: X1\nDate of Loss: 2024-06-02"}}
	today := fixedClock()
	now := today
	p := NewPipeline(testConfig(), WithSource(src), WithCache(mem), WithClock(func() time.Time { return now }))

	before, err := p.Process(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Contains(t, before.Validation.Inconsistencies, model.CodeIncidentDateInFuture)

	now = today.AddDate(0, 0, 1)
	after, err := p.Process(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.False(t, after.Source.Cached)
	assert.NotContains(t, after.Validation.Inconsistencies, model.CodeIncidentDateInFuture)
}

func TestPipeline_CorruptCacheEntryIsDropped(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	src := &textSource{texts: map[string]string{"a.txt": "Policy Number: X1"}}
	p := NewPipeline(testConfig(), WithSource(src), WithCache(mem), WithClock(fixedClock))
	require.NoError(t, mem.Set(cache.ReportKey("Policy Number: X1", p.Threshold(), fixedClock()), []byte("{not json"), 0))

	report, err := p.Process(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.False(t, report.Source.Cached)
	assert.Equal(t, model.RouteManualReview, report.RecommendedRoute)
}

type fixedProvider struct {
	summary string
}

func (f *fixedProvider) Name() string                         { return "fixed" }
func (f *fixedProvider) IsAvailable(ctx context.Context) bool { return true }
func (f *fixedProvider) Summarize(ctx context.Context, req llm.SummarizeRequest) (*llm.SummarizeResponse, error) {
	return &llm.SummarizeResponse{Summary: f.summary, TokensUsed: 7}, nil
}

func TestPipeline_SummaryNeverChangesRoute(t *testing.T) {
	s := llm.NewSummarizerWithProvider(&fixedProvider{summary: "This should really be Investigation."}, llm.Config{})
	p := NewPipeline(testConfig(), WithSummarizer(s), WithClock(fixedClock))

	report, err := p.Process(context.Background(), "../../samples/fnol-auto.txt")
	require.NoError(t, err)
	assert.Equal(t, model.RouteFastTrack, report.RecommendedRoute)
	require.NotNil(t, report.LLM)
	assert.Empty(t, report.LLM.Summary)
	assert.Contains(t, report.LLM.Warnings[0], "ROUTE LEAK")
}

func TestPipeline_RenderReport(t *testing.T) {
	s := llm.NewSummarizerWithProvider(&fixedProvider{summary: "Small rear-end collision, fully documented."}, llm.Config{})
	p := NewPipeline(testConfig(), WithSummarizer(s), WithClock(fixedClock))
	report, err := p.Process(context.Background(), "../../samples/fnol-auto.txt")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "reports", "auto.json")
	require.NoError(t, p.RenderReport(report, out, true))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Fast-track", decoded["recommendedRoute"])
	for _, key := range []string{"extractedFields", "validation", "reasoning"} {
		assert.Contains(t, decoded, key)
	}

	md, err := os.ReadFile(LLMNotePath(out))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Small rear-end collision")
}

func TestRenderer_StdoutAndEscaping(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	report := &model.Report{Reasoning: "a < b & c", Validation: model.ValidationResult{}}

	require.NoError(t, r.RenderJSON(report, "-"))
	assert.Contains(t, buf.String(), `"reasoning": "a < b & c"`)
}

func TestSummaryLine(t *testing.T) {
	report := &model.Report{
		RecommendedRoute: model.RouteInvestigation,
		Reasoning:        "Suspicious keywords found in description (staged); investigation flagged.",
		Validation:       model.ValidationResult{InvestigationFlag: true, Inconsistencies: []string{"a"}},
	}
	assert.Equal(t,
		"c.pdf: Investigation (Suspicious keywords found in description (staged); investigation flagged.) [investigation] [1 inconsistencies]",
		SummaryLine("c.pdf", report))
}

func TestReportPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "claim-7.json"), ReportPath("out", "/inbox/claim-7.pdf"))
	assert.Equal(t, "claim.llm.md", LLMNotePath("claim.json"))
}
