package model

// Report is the output document for one processed FNOL document.
// The four leading fields form the public contract shared by the CLI and HTTP API.
type Report struct {
	ExtractedFields  ExtractedFields  `json:"extractedFields"`
	Validation       ValidationResult `json:"validation"`
	RecommendedRoute Route            `json:"recommendedRoute"`
	Reasoning        string           `json:"reasoning"`

	Source *SourceMeta `json:"source,omitempty"` // Where the text came from
	LLM    *LLMSummary `json:"llm,omitempty"`    // Optional narrative, never affects the route
}

// SourceMeta describes the document the report was built from
type SourceMeta struct {
	Path      string `json:"path,omitempty"`
	TextBytes int    `json:"text_bytes"`       // Bytes of raw text returned by the adapter
	Cached    bool   `json:"cached,omitempty"` // Served from the report cache
}

// LLMSummary contains an optional LLM-written explanation of the decision.
// It is generated after routing and is never read back by any stage.
type LLMSummary struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewReport assembles a report from the three stage outputs.
func NewReport(fields ExtractedFields, validation ValidationResult, decision RoutingDecision) *Report {
	return &Report{
		ExtractedFields:  fields,
		Validation:       validation,
		RecommendedRoute: decision.Route,
		Reasoning:        decision.Reason,
	}
}
