package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Renderer writes reports as JSON files or to a stream
type Renderer struct {
	stdout io.Writer
}

// NewRenderer creates a renderer; a nil stdout means os.Stdout
func NewRenderer(stdout io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Renderer{stdout: stdout}
}

// WriteJSON encodes the report as indented JSON without HTML escaping
func WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderJSON writes the report to path, or to stdout for "" and "-"
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	if isStdout(path) {
		return WriteJSON(r.stdout, report)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderLLMMarkdown writes a rendered LLM note
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	if markdown == "" {
		return nil
	}
	return os.WriteFile(path, []byte(markdown), 0o644)
}

// SummaryLine renders a one-line outcome for progress output
func SummaryLine(path string, report *model.Report) string {
	line := fmt.Sprintf("%s: %s (%s)", path, report.RecommendedRoute, report.Reasoning)
	if report.Validation.InvestigationFlag {
		line += " [investigation]"
	}
	if n := len(report.Validation.Inconsistencies); n > 0 {
		line += fmt.Sprintf(" [%d inconsistencies]", n)
	}
	return line
}

// ReportPath maps an input document to its JSON report path inside outDir
func ReportPath(outDir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// LLMNotePath returns the .llm.md path next to a JSON report
func LLMNotePath(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, ".json") + ".llm.md"
}

func isStdout(path string) bool {
	return path == "" || path == "-"
}
