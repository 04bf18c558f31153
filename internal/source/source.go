// Package source turns a document on disk into raw text for the claim pipeline.
// Format is chosen by file extension. Failures never escape: a missing, corrupt
// or unreadable document produces empty text plus warnings.
package source

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Result is the text read from one document
type Result struct {
	Text     string
	Method   string // text, html, pdf-text, pdf-ocr, image-ocr, raw-fallback
	Pages    int
	Warnings []string
	Duration time.Duration
}

// Loader reads one document format
type Loader interface {
	Load(ctx context.Context, path string) (Result, error)
}

// Adapter dispatches documents to format loaders by extension
type Adapter struct {
	loaders      map[string]Loader
	fallback     Loader
	timeout      time.Duration
	maxTextBytes int64
	logger       *slog.Logger
}

// NewAdapter wires the PDF, image, HTML and plain-text loaders. A nil runner
// runs the real external tools.
func NewAdapter(cfg model.SourceConfig, runner Runner, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}

	text := NewTextLoader(cfg.MaxTextBytes)
	html := NewHTMLLoader(cfg.MaxTextBytes)
	image := NewImageLoader(cfg, runner)
	pdf := NewPDFLoader(cfg, runner, text, logger)

	return &Adapter{
		loaders: map[string]Loader{
			".txt":  text,
			".text": text,
			".md":   text,
			".eml":  text,
			".htm":  html,
			".html": html,
			".pdf":  pdf,
			".png":  image,
			".jpg":  image,
			".jpeg": image,
			".tif":  image,
			".tiff": image,
			".bmp":  image,
		},
		fallback:     text,
		timeout:      cfg.Timeout,
		maxTextBytes: cfg.MaxTextBytes,
		logger:       logger,
	}
}

// Read returns the document text and how it was obtained. It never fails.
func (a *Adapter) Read(ctx context.Context, path string) Result {
	start := time.Now()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := a.loaders[ext]
	if !ok {
		loader = a.fallback
	}

	res, err := loader.Load(ctx, path)
	if err != nil {
		a.logger.Warn("document read failed", "path", path, "ext", ext, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		res.Text = ""
	}
	res.Text = clampText(res.Text, a.maxTextBytes)
	res.Duration = time.Since(start)

	a.logger.Debug("document read",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

// ReadText returns only the text, "" on total failure
func (a *Adapter) ReadText(ctx context.Context, path string) string {
	return a.Read(ctx, path).Text
}

// SupportedExtensions lists extensions with a dedicated loader, sorted
func (a *Adapter) SupportedExtensions() []string {
	exts := make([]string, 0, len(a.loaders))
	for ext := range a.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether the path has a dedicated loader
func (a *Adapter) Supports(path string) bool {
	_, ok := a.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// clampText cuts text to max bytes and drops invalid UTF-8
func clampText(s string, max int64) string {
	if max > 0 && int64(len(s)) > max {
		s = s[:max]
	}
	return strings.ToValidUTF8(s, "")
}
