package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ppiankov/fnolroute/internal/model"
)

// PDFLoader reads the text layer with pdftotext and OCRs any page that has none.
// When pdftotext fails outright every page is rasterized and OCRed; when that
// fails too the file is read as plain text.
type PDFLoader struct {
	pdftotext string
	pdftoppm  string
	dpi       int
	maxPages  int
	runner    Runner
	ocr       *ImageLoader
	raw       *TextLoader
	logger    *slog.Logger
}

// NewPDFLoader creates a PDF loader
func NewPDFLoader(cfg model.SourceConfig, runner Runner, raw *TextLoader, logger *slog.Logger) *PDFLoader {
	return &PDFLoader{
		pdftotext: cfg.Pdftotext,
		pdftoppm:  cfg.Pdftoppm,
		dpi:       cfg.DPI,
		maxPages:  cfg.MaxPages,
		runner:    runner,
		ocr:       NewImageLoader(cfg, runner),
		raw:       raw,
		logger:    logger,
	}
}

// Load extracts text page by page
func (l *PDFLoader) Load(ctx context.Context, path string) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return Result{Method: "pdf-text"}, err
	}

	pages, err := l.textPages(ctx, path)
	if err != nil {
		l.logger.Warn("pdftotext failed; trying full OCR", "path", path, "error", err)
		return l.ocrAll(ctx, path, err)
	}

	tmpDir, err := os.MkdirTemp("", "fnol-pdf-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmpDir)

	res := Result{Method: "pdf-text", Pages: len(pages)}
	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) != "" {
			texts = append(texts, page)
			continue
		}
		txt, err := l.ocrPage(ctx, path, i+1, tmpDir)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		res.Method = "pdf-text+ocr"
		texts = append(texts, txt)
	}
	res.Text = strings.Join(texts, "\n")
	return res, nil
}

// textPages runs pdftotext and splits its output on form feeds
func (l *PDFLoader) textPages(ctx context.Context, path string) ([]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := l.runner.Run(ctx, l.pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, clip(string(errb), 512))
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext ends every page with \f, leaving an empty tail
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	if l.maxPages > 0 && len(pages) > l.maxPages {
		pages = pages[:l.maxPages]
	}
	return pages, nil
}

// ocrPage rasterizes a single page and OCRs it
func (l *PDFLoader) ocrPage(ctx context.Context, path string, page int, dir string) (string, error) {
	prefix := filepath.Join(dir, "page-"+strconv.Itoa(page))
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <prefix>
	_, errb, err := l.runner.Run(ctx, l.pdftoppm, "-f", n, "-l", n, "-r", strconv.Itoa(l.dpi), "-png", "-singlefile", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, clip(string(errb), 512))
	}
	img := prefix + ".png"
	if _, err := os.Stat(img); err != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}
	return l.ocr.ocr(ctx, img)
}

// ocrAll renders every page and OCRs each one, falling back to a raw read
func (l *PDFLoader) ocrAll(ctx context.Context, path string, cause error) (Result, error) {
	warns := []string{cause.Error()}

	tmpDir, err := os.MkdirTemp("", "fnol-pdf-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r DPI -png <in.pdf> <prefix>
	_, errb, err := l.runner.Run(ctx, l.pdftoppm, "-r", strconv.Itoa(l.dpi), "-png", path, prefix)
	if err == nil {
		// pdftoppm zero-pads page numbers to the width of the page count, so
		// lexical order is page order
		images, _ := filepath.Glob(prefix + "-*.png")
		if l.maxPages > 0 && len(images) > l.maxPages {
			images = images[:l.maxPages]
		}

		var texts []string
		for _, img := range images {
			txt, err := l.ocr.ocr(ctx, img)
			if err != nil {
				warns = append(warns, err.Error())
				continue
			}
			texts = append(texts, txt)
		}
		if len(texts) > 0 {
			return Result{Text: strings.Join(texts, "\n"), Method: "pdf-ocr", Pages: len(images), Warnings: warns}, nil
		}
		warns = append(warns, "no page could be OCRed")
	} else {
		warns = append(warns, fmt.Sprintf("pdftoppm: %v: %s", err, clip(string(errb), 512)))
	}

	res, err := l.raw.Load(ctx, path)
	res.Method = "raw-fallback"
	res.Warnings = append(warns, res.Warnings...)
	return res, err
}
