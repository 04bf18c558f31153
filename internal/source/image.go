package source

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ppiankov/fnolroute/internal/model"
)

// reBoxNoise strips box-drawing and form-feed debris tesseract leaves behind
var reBoxNoise = regexp.MustCompile(`[\x{2500}-\x{257F}\x{25A0}-\x{25FF}\f]+`)

// ImageLoader runs tesseract on a scanned page
type ImageLoader struct {
	tesseract string
	lang      string
	runner    Runner
}

// NewImageLoader creates an image OCR loader
func NewImageLoader(cfg model.SourceConfig, runner Runner) *ImageLoader {
	return &ImageLoader{tesseract: cfg.Tesseract, lang: cfg.TesseractLang, runner: runner}
}

// Load OCRs the image
func (l *ImageLoader) Load(ctx context.Context, path string) (Result, error) {
	txt, err := l.ocr(ctx, path)
	if err != nil {
		return Result{Method: "image-ocr"}, err
	}
	return Result{Text: txt, Method: "image-ocr", Pages: 1}, nil
}

// ocr runs: tesseract <file> stdout -l <lang>
func (l *ImageLoader) ocr(ctx context.Context, path string) (string, error) {
	out, errb, err := l.runner.Run(ctx, l.tesseract, path, "stdout", "-l", l.lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, clip(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
