package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Processor runs the claim pipeline on a document on disk
type Processor interface {
	Process(ctx context.Context, path string) (*model.Report, error)
}

// ProcessHandler handles document uploads.
type ProcessHandler struct {
	processor Processor
	maxBytes  int64
	tempDir   string
	logger    *slog.Logger
}

// NewProcessHandler creates a new ProcessHandler. maxBytes <= 0 disables the size cap;
// tempDir "" uses the system temp directory.
func NewProcessHandler(processor Processor, maxBytes int64, tempDir string, logger *slog.Logger) *ProcessHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessHandler{processor: processor, maxBytes: maxBytes, tempDir: tempDir, logger: logger}
}

// ProcessFNOL handles POST /process-fnol and POST /api/v1/process-fnol.
// The upload is staged in a temp file that keeps its extension, so the text
// source can pick a reader, and is removed on every exit path.
func (h *ProcessHandler) ProcessFNOL(c *gin.Context) {
	if h.maxBytes > 0 {
		if c.Request.ContentLength > h.maxBytes {
			HandleError(c, h.logger, model.ErrUploadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, h.logger, model.ErrUploadTooLarge)
			return
		}
		HandleError(c, h.logger, fmt.Errorf("%w: %v", model.ErrMissingUpload, err))
		return
	}
	defer func() { _ = file.Close() }()

	path, err := h.stage(file, header.Filename)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("temp file not removed", "path", path, "error", err)
		}
	}()

	report, err := h.processor.Process(c.Request.Context(), path)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	// Report the client's file name rather than the staging path
	if report.Source != nil {
		report.Source.Path = filepath.Base(header.Filename)
	}
	c.JSON(http.StatusOK, report)
}

// stage copies the upload to a temp file named with the upload's extension
func (h *ProcessHandler) stage(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if strings.ContainsAny(ext, `/\*`) {
		ext = ""
	}

	tmp, err := os.CreateTemp(h.tempDir, "fnol-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrTempFile, err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", model.ErrUploadTooLarge
		}
		return "", fmt.Errorf("%w: %v", model.ErrTempFile, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", model.ErrTempFile, err)
	}
	return tmp.Name(), nil
}
