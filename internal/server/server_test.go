package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/pipeline"
	"github.com/ppiankov/fnolroute/internal/server"
	"github.com/ppiankov/fnolroute/internal/worker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Process(ctx context.Context, path string) (*model.Report, error) {
	args := m.Called(ctx, path)
	if r := args.Get(0); r != nil {
		return r.(*model.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func uploadRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newEngine(p server.Processor, maxBytes int64, limiter *worker.Limiter) *gin.Engine {
	return server.Setup(
		server.NewProcessHandler(p, maxBytes, "", quiet),
		server.NewHealthHandler("test", []string{".pdf", ".txt"}),
		limiter,
		quiet,
	)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *server.APIError {
	t.Helper()
	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestProcessFNOL_SampleUpload(t *testing.T) {
	raw, err := os.ReadFile("../../samples/fnol-auto.txt")
	require.NoError(t, err)

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(quiet), pipeline.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}))
	r := newEngine(p, 1<<20, nil)

	for _, target := range []string{"/process-fnol", "/api/v1/process-fnol"} {
		t.Run(target, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, uploadRequest(t, target, "file", "claim.txt", raw))

			require.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			var report model.Report
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
			assert.Equal(t, model.RouteFastTrack, report.RecommendedRoute)
			require.NotNil(t, report.ExtractedFields.PolicyNumber)
			assert.Equal(t, "PA-2024-00917", *report.ExtractedFields.PolicyNumber)
			require.NotNil(t, report.Source)
			assert.Equal(t, "claim.txt", report.Source.Path)
		})
	}
}

func TestProcessFNOL_TempFileKeepsExtensionAndIsRemoved(t *testing.T) {
	m := new(mockProcessor)
	var staged string
	m.On("Process", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			staged = args.String(1)
			_, err := os.Stat(staged)
			assert.NoError(t, err, "temp file exists while processing")
		}).
		Return(&model.Report{RecommendedRoute: model.RouteManualReview, Source: &model.SourceMeta{}}, nil)

	w := httptest.NewRecorder()
	newEngine(m, 1<<20, nil).ServeHTTP(w, uploadRequest(t, "/process-fnol", "file", "Scan 01.PDF", []byte("%PDF-1.4")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ".pdf", filepath.Ext(staged))
	_, err := os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "temp file removed after request")
	m.AssertExpectations(t)
}

func TestProcessFNOL_TempFileRemovedOnFailure(t *testing.T) {
	m := new(mockProcessor)
	var staged string
	m.On("Process", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { staged = args.String(1) }).
		Return(nil, errors.Join(model.ErrPipelineFault, errors.New("boom")))

	w := httptest.NewRecorder()
	newEngine(m, 1<<20, nil).ServeHTTP(w, uploadRequest(t, "/process-fnol", "file", "a.txt", []byte("x")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PROCESSING_FAILED", decodeError(t, w).Code)
	_, err := os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessFNOL_MissingFile(t *testing.T) {
	m := new(mockProcessor)

	w := httptest.NewRecorder()
	newEngine(m, 1<<20, nil).ServeHTTP(w, uploadRequest(t, "/process-fnol", "document", "a.txt", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decodeError(t, w).Code)
	m.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestProcessFNOL_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/process-fnol", nil)
	newEngine(new(mockProcessor), 1<<20, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessFNOL_TooLarge(t *testing.T) {
	m := new(mockProcessor)

	w := httptest.NewRecorder()
	newEngine(m, 64, nil).ServeHTTP(w, uploadRequest(t, "/process-fnol", "file", "a.txt", bytes.Repeat([]byte("a"), 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, w).Code)
	m.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

// panicProcessor panics past the pipeline's own recovery
type panicProcessor struct{}

func (panicProcessor) Process(ctx context.Context, path string) (*model.Report, error) {
	panic("unexpected")
}

func TestProcessFNOL_PanicIsIsolated(t *testing.T) {
	r := newEngine(panicProcessor{}, 1<<20, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/process-fnol", "file", "a.txt", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Code)

	// The engine keeps serving
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	m := new(mockProcessor)
	m.On("Process", mock.Anything, mock.Anything).Return(&model.Report{}, nil)
	r := newEngine(m, 1<<20, worker.NewLimiter(0.001, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "/process-fnol", "file", "a.txt", []byte("x")))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health checks are not limited
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	newEngine(new(mockProcessor), 0, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrMissingUpload, http.StatusBadRequest, "MISSING_FILE"},
		{model.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{errors.Join(model.ErrTempFile, errors.New("disk full")), http.StatusInternalServerError, "STORAGE_FAILED"},
		{model.ErrPipelineFault, http.StatusInternalServerError, "PROCESSING_FAILED"},
		{errors.New("other"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, msg := server.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestNew_UsesConfig(t *testing.T) {
	cfg := model.DefaultConfig().Server
	s := server.New(cfg, new(mockProcessor), []string{".txt"}, "v-test", quiet)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "v-test")
}
