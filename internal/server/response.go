package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/fnolroute/internal/model"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: &APIError{Code: code, Message: msg}})
}

// MapDomainError translates pipeline and transport errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, model.ErrMissingUpload):
		return http.StatusBadRequest, "MISSING_FILE", "multipart field \"file\" is required"
	case errors.Is(err, model.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, model.ErrTempFile):
		return http.StatusInternalServerError, "STORAGE_FAILED", "could not stage the uploaded document"
	case errors.Is(err, model.ErrPipelineFault):
		return http.StatusInternalServerError, "PROCESSING_FAILED", "document could not be processed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps an error and sends the appropriate error response.
func HandleError(c *gin.Context, logger *slog.Logger, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get(ContextKeyRequestID)
		logger.Error("request failed", "request_id", requestID, "code", code, "error", err)
	}
	RespondError(c, status, code, msg)
}
