package model

import "errors"

// Transport-level faults. The core pipeline itself never returns these; they are
// raised around it and mapped to status codes by the HTTP layer.
var (
	ErrMissingUpload  = errors.New("no document uploaded")
	ErrUploadTooLarge = errors.New("uploaded document exceeds size limit")
	ErrTempFile       = errors.New("transient document storage failed")
	ErrPipelineFault  = errors.New("pipeline fault")
	ErrNoInputs       = errors.New("no input documents")
)
