package models

import (
	"errors"
	"fmt"
)

// Error codes recorded in run summaries and logs.
const (
	// ErrCodeInit marks a fatal startup problem: bad credentials, an
	// unreachable sheet, a browser that cannot be launched.
	ErrCodeInit = "INIT_FAILURE"

	ErrCodeInvalidURL = "INVALID_URL"

	// Capture failures.
	ErrCodeNavigation     = "NAVIGATION_FAILED"
	ErrCodeTimeout        = "CAPTURE_TIMEOUT"
	ErrCodeConsentTimeout = "CONSENT_TIMEOUT"
	ErrCodeRender         = "RENDER_FAILED"

	// Upload failures.
	ErrCodeUploadAuth  = "UPLOAD_AUTH"
	ErrCodeUploadQuota = "UPLOAD_QUOTA"
	ErrCodeUploadIO    = "UPLOAD_IO"

	// Sheet failures.
	ErrCodeWriteBack         = "WRITEBACK_FAILED"
	ErrCodeInvalidRow        = "INVALID_ROW"
	ErrCodeSourceUnavailable = "SOURCE_UNAVAILABLE"

	ErrCodeInternal = "INTERNAL_ERROR"
)

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// NewInitError is shorthand for an INIT_FAILURE.
func NewInitError(message string, err error) *PipelineError {
	return NewPipelineError(ErrCodeInit, message, err)
}

// CodeOf returns the code of the first PipelineError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInternal
}

// IsInit reports whether err is fatal for the whole run.
func IsInit(err error) bool {
	return CodeOf(err) == ErrCodeInit
}
