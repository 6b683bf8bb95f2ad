// Package errors maps scoring failures onto job-worker outcomes: retry with backoff or BPMN error.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

const (
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidCriteria ErrorCode = "INVALID_CRITERIA"

	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"

	ErrCodeScoreFetchFailed      ErrorCode = "SCORE_FETCH_FAILED"
	ErrCodeScorePersistFailed    ErrorCode = "SCORE_PERSIST_FAILED"
	ErrCodeCriteriaReplaceFailed ErrorCode = "CRITERIA_REPLACE_FAILED"
	ErrCodeRescoreFailed         ErrorCode = "RESCORE_FAILED"

	ErrCodeTimeout  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured form every worker failure is normalized to.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// WithMetadata returns the error with an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is what gets thrown to (or failed back into) the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job variables failed validation", details, false)
}

func NewInvalidCriteriaError(details string) *StandardError {
	return newError(ErrCodeInvalidCriteria, "Requisition criteria are invalid", details, false)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewScoreFetchFailedError(err error) *StandardError {
	return newError(ErrCodeScoreFetchFailed, "Failed to load scoring inputs", err.Error(), true)
}

func NewScorePersistFailedError(err error) *StandardError {
	return newError(ErrCodeScorePersistFailed, "Failed to persist candidate score", err.Error(), true)
}

func NewCriteriaReplaceFailedError(err error) *StandardError {
	return newError(ErrCodeCriteriaReplaceFailed, "Failed to replace requisition criteria", err.Error(), true)
}

func NewRescoreFailedError(err error) *StandardError {
	return newError(ErrCodeRescoreFailed, "Requisition rescore could not start", err.Error(), true)
}

func NewTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Operation '%s' timed out", operation), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// AsStandardError unwraps err to a StandardError, or wraps it as an internal error.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 4. Retry Policy
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:          "INVALID_INPUT",
	ErrCodeInvalidCriteria:       "INVALID_CRITERIA",
	ErrCodeApplicationNotFound:   "APPLICATION_NOT_FOUND",
	ErrCodeScoreFetchFailed:      "SCORE_FETCH_FAILED",
	ErrCodeScorePersistFailed:    "SCORE_PERSIST_FAILED",
	ErrCodeCriteriaReplaceFailed: "CRITERIA_REPLACE_FAILED",
	ErrCodeRescoreFailed:         "RESCORE_FAILED",
	ErrCodeTimeout:               "TIMEOUT_ERROR",
}

// GetRetryCount is the retry budget per error class. Zero means throw a BPMN error instead.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeScoreFetchFailed,
		ErrCodeScorePersistFailed,
		ErrCodeCriteriaReplaceFailed,
		ErrCodeRescoreFailed:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

const (
	baseRetryBackoff = time.Second
	maxRetryBackoff  = 30 * time.Second
)

// RetryBackoff doubles per attempt already consumed, capped at maxRetryBackoff.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	backoff := baseRetryBackoff
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return backoff
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "FETCH") ||
		strings.Contains(codeStr, "PERSIST") || strings.Contains(codeStr, "REPLACE"):
		return "DATABASE"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}
