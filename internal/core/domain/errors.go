package domain

import (
	"errors"
	"fmt"
)

// ErrorType groups error codes into the four failure families the engine
// distinguishes. The orchestration layer branches on type, never on
// vendor-specific shapes.
type ErrorType string

const (
	ErrorTypePlatform   ErrorType = "platform_error"
	ErrorTypeSync       ErrorType = "sync_error"
	ErrorTypeGeneration ErrorType = "generation_error"
	ErrorTypeBusiness   ErrorType = "business_error"
	ErrorTypeValidation ErrorType = "validation_error"
)

// Error codes. Platform and sync codes are produced by the outbound
// adapters when mapping vendor or tool failures; business codes are
// produced by the usecases themselves.
const (
	// platform
	CodeTokenExpired       = "token_expired"
	CodeBudgetInsufficient = "budget_insufficient"
	CodeCreativeRejected   = "creative_rejected"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
	CodeServiceUnavailable = "service_unavailable"
	// sync
	CodeToolNotFound     = "tool_not_found"
	CodeInvalidParams    = "invalid_parameters"
	CodeExecutionTimeout = "execution_timeout"
	CodeConnectionFailed = "connection_failed"
	// generation
	CodeGenerationTimeout = "generation_timeout"
	CodeGenerationFailed  = "generation_failed"
	CodeGenerationQuota   = "generation_quota_exceeded"
	// business
	CodeAccountNotBound      = "account_not_bound"
	CodeCreativeNotFound     = "creative_not_found"
	CodeCampaignNotFound     = "campaign_not_found"
	CodeInvalidBudget        = "invalid_budget"
	CodeInsufficientCredits  = "insufficient_credits"
	CodeUnknownAction        = "unknown_action"
	CodeUnsupportedPlatform  = "unsupported_platform"
	CodeTestNotFound         = "test_not_found"
	CodeRuleNotFound         = "rule_not_found"
	CodeInvalidRuleCondition = "invalid_rule_condition"
)

// Error is the engine-wide structured error. Every failure that crosses a
// component boundary is one of these, so callers can decide on retries and
// render a stable envelope without inspecting wrapped causes.
type Error struct {
	Code      string
	Type      ErrorType
	Message   string
	Retryable bool
	Details   map[string]any
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetails attaches recovery context (partial ids, required amounts) to
// the error and returns it for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithCause wraps the underlying error for logs while keeping the stable
// code/message surface.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// NewPlatformError builds a platform-family error. Only rate-limit and
// service-unavailable conditions are retryable; token, budget and creative
// failures surface immediately.
func NewPlatformError(code, message string) *Error {
	return &Error{
		Code:      code,
		Type:      ErrorTypePlatform,
		Message:   message,
		Retryable: code == CodeRateLimitExceeded || code == CodeServiceUnavailable,
	}
}

// NewSyncError builds a data-platform tool error. Timeouts and connection
// failures are retryable; a missing tool or bad parameters are not.
func NewSyncError(code, message string) *Error {
	return &Error{
		Code:      code,
		Type:      ErrorTypeSync,
		Message:   message,
		Retryable: code == CodeExecutionTimeout || code == CodeConnectionFailed,
	}
}

// NewGenerationError builds an AI-generation error. Generation failures are
// never retried by the executor; the campaign manager falls back to template
// copy instead.
func NewGenerationError(code, message string) *Error {
	return &Error{Code: code, Type: ErrorTypeGeneration, Message: message}
}

// NewBusinessError builds a terminal business-rule error.
func NewBusinessError(code, message string) *Error {
	return &Error{Code: code, Type: ErrorTypeBusiness, Message: message}
}

// NewValidationError reports malformed or missing action parameters.
func NewValidationError(message string) *Error {
	return &Error{Code: CodeInvalidParams, Type: ErrorTypeValidation, Message: message}
}

// IsRetryable reports whether err carries a retryable engine error. Plain
// errors are treated as non-retryable so unknown failures never loop.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// AsEngineError extracts the structured error from err, wrapping plain
// errors as a non-retryable service failure so the HTTP layer always has an
// envelope to render.
func AsEngineError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeServiceUnavailable,
		Type:    ErrorTypePlatform,
		Message: "internal error",
		cause:   err,
	}
}
