// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI and the tool bridge drive the core.
package primary

import "fmt"

// ErrorCode is the closed set of failure codes surfaced to callers.
type ErrorCode string

const (
	CodeAuth            ErrorCode = "AUTH_401"
	CodePermission      ErrorCode = "PERM_403"
	CodeNotFound        ErrorCode = "NOT_FOUND_404"
	CodeRateLimit       ErrorCode = "RATE_LIMIT"
	CodeNetworkTimeout  ErrorCode = "NETWORK_TIMEOUT"
	CodeConfirmRequired ErrorCode = "CONFIRM_REQUIRED"
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodePolicyViolation ErrorCode = "POLICY_VIOLATION"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

var knownCodes = map[ErrorCode]bool{
	CodeAuth: true, CodePermission: true, CodeNotFound: true, CodeRateLimit: true,
	CodeNetworkTimeout: true, CodeConfirmRequired: true, CodeValidation: true,
	CodePolicyViolation: true, CodeInternal: true,
}

// Normalize maps any code outside the closed set to INTERNAL_ERROR.
func (c ErrorCode) Normalize() ErrorCode {
	if knownCodes[c] {
		return c
	}
	return CodeInternal
}

// Error is a refusal raised by a service, carrying its surface code.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates an Error, normalizing unknown codes.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code.Normalize(), Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...any) *Error {
	return NewError(CodeValidation, format, args...)
}

func NewNotFoundError(format string, args ...any) *Error {
	return NewError(CodeNotFound, format, args...)
}

func NewPolicyError(reason string) *Error {
	return &Error{Code: CodePolicyViolation, Message: reason}
}

func NewConfirmRequiredError(message string) *Error {
	return &Error{Code: CodeConfirmRequired, Message: message}
}

func NewAuthError(message string) *Error {
	return &Error{Code: CodeAuth, Message: message}
}
