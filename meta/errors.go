package meta

import (
	"fmt"
)

// ErrorCode distinguishes the closed set of failure modes surfaced by this
// SDK. Codes are stable and suitable for programmatic handling; messages are
// not.
type ErrorCode string

const (
	ErrCodeInvalidLoginURL        ErrorCode = "INVALID_LOGIN_URL"
	ErrCodeInvalidLogoutURL       ErrorCode = "INVALID_LOGOUT_URL"
	ErrCodeInvalidSessionURL      ErrorCode = "INVALID_SESSION_URL"
	ErrCodeInvalidTokenURL        ErrorCode = "INVALID_TOKEN_URL"
	ErrCodeInvalidSessionResponse ErrorCode = "INVALID_SESSION_RESPONSE"
	ErrCodeInvalidTokenResponse   ErrorCode = "INVALID_TOKEN_RESPONSE"
	ErrCodeSessionFetchFailed     ErrorCode = "SESSION_FETCH_FAILED"
	ErrCodeTokenFetchFailed       ErrorCode = "TOKEN_FETCH_FAILED"
	ErrCodeUnauthenticated        ErrorCode = "UNAUTHENTICATED"
)

// AuthError is the error type for all failures surfaced by this SDK. It
// carries one of the codes above, a human-readable reason, and, where a
// lower-level failure was the trigger, the wrapped original cause. An
// AuthError is immutable once constructed.
type AuthError struct {
	Code   ErrorCode `json:"code"`
	Reason string    `json:"reason"`
	cause  error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Cause returns the wrapped original cause, if any. This makes AuthError
// compatible with errors.Cause.
func (e *AuthError) Cause() error {
	return e.cause
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

// CodeOf returns the ErrorCode carried by err, or the empty string if err is
// not an AuthError.
func CodeOf(err error) ErrorCode {
	if authErr, ok := err.(*AuthError); ok {
		return authErr.Code
	}
	return ""
}

func NewErrInvalidLoginURL(reason string) *AuthError {
	return &AuthError{
		Code:   ErrCodeInvalidLoginURL,
		Reason: reason,
	}
}

func NewErrInvalidLogoutURL(reason string) *AuthError {
	return &AuthError{
		Code:   ErrCodeInvalidLogoutURL,
		Reason: reason,
	}
}

func NewErrInvalidSessionURL(reason string) *AuthError {
	return &AuthError{
		Code:   ErrCodeInvalidSessionURL,
		Reason: reason,
	}
}

func NewErrInvalidTokenURL(reason string) *AuthError {
	return &AuthError{
		Code:   ErrCodeInvalidTokenURL,
		Reason: reason,
	}
}

// NewErrInvalidSessionResponse signals a session endpoint response that
// violates the expected contract. The optional details enumerate the
// specific violations.
func NewErrInvalidSessionResponse(details ...string) *AuthError {
	return &AuthError{
		Code:   ErrCodeInvalidSessionResponse,
		Reason: reasonWithDetails("session endpoint returned an invalid response", details),
	}
}

// NewErrInvalidTokenResponse signals a token endpoint response that violates
// the expected contract. The optional details enumerate the specific
// violations.
func NewErrInvalidTokenResponse(details ...string) *AuthError {
	return &AuthError{
		Code:   ErrCodeInvalidTokenResponse,
		Reason: reasonWithDetails("token endpoint returned an invalid response", details),
	}
}

func NewErrSessionFetchFailed(cause error) *AuthError {
	return &AuthError{
		Code:   ErrCodeSessionFetchFailed,
		Reason: "error establishing session",
		cause:  cause,
	}
}

func NewErrTokenFetchFailed(cause error) *AuthError {
	return &AuthError{
		Code:   ErrCodeTokenFetchFailed,
		Reason: "error fetching access token",
		cause:  cause,
	}
}

func NewErrUnauthenticated(cause error) *AuthError {
	return &AuthError{
		Code:   ErrCodeUnauthenticated,
		Reason: "the caller is not authenticated",
		cause:  cause,
	}
}

func reasonWithDetails(reason string, details []string) string {
	if len(details) == 0 {
		return reason
	}
	msg := fmt.Sprintf("%s:", reason)
	for i, detail := range details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i+1, detail)
	}
	return msg
}
