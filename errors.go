package goSession

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session manager.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is an exported constant or variable used by the session manager.
	ErrRateLimited = errors.New("rate limited by provider")
	// ErrUnreachable is an exported constant or variable used by the session manager.
	ErrUnreachable = errors.New("provider unreachable")
	// ErrValidationFailed is an exported constant or variable used by the session manager.
	// Matched by [ValidationError] via errors.Is; carry the provider message with
	// the concrete type.
	ErrValidationFailed = errors.New("validation failed")
	// ErrSessionRequired is an exported constant or variable used by the session manager.
	ErrSessionRequired = errors.New("active session required")
	// ErrModernSessionRequired is an exported constant or variable used by the session manager.
	ErrModernSessionRequired = errors.New("active modern session required")
	// ErrRefreshUnavailable is an exported constant or variable used by the session manager.
	ErrRefreshUnavailable = errors.New("no refresh path for current credentials")
	// ErrOAuthStateMismatch is an exported constant or variable used by the session manager.
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")
	// ErrManagerNotReady is an exported constant or variable used by the session manager.
	ErrManagerNotReady = errors.New("manager not initialized")
)

// ValidationError is the classifier output for a structured client error from
// the provider: the request was understood and rejected with a message meant
// for the end user. The message is passed through verbatim.
type ValidationError struct {
	Message string
}

// Error describes the error operation and its observable behavior.
func (e *ValidationError) Error() string {
	if e == nil || e.Message == "" {
		return "validation failed"
	}
	return "validation failed: " + e.Message
}

// Is reports true for [ErrValidationFailed] so callers can branch on the kind
// without inspecting the concrete type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
