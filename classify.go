package goSession

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goSession/internal/provider"
)

// classify maps a provider failure into the closed error taxonomy. The
// mapping is pure: it never retries and never touches session state.
//
//   - 401 → ErrInvalidCredentials
//   - 429 → ErrRateLimited
//   - other 4xx with a structured message → *ValidationError (verbatim)
//   - 5xx or no structured response (network error, timeout) → ErrUnreachable
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		return ErrUnreachable
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case apiErr.StatusCode >= 500:
		return ErrUnreachable
	default:
		return &ValidationError{Message: apiErr.Message}
	}
}

// rejected reports whether a classified failure means the provider understood
// the request and refused the credential, as opposed to being unreachable.
// Validation treats only rejections as grounds for clearing a session.
func rejected(classified error) bool {
	return errors.Is(classified, ErrInvalidCredentials)
}
