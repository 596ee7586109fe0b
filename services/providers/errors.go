package providers

import "errors"

// ErrNoContent is returned when a provider answered 2xx but the response
// carried no usable text. The dispatcher treats this like any other provider
// failure and advances to the next candidate.
var ErrNoContent = errors.New("provider returned no content")

// ProviderError represents a failure from a single provider attempt.
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is a short machine-readable error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (0 when the call never completed)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}
