package provider

import (
	"fmt"
)

// ConfigurationError reports missing or malformed client registration.
// Fatal for the operation that hit it; never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("OAuth config error: %s - %s", e.Field, e.Message)
}

// ExchangeError wraps a failed authorization-code exchange: network
// error, provider error response, or malformed payload.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// RefreshError wraps a failed refresh-token grant. Callers treat the
// credential as expired; no automatic retry.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
