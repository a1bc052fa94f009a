package weather

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidLocation     = errors.New("invalid location")
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrProviderRejected    = errors.New("weather provider rejected the request")
	ErrNotFound            = errors.New("weather data not found")
)

// ValidationError names the rejected field and a client-facing reason.
// It matches ErrInvalidDate or ErrInvalidLocation through errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	kind   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.kind
}

// ProviderError describes a failed outbound provider call.
// Message is safe to return to clients; Cause is only for logs.
type ProviderError struct {
	Provider string
	Kind     error // ErrProviderUnavailable or ErrProviderRejected
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Unavailable builds a ProviderError for transport or status failures.
func Unavailable(provider, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrProviderUnavailable, Message: message, Cause: cause}
}

// Rejected builds a ProviderError for application-level errors reported by the provider.
func Rejected(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrProviderRejected, Message: message}
}

// Kind returns the name of the error class err belongs to, or "" if it is not a domain error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDate):
		return "InvalidDate"
	case errors.Is(err, ErrInvalidLocation):
		return "InvalidLocation"
	case errors.Is(err, ErrProviderRejected):
		return "ProviderRejected"
	case errors.Is(err, ErrProviderUnavailable):
		return "ProviderUnavailable"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	}
	return ""
}
