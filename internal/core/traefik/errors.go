package traefik

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrConfigValidation is returned when a service is missing required
	// fields or has an invalid name or port.
	ErrConfigValidation = errors.New("invalid service config")

	// ErrMissingResolver is returned when HTTPS redirection is requested but
	// no certificate resolver is known.
	ErrMissingResolver = errors.New("missing TLS certificate resolver")
)

// ValidationError wraps ErrConfigValidation with the failing field.
type ValidationError struct {
	Service string
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("service %q: %s: %s", e.Service, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(service, field, message string) *ValidationError {
	return &ValidationError{
		Service: service,
		Field:   field,
		Message: message,
		Err:     ErrConfigValidation,
	}
}

// ResolverError wraps ErrMissingResolver.
type ResolverError struct {
	Service string
	Err     error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("service %q: HTTPS redirection requires a TLS certificate resolver", e.Service)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}
