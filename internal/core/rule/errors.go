package rule

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrInvalidRule is returned for malformed rules: unknown kind, wrong
	// arity, empty or unquotable arguments.
	ErrInvalidRule = errors.New("invalid rule")
)

// RuleError wraps ErrInvalidRule with the offending kind.
type RuleError struct {
	Kind    string
	Message string
	Err     error
}

func (e *RuleError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s rule: %s", e.Kind, e.Message)
	}
	return e.Message
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// NewRuleError creates a new RuleError wrapping ErrInvalidRule.
func NewRuleError(kind, message string) *RuleError {
	return &RuleError{
		Kind:    kind,
		Message: message,
		Err:     ErrInvalidRule,
	}
}
