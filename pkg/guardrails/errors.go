package guardrails

import (
	"fmt"
	"time"
)

// ValidationError is returned when an allowlist or range check rejects a
// command. Constraint names the violated rule.
type ValidationError struct {
	Field      string
	Constraint string
}

func NewValidationError(field, constraint string) error {
	return &ValidationError{
		Field:      field,
		Constraint: constraint,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Constraint)
}

func IsValidationError(e error) bool {
	_, ok := e.(*ValidationError)
	return ok
}

// RateLimitedError is returned when the sliding window for a category is
// full. RetryAfter hints when the oldest counted event leaves the window.
type RateLimitedError struct {
	Category   Category
	RetryAfter time.Duration
}

func NewRateLimitedError(category Category, retryAfter time.Duration) error {
	return &RateLimitedError{
		Category:   category,
		RetryAfter: retryAfter,
	}
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %s: retry after %s", e.Category, e.RetryAfter)
}

func IsRateLimitedError(e error) bool {
	_, ok := e.(*RateLimitedError)
	return ok
}
