// Package generator – provider error classification
//
// The content provider fails in ways the user can act on (safety block,
// rate limit) and ways only an operator can fix (bad API key). Errors are
// classified here once, close to the provider glue; the bot layer maps each
// class to a user-facing message and escalates config failures.
package generator

import (
	"errors"
	"fmt"
	"strings"
)

// FailureClass buckets provider failures.
type FailureClass string

const (
	// FailureSafety means the provider refused the content on policy grounds.
	FailureSafety FailureClass = "safety"
	// FailureRate means quota or rate limiting at the provider.
	FailureRate FailureClass = "rate"
	// FailureAuth means API key or authorization problems; operator-fixable only.
	FailureAuth FailureClass = "auth"
	// FailureGeneric is everything else, including "no image in response".
	FailureGeneric FailureClass = "generic"
)

// ProviderError wraps a provider failure with its classification.
type ProviderError struct {
	Class FailureClass
	Op    string // "image" or "caption"
	Err   error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.Err }

// Classify returns the failure class of err, FailureGeneric when err is not
// a ProviderError (or is nil).
func Classify(err error) FailureClass {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return FailureGeneric
}

// classifyMessage buckets a raw provider error message by the substrings
// the provider is known to emit. Checked in order: safety phrasing wins
// over quota phrasing, which wins over auth phrasing.
func classifyMessage(msg string) FailureClass {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "safety"),
		strings.Contains(m, "policy"),
		strings.Contains(m, "harmful"),
		strings.Contains(m, "inappropriate"),
		strings.Contains(m, "blocked"):
		return FailureSafety
	case strings.Contains(m, "quota"),
		strings.Contains(m, "rate limit"),
		strings.Contains(m, "too many requests"),
		strings.Contains(m, "resource_exhausted"):
		return FailureRate
	case strings.Contains(m, "api key"),
		strings.Contains(m, "authentication"),
		strings.Contains(m, "unauthorized"),
		strings.Contains(m, "permission_denied"):
		return FailureAuth
	default:
		return FailureGeneric
	}
}

// classifyStatus buckets an HTTP status code from the provider; the body
// text refines the answer when the status alone is ambiguous.
func classifyStatus(status int, body string) FailureClass {
	switch status {
	case 429:
		return FailureRate
	case 401, 403:
		return FailureAuth
	default:
		return classifyMessage(body)
	}
}
