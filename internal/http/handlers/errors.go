// Package handlers defines the HTTP-layer error codes used by the card
// server's JSON endpoints. Codes are lowercase snake_case and stable, so
// clients can branch on them programmatically.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
