package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned after a 401 has sent the user to the
	// sign-in page.
	ErrUnauthorized = errors.New("session expired, please sign in again")
	// ErrPaymentRequired is returned after a 402 has sent the user to the
	// upgrade page.
	ErrPaymentRequired = errors.New("an active subscription is required")
)

// APIError is a non-success answer from the tree store.
type APIError struct {
	Status   int
	Message  string
	Detail   string
	Fallback string
}

// Error prefers the server's message and falls back to a generic one per
// operation.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Fallback != "" {
		return e.Fallback
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
