package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the caller's email/access key pair is not whitelisted.
	ErrUnauthorized = errors.New("email or access key is not correct")
	// ErrForbidden means the caller is known but lacks the required role.
	ErrForbidden = errors.New("senior_admin role required")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotConfigured is returned when no data service credentials are set.
	ErrNotConfigured = errors.New("server configuration error: missing API keys")
	// ErrLoginInProgress rejects a second login for an email still being checked.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrSessionNotFound means the session expired or was logged out.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError reports missing or malformed user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError wraps a transport failure or an unreadable response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is an error payload returned by the data service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("data service request failed with status %d", e.Status)
	}
	return e.Message
}

// Unwrap maps well-known statuses onto the auth sentinels so callers can use
// errors.Is regardless of which gateway produced the error.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden, e.Code == "42501":
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// HTTPStatus maps an error from this package to a response status.
func HTTPStatus(err error) int {
	var validation *ValidationError
	var network *NetworkError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLoginInProgress):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.As(err, &network):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
