package api

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired is returned on HTTP 401. The application shell reacts
	// to it (by sending the user to login); the client itself performs no
	// side effects.
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden is returned on HTTP 403.
	ErrForbidden = errors.New("access forbidden: insufficient permissions")
)

// HTTPError is any other non-2xx status.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Status)
}

// BackendError is a well-formed envelope with success=false.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return "backend reported failure"
	}
	return e.Message
}
