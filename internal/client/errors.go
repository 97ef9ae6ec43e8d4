package client

import (
	"errors"
	"fmt"
)

// Error codes returned by the API.
const (
	CodeInvalid      = "INVALID"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"

	// CodeConflict marks a booking overlap; only it carries alternatives.
	CodeConflict      = "CONFLICT"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeStateConflict = "STATE_CONFLICT"
)

// APIError is a structured error response from the server.
type APIError struct {
	Status       int               `json:"-"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	Errors       map[string]string `json:"errors,omitempty"`
	Conflicts    []Reservation     `json:"conflicts,omitempty"`
	Alternatives *Alternatives     `json:"alternatives,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// TransportError wraps network and decoding failures. Nothing is known about
// whether the server applied the request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an *APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// LocalValidationError is raised before dispatch when the form is incomplete.
type LocalValidationError struct {
	Message string
}

func (e *LocalValidationError) Error() string {
	return e.Message
}
