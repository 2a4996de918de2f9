package service

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the remote service could not be reached.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: unable to connect to server"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError means the response body was not a valid envelope.
type DecodeError struct {
	Status  int
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	return "unexpected response from server"
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ApplicationError means the remote service rejected the request.
// Message is shown to the user verbatim.
type ApplicationError struct {
	Status  int
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Unauthorized reports whether the remote rejected the bearer token.
func (e *ApplicationError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// ValidationError is raised before a request leaves the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsUnauthorized reports whether err is an ApplicationError carrying 401.
func IsUnauthorized(err error) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr) && appErr.Unauthorized()
}

// IsRemote reports whether err came from the remote client taxonomy.
func IsRemote(err error) bool {
	var netErr *NetworkError
	var decErr *DecodeError
	var appErr *ApplicationError
	return errors.As(err, &netErr) || errors.As(err, &decErr) || errors.As(err, &appErr)
}
