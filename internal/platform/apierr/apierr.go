// Package apierr attaches an HTTP status and a stable error code to an
// error, so failures from upstream collaborators (the occupation catalog,
// the LLM gateway) reach the transport layer with the right status instead
// of collapsing into a 500.
package apierr

import "fmt"

// Error wraps an underlying error with the status and code the HTTP layer
// should respond with.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
