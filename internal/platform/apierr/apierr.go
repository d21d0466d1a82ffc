package apierr

import (
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a machine-readable code from a service up to
// the handler that renders it.
type Error struct {
	Status  int
	Code    string
	Err     error
	Details any
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

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func Internal(code string, err error) *Error {
	return New(http.StatusInternalServerError, code, err)
}

// WithDetails attaches a structured payload rendered next to the message.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.Details = details
	return e
}
