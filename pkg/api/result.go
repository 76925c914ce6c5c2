package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Status is the HTTP-like outcome of a simulated request.
type Status int

const (
	StatusOK            Status = http.StatusOK
	StatusCreated       Status = http.StatusCreated
	StatusNoContent     Status = http.StatusNoContent
	StatusBadRequest    Status = http.StatusBadRequest
	StatusNotFound      Status = http.StatusNotFound
	StatusConflict      Status = http.StatusConflict
	StatusInternalError Status = http.StatusInternalServerError
)

// Success reports whether s is a 2xx status.
func (s Status) Success() bool {
	return s >= 200 && s < 300
}

func (s Status) String() string {
	if text := http.StatusText(int(s)); text != "" {
		return fmt.Sprintf("%d %s", int(s), text)
	}
	return fmt.Sprintf("%d", int(s))
}

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Error is a failed Result surfaced as a Go error. It matches the package
// sentinels with errors.Is.
type Error struct {
	Status  Status
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// Is maps the status onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Status == StatusBadRequest
	case ErrNotFound:
		return e.Status == StatusNotFound
	case ErrConflict:
		return e.Status == StatusConflict
	case ErrInternal:
		return e.Status == StatusInternalError
	}
	return false
}

// Result is the response of every simulated request. Data is only
// meaningful when the status is a success.
type Result[T any] struct {
	Status  Status `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"error,omitempty"`
}

// OK reports whether the request succeeded.
func (r Result[T]) OK() bool {
	return r.Status.Success()
}

// Err returns nil on success and an *Error otherwise.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Message}
}

// Unwrap returns the payload together with Err, for callers that prefer
// plain Go error handling.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

func success[T any](status Status, data T) Result[T] {
	return Result[T]{Status: status, Data: data}
}

func failure[T any](status Status, format string, args ...any) Result[T] {
	return Result[T]{Status: status, Message: fmt.Sprintf(format, args...)}
}
