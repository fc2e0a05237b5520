package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDecoding          = errors.New("decoding error")
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrInvalidURL        = errors.New("invalid url")
	ErrNoSuchRequest     = errors.New("no such request")
	ErrFileNotFound      = errors.New("file not found")
	ErrTimeout           = errors.New("timeout")
	ErrInternal          = errors.New("internal error")
	ErrCancelled         = errors.New("cancelled")
)

// Error is an error of a given kind with a human readable detail and an
// optional underlying cause.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Decoding wraps a document decoding failure.
func Decoding(detail string, err error) error {
	return &Error{Kind: ErrDecoding, Detail: detail, Err: err}
}

// Decodingf formats a document decoding failure.
func Decodingf(format string, args ...any) error {
	return &Error{Kind: ErrDecoding, Detail: fmt.Sprintf(format, args...)}
}

// UndefinedVariable names the residual template text.
func UndefinedVariable(residual string) error {
	return &Error{Kind: ErrUndefinedVariable, Detail: residual}
}

func InvalidURL(url string, err error) error {
	return &Error{Kind: ErrInvalidURL, Detail: url, Err: err}
}

func NoSuchRequest(name string) error {
	return &Error{Kind: ErrNoSuchRequest, Detail: name}
}

func FileNotFound(path string, err error) error {
	return &Error{Kind: ErrFileNotFound, Detail: path, Err: err}
}

// Timeout reports a request that did not complete within d.
func Timeout(request string, d time.Duration) error {
	return &Error{Kind: ErrTimeout, Detail: fmt.Sprintf("request %q exceeded %s", request, d)}
}

func Internal(format string, args ...any) error {
	return &Error{Kind: ErrInternal, Detail: fmt.Sprintf(format, args...)}
}

// Cancelled wraps the reason a run was cancelled, if any.
func Cancelled(err error) error {
	return &Error{Kind: ErrCancelled, Err: err}
}
