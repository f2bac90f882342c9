package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Exchange errors.
var (
	// ErrIllegalState is returned when an operation is not valid in the
	// current state of a request or response (body accessed twice through
	// incompatible accessors, missing session, asynchronous start).
	ErrIllegalState = errors.New("relay: illegal state")

	// ErrCommitted is returned by operations that require an uncommitted response.
	ErrCommitted = fmt.Errorf("%w: response already committed", ErrIllegalState)

	// ErrUnsupported is returned by forward, include and protocol upgrade.
	ErrUnsupported = errors.New("relay: unsupported operation")

	// ErrUnsupportedCharset is returned when a character encoding name
	// cannot be resolved to a decoder or encoder.
	ErrUnsupportedCharset = errors.New("relay: unsupported charset")

	// ErrRouterRequired is returned by NewBridge when no router is supplied.
	ErrRouterRequired = errors.New("relay: handler router is required")

	// ErrNoSession is returned when a session operation needs an existing session.
	ErrNoSession = fmt.Errorf("%w: no session", ErrIllegalState)

	// ErrHandlerPanic is returned by App.Serve when a handler panics and no
	// middleware recovered it.
	ErrHandlerPanic = errors.New("relay: handler panic")

	// ErrNoExchange is returned when a handler runs outside of a synthetic exchange.
	ErrNoExchange = errors.New("relay: no exchange in context")
)

// ParseError reports a header value that could not be parsed.
// The rest of the request stays usable.
type ParseError struct {
	Err    error
	Header string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("relay: cannot parse header %s=%q: %v", e.Header, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProcessingError is reported by Dispatch when the router returned normally
// but the response status is not 200.
type ProcessingError struct {
	Message string
	Path    string
	Status  int
}

func (e *ProcessingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay: processing %s failed with status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("relay: processing %s failed with status %d: %s", e.Path, e.Status, e.Message)
}

// StatusCode returns the final response status.
func (e *ProcessingError) StatusCode() int {
	return e.Status
}

// DispatchError is reported by Dispatch when the router raised an error.
// It wraps the original cause.
type DispatchError struct {
	Err  error
	Path string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("relay: dispatch %s: %v", e.Path, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsProcessingError reports whether err is or wraps a ProcessingError.
func IsProcessingError(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe)
}

// AsProcessingError extracts a ProcessingError from the chain.
// Returns nil if there is none.
func AsProcessingError(err error) *ProcessingError {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// AsDispatchError extracts a DispatchError from the chain.
// Returns nil if there is none.
func AsDispatchError(err error) *DispatchError {
	var de *DispatchError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// HTTPError is an error a handler returns to produce a non-success response.
// The error handler renders it with Response.SendErrorMessage.
type HTTPError struct {
	// Err is the underlying error (for logging, not rendered).
	Err error

	// Message is rendered as the response error message.
	Message string

	// ErrorCode is an application-specific error code.
	ErrorCode string

	// RequestID is the request tracking ID.
	RequestID string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// Convenience constructors for common statuses.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}
