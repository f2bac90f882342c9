package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/relay/pkg/session"
)

// Context gives handlers access to the synthetic exchange plus helpers.
// It also implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	// Request returns the synthetic request.
	Request() *Request

	// Response returns the synthetic response.
	Response() *Response

	// HTTPRequest returns the *http.Request projected from the synthetic request.
	HTTPRequest() *http.Request

	// ResponseWriter returns the http.ResponseWriter adapter over the response.
	ResponseWriter() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns the URL parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Param(name string) string

	// Query returns the query parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// Bind decodes the JSON request body into v.
	Bind(v any) error

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// Blob writes raw bytes with the given status code and content type.
	Blob(code int, contentType string, b []byte) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to url. StatusFound goes through SendRedirect;
	// other codes set Location and commit the response.
	Redirect(code int, url string) error

	// Error creates and returns an HTTPError without writing a response.
	// The error should be returned from the handler to trigger the error handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written returns true if a response has already been written or committed.
	Written() bool

	// Session returns the request session, creating one if needed.
	Session() *session.Session

	// Locale returns the most preferred request locale.
	Locale() language.Tag

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs a warning message with optional attributes.
	LogWarn(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	// The value can be retrieved using Get or from c.Context().Value(key).
	Set(key any, value any)

	// Get retrieves a value from the request context.
	// Returns nil if the key is not found.
	Get(key any) any

	// SetContext replaces the request context. Values stored with Set are
	// kept only if ctx derives from Context().
	SetContext(ctx context.Context)
}

// requestContext implements the Context interface.
type requestContext struct {
	request  *http.Request
	response http.ResponseWriter
	ex       *exchange
}

// newContext creates a handler context for an exchange.
func newContext(w http.ResponseWriter, r *http.Request, ex *exchange) *requestContext {
	return &requestContext{
		request:  r,
		response: w,
		ex:       ex,
	}
}

func (c *requestContext) Request() *Request {
	return c.ex.request
}

func (c *requestContext) Response() *Response {
	return c.ex.response
}

func (c *requestContext) HTTPRequest() *http.Request {
	return c.request
}

func (c *requestContext) ResponseWriter() http.ResponseWriter {
	return c.response
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Header(name string) string {
	return c.ex.request.Header(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) Bind(v any) error {
	if err := json.NewDecoder(c.request.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrBadRequest("empty request body", WithError(err))
		}
		return ErrBadRequest("invalid JSON body", WithError(err))
	}
	return nil
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := io.WriteString(c.response, s)
	return err
}

func (c *requestContext) Blob(code int, contentType string, b []byte) error {
	c.response.Header().Set("Content-Type", contentType)
	c.response.WriteHeader(code)
	_, err := c.response.Write(b)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	if code == http.StatusFound {
		return c.ex.response.SendRedirect(url)
	}
	if c.ex.response.IsCommitted() {
		return ErrCommitted
	}
	c.ex.response.SetHeader("Location", url)
	c.ex.response.SetStatus(code)
	return c.ex.response.FlushBuffer()
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool {
	if rw, ok := c.response.(*ResponseWriter); ok {
		return rw.Written()
	}
	return c.ex.writer.Written()
}

func (c *requestContext) Session() *session.Session {
	return c.ex.request.SessionOrCreate()
}

func (c *requestContext) Locale() language.Tag {
	return c.ex.request.Locale()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.ex.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.ex.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.ex.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.ex.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.ex.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}
