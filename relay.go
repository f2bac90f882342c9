package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/journal"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/session"
)

// Type aliases - public API
type (
	// App is the chi-backed HandlerRouter. It serves one synthetic
	// exchange per call to Serve.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides exchange access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// HandlerRouter serves one synthetic exchange.
	HandlerRouter = internal.HandlerRouter

	// HandlerRouterFunc adapts a function to HandlerRouter.
	HandlerRouterFunc = internal.HandlerRouterFunc

	// Request is the synthetic HTTP request built for a dispatch.
	Request = internal.Request

	// Response is the in-memory HTTP response filled by the router.
	Response = internal.Response

	// ResponseWriter adapts a Response to http.ResponseWriter.
	ResponseWriter = internal.ResponseWriter

	// Bridge turns payloads into synthetic exchanges.
	Bridge = internal.Bridge

	// BridgeOption configures a Bridge.
	BridgeOption = internal.BridgeOption

	// Message is one payload with optional transport metadata.
	Message = internal.Message

	// Dispatcher is what payload sources deliver messages to.
	Dispatcher = internal.Dispatcher

	// Source delivers payloads until its context is cancelled.
	Source = internal.Source

	// SourceFunc adapts a function to Source.
	SourceFunc = internal.SourceFunc

	// RunOption configures Run.
	RunOption = internal.RunOption

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor

	// Session is the per-client state carried across dispatches.
	Session = session.Session

	// SessionStore persists sessions between dispatches.
	SessionStore = session.Store

	// Recorder receives one journal entry per dispatch.
	Recorder = journal.Recorder

	// HTTPError is returned by handlers to produce an error response.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// ProcessingError reports a non-200 final status.
	ProcessingError = internal.ProcessingError

	// DispatchError reports a router failure. It wraps the cause.
	DispatchError = internal.DispatchError

	// ParseError reports an unparseable header value.
	ParseError = internal.ParseError
)

// Errors for checking return values.
var (
	ErrIllegalState       = internal.ErrIllegalState
	ErrCommitted          = internal.ErrCommitted
	ErrUnsupported        = internal.ErrUnsupported
	ErrUnsupportedCharset = internal.ErrUnsupportedCharset
	ErrRouterRequired     = internal.ErrRouterRequired
	ErrNoSession          = internal.ErrNoSession
	ErrHandlerPanic       = internal.ErrHandlerPanic
	ErrNoExchange         = internal.ErrNoExchange
	ErrNoSources          = internal.ErrNoSources
)

// DispatchContentType is the content type of every dispatched request.
const DispatchContentType = internal.DispatchContentType

// Constructors

// New creates a new application with the given options.
//
// Example:
//
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.Recover()),
//	    relay.WithHandlers(handlers.NewOrders(repo)),
//	)
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// NewBridge creates a bridge over router. Returns ErrRouterRequired when
// router is nil.
//
// Example:
//
//	bridge, err := relay.NewBridge(app,
//	    relay.WithSessionStore(store),
//	    relay.WithRecorder(journal.NewPostgres(pool)),
//	)
//	resp, err := bridge.Dispatch(ctx, "/orders/created", order)
func NewBridge(router HandlerRouter, opts ...BridgeOption) (*Bridge, error) {
	return internal.NewBridge(router, opts...)
}

// NewRequest creates a synthetic request with local defaults.
func NewRequest(method, uri string) *Request {
	return internal.NewRequest(method, uri)
}

// NewResponse creates an open response with status 200.
func NewResponse() *Response {
	return internal.NewResponse()
}

// NewHTTPError creates an HTTPError with the given status and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// Run starts every source and blocks until SIGINT, SIGTERM or the first
// source failure, then runs shutdown hooks.
//
// Example:
//
//	err := relay.Run(
//	    relay.WithSource("jobs", worker),
//	    relay.WithSource("queue", consumer),
//	    relay.WithShutdownHook(db.Shutdown(pool)),
//	    relay.WithRunLogger(log),
//	)
func Run(opts ...RunOption) error {
	return internal.Run(opts...)
}

// App options

// WithMiddleware adds global middleware to the application.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithErrorHandler sets a custom error handler for handler errors.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom handler for unmatched paths.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithMethodNotAllowedHandler sets a custom handler for unmatched methods.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	relay.New(
//	    relay.WithLogger("orders", relay.DispatchIDExtractor()),
//	)
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// Bridge options

// WithBridgeLogger sets the logger for dispatch events.
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return internal.WithBridgeLogger(l)
}

// WithSessionStore enables session persistence between dispatches.
func WithSessionStore(s SessionStore) BridgeOption {
	return internal.WithSessionStore(s)
}

// WithRecorder sets the dispatch journal.
func WithRecorder(r Recorder) BridgeOption {
	return internal.WithRecorder(r)
}

// WithSessionTTL sets the inactivity window of sessions created during a dispatch.
func WithSessionTTL(d time.Duration) BridgeOption {
	return internal.WithSessionTTL(d)
}

// WithServer sets the server name and port of every built request.
func WithServer(name string, port int) BridgeOption {
	return internal.WithServer(name, port)
}

// Run options

// WithSource adds a named payload source.
func WithSource(name string, s Source) RunOption {
	return internal.WithSource(name, s)
}

// WithRunLogger sets the logger for lifecycle events.
func WithRunLogger(l *slog.Logger) RunOption {
	return internal.WithRunLogger(l)
}

// WithShutdownTimeout bounds the time given to shutdown hooks.
// Defaults to 30 seconds.
func WithShutdownTimeout(d time.Duration) RunOption {
	return internal.WithShutdownTimeout(d)
}

// WithStartupHook registers a function to run before sources start.
//
// Example:
//
//	relay.WithStartupHook(func(ctx context.Context) error {
//	    return db.Migrate(ctx, pool, journal.Migrations(), db.DefaultMigrationsTable, log)
//	})
func WithStartupHook(fn func(context.Context) error) RunOption {
	return internal.WithStartupHook(fn)
}

// WithShutdownHook registers a cleanup function to run after sources stop.
//
// Example:
//
//	relay.WithShutdownHook(redis.Shutdown(client))
func WithShutdownHook(fn func(context.Context) error) RunOption {
	return internal.WithShutdownHook(fn)
}

// WithRunContext sets a custom base context for signal handling.
func WithRunContext(ctx context.Context) RunOption {
	return internal.WithRunContext(ctx)
}

// Context helpers

// WithDispatchID stores a dispatch ID in ctx. Bridge reuses it instead of
// generating one.
func WithDispatchID(ctx context.Context, dispatchID string) context.Context {
	return internal.WithDispatchID(ctx, dispatchID)
}

// DispatchIDFromContext returns the ID of the dispatch running in ctx.
func DispatchIDFromContext(ctx context.Context) string {
	return internal.DispatchIDFromContext(ctx)
}

// DispatchIDExtractor logs the current dispatch ID as "dispatch_id".
func DispatchIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := internal.DispatchIDFromContext(ctx); id != "" {
			return slog.String("dispatch_id", id), true
		}
		return slog.Attr{}, false
	}
}

// RequestFromContext returns the synthetic request being served, if any.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	return internal.RequestFromContext(ctx)
}

// ResponseFromContext returns the synthetic response being filled, if any.
func ResponseFromContext(ctx context.Context) (*Response, bool) {
	return internal.ResponseFromContext(ctx)
}

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or type assertion fails.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Payload decodes the dispatched JSON payload into T.
//
// Example:
//
//	order, err := relay.Payload[Order](c)
func Payload[T any](c Context) (T, error) {
	return internal.Payload[T](c)
}

// Param returns a URL parameter converted to T.
// Conversion failures yield the zero value.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns a query parameter converted to T.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a query parameter converted to T, or defaultValue.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// Error helpers

// IsProcessingError reports whether err is or wraps a ProcessingError.
func IsProcessingError(err error) bool {
	return internal.IsProcessingError(err)
}

func AsProcessingError(err error) *ProcessingError {
	return internal.AsProcessingError(err)
}

func AsDispatchError(err error) *DispatchError {
	return internal.AsDispatchError(err)
}

func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

func WithRequestID(id string) HTTPErrorOption {
	return internal.WithRequestID(id)
}

func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

func ErrBadRequest(msg string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(msg, opts...)
}

func ErrNotFound(msg string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(msg, opts...)
}

func ErrConflict(msg string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(msg, opts...)
}

func ErrUnprocessable(msg string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(msg, opts...)
}

func ErrInternal(msg string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(msg, opts...)
}
