package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/relay/pkg/logger"
)

// App is the chi-backed HandlerRouter.
// Synthetic requests are projected onto *http.Request values and served
// by chi, so routes, URL parameters and middleware behave as they would
// for a request read from a socket.
// App is immutable after creation - all configuration is done via New().
type App struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	logger                  *slog.Logger
	middlewares             []Middleware
	handlers                []Handler
}

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.Recover()),
//	    relay.WithHandlers(
//	        handlers.NewOrders(repo),
//	    ),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:                  chi.NewRouter(),
		logger:                  logger.NewNope(), // Default: noop logger (before options)
		notFoundHandler:         defaultNotFound,
		methodNotAllowedHandler: defaultMethodNotAllowed,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// Serve runs one synthetic exchange through the router.
//
// Errors returned by handlers go through the error handler. An *HTTPError
// is rendered with SendErrorMessage; anything else is returned from Serve.
// A panic that escapes the middleware stack is returned as ErrHandlerPanic.
func (a *App) Serve(ctx context.Context, req *Request, resp *Response) (err error) {
	rw := NewResponseWriter(resp)
	ex := &exchange{
		request:  req,
		response: resp,
		writer:   rw,
		logger:   a.logger,
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()

	a.router.ServeHTTP(rw, req.HTTPRequest(withExchange(ctx, ex)))
	rw.finish()
	return ex.err
}

// setupRoutes configures the router with middleware and handlers.
func (a *App) setupRoutes() {
	a.router.NotFound(a.wrapHandler(a.notFoundHandler))
	a.router.MethodNotAllowed(a.wrapHandler(a.methodNotAllowedHandler))

	// Apply global middleware
	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	// Register handlers
	r := &routerAdapter{router: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

// wrapHandler converts a HandlerFunc to http.HandlerFunc using the app's error handler.
func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex := exchangeFrom(r.Context())
		if ex == nil {
			http.Error(w, ErrNoExchange.Error(), http.StatusInternalServerError)
			return
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			ex.request.SetHandlerPath(rctx.RoutePattern())
		}

		c := newContext(w, r, ex)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError routes a handler error through the error handler and either
// renders it into the response or records it as raised.
func (a *App) handleError(c *requestContext, err error) {
	if a.errorHandler != nil {
		if err = a.errorHandler(c, err); err == nil {
			return
		}
	}

	he := AsHTTPError(err)
	if he == nil || c.ex.response.IsCommitted() {
		c.ex.fail(err)
		return
	}
	_ = c.ex.response.SendErrorMessage(he.Code, he.Message)
}

func defaultNotFound(c Context) error {
	return ErrNotFound("no handler for " + c.Request().RequestURI())
}

func defaultMethodNotAllowed(c Context) error {
	return NewHTTPError(http.StatusMethodNotAllowed,
		fmt.Sprintf("method %s not allowed for %s", c.Request().Method(), c.Request().RequestURI()))
}
