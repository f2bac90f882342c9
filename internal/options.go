package internal

import (
	"log/slog"

	"github.com/dmitrymomot/relay/pkg/logger"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
// The handler runs before the default rendering of *HTTPError values.
//
// Example:
//
//	relay.WithErrorHandler(func(c relay.Context, err error) error {
//	    if errors.Is(err, repository.ErrNotFound) {
//	        return c.Response().SendErrorMessage(404, "not found")
//	    }
//	    return err
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets a custom handler for unmatched paths.
// Default: an *HTTPError with status 404.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		if h != nil {
			a.notFoundHandler = h
		}
	}
}

// WithMethodNotAllowedHandler sets a custom handler for unmatched methods.
// Default: an *HTTPError with status 405.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		if h != nil {
			a.methodNotAllowedHandler = h
		}
	}
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	relay.WithLogger("orders", relay.DispatchIDExtractor())
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}
