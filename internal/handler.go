package internal

import "context"

// Handler declares routes on a router.
//
// Example:
//
//	type OrdersHandler struct {
//	    repo *repository.Queries
//	}
//
//	func (h *OrdersHandler) Routes(r relay.Router) {
//	    r.POST("/orders/created", h.created)
//	    r.POST("/orders/{id}/cancelled", h.cancelled)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// It receives a Context and returns an error.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect/modify the exchange, short-circuit processing,
// or wrap the response.
//
// Example:
//
//	func RequireTenant(next relay.HandlerFunc) relay.HandlerFunc {
//	    return func(c relay.Context) error {
//	        if c.Header("X-Tenant") == "" {
//	            return c.Error(400, "tenant header required")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
// Returning nil marks the error as handled. A returned error is raised to
// the caller of the router.
type ErrorHandler func(Context, error) error

// HandlerRouter serves one synthetic exchange: it resolves the request path,
// runs application logic that writes to the response, and returns. A
// returned error means the router raised during the exchange.
type HandlerRouter interface {
	Serve(ctx context.Context, req *Request, resp *Response) error
}

// HandlerRouterFunc adapts a function to HandlerRouter.
type HandlerRouterFunc func(ctx context.Context, req *Request, resp *Response) error

// Serve calls f(ctx, req, resp).
func (f HandlerRouterFunc) Serve(ctx context.Context, req *Request, resp *Response) error {
	return f(ctx, req, resp)
}
