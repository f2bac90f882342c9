package middlewares

import (
	"net/http"
	"runtime"

	"github.com/dmitrymomot/relay/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
	AsStatus          bool // Render the panic as a 500 response instead of raising it
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// WithRecoverAsStatus turns a recovered panic into a 500 error response.
// The bridge then reports a ProcessingError instead of a DispatchError.
func WithRecoverAsStatus() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.AsStatus = true
	}
}

// Recover returns middleware that recovers from panics.
// By default the PanicError is raised to the caller of the router, so a
// bridge reports it as a DispatchError wrapping *PanicError.
// Dispatch ID and request ID are included in the log entry via extractors.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				var stack []byte
				if !cfg.DisablePrintStack {
					stack = make([]byte, cfg.StackSize)
					stack = stack[:runtime.Stack(stack, false)]
					c.LogError("panic recovered", "panic", r, "path", c.Request().RequestURI(), "stack", string(stack))
				} else {
					c.LogError("panic recovered", "panic", r, "path", c.Request().RequestURI())
				}

				pe := &PanicError{Value: r, Stack: stack, Path: c.Request().RequestURI()}
				if cfg.AsStatus {
					err = internal.ErrInternal(http.StatusText(http.StatusInternalServerError), internal.WithError(pe))
					return
				}
				err = pe
			}()

			return next(c)
		}
	}
}
