package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/relay/internal"
)

// DefaultTimeout is the default handler timeout.
const DefaultTimeout = 30 * time.Second

// Timeout returns middleware that bounds the handler's context with a deadline.
//
// The handler runs on the calling goroutine and must watch c.Done() to stop
// early; the synthetic response is not safe for concurrent writes, so the
// middleware never abandons a running handler. When the deadline passed
// before the handler returned, a TimeoutError is returned instead of the
// handler's result. A non-positive timeout uses DefaultTimeout.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			parent := c.Context()
			ctx, cancel := context.WithTimeout(parent, timeout)
			defer cancel()

			c.SetContext(ctx)
			err := next(c)
			c.SetContext(parent)

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
				c.LogWarn("handler timeout", "timeout", timeout.String())
				return &TimeoutError{Duration: timeout, Path: c.Request().RequestURI(), Err: err}
			}
			return err
		}
	}
}
