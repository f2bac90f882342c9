package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/internal"
)

// AccessLog returns middleware that writes one log entry per exchange with
// the path, final status, body size and duration. Failed exchanges log at
// warn level, successful ones at info. Request and dispatch IDs come from
// the app logger's extractors.
func AccessLog() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			resp := c.Response()
			attrs := []any{
				slog.String("method", c.Request().Method()),
				slog.String("path", c.Request().RequestURI()),
				slog.Int("status", resp.Status()),
				slog.Int("bytes", len(resp.BodyBytes())),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				c.LogWarn("exchange failed", attrs...)
				return err
			}
			if resp.Status() >= 400 {
				c.LogWarn("exchange completed", attrs...)
				return nil
			}
			c.LogInfo("exchange completed", attrs...)
			return nil
		}
	}
}
