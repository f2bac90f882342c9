// Package logger builds slog loggers for relay services.
//
// Every logger can carry context extractors: functions that pull a value
// out of the context passed to a *Context logging call (a dispatch ID, a
// request ID) and add it as an attribute:
//
//	log := logger.New(relay.DispatchIDExtractor())
//	log.InfoContext(ctx, "dispatched", slog.Int("status", 200))
//	// {"level":"INFO","msg":"dispatched","status":200,"dispatch_id":"01J..."}
//
// NewWithSentry additionally sends warnings and errors to Sentry, falling
// back to stdout only when no DSN is configured. Call FlushSentry during
// shutdown so buffered events are not lost.
//
// NewNope returns a logger that discards everything and is the default for
// components that were not given one.
package logger
