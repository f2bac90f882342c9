// Package middlewares provides exchange middleware for relay applications.
//
// # Request ID
//
// RequestID assigns an ID to each exchange. It reuses an X-Request-ID or
// X-Correlation-ID header, then the dispatch ID, and generates a ULID
// otherwise.
//
//	app := relay.New(
//	    relay.WithLogger("orders", relay.DispatchIDExtractor(), middlewares.RequestIDExtractor()),
//	    relay.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover catches panics and converts them to *PanicError. By default the
// error is raised out of the router, so Bridge.Dispatch reports a
// DispatchError. WithRecoverAsStatus renders a 500 response instead.
//
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.Recover(middlewares.WithRecoverAsStatus())),
//	)
//
// # Timeout
//
// Timeout puts a deadline on the handler context. Handlers must honour
// c.Done(); a handler that returns after the deadline yields *TimeoutError.
//
// # Locale
//
// Locale negotiates the response locale from Accept-Language.
//
// # Access log
//
// AccessLog writes one entry per exchange with status, size and duration.
package middlewares
