package middlewares

import (
	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/id"
	"github.com/dmitrymomot/relay/pkg/logger"
)

type requestIDKey struct{}

// DefaultRequestIDHeaders are the headers checked (in order) for an existing request ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	Generator      func() string // ID generator function
	ResponseHeader string        // Response header name, empty to skip
	Headers        []string      // Headers to check for existing ID (in order)
	UseDispatchID  bool          // Fall back to the dispatch ID before generating
}

// RequestIDOption configures RequestIDConfig.
type RequestIDOption func(*RequestIDConfig)

// WithRequestIDHeaders sets the headers to check for existing request IDs.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Headers = headers
	}
}

// WithRequestIDGenerator sets a custom ID generator function.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Generator = gen
	}
}

// WithRequestIDResponseHeader sets the response header name.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.ResponseHeader = header
	}
}

// WithoutDispatchIDFallback always generates a fresh ID when no header carries one.
func WithoutDispatchIDFallback() RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.UseDispatchID = false
	}
}

// RequestID returns middleware that assigns a request ID to each exchange.
// The ID comes from the first matching request header, then from the
// dispatch ID, and is generated as a ULID otherwise. It is stored in the
// context and echoed as a response header.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &RequestIDConfig{
		Headers:        DefaultRequestIDHeaders,
		Generator:      id.NewULID,
		ResponseHeader: "X-Request-ID",
		UseDispatchID:  true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			var reqID string
			for _, header := range cfg.Headers {
				if v := c.Header(header); v != "" {
					reqID = v
					break
				}
			}
			if reqID == "" && cfg.UseDispatchID {
				reqID = internal.DispatchIDFromContext(c)
			}
			if reqID == "" {
				reqID = cfg.Generator()
			}

			c.Set(requestIDKey{}, reqID)
			if cfg.ResponseHeader != "" {
				c.SetHeader(cfg.ResponseHeader, reqID)
			}

			return next(c)
		}
	}
}

// GetRequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func GetRequestID(c internal.Context) string {
	if v, ok := c.Get(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// RequestIDExtractor returns a ContextExtractor for use with WithLogger.
// Adds "request_id" to every log entry written inside an exchange.
func RequestIDExtractor() logger.ContextExtractor {
	return logger.StringExtractor(requestIDKey{}, "request_id")
}
