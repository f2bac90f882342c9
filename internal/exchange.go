package internal

import (
	"context"
	"log/slog"
)

type exchangeKey struct{}

// exchange is the synthetic request/response pair travelling through the
// router inside an http.Request context.
type exchange struct {
	request  *Request
	response *Response
	writer   *ResponseWriter
	logger   *slog.Logger
	err      error
}

func withExchange(ctx context.Context, ex *exchange) context.Context {
	return context.WithValue(ctx, exchangeKey{}, ex)
}

func exchangeFrom(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	return ex
}

// fail records the error raised by the router. Only the first one is kept.
func (ex *exchange) fail(err error) {
	if ex.err == nil {
		ex.err = err
	}
}

// RequestFromContext returns the synthetic request being served, if any.
// Plain http.Handler code mounted on the router can use it to reach the
// full request contract.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	ex := exchangeFrom(ctx)
	if ex == nil {
		return nil, false
	}
	return ex.request, true
}

// ResponseFromContext returns the synthetic response being filled, if any.
func ResponseFromContext(ctx context.Context) (*Response, bool) {
	ex := exchangeFrom(ctx)
	if ex == nil {
		return nil, false
	}
	return ex.response, true
}
