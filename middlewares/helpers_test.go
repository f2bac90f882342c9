package middlewares_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dmitrymomot/relay/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

// serve runs one POST / exchange through h wrapped in mws.
func serve(t *testing.T, req *internal.Request, h internal.HandlerFunc, opts ...internal.Option) (*internal.Response, error) {
	t.Helper()

	if req == nil {
		req = internal.NewRequest(http.MethodPost, "/")
	}
	opts = append(opts, internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/", h)
	})))
	resp := internal.NewResponse()
	err := internal.New(opts...).Serve(context.Background(), req, resp)
	return resp, err
}
