package internal_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func serve(t *testing.T, app *internal.App, req *internal.Request) (*internal.Response, error) {
	t.Helper()
	resp := internal.NewResponse()
	err := app.Serve(context.Background(), req, resp)
	return resp, err
}

func TestApp_RoutesAndParams(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.Route("/orders", func(r internal.Router) {
			r.POST("/{id}/items", func(c internal.Context) error {
				return c.JSON(http.StatusOK, map[string]any{
					"id":      internal.Param[int](c, "id"),
					"limit":   internal.QueryDefault(c, "limit", 10),
					"pattern": c.Request().HandlerPath(),
				})
			})
		})
	})))

	req := internal.NewRequest(http.MethodPost, "/orders/42/items")
	req.SetQueryString("limit=5")
	resp, err := serve(t, app, req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Equal(t, "application/json; charset=utf-8", resp.ContentType())
	assert.JSONEq(t, `{"id":42,"limit":5,"pattern":"/orders/{id}/items"}`, string(resp.BodyBytes()))
}

func TestApp_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.Method(http.MethodGet, "/only-get", func(c internal.Context) error { return c.NoContent(http.StatusOK) })
		r.Handle("/any", func(c internal.Context) error { return c.String(http.StatusOK, c.Request().Method()) })
	})))

	resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/missing"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status())
	assert.Equal(t, "no handler for /missing", resp.ErrorMessage())
	assert.True(t, resp.IsCommitted())

	resp, err = serve(t, app, internal.NewRequest(http.MethodPost, "/only-get"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status())

	resp, err = serve(t, app, internal.NewRequest(http.MethodPut, "/any"))
	require.NoError(t, err)
	assert.Equal(t, "PUT", string(resp.BodyBytes()))
}

func TestApp_HandlerErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/http-error", func(c internal.Context) error {
			return c.Error(http.StatusConflict, "already processed")
		})
		r.POST("/plain-error", func(c internal.Context) error {
			return boom
		})
		r.POST("/panic", func(c internal.Context) error {
			panic("kaboom")
		})
		r.POST("/after-commit", func(c internal.Context) error {
			if err := c.String(http.StatusOK, "partial"); err != nil {
				return err
			}
			_ = c.Response().FlushBuffer()
			return internal.ErrBadRequest("too late")
		})
	})))

	t.Run("http error is rendered", func(t *testing.T) {
		t.Parallel()

		resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/http-error"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.Status())
		assert.Equal(t, "already processed", resp.ErrorMessage())
	})

	t.Run("plain error is raised", func(t *testing.T) {
		t.Parallel()

		_, err := serve(t, app, internal.NewRequest(http.MethodPost, "/plain-error"))
		require.ErrorIs(t, err, boom)
	})

	t.Run("panic is raised", func(t *testing.T) {
		t.Parallel()

		_, err := serve(t, app, internal.NewRequest(http.MethodPost, "/panic"))
		require.ErrorIs(t, err, internal.ErrHandlerPanic)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("http error after commit is raised", func(t *testing.T) {
		t.Parallel()

		resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/after-commit"))
		require.Error(t, err)
		assert.NotNil(t, internal.AsHTTPError(err))
		assert.Equal(t, "partial", string(resp.BodyBytes()))
	})
}

func TestApp_ErrorHandler(t *testing.T) {
	t.Parallel()

	errGone := errors.New("gone")
	app := internal.New(
		internal.WithErrorHandler(func(c internal.Context, err error) error {
			if errors.Is(err, errGone) {
				return c.Response().SendErrorMessage(http.StatusGone, "order removed")
			}
			return err
		}),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.POST("/gone", func(c internal.Context) error { return errGone })
		})),
	)

	resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/gone"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, resp.Status())
	assert.Equal(t, "order removed", resp.ErrorMessage())
}

func TestApp_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	type userKey struct{}
	app := internal.New(
		internal.WithMiddleware(trace("global-1"), trace("global-2"), func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				c.Set(userKey{}, "svc-orders")
				return next(c)
			}
		}),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.POST("/mw", func(c internal.Context) error {
				order = append(order, "handler")
				return c.String(http.StatusOK, internal.ContextValue[string](c, userKey{}))
			}, trace("route-1"), trace("route-2"))
		})),
	)

	resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/mw"))
	require.NoError(t, err)
	assert.Equal(t, []string{"global-1", "global-2", "route-1", "route-2", "handler"}, order)
	assert.Equal(t, "svc-orders", string(resp.BodyBytes()))
}

func TestApp_MiddlewareError(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithMiddleware(func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				if c.Header("Authorization") == "" {
					return internal.NewHTTPError(http.StatusUnauthorized, "missing credentials")
				}
				return next(c)
			}
		}),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.POST("/secure", func(c internal.Context) error { return c.NoContent(http.StatusOK) })
		})),
	)

	resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/secure"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status())

	req := internal.NewRequest(http.MethodPost, "/secure")
	req.SetHeader("Authorization", "Bearer x")
	resp, err = serve(t, app, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status())
}

func TestApp_BindAndPayload(t *testing.T) {
	t.Parallel()

	type order struct {
		ID    string `json:"id"`
		Total int    `json:"total"`
	}

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/orders", func(c internal.Context) error {
			o, err := internal.Payload[order](c)
			if err != nil {
				return err
			}
			return c.String(http.StatusOK, o.ID+":"+strings.Repeat("*", o.Total))
		})
	})))

	req := internal.NewRequest(http.MethodPost, "/orders")
	req.SetContent([]byte(`{"id":"o-1","total":3}`))
	resp, err := serve(t, app, req)
	require.NoError(t, err)
	assert.Equal(t, "o-1:***", string(resp.BodyBytes()))

	req = internal.NewRequest(http.MethodPost, "/orders")
	req.SetContent([]byte(`{not json`))
	resp, err = serve(t, app, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status())
	assert.Equal(t, "invalid JSON body", resp.ErrorMessage())

	resp, err = serve(t, app, internal.NewRequest(http.MethodPost, "/orders"))
	require.NoError(t, err)
	assert.Equal(t, "empty request body", resp.ErrorMessage())
}

func TestApp_Redirect(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/found", func(c internal.Context) error { return c.Redirect(http.StatusFound, "/next") })
		r.POST("/moved", func(c internal.Context) error { return c.Redirect(http.StatusMovedPermanently, "/new") })
	})))

	resp, err := serve(t, app, internal.NewRequest(http.MethodPost, "/found"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.Status())
	assert.Equal(t, "/next", resp.Header("Location"))
	assert.True(t, resp.IsCommitted())

	resp, err = serve(t, app, internal.NewRequest(http.MethodPost, "/moved"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.Status())
	assert.Equal(t, "/new", resp.Header("Location"))
}

func TestApp_SyntheticResponseDirectly(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/direct", func(c internal.Context) error {
			c.SetHeader("X-Handled-By", "direct")
			w, err := c.Response().Writer()
			if err != nil {
				return err
			}
			_, err = w.WriteString("hello " + c.Locale().String())
			return err
		})
	})))

	req := internal.NewRequest(http.MethodPost, "/direct")
	resp, err := serve(t, app, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Equal(t, "hello en", string(resp.BodyBytes()))
	// Headers set through the http.Header are copied when the exchange ends.
	assert.Equal(t, "direct", resp.Header("X-Handled-By"))
}

func TestApp_MountedHTTPHandler(t *testing.T) {
	t.Parallel()

	legacy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := internal.RequestFromContext(r.Context())
		if !ok {
			http.Error(w, "no exchange", http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, req.Method()+" "+r.URL.Path+" "+string(body))
	})

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.Mount("/legacy", legacy)
	})))

	req := internal.NewRequest(http.MethodPost, "/legacy/echo")
	req.SetContent([]byte("ping"))
	resp, err := serve(t, app, req)
	require.NoError(t, err)
	assert.Equal(t, "POST /legacy/echo ping", string(resp.BodyBytes()))
	assert.Equal(t, "text/plain", resp.ContentType())
}

func TestApp_Session(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/login", func(c internal.Context) error {
			if err := c.Session().Set("user", "u-1"); err != nil {
				return err
			}
			return c.NoContent(http.StatusOK)
		})
	})))

	req := internal.NewRequest(http.MethodPost, "/login")
	_, err := serve(t, app, req)
	require.NoError(t, err)

	s := req.Session(false)
	require.NotNil(t, s)
	v, err := s.Get("user")
	require.NoError(t, err)
	assert.Equal(t, "u-1", v)
	assert.True(t, s.IsDirty())
}

func TestApp_HandlerRouterFunc(t *testing.T) {
	t.Parallel()

	var router internal.HandlerRouter = internal.HandlerRouterFunc(
		func(_ context.Context, req *internal.Request, resp *internal.Response) error {
			resp.SetStatus(http.StatusAccepted)
			return nil
		})

	resp := internal.NewResponse()
	require.NoError(t, router.Serve(context.Background(), internal.NewRequest(http.MethodPost, "/"), resp))
	assert.Equal(t, http.StatusAccepted, resp.Status())
}
