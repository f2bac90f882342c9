package internal

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Router is the interface handlers use to declare routes.
//
// Dispatched messages always arrive as POST, so POST and Handle cover the
// usual case. Method exists for requests built by hand with NewRequest.
type Router interface {
	// POST routes dispatched messages for path.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// Handle routes path for every method.
	Handle(path string, h HandlerFunc, mw ...Middleware)

	// Method routes path for one method only.
	Method(method, path string, h HandlerFunc, mw ...Middleware)

	// Group creates an inline group sharing middleware but no prefix.
	Group(fn func(r Router))

	// Route creates a group under a pattern prefix.
	Route(pattern string, fn func(r Router))

	// Use appends middleware to this router's stack.
	Use(mw ...Middleware)

	// Mount attaches an http.Handler at pattern. The handler reaches the
	// synthetic pair through RequestFromContext and ResponseFromContext.
	Mount(pattern string, h http.Handler)
}

// routerAdapter declares routes on a chi.Router.
type routerAdapter struct {
	router chi.Router
	app    *App
}

func (r *routerAdapter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Post(path, r.wrap(h, mw...))
}

func (r *routerAdapter) Handle(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Handle(path, r.wrap(h, mw...))
}

func (r *routerAdapter) Method(method, path string, h HandlerFunc, mw ...Middleware) {
	r.router.Method(strings.ToUpper(method), path, r.wrap(h, mw...))
}

func (r *routerAdapter) Group(fn func(Router)) {
	r.router.Group(func(cr chi.Router) {
		fn(&routerAdapter{router: cr, app: r.app})
	})
}

func (r *routerAdapter) Route(pattern string, fn func(Router)) {
	r.router.Route(pattern, func(cr chi.Router) {
		fn(&routerAdapter{router: cr, app: r.app})
	})
}

func (r *routerAdapter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.router.Use(r.app.adaptMiddleware(m))
	}
}

func (r *routerAdapter) Mount(pattern string, h http.Handler) {
	r.router.Mount(pattern, h)
}

func (r *routerAdapter) wrap(h HandlerFunc, mw ...Middleware) http.HandlerFunc {
	// The first route middleware runs outermost.
	mw = slices.Clone(mw)
	slices.Reverse(mw)
	for _, m := range mw {
		h = m(h)
	}
	return r.app.wrapHandler(h)
}

// adaptMiddleware lifts a Context middleware into a chi middleware. A
// request that reached chi without an exchange is answered with 500.
func (a *App) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ex := exchangeFrom(r.Context())
			if ex == nil {
				http.Error(w, ErrNoExchange.Error(), http.StatusInternalServerError)
				return
			}
			nextFunc := func(c Context) error {
				next.ServeHTTP(c.ResponseWriter(), c.HTTPRequest())
				return nil
			}
			c := newContext(w, r, ex)
			if err := mw(nextFunc)(c); err != nil {
				a.handleError(c, err)
			}
		})
	}
}
