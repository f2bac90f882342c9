package health

import (
	"net/http"

	"github.com/dmitrymomot/relay"
)

// LivenessHandler always answers 200 with a healthy report.
func LivenessHandler() relay.HandlerFunc {
	return func(c relay.Context) error {
		return c.JSON(http.StatusOK, &Report{Status: StatusHealthy})
	}
}

// ReadinessHandler runs checks and answers 200 with the report, or 503 when
// a check failed. Dispatching to it therefore fails with a ProcessingError
// carrying status 503 while a dependency is down.
func ReadinessHandler(checks Checks, opts ...Option) relay.HandlerFunc {
	cfg := newConfig(opts...)
	return func(c relay.Context) error {
		report := probe(c.Context(), checks, cfg)
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, report)
	}
}

// Routes registers the liveness and readiness probes as POST routes.
type Routes struct {
	Checks    Checks
	Options   []Option
	Liveness  string
	Readiness string
}

func (h Routes) Routes(r relay.Router) {
	if h.Liveness != "" {
		r.POST(h.Liveness, LivenessHandler())
	}
	if h.Readiness != "" {
		r.POST(h.Readiness, ReadinessHandler(h.Checks, h.Options...))
	}
}
