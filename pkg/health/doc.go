// Package health probes the dependencies of a relay service.
//
// Checks are plain func(context.Context) error closures, the shape returned
// by db.Healthcheck, redis.Healthcheck and job.Healthcheck. [Probe] runs them
// in parallel under one timeout and aggregates a [Report].
//
// Two integrations are provided. [StartupHook] gates relay.Run: when any
// check fails the sources never start. [Routes] exposes liveness and
// readiness as dispatchable routes, so a prober can push a message to
// /health/ready through any source and read the report from the response:
//
//	app := relay.New(relay.WithHandlers(health.Routes{
//	    Liveness:  "/health/live",
//	    Readiness: "/health/ready",
//	    Checks: health.Checks{
//	        "postgres": db.Healthcheck(pool),
//	        "redis":    redis.Healthcheck(client),
//	    },
//	}))
//
// A failed readiness probe answers 503, which the bridge reports as a
// ProcessingError.
package health
