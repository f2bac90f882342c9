// Package redis opens go-redis clients for relay components.
//
// Two components talk to Redis: the session store (session.NewRedisStore)
// and the list-backed payload source (pkg/redisqueue). Both take the
// redis.UniversalClient returned by Open, which retries the initial PING
// with a linear backoff before giving up:
//
//	client, err := redis.Open(ctx, "redis://localhost:6379/0",
//	    redis.WithRetry(5, time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//
// Healthcheck and Shutdown return closures for readiness probes and
// relay.WithShutdownHook.
package redis
