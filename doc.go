// Package relay feeds arbitrary payloads into ordinary HTTP-style handlers
// without a network.
//
// A [Bridge] turns each payload into a synthetic [Request] (method POST,
// content type application/json, the payload as body), runs it through a
// [HandlerRouter] together with an empty [Response], and hands the filled
// response back to the caller. A final status other than 200 is reported
// as a [ProcessingError]; a router that raised is reported as a
// [DispatchError].
//
// # Quick Start
//
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.Recover(), middlewares.RequestID()),
//	    relay.WithHandlers(handlers.NewOrders(repo)),
//	)
//
//	bridge, err := relay.NewBridge(app)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := bridge.Dispatch(ctx, "/orders/created", order)
//	if pe := relay.AsProcessingError(err); pe != nil {
//	    log.Printf("handler answered %d", pe.StatusCode())
//	}
//
// # Handlers
//
// Handlers implement [Handler] and declare routes on a chi-backed [Router]:
//
//	func (h *Orders) Routes(r relay.Router) {
//	    r.POST("/orders/created", h.created)
//	}
//
//	func (h *Orders) created(c relay.Context) error {
//	    order, err := relay.Payload[Order](c)
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(200, h.repo.Save(c, order))
//	}
//
// Plain http.Handler code mounted with Router.Mount reaches the synthetic
// pair through [RequestFromContext] and [ResponseFromContext].
//
// # Sessions
//
// With [WithSessionStore] the bridge loads the session named by
// Message.SessionID before the exchange and saves it afterwards when the
// handler changed it. Invalidated sessions are deleted from the store.
//
// # Sources
//
// [Run] drives long-running payload sources (River jobs, Redis lists) and
// stops them on SIGINT or SIGTERM:
//
//	err := relay.Run(
//	    relay.WithSource("jobs", job.NewWorker(pool, bridge)),
//	    relay.WithSource("queue", redisqueue.NewConsumer(client, bridge, "relay:inbox")),
//	    relay.WithShutdownHook(db.Shutdown(pool)),
//	)
package relay
