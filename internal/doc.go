// Package internal holds the implementation behind package relay.
//
// Import "github.com/dmitrymomot/relay" instead; it re-exports the public API.
//
// # Exchange
//
// A dispatch owns one [Request] and one [Response]. [App.Serve] projects the
// request onto an *http.Request, stores the pair in its context and runs the
// chi router with a [ResponseWriter] over the response. Handlers see both
// views: the http ones through [Context.HTTPRequest] and
// [Context.ResponseWriter], the synthetic ones through [Context.Request] and
// [Context.Response].
//
// Headers set on the http.ResponseWriter are copied into the Response on
// the first write, or when the handler returns without writing.
//
// # Errors
//
// Handler errors go to the configured [ErrorHandler] first. A remaining
// *[HTTPError] is rendered with Response.SendErrorMessage while the response
// is still open; anything else is raised to the caller of Serve. Panics
// that no middleware recovered surface as [ErrHandlerPanic].
//
// # Bridge
//
// [Bridge.Dispatch] builds the request, loads the session, serves the
// exchange, persists the session and records a journal entry. The final
// status decides the outcome: 200 succeeds, anything else is a
// [ProcessingError].
package internal
