// Package router dispatches one request context per invocation to the first
// registered action whose condition matches, running lifecycle hooks around it.
//
// Conditions come in three variants: path templates ("/user/:id", trailing "*")
// and exact operation names, regular expressions over the path or the operation
// name, and arbitrary predicates. Route conditions only match non-operation GET
// requests; operation conditions only match invocations of the operation
// endpoint. Matching is a linear scan in registration order; the first match wins.
//
//	r := router.New(
//		router.WithLogger(log),
//		router.WithExpectedVersion("3"),
//	)
//
//	r.Get("/user/:id", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
//		return res.JSON(map[string]string{"id": ctx.Param("id")})
//	})
//
//	r.Operation("echo", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
//		return res.Operation(ctx.OperationPayload)
//	})
//
//	r.BeforeRender(middleware.RequestID(), -100)
//
//	d, err := r.Build()
//	if err != nil {
//		return err
//	}
//	env := d.Handle(ctx, event, request.Invocation{})
//
// # Pipeline
//
// For each invocation the Dispatcher:
//
//  1. acknowledges CORS preflight requests when WithCORS is set;
//  2. answers operations declaring a stale protocol version with a
//     versionExpired envelope;
//  3. scans the actions; on a match it runs the beforeRender hooks, the payload
//     validator, the action and the afterRender hooks;
//  4. without a match it runs the fallback hooks and the fallback action
//     (204 No Content by default);
//  5. applies the header sets queued on the context, then the header appends.
//
// Hooks run in ascending priority; equal priorities keep registration order.
// A hook returning an error aborts the pipeline with ErrHookAborted.
//
// # Early completion
//
// Resolver.Die returns a resolver whose builders complete the invocation
// immediately. The dispatcher returns that envelope as is, skipping afterRender
// hooks and header post-processing.
//
// # Errors
//
// Returned errors and recovered panics reach the ErrorHandler set with
// WithErrorHandler. Without one, or when it panics or returns nil, the response
// is a fixed 500 Internal Server Error. Panics arrive as PanicError.
package router
