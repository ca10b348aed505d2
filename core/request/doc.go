// Package request builds the per-invocation request context from a raw API Gateway
// HTTP event.
//
// A Context carries the normalized request (host, path, method, query, body,
// cookies, lower-cased headers) plus the operation fields populated when the
// invocation targets the single operation endpoint. It also accumulates the
// response side effects produced while the pipeline runs: header sets, header
// appends and diagnostic log entries.
//
//	b := request.NewBuilder(request.WithOperationPath("/operation"))
//	ctx, err := b.Build(goCtx, event, request.Invocation{RequestID: lc.AwsRequestID})
//	if err != nil {
//		return err
//	}
//	if ctx.IsOperation() {
//		// ctx.OperationName, ctx.OperationPayload, ctx.Version(), ctx.CSRFToken()
//	}
//
// Context implements context.Context, so it can be passed straight to stores and
// clients that take one.
package request
