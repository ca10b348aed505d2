package function

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

// HandlerFunc is the handler signature lambda.Start expects for HTTP API
// (payload format 2.0) and function URL events.
type HandlerFunc func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// Handler adapts d to the Lambda runtime. It never returns an error: failures
// are already envelopes produced by the dispatcher's error boundary.
func Handler(d *router.Dispatcher) HandlerFunc {
	return func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		env := d.Handle(ctx, event, InvocationFromContext(ctx))
		return ToResponse(env), nil
	}
}

// Start runs d in the Lambda runtime. It blocks for the life of the process.
func Start(d *router.Dispatcher, opts ...lambda.Option) {
	lambda.StartWithOptions(Handler(d), opts...)
}

// InvocationFromContext reads invocation metadata placed on ctx by the runtime.
func InvocationFromContext(ctx context.Context) request.Invocation {
	var inv request.Invocation
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		inv.RequestID = lc.AwsRequestID
		inv.FunctionARN = lc.InvokedFunctionArn
	}
	if deadline, ok := ctx.Deadline(); ok {
		inv.Deadline = deadline
	}
	return inv
}

// ToResponse converts an envelope to the gateway response. Set-Cookie values
// move to Cookies; other multi-valued headers are comma-joined as payload
// format 2.0 requires.
func ToResponse(env *response.Envelope) events.APIGatewayV2HTTPResponse {
	if env == nil {
		env = router.DefaultErrorResponse()
	}

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode:      env.StatusCode,
		Body:            env.Body,
		IsBase64Encoded: env.IsBinary,
		Headers:         make(map[string]string, len(env.Headers)),
	}
	for key, values := range env.Headers {
		if len(values) == 0 {
			continue
		}
		if http.CanonicalHeaderKey(key) == "Set-Cookie" {
			resp.Cookies = append(resp.Cookies, values...)
			continue
		}
		resp.Headers[key] = strings.Join(values, ",")
	}
	return resp
}
